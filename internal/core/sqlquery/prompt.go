package sqlquery

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// maxTableContextTokens は自由記述コンテキストに割り当てるトークン数の上限
const maxTableContextTokens = 1024

// schemaContext はSQL生成プロンプトに埋め込む固定のスキーマ説明
const schemaContext = `Database Schema:

Table: sheet_cells
Columns:
- id (UUID): Primary key
- file_id (UUID): Reference to sheet_files table
- row_index (INTEGER): Row number in spreadsheet (0-based)
- column_name (VARCHAR): Name of the column/header
- text_value (TEXT): Text content (for embedded data)
- numerical_value (DOUBLE PRECISION): Numerical content (for calculations)
- data_type (VARCHAR): Type of data (text, formula, number, percentage, currency, decimal)

Table: sheet_files
Columns:
- id (UUID): Primary key
- filename (VARCHAR): Name of the uploaded file
- headers (JSONB): Column headers as JSON array
- row_count (INTEGER): Total number of rows

Common column names in sales data:
- Rep Name, Region, Quota, Actual Sales, Performance %

Example queries:
- Best performer: SELECT * FROM sheet_cells WHERE column_name='Performance %' ORDER BY numerical_value DESC LIMIT 1
- Regional analysis: SELECT column_name, AVG(numerical_value) FROM sheet_cells WHERE column_name IN ('Quota', 'Actual Sales') GROUP BY column_name`

// PromptBuilder はSQL生成用プロンプトを構築する
// tiktokenでテーブルコンテキストのトークン数を制限し、プロンプト全体の肥大化を防ぐ
type PromptBuilder struct {
	encoding *tiktoken.Tiktoken
}

// NewPromptBuilder は新しい PromptBuilder を作成する
// エンコーディングの取得に失敗した場合は文字数ベースの切り詰めにフォールバックする
func NewPromptBuilder() *PromptBuilder {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoding = nil
	}
	return &PromptBuilder{encoding: encoding}
}

// Build は自然言語クエリとテーブルコンテキストからプロンプトを構築する
func (b *PromptBuilder) Build(naturalQuery, tableContext string) string {
	additionalContext := "None"
	if tableContext != "" {
		additionalContext = b.truncateContext(tableContext)
	}

	var sb strings.Builder
	sb.WriteString("You are an expert SQL query generator. Convert the natural language query to a safe SQL query.\n\n")
	sb.WriteString(schemaContext)
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("Natural Language Query: %s\n\n", naturalQuery))
	sb.WriteString(fmt.Sprintf("Additional Context: %s\n\n", additionalContext))
	sb.WriteString(`Requirements:
1. Generate ONLY SELECT queries (no INSERT, UPDATE, DELETE, DROP)
2. Use proper JOINs when needed
3. Include column_name filtering when looking for specific data types
4. For performance queries, look for 'Performance %' or similar columns
5. For sales queries, look for 'Actual Sales' or similar columns
6. For names, look for 'Rep Name' or similar columns
7. Always include LIMIT to prevent huge result sets
8. Use proper aggregation functions (AVG, SUM, MAX, MIN) when appropriate

Return format:
SQL_QUERY: [your SQL query here]
EXPLANATION: [brief explanation of what the query does]`)

	return sb.String()
}

// truncateContext はテーブルコンテキストをトークン上限まで切り詰める
func (b *PromptBuilder) truncateContext(tableContext string) string {
	if b.encoding == nil {
		// フォールバック: 1トークン約4文字とみなして切り詰める
		limit := maxTableContextTokens * 4
		if len(tableContext) > limit {
			return tableContext[:limit]
		}
		return tableContext
	}

	tokens := b.encoding.Encode(tableContext, nil, nil)
	if len(tokens) <= maxTableContextTokens {
		return tableContext
	}
	return b.encoding.Decode(tokens[:maxTableContextTokens])
}
