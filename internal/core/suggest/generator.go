package suggest

import (
	"strings"
)

// DefaultLimit はサジェスト件数のデフォルト値
const DefaultLimit = 5

// 固定の候補プール
var defaultPool = []string{
	"who did the best sales from the sales team?",
	"which representative has the highest performance?",
	"show me all representatives in the North region",
	"what is the average quota by region?",
	"which region has the lowest performance?",
	"who exceeded their quota?",
	"total sales for each region",
	"performance ranking of all representatives",
}

// Generator は入力途中のクエリに対するサジェストを生成する
// 固定プールからの決定的なフィルタリングのみを行い、乱数は使用しない
type Generator struct {
	pool []string
}

// NewGenerator はデフォルトの候補プールを持つ Generator を作成する
func NewGenerator() *Generator {
	return &Generator{pool: defaultPool}
}

// NewGeneratorWithPool は候補プールを指定して Generator を作成する
func NewGeneratorWithPool(pool []string) *Generator {
	return &Generator{pool: pool}
}

// Suggest は部分クエリを含む候補を返す
// 大文字小文字を無視した部分文字列一致でフィルタし、limit 件に切り詰める
func (g *Generator) Suggest(partialQuery string, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}

	lowered := strings.ToLower(strings.TrimSpace(partialQuery))

	suggestions := make([]string, 0, limit)
	for _, candidate := range g.pool {
		if lowered != "" && !strings.Contains(strings.ToLower(candidate), lowered) {
			continue
		}
		suggestions = append(suggestions, candidate)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}
