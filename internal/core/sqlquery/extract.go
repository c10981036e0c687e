package sqlquery

import (
	"regexp"
	"strings"
)

// defaultExplanation は説明セクションが見つからない場合のフォールバック
const defaultExplanation = "No explanation provided"

var (
	sqlSectionRe         = regexp.MustCompile(`(?is)SQL_QUERY:\s*(.*?)(?:EXPLANATION:|\z)`)
	explanationSectionRe = regexp.MustCompile(`(?is)EXPLANATION:\s*(.*)\z`)
)

// parseGeneratedResponse はプロバイダの応答からSQL文と説明を抽出する
//
// ラベル付きセクション形式（SQL_QUERY: / EXPLANATION:）を想定するが、
// コードフェンス付きなど多少崩れた出力も許容する
// 抽出に失敗した場合はSQL文を空として扱う
func parseGeneratedResponse(response string) (statement string, explanation string) {
	if m := sqlSectionRe.FindStringSubmatch(response); m != nil {
		statement = cleanStatement(m[1])
	}

	explanation = defaultExplanation
	if m := explanationSectionRe.FindStringSubmatch(response); m != nil {
		if trimmed := strings.TrimSpace(m[1]); trimmed != "" {
			explanation = trimmed
		}
	}

	return statement, explanation
}

// cleanStatement はコードフェンスを取り除いてSQL文を整形する
func cleanStatement(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```sql", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}
