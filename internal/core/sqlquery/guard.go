package sqlquery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeStatement は更新系キーワードを含むSQL文のエラー
// 実行前に拒否され、実行エラーとは区別して報告される
var ErrUnsafeStatement = errors.New("unsafe SQL operation detected")

// 拒否対象の更新系キーワード
var deniedKeywords = []string{
	"DELETE",
	"UPDATE",
	"INSERT",
	"DROP",
	"ALTER",
	"CREATE",
	"TRUNCATE",
}

// validateStatement はSQL文に更新系キーワードが含まれないことを検証する
//
// これは大文字化した文字列の部分一致による単純なデニーリストであり、
// パーサレベルの保証ではない。コメントやサブクエリ経由の回避は検出できないため、
// 実行側は必ず読み取り専用トランザクションを併用すること。
func validateStatement(statement string) error {
	upper := strings.ToUpper(statement)
	for _, keyword := range deniedKeywords {
		if strings.Contains(upper, keyword) {
			return fmt.Errorf("%w: %s", ErrUnsafeStatement, keyword)
		}
	}
	return nil
}
