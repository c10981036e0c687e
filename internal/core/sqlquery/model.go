package sqlquery

import (
	"context"
)

// QueryParams は自然言語SQL検索のパラメータを表す
type QueryParams struct {
	NaturalQuery string
	TableContext string // 自由記述のテーブル補足情報（任意）
}

// Row は実行結果の1行を表す
type Row map[string]any

// Result は自然言語SQL検索の結果を表す
// ExecutionError は「実行に失敗した」ことを「結果が0件だった」と区別するためのフィールド
// DurationMS は公開JSONでの可搬性のためミリ秒の整数で表現する
type Result struct {
	Query          string `json:"query"`
	GeneratedSQL   string `json:"generatedSQL"`
	Explanation    string `json:"explanation"`
	Rows           []Row  `json:"results"`
	RowCount       int    `json:"rowCount"`
	DurationMS     int64  `json:"executionTimeMs"`
	ExecutionError string `json:"executionError,omitempty"`
}

// SQLGenerator は生成系テキストプロバイダへの呼び出しインターフェース
// プロンプトを渡し、SQL文と説明を含む生テキストを受け取る
type SQLGenerator interface {
	GenerateSQL(ctx context.Context, prompt string) (string, error)
}

// Executor はメタデータストアに対する読み取り専用のSQL実行インターフェース
type Executor interface {
	ExecuteReadOnly(ctx context.Context, statement string) (columns []string, rows []Row, err error)
}
