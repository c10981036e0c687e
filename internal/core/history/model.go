package history

import (
	"context"
	"time"

	"github.com/samber/mo"
)

// QueryKind は検索の種別を表す
type QueryKind string

const (
	QueryKindSemantic QueryKind = "semantic"
	QueryKindSQL      QueryKind = "sql"
)

// Record は検索履歴の1件を表す
// 検索パイプラインからは書き込み専用で、監査にのみ使用される
type Record struct {
	Query       string
	Kind        QueryKind
	ResultCount int
	Duration    time.Duration
	Feedback    mo.Option[string]
	ExecutedAt  time.Time
}

// Repository は検索履歴のデータアクセスインターフェース
type Repository interface {
	CreateRecord(ctx context.Context, record *Record) error
	ListRecent(ctx context.Context, limit int) ([]*Record, error)
}
