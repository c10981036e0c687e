package search

import (
	"github.com/google/uuid"
)

// SearchParams は意味検索のパラメータを表す
type SearchParams struct {
	Query     string
	Limit     int     // 0以下の場合はデフォルト値を適用
	Threshold float64 // 0以下の場合はデフォルト値を適用
}

// SearchResult は意味検索の1件の結果を表す
type SearchResult struct {
	Content    string             `json:"content"`
	Score      float64            `json:"score"`
	Source     string             `json:"source"`
	FileID     uuid.UUID          `json:"fileID"`
	RowIndex   int                `json:"rowIndex"`
	ColumnName string             `json:"columnName"`
	Numerical  map[string]Sibling `json:"numericalContext,omitempty"`
}

// Sibling は同一行の数値セルの値を表す
type Sibling struct {
	Value float64 `json:"value"`
	Type  string  `json:"type"`
}

// Response は意味検索のレスポンスを表す
// DurationMS は公開JSONでの可搬性のためミリ秒の整数で表現する
type Response struct {
	Query        string          `json:"query"`
	Results      []*SearchResult `json:"results"`
	TotalResults int             `json:"totalResults"`
	DurationMS   int64           `json:"executionTimeMs"`
	Suggestions  []string        `json:"suggestions"`
}

// Neighbor はベクトルストアから返された近傍ドキュメントを表す
// Distance はコサイン距離（小さいほど近い）
type Neighbor struct {
	DocID    string
	Text     string
	Distance float64
	Metadata NeighborMetadata
}

// NeighborMetadata は近傍ドキュメントに添付されたメタデータバッグ
type NeighborMetadata struct {
	EntryType  string
	FileID     uuid.UUID
	RowIndex   int
	ColumnName string
	CellType   string
}
