package search

import (
	"context"

	"github.com/google/uuid"
)

// VectorIndex はベクトルストアへの最近傍検索インターフェース
// 結果は距離の昇順で返される
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error)
}

// MetadataRepository はセルメタデータの読み取りインターフェース
type MetadataRepository interface {
	// ListNumericalSiblings は同一ファイル・同一行の数値セルを返す
	ListNumericalSiblings(ctx context.Context, fileID uuid.UUID, rowIndex int) (map[string]Sibling, error)
}

// Embedder は検索クエリのEmbedding生成インターフェース
// 取り込み時のドキュメント用Embeddingとは別のクエリ用バリアントを使用する
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}
