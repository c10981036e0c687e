package ingest

import (
	"context"
	"errors"

	"github.com/samber/mo"
)

// ErrDuplicateFile は同一コンテンツハッシュのファイルが既に存在するエラー
var ErrDuplicateFile = errors.New("identical file already uploaded")

// Repository はファイル・セルメタデータのデータアクセスを統合するインターフェース
// テスト時のモック用に消費者側で定義
type Repository interface {
	GetFileByHash(ctx context.Context, contentHash string) (mo.Option[*FileRecord], error)
	CreateFile(ctx context.Context, file *FileRecord) error
	CreateCells(ctx context.Context, cells []*CellRecord) error
}

// VectorStore はベクトルストアへの書き込みインターフェース
// ベクトルエンジン自体は外部依存であり、最近傍検索で引ける不透明なKVストアとして扱う
type VectorStore interface {
	Upsert(ctx context.Context, entry VectorEntry) error
}

// Embedder はテキストのEmbedding生成インターフェース
// 生成に失敗した場合はゼロベクトルとエラーを返す
// 呼び出し側はスキップするかリトライするかを選択できる
type Embedder interface {
	EmbedDocument(ctx context.Context, text string) ([]float32, error)
}
