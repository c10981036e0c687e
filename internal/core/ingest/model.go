package ingest

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/sheet-rag/internal/core/extract"
)

// FileRecord はアップロードされたファイルのメタデータを表す
// ContentHash は重複アップロード検出のための一意キー
type FileRecord struct {
	ID               uuid.UUID
	Filename         string // 合成ファイル名（<uuid><拡張子>）
	OriginalFilename string
	Headers          []string
	RowCount         int
	ContentHash      string
	UploadedAt       time.Time
}

// CellRecord はスプレッドシートの1セルに対応する永続化レコードを表す
// 取り込み時に作成され、以後変更されない
type CellRecord struct {
	FileID         uuid.UUID
	RowIndex       int
	ColumnName     string
	TextValue      mo.Option[string]
	NumericalValue mo.Option[float64]
	Type           extract.CellType
	EmbeddingID    mo.Option[string] // ベクトルストア上のドキュメントID
}

// VectorEntry はベクトルストアへ登録する1ドキュメントを表す
type VectorEntry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata EntryMetadata
}

// EntryMetadata はベクトルストアに添付するメタデータバッグ
type EntryMetadata struct {
	EntryType  string // "header" or "data"
	FileID     uuid.UUID
	RowIndex   int
	ColumnName string
	CellType   string
}

// IngestParams は取り込みのパラメータを表す
type IngestParams struct {
	Content          []byte
	OriginalFilename string
}

// Result は取り込み処理の結果を表す
type Result struct {
	FileID          uuid.UUID
	Filename        string
	Headers         []string
	RowCount        int
	EmbeddingsCount int
	MetadataCount   int
	Duration        time.Duration
}
