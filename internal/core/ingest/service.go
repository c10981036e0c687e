package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/jinford/sheet-rag/internal/core/extract"
)

// DefaultPacingInterval はEmbedding API呼び出し間の待機時間
// レート制限対策の単純なペーシングであり、スケジューラではない
const DefaultPacingInterval = 100 * time.Millisecond

// Service はスプレッドシート取り込みのユースケースを提供する
type Service struct {
	extractor *extract.Extractor
	repo      Repository
	vectors   VectorStore
	embedder  Embedder
	pacing    time.Duration
	logger    *slog.Logger
}

type serviceOptions struct {
	pacing time.Duration
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithIngestLogger は Service にロガーを設定する
func WithIngestLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithPacingInterval はEmbedding呼び出し間の待機時間を上書きする
func WithPacingInterval(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		o.pacing = d
	}
}

// NewService は新しい Service を作成する
func NewService(
	extractor *extract.Extractor,
	repo Repository,
	vectors VectorStore,
	embedder Embedder,
	opts ...ServiceOption,
) *Service {
	options := serviceOptions{
		pacing: DefaultPacingInterval,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Service{
		extractor: extractor,
		repo:      repo,
		vectors:   vectors,
		embedder:  embedder,
		pacing:    options.pacing,
		logger:    options.logger,
	}
}

// Ingest はファイルを解析し、テキストセルをベクトルストアへ、数値セルをメタデータストアへ登録する
// 同一バイト列の再アップロードは ErrDuplicateFile で拒否する
func (s *Service) Ingest(ctx context.Context, params IngestParams) (*Result, error) {
	start := time.Now()

	// 1. 解析
	extracted, err := s.extractor.Extract(params.Content, params.OriginalFilename)
	if err != nil {
		return nil, err
	}

	// 2. コンテンツハッシュによる重複検出
	existing, err := s.repo.GetFileByHash(ctx, extracted.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("failed to check file hash: %w", err)
	}
	if existing.IsPresent() {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateFile, existing.MustGet().OriginalFilename)
	}

	// 3. ファイルレコードの作成
	fileID := uuid.New()
	file := &FileRecord{
		ID:               fileID,
		Filename:         syntheticFilename(fileID, params.OriginalFilename),
		OriginalFilename: params.OriginalFilename,
		Headers:          extracted.Headers,
		RowCount:         extracted.RowCount,
		ContentHash:      extracted.ContentHash,
		UploadedAt:       time.Now(),
	}
	if err := s.repo.CreateFile(ctx, file); err != nil {
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.logger.Info("ファイルレコードを作成しました",
		"fileID", fileID,
		"filename", params.OriginalFilename,
		"rows", extracted.RowCount,
		"textCells", len(extracted.TextCells),
		"numericalCells", len(extracted.NumericalCells),
	)

	// 4. ヘッダーEmbeddingの登録（列構成の理解に使う）
	embeddingsCount := 0
	headerText := strings.Join(extracted.Headers, " | ")
	if s.indexDocument(ctx, headerDocID(fileID), "Headers: "+headerText, EntryMetadata{
		EntryType:  "header",
		FileID:     fileID,
		RowIndex:   0,
		ColumnName: "headers",
	}) {
		embeddingsCount++
	}

	// 5. テキストセルのEmbedding登録とセルレコード構築
	cells := make([]*CellRecord, 0, extracted.CellCount())
	for _, cell := range extracted.TextCells {
		record := &CellRecord{
			FileID:         fileID,
			RowIndex:       cell.RowIndex,
			ColumnName:     cell.ColumnName,
			TextValue:      cell.TextValue,
			NumericalValue: cell.NumericalValue,
			Type:           cell.Type,
		}

		docID := cellDocID(fileID, cell)
		contextText := buildContextText(cell)
		if s.indexDocument(ctx, docID, contextText, EntryMetadata{
			EntryType:  "data",
			FileID:     fileID,
			RowIndex:   cell.RowIndex,
			ColumnName: cell.ColumnName,
			CellType:   string(cell.Type),
		}) {
			// ベクトルストアに登録できたセルのみ参照を記録する
			record.EmbeddingID = mo.Some(docID)
			embeddingsCount++
		}
		cells = append(cells, record)

		// レート制限対策のペーシング
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pacing):
		}
	}

	// 6. 数値セルはメタデータのみ保存（Embeddingなし）
	metadataCount := 0
	for _, cell := range extracted.NumericalCells {
		cells = append(cells, &CellRecord{
			FileID:         fileID,
			RowIndex:       cell.RowIndex,
			ColumnName:     cell.ColumnName,
			NumericalValue: cell.NumericalValue,
			Type:           cell.Type,
		})
		metadataCount++
	}

	if err := s.repo.CreateCells(ctx, cells); err != nil {
		return nil, fmt.Errorf("failed to create cell records: %w", err)
	}

	result := &Result{
		FileID:          fileID,
		Filename:        file.Filename,
		Headers:         extracted.Headers,
		RowCount:        extracted.RowCount,
		EmbeddingsCount: embeddingsCount,
		MetadataCount:   metadataCount,
		Duration:        time.Since(start),
	}

	s.logger.Info("取り込みが完了しました",
		"fileID", fileID,
		"embeddings", embeddingsCount,
		"metadataRecords", metadataCount,
		"duration", result.Duration,
	)

	return result, nil
}

// indexDocument はテキストをEmbedding化してベクトルストアへ登録する
// Embedding生成に失敗した場合は警告を記録してスキップし、バッチ全体は継続する
func (s *Service) indexDocument(ctx context.Context, docID, contextText string, metadata EntryMetadata) bool {
	vector, err := s.embedder.EmbedDocument(ctx, contextText)
	if err != nil {
		s.logger.Warn("Embedding生成に失敗したためスキップします",
			"docID", docID,
			"error", err,
		)
		return false
	}

	entry := VectorEntry{
		ID:       docID,
		Vector:   vector,
		Text:     contextText,
		Metadata: metadata,
	}

	if err := s.vectors.Upsert(ctx, entry); err != nil {
		s.logger.Warn("ベクトルストアへの登録に失敗しました",
			"docID", docID,
			"error", err,
		)
		return false
	}

	return true
}

// buildContextText は列ヘッダーと値を組み合わせたEmbedding用コンテキストを作成する
// 数式セルは生の数式も付加する
func buildContextText(cell extract.Cell) string {
	header := fmt.Sprintf("Column: %s", cell.ColumnName)
	value := fmt.Sprintf("Value: %s", cell.TextValue.OrElse(""))

	if formula, ok := cell.Formula.Get(); ok {
		return fmt.Sprintf("%s | %s | Formula: %s", header, value, formula)
	}
	return fmt.Sprintf("%s | %s", header, value)
}

// headerDocID はヘッダーEmbeddingのドキュメントIDを作成する
func headerDocID(fileID uuid.UUID) string {
	return fmt.Sprintf("file_%s_headers", fileID)
}

// cellDocID はセルEmbeddingのドキュメントIDを作成する
func cellDocID(fileID uuid.UUID, cell extract.Cell) string {
	return fmt.Sprintf("file_%s_row_%d_col_%s", fileID, cell.RowIndex, cell.ColumnName)
}

// syntheticFilename は保存用の合成ファイル名を作成する
func syntheticFilename(fileID uuid.UUID, originalFilename string) string {
	return fileID.String() + strings.ToLower(filepath.Ext(originalFilename))
}
