package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"

	"github.com/jinford/sheet-rag/internal/core/extract"
	"github.com/jinford/sheet-rag/internal/core/ingest"
	"github.com/jinford/sheet-rag/internal/core/search"
)

// MetadataRepository はファイル・セルメタデータを扱う PostgreSQL リポジトリです
type MetadataRepository struct {
	pool *pgxpool.Pool
}

// NewMetadataRepository は新しい MetadataRepository を作成します
func NewMetadataRepository(pool *pgxpool.Pool) *MetadataRepository {
	return &MetadataRepository{pool: pool}
}

// コンパイル時の型チェック
var (
	_ ingest.Repository         = (*MetadataRepository)(nil)
	_ search.MetadataRepository = (*MetadataRepository)(nil)
)

func (r *MetadataRepository) GetFileByHash(ctx context.Context, contentHash string) (mo.Option[*ingest.FileRecord], error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, filename, original_filename, headers, row_count, content_hash, uploaded_at
		FROM sheet_files
		WHERE content_hash = $1`,
		contentHash,
	)

	var (
		id         pgtype.UUID
		file       ingest.FileRecord
		uploadedAt pgtype.Timestamp
	)
	err := row.Scan(&id, &file.Filename, &file.OriginalFilename, &file.Headers, &file.RowCount, &file.ContentHash, &uploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mo.None[*ingest.FileRecord](), nil
		}
		return mo.None[*ingest.FileRecord](), fmt.Errorf("failed to get file by hash: %w", err)
	}

	file.ID = PgtypeToUUID(id)
	file.UploadedAt = PgtypeToTime(uploadedAt)
	return mo.Some(&file), nil
}

func (r *MetadataRepository) CreateFile(ctx context.Context, file *ingest.FileRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sheet_files (id, filename, original_filename, headers, row_count, content_hash, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		UUIDToPgtype(file.ID),
		file.Filename,
		file.OriginalFilename,
		file.Headers,
		file.RowCount,
		file.ContentHash,
		TimeToPgtype(file.UploadedAt),
	)
	if err != nil {
		// PostgreSQLのユニーク制約違反エラー（23505）をチェック
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("failed to create file: %w", ingest.ErrDuplicateFile)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

func (r *MetadataRepository) CreateCells(ctx context.Context, cells []*ingest.CellRecord) error {
	if len(cells) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, cell := range cells {
		batch.Queue(`
			INSERT INTO sheet_cells (file_id, row_index, column_name, text_value, numerical_value, cell_type, embedding_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			UUIDToPgtype(cell.FileID),
			cell.RowIndex,
			cell.ColumnName,
			OptionToPgtext(cell.TextValue),
			OptionToPgfloat8(cell.NumericalValue),
			string(cell.Type),
			OptionToPgtext(cell.EmbeddingID),
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range cells {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert cell at index %d: %w", i, err)
		}
	}
	return nil
}

func (r *MetadataRepository) ListNumericalSiblings(ctx context.Context, fileID uuid.UUID, rowIndex int) (map[string]search.Sibling, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT column_name, numerical_value, cell_type
		FROM sheet_cells
		WHERE file_id = $1 AND row_index = $2 AND numerical_value IS NOT NULL`,
		UUIDToPgtype(fileID),
		rowIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list numerical siblings: %w", err)
	}
	defer rows.Close()

	siblings := make(map[string]search.Sibling)
	for rows.Next() {
		var (
			columnName string
			value      float64
			cellType   string
		)
		if err := rows.Scan(&columnName, &value, &cellType); err != nil {
			return nil, fmt.Errorf("failed to scan numerical sibling: %w", err)
		}
		siblings[columnName] = search.Sibling{Value: value, Type: cellType}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate numerical siblings: %w", err)
	}

	return siblings, nil
}

// ListCellsByFile はファイル内の全セルを行・列順で返します
func (r *MetadataRepository) ListCellsByFile(ctx context.Context, fileID uuid.UUID) ([]*ingest.CellRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT file_id, row_index, column_name, text_value, numerical_value, cell_type, embedding_id
		FROM sheet_cells
		WHERE file_id = $1
		ORDER BY row_index, column_name`,
		UUIDToPgtype(fileID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	defer rows.Close()

	cells := make([]*ingest.CellRecord, 0)
	for rows.Next() {
		var (
			id          pgtype.UUID
			cell        ingest.CellRecord
			textValue   pgtype.Text
			numValue    pgtype.Float8
			cellType    string
			embeddingID pgtype.Text
		)
		if err := rows.Scan(&id, &cell.RowIndex, &cell.ColumnName, &textValue, &numValue, &cellType, &embeddingID); err != nil {
			return nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		cell.FileID = PgtypeToUUID(id)
		cell.TextValue = PgtextToOption(textValue)
		cell.NumericalValue = Pgfloat8ToOption(numValue)
		cell.Type = extract.CellType(cellType)
		cell.EmbeddingID = PgtextToOption(embeddingID)
		cells = append(cells, &cell)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cells: %w", err)
	}

	return cells, nil
}
