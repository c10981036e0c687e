package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/jinford/sheet-rag/internal/core/ingest"
	"github.com/jinford/sheet-rag/internal/core/search"
)

// VectorRepository は pgvector によるベクトルストアの PostgreSQL 実装です
type VectorRepository struct {
	pool *pgxpool.Pool
}

// NewVectorRepository は新しい VectorRepository を作成します
func NewVectorRepository(pool *pgxpool.Pool) *VectorRepository {
	return &VectorRepository{pool: pool}
}

// コンパイル時の型チェック
var (
	_ ingest.VectorStore = (*VectorRepository)(nil)
	_ search.VectorIndex = (*VectorRepository)(nil)
)

// Upsert はドキュメントIDをキーとしてベクトルエントリを登録する
// 同一IDが既に存在する場合は内容を上書きする
func (r *VectorRepository) Upsert(ctx context.Context, entry ingest.VectorEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sheet_embeddings (doc_id, vector, content, entry_type, file_id, row_index, column_name, cell_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (doc_id) DO UPDATE SET
			vector = EXCLUDED.vector,
			content = EXCLUDED.content,
			entry_type = EXCLUDED.entry_type,
			file_id = EXCLUDED.file_id,
			row_index = EXCLUDED.row_index,
			column_name = EXCLUDED.column_name,
			cell_type = EXCLUDED.cell_type`,
		entry.ID,
		pgvector.NewVector(entry.Vector),
		entry.Text,
		entry.Metadata.EntryType,
		UUIDToPgtype(entry.Metadata.FileID),
		entry.Metadata.RowIndex,
		entry.Metadata.ColumnName,
		entry.Metadata.CellType,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert vector entry: %w", err)
	}
	return nil
}

// Query はコサイン距離の昇順で近傍ドキュメントを返す
func (r *VectorRepository) Query(ctx context.Context, vector []float32, k int) ([]search.Neighbor, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT doc_id, content, vector <=> $1 AS distance, entry_type, file_id, row_index, column_name, cell_type
		FROM sheet_embeddings
		ORDER BY vector <=> $1
		LIMIT $2`,
		pgvector.NewVector(vector),
		k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}
	defer rows.Close()

	neighbors := make([]search.Neighbor, 0, k)
	for rows.Next() {
		var (
			neighbor search.Neighbor
			fileID   pgtype.UUID
		)
		err := rows.Scan(
			&neighbor.DocID,
			&neighbor.Text,
			&neighbor.Distance,
			&neighbor.Metadata.EntryType,
			&fileID,
			&neighbor.Metadata.RowIndex,
			&neighbor.Metadata.ColumnName,
			&neighbor.Metadata.CellType,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan neighbor: %w", err)
		}
		neighbor.Metadata.FileID = PgtypeToUUID(fileID)
		neighbors = append(neighbors, neighbor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate neighbors: %w", err)
	}

	return neighbors, nil
}
