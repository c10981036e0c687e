package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Bootstrap はスキーマとpgvector拡張を初期化する
// すべてのDDLは冪等であり、起動時に毎回実行できる
func Bootstrap(ctx context.Context, pool *pgxpool.Pool, embeddingDimension int) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS sheet_files (
			id UUID PRIMARY KEY,
			filename TEXT NOT NULL,
			original_filename TEXT NOT NULL,
			headers TEXT[] NOT NULL,
			row_count INTEGER NOT NULL,
			content_hash TEXT NOT NULL UNIQUE,
			uploaded_at TIMESTAMP NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS sheet_cells (
			id BIGSERIAL PRIMARY KEY,
			file_id UUID NOT NULL REFERENCES sheet_files(id) ON DELETE CASCADE,
			row_index INTEGER NOT NULL,
			column_name TEXT NOT NULL,
			text_value TEXT,
			numerical_value DOUBLE PRECISION,
			cell_type TEXT NOT NULL,
			embedding_id TEXT
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sheet_cells_file_row
			ON sheet_cells (file_id, row_index)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sheet_embeddings (
			doc_id TEXT PRIMARY KEY,
			vector vector(%d) NOT NULL,
			content TEXT NOT NULL,
			entry_type TEXT NOT NULL,
			file_id UUID NOT NULL,
			row_index INTEGER NOT NULL,
			column_name TEXT NOT NULL,
			cell_type TEXT NOT NULL
		)`, embeddingDimension),

		`CREATE INDEX IF NOT EXISTS idx_sheet_embeddings_vector
			ON sheet_embeddings USING hnsw (vector vector_cosine_ops)`,

		`CREATE TABLE IF NOT EXISTS search_history (
			id BIGSERIAL PRIMARY KEY,
			query TEXT NOT NULL,
			kind TEXT NOT NULL,
			result_count INTEGER NOT NULL,
			duration_ms BIGINT NOT NULL,
			feedback TEXT,
			executed_at TIMESTAMP NOT NULL DEFAULT now()
		)`,
	}

	for _, statement := range statements {
		if _, err := pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to bootstrap schema: %w", err)
		}
	}

	return nil
}
