package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/sheet-rag/internal/core/history"
)

// HistoryRepository は検索履歴の PostgreSQL リポジトリです
type HistoryRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository は新しい HistoryRepository を作成します
func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// コンパイル時の型チェック
var _ history.Repository = (*HistoryRepository)(nil)

func (r *HistoryRepository) CreateRecord(ctx context.Context, record *history.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO search_history (query, kind, result_count, duration_ms, feedback, executed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		record.Query,
		string(record.Kind),
		record.ResultCount,
		record.Duration.Milliseconds(),
		OptionToPgtext(record.Feedback),
		TimeToPgtype(record.ExecutedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListRecent(ctx context.Context, limit int) ([]*history.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT query, kind, result_count, duration_ms, feedback, executed_at
		FROM search_history
		ORDER BY executed_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history records: %w", err)
	}
	defer rows.Close()

	records := make([]*history.Record, 0, limit)
	for rows.Next() {
		var (
			record     history.Record
			kind       string
			durationMS int64
			feedback   pgtype.Text
			executedAt pgtype.Timestamp
		)
		if err := rows.Scan(&record.Query, &kind, &record.ResultCount, &durationMS, &feedback, &executedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		record.Kind = history.QueryKind(kind)
		record.Duration = time.Duration(durationMS) * time.Millisecond
		record.Feedback = PgtextToOption(feedback)
		record.ExecutedAt = PgtypeToTime(executedAt)
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history records: %w", err)
	}

	return records, nil
}
