package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jinford/sheet-rag/internal/core/sqlquery"
)

// ReadOnlyExecutor は生成されたSQL文を読み取り専用トランザクション内で実行します
// デニーリスト検証をすり抜けた書き込みもトランザクションのアクセスモードで拒否される
type ReadOnlyExecutor struct {
	pool *pgxpool.Pool
}

// NewReadOnlyExecutor は新しい ReadOnlyExecutor を作成します
func NewReadOnlyExecutor(pool *pgxpool.Pool) *ReadOnlyExecutor {
	return &ReadOnlyExecutor{pool: pool}
}

// コンパイル時の型チェック
var _ sqlquery.Executor = (*ReadOnlyExecutor)(nil)

func (e *ReadOnlyExecutor) ExecuteReadOnly(ctx context.Context, statement string) ([]string, []sqlquery.Row, error) {
	tx, err := e.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin read-only transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, statement)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.Name)
	}

	result := make([]sqlquery.Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row values: %w", err)
		}

		row := make(sqlquery.Row, len(columns))
		for i, column := range columns {
			row[column] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return columns, result, nil
}
