package sqlquery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jinford/sheet-rag/internal/core/history"
)

// defaultStatement は生成失敗時に使用する安全なデフォルトSQL
const defaultStatement = "SELECT * FROM sheet_cells LIMIT 10"

// Service は自然言語からのSQL検索ユースケースを提供する
type Service struct {
	generator   SQLGenerator
	executor    Executor
	prompts     *PromptBuilder
	historyRepo history.Repository
	logger      *slog.Logger
}

type serviceOptions struct {
	logger *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithSQLQueryLogger は Service にロガーを設定する
func WithSQLQueryLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService は新しい Service を作成する
func NewService(
	generator SQLGenerator,
	executor Executor,
	historyRepo history.Repository,
	opts ...ServiceOption,
) *Service {
	options := serviceOptions{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Service{
		generator:   generator,
		executor:    executor,
		prompts:     NewPromptBuilder(),
		historyRepo: historyRepo,
		logger:      options.logger,
	}
}

// Query は自然言語クエリをSQLに変換して実行する
//
// 生成されたSQLは実行前にデニーリスト検証を通過する必要があり、
// 違反した場合は ErrUnsafeStatement で拒否される（実行エラーとは区別される）
// 実行に失敗した場合は空の結果と ExecutionError を返し、エラーは伝播させない
func (s *Service) Query(ctx context.Context, params QueryParams) (*Result, error) {
	if params.NaturalQuery == "" {
		return nil, fmt.Errorf("query is required")
	}

	start := time.Now()

	// 1. SQL生成
	statement, explanation := s.generateStatement(ctx, params)

	// 2. 安全性検証（実行前に拒否し、実行エラーへ降格させない）
	if statement != "" {
		if err := validateStatement(statement); err != nil {
			s.logger.Warn("安全でないSQL文を拒否しました",
				"query", params.NaturalQuery,
				"statement", statement,
			)
			return nil, err
		}
	}

	// 3. 実行（失敗は ExecutionError として返し、呼び出し元へは伝播させない）
	result := &Result{
		Query:        params.NaturalQuery,
		GeneratedSQL: statement,
		Explanation:  explanation,
		Rows:         []Row{},
	}

	if statement == "" {
		result.ExecutionError = "no SQL statement generated"
	} else {
		_, rows, err := s.executor.ExecuteReadOnly(ctx, statement)
		if err != nil {
			s.logger.Error("SQL実行に失敗しました",
				"statement", statement,
				"error", err,
			)
			result.ExecutionError = "statement execution failed"
		} else {
			// 4. 表示用の注釈を付加
			result.Rows = formatRows(rows)
		}
	}

	result.RowCount = len(result.Rows)
	duration := time.Since(start)
	result.DurationMS = duration.Milliseconds()

	// 5. 検索履歴の記録
	s.recordHistory(ctx, params.NaturalQuery, result.RowCount, duration)

	return result, nil
}

// generateStatement はプロバイダ応答からSQL文と説明を取り出す
// 生成呼び出しに失敗した場合は安全なデフォルトSQLにフォールバックする
func (s *Service) generateStatement(ctx context.Context, params QueryParams) (string, string) {
	prompt := s.prompts.Build(params.NaturalQuery, params.TableContext)

	response, err := s.generator.GenerateSQL(ctx, prompt)
	if err != nil {
		s.logger.Warn("SQL生成に失敗したためデフォルトSQLを使用します",
			"query", params.NaturalQuery,
			"error", err,
		)
		return defaultStatement, fmt.Sprintf("Error generating query: %s", err)
	}

	return parseGeneratedResponse(response)
}

// recordHistory は検索履歴を記録する
func (s *Service) recordHistory(ctx context.Context, query string, resultCount int, duration time.Duration) {
	record := &history.Record{
		Query:       query,
		Kind:        history.QueryKindSQL,
		ResultCount: resultCount,
		Duration:    duration,
		ExecutedAt:  time.Now(),
	}
	if err := s.historyRepo.CreateRecord(ctx, record); err != nil {
		s.logger.Warn("検索履歴の記録に失敗しました", "error", err)
	}
}
