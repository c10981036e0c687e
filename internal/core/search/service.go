package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jinford/sheet-rag/internal/core/history"
)

const (
	// DefaultLimit は結果件数のデフォルト値
	DefaultLimit = 5

	// DefaultThreshold は類似度しきい値のデフォルト値
	DefaultThreshold = 0.5

	// maxFollowUpSuggestions は追加サジェストの最大件数
	maxFollowUpSuggestions = 3
)

// 追加サジェストの候補プール
var followUpPool = []string{
	"Show me the top performers",
	"Which region has the best sales?",
	"Who is underperforming?",
	"Average performance by region",
	"Total sales by representative",
}

// Service は意味検索のビジネスロジックを提供する
type Service struct {
	index            VectorIndex
	metadata         MetadataRepository
	embedder         Embedder
	historyRepo      history.Repository
	logger           *slog.Logger
	defaultLimit     int
	defaultThreshold float64
}

type serviceOptions struct {
	logger           *slog.Logger
	defaultLimit     int
	defaultThreshold float64
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*serviceOptions)

// WithSearchLogger は Service にロガーを設定する
func WithSearchLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// WithSearchDefaults はパラメータ省略時の結果件数としきい値を設定する
// 0以下の値は無視され、パッケージのデフォルト値が使用される
func WithSearchDefaults(limit int, threshold float64) ServiceOption {
	return func(o *serviceOptions) {
		if limit > 0 {
			o.defaultLimit = limit
		}
		if threshold > 0 {
			o.defaultThreshold = threshold
		}
	}
}

// NewService は新しい Service を作成する
func NewService(
	index VectorIndex,
	metadata MetadataRepository,
	embedder Embedder,
	historyRepo history.Repository,
	opts ...ServiceOption,
) *Service {
	options := serviceOptions{
		logger:           slog.Default(),
		defaultLimit:     DefaultLimit,
		defaultThreshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Service{
		index:            index,
		metadata:         metadata,
		embedder:         embedder,
		historyRepo:      historyRepo,
		logger:           options.logger,
		defaultLimit:     options.defaultLimit,
		defaultThreshold: options.defaultThreshold,
	}
}

// Search はクエリのEmbeddingに基づいて最近傍検索を実行する
// しきい値を下回るヒットは除外され、採用されたヒットは同一行の数値セルで補強される
// 結果は類似度の降順で返され、しきい値を超えるものがない場合は空の結果を返す（エラーではない）
func (s *Service) Search(ctx context.Context, params SearchParams) (*Response, error) {
	if params.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	start := time.Now()

	limit := params.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	threshold := params.Threshold
	if threshold <= 0 {
		threshold = s.defaultThreshold
	}

	// 1. クエリのEmbedding生成（クエリ用バリアント）
	queryVector, err := s.embedder.EmbedQuery(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// 2. しきい値フィルタのために2倍件数を先読みし、追加のラウンドトリップを避ける
	neighbors, err := s.index.Query(ctx, queryVector, limit*2)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	// 3. 距離の昇順に走査し、類似度(1-距離)がしきい値以上のものを採用する
	results := make([]*SearchResult, 0, limit)
	for _, neighbor := range neighbors {
		score := 1 - neighbor.Distance
		if score < threshold {
			continue
		}

		result := &SearchResult{
			Content:    neighbor.Text,
			Score:      score,
			Source:     fmt.Sprintf("Row %d, Column %s", neighbor.Metadata.RowIndex, neighbor.Metadata.ColumnName),
			FileID:     neighbor.Metadata.FileID,
			RowIndex:   neighbor.Metadata.RowIndex,
			ColumnName: neighbor.Metadata.ColumnName,
		}

		// 同一行の数値セルで補強する（失敗しても結果自体は返す）
		siblings, err := s.metadata.ListNumericalSiblings(ctx, neighbor.Metadata.FileID, neighbor.Metadata.RowIndex)
		if err != nil {
			s.logger.Warn("数値コンテキストの取得に失敗しました",
				"fileID", neighbor.Metadata.FileID,
				"rowIndex", neighbor.Metadata.RowIndex,
				"error", err,
			)
		} else if len(siblings) > 0 {
			result.Numerical = siblings
		}

		results = append(results, result)
		if len(results) >= limit {
			break
		}
	}

	duration := time.Since(start)

	// 4. 追加サジェストの生成
	suggestions := followUpSuggestions(params.Query)

	// 5. 検索履歴の記録（失敗しても検索結果は返す）
	s.recordHistory(ctx, params.Query, len(results), duration)

	return &Response{
		Query:        params.Query,
		Results:      results,
		TotalResults: len(results),
		DurationMS:   duration.Milliseconds(),
		Suggestions:  suggestions,
	}, nil
}

// recordHistory は検索履歴を記録する
func (s *Service) recordHistory(ctx context.Context, query string, resultCount int, duration time.Duration) {
	record := &history.Record{
		Query:       query,
		Kind:        history.QueryKindSemantic,
		ResultCount: resultCount,
		Duration:    duration,
		ExecutedAt:  time.Now(),
	}
	if err := s.historyRepo.CreateRecord(ctx, record); err != nil {
		s.logger.Warn("検索履歴の記録に失敗しました", "error", err)
	}
}

// followUpSuggestions は現在のクエリと語彙が重複しない追加サジェストを返す
func followUpSuggestions(query string) []string {
	queryWords := strings.Fields(strings.ToLower(query))

	suggestions := make([]string, 0, maxFollowUpSuggestions)
	for _, candidate := range followUpPool {
		if overlapsQueryWords(candidate, queryWords) {
			continue
		}
		suggestions = append(suggestions, candidate)
		if len(suggestions) >= maxFollowUpSuggestions {
			break
		}
	}
	return suggestions
}

// overlapsQueryWords はサジェスト文字列がクエリ内のいずれかの単語を含むかを判定する
func overlapsQueryWords(candidate string, queryWords []string) bool {
	lowered := strings.ToLower(candidate)
	for _, word := range queryWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}
