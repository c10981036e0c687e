package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jinford/sheet-rag/internal/core/extract"
	"github.com/jinford/sheet-rag/internal/core/history"
	"github.com/jinford/sheet-rag/internal/core/ingest"
	"github.com/jinford/sheet-rag/internal/core/search"
	"github.com/jinford/sheet-rag/internal/core/sqlquery"
	"github.com/jinford/sheet-rag/internal/core/suggest"
	"github.com/jinford/sheet-rag/internal/infra/openai"
	"github.com/jinford/sheet-rag/internal/infra/postgres"
	"github.com/jinford/sheet-rag/internal/platform/config"
	"github.com/jinford/sheet-rag/pkg/db"
)

// ServiceContainer はアプリケーションの依存関係を保持する
type ServiceContainer struct {
	IngestService   *ingest.Service
	SearchService   *search.Service
	SQLQueryService *sqlquery.Service
	Suggester       *suggest.Generator
	HistoryRepo     history.Repository

	logger   *slog.Logger
	database *db.DB
}

type containerOptions struct {
	logger *slog.Logger
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// NewContainer は設定からコンテナを生成する
// データベースに接続し、スキーマを初期化した上で全サービスを構築する
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	database, err := db.New(ctx, db.ConnectionParams{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		return nil, fmt.Errorf("データベース初期化に失敗しました: %w", err)
	}

	if err := postgres.Bootstrap(ctx, database.Pool, cfg.OpenAI.EmbeddingDimension); err != nil {
		database.Close()
		return nil, fmt.Errorf("スキーマ初期化に失敗しました: %w", err)
	}

	// Embedder / LLMクライアント (OpenAI)
	embedder := openai.NewEmbedder(
		cfg.OpenAI.APIKey,
		openai.WithEmbeddingModel(cfg.OpenAI.EmbeddingModel),
		openai.WithEmbeddingDimension(cfg.OpenAI.EmbeddingDimension),
	)

	llmClient, err := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.LLMModel)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("OpenAIクライアント初期化に失敗しました: %w", err)
	}

	// Repository (PostgreSQL)
	metadataRepo := postgres.NewMetadataRepository(database.Pool)
	vectorRepo := postgres.NewVectorRepository(database.Pool)
	historyRepo := postgres.NewHistoryRepository(database.Pool)
	executor := postgres.NewReadOnlyExecutor(database.Pool)

	// コアサービス
	extractor := extract.NewExtractor(cfg.Upload.AllowedExtensions)

	ingestService := ingest.NewService(
		extractor,
		metadataRepo,
		vectorRepo,
		embedder,
		ingest.WithIngestLogger(options.logger),
	)

	searchService := search.NewService(
		vectorRepo,
		metadataRepo,
		embedder,
		historyRepo,
		search.WithSearchLogger(options.logger),
		search.WithSearchDefaults(cfg.Search.DefaultLimit, cfg.Search.DefaultThreshold),
	)

	sqlQueryService := sqlquery.NewService(
		llmClient,
		executor,
		historyRepo,
		sqlquery.WithSQLQueryLogger(options.logger),
	)

	return &ServiceContainer{
		IngestService:   ingestService,
		SearchService:   searchService,
		SQLQueryService: sqlQueryService,
		Suggester:       suggest.NewGenerator(),
		HistoryRepo:     historyRepo,
		logger:          options.logger,
		database:        database,
	}, nil
}

// Close は内部リソースを解放する
func (c *ServiceContainer) Close() {
	if c != nil && c.database != nil {
		c.database.Close()
	}
}

// Logger はロガーを返す
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Database はデータベースを返す
func (c *ServiceContainer) Database() *db.DB {
	if c == nil {
		return nil
	}
	return c.database
}
