package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/jinford/sheet-rag/internal/core/extract"
	"github.com/jinford/sheet-rag/internal/core/history"
	"github.com/jinford/sheet-rag/internal/core/ingest"
	"github.com/jinford/sheet-rag/internal/core/search"
	"github.com/jinford/sheet-rag/internal/core/sqlquery"
)

// DefaultMaxUploadSize はアップロードサイズ上限のデフォルト値（10MB）
const DefaultMaxUploadSize = 10 << 20

// IngestService は取り込みユースケースのインターフェース
type IngestService interface {
	Ingest(ctx context.Context, params ingest.IngestParams) (*ingest.Result, error)
}

// SearchService は意味検索ユースケースのインターフェース
type SearchService interface {
	Search(ctx context.Context, params search.SearchParams) (*search.Response, error)
}

// SQLQueryService は自然言語SQL検索ユースケースのインターフェース
type SQLQueryService interface {
	Query(ctx context.Context, params sqlquery.QueryParams) (*sqlquery.Result, error)
}

// Suggester はクエリサジェストのインターフェース
type Suggester interface {
	Suggest(partialQuery string, limit int) []string
}

// Handler はHTTP APIのリクエストハンドラ群を提供する
type Handler struct {
	ingest        IngestService
	search        SearchService
	sqlQuery      SQLQueryService
	suggester     Suggester
	historyRepo   history.Repository
	logger        *slog.Logger
	maxUploadSize int64
}

type handlerOptions struct {
	logger        *slog.Logger
	maxUploadSize int64
}

// HandlerOption は Handler のオプション設定
type HandlerOption func(*handlerOptions)

// WithHandlerLogger は Handler にロガーを設定する
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(o *handlerOptions) {
		o.logger = logger
	}
}

// WithMaxUploadSize はアップロードサイズ上限を上書きする
func WithMaxUploadSize(size int64) HandlerOption {
	return func(o *handlerOptions) {
		o.maxUploadSize = size
	}
}

// NewHandler は新しい Handler を作成する
func NewHandler(
	ingestSvc IngestService,
	searchSvc SearchService,
	sqlQuerySvc SQLQueryService,
	suggester Suggester,
	historyRepo history.Repository,
	opts ...HandlerOption,
) *Handler {
	options := handlerOptions{
		logger:        slog.Default(),
		maxUploadSize: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &Handler{
		ingest:        ingestSvc,
		search:        searchSvc,
		sqlQuery:      sqlQuerySvc,
		suggester:     suggester,
		historyRepo:   historyRepo,
		logger:        options.logger,
		maxUploadSize: options.maxUploadSize,
	}
}

// Routes はすべてのエンドポイントを登録したルータを返す
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/upload", h.handleUpload)
	mux.HandleFunc("POST /api/v1/search/semantic", h.handleSemanticSearch)
	mux.HandleFunc("POST /api/v1/search/sql-query", h.handleSQLQuery)
	mux.HandleFunc("GET /api/v1/search/suggestions", h.handleSuggestions)
	mux.HandleFunc("GET /api/v1/search/history", h.handleHistory)
	mux.HandleFunc("GET /api/v1/health", h.handleHealth)
	return mux
}

type uploadResponse struct {
	Message         string   `json:"message"`
	FileID          string   `json:"fileID"`
	Filename        string   `json:"filename"`
	Headers         []string `json:"headers"`
	RowCount        int      `json:"rowCount"`
	EmbeddingsCount int      `json:"embeddingsCount"`
	MetadataCount   int      `json:"metadataCount"`
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "failed to read uploaded file")
		return
	}

	result, err := h.ingest.Ingest(r.Context(), ingest.IngestParams{
		Content:          content,
		OriginalFilename: header.Filename,
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrDuplicateFile):
			h.respondError(w, http.StatusConflict, "duplicate_file", err.Error())
		case errors.Is(err, extract.ErrUnsupportedFileType), errors.Is(err, extract.ErrEmptyFile):
			h.respondError(w, http.StatusBadRequest, "invalid_file", err.Error())
		default:
			h.respondInternalError(w, "upload failed", err)
		}
		return
	}

	h.respondJSON(w, http.StatusOK, uploadResponse{
		Message:         fmt.Sprintf("Successfully processed %s", header.Filename),
		FileID:          result.FileID.String(),
		Filename:        result.Filename,
		Headers:         result.Headers,
		RowCount:        result.RowCount,
		EmbeddingsCount: result.EmbeddingsCount,
		MetadataCount:   result.MetadataCount,
	})
}

type semanticSearchRequest struct {
	Query     string  `json:"query"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

func (h *Handler) handleSemanticSearch(w http.ResponseWriter, r *http.Request) {
	var req semanticSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	response, err := h.search.Search(r.Context(), search.SearchParams{
		Query:     req.Query,
		Limit:     req.Limit,
		Threshold: req.Threshold,
	})
	if err != nil {
		h.respondInternalError(w, "semantic search failed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, response)
}

type sqlQueryRequest struct {
	Query        string `json:"query"`
	TableContext string `json:"tableContext"`
}

func (h *Handler) handleSQLQuery(w http.ResponseWriter, r *http.Request) {
	var req sqlQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "invalid_request", "query is required")
		return
	}

	result, err := h.sqlQuery.Query(r.Context(), sqlquery.QueryParams{
		NaturalQuery: req.Query,
		TableContext: req.TableContext,
	})
	if err != nil {
		// 安全性違反は入力不備として扱い、固有のエラーコードで返す
		if errors.Is(err, sqlquery.ErrUnsafeStatement) {
			h.respondError(w, http.StatusBadRequest, "unsafe_statement", "generated statement was rejected by the safety gate")
			return
		}
		h.respondInternalError(w, "sql query failed", err)
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

type suggestionsResponse struct {
	Query       string   `json:"query"`
	Suggestions []string `json:"suggestions"`
}

func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	limit := parseIntParam(r, "limit", 0)

	h.respondJSON(w, http.StatusOK, suggestionsResponse{
		Query:       query,
		Suggestions: h.suggester.Suggest(query, limit),
	})
}

type historyEntry struct {
	Query       string `json:"query"`
	Kind        string `json:"kind"`
	ResultCount int    `json:"resultCount"`
	DurationMS  int64  `json:"durationMs"`
	ExecutedAt  string `json:"executedAt"`
}

type historyResponse struct {
	History []historyEntry `json:"history"`
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)

	records, err := h.historyRepo.ListRecent(r.Context(), limit)
	if err != nil {
		h.respondInternalError(w, "failed to list history", err)
		return
	}

	entries := make([]historyEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, historyEntry{
			Query:       record.Query,
			Kind:        string(record.Kind),
			ResultCount: record.ResultCount,
			DurationMS:  record.Duration.Milliseconds(),
			ExecutedAt:  record.ExecutedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	h.respondJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("レスポンスの書き込みに失敗しました", "error", err)
	}
}

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func (h *Handler) respondError(w http.ResponseWriter, status int, code, message string) {
	h.respondJSON(w, status, errorResponse{Code: code, Error: message})
}

// respondInternalError は詳細をログにのみ残し、クライアントへは汎用メッセージを返す
func (h *Handler) respondInternalError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, "error", err)
	h.respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
