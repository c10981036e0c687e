package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/sheet-rag/internal/core/extract"
	"github.com/jinford/sheet-rag/internal/core/history"
	"github.com/jinford/sheet-rag/internal/core/ingest"
	"github.com/jinford/sheet-rag/internal/core/search"
	"github.com/jinford/sheet-rag/internal/core/sqlquery"
	"github.com/jinford/sheet-rag/internal/core/suggest"
)

type stubIngestService struct {
	result *ingest.Result
	err    error
}

func (s *stubIngestService) Ingest(ctx context.Context, params ingest.IngestParams) (*ingest.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSearchService struct {
	response *search.Response
	err      error
}

func (s *stubSearchService) Search(ctx context.Context, params search.SearchParams) (*search.Response, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

type stubSQLQueryService struct {
	result *sqlquery.Result
	err    error
}

func (s *stubSQLQueryService) Query(ctx context.Context, params sqlquery.QueryParams) (*sqlquery.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubSuggester struct{}

func (s *stubSuggester) Suggest(partialQuery string, limit int) []string {
	return []string{"who exceeded their quota?"}
}

type stubHistoryRepo struct {
	records []*history.Record
	err     error
}

func (r *stubHistoryRepo) CreateRecord(ctx context.Context, record *history.Record) error {
	r.records = append(r.records, record)
	return nil
}

func (r *stubHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*history.Record, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.records, nil
}

type handlerStubs struct {
	ingest    *stubIngestService
	search    *stubSearchService
	sqlQuery  *stubSQLQueryService
	suggester Suggester
	history   *stubHistoryRepo
}

func newTestHandler(stubs handlerStubs) *Handler {
	if stubs.ingest == nil {
		stubs.ingest = &stubIngestService{}
	}
	if stubs.search == nil {
		stubs.search = &stubSearchService{}
	}
	if stubs.sqlQuery == nil {
		stubs.sqlQuery = &stubSQLQueryService{}
	}
	if stubs.suggester == nil {
		stubs.suggester = &stubSuggester{}
	}
	if stubs.history == nil {
		stubs.history = &stubHistoryRepo{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(stubs.ingest, stubs.search, stubs.sqlQuery, stubs.suggester, stubs.history,
		WithHandlerLogger(logger))
}

func newUploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleUpload_Success(t *testing.T) {
	fileID := uuid.New()
	handler := newTestHandler(handlerStubs{
		ingest: &stubIngestService{result: &ingest.Result{
			FileID:          fileID,
			Filename:        fileID.String() + ".csv",
			Headers:         []string{"Name", "Region"},
			RowCount:        2,
			EmbeddingsCount: 3,
			MetadataCount:   2,
		}},
	})

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, newUploadRequest(t, "sales.csv", "Name,Region\nAlice,North"))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, fileID.String(), resp.FileID)
	assert.Equal(t, 3, resp.EmbeddingsCount)
	assert.Contains(t, resp.Message, "sales.csv")
}

func TestHandleUpload_DuplicateReturnsConflict(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		ingest: &stubIngestService{err: fmt.Errorf("%w: sales.csv", ingest.ErrDuplicateFile)},
	})

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, newUploadRequest(t, "sales.csv", "Name\nAlice"))

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "duplicate_file", resp.Code)
}

func TestHandleUpload_UnsupportedTypeReturnsBadRequest(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		ingest: &stubIngestService{err: fmt.Errorf("%w: .pdf", extract.ErrUnsupportedFileType)},
	})

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, newUploadRequest(t, "report.pdf", "binary"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpload_MissingFileField(t *testing.T) {
	handler := newTestHandler(handlerStubs{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", strings.NewReader("not multipart"))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSemanticSearch_Success(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		search: &stubSearchService{response: &search.Response{
			Query: "best sales",
			Results: []*search.SearchResult{
				{Content: "Column: Name | Value: Alice", Score: 0.92},
			},
			TotalResults: 1,
			DurationMS:   42,
		}},
	})

	body := `{"query": "best sales", "limit": 5}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/semantic", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp search.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.TotalResults)

	// 実行時間はミリ秒の整数として公開される
	assert.Contains(t, rec.Body.String(), `"executionTimeMs":42`)
}

func TestHandleSemanticSearch_RequiresQuery(t *testing.T) {
	handler := newTestHandler(handlerStubs{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/semantic", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSemanticSearch_InternalErrorIsGeneric(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		search: &stubSearchService{err: errors.New("connection to 10.0.0.5 refused")},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/semantic", strings.NewReader(`{"query":"x"}`))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	// 内部エラーの詳細はレスポンスへ漏らさない
	assert.NotContains(t, rec.Body.String(), "10.0.0.5")
}

func TestHandleSQLQuery_Success(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		sqlQuery: &stubSQLQueryService{result: &sqlquery.Result{
			Query:        "top sales",
			GeneratedSQL: "SELECT * FROM sheet_cells LIMIT 5",
			Explanation:  "Lists cells.",
			Rows:         []sqlquery.Row{},
			DurationMS:   120,
		}},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/sql-query", strings.NewReader(`{"query":"top sales"}`))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp sqlquery.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.GeneratedSQL, "SELECT")

	// 実行時間はミリ秒の整数として公開される
	assert.Contains(t, rec.Body.String(), `"executionTimeMs":120`)
}

func TestHandleSQLQuery_UnsafeStatementReturnsDistinctCode(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		sqlQuery: &stubSQLQueryService{err: fmt.Errorf("rejected: %w", sqlquery.ErrUnsafeStatement)},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/sql-query", strings.NewReader(`{"query":"drop everything"}`))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unsafe_statement", resp.Code)
}

func TestHandleSuggestions_FiltersByQueryParam(t *testing.T) {
	handler := newTestHandler(handlerStubs{suggester: suggest.NewGenerator()})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/suggestions?query=quota&limit=10", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp suggestionsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "quota", resp.Query)

	// queryパラメータが部分一致フィルタとして適用される
	require.NotEmpty(t, resp.Suggestions)
	for _, s := range resp.Suggestions {
		assert.Contains(t, strings.ToLower(s), "quota")
	}
}

func TestHandleHistory(t *testing.T) {
	handler := newTestHandler(handlerStubs{
		history: &stubHistoryRepo{records: []*history.Record{
			{
				Query:       "best sales",
				Kind:        history.QueryKindSemantic,
				ResultCount: 3,
				Duration:    250 * time.Millisecond,
				ExecutedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			},
		}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/history", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp historyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.History, 1)
	assert.Equal(t, "semantic", resp.History[0].Kind)
	assert.Equal(t, int64(250), resp.History[0].DurationMS)
}

func TestHandleHealth(t *testing.T) {
	handler := newTestHandler(handlerStubs{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}
