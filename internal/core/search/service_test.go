package search

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jinford/sheet-rag/internal/core/history"
)

type stubEmbedder struct{ called bool }

func (e *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.called = true
	return []float32{1, 2, 3}, nil
}

type stubVectorIndex struct {
	neighbors []Neighbor
	lastK     int
}

func (i *stubVectorIndex) Query(ctx context.Context, vector []float32, k int) ([]Neighbor, error) {
	i.lastK = k
	if k < len(i.neighbors) {
		return i.neighbors[:k], nil
	}
	return i.neighbors, nil
}

type stubMetadataRepo struct {
	siblings map[string]Sibling
}

func (r *stubMetadataRepo) ListNumericalSiblings(ctx context.Context, fileID uuid.UUID, rowIndex int) (map[string]Sibling, error) {
	return r.siblings, nil
}

type stubHistoryRepo struct {
	records []*history.Record
}

func (r *stubHistoryRepo) CreateRecord(ctx context.Context, record *history.Record) error {
	r.records = append(r.records, record)
	return nil
}

func (r *stubHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*history.Record, error) {
	return r.records, nil
}

func neighborAt(distance float64, row int, column string) Neighbor {
	return Neighbor{
		DocID:    uuid.NewString(),
		Text:     "Column: " + column,
		Distance: distance,
		Metadata: NeighborMetadata{
			EntryType:  "data",
			FileID:     uuid.New(),
			RowIndex:   row,
			ColumnName: column,
		},
	}
}

func newTestService(index *stubVectorIndex, metadata *stubMetadataRepo, historyRepo *stubHistoryRepo) (*Service, *stubEmbedder) {
	embedder := &stubEmbedder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(index, metadata, embedder, historyRepo, WithSearchLogger(logger))
	return svc, embedder
}

func TestSearch_FiltersByThresholdAndOrdersByScore(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{
		neighborAt(0.1, 0, "Rep Name"), // score 0.9
		neighborAt(0.3, 1, "Region"),   // score 0.7
		neighborAt(0.6, 2, "Notes"),    // score 0.4 -> しきい値未満
	}}
	historyRepo := &stubHistoryRepo{}
	svc, embedder := newTestService(index, &stubMetadataRepo{}, historyRepo)

	resp, err := svc.Search(context.Background(), SearchParams{
		Query:     "best sales",
		Limit:     5,
		Threshold: 0.5,
	})
	require.NoError(t, err)
	assert.True(t, embedder.called)

	// しきい値フィルタのために2倍件数を先読みする
	assert.Equal(t, 10, index.lastK)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.TotalResults)
	assert.InDelta(t, 0.9, resp.Results[0].Score, 1e-9)
	assert.InDelta(t, 0.7, resp.Results[1].Score, 1e-9)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{
		neighborAt(0.5, 0, "Rep Name"), // score 0.5 < 0.9
	}}
	historyRepo := &stubHistoryRepo{}
	svc, _ := newTestService(index, &stubMetadataRepo{}, historyRepo)

	resp, err := svc.Search(context.Background(), SearchParams{
		Query:     "best sales",
		Threshold: 0.9,
	})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.TotalResults)
}

func TestSearch_LimitCapsResults(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{
		neighborAt(0.05, 0, "a"),
		neighborAt(0.10, 1, "b"),
		neighborAt(0.15, 2, "c"),
		neighborAt(0.20, 3, "d"),
	}}
	svc, _ := newTestService(index, &stubMetadataRepo{}, &stubHistoryRepo{})

	resp, err := svc.Search(context.Background(), SearchParams{
		Query:     "quota",
		Limit:     2,
		Threshold: 0.5,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearch_EnrichesWithNumericalSiblings(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{neighborAt(0.1, 0, "Rep Name")}}
	metadata := &stubMetadataRepo{siblings: map[string]Sibling{
		"Quota":         {Value: 120000, Type: "number"},
		"Performance %": {Value: 0.85, Type: "percentage"},
	}}
	svc, _ := newTestService(index, metadata, &stubHistoryRepo{})

	resp, err := svc.Search(context.Background(), SearchParams{Query: "who leads"})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].Numerical, 2)
	assert.Equal(t, float64(120000), resp.Results[0].Numerical["Quota"].Value)
}

func TestSearch_RecordsHistory(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{neighborAt(0.1, 0, "Rep Name")}}
	historyRepo := &stubHistoryRepo{}
	svc, _ := newTestService(index, &stubMetadataRepo{}, historyRepo)

	_, err := svc.Search(context.Background(), SearchParams{Query: "top rep"})
	require.NoError(t, err)

	require.Len(t, historyRepo.records, 1)
	record := historyRepo.records[0]
	assert.Equal(t, history.QueryKindSemantic, record.Kind)
	assert.Equal(t, "top rep", record.Query)
	assert.Equal(t, 1, record.ResultCount)
}

func TestSearch_ConfiguredDefaultsApplyWhenParamsOmitted(t *testing.T) {
	index := &stubVectorIndex{neighbors: []Neighbor{
		neighborAt(0.05, 0, "a"), // score 0.95
		neighborAt(0.10, 1, "b"), // score 0.9
		neighborAt(0.25, 2, "c"), // score 0.75 -> 設定しきい値未満
	}}
	embedder := &stubEmbedder{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(index, &stubMetadataRepo{}, embedder, &stubHistoryRepo{},
		WithSearchLogger(logger),
		WithSearchDefaults(2, 0.8),
	)

	resp, err := svc.Search(context.Background(), SearchParams{Query: "quota"})
	require.NoError(t, err)

	// 設定されたデフォルト件数の2倍を先読みする
	assert.Equal(t, 4, index.lastK)
	require.Len(t, resp.Results, 2)
	for _, result := range resp.Results {
		assert.GreaterOrEqual(t, result.Score, 0.8)
	}
}

func TestSearch_NonPositiveDefaultsFallBackToPackageValues(t *testing.T) {
	index := &stubVectorIndex{}
	svc := NewService(index, &stubMetadataRepo{}, &stubEmbedder{}, &stubHistoryRepo{},
		WithSearchDefaults(0, -1),
	)

	_, err := svc.Search(context.Background(), SearchParams{Query: "quota"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit*2, index.lastK)
}

func TestSearch_RequiresQuery(t *testing.T) {
	svc, _ := newTestService(&stubVectorIndex{}, &stubMetadataRepo{}, &stubHistoryRepo{})

	_, err := svc.Search(context.Background(), SearchParams{})
	require.Error(t, err)
}

func TestFollowUpSuggestions_ExcludesLexicalOverlap(t *testing.T) {
	// "sales" を含む候補は除外される
	suggestions := followUpSuggestions("best sales")
	assert.LessOrEqual(t, len(suggestions), 3)
	assert.NotEmpty(t, suggestions)
	for _, s := range suggestions {
		assert.False(t, overlapsQueryWords(s, []string{"best", "sales"}))
	}
}
