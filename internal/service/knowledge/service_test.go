package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenderhq/tender/internal/service/semantic"
	"github.com/tenderhq/tender/store"
	memorystore "github.com/tenderhq/tender/store/memory"
)

type fakeSemantic struct {
	matches    []semantic.Match
	err        error
	embeddings []string
	embedErr   error
	category   semantic.CategoryMatch
}

func (f *fakeSemantic) CreateEmbedding(_ context.Context, kind string, sourceId string, text string) (store.EmbeddingRecord, error) {
	if f.embedErr != nil {
		return store.EmbeddingRecord{}, f.embedErr
	}
	f.embeddings = append(f.embeddings, sourceId)
	return store.EmbeddingRecord{SourceId: sourceId, Kind: kind, Text: text}, nil
}

func (f *fakeSemantic) FindSimilar(_ context.Context, _ string, _ string, _ int, _ float64) ([]semantic.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

func (f *fakeSemantic) Categorize(_ context.Context, _ string) (semantic.CategoryMatch, error) {
	if f.err != nil {
		return semantic.CategoryMatch{}, f.err
	}
	if f.category.Category == "" {
		return semantic.CategoryMatch{Category: "uncategorized"}, nil
	}
	return f.category, nil
}

func seedEntries(t *testing.T, st store.Store, entries ...store.Entry) []store.Entry {
	t.Helper()
	var saved []store.Entry
	for _, entry := range entries {
		got, err := st.SaveEntry(context.Background(), entry)
		require.NoError(t, err)
		saved = append(saved, got)
	}
	return saved
}

func TestCreateEntryIndexesForSemanticSearch(t *testing.T) {
	st := memorystore.New()
	sem := &fakeSemantic{}
	svc := New(st, sem, nil)

	entry, err := svc.CreateEntry(context.Background(), store.Entry{Title: "Delivery", Content: "30 day window"})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.Id)
	require.Len(t, sem.embeddings, 1)
	assert.Equal(t, entry.Id, sem.embeddings[0])
}

func TestCreateEntryAutoCategorizes(t *testing.T) {
	st := memorystore.New()
	sem := &fakeSemantic{category: semantic.CategoryMatch{Category: "logistics", Score: 0.85}}
	svc := New(st, sem, nil)

	entry, err := svc.CreateEntry(context.Background(), store.Entry{Title: "Delivery windows"})
	require.NoError(t, err)
	assert.Equal(t, "logistics", entry.CategoryId)
}

func TestCreateEntryKeepsExplicitCategory(t *testing.T) {
	st := memorystore.New()
	sem := &fakeSemantic{category: semantic.CategoryMatch{Category: "logistics", Score: 0.85}}
	svc := New(st, sem, nil)

	entry, err := svc.CreateEntry(context.Background(), store.Entry{Title: "Delivery windows", CategoryId: "custom"})
	require.NoError(t, err)
	assert.Equal(t, "custom", entry.CategoryId)
}

func TestCreateEntrySkipsLowConfidenceCategory(t *testing.T) {
	st := memorystore.New()
	sem := &fakeSemantic{category: semantic.CategoryMatch{Category: "logistics", Score: 0.4}}
	svc := New(st, sem, nil)

	entry, err := svc.CreateEntry(context.Background(), store.Entry{Title: "Delivery windows"})
	require.NoError(t, err)
	assert.Empty(t, entry.CategoryId)
}

func TestCreateEntrySurvivesEmbeddingFailure(t *testing.T) {
	st := memorystore.New()
	sem := &fakeSemantic{embedErr: errors.New("embedder down")}
	svc := New(st, sem, nil)

	entry, err := svc.CreateEntry(context.Background(), store.Entry{Title: "Delivery"})
	require.NoError(t, err)

	entries, err := st.GetEntries(context.Background(), []string{entry.Id})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSearchReturnsEntriesInRankedOrder(t *testing.T) {
	st := memorystore.New()
	saved := seedEntries(t, st,
		store.Entry{Title: "First saved"},
		store.Entry{Title: "Second saved"},
	)

	// Ranked order reverses insertion order on purpose.
	sem := &fakeSemantic{matches: []semantic.Match{
		{SourceId: saved[1].Id, Score: 0.9},
		{SourceId: saved[0].Id, Score: 0.8},
	}}
	svc := New(st, sem, nil)

	result, err := svc.Search(context.Background(), "anything", Filters{}, 10, 0)
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "Second saved", result.Results[0].Title)
	assert.Equal(t, "First saved", result.Results[1].Title)
	assert.Equal(t, 2, result.Total)
}

func TestSearchDeduplicatesMatchesForTheSameEntry(t *testing.T) {
	st := memorystore.New()
	saved := seedEntries(t, st, store.Entry{Title: "Only one"})

	sem := &fakeSemantic{matches: []semantic.Match{
		{SourceId: saved[0].Id, Score: 0.95},
		{SourceId: saved[0].Id, Score: 0.85},
	}}
	svc := New(st, sem, nil)

	result, err := svc.Search(context.Background(), "anything", Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
}

func TestSearchDropsMatchesForDeletedEntries(t *testing.T) {
	st := memorystore.New()
	saved := seedEntries(t, st, store.Entry{Title: "Alive"})

	sem := &fakeSemantic{matches: []semantic.Match{
		{SourceId: "gone", Score: 0.99},
		{SourceId: saved[0].Id, Score: 0.8},
	}}
	svc := New(st, sem, nil)

	result, err := svc.Search(context.Background(), "anything", Filters{}, 10, 0)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "Alive", result.Results[0].Title)
}

func TestSearchFallsBackWhenSemanticFails(t *testing.T) {
	st := memorystore.New()
	seedEntries(t, st, store.Entry{Title: "Payment terms"}, store.Entry{Title: "Unrelated"})

	sem := &fakeSemantic{err: errors.New("embedder down")}
	svc := New(st, sem, nil)

	result, err := svc.Search(context.Background(), "payment", Filters{}, 10, 0)
	require.NoError(t, err, "a broken semantic path must not fail the search")

	require.Len(t, result.Results, 1)
	assert.Equal(t, "Payment terms", result.Results[0].Title)
}

func TestSearchFallsBackWhenSemanticMatchesNothing(t *testing.T) {
	st := memorystore.New()
	seedEntries(t, st, store.Entry{Title: "Payment terms"})

	sem := &fakeSemantic{}
	svc := New(st, sem, nil)

	result, err := svc.Search(context.Background(), "PAYMENT", Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
}

func TestSearchWithoutSemanticUsesSubstring(t *testing.T) {
	st := memorystore.New()
	seedEntries(t, st, store.Entry{Title: "Shipping", Summary: "covers delivery delays"})

	svc := New(st, nil, nil)

	result, err := svc.Search(context.Background(), "delivery", Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Len(t, result.Results, 1)
}

func TestSearchAppliesFiltersAsIntersection(t *testing.T) {
	active := true

	st := memorystore.New()
	seedEntries(t, st,
		store.Entry{Title: "delivery a", CategoryId: "logistics", Tags: []string{"sla"}, Active: true},
		store.Entry{Title: "delivery b", CategoryId: "logistics", Tags: []string{"other"}, Active: true},
		store.Entry{Title: "delivery c", CategoryId: "finance", Tags: []string{"sla"}, Active: true},
		store.Entry{Title: "delivery d", CategoryId: "logistics", Tags: []string{"sla"}, Active: false},
	)

	svc := New(st, nil, nil)

	result, err := svc.Search(context.Background(), "delivery", Filters{
		Category: "logistics",
		Tag:      "sla",
		Active:   &active,
	}, 10, 0)
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "delivery a", result.Results[0].Title)
	assert.Equal(t, 1, result.Total)
}

func TestSearchPaginatesAfterFiltering(t *testing.T) {
	st := memorystore.New()
	seedEntries(t, st,
		store.Entry{Title: "delivery 1"},
		store.Entry{Title: "delivery 2"},
		store.Entry{Title: "delivery 3"},
	)

	svc := New(st, nil, nil)
	ctx := context.Background()

	page, err := svc.Search(ctx, "delivery", Filters{}, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page.Results, 2)
	assert.Equal(t, 3, page.Total)

	page, err = svc.Search(ctx, "delivery", Filters{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "delivery 3", page.Results[0].Title)

	page, err = svc.Search(ctx, "delivery", Filters{}, 2, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, 3, page.Total)
}
