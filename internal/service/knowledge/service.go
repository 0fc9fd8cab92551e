package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tenderhq/tender/internal/service/semantic"
	"github.com/tenderhq/tender/store"
)

// Knowledge base searches cast a wider net than the default similarity
// parameters: more results, lower bar, with the substring fallback catching
// whatever semantic search cannot serve.
const (
	searchThreshold = 0.6
	searchLimit     = 10

	defaultPageSize = 10

	// Minimum category similarity before an uncategorized entry is
	// auto-assigned.
	autoCategorizeFloor = 0.7
)

// Semantic is the slice of the semantic service this package depends on.
type Semantic interface {
	CreateEmbedding(ctx context.Context, kind string, sourceId string, text string) (store.EmbeddingRecord, error)
	FindSimilar(ctx context.Context, kind string, text string, limit int, threshold float64) ([]semantic.Match, error)
	Categorize(ctx context.Context, text string) (semantic.CategoryMatch, error)
}

// Filters narrow a search result set. Zero-valued fields are ignored;
// populated fields intersect.
type Filters struct {
	Category   string
	Tag        string
	SourceType string
	Active     *bool
}

type SearchResult struct {
	Results []store.Entry `json:"results"`
	Total   int           `json:"total"`
}

type Service struct {
	store    store.Store
	semantic Semantic
	logger   *slog.Logger
}

// CreateEntry persists the entry and indexes it for semantic search. The
// entry write is authoritative; failed embedding or categorization only
// costs semantic recall, so both are logged and the entry kept. Entries
// arriving without a category get the best category match when one clears
// the autoCategorizeFloor.
func (s *Service) CreateEntry(ctx context.Context, entry store.Entry) (store.Entry, error) {
	if s.semantic != nil && len(strings.TrimSpace(entry.CategoryId)) == 0 {
		text := strings.TrimSpace(entry.Title + "\n" + entry.Content)
		match, err := s.semantic.Categorize(ctx, text)
		if err != nil {
			s.logger.WarnContext(ctx, "auto-categorization failed", "error", err)
		} else if match.Score > autoCategorizeFloor {
			entry.CategoryId = match.Category
		}
	}

	saved, err := s.store.SaveEntry(ctx, entry)
	if err != nil {
		return store.Entry{}, fmt.Errorf("saving entry: %w", err)
	}

	if s.semantic != nil {
		text := strings.TrimSpace(saved.Title + "\n" + saved.Content)
		if _, err := s.semantic.CreateEmbedding(ctx, store.KindKnowledge, saved.Id, text); err != nil {
			s.logger.WarnContext(ctx, "entry saved without embedding", "entry", saved.Id, "error", err)
		}
	}

	return saved, nil
}

// Search runs semantic search over the knowledge embeddings and falls back
// to a case-insensitive substring scan when the semantic path is
// unavailable, fails, or matches nothing. Filters and pagination apply the
// same way on both paths.
func (s *Service) Search(ctx context.Context, query string, filters Filters, limit int, offset int) (SearchResult, error) {
	if limit < 1 {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	entries, err := s.semanticSearch(ctx, query)
	if err != nil {
		s.logger.WarnContext(ctx, "semantic search unavailable, using substring fallback", "error", err)
		entries = nil
	}

	if len(entries) == 0 {
		entries, err = s.store.SearchEntries(ctx, query)
		if err != nil {
			return SearchResult{}, fmt.Errorf("substring search: %w", err)
		}
	}

	var filtered []store.Entry
	for _, entry := range entries {
		if matchesFilters(entry, filters) {
			filtered = append(filtered, entry)
		}
	}

	total := len(filtered)

	if offset >= total {
		return SearchResult{Total: total}, nil
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return SearchResult{Results: filtered[offset:end], Total: total}, nil
}

// semanticSearch resolves similarity matches back to full entries, keeping
// the ranked order. Matches whose source entry no longer exists drop out.
func (s *Service) semanticSearch(ctx context.Context, query string) ([]store.Entry, error) {
	if s.semantic == nil {
		return nil, nil
	}

	matches, err := s.semantic.FindSimilar(ctx, store.KindKnowledge, query, searchLimit, searchThreshold)
	if err != nil {
		return nil, err
	}

	if len(matches) == 0 {
		return nil, nil
	}

	var ids []string
	seen := map[string]bool{}
	for _, match := range matches {
		if match.SourceId == "" || seen[match.SourceId] {
			continue
		}
		seen[match.SourceId] = true
		ids = append(ids, match.SourceId)
	}

	entries, err := s.store.GetEntries(ctx, ids)
	if err != nil {
		return nil, err
	}

	// GetEntries preserves the requested id order, which is the ranked
	// order; nothing to re-sort.
	return entries, nil
}

func matchesFilters(entry store.Entry, filters Filters) bool {
	if filters.Category != "" && entry.CategoryId != filters.Category {
		return false
	}

	if filters.SourceType != "" && entry.SourceType != filters.SourceType {
		return false
	}

	if filters.Active != nil && entry.Active != *filters.Active {
		return false
	}

	if filters.Tag != "" {
		found := false
		for _, tag := range entry.Tags {
			if tag == filters.Tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func New(
	st store.Store,
	sem Semantic,
	logger *slog.Logger,
) *Service {
	if st == nil {
		panic("store is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		store:    st,
		semantic: sem,
		logger:   logger,
	}
}
