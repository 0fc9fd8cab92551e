package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/tenderhq/tender/cache"
	"github.com/tenderhq/tender/embedder"
	"github.com/tenderhq/tender/generator"
	"github.com/tenderhq/tender/similarity"
	"github.com/tenderhq/tender/store"
)

const (
	// Confidence reported when a response was generated without any
	// retrieved sources to ground it.
	defaultConfidence = 0.7

	apology = "I apologize, but I am unable to generate a response right now. Please try again later."
)

// Match is one similarity hit against the stored embedding records.
type Match struct {
	Id       string  `json:"id"`
	SourceId string  `json:"source_id"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// CategoryMatch is the best-scoring category for a text, or the
// uncategorized fallback when no category clears the threshold.
type CategoryMatch struct {
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

// Response is a generated answer with the knowledge matches that grounded it.
type Response struct {
	Answer     string  `json:"answer"`
	Sources    []Match `json:"sources"`
	Confidence float64 `json:"confidence"`
}

type Service struct {
	embedder     embedder.Embedder
	generator    generator.Generator
	store        store.Store
	cache        cache.Cache
	modelName    string
	modelVersion string
	logger       *slog.Logger
}

// CreateEmbedding embeds text and persists the resulting record. Unlike the
// search paths, an embedding failure here is surfaced to the caller: a write
// that silently stored a zero vector would poison later rankings.
func (s *Service) CreateEmbedding(ctx context.Context, kind string, sourceId string, text string) (store.EmbeddingRecord, error) {
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return store.EmbeddingRecord{}, fmt.Errorf("embedding %s text: %w", kind, err)
	}

	record, err := s.store.SaveEmbedding(ctx, store.EmbeddingRecord{
		SourceId:     sourceId,
		Kind:         kind,
		Text:         text,
		Vector:       vec,
		ModelName:    s.modelName,
		ModelVersion: s.modelVersion,
	})
	if err != nil {
		return store.EmbeddingRecord{}, fmt.Errorf("saving %s embedding: %w", kind, err)
	}

	return record, nil
}

// FindSimilar ranks every stored embedding of the given kind against text.
// Results are cached per (kind, text, limit, threshold); cache failures on
// either side degrade to a recompute.
func (s *Service) FindSimilar(ctx context.Context, kind string, text string, limit int, threshold float64) ([]Match, error) {
	if limit < 1 {
		limit = similarity.DefaultLimit
	}
	if threshold <= 0 {
		threshold = similarity.DefaultThreshold
	}

	key := cache.Key(
		"similar_"+kind,
		text,
		strconv.Itoa(limit),
		strconv.FormatFloat(threshold, 'f', -1, 64),
	)

	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			s.logger.DebugContext(ctx, "similarity cache read failed", "error", err)
		} else if ok {
			var matches []Match
			if err := json.Unmarshal(raw, &matches); err == nil {
				return matches, nil
			}
			s.logger.DebugContext(ctx, "discarding undecodable cached matches", "key", key)
		}
	}

	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	records, err := s.store.ListEmbeddings(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s embeddings: %w", kind, err)
	}

	candidates := make([]similarity.Candidate, 0, len(records))
	for _, record := range records {
		candidates = append(candidates, similarity.Candidate{
			Id:     record.Id,
			Vector: record.Vector,
			Metadata: map[string]string{
				"source_id": record.SourceId,
				"text":      record.Text,
			},
		})
	}

	results := similarity.Rank(vec, candidates, limit, threshold)

	matches := make([]Match, 0, len(results))
	for _, r := range results {
		matches = append(matches, Match{
			Id:       r.Id,
			SourceId: r.Metadata["source_id"],
			Text:     r.Metadata["text"],
			Score:    r.Score,
		})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(matches); err == nil {
			if err := s.cache.Set(ctx, key, raw, 0); err != nil {
				s.logger.DebugContext(ctx, "similarity cache write failed", "error", err)
			}
		}
	}

	return matches, nil
}

// Categorize returns the single best category match for text, or the
// uncategorized fallback when nothing clears the default threshold.
func (s *Service) Categorize(ctx context.Context, text string) (CategoryMatch, error) {
	matches, err := s.FindSimilar(ctx, store.KindCategory, text, 1, similarity.DefaultThreshold)
	if err != nil {
		return CategoryMatch{}, err
	}

	if len(matches) == 0 {
		return CategoryMatch{Category: "uncategorized", Score: 0.0}, nil
	}

	return CategoryMatch{Category: matches[0].Text, Score: matches[0].Score}, nil
}

// GenerateResponse answers a question grounded on similar knowledge
// embeddings. Retrieval and generation failures never fail the call: a
// missing answer beats a 500 for this surface, so the degraded paths return
// an apology with zero confidence instead.
func (s *Service) GenerateResponse(ctx context.Context, question string) (Response, error) {
	var sources []Match

	matches, err := s.FindSimilar(ctx, store.KindKnowledge, question, similarity.DefaultLimit, similarity.DefaultThreshold)
	if err != nil {
		s.logger.WarnContext(ctx, "generating without sources", "error", err)
	} else {
		sources = matches
	}

	if s.generator == nil {
		return Response{Answer: apology, Confidence: 0.0}, nil
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(question, sources))
	if err != nil {
		s.logger.WarnContext(ctx, "response generation failed", "error", err)
		return Response{Answer: apology, Confidence: 0.0}, nil
	}

	// Matches arrive ranked, so the best similarity leads the slice.
	confidence := defaultConfidence
	if len(sources) > 0 {
		confidence = sources[0].Score
	}

	return Response{
		Answer:     strings.TrimSpace(answer),
		Sources:    sources,
		Confidence: confidence,
	}, nil
}

func buildPrompt(question string, sources []Match) string {
	var sb strings.Builder

	if len(sources) > 0 {
		sb.WriteString("Use the following knowledge to answer the question.\n\nKnowledge:\n")
		for i, src := range sources {
			sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, src.Text))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Question:\n")
	sb.WriteString(strings.TrimSpace(question))
	sb.WriteString("\n\nAnswer concisely. If the knowledge does not cover the question, say so.\n")

	return sb.String()
}

func New(
	emb embedder.Embedder,
	gen generator.Generator,
	st store.Store,
	c cache.Cache,
	modelName string,
	modelVersion string,
	logger *slog.Logger,
) *Service {
	if emb == nil {
		panic("embedder is required")
	}

	if st == nil {
		panic("store is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		embedder:     emb,
		generator:    gen,
		store:        st,
		cache:        c,
		modelName:    modelName,
		modelVersion: modelVersion,
		logger:       logger,
	}
}
