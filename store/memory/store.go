package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tenderhq/tender/store"
)

type memoryStore struct {
	options store.Options

	mu           sync.RWMutex
	entries      map[string]store.Entry
	entryOrder   []string
	embeddings   map[string]store.EmbeddingRecord
	embedOrder   []string
	questions    map[string]store.Question
	questionList []string
}

// New returns an in-memory Store. All data is lost when the process exits;
// it exists for tests and single-node development setups.
func New(opts ...store.Option) store.Store {
	return &memoryStore{
		options:    store.NewOptions(opts...),
		entries:    map[string]store.Entry{},
		embeddings: map[string]store.EmbeddingRecord{},
		questions:  map[string]store.Question{},
	}
}

func (s *memoryStore) SaveEntry(_ context.Context, entry store.Entry) (store.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Id == "" {
		entry.Id = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	entry.Tags = append([]string(nil), entry.Tags...)

	if _, ok := s.entries[entry.Id]; !ok {
		s.entryOrder = append(s.entryOrder, entry.Id)
	}
	s.entries[entry.Id] = entry

	return entry, nil
}

func (s *memoryStore) GetEntries(_ context.Context, ids []string) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Entry
	for _, id := range ids {
		if entry, ok := s.entries[id]; ok {
			out = append(out, copyEntry(entry))
		}
	}

	return out, nil
}

func (s *memoryStore) SearchEntries(_ context.Context, substring string) ([]store.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(substring)

	var out []store.Entry
	for _, id := range s.entryOrder {
		entry := s.entries[id]
		haystack := strings.ToLower(entry.Title + "\n" + entry.Content + "\n" + entry.Summary)
		if strings.Contains(haystack, needle) {
			out = append(out, copyEntry(entry))
		}
	}

	return out, nil
}

func (s *memoryStore) SaveEmbedding(_ context.Context, record store.EmbeddingRecord) (store.EmbeddingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.Id == "" {
		record.Id = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.Vector = append([]float32(nil), record.Vector...)

	if _, ok := s.embeddings[record.Id]; !ok {
		s.embedOrder = append(s.embedOrder, record.Id)
	}
	s.embeddings[record.Id] = record

	return record, nil
}

func (s *memoryStore) GetEmbedding(_ context.Context, id string) (store.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.embeddings[id]
	if !ok {
		return store.EmbeddingRecord{}, store.ErrNotFound
	}

	return copyRecord(record), nil
}

func (s *memoryStore) ListEmbeddings(_ context.Context, kind string) ([]store.EmbeddingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.EmbeddingRecord
	for _, id := range s.embedOrder {
		record := s.embeddings[id]
		if record.Kind == kind {
			out = append(out, copyRecord(record))
		}
	}

	return out, nil
}

func (s *memoryStore) SaveQuestion(_ context.Context, question store.Question) (store.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if question.Id == "" {
		question.Id = uuid.New().String()
	}
	if question.CreatedAt.IsZero() {
		question.CreatedAt = time.Now()
	}

	if _, ok := s.questions[question.Id]; !ok {
		s.questionList = append(s.questionList, question.Id)
	}
	s.questions[question.Id] = question

	return question, nil
}

func (s *memoryStore) ListQuestions(_ context.Context, documentId string) ([]store.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []store.Question
	for _, id := range s.questionList {
		question := s.questions[id]
		if documentId == "" || question.DocumentId == documentId {
			out = append(out, question)
		}
	}

	return out, nil
}

func copyEntry(entry store.Entry) store.Entry {
	entry.Tags = append([]string(nil), entry.Tags...)
	return entry
}

func copyRecord(record store.EmbeddingRecord) store.EmbeddingRecord {
	record.Vector = append([]float32(nil), record.Vector...)
	return record
}
