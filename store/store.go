package store

import (
	"context"
	"errors"
	"time"
)

// Embedding record kinds. Each kind is ranked against queries of the same
// kind only.
const (
	KindQuestion  = "question"
	KindResponse  = "response"
	KindKnowledge = "knowledge"
	KindCategory  = "category"
)

var ErrNotFound = errors.New("not found")

// Entry is a knowledge base entry. Substring search covers Title, Content,
// and Summary.
type Entry struct {
	Id         string
	Title      string
	Content    string
	Summary    string
	CategoryId string
	SourceType string
	Tags       []string
	Active     bool
	CreatedAt  time.Time
}

// EmbeddingRecord is one embedded text revision. Records are immutable: a
// text update produces a new record, and stale records are retained for
// auditability rather than garbage collected.
type EmbeddingRecord struct {
	Id           string
	SourceId     string
	Kind         string
	Text         string
	Vector       []float32
	ModelName    string
	ModelVersion string
	CreatedAt    time.Time
}

// Question is a persisted question candidate with its column identifier
// resolved to an integer index.
type Question struct {
	Id          string
	DocumentId  string
	SheetName   string
	Text        string
	Context     string
	RowIndex    int
	ColumnIndex int
	CreatedAt   time.Time
}

// Store is the persistence boundary for the knowledge suite. Implementations
// must be safe for concurrent use. Listing operations return records in
// insertion order so similarity ranking has a stable candidate order.
type Store interface {
	SaveEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntries(ctx context.Context, ids []string) ([]Entry, error)
	SearchEntries(ctx context.Context, substring string) ([]Entry, error)

	SaveEmbedding(ctx context.Context, record EmbeddingRecord) (EmbeddingRecord, error)
	GetEmbedding(ctx context.Context, id string) (EmbeddingRecord, error)
	ListEmbeddings(ctx context.Context, kind string) ([]EmbeddingRecord, error)

	SaveQuestion(ctx context.Context, question Question) (Question, error)
	ListQuestions(ctx context.Context, documentId string) ([]Question, error)
}
