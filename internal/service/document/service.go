package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/tenderhq/tender/extractor"
	"github.com/tenderhq/tender/store"
)

// Semantic is the slice of the semantic service this package depends on.
type Semantic interface {
	CreateEmbedding(ctx context.Context, kind string, sourceId string, text string) (store.EmbeddingRecord, error)
}

// IngestResult reports what one workbook produced.
type IngestResult struct {
	DocumentId string                         `json:"document_id"`
	Filename   string                         `json:"filename"`
	Questions  []store.Question               `json:"questions"`
	Structure  map[string]extractor.Structure `json:"structure"`
}

type Service struct {
	parser   *extractor.Parser
	store    store.Store
	semantic Semantic
	logger   *slog.Logger
}

// Ingest parses a spreadsheet, persists every extracted question, and
// indexes the question texts for semantic search. Parse failures are fatal
// with nothing persisted; per-question indexing failures only cost recall.
func (s *Service) Ingest(ctx context.Context, fileBytes []byte, filename string) (IngestResult, error) {
	parsed, err := s.parser.Parse(fileBytes)
	if err != nil {
		return IngestResult{}, fmt.Errorf("ingesting %s: %w", filename, err)
	}

	headersBySheet := map[string][]extractor.ColumnKey{}
	for _, sheet := range parsed.Sheets {
		headersBySheet[sheet.Name] = sheet.Headers
	}

	documentId := uuid.New().String()

	var questions []store.Question
	for _, candidate := range parsed.Questions {
		question := store.Question{
			DocumentId:  documentId,
			SheetName:   candidate.Sheet,
			Text:        candidate.Text,
			Context:     candidate.Context,
			RowIndex:    candidate.Row,
			ColumnIndex: s.parser.ResolveColumnIndex(headersBySheet[candidate.Sheet], candidate.Column),
		}

		// An empty context still carries provenance: record where the
		// question sat so a reviewer can find it in the workbook.
		if len(strings.TrimSpace(question.Context)) == 0 {
			question.Context = fmt.Sprintf(
				"Sheet: %s, Row: %d, Column: %s",
				candidate.Sheet,
				candidate.Row,
				candidate.Column,
			)
		}

		saved, err := s.store.SaveQuestion(ctx, question)
		if err != nil {
			return IngestResult{}, fmt.Errorf("saving question from %s: %w", candidate.Sheet, err)
		}

		if s.semantic != nil {
			if _, err := s.semantic.CreateEmbedding(ctx, store.KindQuestion, saved.Id, saved.Text); err != nil {
				s.logger.WarnContext(ctx, "question saved without embedding", "question", saved.Id, "error", err)
			}
		}

		questions = append(questions, saved)
	}

	s.logger.InfoContext(ctx, "document ingested",
		"document", documentId,
		"filename", filename,
		"sheets", len(parsed.Sheets),
		"questions", len(questions),
	)

	return IngestResult{
		DocumentId: documentId,
		Filename:   filename,
		Questions:  questions,
		Structure:  parsed.Structure,
	}, nil
}

// Questions lists the stored questions for a document, or every question
// when documentId is empty.
func (s *Service) Questions(ctx context.Context, documentId string) ([]store.Question, error) {
	return s.store.ListQuestions(ctx, documentId)
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
		parser:   extractor.NewParser(extractor.WithLogger(logger)),
		store:    st,
		semantic: sem,
		logger:   logger,
	}
}
