package document

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tenderhq/tender/store"
	memorystore "github.com/tenderhq/tender/store/memory"
)

type fakeSemantic struct {
	embedded []string
	err      error
}

func (f *fakeSemantic) CreateEmbedding(_ context.Context, kind string, sourceId string, text string) (store.EmbeddingRecord, error) {
	if f.err != nil {
		return store.EmbeddingRecord{}, f.err
	}
	f.embedded = append(f.embedded, text)
	return store.EmbeddingRecord{SourceId: sourceId, Kind: kind, Text: text}, nil
}

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Tender"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Tender", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	return buf.Bytes()
}

func TestIngestPersistsQuestionsWithResolvedColumns(t *testing.T) {
	b := workbookBytes(t, [][]any{
		{"Question", "Answer"},
		{"What is the warranty?", "Two years"},
		{"Who pays shipping?", "The supplier"},
	})

	st := memorystore.New()
	sem := &fakeSemantic{}
	svc := New(st, sem, nil)

	result, err := svc.Ingest(context.Background(), b, "tender.xlsx")
	require.NoError(t, err)

	assert.NotEmpty(t, result.DocumentId)
	assert.Equal(t, "tender.xlsx", result.Filename)
	require.Len(t, result.Questions, 2)

	first := result.Questions[0]
	assert.Equal(t, "What is the warranty?", first.Text)
	assert.Equal(t, "Two years", first.Context)
	assert.Equal(t, "Tender", first.SheetName)
	assert.Equal(t, 0, first.ColumnIndex, "the Question header is the first column")

	stored, err := st.ListQuestions(context.Background(), result.DocumentId)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	assert.Equal(t, []string{"What is the warranty?", "Who pays shipping?"}, sem.embedded)
}

func TestIngestSynthesizesContextForUnansweredQuestions(t *testing.T) {
	b := workbookBytes(t, [][]any{
		{"Question", "Answer"},
		{"Unanswered?", ""},
	})

	st := memorystore.New()
	svc := New(st, nil, nil)

	result, err := svc.Ingest(context.Background(), b, "tender.xlsx")
	require.NoError(t, err)

	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Sheet: Tender, Row: 0, Column: Question", result.Questions[0].Context)
}

func TestIngestReportsStructure(t *testing.T) {
	b := workbookBytes(t, [][]any{
		{"Question", "Answer"},
		{"Q1?", "A1"},
		{"Q2?", "A2"},
	})

	st := memorystore.New()
	svc := New(st, nil, nil)

	result, err := svc.Ingest(context.Background(), b, "tender.xlsx")
	require.NoError(t, err)

	structure, ok := result.Structure["Tender"]
	require.True(t, ok)
	assert.Equal(t, 2, structure.RowCount)
}

func TestIngestSurvivesEmbeddingFailure(t *testing.T) {
	b := workbookBytes(t, [][]any{
		{"Question", "Answer"},
		{"Still saved?", "Yes"},
	})

	st := memorystore.New()
	sem := &fakeSemantic{err: assert.AnError}
	svc := New(st, sem, nil)

	result, err := svc.Ingest(context.Background(), b, "tender.xlsx")
	require.NoError(t, err)
	assert.Len(t, result.Questions, 1)
}

func TestIngestGarbageBytesIsFatal(t *testing.T) {
	st := memorystore.New()
	svc := New(st, nil, nil)

	_, err := svc.Ingest(context.Background(), []byte("not a workbook"), "junk.bin")
	require.Error(t, err)

	questions, listErr := st.ListQuestions(context.Background(), "")
	require.NoError(t, listErr)
	assert.Empty(t, questions, "a failed parse must persist nothing")
}
