package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tenderhq/tender/internal/service/document"
	"github.com/tenderhq/tender/internal/service/knowledge"
	"github.com/tenderhq/tender/internal/service/semantic"
	"github.com/tenderhq/tender/store"
	memorystore "github.com/tenderhq/tender/store/memory"
)

type fixedEmbedder struct {
	vectors map[string][]float32
}

func (f *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

type fixedGenerator struct {
	response string
}

func (f *fixedGenerator) Generate(_ context.Context, _ string) (string, error) {
	return f.response, nil
}

func newRouter(t *testing.T, st store.Store, emb *fixedEmbedder, gen *fixedGenerator) *mux.Router {
	t.Helper()

	sem := semantic.New(emb, gen, st, nil, "all-minilm", "v1", nil)
	kb := knowledge.New(st, sem, nil)
	doc := document.New(st, sem, nil)

	r := mux.NewRouter()
	NewSemantic(sem, nil).Register(r)
	NewKnowledge(kb, nil).Register(r)
	NewDocument(doc, nil).Register(r)

	return r
}

func doJSON(t *testing.T, r *mux.Router, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestCreateEmbeddingEndpoint(t *testing.T) {
	st := memorystore.New()
	r := newRouter(t, st, &fixedEmbedder{vectors: map[string][]float32{"warranty": {1, 0, 0}}}, nil)

	rec := doJSON(t, r, http.MethodPost, "/embeddings", map[string]any{
		"kind":      "knowledge",
		"source_id": "entry-1",
		"text":      "warranty",
	})

	require.Equal(t, http.StatusCreated, rec.Code)

	records, err := st.ListEmbeddings(context.Background(), store.KindKnowledge)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "entry-1", records[0].SourceId)
}

func TestCreateEmbeddingRejectsBadJSON(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/embeddings", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindSimilarEndpoint(t *testing.T) {
	st := memorystore.New()
	_, err := st.SaveEmbedding(context.Background(), store.EmbeddingRecord{
		Kind:   store.KindKnowledge,
		Text:   "the warranty lasts two years",
		Vector: []float32{1, 0, 0},
	})
	require.NoError(t, err)

	r := newRouter(t, st, &fixedEmbedder{vectors: map[string][]float32{"warranty?": {1, 0, 0}}}, nil)

	rec := doJSON(t, r, http.MethodPost, "/embeddings/similar", map[string]any{"text": "warranty?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Matches []semantic.Match `json:"matches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Matches, 1)
	assert.Equal(t, "the warranty lasts two years", resp.Matches[0].Text)
}

func TestGenerateResponseEndpointRequiresQuestion(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, &fixedGenerator{response: "ok"})

	rec := doJSON(t, r, http.MethodPost, "/llm/generate-response", map[string]any{"question": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateResponseEndpoint(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, &fixedGenerator{response: "Two years."})

	rec := doJSON(t, r, http.MethodPost, "/llm/generate-response", map[string]any{"question": "warranty?"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp semantic.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Two years.", resp.Answer)
	assert.Greater(t, resp.Confidence, 0.0)
}

func TestCategorizeEndpointFallsBack(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, nil)

	rec := doJSON(t, r, http.MethodPost, "/knowledge/categorize", map[string]any{"text": "anything"})
	require.Equal(t, http.StatusOK, rec.Code)

	var match semantic.CategoryMatch
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &match))
	assert.Equal(t, "uncategorized", match.Category)
}

func TestCreateEntryEndpointRequiresTitle(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, nil)

	rec := doJSON(t, r, http.MethodPost, "/knowledge", map[string]any{"content": "no title"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchEndpointGetAndPostAgree(t *testing.T) {
	st := memorystore.New()
	r := newRouter(t, st, &fixedEmbedder{}, nil)

	rec := doJSON(t, r, http.MethodPost, "/knowledge", map[string]any{
		"title":  "Delivery terms",
		"active": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	get := doJSON(t, r, http.MethodGet, "/knowledge/search?q=delivery", nil)
	require.Equal(t, http.StatusOK, get.Code)

	post := doJSON(t, r, http.MethodPost, "/knowledge/search", map[string]any{"query": "delivery"})
	require.Equal(t, http.StatusOK, post.Code)

	assert.JSONEq(t, get.Body.String(), post.Body.String())
}

func TestSearchEndpointValidatesParams(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, nil)

	rec := doJSON(t, r, http.MethodGet, "/knowledge/search?q=x&active=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/knowledge/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "query is required")
}

func uploadWorkbook(t *testing.T, r *mux.Router, rows [][]any) *httptest.ResponseRecorder {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Tender"))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Tender", cell, &row))
	}

	var workbook bytes.Buffer
	require.NoError(t, f.Write(&workbook))

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", "tender.xlsx")
	require.NoError(t, err)
	_, err = part.Write(workbook.Bytes())
	require.NoError(t, err)
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/parse", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func TestParseEndpointIngestsWorkbook(t *testing.T) {
	st := memorystore.New()
	r := newRouter(t, st, &fixedEmbedder{}, nil)

	rec := uploadWorkbook(t, r, [][]any{
		{"Question", "Answer"},
		{"What is the warranty?", "Two years"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result document.IngestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Questions, 1)

	get := doJSON(t, r, http.MethodGet, "/documents/"+result.DocumentId+"/questions", nil)
	require.Equal(t, http.StatusOK, get.Code)

	var listed struct {
		Questions []store.Question `json:"questions"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &listed))
	assert.Len(t, listed.Questions, 1)
}

func TestParseEndpointRejectsMissingFile(t *testing.T) {
	r := newRouter(t, memorystore.New(), &fixedEmbedder{}, nil)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	require.NoError(t, form.WriteField("other", "value"))
	require.NoError(t, form.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents/parse", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
