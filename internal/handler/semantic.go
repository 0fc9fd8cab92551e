package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tenderhq/tender/internal/service/semantic"
	"github.com/tenderhq/tender/store"
)

type SemanticHandler struct {
	service *semantic.Service
	logger  *slog.Logger
}

func (h *SemanticHandler) Register(r *mux.Router) {
	r.HandleFunc("/embeddings", h.CreateEmbedding).Methods(http.MethodPost)
	r.HandleFunc("/embeddings/similar", h.FindSimilar).Methods(http.MethodPost)
	r.HandleFunc("/llm/generate-response", h.GenerateResponse).Methods(http.MethodPost)
	r.HandleFunc("/knowledge/categorize", h.Categorize).Methods(http.MethodPost)
}

type createEmbeddingRequest struct {
	Kind     string `json:"kind"`
	SourceId string `json:"source_id"`
	Text     string `json:"text"`
}

func (h *SemanticHandler) CreateEmbedding(w http.ResponseWriter, r *http.Request) {
	var req createEmbeddingRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.Kind == "" {
		req.Kind = store.KindKnowledge
	}

	record, err := h.service.CreateEmbedding(r.Context(), req.Kind, req.SourceId, req.Text)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "embedding creation failed", "error", err)
		writeError(w, http.StatusBadGateway, "embedding creation failed")
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

type findSimilarRequest struct {
	Kind      string  `json:"kind"`
	Text      string  `json:"text"`
	Limit     int     `json:"limit"`
	Threshold float64 `json:"threshold"`
}

type findSimilarResponse struct {
	Matches []semantic.Match `json:"matches"`
}

func (h *SemanticHandler) FindSimilar(w http.ResponseWriter, r *http.Request) {
	var req findSimilarRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if req.Kind == "" {
		req.Kind = store.KindKnowledge
	}

	matches, err := h.service.FindSimilar(r.Context(), req.Kind, req.Text, req.Limit, req.Threshold)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "similarity search failed", "error", err)
		writeError(w, http.StatusBadGateway, "similarity search failed")
		return
	}

	writeJSON(w, http.StatusOK, findSimilarResponse{Matches: matches})
}

type generateResponseRequest struct {
	Question string `json:"question"`
}

func (h *SemanticHandler) GenerateResponse(w http.ResponseWriter, r *http.Request) {
	var req generateResponseRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if len(strings.TrimSpace(req.Question)) == 0 {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	resp, err := h.service.GenerateResponse(r.Context(), req.Question)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "response generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "response generation failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type categorizeRequest struct {
	Text string `json:"text"`
}

func (h *SemanticHandler) Categorize(w http.ResponseWriter, r *http.Request) {
	var req categorizeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	match, err := h.service.Categorize(r.Context(), req.Text)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "categorization failed", "error", err)
		writeError(w, http.StatusBadGateway, "categorization failed")
		return
	}

	writeJSON(w, http.StatusOK, match)
}

func NewSemantic(service *semantic.Service, logger *slog.Logger) *SemanticHandler {
	if service == nil {
		panic("semantic service is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SemanticHandler{
		service: service,
		logger:  logger,
	}
}
