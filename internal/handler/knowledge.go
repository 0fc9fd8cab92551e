package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tenderhq/tender/internal/service/knowledge"
	"github.com/tenderhq/tender/store"
)

type KnowledgeHandler struct {
	service *knowledge.Service
	logger  *slog.Logger
}

func (h *KnowledgeHandler) Register(r *mux.Router) {
	r.HandleFunc("/knowledge", h.CreateEntry).Methods(http.MethodPost)
	r.HandleFunc("/knowledge/search", h.Search).Methods(http.MethodGet, http.MethodPost)
}

type createEntryRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Summary    string   `json:"summary"`
	CategoryId string   `json:"category_id"`
	SourceType string   `json:"source_type"`
	Tags       []string `json:"tags"`
	Active     bool     `json:"active"`
}

func (h *KnowledgeHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	if len(strings.TrimSpace(req.Title)) == 0 {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	entry, err := h.service.CreateEntry(r.Context(), store.Entry{
		Title:      req.Title,
		Content:    req.Content,
		Summary:    req.Summary,
		CategoryId: req.CategoryId,
		SourceType: req.SourceType,
		Tags:       req.Tags,
		Active:     req.Active,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "entry creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "entry creation failed")
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

type searchRequest struct {
	Query      string `json:"query"`
	Category   string `json:"category"`
	Tag        string `json:"tag"`
	SourceType string `json:"source_type"`
	Active     *bool  `json:"active"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := searchRequestFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(strings.TrimSpace(req.Query)) == 0 {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	result, err := h.service.Search(r.Context(), req.Query, knowledge.Filters{
		Category:   req.Category,
		Tag:        req.Tag,
		SourceType: req.SourceType,
		Active:     req.Active,
	}, req.Limit, req.Offset)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "knowledge search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "knowledge search failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// searchRequestFrom accepts either a JSON body (POST) or query parameters
// (GET), so the endpoint works from both service callers and plain links.
func searchRequestFrom(r *http.Request) (searchRequest, error) {
	if r.Method == http.MethodPost {
		var req searchRequest
		if err := decode(r, &req); err != nil {
			return searchRequest{}, strErr("invalid json body")
		}
		return req, nil
	}

	q := r.URL.Query()

	req := searchRequest{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Tag:        q.Get("tag"),
		SourceType: q.Get("source_type"),
	}

	if raw := q.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return searchRequest{}, strErr("active must be a boolean")
		}
		req.Active = &active
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return searchRequest{}, strErr("limit must be an integer")
		}
		req.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			return searchRequest{}, strErr("offset must be an integer")
		}
		req.Offset = offset
	}

	return req, nil
}

type strErr string

func (e strErr) Error() string { return string(e) }

func NewKnowledge(service *knowledge.Service, logger *slog.Logger) *KnowledgeHandler {
	if service == nil {
		panic("knowledge service is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &KnowledgeHandler{
		service: service,
		logger:  logger,
	}
}
