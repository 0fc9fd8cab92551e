package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tenderhq/tender/internal/service/document"
)

// Workbooks over this size are rejected before parsing.
const maxUploadBytes = 32 << 20

type DocumentHandler struct {
	service *document.Service
	logger  *slog.Logger
}

func (h *DocumentHandler) Register(r *mux.Router) {
	r.HandleFunc("/documents/parse", h.Parse).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id}/questions", h.Questions).Methods(http.MethodGet)
}

func (h *DocumentHandler) Parse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading upload failed")
		return
	}

	result, err := h.service.Ingest(r.Context(), fileBytes, header.Filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "document ingestion failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "document could not be parsed")
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

func (h *DocumentHandler) Questions(w http.ResponseWriter, r *http.Request) {
	documentId := mux.Vars(r)["id"]

	questions, err := h.service.Questions(r.Context(), documentId)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "listing questions failed", "document", documentId, "error", err)
		writeError(w, http.StatusInternalServerError, "listing questions failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
}

func NewDocument(service *document.Service, logger *slog.Logger) *DocumentHandler {
	if service == nil {
		panic("document service is required")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}
