// Package handler exposes the import pipeline over HTTP. Uploads arrive as
// multipart form files (field "file") with an optional "source" field naming
// the broker format.
package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	importsvc "github.com/FACorreiaa/folio-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/folio-tracker/pkg/server"
)

// maxUploadBytes caps broker exports; activity statements are rarely over a
// few megabytes.
const maxUploadBytes = 16 << 20

type ImportHandler struct {
	service *importsvc.ImportService
	logger  *slog.Logger
}

func NewImportHandler(service *importsvc.ImportService, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{service: service, logger: logger}
}

// Routes mounts the import endpoints.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/import", h.handleImport)
	r.Post("/import/analyze", h.handleAnalyze)
}

func (h *ImportHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	text, source, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.service.Import(r.Context(), text, source)
	if err != nil {
		h.logger.Error("import failed", slog.String("source", source), slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to import trades")
		return
	}
	if len(result.Errors) > 0 {
		server.RespondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	server.RespondJSON(w, http.StatusOK, result)
}

func (h *ImportHandler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	text, source, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result := h.service.Analyze(r.Context(), text, source)
	if len(result.Errors) > 0 {
		server.RespondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	server.RespondJSON(w, http.StatusOK, result)
}

// readUpload extracts the CSV text and source tag from the multipart form.
// On failure it writes the error response and returns ok=false.
func (h *ImportHandler) readUpload(w http.ResponseWriter, r *http.Request) (text, source string, ok bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		server.RespondError(w, http.StatusBadRequest, "failed to parse form or file too large")
		return "", "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "missing 'file' field")
		return "", "", false
	}
	defer file.Close()

	if header.Size > maxUploadBytes {
		server.RespondError(w, http.StatusBadRequest, "file too large")
		return "", "", false
	}

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.logger.Warn("failed to read upload", slog.String("filename", header.Filename), slog.Any("error", err))
		server.RespondError(w, http.StatusBadRequest, "failed to read file")
		return "", "", false
	}

	return string(raw), r.FormValue("source"), true
}
