// Package handler exposes the aggregated portfolio view.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FACorreiaa/folio-tracker/internal/domain/holdings"
	"github.com/FACorreiaa/folio-tracker/pkg/server"
)

type HoldingsHandler struct {
	service *holdings.Service
	logger  *slog.Logger
}

func NewHoldingsHandler(service *holdings.Service, logger *slog.Logger) *HoldingsHandler {
	return &HoldingsHandler{service: service, logger: logger}
}

// Routes mounts the holdings endpoints.
func (h *HoldingsHandler) Routes(r chi.Router) {
	r.Get("/holdings", h.handlePortfolio)
}

func (h *HoldingsHandler) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.service.Portfolio(r.Context())
	if err != nil {
		h.logger.Error("failed to compute portfolio", slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to compute portfolio")
		return
	}
	server.RespondJSON(w, http.StatusOK, portfolio)
}
