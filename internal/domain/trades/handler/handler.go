// Package handler exposes trade CRUD, search, and export endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades/export"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades/search"
	"github.com/FACorreiaa/folio-tracker/pkg/server"
)

type TradeHandler struct {
	service *trades.Service
	index   *search.Index
	logger  *slog.Logger
}

func NewTradeHandler(service *trades.Service, index *search.Index, logger *slog.Logger) *TradeHandler {
	return &TradeHandler{service: service, index: index, logger: logger}
}

// Routes mounts the trade endpoints.
func (h *TradeHandler) Routes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Get("/search", h.handleSearch)
		r.Get("/export", h.handleExport)
		r.Get("/{id}", h.handleGet)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *TradeHandler) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list trades", slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to list trades")
		return
	}
	if result == nil {
		result = []trades.Trade{}
	}
	server.RespondJSON(w, http.StatusOK, result)
}

func (h *TradeHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input trades.CreateTradeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	trade, err := h.service.Create(r.Context(), input)
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	server.RespondJSON(w, http.StatusCreated, trade)
}

func (h *TradeHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid trade id")
		return
	}

	trade, err := h.service.Get(r.Context(), id)
	if errors.Is(err, trades.ErrNotFound) {
		server.RespondError(w, http.StatusNotFound, "trade not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to get trade", slog.String("trade_id", id.String()), slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to get trade")
		return
	}
	server.RespondJSON(w, http.StatusOK, trade)
}

func (h *TradeHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, "invalid trade id")
		return
	}

	err = h.service.Delete(r.Context(), id)
	if errors.Is(err, trades.ErrNotFound) {
		server.RespondError(w, http.StatusNotFound, "trade not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete trade", slog.String("trade_id", id.String()), slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to delete trade")
		return
	}
	server.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *TradeHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		server.RespondError(w, http.StatusBadRequest, "missing 'q' parameter")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	hits, err := h.index.Search(query, limit)
	if err != nil {
		h.logger.Error("trade search failed", slog.String("query", query), slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	result := make([]trades.Trade, 0, len(hits))
	for _, hit := range hits {
		trade, getErr := h.service.Get(r.Context(), hit.TradeID)
		if getErr != nil {
			continue
		}
		result = append(result, *trade)
	}
	server.RespondJSON(w, http.StatusOK, result)
}

func (h *TradeHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		server.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to load trades for export", slog.Any("error", err))
		server.RespondError(w, http.StatusInternalServerError, "failed to export trades")
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trades.csv"`)
		err = export.WriteCSV(w, batch)
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="trades.xlsx"`)
		err = export.WriteXLSX(w, batch)
	default:
		server.RespondError(w, http.StatusBadRequest, "unsupported format; use csv or xlsx")
		return
	}
	if err != nil {
		h.logger.Error("export write failed", slog.String("format", format), slog.Any("error", err))
	}
}

func filterFromQuery(r *http.Request) (trades.Filter, error) {
	q := r.URL.Query()
	filter := trades.Filter{
		Symbol: q.Get("symbol"),
		Side:   trades.Side(q.Get("side")),
		Source: q.Get("source"),
	}
	if filter.Side != "" && filter.Side != trades.SideBuy && filter.Side != trades.SideSell {
		return trades.Filter{}, errors.New("side must be 'buy' or 'sell'")
	}
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return trades.Filter{}, errors.New("'from' must be RFC3339")
		}
		filter.From = t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return trades.Filter{}, errors.New("'to' must be RFC3339")
		}
		filter.To = t
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return trades.Filter{}, errors.New("'limit' must be a non-negative integer")
		}
		filter.Limit = n
	}
	return filter, nil
}
