// Package e2etest exercises the import flow end to end: multipart upload
// through the HTTP handler, parsing, duplicate filtering, and storage.
package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/folio-tracker/internal/domain/holdings"
	holdingshandler "github.com/FACorreiaa/folio-tracker/internal/domain/holdings/handler"
	importhandler "github.com/FACorreiaa/folio-tracker/internal/domain/import/handler"
	importservice "github.com/FACorreiaa/folio-tracker/internal/domain/import/service"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// memoryRepo backs the e2e server with in-memory storage.
type memoryRepo struct {
	stored []trades.Trade
}

func (m *memoryRepo) Create(_ context.Context, t *trades.Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.stored = append(m.stored, *t)
	return nil
}

func (m *memoryRepo) BulkInsert(ctx context.Context, batch []trades.Trade) (int, error) {
	for i := range batch {
		if err := m.Create(ctx, &batch[i]); err != nil {
			return i, err
		}
	}
	return len(batch), nil
}

func (m *memoryRepo) GetByID(_ context.Context, id uuid.UUID) (*trades.Trade, error) {
	for _, t := range m.stored {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *memoryRepo) List(_ context.Context, _ trades.Filter) ([]trades.Trade, error) {
	return m.stored, nil
}

func (m *memoryRepo) ListBySymbols(_ context.Context, symbols []string) ([]trades.Trade, error) {
	want := map[string]bool{}
	for _, s := range symbols {
		want[s] = true
	}
	var result []trades.Trade
	for _, t := range m.stored {
		if want[t.Symbol] {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *memoryRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *memoryRepo) {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	repo := &memoryRepo{}

	importSvc := importservice.NewImportService(repo, logger)
	holdingsSvc := holdings.NewService(repo, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		importhandler.NewImportHandler(importSvc, logger).Routes(r)
		holdingshandler.NewHoldingsHandler(holdingsSvc, logger).Routes(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo
}

func uploadCSV(t *testing.T, url, csv, source string) *http.Response {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "trades.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	if source != "" {
		require.NoError(t, w.WriteField("source", source))
	}
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, url, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

const trading212CSV = `Action,Time,ISIN,Ticker,Name,No. of shares,Price / share,Currency (Price / share),Total
Market buy,2024-01-15 10:30:00,US0378331005,AAPL,Apple Inc.,10,185.50,USD,1855.00
Market buy,2024-01-16 11:00:00,US5949181045,MSFT,Microsoft Corporation,5,390.00,USD,1950.00
Market sell,2024-02-01 09:15:00,US0378331005,AAPL,Apple Inc.,4,200.00,USD,800.00
Dividend (Ordinary),2024-02-02 09:00:00,US0378331005,AAPL,Apple Inc.,0.5,0.24,USD,0.12`

func TestImportFlow(t *testing.T) {
	srv, repo := newTestServer(t)

	t.Run("import a Trading212 export", func(t *testing.T) {
		resp := uploadCSV(t, srv.URL+"/api/v1/import", trading212CSV, trades.SourceTrading212)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := decodeJSON[importservice.ImportResult](t, resp.Body)
		assert.Equal(t, 3, result.TradesAdded)
		assert.Equal(t, 0, result.TradesSkipped)
		assert.Equal(t, 1, result.Diagnostics.SkipReasons["Ignored: Dividend (Ordinary)"])
		assert.Len(t, repo.stored, 3)
	})

	t.Run("re-importing the same file adds nothing", func(t *testing.T) {
		resp := uploadCSV(t, srv.URL+"/api/v1/import", trading212CSV, trades.SourceTrading212)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		result := decodeJSON[importservice.ImportResult](t, resp.Body)
		assert.Equal(t, 0, result.TradesAdded)
		assert.Equal(t, 3, result.TradesSkipped)
		assert.Len(t, repo.stored, 3)
	})

	t.Run("holdings reflect the imported ledger", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/v1/holdings")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		portfolio := decodeJSON[holdings.Portfolio](t, resp.Body)
		require.Len(t, portfolio.Positions, 2)
		assert.Equal(t, "AAPL", portfolio.Positions[0].Symbol)
		assert.Equal(t, "6", portfolio.Positions[0].Quantity.String())
		assert.Equal(t, "MSFT", portfolio.Positions[1].Symbol)
	})

	t.Run("unusable file returns 422", func(t *testing.T) {
		resp := uploadCSV(t, srv.URL+"/api/v1/import", "Date,Quantity,Price\n2024-01-15,10,100\n", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("missing file field returns 400", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/v1/import", "text/plain", bytes.NewBufferString("x"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAnalyzeFlow(t *testing.T) {
	srv, repo := newTestServer(t)

	resp := uploadCSV(t, srv.URL+"/api/v1/import/analyze", trading212CSV, trades.SourceTrading212)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeJSON[importservice.AnalyzeResult](t, resp.Body)
	assert.Len(t, result.Trades, 3)
	assert.Empty(t, repo.stored, "analyze must not persist")
}

func TestIBKRImportFlow(t *testing.T) {
	srv, repo := newTestServer(t)

	statement := "Statement,Header,Field Name,Field Value\n" +
		"Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,Comm/Fee\n" +
		`Trades,Data,Order,Stocks,USD,AAPL,"2024-01-15, 10:30:00",10,185.50,-1.00` + "\n" +
		"Trades,Total,,,,,,,,\n"

	resp := uploadCSV(t, srv.URL+"/api/v1/import", statement, trades.SourceIBKR)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := decodeJSON[importservice.ImportResult](t, resp.Body)
	assert.Equal(t, 1, result.TradesAdded)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, trades.SourceIBKR, repo.stored[0].Source)
	assert.Equal(t, "1", repo.stored[0].Fee.String())
}
