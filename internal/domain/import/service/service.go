// Package service orchestrates trade imports: prepare and parse the upload,
// filter duplicates against stored trades, and persist what remains.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/folio-tracker/internal/domain/import/dedup"
	"github.com/FACorreiaa/folio-tracker/internal/domain/import/parser"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades/repository"
)

// ImportResult is what the HTTP layer returns to the client.
type ImportResult struct {
	TradesAdded   int                `json:"trades_added"`
	TradesSkipped int                `json:"trades_skipped"`
	Errors        []string           `json:"errors,omitempty"`
	Diagnostics   parser.Diagnostics `json:"diagnostics"`
}

// AnalyzeResult is the dry-run view of a file: what would be imported,
// without touching storage.
type AnalyzeResult struct {
	Headers     []string           `json:"headers"`
	Trades      []trades.Trade     `json:"trades"`
	Errors      []string           `json:"errors,omitempty"`
	Diagnostics parser.Diagnostics `json:"diagnostics"`
}

// ImportService wires the pure parsing pipeline to the trade store.
type ImportService struct {
	repo       repository.TradeRepository
	tolerances dedup.Tolerances
	logger     *slog.Logger
}

// NewImportService creates an import service with default duplicate
// tolerances.
func NewImportService(repo repository.TradeRepository, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:       repo,
		tolerances: dedup.DefaultTolerances(),
		logger:     logger,
	}
}

// WithTolerances overrides the duplicate-detection tolerances.
func (s *ImportService) WithTolerances(tol dedup.Tolerances) *ImportService {
	s.tolerances = tol
	return s
}

// Analyze parses the upload and reports what an import would do. Nothing is
// persisted and duplicates are not filtered.
func (s *ImportService) Analyze(_ context.Context, csvText, source string) *AnalyzeResult {
	result := parseBySource(csvText, source)

	headers := []string{}
	if len(result.Errors) == 0 && len(result.Trades) > 0 {
		// Re-derive the header row for the preview. Cheap relative to parsing.
		for _, line := range strings.SplitN(csvText, "\n", 2) {
			headers = parser.ParseCSVLine(strings.TrimRight(line, "\r"))
			break
		}
	}

	return &AnalyzeResult{
		Headers:     headers,
		Trades:      result.Trades,
		Errors:      result.Errors,
		Diagnostics: result.Diagnostics,
	}
}

// Import runs the full pipeline. Fatal parse errors abort with zero trades;
// row-level problems are tallied in diagnostics and the rest of the batch
// goes through.
func (s *ImportService) Import(ctx context.Context, csvText, source string) (*ImportResult, error) {
	result := parseBySource(csvText, source)
	if len(result.Errors) > 0 {
		s.logger.Warn("import aborted", "source", source, "errors", result.Errors)
		return &ImportResult{Errors: result.Errors, Diagnostics: result.Diagnostics}, nil
	}

	existing, err := s.repo.ListBySymbols(ctx, result.Diagnostics.UniqueSymbols)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing trades: %w", err)
	}

	unique, duplicates := dedup.Partition(result.Trades, existing, s.tolerances)

	added := 0
	if len(unique) > 0 {
		added, err = s.repo.BulkInsert(ctx, unique)
		if err != nil {
			return nil, fmt.Errorf("failed to store trades: %w", err)
		}
	}

	s.logger.Info("import finished",
		"source", source,
		"rows", result.Diagnostics.TotalRows,
		"added", added,
		"duplicates", len(duplicates),
		"skipped", result.Diagnostics.RowsSkipped,
	)

	return &ImportResult{
		TradesAdded:   added,
		TradesSkipped: len(duplicates),
		Diagnostics:   result.Diagnostics,
	}, nil
}

// parseBySource routes to the IBKR-aware pipeline when the caller tags the
// upload as an IBKR statement.
func parseBySource(csvText, source string) *parser.Result {
	if strings.EqualFold(source, trades.SourceIBKR) {
		return parser.ParseIBKR(csvText)
	}
	if source == "" {
		source = trades.SourceCSV
	}
	return parser.Parse(csvText, source)
}
