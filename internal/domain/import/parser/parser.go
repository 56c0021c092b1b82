// Package parser converts prepared broker-export rows into validated Trade
// records. It is a pure function of its input text and the static alias
// tables: no I/O, no shared state between calls.
package parser

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/folio-tracker/internal/domain/import/columns"
	"github.com/FACorreiaa/folio-tracker/internal/domain/import/sniffer"
	"github.com/FACorreiaa/folio-tracker/internal/domain/import/symbols"
	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// Skip reason labels tallied in Diagnostics.SkipReasons.
const (
	ReasonUnknownAction = "Unknown action"
	ReasonMissingSymbol = "Missing symbol"
	ReasonBadQuantity   = "Invalid quantity"
	ReasonBadPrice      = "Invalid price"
	ReasonNoSide        = "Could not determine buy/sell"
	ReasonParseError    = "Parse error"
)

// Diagnostics summarizes one import run. Rebuilt fresh per call.
type Diagnostics struct {
	TotalRows      int             `json:"total_rows"`
	TradesImported int             `json:"trades_imported"`
	RowsSkipped    int             `json:"rows_skipped"`
	SkipReasons    map[string]int  `json:"skip_reasons"`
	Warnings       []string        `json:"warnings"`
	TotalInvested  decimal.Decimal `json:"total_invested"`
	UniqueSymbols  []string        `json:"unique_symbols"`
}

// Result is the full outcome of parsing one file. Errors carries fatal
// conditions only; when it is non-empty Trades is empty.
type Result struct {
	Trades      []trades.Trade `json:"trades"`
	Errors      []string       `json:"errors"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// Parse runs the generic pipeline over raw CSV text. The source tag is
// stamped onto every emitted trade.
func Parse(text, source string) *Result {
	doc, err := sniffer.Prepare(text)
	if err != nil {
		return fatalResult(err)
	}
	return parseDocument(doc, source)
}

// ParseIBKR understands IBKR's sectioned activity statements, falling back
// to the generic pipeline when no Trades section is present.
func ParseIBKR(text string) *Result {
	doc, err := sniffer.PrepareIBKR(text)
	if err != nil {
		return fatalResult(err)
	}
	return parseDocument(doc, trades.SourceIBKR)
}

func fatalResult(err error) *Result {
	return &Result{
		Errors:      []string{err.Error()},
		Diagnostics: newDiagnostics(),
	}
}

func newDiagnostics() Diagnostics {
	return Diagnostics{
		SkipReasons:   map[string]int{},
		TotalInvested: decimal.Zero,
	}
}

func parseDocument(doc *sniffer.Document, source string) *Result {
	result := &Result{Diagnostics: newDiagnostics()}

	colMap, err := columns.Detect(ParseCSVLine(doc.Header))
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	if !colMap.Has(columns.FieldQuantity) {
		result.Diagnostics.Warnings = append(result.Diagnostics.Warnings,
			"no quantity column detected; side will be inferred from other data where possible")
	}

	seen := map[string]bool{}
	for _, line := range doc.Rows {
		result.Diagnostics.TotalRows++

		trade, skip := parseRow(line, colMap, source, &result.Diagnostics)
		if skip != "" {
			result.Diagnostics.RowsSkipped++
			result.Diagnostics.SkipReasons[skip]++
			continue
		}

		result.Trades = append(result.Trades, *trade)
		result.Diagnostics.TradesImported++
		result.Diagnostics.TotalInvested = result.Diagnostics.TotalInvested.Add(trade.Notional())
		seen[trade.Symbol] = true
	}

	result.Diagnostics.UniqueSymbols = make([]string, 0, len(seen))
	for s := range seen {
		result.Diagnostics.UniqueSymbols = append(result.Diagnostics.UniqueSymbols, s)
	}
	sort.Strings(result.Diagnostics.UniqueSymbols)

	return result
}

// parseRow converts one data line into a Trade or a skip reason. Any panic
// while processing a malformed row downgrades to a "Parse error" skip so one
// bad row never aborts the batch.
func parseRow(line string, colMap *columns.Map, source string, diag *Diagnostics) (trade *trades.Trade, skip string) {
	defer func() {
		if r := recover(); r != nil {
			trade, skip = nil, ReasonParseError
		}
	}()

	record := ParseCSVLine(line)

	side, skip := resolveSide(record, colMap)
	if skip != "" {
		return nil, skip
	}

	symbol, confident := resolveSymbol(record, colMap)
	if symbol == "" {
		return nil, ReasonMissingSymbol
	}
	if !confident {
		diag.Warnings = append(diag.Warnings,
			fmt.Sprintf("symbol %q not found in lookup table; imported as-is", symbol))
	}

	quantity, err := ParseNumber(colMap.Value(record, columns.FieldQuantity))
	if err != nil {
		return nil, ReasonBadQuantity
	}
	quantity = quantity.Abs()
	if quantity.IsZero() {
		return nil, ReasonBadQuantity
	}

	price, skip := resolvePrice(record, colMap, quantity)
	if skip != "" {
		return nil, skip
	}

	executedAt, parsed := ParseDate(colMap.Value(record, columns.FieldDate))
	if !parsed && colMap.Has(columns.FieldDate) {
		diag.Warnings = append(diag.Warnings,
			fmt.Sprintf("unparsable date for %s; defaulted to import time", symbol))
	}

	fee := decimal.Zero
	if raw := colMap.Value(record, columns.FieldFee); raw != "" {
		if parsedFee, feeErr := ParseNumber(raw); feeErr == nil {
			fee = parsedFee.Abs()
		}
	}

	t := trades.Trade{
		ID:         uuid.New(),
		Symbol:     symbol,
		AssetType:  symbols.Classify(symbol),
		Side:       side,
		Quantity:   quantity,
		Price:      price,
		Fee:        fee,
		Currency:   strings.ToUpper(colMap.Value(record, columns.FieldCurrency)),
		ExecutedAt: executedAt,
		Source:     source,
	}
	if err := t.Validate(); err != nil {
		return nil, ReasonParseError
	}
	return &t, ""
}

// resolveSide classifies the action column, or, when the file has no action
// column, infers the side from the quantity sign.
func resolveSide(record []string, colMap *columns.Map) (trades.Side, string) {
	if colMap.Has(columns.FieldAction) {
		raw := colMap.Value(record, columns.FieldAction)
		outcome, side := classifyAction(raw)
		switch outcome {
		case actionBuy, actionSell:
			return side, ""
		case actionIgnored:
			return "", fmt.Sprintf("Ignored: %s", strings.TrimSpace(raw))
		default:
			if strings.TrimSpace(raw) != "" {
				return "", fmt.Sprintf("%s: %s", ReasonUnknownAction, strings.TrimSpace(raw))
			}
			return "", ReasonNoSide
		}
	}

	raw := colMap.Value(record, columns.FieldQuantity)
	if raw == "" {
		return "", ReasonNoSide
	}
	qty, err := ParseNumber(raw)
	if err != nil {
		return "", ReasonNoSide
	}
	if qty.IsNegative() {
		return trades.SideSell, ""
	}
	return trades.SideBuy, ""
}

// resolveSymbol prefers the ticker column, then the instrument name, then
// the ISIN. Name-derived values go through the full normalizer.
func resolveSymbol(record []string, colMap *columns.Map) (string, bool) {
	if raw := colMap.Value(record, columns.FieldTicker); raw != "" {
		if cleaned := symbols.CleanTicker(raw); symbols.IsTickerShaped(cleaned) {
			res := symbols.Normalize(cleaned)
			return res.Symbol, true
		}
		res := symbols.Normalize(raw)
		return res.Symbol, res.Confident
	}
	if raw := colMap.Value(record, columns.FieldName); raw != "" {
		res := symbols.Normalize(raw)
		return res.Symbol, res.Confident
	}
	if raw := colMap.Value(record, columns.FieldISIN); raw != "" {
		return strings.ToUpper(strings.TrimSpace(raw)), true
	}
	return "", false
}

// resolvePrice parses the direct price column, deriving |total|/quantity
// when the price is absent or non-positive.
func resolvePrice(record []string, colMap *columns.Map, quantity decimal.Decimal) (decimal.Decimal, string) {
	if raw := colMap.Value(record, columns.FieldPrice); raw != "" {
		if price, err := ParseNumber(raw); err == nil && price.IsPositive() {
			return price, ""
		}
	}

	raw := colMap.Value(record, columns.FieldTotal)
	if raw == "" {
		return decimal.Zero, ReasonBadPrice
	}
	total, err := ParseNumber(raw)
	if err != nil {
		return decimal.Zero, ReasonBadPrice
	}
	price := total.Abs().Div(quantity)
	if !price.IsPositive() {
		return decimal.Zero, ReasonBadPrice
	}
	return price, ""
}

// ParseCSVLine tokenizes one CSV line with quote awareness: fields may be
// wrapped in double quotes, a doubled quote inside a quoted field is an
// escaped quote, and commas inside quotes do not separate fields.
func ParseCSVLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case c == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(c)
		}
	}
	fields = append(fields, field.String())
	return fields
}
