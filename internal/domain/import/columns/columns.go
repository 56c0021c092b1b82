// Package columns detects which CSV column carries which trade field.
// Broker exports disagree wildly on header wording, so detection works from
// per-field alias lists with exact matches preferred over substring matches.
package columns

import (
	"errors"
	"fmt"
	"strings"
)

// Field names the canonical trade fields a column can map to.
type Field string

const (
	FieldAction   Field = "action"
	FieldTicker   Field = "ticker"
	FieldName     Field = "name"
	FieldISIN     Field = "isin"
	FieldQuantity Field = "quantity"
	FieldPrice    Field = "price"
	FieldTotal    Field = "total"
	FieldDate     Field = "date"
	FieldCurrency Field = "currency"
	FieldFee      Field = "fee"
)

// detectionOrder fixes field priority: earlier fields claim header indexes
// first, so a "Ticker" column can never be stolen by the name aliases.
var detectionOrder = []Field{
	FieldAction,
	FieldTicker,
	FieldName,
	FieldISIN,
	FieldQuantity,
	FieldPrice,
	FieldTotal,
	FieldDate,
	FieldCurrency,
	FieldFee,
}

// fieldAliases maps each canonical field to the header spellings seen across
// Trading212, IBKR, DEGIRO and generic exports. Order matters within a list:
// the first alias to match wins.
var fieldAliases = map[Field][]string{
	FieldAction:   {"action", "type", "side", "buy/sell", "buysell", "direction", "transaction type", "order type", "activity type"},
	FieldTicker:   {"ticker", "symbol", "ticker symbol", "symbol id", "security symbol"},
	FieldName:     {"name", "instrument", "instrument name", "product", "description", "security", "security name", "company"},
	FieldISIN:     {"isin"},
	FieldQuantity: {"no. of shares", "quantity", "shares", "qty", "amount of shares", "units", "number of shares", "volume"},
	FieldPrice:    {"price / share", "price per share", "share price", "price", "trade price", "t. price", "execution price", "fill price"},
	FieldTotal:    {"total", "total amount", "value", "proceeds", "total value", "consideration", "net amount", "gross amount", "trade money", "amount"},
	FieldDate:     {"time", "date", "datetime", "date/time", "trade date", "execution time", "settlement date", "time of execution", "timestamp"},
	FieldCurrency: {"currency (price / share)", "currency", "ccy", "currency code"},
	FieldFee:      {"fee", "fees", "commission", "charge", "comm/fee", "commission and fees", "broker fee"},
}

// Map records where each canonical field lives in the header row.
// An index of -1 means the field was not found.
type Map struct {
	indexes map[Field]int
	headers []string
}

// ErrNoSymbolColumn is returned when no ticker, instrument-name, or ISIN
// column can be identified; without one of those the file is unusable.
var ErrNoSymbolColumn = errors.New("could not detect symbol column")

// Detect builds a Map from the raw header row. Detection runs in fixed field
// priority order; for each field an exact alias match anywhere in the row
// wins over the first substring match, and a header index claimed by an
// earlier field is never reassigned.
func Detect(headers []string) (*Map, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = normalizeHeader(h)
	}

	m := &Map{indexes: make(map[Field]int, len(detectionOrder)), headers: headers}
	claimed := make(map[int]bool, len(headers))
	for _, field := range detectionOrder {
		m.indexes[field] = -1
	}

	for _, field := range detectionOrder {
		idx := findColumn(normalized, fieldAliases[field], claimed)
		if idx >= 0 {
			m.indexes[field] = idx
			claimed[idx] = true
		}
	}

	if m.Index(FieldTicker) < 0 && m.Index(FieldName) < 0 && m.Index(FieldISIN) < 0 {
		return nil, fmt.Errorf("%w (headers: %s)", ErrNoSymbolColumn, strings.Join(headers, ", "))
	}
	return m, nil
}

// Index returns the zero-based column index for a field, or -1.
func (m *Map) Index(f Field) int {
	idx, ok := m.indexes[f]
	if !ok {
		return -1
	}
	return idx
}

// Has reports whether the field was found in the header row.
func (m *Map) Has(f Field) bool { return m.Index(f) >= 0 }

// Headers returns the raw header row the map was built from.
func (m *Map) Headers() []string { return m.headers }

// Value extracts the field's cell from a tokenized record, trimmed.
// Returns "" when the field is unmapped or the record is short.
func (m *Map) Value(record []string, f Field) string {
	idx := m.Index(f)
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// findColumn scans headers for the aliases. A full exact-match pass runs
// before any substring matching so "Ticker" beats a header that merely
// contains "ticker symbol".
func findColumn(normalized []string, aliases []string, claimed map[int]bool) int {
	for _, alias := range aliases {
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if h == alias {
				return i
			}
		}
	}
	for _, alias := range aliases {
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			if strings.Contains(h, alias) || strings.Contains(alias, h) {
				return i
			}
		}
	}
	return -1
}

// normalizeHeader lowercases, trims, and collapses internal whitespace.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Join(strings.Fields(h), " ")
}
