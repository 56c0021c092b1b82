// Package sniffer prepares raw broker exports for parsing. It splits text
// into rows tolerant of CRLF endings and UTF-8 BOMs, and extracts the trade
// section out of IBKR's multi-section activity statements.
package sniffer

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmptyFile  = errors.New("file is empty")
	ErrNoDataRows = errors.New("file has no data rows")
)

// Document is the row-oriented view of an export: one header line plus the
// data lines that follow it.
type Document struct {
	Header string
	Rows   []string
}

// SplitLines breaks raw CSV text into lines, dropping trailing carriage
// returns and the UTF-8 BOM on the first line. Blank lines are kept so
// section-aware callers can see boundaries; Prepare filters them.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if i == 0 {
			line = strings.TrimPrefix(line, "\uFEFF")
		}
		lines[i] = line
	}
	// Drop a single trailing empty line produced by a final newline.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

// Prepare turns raw export text into a Document: the first non-blank line is
// the header, every following non-blank line is a data row.
func Prepare(text string) (*Document, error) {
	if !utf8.ValidString(text) {
		text = decodeLatin1(text)
	}
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	doc := &Document{}
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if doc.Header == "" {
			doc.Header = line
			continue
		}
		doc.Rows = append(doc.Rows, line)
	}

	if doc.Header == "" {
		return nil, ErrEmptyFile
	}
	if len(doc.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return doc, nil
}

// IBKR activity statements interleave many sections (Statement, Account
// Information, Trades, Dividends, ...) in one CSV. Each row starts with its
// section name; the trade section uses these markers.
const (
	ibkrHeaderMarker = "Trades,Header"
	ibkrDataPrefix   = "Trades,Data,"
	ibkrTotalMarker  = "Trades,Total"
	ibkrSubTotal     = "Trades,SubTotal"
)

// PrepareIBKR locates the Trades section of an IBKR activity statement. The
// remainder of the "Trades,Header" line becomes the header row and each
// "Trades,Data," line contributes a data row with the prefix stripped.
// Collection stops at the first blank line, a line starting with a bare
// comma, or a Total/SubTotal marker. When no Trades section exists the whole
// file is handed to Prepare as a generic CSV.
func PrepareIBKR(text string) (*Document, error) {
	if !utf8.ValidString(text) {
		text = decodeLatin1(text)
	}
	lines := SplitLines(text)
	if len(lines) == 0 {
		return nil, ErrEmptyFile
	}

	start := -1
	var header string
	for i, line := range lines {
		if strings.HasPrefix(line, ibkrHeaderMarker) {
			header = strings.TrimPrefix(line, ibkrHeaderMarker)
			header = strings.TrimPrefix(header, ",")
			start = i + 1
			break
		}
	}
	if start < 0 {
		return Prepare(text)
	}

	doc := &Document{Header: header}
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		if strings.HasPrefix(line, ",") {
			break
		}
		if strings.HasPrefix(line, ibkrTotalMarker) || strings.HasPrefix(line, ibkrSubTotal) {
			break
		}
		if !strings.HasPrefix(line, ibkrDataPrefix) {
			// Rows from other interleaved sections are not trade rows.
			continue
		}
		doc.Rows = append(doc.Rows, strings.TrimPrefix(line, ibkrDataPrefix))
	}

	if doc.Header == "" {
		return nil, ErrEmptyFile
	}
	if len(doc.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return doc, nil
}

func decodeLatin1(s string) string {
	runes := make([]rune, len(s))
	for i := 0; i < len(s); i++ {
		runes[i] = rune(s[i])
	}
	return string(runes)
}
