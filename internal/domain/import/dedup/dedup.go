// Package dedup detects near-duplicate trades between a freshly parsed
// batch and already-persisted records. Re-exported CSVs carry slightly
// different rounding or timestamp granularity for the same execution, so
// equality is fuzzy within configurable tolerances.
package dedup

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// Tolerances bounds how far two records may drift and still be considered
// the same economic event. Symbol and side always match exactly.
type Tolerances struct {
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Time     time.Duration
}

// DefaultTolerances covers typical broker re-export drift. Callers importing
// high-frequency fractional trades should tighten these.
func DefaultTolerances() Tolerances {
	return Tolerances{
		Quantity: decimal.RequireFromString("0.0001"),
		Price:    decimal.RequireFromString("0.01"),
		Time:     time.Minute,
	}
}

// Partition splits newTrades into those with no fuzzy match in existing
// (unique) and those that match (duplicates). The rule is symmetric and
// ignores fee and source.
func Partition(newTrades, existing []trades.Trade, tol Tolerances) (unique, duplicates []trades.Trade) {
	// Bucket by symbol+side so each candidate only scans plausible matches.
	type key struct {
		symbol string
		side   trades.Side
	}
	buckets := make(map[key][]trades.Trade, len(existing))
	for _, t := range existing {
		k := key{symbol: t.Symbol, side: t.Side}
		buckets[k] = append(buckets[k], t)
	}

	for _, candidate := range newTrades {
		k := key{symbol: candidate.Symbol, side: candidate.Side}
		matched := false
		for _, prior := range buckets[k] {
			if Matches(candidate, prior, tol) {
				matched = true
				break
			}
		}
		if matched {
			duplicates = append(duplicates, candidate)
		} else {
			unique = append(unique, candidate)
		}
	}
	return unique, duplicates
}

// Matches reports whether two trades are the same economic event under the
// tolerance rule.
func Matches(a, b trades.Trade, tol Tolerances) bool {
	if a.Symbol != b.Symbol || a.Side != b.Side {
		return false
	}
	if a.Quantity.Sub(b.Quantity).Abs().GreaterThanOrEqual(tol.Quantity) {
		return false
	}
	if a.Price.Sub(b.Price).Abs().GreaterThanOrEqual(tol.Price) {
		return false
	}
	delta := a.ExecutedAt.Sub(b.ExecutedAt)
	if delta < 0 {
		delta = -delta
	}
	return delta < tol.Time
}
