// Package trades defines the canonical trade record produced by the import
// pipeline and consumed by the persistence, holdings, and export layers.
package trades

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the direction of a trade execution.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// AssetType classifies the traded instrument.
type AssetType string

const (
	AssetStock  AssetType = "stock"
	AssetCrypto AssetType = "crypto"
)

// Known provenance tags. Source is free-form for exchange names, these are
// the ones the importer emits itself.
const (
	SourceCSV        = "csv"
	SourceTrading212 = "trading212"
	SourceIBKR       = "ibkr"
	SourceManual     = "manual"
)

// Trade is a single buy or sell execution. Quantity and Price carry the full
// precision of the source file; nothing is rounded before persistence.
type Trade struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Symbol     string          `json:"symbol" db:"symbol"`
	AssetType  AssetType       `json:"asset_type" db:"asset_type"`
	Side       Side            `json:"side" db:"side"`
	Quantity   decimal.Decimal `json:"quantity" db:"quantity"`
	Price      decimal.Decimal `json:"price" db:"price"`
	Fee        decimal.Decimal `json:"fee" db:"fee"`
	Currency   string          `json:"currency,omitempty" db:"currency"`
	ExecutedAt time.Time       `json:"executed_at" db:"executed_at"`
	Source     string          `json:"source" db:"source"`
	CreatedAt  time.Time       `json:"created_at,omitempty" db:"created_at"`
}

// Validate enforces the invariants every emitted trade must satisfy.
// A trade failing validation is dropped by the importer, never coerced.
func (t *Trade) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("trade has empty symbol")
	}
	if t.Side != SideBuy && t.Side != SideSell {
		return fmt.Errorf("trade %s has invalid side %q", t.Symbol, t.Side)
	}
	if !t.Quantity.IsPositive() {
		return fmt.Errorf("trade %s has non-positive quantity %s", t.Symbol, t.Quantity)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("trade %s has non-positive price %s", t.Symbol, t.Price)
	}
	if t.Fee.IsNegative() {
		return fmt.Errorf("trade %s has negative fee %s", t.Symbol, t.Fee)
	}
	return nil
}

// Notional returns quantity * price, the invested amount excluding fees.
func (t *Trade) Notional() decimal.Decimal {
	return t.Quantity.Mul(t.Price)
}
