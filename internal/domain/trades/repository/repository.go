// Package repository persists trades and serves the queries the import,
// holdings, and export layers need.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// ListFilter narrows List results. Zero values mean "no constraint".
type ListFilter = trades.Filter

// TradeRepository is the storage contract for trade records.
type TradeRepository interface {
	Create(ctx context.Context, t *trades.Trade) error
	BulkInsert(ctx context.Context, batch []trades.Trade) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*trades.Trade, error)
	List(ctx context.Context, filter ListFilter) ([]trades.Trade, error)
	ListBySymbols(ctx context.Context, symbols []string) ([]trades.Trade, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
