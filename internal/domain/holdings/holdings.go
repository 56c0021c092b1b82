// Package holdings aggregates the trade ledger into per-symbol positions
// using the average-cost method: sells relieve cost basis at the running
// average purchase price.
package holdings

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
	"github.com/FACorreiaa/folio-tracker/pkg/money"
)

// Position is the current state of one symbol.
type Position struct {
	Symbol      string           `json:"symbol"`
	AssetType   trades.AssetType `json:"asset_type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	AvgCost     decimal.Decimal  `json:"avg_cost"`
	CostBasis   decimal.Decimal  `json:"cost_basis"`
	RealizedPnL decimal.Decimal  `json:"realized_pnl"`
	Fees        decimal.Decimal  `json:"fees"`
	Currency    string           `json:"currency,omitempty"`
	TradeCount  int              `json:"trade_count"`
	LastTradeAt time.Time        `json:"last_trade_at"`

	// CostBasisDisplay is the cost basis rounded to the currency's minor
	// units for presentation; CostBasis stays exact.
	CostBasisDisplay string `json:"cost_basis_display,omitempty"`
}

// Portfolio is the full aggregated view.
type Portfolio struct {
	Positions     []Position      `json:"positions"`
	TotalInvested decimal.Decimal `json:"total_invested"`
	TotalRealized decimal.Decimal `json:"total_realized"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// Service computes portfolio state from the trade repository.
type Service struct {
	repo   trades.Repository
	logger *slog.Logger
}

func NewService(repo trades.Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Portfolio aggregates every stored trade into positions. Closed positions
// (zero quantity) are kept so realized P&L stays visible.
func (s *Service) Portfolio(ctx context.Context) (*Portfolio, error) {
	all, err := s.repo.List(ctx, trades.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load trades: %w", err)
	}
	return Aggregate(all), nil
}

// Aggregate folds trades into positions. Input order does not matter; trades
// are replayed in execution order per symbol.
func Aggregate(ledger []trades.Trade) *Portfolio {
	bySymbol := make(map[string][]trades.Trade)
	for _, t := range ledger {
		bySymbol[t.Symbol] = append(bySymbol[t.Symbol], t)
	}

	portfolio := &Portfolio{
		Positions:     make([]Position, 0, len(bySymbol)),
		TotalInvested: decimal.Zero,
		TotalRealized: decimal.Zero,
		TotalFees:     decimal.Zero,
		GeneratedAt:   time.Now().UTC(),
	}

	for symbol, symbolTrades := range bySymbol {
		pos := replay(symbol, symbolTrades)
		portfolio.TotalInvested = portfolio.TotalInvested.Add(pos.CostBasis)
		portfolio.TotalRealized = portfolio.TotalRealized.Add(pos.RealizedPnL)
		portfolio.TotalFees = portfolio.TotalFees.Add(pos.Fees)
		portfolio.Positions = append(portfolio.Positions, pos)
	}

	sort.Slice(portfolio.Positions, func(i, j int) bool {
		return portfolio.Positions[i].Symbol < portfolio.Positions[j].Symbol
	})
	return portfolio
}

// replay runs the average-cost method over one symbol's trades.
func replay(symbol string, symbolTrades []trades.Trade) Position {
	sort.Slice(symbolTrades, func(i, j int) bool {
		return symbolTrades[i].ExecutedAt.Before(symbolTrades[j].ExecutedAt)
	})

	pos := Position{
		Symbol:      symbol,
		Quantity:    decimal.Zero,
		AvgCost:     decimal.Zero,
		CostBasis:   decimal.Zero,
		RealizedPnL: decimal.Zero,
		Fees:        decimal.Zero,
	}

	for _, t := range symbolTrades {
		pos.AssetType = t.AssetType
		pos.TradeCount++
		pos.Fees = pos.Fees.Add(t.Fee)
		if t.ExecutedAt.After(pos.LastTradeAt) {
			pos.LastTradeAt = t.ExecutedAt
		}
		if t.Currency != "" {
			pos.Currency = t.Currency
		}

		switch t.Side {
		case trades.SideBuy:
			pos.CostBasis = pos.CostBasis.Add(t.Notional())
			pos.Quantity = pos.Quantity.Add(t.Quantity)
			if pos.Quantity.IsPositive() {
				pos.AvgCost = pos.CostBasis.Div(pos.Quantity)
			}
		case trades.SideSell:
			sold := t.Quantity
			if sold.GreaterThan(pos.Quantity) {
				// Oversell: broker exports sometimes omit the opening buy.
				// Relieve only what we hold and treat the rest as zero-cost.
				sold = pos.Quantity
			}
			relieved := pos.AvgCost.Mul(sold)
			proceeds := t.Notional()
			pos.RealizedPnL = pos.RealizedPnL.Add(proceeds.Sub(relieved))
			pos.CostBasis = pos.CostBasis.Sub(relieved)
			pos.Quantity = pos.Quantity.Sub(t.Quantity)
			if !pos.Quantity.IsPositive() {
				pos.Quantity = decimal.Zero
				pos.CostBasis = decimal.Zero
				pos.AvgCost = decimal.Zero
			}
		}
	}

	if pos.Currency != "" {
		pos.CostBasisDisplay = money.NewFromDecimal(pos.CostBasis, pos.Currency).Display()
	}
	return pos
}
