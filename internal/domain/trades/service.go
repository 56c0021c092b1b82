package trades

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a trade ID does not exist.
var ErrNotFound = errors.New("trade not found")

// Repository is the storage contract the service depends on. The concrete
// implementation lives in the repository subpackage; redeclared here to keep
// the dependency pointing inward.
type Repository interface {
	Create(ctx context.Context, t *Trade) error
	GetByID(ctx context.Context, id uuid.UUID) (*Trade, error)
	List(ctx context.Context, filter Filter) ([]Trade, error)
	ListBySymbols(ctx context.Context, symbols []string) ([]Trade, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Symbol string
	Side   Side
	Source string
	From   time.Time
	To     time.Time
	Limit  int
}

// Indexer receives trade changes to keep the search index current. Indexing
// failures are logged, never surfaced to API callers.
type Indexer interface {
	IndexTrades(batch []Trade) error
	Delete(id uuid.UUID) error
}

// CreateTradeInput is a manually entered trade.
type CreateTradeInput struct {
	Symbol     string          `json:"symbol"`
	AssetType  AssetType       `json:"asset_type"`
	Side       Side            `json:"side"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Fee        decimal.Decimal `json:"fee"`
	Currency   string          `json:"currency"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// Service provides trade CRUD on top of the repository, keeping the search
// index in sync.
type Service struct {
	repo    Repository
	indexer Indexer
	logger  *slog.Logger
}

func NewService(repo Repository, indexer Indexer, logger *slog.Logger) *Service {
	return &Service{repo: repo, indexer: indexer, logger: logger}
}

// Create stores a manually entered trade.
func (s *Service) Create(ctx context.Context, input CreateTradeInput) (*Trade, error) {
	t := &Trade{
		ID:         uuid.New(),
		Symbol:     input.Symbol,
		AssetType:  input.AssetType,
		Side:       input.Side,
		Quantity:   input.Quantity,
		Price:      input.Price,
		Fee:        input.Fee,
		Currency:   input.Currency,
		ExecutedAt: input.ExecutedAt,
		Source:     SourceManual,
	}
	if t.AssetType == "" {
		t.AssetType = AssetStock
	}
	if t.ExecutedAt.IsZero() {
		t.ExecutedAt = time.Now().UTC()
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create trade: %w", err)
	}
	s.reindex([]Trade{*t})
	return t, nil
}

// Get retrieves one trade.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Trade, error) {
	t, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// List returns trades matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) ([]Trade, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a trade and its search document.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if s.indexer != nil {
		if idxErr := s.indexer.Delete(id); idxErr != nil {
			s.logger.Warn("failed to remove trade from search index",
				slog.String("trade_id", id.String()), slog.Any("error", idxErr))
		}
	}
	return nil
}

// ReindexAll rebuilds the search index from storage. Called on startup.
func (s *Service) ReindexAll(ctx context.Context) error {
	if s.indexer == nil {
		return nil
	}
	all, err := s.repo.List(ctx, Filter{})
	if err != nil {
		return fmt.Errorf("failed to load trades for indexing: %w", err)
	}
	if err := s.indexer.IndexTrades(all); err != nil {
		return fmt.Errorf("failed to rebuild search index: %w", err)
	}
	s.logger.Info("search index rebuilt", slog.Int("trades", len(all)))
	return nil
}

func (s *Service) reindex(batch []Trade) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexTrades(batch); err != nil {
		s.logger.Warn("failed to update search index", slog.Any("error", err))
	}
}
