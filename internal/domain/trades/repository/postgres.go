package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

// PgxPool is the subset of pgxpool.Pool the repository uses; pgxmock
// satisfies it in tests.
type PgxPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresTradeRepository implements TradeRepository on PostgreSQL.
type PostgresTradeRepository struct {
	pool PgxPool
}

// NewPostgresTradeRepository creates a PostgreSQL trade repository.
func NewPostgresTradeRepository(pool PgxPool) *PostgresTradeRepository {
	return &PostgresTradeRepository{pool: pool}
}

const tradeColumns = "id, symbol, asset_type, side, quantity, price, fee, currency, executed_at, source, created_at"

// Create inserts a single trade.
func (r *PostgresTradeRepository) Create(ctx context.Context, t *trades.Trade) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO trades (id, symbol, asset_type, side, quantity, price, fee, currency, executed_at, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.pool.QueryRow(ctx, query,
		t.ID,
		t.Symbol,
		t.AssetType,
		t.Side,
		t.Quantity,
		t.Price,
		t.Fee,
		t.Currency,
		t.ExecutedAt,
		t.Source,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

// BulkInsert inserts a parsed batch and returns the number stored.
func (r *PostgresTradeRepository) BulkInsert(ctx context.Context, batch []trades.Trade) (int, error) {
	inserted := 0
	for i := range batch {
		if err := r.Create(ctx, &batch[i]); err != nil {
			return inserted, fmt.Errorf("bulk insert stopped at row %d: %w", i, err)
		}
		inserted++
	}
	return inserted, nil
}

// GetByID retrieves one trade.
func (r *PostgresTradeRepository) GetByID(ctx context.Context, id uuid.UUID) (*trades.Trade, error) {
	query := fmt.Sprintf("SELECT %s FROM trades WHERE id = $1", tradeColumns)

	t := &trades.Trade{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Symbol, &t.AssetType, &t.Side,
		&t.Quantity, &t.Price, &t.Fee, &t.Currency,
		&t.ExecutedAt, &t.Source, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sql.ErrNoRows
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trade: %w", err)
	}
	return t, nil
}

// List returns trades matching the filter, newest first.
func (r *PostgresTradeRepository) List(ctx context.Context, filter ListFilter) ([]trades.Trade, error) {
	var (
		conditions []string
		args       []any
	)
	addCondition := func(clause string, value any) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Symbol != "" {
		addCondition("symbol = $%d", strings.ToUpper(filter.Symbol))
	}
	if filter.Side != "" {
		addCondition("side = $%d", filter.Side)
	}
	if filter.Source != "" {
		addCondition("source = $%d", filter.Source)
	}
	if !filter.From.IsZero() {
		addCondition("executed_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addCondition("executed_at <= $%d", filter.To)
	}

	query := fmt.Sprintf("SELECT %s FROM trades", tradeColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY executed_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// ListBySymbols returns every stored trade for the given symbols; the
// duplicate detector compares new imports against this set.
func (r *PostgresTradeRepository) ListBySymbols(ctx context.Context, symbols []string) ([]trades.Trade, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM trades WHERE symbol = ANY($1)", tradeColumns)

	rows, err := r.pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades by symbols: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// Delete removes a trade by ID.
func (r *PostgresTradeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, "DELETE FROM trades WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func scanTrades(rows pgx.Rows) ([]trades.Trade, error) {
	var result []trades.Trade
	for rows.Next() {
		var t trades.Trade
		if err := rows.Scan(
			&t.ID, &t.Symbol, &t.AssetType, &t.Side,
			&t.Quantity, &t.Price, &t.Fee, &t.Currency,
			&t.ExecutedAt, &t.Source, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read trades: %w", err)
	}
	return result, nil
}
