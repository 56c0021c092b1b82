package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func sampleTrade() *trades.Trade {
	return &trades.Trade{
		ID:         uuid.New(),
		Symbol:     "AAPL",
		AssetType:  trades.AssetStock,
		Side:       trades.SideBuy,
		Quantity:   decimal.RequireFromString("10"),
		Price:      decimal.RequireFromString("185.50"),
		Fee:        decimal.Zero,
		Currency:   "USD",
		ExecutedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Source:     trades.SourceCSV,
	}
}

func TestCreate(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresTradeRepository(mock)
	trade := sampleTrade()

	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO trades").
		WithArgs(trade.ID, trade.Symbol, trade.AssetType, trade.Side,
			trade.Quantity, trade.Price, trade.Fee, trade.Currency,
			trade.ExecutedAt, trade.Source).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(created))

	err := repo.Create(context.Background(), trade)
	require.NoError(t, err)
	assert.Equal(t, created, trade.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsID(t *testing.T) {
	mock := newMock(t)
	repo := NewPostgresTradeRepository(mock)
	trade := sampleTrade()
	trade.ID = uuid.Nil

	mock.ExpectQuery("INSERT INTO trades").
		WithArgs(pgxmock.AnyArg(), trade.Symbol, trade.AssetType, trade.Side,
			trade.Quantity, trade.Price, trade.Fee, trade.Currency,
			trade.ExecutedAt, trade.Source).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Create(context.Background(), trade))
	assert.NotEqual(t, uuid.Nil, trade.ID)
}

func TestGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		want := sampleTrade()
		want.CreatedAt = time.Now().UTC()

		mock.ExpectQuery("SELECT (.+) FROM trades WHERE id").
			WithArgs(want.ID).
			WillReturnRows(tradeRows(*want))

		got, err := repo.GetByID(context.Background(), want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Symbol, got.Symbol)
		assert.True(t, want.Quantity.Equal(got.Quantity))
	})

	t.Run("not found maps to sql.ErrNoRows", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("SELECT (.+) FROM trades WHERE id").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})
}

func TestList(t *testing.T) {
	t.Run("no filter", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		trade := *sampleTrade()

		mock.ExpectQuery("SELECT (.+) FROM trades ORDER BY executed_at DESC").
			WillReturnRows(tradeRows(trade))

		got, err := repo.List(context.Background(), ListFilter{})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "AAPL", got[0].Symbol)
	})

	t.Run("symbol filter uppercases", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)

		mock.ExpectQuery("SELECT (.+) FROM trades WHERE symbol").
			WithArgs("AAPL").
			WillReturnRows(tradeRows())

		_, err := repo.List(context.Background(), ListFilter{Symbol: "aapl"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("combined filters and limit", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT (.+) FROM trades WHERE symbol = (.+) AND side = (.+) AND executed_at >= (.+) ORDER BY executed_at DESC LIMIT").
			WithArgs("AAPL", trades.SideBuy, from, 10).
			WillReturnRows(tradeRows())

		_, err := repo.List(context.Background(), ListFilter{
			Symbol: "AAPL",
			Side:   trades.SideBuy,
			From:   from,
			Limit:  10,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListBySymbols(t *testing.T) {
	t.Run("empty input short-circuits", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)

		got, err := repo.ListBySymbols(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("queries with the symbol set", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		trade := *sampleTrade()

		mock.ExpectQuery("SELECT (.+) FROM trades WHERE symbol = ANY").
			WithArgs([]string{"AAPL", "MSFT"}).
			WillReturnRows(tradeRows(trade))

		got, err := repo.ListBySymbols(context.Background(), []string{"AAPL", "MSFT"})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})
}

func TestDelete(t *testing.T) {
	t.Run("deletes", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM trades WHERE id").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(context.Background(), id))
	})

	t.Run("missing row maps to sql.ErrNoRows", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresTradeRepository(mock)
		id := uuid.New()

		mock.ExpectExec("DELETE FROM trades WHERE id").
			WithArgs(id).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(context.Background(), id), sql.ErrNoRows)
	})
}

func tradeRows(rows ...trades.Trade) *pgxmock.Rows {
	r := pgxmock.NewRows([]string{
		"id", "symbol", "asset_type", "side", "quantity", "price", "fee",
		"currency", "executed_at", "source", "created_at",
	})
	for _, t := range rows {
		r.AddRow(t.ID, t.Symbol, t.AssetType, t.Side, t.Quantity, t.Price,
			t.Fee, t.Currency, t.ExecutedAt, t.Source, t.CreatedAt)
	}
	return r
}
