package columns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect(t *testing.T) {
	t.Run("maps a Trading212 header", func(t *testing.T) {
		m, err := Detect([]string{"Action", "Time", "ISIN", "Ticker", "Name", "No. of shares", "Price / share", "Currency (Price / share)", "Total"})
		require.NoError(t, err)

		assert.Equal(t, 0, m.Index(FieldAction))
		assert.Equal(t, 1, m.Index(FieldDate))
		assert.Equal(t, 2, m.Index(FieldISIN))
		assert.Equal(t, 3, m.Index(FieldTicker))
		assert.Equal(t, 4, m.Index(FieldName))
		assert.Equal(t, 5, m.Index(FieldQuantity))
		assert.Equal(t, 6, m.Index(FieldPrice))
		assert.Equal(t, 7, m.Index(FieldCurrency))
		assert.Equal(t, 8, m.Index(FieldTotal))
	})

	t.Run("ticker beats name for the symbol", func(t *testing.T) {
		m, err := Detect([]string{"Name", "Ticker", "Quantity", "Price"})
		require.NoError(t, err)
		assert.Equal(t, 1, m.Index(FieldTicker))
		assert.Equal(t, 0, m.Index(FieldName))
	})

	t.Run("exact match wins over substring match", func(t *testing.T) {
		// "Ticker Symbol Description" contains "ticker"; plain "Symbol" is exact.
		m, err := Detect([]string{"Ticker Symbol Description", "Symbol", "Qty", "Price"})
		require.NoError(t, err)
		assert.Equal(t, 1, m.Index(FieldTicker))
	})

	t.Run("a claimed index is never reassigned", func(t *testing.T) {
		// Quantity claims "Amount of shares"; the total aliases contain
		// "amount" but must not steal the claimed column.
		m, err := Detect([]string{"Name", "Amount of shares", "Price"})
		require.NoError(t, err)
		assert.Equal(t, 1, m.Index(FieldQuantity))
		assert.Equal(t, -1, m.Index(FieldTotal))
	})

	t.Run("case and whitespace insensitive", func(t *testing.T) {
		m, err := Detect([]string{"  TICKER ", "no.  of   shares"})
		require.NoError(t, err)
		assert.Equal(t, 0, m.Index(FieldTicker))
		assert.Equal(t, 1, m.Index(FieldQuantity))
	})

	t.Run("fails without any symbol column", func(t *testing.T) {
		_, err := Detect([]string{"Date", "Quantity", "Price"})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNoSymbolColumn)
		assert.Contains(t, err.Error(), "Quantity")
	})

	t.Run("missing fields report -1", func(t *testing.T) {
		m, err := Detect([]string{"Ticker"})
		require.NoError(t, err)
		assert.Equal(t, -1, m.Index(FieldFee))
		assert.False(t, m.Has(FieldFee))
	})
}

func TestMapValue(t *testing.T) {
	m, err := Detect([]string{"Ticker", "Quantity"})
	require.NoError(t, err)

	t.Run("trims the cell", func(t *testing.T) {
		assert.Equal(t, "AAPL", m.Value([]string{" AAPL ", "10"}, FieldTicker))
	})

	t.Run("short record yields empty", func(t *testing.T) {
		assert.Equal(t, "", m.Value([]string{"AAPL"}, FieldQuantity))
	})

	t.Run("unmapped field yields empty", func(t *testing.T) {
		assert.Equal(t, "", m.Value([]string{"AAPL", "10"}, FieldPrice))
	})
}
