package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/folio-tracker/internal/domain/trades"
)

func TestClassifyAction(t *testing.T) {
	t.Run("buy variants", func(t *testing.T) {
		for _, in := range []string{"Buy", "Market buy", "BOUGHT", "Limit Buy", "purchase", "BTO", "b", "bu"} {
			outcome, side := classifyAction(in)
			assert.Equal(t, actionBuy, outcome, "input %q", in)
			assert.Equal(t, trades.SideBuy, side, "input %q", in)
		}
	})

	t.Run("sell variants", func(t *testing.T) {
		for _, in := range []string{"Sell", "Market sell", "SOLD", "sale", "STC", "s"} {
			outcome, side := classifyAction(in)
			assert.Equal(t, actionSell, outcome, "input %q", in)
			assert.Equal(t, trades.SideSell, side, "input %q", in)
		}
	})

	t.Run("ignored actions", func(t *testing.T) {
		for _, in := range []string{
			"Deposit", "Dividend", "Dividend (Ordinary)", "Interest on cash",
			"Currency conversion", "Withholding tax", "Stock split", "Transfer in",
		} {
			outcome, _ := classifyAction(in)
			assert.Equal(t, actionIgnored, outcome, "input %q", in)
		}
	})

	t.Run("ignore list wins over side words", func(t *testing.T) {
		// "buy" appears in the text but the row is a conversion.
		outcome, _ := classifyAction("Currency conversion (buy EUR)")
		assert.Equal(t, actionIgnored, outcome)
	})

	t.Run("unknown actions", func(t *testing.T) {
		for _, in := range []string{"", "   ", "banana", "x"} {
			outcome, side := classifyAction(in)
			assert.Equal(t, actionUnknown, outcome, "input %q", in)
			assert.Empty(t, side)
		}
	})

	t.Run("single letters never match by containment", func(t *testing.T) {
		// "t" is inside "bought" and "sold" but is not a trade action.
		outcome, _ := classifyAction("t")
		assert.Equal(t, actionUnknown, outcome)
	})
}
