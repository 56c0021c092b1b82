package money

import (
	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// Generator produces randomized monetary values for tests and seed data.
type Generator struct {
	faker *gofakeit.Faker
}

// NewGenerator returns a seeded Generator; the same seed yields the same
// sequence.
func NewGenerator(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

var tradedCurrencies = []string{USD, EUR, GBP, CHF}

// Currency picks one of the commonly traded fiat currencies.
func (g *Generator) Currency() string {
	return tradedCurrencies[g.faker.IntRange(0, len(tradedCurrencies)-1)]
}

// Price returns a plausible per-share price between 1.00 and 2000.00.
func (g *Generator) Price() decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(1, 2000)).Round(2)
}

// Quantity returns a fractional share quantity between 0.01 and 500.
func (g *Generator) Quantity() decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(0.01, 500)).Round(4)
}

// Fee returns a broker commission between zero and 15.00.
func (g *Generator) Fee() decimal.Decimal {
	return decimal.NewFromFloat(g.faker.Float64Range(0, 15)).Round(2)
}

// Amount returns a Money with a random notional in the given currency.
func (g *Generator) Amount(currencyCode string) *Money {
	return NewFromDecimal(g.Price().Mul(g.Quantity()), currencyCode)
}
