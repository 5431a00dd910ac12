package decimal

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the ISO code used when rendering amounts for display.
const CurrencyCode = money.USD

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Money represents a monetary amount with proper financial precision
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal creates a new Money instance from a decimal.Decimal
func NewMoneyFromDecimal(d decimal.Decimal) Money {
	return Money{d}
}

// Round rounds the amount to cents using banker's rounding (half to even).
func (m Money) Round() Money {
	return Money{m.Decimal.RoundBank(2)}
}

// Monthly converts an annual amount to monthly
func (m Money) Monthly() Money {
	return Money{m.Decimal.Div(twelve)}
}

// Split divides an amount into n equal payments. n must be positive.
func (m Money) Split(n int) Money {
	return Money{m.Decimal.Div(decimal.NewFromInt(int64(n)))}
}

// Tax returns the tax owed at the given flat rate.
func (m Money) Tax(rate decimal.Decimal) Money {
	return Money{m.Decimal.Mul(rate)}
}

// ApplyTaxRate returns the amount left after a flat tax rate is taken out.
func (m Money) ApplyTaxRate(rate decimal.Decimal) Money {
	return m.Sub(m.Tax(rate))
}

// Add adds another Money amount
func (m Money) Add(other Money) Money {
	return Money{m.Decimal.Add(other.Decimal)}
}

// Sub subtracts another Money amount
func (m Money) Sub(other Money) Money {
	return Money{m.Decimal.Sub(other.Decimal)}
}

// Mul multiplies by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{m.Decimal.Mul(factor)}
}

// String returns the amount with exactly two decimals and no currency symbol.
func (m Money) String() string {
	return m.Decimal.StringFixedBank(2)
}

// Format renders the amount as USD with grouping, e.g. "$1,234.50".
func (m Money) Format() string {
	cents := m.Decimal.Shift(2).RoundBank(0).IntPart()
	return money.New(cents, CurrencyCode).Display()
}

// Percent renders a fractional rate as a percentage with two decimals, e.g. 0.0644 -> 6.44.
func Percent(rate decimal.Decimal) decimal.Decimal {
	return rate.Mul(hundred).RoundBank(2)
}

// WholePercent truncates a fractional rate to whole percent, e.g. 0.093 -> "9%".
func WholePercent(rate decimal.Decimal) string {
	return rate.Mul(hundred).Truncate(0).String() + "%"
}
