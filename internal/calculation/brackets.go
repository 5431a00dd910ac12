package calculation

import (
	"fmt"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// FEDERAL RATE ASSUMPTIONS:
//
// 1. Thresholds are the 2024 single-filer bracket tops, held constant.
// 2. The resolved rate is the marginal rate of the bracket the whole income
//    falls into, and it is applied flat to the entire amount downstream.
//    This is not a piecewise marginal tax computation.
// 3. Negative income is not rejected; it resolves to the lowest bracket.

// TaxBracket is an upper income threshold (inclusive) and its rate.
type TaxBracket struct {
	UpTo decimal.Decimal
	Rate decimal.Decimal
}

// BracketResolver maps taxable income to a single federal rate.
type BracketResolver struct {
	Brackets []TaxBracket
	TopRate  decimal.Decimal // applies above the last threshold
}

// NewBracketResolver2024 returns the built-in 2024 table.
func NewBracketResolver2024() *BracketResolver {
	return &BracketResolver{
		Brackets: []TaxBracket{
			{decimal.NewFromInt(11600), decimal.NewFromFloat(0.10)},
			{decimal.NewFromInt(47150), decimal.NewFromFloat(0.12)},
			{decimal.NewFromInt(100525), decimal.NewFromFloat(0.22)},
			{decimal.NewFromInt(191950), decimal.NewFromFloat(0.24)},
			{decimal.NewFromInt(243725), decimal.NewFromFloat(0.32)},
			{decimal.NewFromInt(609350), decimal.NewFromFloat(0.35)},
		},
		TopRate: decimal.NewFromFloat(0.37),
	}
}

// NewBracketResolver builds a resolver from configured brackets, falling back
// to the 2024 table when none are given. A nil top rate keeps the default.
func NewBracketResolver(config []domain.BracketConfig, topRate *decimal.Decimal) (*BracketResolver, error) {
	r := NewBracketResolver2024()
	if len(config) > 0 {
		r.Brackets = make([]TaxBracket, 0, len(config))
		for i, b := range config {
			if b.Rate.IsNegative() || b.Rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
				return nil, fmt.Errorf("bracket %d: rate %s must be in [0,1)", i, b.Rate)
			}
			if i > 0 && !b.UpTo.GreaterThan(config[i-1].UpTo) {
				return nil, fmt.Errorf("bracket %d: threshold %s must be greater than %s", i, b.UpTo, config[i-1].UpTo)
			}
			r.Brackets = append(r.Brackets, TaxBracket{UpTo: b.UpTo, Rate: b.Rate})
		}
	}
	if topRate != nil {
		if topRate.IsNegative() || topRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			return nil, fmt.Errorf("top rate %s must be in [0,1)", topRate)
		}
		r.TopRate = *topRate
	}
	return r, nil
}

// Resolve returns the rate of the first bracket whose threshold is >= income,
// or the top rate when income exceeds every threshold.
func (r *BracketResolver) Resolve(income decimal.Decimal) decimal.Decimal {
	for _, b := range r.Brackets {
		if income.LessThanOrEqual(b.UpTo) {
			return b.Rate
		}
	}
	return r.TopRate
}

var defaultResolver = NewBracketResolver2024()

// ResolveFederalRate resolves income against the built-in 2024 table.
func ResolveFederalRate(income decimal.Decimal) decimal.Decimal {
	return defaultResolver.Resolve(income)
}
