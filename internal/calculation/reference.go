package calculation

import (
	"fmt"
	"sort"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// ReferenceData holds the static lookup tables. It is built once at startup
// and never mutated afterwards.
type ReferenceData struct {
	ETFs             map[string]domain.ETF
	StateRates       map[string]decimal.Decimal
	DefaultStateRate decimal.Decimal
	Federal          *BracketResolver
}

func defaultETFs() []domain.ETF {
	anchor := domain.Date{Time: dateutil.MustParseDate("2024-06-30")}
	etf := func(ticker, yield string, freq domain.Frequency) domain.ETF {
		return domain.ETF{Ticker: ticker, Yield: decimal.RequireFromString(yield), Frequency: freq, NextPayDate: anchor}
	}
	return []domain.ETF{
		etf("JEPI", "0.0838", domain.FrequencyMonthly),
		etf("SPYD", "0.045", domain.FrequencyQuarterly),
		etf("SCHD", "0.035", domain.FrequencyQuarterly),
		etf("VYM", "0.032", domain.FrequencyQuarterly),
		etf("QYLD", "0.115", domain.FrequencyMonthly),
		etf("RYLD", "0.12", domain.FrequencyMonthly),
		etf("BND", "0.04", domain.FrequencyMonthly),
		etf("PFF", "0.065", domain.FrequencyMonthly),
	}
}

func defaultStateRates() map[string]decimal.Decimal {
	return map[string]decimal.Decimal{
		"Massachusetts": decimal.RequireFromString("0.05"),
		"California":    decimal.RequireFromString("0.093"),
		"New York":      decimal.RequireFromString("0.064"),
		"Texas":         decimal.Zero,
		"Florida":       decimal.Zero,
		"Illinois":      decimal.RequireFromString("0.0495"),
		"Washington":    decimal.Zero,
		"New Jersey":    decimal.RequireFromString("0.0637"),
		"Pennsylvania":  decimal.RequireFromString("0.0307"),
		"Ohio":          decimal.RequireFromString("0.0399"),
	}
}

// DefaultStateRate applies to any state missing from the table.
var DefaultStateRate = decimal.RequireFromString("0.05")

// DefaultReferenceData returns the built-in tables.
func DefaultReferenceData() *ReferenceData {
	ref, err := NewReferenceData(domain.ReferenceConfig{})
	if err != nil {
		panic(fmt.Sprintf("built-in reference data is invalid: %v", err))
	}
	return ref
}

// NewReferenceData builds reference tables from config. Each section that is
// left empty falls back to the built-in defaults.
func NewReferenceData(config domain.ReferenceConfig) (*ReferenceData, error) {
	etfs := config.ETFs
	if len(etfs) == 0 {
		etfs = defaultETFs()
	}
	ref := &ReferenceData{
		ETFs:             make(map[string]domain.ETF, len(etfs)),
		StateRates:       config.StateRates,
		DefaultStateRate: DefaultStateRate,
	}
	for _, e := range etfs {
		if e.Ticker == "" {
			return nil, fmt.Errorf("etf entry without ticker")
		}
		if _, dup := ref.ETFs[e.Ticker]; dup {
			return nil, fmt.Errorf("etf %s listed twice", e.Ticker)
		}
		if e.Yield.IsNegative() {
			return nil, fmt.Errorf("etf %s: yield cannot be negative", e.Ticker)
		}
		if e.Frequency == "" {
			return nil, fmt.Errorf("etf %s: distribution frequency is required", e.Ticker)
		}
		if e.NextPayDate.IsZero() {
			return nil, fmt.Errorf("etf %s: next pay date is required", e.Ticker)
		}
		ref.ETFs[e.Ticker] = e
	}

	if len(ref.StateRates) == 0 {
		ref.StateRates = defaultStateRates()
	}
	if config.DefaultStateRate != nil {
		ref.DefaultStateRate = *config.DefaultStateRate
	}
	for state, rate := range ref.StateRates {
		if err := checkRate(rate); err != nil {
			return nil, fmt.Errorf("state %s: %w", state, err)
		}
	}
	if err := checkRate(ref.DefaultStateRate); err != nil {
		return nil, fmt.Errorf("default state rate: %w", err)
	}

	federal, err := NewBracketResolver(config.FederalBrackets, config.FederalTopRate)
	if err != nil {
		return nil, fmt.Errorf("federal brackets: %w", err)
	}
	ref.Federal = federal
	return ref, nil
}

func checkRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("rate %s must be in [0,1)", rate)
	}
	return nil
}

// ETF looks up a ticker. A miss wraps ErrReferenceDataMissing.
func (r *ReferenceData) ETF(ticker string) (domain.ETF, error) {
	etf, ok := r.ETFs[ticker]
	if !ok {
		return domain.ETF{}, fmt.Errorf("%w: no yield or schedule for ETF %q", ErrReferenceDataMissing, ticker)
	}
	return etf, nil
}

// StateRate returns the flat state rate, or DefaultStateRate for unknown states.
func (r *ReferenceData) StateRate(state string) decimal.Decimal {
	if rate, ok := r.StateRates[state]; ok {
		return rate
	}
	return r.DefaultStateRate
}

// Tickers lists known ETFs in ascending order.
func (r *ReferenceData) Tickers() []string {
	out := make([]string, 0, len(r.ETFs))
	for t := range r.ETFs {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// States lists configured states in ascending order.
func (r *ReferenceData) States() []string {
	out := make([]string, 0, len(r.StateRates))
	for s := range r.StateRates {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
