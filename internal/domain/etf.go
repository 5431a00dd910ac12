package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// Date is a calendar date that reads and writes as YYYY-MM-DD in YAML and JSON.
type Date struct {
	time.Time
}

// NewDate wraps t, dropping the time of day.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// MarshalText implements encoding.TextMarshaler
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Date) UnmarshalText(text []byte) error {
	t, err := dateutil.ParseDate(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON overrides the promoted time.Time decoding.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateutil.DateLayout)
}

// Frequency is how often an ETF pays a distribution.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// ParseFrequency accepts "monthly" or "quarterly", case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	switch f := Frequency(strings.ToLower(strings.TrimSpace(s))); f {
	case FrequencyMonthly, FrequencyQuarterly:
		return f, nil
	default:
		return "", fmt.Errorf("unknown distribution frequency %q (want monthly or quarterly)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// PaymentsPerYear returns 12 for monthly and 4 for quarterly payers.
func (f Frequency) PaymentsPerYear() int {
	if f == FrequencyQuarterly {
		return 4
	}
	return 12
}

// SpacingMonths returns the number of months between two payments.
func (f Frequency) SpacingMonths() int {
	if f == FrequencyQuarterly {
		return 3
	}
	return 1
}

// ETF is one entry of the static fund reference table.
type ETF struct {
	Ticker      string          `yaml:"ticker" json:"ticker"`
	Yield       decimal.Decimal `yaml:"yield" json:"yield"` // annual distribution as a fraction of principal
	Frequency   Frequency       `yaml:"frequency" json:"frequency"`
	NextPayDate Date            `yaml:"next_pay_date" json:"next_pay_date"`
}

// BracketConfig is one federal bracket: Rate applies to incomes up to and including UpTo.
type BracketConfig struct {
	UpTo decimal.Decimal `yaml:"up_to" json:"up_to"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// ReferenceConfig is the on-disk form of the reference tables. Any section left
// empty falls back to the built-in defaults.
type ReferenceConfig struct {
	ETFs             []ETF                      `yaml:"etfs,omitempty" json:"etfs,omitempty"`
	StateRates       map[string]decimal.Decimal `yaml:"state_rates,omitempty" json:"state_rates,omitempty"`
	DefaultStateRate *decimal.Decimal           `yaml:"default_state_rate,omitempty" json:"default_state_rate,omitempty"`
	FederalBrackets  []BracketConfig            `yaml:"federal_brackets,omitempty" json:"federal_brackets,omitempty"`
	FederalTopRate   *decimal.Decimal           `yaml:"federal_top_rate,omitempty" json:"federal_top_rate,omitempty"`
}

// WeightMap maps a ticker to its share of the investment as a fraction.
// Nothing here enforces that the weights sum to one; callers validate.
type WeightMap map[string]decimal.Decimal

var hundred = decimal.NewFromInt(100)

// Tickers returns the map's tickers in ascending order.
func (w WeightMap) Tickers() []string {
	out := make([]string, 0, len(w))
	for t := range w {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Sum adds up all weights.
func (w WeightMap) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range w {
		sum = sum.Add(v)
	}
	return sum
}

// WeightsFromPercent converts 0..100 percentages to fractions.
func WeightsFromPercent(pct map[string]decimal.Decimal) WeightMap {
	w := make(WeightMap, len(pct))
	for t, p := range pct {
		w[t] = p.Div(hundred)
	}
	return w
}

// EqualSplit assigns every ticker the same fraction.
func EqualSplit(tickers []string) WeightMap {
	w := make(WeightMap, len(tickers))
	if len(tickers) == 0 {
		return w
	}
	share := decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(len(tickers))))
	for _, t := range tickers {
		w[t] = share
	}
	return w
}
