package domain

import (
	"encoding/json"
	"sort"
	"time"

	money "github.com/rpgo/etf-income-planner/pkg/decimal"
	"github.com/shopspring/decimal"
)

// DefaultTaxableIncome is used when a plan request leaves taxable income unset.
var DefaultTaxableIncome = decimal.NewFromInt(145000)

// PlanRequest is the validated input a presentation layer hands to the planner.
type PlanRequest struct {
	Investment    decimal.Decimal            `yaml:"investment" json:"investment"`
	TaxableIncome *decimal.Decimal           `yaml:"taxable_income,omitempty" json:"taxable_income,omitempty"`
	State         string                     `yaml:"state" json:"state"`
	Selection     []string                   `yaml:"selection,omitempty" json:"selection,omitempty"`
	Weights       map[string]decimal.Decimal `yaml:"weights,omitempty" json:"weights,omitempty"` // percent, 0..100
	Performance   *PerformanceWindow         `yaml:"performance,omitempty" json:"performance,omitempty"`
}

// Income returns the taxable income, or DefaultTaxableIncome when unset.
func (r *PlanRequest) Income() decimal.Decimal {
	if r.TaxableIncome == nil {
		return DefaultTaxableIncome
	}
	return *r.TaxableIncome
}

// Tickers returns the selected tickers: Selection when given, in order and
// without repeats, otherwise the keys of Weights in ascending order.
func (r *PlanRequest) Tickers() []string {
	if len(r.Selection) > 0 {
		out := make([]string, 0, len(r.Selection))
		seen := make(map[string]bool, len(r.Selection))
		for _, t := range r.Selection {
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
		return out
	}
	out := make([]string, 0, len(r.Weights))
	for t := range r.Weights {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// WeightMap converts the request's percentages into fractions. With no
// explicit weights every selected ticker gets an equal share.
func (r *PlanRequest) WeightMap() WeightMap {
	tickers := r.Tickers()
	if len(r.Weights) == 0 {
		return EqualSplit(tickers)
	}
	pct := make(map[string]decimal.Decimal, len(tickers))
	for _, t := range tickers {
		pct[t] = r.Weights[t]
	}
	return WeightsFromPercent(pct)
}

// DistributionEvent is one projected payment.
type DistributionEvent struct {
	Ticker  string          `json:"ticker"`
	PayDate Date            `json:"pay_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// MarshalJSON writes the amount with exactly two decimals.
func (e DistributionEvent) MarshalJSON() ([]byte, error) {
	type event DistributionEvent
	return json.Marshal(struct {
		event
		Amount string `json:"amount"`
	}{event(e), cents(e.Amount)})
}

// IncomeSummary is the gross/net income estimate for a basket. Monetary
// values are rounded to cents; rates are fractions.
type IncomeSummary struct {
	AverageYieldPercent decimal.Decimal `json:"average_yield_percent"`
	GrossMonthly        decimal.Decimal `json:"gross_monthly"`
	GrossAnnual         decimal.Decimal `json:"gross_annual"`
	FederalRate         decimal.Decimal `json:"federal_rate"`
	StateRate           decimal.Decimal `json:"state_rate"`
	NetMonthly          decimal.Decimal `json:"net_monthly"`
	NetAnnual           decimal.Decimal `json:"net_annual"`
	Populated           bool            `json:"populated"`
}

// MarshalJSON writes money and the average yield with exactly two decimals.
// Rates keep their full precision.
func (s IncomeSummary) MarshalJSON() ([]byte, error) {
	type summary IncomeSummary
	return json.Marshal(struct {
		summary
		AverageYieldPercent string `json:"average_yield_percent"`
		GrossMonthly        string `json:"gross_monthly"`
		GrossAnnual         string `json:"gross_annual"`
		NetMonthly          string `json:"net_monthly"`
		NetAnnual           string `json:"net_annual"`
	}{
		summary:             summary(s),
		AverageYieldPercent: cents(s.AverageYieldPercent),
		GrossMonthly:        cents(s.GrossMonthly),
		GrossAnnual:         cents(s.GrossAnnual),
		NetMonthly:          cents(s.NetMonthly),
		NetAnnual:           cents(s.NetAnnual),
	})
}

func cents(d decimal.Decimal) string { return money.NewMoneyFromDecimal(d).String() }

// IsEmpty reports whether this is the default summary returned for an empty basket.
func (s IncomeSummary) IsEmpty() bool { return !s.Populated }

// FederalRatePercent renders the federal rate as whole percent, e.g. "22%".
func (s IncomeSummary) FederalRatePercent() string { return money.WholePercent(s.FederalRate) }

// StateRatePercent renders the state rate as whole percent.
func (s IncomeSummary) StateRatePercent() string { return money.WholePercent(s.StateRate) }

// Metric is one labelled row of the income summary table.
type Metric struct {
	Name  string `json:"metric"`
	Value string `json:"value"`
}

// Metrics returns the summary as ordered label/value pairs. An empty summary
// has no metrics.
func (s IncomeSummary) Metrics() []Metric {
	if s.IsEmpty() {
		return nil
	}
	return []Metric{
		{"Average Yield (%)", s.AverageYieldPercent.StringFixedBank(2)},
		{"Gross Monthly Income ($)", s.GrossMonthly.StringFixedBank(2)},
		{"Gross Annual Income ($)", s.GrossAnnual.StringFixedBank(2)},
		{"Federal Tax Rate", s.FederalRatePercent()},
		{"State Tax Rate", s.StateRatePercent()},
		{"Net Monthly Income ($)", s.NetMonthly.StringFixedBank(2)},
		{"Net Annual Income ($)", s.NetAnnual.StringFixedBank(2)},
	}
}

// PlanResult bundles everything produced for one plan request.
type PlanResult struct {
	Request     PlanRequest         `json:"request"`
	Summary     IncomeSummary       `json:"summary"`
	Schedule    []DistributionEvent `json:"schedule"`
	Performance *PerformanceResult  `json:"performance,omitempty"`
	Warnings    []string            `json:"warnings,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ScheduleTotal adds up every projected payment.
func (r *PlanResult) ScheduleTotal() decimal.Decimal {
	total := money.NewMoneyFromDecimal(decimal.Zero)
	for _, ev := range r.Schedule {
		total = total.Add(money.NewMoneyFromDecimal(ev.Amount))
	}
	return total.Decimal
}

// MonthlyTotals sums payments per pay date, in schedule order.
func (r *PlanResult) MonthlyTotals() []DistributionEvent {
	var out []DistributionEvent
	for _, ev := range r.Schedule {
		if n := len(out); n > 0 && out[n-1].PayDate.Equal(ev.PayDate.Time) {
			out[n-1].Amount = out[n-1].Amount.Add(ev.Amount)
			continue
		}
		out = append(out, DistributionEvent{Ticker: "ALL", PayDate: ev.PayDate, Amount: ev.Amount})
	}
	return out
}
