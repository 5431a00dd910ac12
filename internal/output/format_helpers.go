package output

import (
	"fmt"
	"strings"

	"github.com/rpgo/etf-income-planner/internal/domain"
	money "github.com/rpgo/etf-income-planner/pkg/decimal"
	"github.com/shopspring/decimal"
)

// Column headers shared by the tabular formatters.
const (
	headerTicker = "ETF"
	headerDate   = "Pay Date"
	headerAmount = "Estimated Distribution ($)"
)

// FormatCurrency formats a decimal as USD currency with thousands separators.
// Kept here so it can be reused by multiple formatters and unit tested in isolation.
func FormatCurrency(amount decimal.Decimal) string {
	return money.NewMoneyFromDecimal(amount).Format()
}

// FormatPercentage formats a decimal as a percentage with 2 decimals.
func FormatPercentage(amount decimal.Decimal) string { return amount.StringFixed(2) + "%" }

// describeBasket renders the weights as "JEPI 50.00%, SPYD 50.00%".
func describeBasket(w domain.WeightMap) string {
	parts := make([]string, 0, len(w))
	for _, t := range w.Tickers() {
		parts = append(parts, fmt.Sprintf("%s %s", t, FormatPercentage(w[t].Mul(decimal.NewFromInt(100)))))
	}
	return strings.Join(parts, ", ")
}

// scheduleRows returns the schedule as string rows without a header.
func scheduleRows(result *domain.PlanResult) [][]string {
	rows := make([][]string, 0, len(result.Schedule))
	for _, ev := range result.Schedule {
		rows = append(rows, []string{ev.Ticker, ev.PayDate.String(), ev.Amount.StringFixed(2)})
	}
	return rows
}

// bar scales value against peak onto width cells.
func bar(value, peak decimal.Decimal, width int) string {
	if !peak.IsPositive() || !value.IsPositive() {
		return ""
	}
	n := int(value.Div(peak).Mul(decimal.NewFromInt(int64(width))).Round(0).IntPart())
	if n < 1 {
		n = 1
	}
	return strings.Repeat("█", n)
}
