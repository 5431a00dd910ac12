package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

const chartWidth = 40

// ConsoleFormatter renders the plan as plain-text tables for a terminal.
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(result *domain.PlanResult) ([]byte, error) {
	var buf bytes.Buffer
	req := result.Request
	fmt.Fprintln(&buf, "MONTHLY INCOME PLAN FOR ETF INVESTORS")
	fmt.Fprintln(&buf, "================================")
	fmt.Fprintf(&buf, "Investment: %s  Taxable income: %s  State: %s\n",
		FormatCurrency(req.Investment), FormatCurrency(req.Income()), req.State)
	if w := req.WeightMap(); len(w) > 0 {
		fmt.Fprintf(&buf, "Basket: %s\n", describeBasket(w))
	}

	if metrics := result.Summary.Metrics(); len(metrics) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "INCOME SUMMARY")
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		for _, m := range metrics {
			fmt.Fprintf(tw, "  %s\t%s\n", m.Name, m.Value)
		}
		tw.Flush()
	}

	if len(result.Schedule) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "PROJECTED DISTRIBUTION SCHEDULE")
		tw := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", headerTicker, headerDate, headerAmount)
		for _, row := range scheduleRows(result) {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", row[0], row[1], row[2])
		}
		tw.Flush()
		fmt.Fprintf(&buf, "  Total: %s\n", FormatCurrency(result.ScheduleTotal()))

		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "MONTHLY DISTRIBUTION SCHEDULE")
		writeChart(&buf, result.MonthlyTotals())
	}

	if perf := result.Performance; perf != nil {
		fmt.Fprintln(&buf)
		writePerformance(&buf, perf)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "WARNINGS")
		for _, w := range result.Warnings {
			fmt.Fprintf(&buf, "  - %s\n", w)
		}
	}
	return buf.Bytes(), nil
}

func writeChart(buf *bytes.Buffer, totals []domain.DistributionEvent) {
	peak := decimal.Zero
	for _, t := range totals {
		peak = decimal.Max(peak, t.Amount)
	}
	for _, t := range totals {
		fmt.Fprintf(buf, "  %s %-*s %s\n", t.PayDate, chartWidth, bar(t.Amount, peak, chartWidth), FormatCurrency(t.Amount))
	}
}

func writePerformance(buf *bytes.Buffer, perf *domain.PerformanceResult) {
	fmt.Fprintf(buf, "HISTORICAL PERFORMANCE (%s to %s, %s)\n", perf.Window.Start, perf.Window.End, perf.Window.Interval)
	fmt.Fprintf(buf, "  Total return: %s\n", FormatPercentage(perf.TotalReturnPercent))
	fmt.Fprintf(buf, "  Included: %v\n", perf.Included)
	if len(perf.Skipped) > 0 {
		fmt.Fprintf(buf, "  Skipped: %v\n", perf.Skipped)
	}
	tw := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Date\tReturn\tGrowth of $1")
	for _, p := range perf.Points {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", p.Date, FormatPercentage(p.Return.Mul(decimal.NewFromInt(100))), p.Growth.StringFixed(4))
	}
	tw.Flush()
}

// FormatPerformance renders a standalone overlay result the way the console
// report shows it.
func FormatPerformance(perf *domain.PerformanceResult) []byte {
	var buf bytes.Buffer
	writePerformance(&buf, perf)
	if len(perf.Warnings) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "WARNINGS")
		for _, w := range perf.Warnings {
			fmt.Fprintf(&buf, "  - %s\n", w)
		}
	}
	return buf.Bytes()
}
