package output

import (
	"bytes"
	"fmt"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// MarkdownFormatter renders the plan as GitHub-flavored markdown. The CLI
// passes it through glamour when stdout is a terminal.
type MarkdownFormatter struct{}

func (m MarkdownFormatter) Name() string { return "markdown" }

func (m MarkdownFormatter) Format(result *domain.PlanResult) ([]byte, error) {
	var buf bytes.Buffer
	req := result.Request
	fmt.Fprintln(&buf, "# Monthly Income Planner for ETF Investors")
	fmt.Fprintln(&buf)
	fmt.Fprintf(&buf, "- **Investment:** %s\n", FormatCurrency(req.Investment))
	fmt.Fprintf(&buf, "- **Taxable income:** %s\n", FormatCurrency(req.Income()))
	fmt.Fprintf(&buf, "- **State:** %s\n", req.State)
	if w := req.WeightMap(); len(w) > 0 {
		fmt.Fprintf(&buf, "- **Basket:** %s\n", describeBasket(w))
	}

	if metrics := result.Summary.Metrics(); len(metrics) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "## Income Summary")
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "| Metric | Value |")
		fmt.Fprintln(&buf, "|---|---:|")
		for _, m := range metrics {
			fmt.Fprintf(&buf, "| %s | %s |\n", m.Name, m.Value)
		}
	}

	if len(result.Schedule) > 0 {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "## Projected Distribution Schedule")
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "| %s | %s | %s |\n", headerTicker, headerDate, headerAmount)
		fmt.Fprintln(&buf, "|---|---|---:|")
		for _, row := range scheduleRows(result) {
			fmt.Fprintf(&buf, "| %s | %s | %s |\n", row[0], row[1], row[2])
		}
		fmt.Fprintf(&buf, "\n**Total:** %s\n", FormatCurrency(result.ScheduleTotal()))
	}

	if perf := result.Performance; perf != nil {
		fmt.Fprintln(&buf)
		fmt.Fprintln(&buf, "## Historical Performance")
		fmt.Fprintln(&buf)
		fmt.Fprintf(&buf, "%s to %s, %s closes. Total return **%s**.\n\n", perf.Window.Start, perf.Window.End, perf.Window.Interval, FormatPercentage(perf.TotalReturnPercent))
		fmt.Fprintln(&buf, "| Date | Return | Growth of $1 |")
		fmt.Fprintln(&buf, "|---|---:|---:|")
		for _, p := range perf.Points {
			fmt.Fprintf(&buf, "| %s | %s | %s |\n", p.Date, FormatPercentage(p.Return.Mul(decimal.NewFromInt(100))), p.Growth.StringFixed(4))
		}
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(&buf)
		for _, w := range result.Warnings {
			fmt.Fprintf(&buf, "> ⚠️ %s\n", w)
		}
	}
	return buf.Bytes(), nil
}
