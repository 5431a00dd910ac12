package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildTestResult(t *testing.T) *domain.PlanResult {
	t.Helper()
	income := decimal.NewFromInt(45000)
	planner := calculation.NewPlanner(nil)
	planner.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	result, err := planner.Plan(context.Background(), domain.PlanRequest{
		Investment:    decimal.NewFromInt(100000),
		TaxableIncome: &income,
		State:         "Texas",
		Weights:       map[string]decimal.Decimal{"JEPI": decimal.NewFromInt(50), "SPYD": decimal.NewFromInt(50)},
	})
	require.NoError(t, err)
	return result
}

func withPerformance(result *domain.PlanResult) *domain.PlanResult {
	result.Performance = &domain.PerformanceResult{
		Window: domain.PerformanceWindow{
			Start:    domain.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			End:      domain.NewDate(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
			Interval: domain.IntervalMonthly,
		},
		Points: []domain.PerformancePoint{
			{Date: domain.NewDate(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)), Return: decimal.RequireFromString("0.05"), Growth: decimal.RequireFromString("1.05")},
			{Date: domain.NewDate(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)), Return: decimal.RequireFromString("0.1"), Growth: decimal.RequireFromString("1.155")},
		},
		TotalReturnPercent: decimal.RequireFromString("15.5"),
		Included:           []string{"JEPI", "SPYD"},
	}
	return result
}

func TestConsoleFormatter(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(withPerformance(buildTestResult(t)))
	require.NoError(t, err)
	content := string(out)

	assert.True(t, strings.HasPrefix(content, "MONTHLY INCOME PLAN FOR ETF INVESTORS\n"))
	assert.Contains(t, content, "Investment: $100,000.00")
	assert.Contains(t, content, "Basket: JEPI 50.00%, SPYD 50.00%")
	assert.Contains(t, content, "Net Monthly Income ($)")
	assert.Contains(t, content, "472.27")
	assert.Contains(t, content, "JEPI  2024-06-30  349.17")
	assert.Contains(t, content, "Total: $6,440.04")
	assert.Contains(t, content, "MONTHLY DISTRIBUTION SCHEDULE")
	assert.Contains(t, content, "$911.67")
	assert.Contains(t, content, "Total return: 15.50%")
	assert.NotContains(t, content, "WARNINGS")
}

func TestFormatPerformance(t *testing.T) {
	perf := withPerformance(buildTestResult(t)).Performance
	perf.Skipped = []string{"QYLD"}
	perf.Warnings = []string{"no price data for QYLD: unknown symbol"}

	content := string(FormatPerformance(perf))
	assert.True(t, strings.HasPrefix(content, "HISTORICAL PERFORMANCE (2024-01-01 to 2024-03-31, monthly)\n"))
	assert.Contains(t, content, "Total return: 15.50%")
	assert.Contains(t, content, "Skipped: [QYLD]")
	assert.Contains(t, content, "2024-03-31  10.00%  1.1550")
	assert.Contains(t, content, "  - no price data for QYLD: unknown symbol")
}

func TestConsoleFormatter_EmptyPlan(t *testing.T) {
	result := &domain.PlanResult{
		Request:  domain.PlanRequest{Investment: decimal.NewFromInt(1000), State: "Ohio"},
		Schedule: []domain.DistributionEvent{},
		Warnings: []string{"No distributions available for the selected ETFs."},
	}
	out, err := ConsoleFormatter{}.Format(result)
	require.NoError(t, err)
	content := string(out)
	assert.NotContains(t, content, "INCOME SUMMARY")
	assert.NotContains(t, content, "PROJECTED DISTRIBUTION SCHEDULE")
	assert.Contains(t, content, "No distributions available for the selected ETFs.")
}

func TestCSVScheduleExporter(t *testing.T) {
	out, err := CSVScheduleExporter{}.Format(buildTestResult(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 17, "header plus 16 events")
	assert.Equal(t, "ETF,Pay Date,Estimated Distribution ($)", lines[0])
	assert.Equal(t, "JEPI,2024-06-30,349.17", lines[1])
	assert.Equal(t, "SPYD,2024-06-30,562.50", lines[2])
}

func TestCSVSummaryExporter(t *testing.T) {
	out, err := CSVSummaryExporter{}.Format(buildTestResult(t))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 8)
	assert.Equal(t, "Metric,Value", lines[0])
	assert.Equal(t, "Average Yield (%),6.44", lines[1])
	assert.Equal(t, "Federal Tax Rate,12%", lines[4])
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestResult(t))
	require.NoError(t, err)

	var decoded struct {
		Summary struct {
			NetAnnual string `json:"net_annual"`
		} `json:"summary"`
		Schedule []struct {
			Ticker  string `json:"ticker"`
			PayDate string `json:"pay_date"`
			Amount  string `json:"amount"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "5667.20", decoded.Summary.NetAnnual)
	require.Len(t, decoded.Schedule, 16)
	assert.Equal(t, "2024-06-30", decoded.Schedule[0].PayDate)
	assert.Equal(t, "349.17", decoded.Schedule[0].Amount)
}

func TestMarkdownFormatter(t *testing.T) {
	out, err := MarkdownFormatter{}.Format(withPerformance(buildTestResult(t)))
	require.NoError(t, err)
	content := string(out)

	assert.True(t, strings.HasPrefix(content, "# Monthly Income Planner for ETF Investors"))
	assert.Contains(t, content, "## Income Summary")
	assert.Contains(t, content, "| State Tax Rate | 0% |")
	assert.Contains(t, content, "| SPYD | 2025-03-31 | 562.50 |")
	assert.Contains(t, content, "## Historical Performance")
	assert.Contains(t, content, "| 2024-03-31 | 10.00% | 1.1550 |")
}

func TestXLSXFormatter(t *testing.T) {
	out, err := XLSXFormatter{}.Format(buildTestResult(t))
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetSchedule}, f.GetSheetList())

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	require.Len(t, summary, 8)
	assert.Equal(t, []string{"Metric", "Value"}, summary[0])
	assert.Equal(t, []string{"Average Yield (%)", "6.44"}, summary[1])
	assert.Equal(t, []string{"Federal Tax Rate", "12%"}, summary[4])

	schedule, err := f.GetRows(SheetSchedule)
	require.NoError(t, err)
	require.Len(t, schedule, 17)
	assert.Equal(t, []string{"ETF", "Pay Date", "Estimated Distribution ($)"}, schedule[0])
	assert.Equal(t, []string{"JEPI", "2024-06-30", "349.17"}, schedule[1])
}

func TestFormatterAliasResolution(t *testing.T) {
	tests := map[string]string{
		"console": "console",
		"TEXT":    "console",
		"md":      "markdown",
		"excel":   "xlsx",
		" json ":  "json",
	}
	for alias, want := range tests {
		f := GetFormatterByName(alias)
		require.NotNil(t, f, "alias %q did not resolve", alias)
		assert.Equal(t, want, f.Name())
	}
	assert.Nil(t, GetFormatterByName("pdf"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "txt", Extension("console"))
	assert.Equal(t, "md", Extension("md"))
	assert.Equal(t, "csv", Extension("summary-csv"))
	assert.Equal(t, "xlsx", Extension("excel"))
}

func TestAvailableFormatterNames(t *testing.T) {
	assert.Equal(t, []string{"console", "csv", "json", "markdown", "summary-csv", "xlsx"}, AvailableFormatterNames())
}

func TestWriteFormattedTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, WriteFormattedTo(CSVScheduleExporter{}, buildTestResult(t), path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "ETF,Pay Date"))

	failing := FormatterFunc{ID: "broken", F: func(*domain.PlanResult) ([]byte, error) { return nil, errors.New("boom") }}
	err = WriteFormattedTo(failing, buildTestResult(t), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken formatter failed")
}
