package calculation

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...any) {}
func (l *recordingLogger) Infof(string, ...any)  {}
func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}
func (l *recordingLogger) Errorf(string, ...any) {}

func texasRequest() domain.PlanRequest {
	income := decimal.NewFromInt(45000)
	return domain.PlanRequest{
		Investment:    decimal.NewFromInt(100000),
		TaxableIncome: &income,
		State:         "Texas",
		Weights: map[string]decimal.Decimal{
			"JEPI": decimal.NewFromInt(50),
			"SPYD": decimal.NewFromInt(50),
		},
	}
}

func fixedPlanner() *Planner {
	p := NewPlanner(nil)
	p.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestPlanner_Plan(t *testing.T) {
	result, err := fixedPlanner().Plan(context.Background(), texasRequest())
	require.NoError(t, err)

	assert.Equal(t, "5667.20", result.Summary.NetAnnual.StringFixed(2))
	assert.Equal(t, "472.27", result.Summary.NetMonthly.StringFixed(2))
	assert.Len(t, result.Schedule, 16)
	assert.Nil(t, result.Performance)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC), result.GeneratedAt)

	// 12 * 349.17 + 4 * 562.50
	assert.Equal(t, "6440.04", result.ScheduleTotal().StringFixed(2))
	totals := result.MonthlyTotals()
	require.Len(t, totals, 12)
	assert.Equal(t, "2024-06-30", totals[0].PayDate.String())
	assert.Equal(t, "911.67", totals[0].Amount.StringFixed(2))
}

func TestPlanner_PlanEqualSplitSelection(t *testing.T) {
	req := domain.PlanRequest{
		Investment: decimal.NewFromInt(100000),
		State:      "Texas",
		Selection:  []string{"JEPI", "SPYD"},
	}
	result, err := fixedPlanner().Plan(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "6440.00", result.Summary.GrossAnnual.StringFixed(2))
	// default taxable income of 145k lands in the 24% bracket
	assert.Equal(t, "24%", result.Summary.FederalRatePercent())
}

func TestPlanner_PlanEmptyBasket(t *testing.T) {
	result, err := fixedPlanner().Plan(context.Background(), domain.PlanRequest{Investment: decimal.NewFromInt(1000), State: "Texas"})
	require.NoError(t, err)
	assert.True(t, result.Summary.IsEmpty())
	assert.Empty(t, result.Schedule)
	assert.Equal(t, []string{"No distributions available for the selected ETFs."}, result.Warnings)
}

func TestPlanner_PlanUnknownTicker(t *testing.T) {
	req := texasRequest()
	req.Weights = map[string]decimal.Decimal{"JEPI": decimal.NewFromInt(50), "ZZZZ": decimal.NewFromInt(50)}
	_, err := fixedPlanner().Plan(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReferenceDataMissing))
	assert.Contains(t, err.Error(), "income simulation failed")
}

func TestPlanner_PerformanceOverlay(t *testing.T) {
	t.Run("no price source", func(t *testing.T) {
		req := texasRequest()
		req.Performance = &domain.PerformanceWindow{}
		result, err := fixedPlanner().Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, result.Performance)
		assert.Equal(t, []string{"performance overlay skipped: no price source configured"}, result.Warnings)
	})

	t.Run("overlay failure becomes a warning", func(t *testing.T) {
		req := texasRequest()
		req.Performance = &domain.PerformanceWindow{}
		logger := &recordingLogger{}
		p := fixedPlanner()
		p.SetLogger(logger)
		p.Prices = &fakePrices{closes: map[string][]string{}}

		result, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		assert.Nil(t, result.Performance)
		assert.Equal(t, "5667.20", result.Summary.NetAnnual.StringFixed(2), "income results survive the failure")
		require.NotEmpty(t, result.Warnings)
		assert.Contains(t, result.Warnings[len(result.Warnings)-1], "performance overlay unavailable")
		assert.NotEmpty(t, logger.warnings)
	})

	t.Run("partial data", func(t *testing.T) {
		req := texasRequest()
		req.Performance = &domain.PerformanceWindow{}
		p := fixedPlanner()
		p.Prices = &fakePrices{closes: map[string][]string{"JEPI": {"100", "110", "121"}}}

		result, err := p.Plan(context.Background(), req)
		require.NoError(t, err)
		require.NotNil(t, result.Performance)
		assert.Equal(t, "10.25", result.Performance.TotalReturnPercent.String())
		assert.Equal(t, "2025-03-01", result.Performance.Window.End.String(), "end defaults to the planner's today")
		require.Len(t, result.Warnings, 1)
		assert.Contains(t, result.Warnings[0], "SPYD")
	})
}

func TestPlanner_PerformanceWithoutSource(t *testing.T) {
	_, err := fixedPlanner().Performance(context.Background(), domain.PerformanceRequest{Weights: weights("JEPI", "1")})
	assert.ErrorIs(t, err, ErrNoPriceData)
}

func TestPlanner_SetLoggerNil(t *testing.T) {
	p := NewPlanner(nil)
	p.SetLogger(nil)
	assert.IsType(t, NopLogger{}, p.Logger)
}
