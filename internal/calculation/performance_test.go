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

// fakePrices serves fixed monthly closes starting at 2024-01-31.
type fakePrices struct {
	closes map[string][]string
	fail   map[string]error
	calls  []string
}

func (f *fakePrices) History(_ context.Context, ticker string, _, _ time.Time, _ domain.Interval) ([]domain.PricePoint, error) {
	f.calls = append(f.calls, ticker)
	if err, ok := f.fail[ticker]; ok {
		return nil, err
	}
	values, ok := f.closes[ticker]
	if !ok {
		return nil, fmt.Errorf("unknown symbol %s", ticker)
	}
	start := mustDate("2024-01-31")
	out := make([]domain.PricePoint, len(values))
	for i, v := range values {
		out[i] = domain.PricePoint{
			Date:  time.Date(start.Year(), start.Month()+time.Month(i)+1, 0, 0, 0, 0, 0, time.UTC),
			Close: decimal.RequireFromString(v),
		}
	}
	return out, nil
}

func perfRequest(w domain.WeightMap, renormalize bool) domain.PerformanceRequest {
	return domain.PerformanceRequest{
		Weights: w,
		Window: domain.PerformanceWindow{
			Start:       domain.NewDate(mustDate("2024-01-01")),
			End:         domain.NewDate(mustDate("2024-12-31")),
			Interval:    domain.IntervalMonthly,
			Renormalize: renormalize,
		},
	}
}

func TestComputePerformance_WeightedGrowth(t *testing.T) {
	src := &fakePrices{closes: map[string][]string{
		"JEPI": {"100", "110", "121"},
		"SPYD": {"50", "50", "55"},
	}}

	result, err := ComputePerformance(context.Background(), src, perfRequest(weights("JEPI", "0.5", "SPYD", "0.5"), false), nil)
	require.NoError(t, err)

	require.Len(t, result.Points, 2, "first date has no prior close")
	assert.Equal(t, "2024-02-29", result.Points[0].Date.String())
	assert.Equal(t, "0.05", result.Points[0].Return.String())
	assert.Equal(t, "1.05", result.Points[0].Growth.String())
	assert.Equal(t, "1.155", result.Points[1].Growth.String())
	assert.Equal(t, "15.5", result.TotalReturnPercent.String())
	assert.Equal(t, []string{"JEPI", "SPYD"}, result.Included)
	assert.Empty(t, result.Skipped)
	assert.Empty(t, result.Warnings)
}

func TestComputePerformance_SkippedTicker(t *testing.T) {
	tests := []struct {
		name        string
		renormalize bool
		expected    string
	}{
		{"requested weights under-count", false, "10.25"},
		{"renormalized weights", true, "21"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakePrices{
				closes: map[string][]string{"JEPI": {"100", "110", "121"}},
				fail:   map[string]error{"SPYD": errors.New("rate limited")},
			}
			result, err := ComputePerformance(context.Background(), src, perfRequest(weights("JEPI", "0.5", "SPYD", "0.5"), tt.renormalize), nil)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, result.TotalReturnPercent.String())
			assert.Equal(t, []string{"JEPI"}, result.Included)
			assert.Equal(t, []string{"SPYD"}, result.Skipped)
			require.Len(t, result.Warnings, 1)
			assert.Contains(t, result.Warnings[0], "no price data for SPYD")
		})
	}
}

func TestComputePerformance_AlignsOnCommonDates(t *testing.T) {
	// SPYD is missing the last month, so only the first two dates are shared
	src := &fakePrices{closes: map[string][]string{
		"JEPI": {"100", "110", "121"},
		"SPYD": {"50", "55"},
	}}
	result, err := ComputePerformance(context.Background(), src, perfRequest(weights("JEPI", "0.5", "SPYD", "0.5"), false), nil)
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
	assert.Equal(t, "10", result.TotalReturnPercent.String())
}

func TestComputePerformance_SkipsNonPositiveWeights(t *testing.T) {
	src := &fakePrices{closes: map[string][]string{"JEPI": {"100", "110"}}}
	_, err := ComputePerformance(context.Background(), src, perfRequest(weights("JEPI", "1", "SPYD", "0"), false), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"JEPI"}, src.calls)
}

func TestComputePerformance_NoData(t *testing.T) {
	tests := []struct {
		name   string
		closes map[string][]string
	}{
		{"every source fails", map[string][]string{}},
		{"single point series", map[string][]string{"JEPI": {"100"}, "SPYD": {"50"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakePrices{closes: tt.closes}
			_, err := ComputePerformance(context.Background(), src, perfRequest(weights("JEPI", "0.5", "SPYD", "0.5"), false), nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoPriceData))
		})
	}
}

func TestComputePerformance_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakePrices{closes: map[string][]string{"JEPI": {"100", "110"}}}
	_, err := ComputePerformance(ctx, src, perfRequest(weights("JEPI", "1"), false), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComputePerformance_DefaultWindow(t *testing.T) {
	src := &fakePrices{closes: map[string][]string{"JEPI": {"100", "110"}}}
	result, err := ComputePerformance(context.Background(), src, domain.PerformanceRequest{Weights: weights("JEPI", "1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2019-01-01", result.Window.Start.String())
	assert.Equal(t, domain.IntervalMonthly, result.Window.Interval)
	assert.False(t, result.Window.End.IsZero())
}

func TestComputePerformance_DefaultEndFollowsClock(t *testing.T) {
	SetNowFunc(func() time.Time { return time.Date(2024, 7, 4, 15, 30, 0, 0, time.UTC) })
	t.Cleanup(func() { SetNowFunc(time.Now) })

	src := &fakePrices{closes: map[string][]string{"JEPI": {"100", "110"}}}
	result, err := ComputePerformance(context.Background(), src, domain.PerformanceRequest{Weights: weights("JEPI", "1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-07-04", result.Window.End.String())
	assert.Equal(t, "2024-07-04", NewPlanner(nil).Now().Format("2006-01-02"))
}
