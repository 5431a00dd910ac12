package market

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource returns points or err and counts calls.
type stubSource struct {
	mu     sync.Mutex
	points []domain.PricePoint
	err    error
	calls  int
}

func (s *stubSource) History(context.Context, string, time.Time, time.Time, domain.Interval) ([]domain.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.points, nil
}

func (s *stubSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func point(date, close string) domain.PricePoint {
	return domain.PricePoint{Date: dateutil.MustParseDate(date), Close: decimal.RequireFromString(close)}
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	good := &stubSource{points: []domain.PricePoint{point("2024-01-31", "10")}}
	bad := &stubSource{err: errors.New("offline")}
	empty := &stubSource{}

	points, err := NewFallback(bad, nil, empty, good).History(ctx, "JEPI", time.Time{}, time.Time{}, domain.IntervalMonthly)
	require.NoError(t, err)
	assert.Len(t, points, 1)
	assert.Equal(t, 1, bad.Calls())
	assert.Equal(t, 1, empty.Calls())

	_, err = NewFallback(bad, empty).History(ctx, "JEPI", time.Time{}, time.Time{}, domain.IntervalMonthly)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offline")
	assert.Contains(t, err.Error(), "empty series for JEPI")

	_, err = NewFallback().History(ctx, "JEPI", time.Time{}, time.Time{}, domain.IntervalMonthly)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestResample(t *testing.T) {
	daily := []domain.PricePoint{
		point("2024-02-01", "11"),
		point("2024-01-30", "9"),
		point("2024-01-31", "10"),
		point("2024-02-28", "12"),
		point("2024-03-28", "13"), // last trading day of March 2024
	}

	monthly := Resample(daily, domain.IntervalMonthly)
	require.Len(t, monthly, 3)
	assert.Equal(t, "2024-01-31", monthly[0].Date.Format(dateutil.DateLayout))
	assert.Equal(t, "10", monthly[0].Close.String())
	assert.Equal(t, "2024-02-29", monthly[1].Date.Format(dateutil.DateLayout))
	assert.Equal(t, "12", monthly[1].Close.String())
	assert.Equal(t, "2024-03-31", monthly[2].Date.Format(dateutil.DateLayout))

	weekly := Resample(daily, domain.IntervalWeekly)
	// Jan 30 to Feb 1 2024 share the week ending Sunday Feb 4
	assert.Equal(t, "2024-02-04", weekly[0].Date.Format(dateutil.DateLayout))
	assert.Equal(t, "11", weekly[0].Close.String())

	sorted := Resample(daily, domain.IntervalDaily)
	require.Len(t, sorted, 5)
	assert.Equal(t, "2024-01-30", sorted[0].Date.Format(dateutil.DateLayout))
	assert.Equal(t, "2024-02-01", daily[0].Date.Format(dateutil.DateLayout), "input is not reordered")
}

func TestBuild(t *testing.T) {
	assert.Nil(t, Build(Options{}))
	assert.IsType(t, &CSVSource{}, Build(Options{PriceDir: t.TempDir()}))
}
