package market

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedSource(t *testing.T) {
	ctx := context.Background()
	start := dateutil.MustParseDate("2024-01-01")
	end := dateutil.MustParseDate("2024-12-31")
	next := &stubSource{points: []domain.PricePoint{point("2024-01-31", "10"), point("2024-02-29", "11")}}
	c := NewCachedSource(next, time.Hour)

	first, err := c.History(ctx, "JEPI", start, end, domain.IntervalMonthly)
	require.NoError(t, err)
	second, err := c.History(ctx, "JEPI", start, end, domain.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.Calls())
	assert.Equal(t, 1, c.Len())

	// mutating a returned slice leaves the cached copy alone
	second[0].Date = time.Time{}
	third, err := c.History(ctx, "JEPI", start, end, domain.IntervalMonthly)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", third[0].Date.Format(dateutil.DateLayout))

	_, err = c.History(ctx, "JEPI", start, end, domain.IntervalWeekly)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Calls(), "interval is part of the key")
}

func TestCachedSource_ErrorsAreNotCached(t *testing.T) {
	next := &stubSource{err: errors.New("timeout")}
	c := NewCachedSource(next, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := c.History(context.Background(), "JEPI", time.Time{}, time.Time{}, domain.IntervalMonthly)
		assert.Error(t, err)
	}
	assert.Equal(t, 2, next.Calls())
	assert.Equal(t, 0, c.Len())
}
