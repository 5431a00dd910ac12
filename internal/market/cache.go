package market

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
)

// CachedSource memoizes successful lookups of another source. Errors are not cached.
type CachedSource struct {
	next  calculation.PriceSource
	cache *cache.Cache
}

var _ calculation.PriceSource = (*CachedSource)(nil)

// NewCachedSource wraps next with an in-memory cache whose entries expire after ttl.
func NewCachedSource(next calculation.PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (c *CachedSource) History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	key := fmt.Sprintf("%s|%s|%s|%s", ticker, start.Format(dateutil.DateLayout), end.Format(dateutil.DateLayout), interval)
	if cached, found := c.cache.Get(key); found {
		return append([]domain.PricePoint(nil), cached.([]domain.PricePoint)...), nil
	}

	points, err := c.next.History(ctx, ticker, start, end, interval)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, append([]domain.PricePoint(nil), points...))
	return points, nil
}

// Len reports how many series are cached.
func (c *CachedSource) Len() int {
	return c.cache.ItemCount()
}
