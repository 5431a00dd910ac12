// Package market supplies historical closing prices for the performance
// overlay. Every source implements calculation.PriceSource.
package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
)

var (
	// ErrUnknownSymbol is returned when a source has no series for a ticker.
	ErrUnknownSymbol = errors.New("unknown symbol")
	// ErrSourceUnavailable is returned while a guarded source is tripped or throttled.
	ErrSourceUnavailable = errors.New("price source unavailable")
)

// Fallback tries each source in order and returns the first non-empty series.
type Fallback struct {
	Sources []calculation.PriceSource
}

var _ calculation.PriceSource = (*Fallback)(nil)

// NewFallback builds a fallback chain, skipping nil sources.
func NewFallback(sources ...calculation.PriceSource) *Fallback {
	f := &Fallback{}
	for _, s := range sources {
		if s != nil {
			f.Sources = append(f.Sources, s)
		}
	}
	return f
}

func (f *Fallback) History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	if len(f.Sources) == 0 {
		return nil, fmt.Errorf("%w: no price sources configured", ErrSourceUnavailable)
	}
	var errs []error
	for _, src := range f.Sources {
		points, err := src.History(ctx, ticker, start, end, interval)
		if err == nil && len(points) > 0 {
			return points, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil {
			err = fmt.Errorf("empty series for %s", ticker)
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
