package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// GuardConfig tunes the limiter and breaker placed in front of a remote source.
type GuardConfig struct {
	RequestsPerSecond   float64
	Burst               int
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultGuardConfig stays under Alpaca's free-plan quota of 200 requests a minute.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		RequestsPerSecond:   3,
		Burst:               5,
		ConsecutiveFailures: 5,
		OpenTimeout:         30 * time.Second,
	}
}

// Guard rate-limits calls to a source and stops calling it for a while after
// repeated failures.
type Guard struct {
	next    calculation.PriceSource
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

var _ calculation.PriceSource = (*Guard)(nil)

// NewGuard wraps next. Zero fields in cfg take the defaults.
func NewGuard(name string, next calculation.PriceSource, cfg GuardConfig) *Guard {
	def := DefaultGuardConfig()
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = def.ConsecutiveFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("source", name).Str("from", from.String()).Str("to", to.String()).Msg("price source breaker changed state")
		},
		// unknown tickers and cancelled requests say nothing about the source's health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnknownSymbol) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
	}

	return &Guard{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *Guard) History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return g.next.History(ctx, ticker, start, end, interval)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, g.breaker.Name(), err)
	}
	if err != nil {
		return nil, err
	}
	return out.([]domain.PricePoint), nil
}

// State reports the breaker state: "closed", "half-open" or "open".
func (g *Guard) State() string {
	return g.breaker.State().String()
}
