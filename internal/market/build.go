package market

import (
	"time"

	"github.com/rpgo/etf-income-planner/internal/calculation"
)

// Options selects which price sources Build wires together.
type Options struct {
	PriceDir  string
	UseAlpaca bool
	CacheTTL  time.Duration
	Guard     GuardConfig
}

// Build assembles the configured sources: local CSV files first, then Alpaca
// behind a cache and a guard. It returns nil when nothing is configured.
func Build(opts Options) calculation.PriceSource {
	var sources []calculation.PriceSource
	if opts.PriceDir != "" {
		sources = append(sources, NewCSVSource(opts.PriceDir))
	}
	if opts.UseAlpaca {
		var remote calculation.PriceSource = NewGuard("alpaca", NewAlpacaSource(), opts.Guard)
		if opts.CacheTTL > 0 {
			remote = NewCachedSource(remote, opts.CacheTTL)
		}
		sources = append(sources, remote)
	}
	switch len(sources) {
	case 0:
		return nil
	case 1:
		return sources[0]
	default:
		return NewFallback(sources...)
	}
}
