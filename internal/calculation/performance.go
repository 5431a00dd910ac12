package calculation

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// PERFORMANCE OVERLAY ASSUMPTIONS:
//
// 1. Series are aligned on the dates every retrieved ticker has a close for.
// 2. By default the requested weights are applied to the tickers that returned
//    data, without rescaling. Dropping a ticker therefore under-counts the
//    portfolio return. PerformanceWindow.Renormalize rescales instead.
// 3. Growth is compounded period by period and kept to 12 decimal places.

// PriceSource supplies historical closing prices.
type PriceSource interface {
	History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error)
}

const growthPrecision = 12

// ComputePerformance builds the weighted cumulative return of a basket over a
// window. Tickers with no usable prices are skipped with a warning; if none
// remain the error wraps ErrNoPriceData.
func ComputePerformance(ctx context.Context, src PriceSource, req domain.PerformanceRequest, logger Logger) (*domain.PerformanceResult, error) {
	if logger == nil {
		logger = NopLogger{}
	}
	window := req.Window.WithDefaults(nowFunc().UTC())
	result := &domain.PerformanceResult{Window: window}

	closes := make(map[string]map[time.Time]decimal.Decimal)
	for _, ticker := range req.Weights.Tickers() {
		if !req.Weights[ticker].IsPositive() {
			continue
		}
		series, err := src.History(ctx, ticker, window.Start.Time, window.End.Time, window.Interval)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err == nil && len(series) < 2 {
			err = fmt.Errorf("%d price points in window", len(series))
		}
		if err != nil {
			msg := fmt.Sprintf("no price data for %s: %v", ticker, err)
			logger.Warnf("%s", msg)
			result.Skipped = append(result.Skipped, ticker)
			result.Warnings = append(result.Warnings, msg)
			continue
		}
		byDate := make(map[time.Time]decimal.Decimal, len(series))
		for _, p := range series {
			byDate[domain.NewDate(p.Date).Time] = p.Close
		}
		closes[ticker] = byDate
		result.Included = append(result.Included, ticker)
	}

	if len(result.Included) == 0 {
		return nil, fmt.Errorf("%w: none of %s returned prices", ErrNoPriceData, strings.Join(req.Weights.Tickers(), ", "))
	}

	dates := commonDates(closes, result.Included)
	if len(dates) < 2 {
		return nil, fmt.Errorf("%w: fewer than two dates shared by %s", ErrNoPriceData, strings.Join(result.Included, ", "))
	}

	weights := make(map[string]decimal.Decimal, len(result.Included))
	total := decimal.Zero
	for _, t := range result.Included {
		weights[t] = req.Weights[t]
		total = total.Add(req.Weights[t])
	}
	if window.Renormalize && total.IsPositive() {
		for t, w := range weights {
			weights[t] = w.Div(total)
		}
	}

	one := decimal.NewFromInt(1)
	growth := one
	for i := 1; i < len(dates); i++ {
		periodReturn := decimal.Zero
		for _, t := range result.Included {
			prev := closes[t][dates[i-1]]
			if prev.IsZero() {
				continue
			}
			r := closes[t][dates[i]].Div(prev).Sub(one)
			periodReturn = periodReturn.Add(weights[t].Mul(r))
		}
		growth = growth.Mul(one.Add(periodReturn)).Round(growthPrecision)
		result.Points = append(result.Points, domain.PerformancePoint{
			Date:   domain.NewDate(dates[i]),
			Return: periodReturn.Round(growthPrecision),
			Growth: growth,
		})
	}
	result.TotalReturnPercent = growth.Sub(one).Mul(decimal.NewFromInt(100)).RoundBank(2)
	logger.Debugf("performance: %d points over %s, total return %s%%", len(result.Points), strings.Join(result.Included, ","), result.TotalReturnPercent)
	return result, nil
}

// commonDates returns the sorted dates present in every included series.
func commonDates(closes map[string]map[time.Time]decimal.Decimal, included []string) []time.Time {
	var dates []time.Time
	for d := range closes[included[0]] {
		shared := true
		for _, t := range included[1:] {
			if _, ok := closes[t][d]; !ok {
				shared = false
				break
			}
		}
		if shared {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
