package market

import (
	"sort"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
)

// Resample keeps the last close of each period and labels it with the period
// end (Sunday for weeks, the last calendar day for months), so series from
// different tickers line up even when a trading day is missing from one of
// them. Daily series are only sorted.
func Resample(points []domain.PricePoint, interval domain.Interval) []domain.PricePoint {
	sorted := append([]domain.PricePoint(nil), points...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
	if interval == domain.IntervalDaily {
		return sorted
	}

	var out []domain.PricePoint
	for _, p := range sorted {
		label := periodEnd(p.Date, interval)
		if n := len(out); n > 0 && out[n-1].Date.Equal(label) {
			out[n-1].Close = p.Close
			continue
		}
		out = append(out, domain.PricePoint{Date: label, Close: p.Close})
	}
	return out
}

func periodEnd(t time.Time, interval domain.Interval) time.Time {
	day := domain.NewDate(t).Time
	if interval == domain.IntervalWeekly {
		offset := (7 - int(day.Weekday())) % 7
		return day.AddDate(0, 0, offset)
	}
	return dateutil.EndOfMonth(day)
}

// window keeps points with start <= date <= end. A zero end is open.
func window(points []domain.PricePoint, start, end time.Time) []domain.PricePoint {
	var out []domain.PricePoint
	for _, p := range points {
		if !start.IsZero() && p.Date.Before(start) {
			continue
		}
		if !end.IsZero() && p.Date.After(end) {
			continue
		}
		out = append(out, p)
	}
	return out
}
