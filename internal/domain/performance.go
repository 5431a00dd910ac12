package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Interval is the sampling period of a price series.
type Interval string

const (
	IntervalDaily   Interval = "daily"
	IntervalWeekly  Interval = "weekly"
	IntervalMonthly Interval = "monthly"
)

// ParseInterval accepts daily, weekly or monthly (also the pandas-style 1d/1wk/1mo).
func ParseInterval(s string) (Interval, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "1d", "day":
		return IntervalDaily, nil
	case "weekly", "1wk", "week":
		return IntervalWeekly, nil
	case "monthly", "1mo", "month", "":
		return IntervalMonthly, nil
	default:
		return "", fmt.Errorf("unknown sampling interval %q (want daily, weekly or monthly)", s)
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (i *Interval) UnmarshalText(text []byte) error {
	parsed, err := ParseInterval(string(text))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

// DefaultPerformanceStart is the first day of the default overlay window.
var DefaultPerformanceStart = Date{time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC)}

// PerformanceWindow selects the historical overlay for a plan.
type PerformanceWindow struct {
	Start       Date     `yaml:"start,omitempty" json:"start,omitempty"`
	End         Date     `yaml:"end,omitempty" json:"end,omitempty"`
	Interval    Interval `yaml:"interval,omitempty" json:"interval,omitempty"`
	Renormalize bool     `yaml:"renormalize,omitempty" json:"renormalize,omitempty"`
}

// WithDefaults fills an unset start (2019-01-01), end (today) and interval (monthly).
func (w PerformanceWindow) WithDefaults(today time.Time) PerformanceWindow {
	if w.Start.IsZero() {
		w.Start = DefaultPerformanceStart
	}
	if w.End.IsZero() {
		w.End = NewDate(today)
	}
	if w.Interval == "" {
		w.Interval = IntervalMonthly
	}
	return w
}

// PerformanceRequest is the overlay input: weights plus a window.
type PerformanceRequest struct {
	Weights WeightMap
	Window  PerformanceWindow
}

// PricePoint is one closing price.
type PricePoint struct {
	Date  time.Time       `json:"date"`
	Close decimal.Decimal `json:"close"`
}

// PerformancePoint is one step of the weighted portfolio series.
type PerformancePoint struct {
	Date   Date            `json:"date"`
	Return decimal.Decimal `json:"return"`
	Growth decimal.Decimal `json:"growth"`
}

// PerformanceResult is the weighted cumulative return over the window.
type PerformanceResult struct {
	Window             PerformanceWindow  `json:"window"`
	Points             []PerformancePoint `json:"points"`
	TotalReturnPercent decimal.Decimal    `json:"total_return_percent"`
	Included           []string           `json:"included"`
	Skipped            []string           `json:"skipped,omitempty"`
	Warnings           []string           `json:"warnings,omitempty"`
}
