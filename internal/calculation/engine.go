package calculation

import (
	"context"
	"fmt"
	"time"

	"github.com/rpgo/etf-income-planner/internal/domain"
)

// Logger is a minimal logging interface for the planning engine.
// Implementations should be fast; the default is a no-op.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger implements Logger with no output.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// Planner runs the income simulation, the distribution schedule and, when a
// price source is configured, the performance overlay for one request.
type Planner struct {
	Reference *ReferenceData
	Prices    PriceSource // optional
	Logger    Logger
	Now       func() time.Time
}

// NewPlanner creates a planner over the given reference data. A nil ref uses
// the built-in tables.
func NewPlanner(ref *ReferenceData) *Planner {
	if ref == nil {
		ref = DefaultReferenceData()
	}
	return &Planner{
		Reference: ref,
		Logger:    NopLogger{},
		Now:       func() time.Time { return nowFunc() },
	}
}

// SetLogger sets the logger for the planner. If nil is provided, a no-op logger is used.
func (p *Planner) SetLogger(l Logger) {
	if l == nil {
		p.Logger = NopLogger{}
		return
	}
	p.Logger = l
}

// Plan computes the income summary and schedule for a request that the
// caller has already validated. A failing performance overlay is reported as
// a warning on the result, never as an error.
func (p *Planner) Plan(ctx context.Context, req domain.PlanRequest) (*domain.PlanResult, error) {
	weights := req.WeightMap()
	p.Logger.Debugf("plan: investment=%s state=%q income=%s weights=%v", req.Investment, req.State, req.Income(), weights)

	summary, err := Simulate(p.Reference, req.Investment, weights, req.State, req.Income())
	if err != nil {
		return nil, fmt.Errorf("income simulation failed: %w", err)
	}
	schedule, err := GenerateSchedule(p.Reference, req.Investment, weights)
	if err != nil {
		return nil, fmt.Errorf("distribution schedule failed: %w", err)
	}

	result := &domain.PlanResult{
		Request:     req,
		Summary:     summary,
		Schedule:    schedule,
		GeneratedAt: p.Now().UTC(),
	}
	if len(schedule) == 0 {
		result.Warnings = append(result.Warnings, "No distributions available for the selected ETFs.")
	}

	if req.Performance != nil {
		if p.Prices == nil {
			result.Warnings = append(result.Warnings, "performance overlay skipped: no price source configured")
			return result, nil
		}
		perf, err := p.Performance(ctx, domain.PerformanceRequest{Weights: weights, Window: *req.Performance})
		if err != nil {
			p.Logger.Warnf("performance overlay failed: %v", err)
			result.Warnings = append(result.Warnings, fmt.Sprintf("performance overlay unavailable: %v", err))
			return result, nil
		}
		result.Performance = perf
		result.Warnings = append(result.Warnings, perf.Warnings...)
	}
	return result, nil
}

// Performance runs the overlay on its own.
func (p *Planner) Performance(ctx context.Context, req domain.PerformanceRequest) (*domain.PerformanceResult, error) {
	if p.Prices == nil {
		return nil, fmt.Errorf("%w: no price source configured", ErrNoPriceData)
	}
	req.Window = req.Window.WithDefaults(p.Now().UTC())
	return ComputePerformance(ctx, p.Prices, req, p.Logger)
}
