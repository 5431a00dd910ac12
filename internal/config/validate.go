package config

import (
	"fmt"
	"strings"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	// weightTolerance is how far, in percentage points, the weights may drift from 100.
	weightTolerance = decimal.NewFromInt(1)
	// allocationTolerance is the same bound on the fractional weight map.
	allocationTolerance = decimal.RequireFromString("0.01")
)

// ValidationError lists every problem found in a plan request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid plan request: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// ValidatePlanRequest checks a request before it reaches the planner. Unknown
// tickers are left to ValidateTickers or the reference data lookup. The
// returned error is a *ValidationError.
func (ip *InputParser) ValidatePlanRequest(req *domain.PlanRequest) error {
	return ValidatePlanRequest(req)
}

// ValidatePlanRequest is the package-level form of InputParser.ValidatePlanRequest.
func ValidatePlanRequest(req *domain.PlanRequest) error {
	if req == nil {
		return &ValidationError{Problems: []string{"plan request is required"}}
	}
	verr := &ValidationError{}

	if len(req.Tickers()) == 0 || !req.Investment.IsPositive() {
		verr.add("Please enter an investment amount and select at least one ETF.")
	}
	if req.TaxableIncome != nil && req.TaxableIncome.IsNegative() {
		verr.add("taxable income cannot be negative")
	}

	seen := make(map[string]bool, len(req.Selection))
	for _, t := range req.Selection {
		if seen[t] {
			verr.add("%s is selected more than once", t)
		}
		seen[t] = true
	}

	if len(req.Weights) > 0 {
		validateWeights(req, verr)
	} else if len(req.Tickers()) > 0 {
		if sum := req.WeightMap().Sum(); sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(allocationTolerance) {
			verr.add("selected ETFs cover %s%% of the investment, not 100%%", sum.Shift(2).RoundBank(2))
		}
	}

	if w := req.Performance; w != nil {
		if w.Interval != "" {
			if _, err := domain.ParseInterval(string(w.Interval)); err != nil {
				verr.add("%v", err)
			}
		}
		if !w.Start.IsZero() && !w.End.IsZero() && w.Start.After(w.End.Time) {
			verr.add("performance start %s is after end %s", w.Start, w.End)
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func validateWeights(req *domain.PlanRequest, verr *ValidationError) {
	hundred := decimal.NewFromInt(100)
	sum := decimal.Zero
	for _, t := range req.Tickers() {
		w, ok := req.Weights[t]
		if !ok {
			verr.add("no weight given for %s", t)
			continue
		}
		if w.IsNegative() || w.GreaterThan(hundred) {
			verr.add("weight for %s must be between 0 and 100, got %s", t, w)
		}
		sum = sum.Add(w)
	}
	if sum.Sub(hundred).Abs().GreaterThan(weightTolerance) {
		verr.add("weights must add up to 100%%, got %s%%", sum)
	}
}

// ValidateTickers reports every ticker with a positive weight that the
// reference data does not list. Callers facing user input run it before
// planning so a typo is a validation problem rather than a planner failure.
func ValidateTickers(req *domain.PlanRequest, ref *calculation.ReferenceData) error {
	verr := &ValidationError{}
	weights := req.WeightMap()
	for _, t := range weights.Tickers() {
		if !weights[t].IsPositive() {
			continue
		}
		if _, err := ref.ETF(t); err != nil {
			verr.add("unknown ETF %s; choose one of %s", t, strings.Join(ref.Tickers(), ", "))
		}
	}
	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}
