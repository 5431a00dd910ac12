package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of plan and reference data files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads a plan request from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.PlanRequest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	req, err := ip.ParsePlanRequest(data)
	if err != nil {
		return nil, err
	}

	// Validate the request
	if err := ip.ValidatePlanRequest(req); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	return req, nil
}

// ParsePlanRequest decodes a plan request without validating it. JSON input
// is accepted since YAML is a superset.
func (ip *InputParser) ParsePlanRequest(data []byte) (*domain.PlanRequest, error) {
	var req domain.PlanRequest
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	NormalizeTickers(&req)
	return &req, nil
}

// NormalizeTickers upper-cases and trims the tickers of a request in place.
// Weights whose keys normalize to the same ticker are added together.
// Repeated selections are left for ValidatePlanRequest to report.
func NormalizeTickers(req *domain.PlanRequest) {
	for i, t := range req.Selection {
		req.Selection[i] = strings.ToUpper(strings.TrimSpace(t))
	}
	if len(req.Weights) > 0 {
		normalized := make(map[string]decimal.Decimal, len(req.Weights))
		for t, w := range req.Weights {
			key := strings.ToUpper(strings.TrimSpace(t))
			normalized[key] = normalized[key].Add(w)
		}
		req.Weights = normalized
	}
}

// LoadReferenceData reads a reference override file. Sections left out of the
// file keep the built-in values.
func (ip *InputParser) LoadReferenceData(filename string) (*calculation.ReferenceData, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var cfg domain.ReferenceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	ref, err := calculation.NewReferenceData(cfg)
	if err != nil {
		return nil, fmt.Errorf("reference data validation failed: %w", err)
	}
	return ref, nil
}

// CreateExamplePlan returns the sample request written by `incomeplan plan --example`.
func (ip *InputParser) CreateExamplePlan() *domain.PlanRequest {
	income := domain.DefaultTaxableIncome
	return &domain.PlanRequest{
		Investment:    decimal.NewFromInt(250000),
		TaxableIncome: &income,
		State:         "Texas",
		Weights: map[string]decimal.Decimal{
			"JEPI": decimal.NewFromInt(50),
			"SPYD": decimal.NewFromInt(50),
		},
	}
}

// MarshalPlan encodes a plan request as YAML.
func (ip *InputParser) MarshalPlan(req *domain.PlanRequest) ([]byte, error) {
	data, err := yaml.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}
	return data, nil
}
