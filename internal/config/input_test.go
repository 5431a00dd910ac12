package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewInputParser(t *testing.T) {
	parser := NewInputParser()
	assert.NotNil(t, parser)
}

func TestLoadFromFile_Success(t *testing.T) {
	path := writeTemp(t, "plan.yaml", "investment: 100000\n"+
		"taxable_income: 45000\n"+
		"state: Texas\n"+
		"weights:\n"+
		"  jepi: 50\n"+
		"  SPYD: 50\n"+
		"performance:\n"+
		"  start: 2023-01-01\n"+
		"  end: 2023-12-31\n"+
		"  interval: 1wk\n")

	req, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	assert.True(t, req.Investment.Equal(decimal.NewFromInt(100000)))
	assert.True(t, req.Income().Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, "Texas", req.State)
	assert.Equal(t, []string{"JEPI", "SPYD"}, req.Tickers(), "tickers are upper-cased")
	require.NotNil(t, req.Performance)
	assert.Equal(t, "2023-01-01", req.Performance.Start.String())
	assert.Equal(t, domain.IntervalWeekly, req.Performance.Interval)

	w := req.WeightMap()
	assert.True(t, w["JEPI"].Equal(decimal.RequireFromString("0.5")))
}

func TestLoadFromFile_JSON(t *testing.T) {
	path := writeTemp(t, "plan.json", `{"investment": "250000", "state": "Ohio", "selection": ["JEPI", "QYLD", "BND"]}`)

	req, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, req.Income().Equal(domain.DefaultTaxableIncome), "income defaults when omitted")
	assert.Len(t, req.WeightMap(), 3)
}

func TestLoadFromFile_FileNotFound(t *testing.T) {
	req, err := NewInputParser().LoadFromFile("nonexistent_file.yaml")
	assert.Error(t, err)
	assert.Nil(t, req)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "bad.yaml", "investment: [100\n")
	_, err := NewInputParser().LoadFromFile(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadFromFile_ValidationFailure(t *testing.T) {
	path := writeTemp(t, "plan.yaml", "investment: 0\nstate: Texas\n")
	_, err := NewInputParser().LoadFromFile(path)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Problems, "Please enter an investment amount and select at least one ETF.")
}

func TestLoadReferenceData(t *testing.T) {
	path := writeTemp(t, "reference.yaml", "etfs:\n"+
		"  - ticker: DIVO\n"+
		"    yield: 0.047\n"+
		"    frequency: monthly\n"+
		"    next_pay_date: 2025-01-31\n"+
		"state_rates:\n"+
		"  Oregon: 0.099\n"+
		"federal_brackets:\n"+
		"  - up_to: 20000\n"+
		"    rate: 0.10\n"+
		"federal_top_rate: 0.30\n")

	ref, err := NewInputParser().LoadReferenceData(path)
	require.NoError(t, err)

	etf, err := ref.ETF("DIVO")
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyMonthly, etf.Frequency)
	assert.Equal(t, "2025-01-31", etf.NextPayDate.String())
	assert.True(t, ref.StateRate("Oregon").Equal(decimal.RequireFromString("0.099")))
	assert.True(t, ref.Federal.Resolve(decimal.NewFromInt(20001)).Equal(decimal.RequireFromString("0.30")))

	_, err = ref.ETF("JEPI")
	assert.True(t, errors.Is(err, calculation.ErrReferenceDataMissing), "ETF list replaces the defaults")
}

func TestLoadReferenceData_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"bad frequency", "etfs:\n  - ticker: X\n    yield: 0.1\n    frequency: weekly\n    next_pay_date: 2025-01-31\n", "failed to parse YAML"},
		{"bad date", "etfs:\n  - ticker: X\n    yield: 0.1\n    frequency: monthly\n    next_pay_date: soon\n", "failed to parse YAML"},
		{"negative yield", "etfs:\n  - ticker: X\n    yield: -0.1\n    frequency: monthly\n    next_pay_date: 2025-01-31\n", "reference data validation failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTemp(t, "reference.yaml", tt.content)
			_, err := NewInputParser().LoadReferenceData(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestCreateExamplePlan_RoundTrip(t *testing.T) {
	parser := NewInputParser()
	example := parser.CreateExamplePlan()
	require.NoError(t, parser.ValidatePlanRequest(example))

	data, err := parser.MarshalPlan(example)
	require.NoError(t, err)
	path := writeTemp(t, "example.yaml", string(data))

	loaded, err := parser.LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, loaded.Investment.Equal(example.Investment))
	assert.Equal(t, example.Tickers(), loaded.Tickers())
}
