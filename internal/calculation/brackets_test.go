package calculation

import (
	"testing"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolveFederalRate checks the 2024 single-filer table boundaries
func TestResolveFederalRate(t *testing.T) {
	tests := []struct {
		name     string
		income   int64
		expected string
	}{
		{"negative income uses lowest bracket", -5000, "0.10"},
		{"zero income", 0, "0.10"},
		{"top of 10% bracket is inclusive", 11600, "0.10"},
		{"one dollar over moves up", 11601, "0.12"},
		{"middle of 12% bracket", 47150, "0.12"},
		{"default UI income", 145000, "0.24"},
		{"top of 35% bracket", 609350, "0.35"},
		{"above every threshold", 1_000_000, "0.37"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveFederalRate(decimal.NewFromInt(tt.income))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"income %d: expected %s, got %s", tt.income, tt.expected, got)
		})
	}
}

func TestResolveFederalRate_FractionalIncome(t *testing.T) {
	assert.True(t, ResolveFederalRate(decimal.RequireFromString("11600.01")).Equal(decimal.RequireFromString("0.12")))
}

func TestNewBracketResolver_FallbackAndOverride(t *testing.T) {
	r, err := NewBracketResolver(nil, nil)
	require.NoError(t, err)
	assert.Len(t, r.Brackets, 6)
	assert.True(t, r.TopRate.Equal(decimal.RequireFromString("0.37")))

	top := decimal.RequireFromString("0.30")
	custom, err := NewBracketResolver([]domain.BracketConfig{
		{UpTo: decimal.NewFromInt(10000), Rate: decimal.RequireFromString("0.05")},
		{UpTo: decimal.NewFromInt(50000), Rate: decimal.RequireFromString("0.15")},
	}, &top)
	require.NoError(t, err)
	assert.True(t, custom.Resolve(decimal.NewFromInt(10000)).Equal(decimal.RequireFromString("0.05")))
	assert.True(t, custom.Resolve(decimal.NewFromInt(20000)).Equal(decimal.RequireFromString("0.15")))
	assert.True(t, custom.Resolve(decimal.NewFromInt(50001)).Equal(top))
}

func TestNewBracketResolver_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		brackets []domain.BracketConfig
		top      *decimal.Decimal
	}{
		{
			name: "thresholds not increasing",
			brackets: []domain.BracketConfig{
				{UpTo: decimal.NewFromInt(50000), Rate: decimal.RequireFromString("0.1")},
				{UpTo: decimal.NewFromInt(50000), Rate: decimal.RequireFromString("0.2")},
			},
		},
		{
			name:     "rate of one",
			brackets: []domain.BracketConfig{{UpTo: decimal.NewFromInt(1), Rate: decimal.NewFromInt(1)}},
		},
		{
			name: "negative top rate",
			top:  func() *decimal.Decimal { d := decimal.RequireFromString("-0.1"); return &d }(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBracketResolver(tt.brackets, tt.top)
			assert.Error(t, err)
		})
	}
}
