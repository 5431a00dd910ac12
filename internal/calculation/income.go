package calculation

import (
	"github.com/rpgo/etf-income-planner/internal/domain"
	money "github.com/rpgo/etf-income-planner/pkg/decimal"
	"github.com/shopspring/decimal"
)

// INCOME ESTIMATE ASSUMPTIONS:
//
// 1. The basket yield is sum(weight * yield). Weights are used as given; if
//    they do not sum to one the result is a scaled sum, not an average.
// 2. Federal and state rates are added and applied once to gross income.
// 3. Money is rounded half-to-even to cents only when the summary is built.

// Simulate estimates gross and net distribution income for a basket.
//
// An empty weight map yields the zero summary and no error. Zero weights are
// ignored; any other weight on an unknown ticker fails with
// ErrReferenceDataMissing. Unknown states fall back to the default state rate.
func Simulate(ref *ReferenceData, investment decimal.Decimal, weights domain.WeightMap, state string, taxableIncome decimal.Decimal) (domain.IncomeSummary, error) {
	if len(weights) == 0 {
		return domain.IncomeSummary{}, nil
	}

	basketYield := decimal.Zero
	for _, ticker := range weights.Tickers() {
		weight := weights[ticker]
		if weight.IsZero() {
			continue
		}
		etf, err := ref.ETF(ticker)
		if err != nil {
			return domain.IncomeSummary{}, err
		}
		basketYield = basketYield.Add(weight.Mul(etf.Yield))
	}

	grossAnnual := money.NewMoneyFromDecimal(investment).Mul(basketYield)
	grossMonthly := grossAnnual.Monthly()

	federalRate := ref.Federal.Resolve(taxableIncome)
	stateRate := ref.StateRate(state)

	netAnnual := grossAnnual.ApplyTaxRate(federalRate.Add(stateRate))
	netMonthly := netAnnual.Monthly()

	return domain.IncomeSummary{
		AverageYieldPercent: money.Percent(basketYield),
		GrossMonthly:        grossMonthly.Round().Decimal,
		GrossAnnual:         grossAnnual.Round().Decimal,
		FederalRate:         federalRate,
		StateRate:           stateRate,
		NetMonthly:          netMonthly.Round().Decimal,
		NetAnnual:           netAnnual.Round().Decimal,
		Populated:           true,
	}, nil
}
