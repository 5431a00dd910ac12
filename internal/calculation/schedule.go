package calculation

import (
	"sort"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	money "github.com/rpgo/etf-income-planner/pkg/decimal"
	"github.com/shopspring/decimal"
)

// GenerateSchedule projects one year of distribution payments for a weighted
// basket, ordered by pay date.
//
// Each ETF with a positive weight contributes investment*weight*yield a year,
// split evenly over its payments and rounded half-to-even to cents. Payment i
// lands on the last day of the month that is i*spacing months after the
// ETF's next pay date. Tickers are visited in ascending order and the final
// sort is stable, so payments on the same date stay in ticker order.
//
// Investment is not validated here. An unknown ticker fails with
// ErrReferenceDataMissing.
func GenerateSchedule(ref *ReferenceData, investment decimal.Decimal, weights domain.WeightMap) ([]domain.DistributionEvent, error) {
	events := []domain.DistributionEvent{}
	for _, ticker := range weights.Tickers() {
		weight := weights[ticker]
		if !weight.IsPositive() {
			continue
		}
		etf, err := ref.ETF(ticker)
		if err != nil {
			return nil, err
		}

		count := etf.Frequency.PaymentsPerYear()
		spacing := etf.Frequency.SpacingMonths()
		annual := money.NewMoneyFromDecimal(investment).Mul(weight).Mul(etf.Yield)
		payment := annual.Split(count).Round()

		for i := 0; i < count; i++ {
			payDate := dateutil.AddMonthsEndOfMonth(etf.NextPayDate.Time, spacing*i)
			events = append(events, domain.DistributionEvent{
				Ticker:  ticker,
				PayDate: domain.NewDate(payDate),
				Amount:  payment.Decimal,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].PayDate.Before(events[j].PayDate.Time)
	})
	return events, nil
}
