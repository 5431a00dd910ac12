package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
)

// barsClient is the slice of the Alpaca market data client used here.
type barsClient interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaSource reads split and dividend adjusted bars from Alpaca.
type AlpacaSource struct {
	client barsClient
	feed   marketdata.Feed
}

// Ensure AlpacaSource implements the interface
var _ calculation.PriceSource = (*AlpacaSource)(nil)

// NewAlpacaSource returns a source on the IEX feed. The client picks up
// APCA_API_KEY_ID and APCA_API_SECRET_KEY from the environment.
func NewAlpacaSource() *AlpacaSource {
	return &AlpacaSource{
		client: marketdata.NewClient(marketdata.ClientOpts{}),
		feed:   marketdata.IEX,
	}
}

func (s *AlpacaSource) History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol := strings.ToUpper(ticker)
	bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  timeFrame(interval),
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
		Feed:       s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: alpaca returned no bars for %s", ErrUnknownSymbol, symbol)
	}

	points := make([]domain.PricePoint, 0, len(bars))
	for _, b := range bars {
		points = append(points, domain.PricePoint{
			Date:  b.Timestamp.UTC(),
			Close: decimal.NewFromFloat(b.Close),
		})
	}
	// bar timestamps open the period; relabel to period ends like the CSV source
	return Resample(points, interval), nil
}

func timeFrame(interval domain.Interval) marketdata.TimeFrame {
	switch interval {
	case domain.IntervalDaily:
		return marketdata.OneDay
	case domain.IntervalWeekly:
		return marketdata.NewTimeFrame(1, marketdata.Week)
	default:
		return marketdata.NewTimeFrame(1, marketdata.Month)
	}
}
