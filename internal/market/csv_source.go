package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/pkg/dateutil"
	"github.com/shopspring/decimal"
)

// CSVSource reads daily closes from <DataPath>/<TICKER>.csv. The file needs a
// header naming a Date column and an "Adj Close" or "Close" column, which is
// what a Yahoo Finance download looks like. A header without those names falls
// back to date in the first column and close in the second.
type CSVSource struct {
	DataPath string
}

var _ calculation.PriceSource = (*CSVSource)(nil)

// NewCSVSource creates a source over a directory of price files.
func NewCSVSource(dataPath string) *CSVSource {
	return &CSVSource{DataPath: dataPath}
}

func (s *CSVSource) History(ctx context.Context, ticker string, start, end time.Time, interval domain.Interval) ([]domain.PricePoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filePath := filepath.Join(s.DataPath, strings.ToUpper(ticker)+".csv")
	points, err := loadCSVPrices(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no price file for %s", ErrUnknownSymbol, ticker)
		}
		return nil, err
	}
	return Resample(window(points, start, end), interval), nil
}

// loadCSVPrices loads closing prices from a CSV file
func loadCSVPrices(filePath string) ([]domain.PricePoint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	// Read header
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("invalid CSV format: expected at least 2 columns")
	}
	dateCol, closeCol := priceColumns(header)

	var points []domain.PricePoint
	// Read data rows
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read data row: %w", err)
		}
		if len(record) <= dateCol || len(record) <= closeCol {
			continue // Skip malformed rows
		}

		raw := strings.TrimSpace(record[dateCol])
		if len(raw) > len(dateutil.DateLayout) {
			raw = raw[:len(dateutil.DateLayout)]
		}
		date, err := dateutil.ParseDate(raw)
		if err != nil {
			continue // Skip rows with invalid date
		}

		value, err := decimal.NewFromString(strings.TrimSpace(record[closeCol]))
		if err != nil || !value.IsPositive() {
			continue // Skip rows with invalid or missing close ("null" in Yahoo exports)
		}

		points = append(points, domain.PricePoint{Date: date, Close: value})
	}
	return points, nil
}

// priceColumns finds the date and close columns, preferring the adjusted close.
func priceColumns(header []string) (dateCol, closeCol int) {
	dateCol, closeCol = 0, 1
	foundClose := false
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "date", "timestamp":
			dateCol = i
		case "adj close", "adj_close", "adjclose":
			closeCol = i
			foundClose = true
		case "close":
			if !foundClose {
				closeCol = i
			}
		}
	}
	return dateCol, closeCol
}
