package output

import (
	"fmt"

	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetSummary  = "Income Summary"
	SheetSchedule = "Distribution Schedule"
)

// XLSXFormatter writes a workbook with the income summary and the
// distribution schedule on separate sheets.
type XLSXFormatter struct{}

func (x XLSXFormatter) Name() string { return "xlsx" }

func (x XLSXFormatter) Format(result *domain.PlanResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSchedule); err != nil {
		return nil, fmt.Errorf("failed to add schedule sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetSummary, "A1", &[]any{"Metric", "Value"}); err != nil {
		return nil, err
	}
	for i, m := range result.Summary.Metrics() {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetSummary, cell, &[]any{m.Name, cellValue(m.Value)}); err != nil {
			return nil, err
		}
	}

	if err := f.SetSheetRow(SheetSchedule, "A1", &[]any{headerTicker, headerDate, headerAmount}); err != nil {
		return nil, err
	}
	for i, ev := range result.Schedule {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetSchedule, cell, &[]any{ev.Ticker, ev.PayDate.String(), ev.Amount.InexactFloat64()}); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(SheetSummary, "A", "A", 28)
	_ = f.SetColWidth(SheetSchedule, "B", "C", 26)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// cellValue stores numeric metrics as numbers and keeps "12%" style text.
func cellValue(v string) any {
	if d, err := decimal.NewFromString(v); err == nil {
		return d.InexactFloat64()
	}
	return v
}
