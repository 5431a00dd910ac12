package output

import (
	"bytes"
	"encoding/csv"

	"github.com/rpgo/etf-income-planner/internal/domain"
)

// CSVScheduleExporter writes one row per projected distribution.
type CSVScheduleExporter struct{}

func (c CSVScheduleExporter) Name() string { return "csv" }

func (c CSVScheduleExporter) Format(result *domain.PlanResult) ([]byte, error) {
	return writeCSV([]string{headerTicker, headerDate, headerAmount}, scheduleRows(result))
}

// CSVSummaryExporter writes the income summary as metric/value rows.
type CSVSummaryExporter struct{}

func (c CSVSummaryExporter) Name() string { return "summary-csv" }

func (c CSVSummaryExporter) Format(result *domain.PlanResult) ([]byte, error) {
	var rows [][]string
	for _, m := range result.Summary.Metrics() {
		rows = append(rows, []string{m.Name, m.Value})
	}
	return writeCSV([]string{"Metric", "Value"}, rows)
}

func writeCSV(header []string, rows [][]string) ([]byte, error) {
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(header); err != nil {
		return nil, err
	}
	if err := w.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
