package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is an ordered table ready to be rendered. Every row must have one
// cell per column.
type Dataset struct {
	Title   string
	Columns []string
	Rows    [][]string
}

func (d Dataset) validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("dataset requires at least one column")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(d.Columns))
		}
	}
	return nil
}

// CSVExporter renders a Dataset as RFC 4180 CSV with a header line.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset. The title is not written.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := writer.WriteAll(data.Rows); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
