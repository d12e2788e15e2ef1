package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes tabular report data as RFC 4180 CSV.
type CSVExporter struct{}

func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType returns the MIME type for CSV downloads.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Export writes the header row followed by each data row.
func (e *CSVExporter) Export(w io.Writer, headers []string, rows [][]string) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// StreamWriter exposes incremental row writing for large exports so the
// full result set never has to be buffered in memory.
type StreamWriter struct {
	cw      *csv.Writer
	columns int
}

// NewStreamWriter writes the header immediately and returns a writer
// that accepts one row at a time.
func (e *CSVExporter) NewStreamWriter(w io.Writer, headers []string) (*StreamWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	return &StreamWriter{cw: cw, columns: len(headers)}, nil
}

// WriteRow appends a single data row.
func (s *StreamWriter) WriteRow(row []string) error {
	if len(row) != s.columns {
		return fmt.Errorf("expected %d columns, got %d", s.columns, len(row))
	}
	return s.cw.Write(row)
}

// Close flushes buffered rows and reports any deferred write error.
func (s *StreamWriter) Close() error {
	s.cw.Flush()
	return s.cw.Error()
}
