// Package results persists benchmark rows as CSV.
package results

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/hashicorp/go-multierror"

	"kembench/pkg/bench"
)

// Header is the first record of every results file.
var Header = []string{"algorithm", "operation", "cycles"}

// CSVWriter writes rows as algorithm,operation,cycles records.
type CSVWriter struct {
	w      *csv.Writer
	closer io.Closer
}

// Create truncates or creates path and writes the header.
func Create(path string) (*CSVWriter, error) {
	// #nosec G304 - path comes from the run configuration
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create results file: %w", err)
	}

	w, err := NewCSVWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	w.closer = f
	return w, nil
}

// NewCSVWriter writes the header to w and returns a writer for rows.
// Close does not close w.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(Header); err != nil {
		return nil, fmt.Errorf("failed to write results header: %w", err)
	}
	return cw, nil
}

func (w *CSVWriter) Write(rows []bench.Row) error {
	for _, row := range rows {
		record := []string{row.Algorithm, row.Op.String(), strconv.FormatUint(row.Cycles, 10)}
		if err := w.w.Write(record); err != nil {
			return fmt.Errorf("failed to write results row: %w", err)
		}
	}
	return nil
}

func (w *CSVWriter) Flush() error {
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return fmt.Errorf("failed to flush results: %w", err)
	}
	return nil
}

// Close flushes pending rows and closes the underlying file, if any.
func (w *CSVWriter) Close() error {
	var result *multierror.Error
	if err := w.Flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if w.closer != nil {
		if err := w.closer.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close results file: %w", err))
		}
		w.closer = nil
	}
	return result.ErrorOrNil()
}
