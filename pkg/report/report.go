// Package report prints a run summary as a terminal table.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"kembench/pkg/bench"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorMuted   = lipgloss.Color("#5C7A84")

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Padding(0, 1)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)

// Headers are the summary table's column titles.
var Headers = []string{"ALGORITHM", "OPERATION", "MEAN CYCLES", "SAMPLES", "KEPT", "FAILURES"}

// Rows flattens s into table cells, one row per algorithm and operation.
func Rows(s *bench.Summary) [][]string {
	var rows [][]string
	for _, alg := range s.Algorithms {
		for _, op := range alg.Ops {
			mean := "-"
			if op.Kept > 0 {
				mean = strconv.FormatUint(op.Mean, 10)
			}
			rows = append(rows, []string{
				alg.Name,
				op.Op.String(),
				mean,
				strconv.Itoa(op.Samples),
				strconv.Itoa(op.Kept),
				strconv.Itoa(op.Failures),
			})
		}
	}
	return rows
}

// Render writes the summary table followed by skipped algorithms.
// Colour is applied only when color is true.
func Render(w io.Writer, s *bench.Summary, color bool) error {
	rows := Rows(s)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(Headers...).
		Rows(rows...)
	if color {
		t = t.BorderStyle(mutedStyle).StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			// failures column
			if col == 5 && row >= 0 && row < len(rows) && rows[row][5] != "0" {
				return warningStyle
			}
			return cellStyle
		})
	}

	if _, err := fmt.Fprintf(w, "run %s (%s mode, %d%% trimmed)\n", s.RunID, s.Mode, s.TrimPercent); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, t.String()); err != nil {
		return err
	}

	for _, alg := range s.Algorithms {
		if alg.Mismatches > 0 {
			if _, err := fmt.Fprintf(w, "%s: %d shared secret mismatches\n", alg.Name, alg.Mismatches); err != nil {
				return err
			}
		}
	}
	for _, name := range s.Skipped {
		if _, err := fmt.Fprintf(w, "skipped %s: not supported\n", name); err != nil {
			return err
		}
	}
	return nil
}
