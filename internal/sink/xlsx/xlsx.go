// Package xlsx writes all summary tables into one Excel workbook, one sheet
// per table.
package xlsx

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"grantstats/internal/core"
	"grantstats/internal/sink"
)

// Writer produces a workbook at a fixed path.
type Writer struct {
	path string
}

var _ sink.TableWriter = (*Writer)(nil)

func New(path string) *Writer {
	return &Writer{path: path}
}

func (w *Writer) Name() string { return "xlsx" }

// WriteTables rebuilds the workbook from scratch.
func (w *Writer) WriteTables(ctx context.Context, tables []core.Table) error {
	if len(tables) == 0 {
		return nil
	}
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := string(t.Kind)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, t, header); err != nil {
			return fmt.Errorf("write sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t core.Table, headerStyle int) error {
	cols := t.Kind.Header()
	head := make([]any, len(cols))
	for i, c := range cols {
		head[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(cols), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, r := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := rowValues(t.Kind, r)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(cols))
	if err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "A", 36); err != nil {
		return err
	}
	if len(cols) > 1 {
		if err := f.SetColWidth(sheet, "B", lastCol, 20); err != nil {
			return err
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

// rowValues keeps amounts and percentages numeric so the sheet can be
// re-aggregated; unknown years and undefined percentages stay blank.
func rowValues(kind core.TableKind, r core.SummaryRow) []any {
	out := []any{r.Sector}
	if kind.HasYear() {
		if r.Year.Known() {
			out = append(out, r.Year.Value())
		} else {
			out = append(out, nil)
		}
	}
	if kind.HasGrantee() {
		out = append(out, r.Grantee)
	}
	out = append(out, r.Amount.InexactFloat64())
	if r.Percentage.Valid {
		out = append(out, r.Percentage.Decimal.InexactFloat64())
	} else {
		out = append(out, nil)
	}
	return out
}

func (w *Writer) Close() error { return nil }
