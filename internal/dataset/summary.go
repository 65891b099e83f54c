package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"grantstats/internal/core"
)

// LoadTable opens a summary table written by the aggregator.
func LoadTable(path string, kind core.TableKind, delim rune) (core.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Table{}, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	return ReadTable(f, path, kind, delim)
}

// ReadTable parses a summary table of the given kind, keeping row order.
func ReadTable(r io.Reader, name string, kind core.TableKind, delim rune) (core.Table, error) {
	cr := newCSVReader(r, delim)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.Table{}, &core.ParseError{File: name, Line: 1, Err: core.ErrEmptyInput}
	}
	if err != nil {
		return core.Table{}, fmt.Errorf("read header of %s: %w", name, err)
	}
	idx, err := columnIndex(header, kind.Header())
	if err != nil {
		return core.Table{}, &core.ParseError{File: name, Line: 1, Err: err}
	}

	tbl := core.Table{Kind: kind}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return core.Table{}, fmt.Errorf("read %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)

		row := core.SummaryRow{Sector: field(rec, idx[core.ColSector])}
		if kind.HasYear() {
			if row.Year, err = core.ParseYear(field(rec, idx[core.ColDate])); err != nil {
				return core.Table{}, &core.ParseError{File: name, Line: line, Column: core.ColDate, Err: err}
			}
		}
		if kind.HasGrantee() {
			row.Grantee = field(rec, idx[core.ColGrantee])
		}
		if row.Amount, err = core.ParseAmount(field(rec, idx[core.ColAmount])); err != nil {
			return core.Table{}, &core.ParseError{File: name, Line: line, Column: core.ColAmount, Err: err}
		}
		if row.Percentage, err = core.ParsePercentage(field(rec, idx[core.ColPercent])); err != nil {
			return core.Table{}, &core.ParseError{File: name, Line: line, Column: core.ColPercent, Err: err}
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, nil
}
