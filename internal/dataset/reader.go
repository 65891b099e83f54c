// Package dataset reads the funding record file and the summary tables
// written by the aggregator.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"grantstats/internal/core"
)

const utf8BOM = "\ufeff"

// Options controls how the record file is read.
type Options struct {
	// Delimiter between fields. Zero means comma.
	Delimiter rune
	// ExcludedDivision drops records whose DIVISION equals it exactly.
	// Empty keeps every record.
	ExcludedDivision string
	// Dates parses DATE COMMITTED. Nil uses a fresh parser.
	Dates *DateParser
}

// DefaultOptions excludes the U.S. Program division.
func DefaultOptions() Options {
	return Options{Delimiter: ',', ExcludedDivision: core.ExcludedDivision}
}

// Load is the outcome of reading a record file.
type Load struct {
	Records      []core.Record
	Read         int
	Excluded     int
	UnknownYears int
}

var requiredColumns = []string{core.ColDivision, core.ColDate, core.ColSector, core.ColGrantee, core.ColAmount}

// LoadRecords opens path and reads it with ReadRecords.
func LoadRecords(path string, opts Options) (Load, error) {
	f, err := os.Open(path)
	if err != nil {
		return Load{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return ReadRecords(f, path, opts)
}

// ReadRecords parses funding records from r. name is used in error messages.
// Columns are located by header name; extra columns are ignored.
func ReadRecords(r io.Reader, name string, opts Options) (Load, error) {
	if opts.Dates == nil {
		opts.Dates = NewDateParser(4096)
	}
	cr := newCSVReader(r, opts.Delimiter)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Load{}, &core.ParseError{File: name, Line: 1, Err: core.ErrEmptyInput}
	}
	if err != nil {
		return Load{}, fmt.Errorf("read header of %s: %w", name, err)
	}
	idx, err := columnIndex(header, requiredColumns)
	if err != nil {
		return Load{}, &core.ParseError{File: name, Line: 1, Err: err}
	}

	var out Load
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Load{}, fmt.Errorf("read %s: %w", name, err)
		}
		line, _ := cr.FieldPos(0)
		out.Read++

		// the filter compares the cell as written; padded values are kept
		if opts.ExcludedDivision != "" && rawField(rec, idx[core.ColDivision]) == opts.ExcludedDivision {
			out.Excluded++
			continue
		}
		amount, err := core.ParseAmount(field(rec, idx[core.ColAmount]))
		if err != nil {
			return Load{}, &core.ParseError{File: name, Line: line, Column: core.ColAmount, Err: err}
		}
		year := opts.Dates.Year(field(rec, idx[core.ColDate]))
		if !year.Known() {
			out.UnknownYears++
		}
		out.Records = append(out.Records, core.Record{
			Division: field(rec, idx[core.ColDivision]),
			Year:     year,
			Sector:   field(rec, idx[core.ColSector]),
			Grantee:  field(rec, idx[core.ColGrantee]),
			Amount:   amount,
		})
	}
	return out, nil
}

func newCSVReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(bufio.NewReader(r))
	if delim != 0 {
		cr.Comma = delim
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	return cr
}

func columnIndex(header []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", core.ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// field returns the trimmed cell, or "" for short rows.
func field(rec []string, i int) string {
	return strings.TrimSpace(rawField(rec, i))
}

func rawField(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}
