package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ExcludedDivision is the division whose grants are left out of every table.
const ExcludedDivision = "U.S. Program"

// Input column names.
const (
	ColDivision = "DIVISION"
	ColDate     = "DATE COMMITTED"
	ColSector   = "sector"
	ColGrantee  = "GRANTEE"
	ColAmount   = "AMOUNT COMMITTED"
	ColPercent  = "percentage"
)

type (
	// Year is a calendar year or the unknown marker used for missing dates.
	Year struct {
		value int
		known bool
	}

	// Record is one funding commitment from the input file.
	Record struct {
		Division string
		Year     Year
		Sector   string
		Grantee  string
		Amount   decimal.Decimal
	}
)

var (
	ErrMissingColumn = errors.New("missing column")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidYear   = errors.New("invalid year")
	ErrEmptyInput    = errors.New("empty input")
	ErrUnknownTable  = errors.New("unknown table")
)

// UnknownYear marks a record whose commitment date was missing or unparseable.
var UnknownYear = Year{}

// NewYear returns a known year.
func NewYear(y int) Year {
	return Year{value: y, known: true}
}

// ParseYear reads a year cell as written by the table writers. An empty cell
// is the unknown year; a float rendering such as "2020.0" is accepted.
func ParseYear(s string) (Year, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return UnknownYear, nil
	}
	y, err := strconv.Atoi(strings.TrimSuffix(s, ".0"))
	if err != nil {
		return UnknownYear, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return NewYear(y), nil
}

// Known reports whether the year came from a valid date.
func (y Year) Known() bool {
	return y.known
}

// Value returns the calendar year; zero for the unknown year.
func (y Year) Value() int {
	return y.value
}

// String renders the year for output tables; unknown is the empty string.
func (y Year) String() string {
	if !y.known {
		return ""
	}
	return strconv.Itoa(y.value)
}

// Compare orders years ascending with the unknown year last.
func (y Year) Compare(o Year) int {
	switch {
	case y.known && !o.known:
		return -1
	case !y.known && o.known:
		return 1
	case y.value < o.value:
		return -1
	case y.value > o.value:
		return 1
	}
	return 0
}

// ParseError locates a malformed cell in a delimited input file.
type ParseError struct {
	File   string
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("%s:%d: column %q: %v", e.File, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
