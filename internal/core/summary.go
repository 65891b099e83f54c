package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TableKind identifies one of the four summary tables.
type TableKind string

const (
	GlobalSectors        TableKind = "global_sectors"
	GlobalSectorsYear    TableKind = "global_sectors_year"
	GlobalSectorsOrg     TableKind = "global_sectors_org"
	GlobalSectorsYearOrg TableKind = "global_sectors_year_org"
)

// AllTables lists the summary tables in the order they are produced.
var AllTables = []TableKind{GlobalSectors, GlobalSectorsYear, GlobalSectorsOrg, GlobalSectorsYearOrg}

// ParseTableKind resolves a table name.
func ParseTableKind(name string) (TableKind, error) {
	for _, k := range AllTables {
		if string(k) == name {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTable, name)
}

// HasYear reports whether the table is keyed by year.
func (k TableKind) HasYear() bool {
	return k == GlobalSectorsYear || k == GlobalSectorsYearOrg
}

// HasGrantee reports whether the table is keyed by grantee.
func (k TableKind) HasGrantee() bool {
	return k == GlobalSectorsOrg || k == GlobalSectorsYearOrg
}

// FileName is the fixed name of the delimited output file.
func (k TableKind) FileName() string {
	return string(k) + ".csv"
}

// Header returns the output columns: key fields, amount, percentage.
func (k TableKind) Header() []string {
	h := []string{ColSector}
	if k.HasYear() {
		h = append(h, ColDate)
	}
	if k.HasGrantee() {
		h = append(h, ColGrantee)
	}
	return append(h, ColAmount, ColPercent)
}

// SummaryRow is one group of a summary table. Key fields a table does not
// group by are left at their zero value.
type SummaryRow struct {
	Sector     string
	Year       Year
	Grantee    string
	Amount     decimal.Decimal
	Percentage decimal.NullDecimal
}

// Table is a fully computed summary table.
type Table struct {
	Kind TableKind
	Rows []SummaryRow
}

// Records renders the rows as string fields in header order.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rec := []string{r.Sector}
		if t.Kind.HasYear() {
			rec = append(rec, r.Year.String())
		}
		if t.Kind.HasGrantee() {
			rec = append(rec, r.Grantee)
		}
		rec = append(rec, r.Amount.String(), FormatPercentage(r.Percentage))
		out = append(out, rec)
	}
	return out
}
