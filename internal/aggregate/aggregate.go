// Package aggregate builds the four summary tables from funding records.
//
// Every table is a grouped sum of AMOUNT COMMITTED with a percentage column.
// The percentage divides each group by the total of its denominator scope:
//
//	global_sectors           scope = everything
//	global_sectors_year      scope = year
//	global_sectors_org       scope = sector
//	global_sectors_year_org  scope = (sector, year)
//
// Groups are first laid out in ascending key order and then stably sorted by
// the table's sort keys, so ties always come out in key order.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"grantstats/internal/core"
)

type groupKey struct {
	sector  string
	year    core.Year
	grantee string
}

func (k groupKey) compare(o groupKey) int {
	if c := strings.Compare(k.sector, o.sector); c != 0 {
		return c
	}
	if c := k.year.Compare(o.year); c != 0 {
		return c
	}
	return strings.Compare(k.grantee, o.grantee)
}

// keyOf projects a record onto the grouping key of kind.
func keyOf(kind core.TableKind, r core.Record) groupKey {
	k := groupKey{sector: r.Sector}
	if kind.HasYear() {
		k.year = r.Year
	}
	if kind.HasGrantee() {
		k.grantee = r.Grantee
	}
	return k
}

// scopeOf projects a group key onto its denominator scope.
func scopeOf(kind core.TableKind, k groupKey) groupKey {
	switch kind {
	case core.GlobalSectorsYear:
		return groupKey{year: k.year}
	case core.GlobalSectorsOrg:
		return groupKey{sector: k.sector}
	case core.GlobalSectorsYearOrg:
		return groupKey{sector: k.sector, year: k.year}
	}
	return groupKey{}
}

// Build computes one summary table.
func Build(kind core.TableKind, records []core.Record) (core.Table, error) {
	if _, err := core.ParseTableKind(string(kind)); err != nil {
		return core.Table{}, err
	}

	sums := make(map[groupKey]decimal.Decimal)
	keys := make([]groupKey, 0)
	for _, r := range records {
		k := keyOf(kind, r)
		sum, seen := sums[k]
		if !seen {
			keys = append(keys, k)
		}
		sums[k] = sum.Add(r.Amount)
	}

	scopes := make(map[groupKey]decimal.Decimal)
	for _, k := range keys {
		s := scopeOf(kind, k)
		scopes[s] = scopes[s].Add(sums[k])
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].compare(keys[j]) < 0 })

	rows := make([]core.SummaryRow, len(keys))
	for i, k := range keys {
		rows[i] = core.SummaryRow{
			Sector:     k.sector,
			Year:       k.year,
			Grantee:    k.grantee,
			Amount:     sums[k],
			Percentage: core.Percentage(sums[k], scopes[scopeOf(kind, k)]),
		}
	}
	sort.SliceStable(rows, lessFor(kind, rows))

	return core.Table{Kind: kind, Rows: rows}, nil
}

// lessFor returns the table ordering: amount descending, preceded by year
// ascending for the year-keyed tables.
func lessFor(kind core.TableKind, rows []core.SummaryRow) func(i, j int) bool {
	byAmount := func(i, j int) bool { return rows[i].Amount.GreaterThan(rows[j].Amount) }
	if !kind.HasYear() {
		return byAmount
	}
	return func(i, j int) bool {
		if c := rows[i].Year.Compare(rows[j].Year); c != 0 {
			return c < 0
		}
		return byAmount(i, j)
	}
}

// BuildAll computes every summary table in core.AllTables order.
func BuildAll(records []core.Record) ([]core.Table, error) {
	tables := make([]core.Table, 0, len(core.AllTables))
	for _, kind := range core.AllTables {
		t, err := Build(kind, records)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", kind, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}
