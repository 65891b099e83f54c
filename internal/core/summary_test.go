package core

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestTableKindHeader(t *testing.T) {
	cases := map[TableKind][]string{
		GlobalSectors:        {"sector", "AMOUNT COMMITTED", "percentage"},
		GlobalSectorsYear:    {"sector", "DATE COMMITTED", "AMOUNT COMMITTED", "percentage"},
		GlobalSectorsOrg:     {"sector", "GRANTEE", "AMOUNT COMMITTED", "percentage"},
		GlobalSectorsYearOrg: {"sector", "DATE COMMITTED", "GRANTEE", "AMOUNT COMMITTED", "percentage"},
	}
	for kind, want := range cases {
		if diff := cmp.Diff(want, kind.Header()); diff != "" {
			t.Fatalf("%s header mismatch (-want +got):\n%s", kind, diff)
		}
	}
}

func TestParseTableKind(t *testing.T) {
	for _, k := range AllTables {
		got, err := ParseTableKind(string(k))
		if err != nil || got != k {
			t.Fatalf("%s: got %q (err=%v)", k, got, err)
		}
	}
	if _, err := ParseTableKind("global_orgs"); !errors.Is(err, ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
	if GlobalSectorsYear.FileName() != "global_sectors_year.csv" {
		t.Fatalf("unexpected file name %q", GlobalSectorsYear.FileName())
	}
}

func TestTableRecords(t *testing.T) {
	tbl := Table{
		Kind: GlobalSectorsYearOrg,
		Rows: []SummaryRow{
			{Sector: "Health", Year: NewYear(2020), Grantee: "WHO", Amount: decimal.NewFromInt(300), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(75))},
			{Sector: "Health", Year: UnknownYear, Grantee: "PATH", Amount: decimal.Zero},
		},
	}
	want := [][]string{
		{"Health", "2020", "WHO", "300", "75.00"},
		{"Health", "", "PATH", "0", ""},
	}
	if diff := cmp.Diff(want, tbl.Records()); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}
