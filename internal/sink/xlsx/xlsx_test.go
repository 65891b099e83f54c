package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"grantstats/internal/core"
)

func TestWriteTablesOneSheetPerTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "global_sectors.xlsx")
	tables := []core.Table{
		{Kind: core.GlobalSectors, Rows: []core.SummaryRow{
			{Sector: "Health", Amount: decimal.NewFromInt(300), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(75))},
		}},
		{Kind: core.GlobalSectorsYearOrg, Rows: []core.SummaryRow{
			{Sector: "Health", Year: core.NewYear(2020), Grantee: "WHO", Amount: decimal.NewFromInt(300), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(100))},
			{Sector: "Health", Year: core.UnknownYear, Grantee: "PATH", Amount: decimal.Zero},
		}},
	}
	if err := New(path).WriteTables(context.Background(), tables); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if diff := cmp.Diff([]string{"global_sectors", "global_sectors_year_org"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheet list mismatch (-want +got):\n%s", diff)
	}
	cells := map[string]string{
		"A1": "sector",
		"B1": "DATE COMMITTED",
		"E1": "percentage",
		"A2": "Health",
		"B2": "2020",
		"C2": "WHO",
		"D2": "300",
		"E2": "100",
		"B3": "",
		"C3": "PATH",
		"D3": "0",
		"E3": "",
	}
	for cell, want := range cells {
		got, err := f.GetCellValue("global_sectors_year_org", cell)
		if err != nil {
			t.Fatalf("cell %s: %v", cell, err)
		}
		if got != want {
			t.Errorf("cell %s = %q, want %q", cell, got, want)
		}
	}
}

func TestWriteTablesEmptyIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.xlsx")
	if err := New(path).WriteTables(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
