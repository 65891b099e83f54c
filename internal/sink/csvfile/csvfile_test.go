package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"grantstats/internal/core"
)

func sampleTables() []core.Table {
	return []core.Table{
		{Kind: core.GlobalSectors, Rows: []core.SummaryRow{
			{Sector: "Global Health, Vaccines", Amount: decimal.NewFromInt(300), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(75))},
			{Sector: "Education", Amount: decimal.NewFromInt(100), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(25))},
		}},
		{Kind: core.GlobalSectorsYear, Rows: []core.SummaryRow{
			{Sector: "Education", Year: core.NewYear(2020), Amount: decimal.NewFromInt(100), Percentage: decimal.NewNullDecimal(decimal.NewFromInt(100))},
			{Sector: "Education", Year: core.UnknownYear, Amount: decimal.Zero},
		}},
	}
}

func TestWriteTables(t *testing.T) {
	dir := t.TempDir()
	w := New(dir, 0)
	if err := w.WriteTables(context.Background(), sampleTables()); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dir, "global_sectors.csv"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "sector,AMOUNT COMMITTED,percentage\n\"Global Health, Vaccines\",300,75.00\nEducation,100,25.00\n"
	if string(got) != want {
		t.Fatalf("unexpected content:\n%s", got)
	}
	got, _ = os.ReadFile(filepath.Join(dir, "global_sectors_year.csv"))
	want = "sector,DATE COMMITTED,AMOUNT COMMITTED,percentage\nEducation,2020,100,100.00\nEducation,,0,\n"
	if string(got) != want {
		t.Fatalf("unexpected content:\n%s", got)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 2 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestReadTableRoundTrip(t *testing.T) {
	w := New(t.TempDir(), ';')
	tables := sampleTables()
	if err := w.WriteTables(context.Background(), tables); err != nil {
		t.Fatalf("write: %v", err)
	}
	back, err := w.ReadTable(context.Background(), core.GlobalSectorsYear)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff(tables[1].Records(), back.Records()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDigestIsStable(t *testing.T) {
	kinds := []core.TableKind{core.GlobalSectors, core.GlobalSectorsYear}
	a, b := New(t.TempDir(), 0), New(t.TempDir(), 0)
	for _, w := range []*Writer{a, b} {
		if err := w.WriteTables(context.Background(), sampleTables()); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	da, err := a.Digest(kinds)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	db, _ := b.Digest(kinds)
	if da != db || len(da) != 64 {
		t.Fatalf("digests differ: %s vs %s", da, db)
	}

	if _, err := a.Digest([]core.TableKind{core.GlobalSectorsOrg}); err == nil {
		t.Fatalf("expected error for table that was never written")
	}
}

func TestWriteTablesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := New(t.TempDir(), 0).WriteTables(ctx, sampleTables()); err == nil {
		t.Fatalf("expected context error")
	}
}
