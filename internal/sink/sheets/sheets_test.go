package sheets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"grantstats/internal/core"
)

func TestBuildValues(t *testing.T) {
	tbl := core.Table{Kind: core.GlobalSectorsYear, Rows: []core.SummaryRow{
		{Sector: "Health", Year: core.NewYear(2021), Amount: decimal.NewFromInt(300),
			Percentage: decimal.NewNullDecimal(decimal.RequireFromString("75.00"))},
		{Sector: "Health", Year: core.UnknownYear, Amount: decimal.Zero},
	}}
	want := [][]interface{}{
		{"sector", "DATE COMMITTED", "AMOUNT COMMITTED", "percentage"},
		{"Health", 2021, 300.0, 75.0},
		{"Health", "", 0.0, ""},
	}
	if diff := cmp.Diff(want, buildValues(tbl)); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildValuesGranteeTable(t *testing.T) {
	tbl := core.Table{Kind: core.GlobalSectorsOrg, Rows: []core.SummaryRow{
		{Sector: "Education", Grantee: "UNICEF", Amount: decimal.NewFromInt(10),
			Percentage: decimal.NewNullDecimal(decimal.NewFromInt(100))},
	}}
	got := buildValues(tbl)
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if diff := cmp.Diff([]interface{}{"Education", "UNICEF", 10.0, 100.0}, got[1]); diff != "" {
		t.Fatalf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingTabs(t *testing.T) {
	tables := []core.Table{{Kind: core.GlobalSectors}, {Kind: core.GlobalSectorsYear}, {Kind: core.GlobalSectorsOrg}}
	got := missingTabs([]string{"Sheet1", "global_sectors_year"}, tables)
	want := []string{"global_sectors", "global_sectors_org"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missing tabs mismatch (-want +got):\n%s", diff)
	}
	if got := missingTabs([]string{"global_sectors"}, tables[:1]); len(got) != 0 {
		t.Fatalf("expected no missing tabs, got %v", got)
	}
}

func TestTabRange(t *testing.T) {
	if got := tabRange(core.GlobalSectorsYearOrg); got != "'global_sectors_year_org'!A1" {
		t.Fatalf("unexpected range %q", got)
	}
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := serviceAccountCredentials(); err == nil {
		t.Fatal("expected error without credentials")
	}

	path := filepath.Join(t.TempDir(), "sa.json")
	if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", path)
	b, err := serviceAccountCredentials()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(b) != `{"type":"service_account"}` {
		t.Fatalf("unexpected credentials %q", b)
	}

	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"inline":true}`)
	b, _ = serviceAccountCredentials()
	if string(b) != `{"inline":true}` {
		t.Fatalf("inline JSON should win, got %q", b)
	}
}
