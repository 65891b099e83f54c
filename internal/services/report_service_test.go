package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"grantstats/internal/config"
)

func TestReportServiceGenerate(t *testing.T) {
	out := t.TempDir()
	if _, err := newTestAggregateService(out, nil, nil).Run(context.Background(), writeInput(t)); err != nil {
		t.Fatal(err)
	}

	svc := NewReportService(nil, ReportOptions{OutputDir: out, PNGExport: true})
	res, err := svc.Generate(context.Background(), filepath.Join(out, "global_sectors_year.csv"))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if res.HTMLPath != filepath.Join(out, config.ReportFileName) {
		t.Errorf("html path = %s", res.HTMLPath)
	}
	if diff := cmp.Diff([]string{"Education", "Health", "Economic Growth"}, res.Sectors); diff != "" {
		t.Errorf("sectors (-want +got):\n%s", diff)
	}
	if res.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", res.Skipped)
	}

	html, err := os.ReadFile(res.HTMLPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(html), "Economic Growth") {
		t.Error("report does not mention its sectors")
	}
	if _, err := os.Stat(filepath.Join(out, config.ReportExportName+".png")); err != nil {
		t.Errorf("png export missing: %v", err)
	}
}

func TestReportServiceMissingTable(t *testing.T) {
	svc := NewReportService(nil, ReportOptions{OutputDir: t.TempDir()})
	if _, err := svc.Generate(context.Background(), filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := writeFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "hello")
		return err
	}); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || entries[0].Name() != "out.txt" {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}
