package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"grantstats/internal/config"
	"grantstats/internal/core"
	"grantstats/internal/dataset"
	applog "grantstats/internal/log"
	"grantstats/internal/report"
)

// ReportOptions configures where and how the report is written.
type ReportOptions struct {
	OutputDir string
	Delimiter rune
	PNGExport bool
	Palette   report.Palette
}

// ReportResult summarizes one report run.
type ReportResult struct {
	HTMLPath string
	PNGPath  string
	Sectors  []string
	Skipped  int
}

// ReportService renders the per-year sector table as the HTML report.
type ReportService struct {
	logger *applog.Logger
	opts   ReportOptions
}

func NewReportService(logger *applog.Logger, opts ReportOptions) *ReportService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = ','
	}
	if len(opts.Palette.Rules) == 0 {
		opts.Palette = report.DefaultPalette()
	}
	return &ReportService{
		logger: logger.WithComponent(applog.ComponentReport),
		opts:   opts,
	}
}

// Generate reads the global_sectors_year table at tablePath and writes the
// report into the output directory.
func (s *ReportService) Generate(ctx context.Context, tablePath string) (*ReportResult, error) {
	start := time.Now()
	s.logger.InfoContext(ctx, "Loading sector-year table", applog.NewFields().
		WithOperation(applog.OpLoad).
		With(applog.FieldPath, tablePath).
		ToSlice()...)

	table, err := dataset.LoadTable(tablePath, core.GlobalSectorsYear, s.opts.Delimiter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load sector-year table", applog.NewFields().
			WithOperation(applog.OpLoad).
			WithError(err).
			WithErrorType(applog.ErrorTypeInput).
			ToSlice()...)
		return nil, fmt.Errorf("load table: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chart, err := report.BuildChart(table, s.opts.Palette)
	if err != nil {
		return nil, fmt.Errorf("build chart: %w", err)
	}
	if chart.Skipped > 0 {
		s.logger.WarnContext(ctx, "Rows with unknown year left out of the chart", applog.NewFields().
			WithOperation(applog.OpRender).
			WithTable(string(table.Kind), chart.Skipped).
			ToSlice()...)
	}

	res := &ReportResult{
		HTMLPath: filepath.Join(s.opts.OutputDir, config.ReportFileName),
		Sectors:  chart.Sectors(),
		Skipped:  chart.Skipped,
	}
	if err := writeFileAtomic(res.HTMLPath, func(w io.Writer) error { return report.Render(w, chart) }); err != nil {
		s.logger.ErrorContext(ctx, "Failed to render report", applog.NewFields().
			WithOperation(applog.OpRender).
			WithError(err).
			WithErrorType(applog.ErrorTypeInternal).
			ToSlice()...)
		return nil, fmt.Errorf("write report: %w", err)
	}

	if s.opts.PNGExport {
		res.PNGPath = filepath.Join(s.opts.OutputDir, config.ReportExportName+".png")
		if err := writeFileAtomic(res.PNGPath, func(w io.Writer) error { return report.RenderPNG(w, chart) }); err != nil {
			return nil, fmt.Errorf("export png: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Report written", applog.NewFields().
		WithOperation(applog.OpRender).
		With(applog.FieldPath, res.HTMLPath).
		With(applog.FieldSectors, len(res.Sectors)).
		WithDuration(time.Since(start).Milliseconds()).
		ToSlice()...)
	return res, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
