package backend

import (
	"context"

	"grantstats/internal/sink"
	"grantstats/internal/sink/csvfile"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// SinkSet holds the always-present CSV writer and the optional extras.
type SinkSet struct {
	Primary *csvfile.Writer
	Extras  []sink.TableWriter
	Cleanup CleanupFunc
}

// Names lists the active sinks, primary first.
func (s *SinkSet) Names() []string {
	names := []string{s.Primary.Name()}
	for _, w := range s.Extras {
		names = append(names, w.Name())
	}
	return names
}

// Factory creates the sinks an aggregation run writes to.
type Factory interface {
	CreateSinks(ctx context.Context, config Config) (*SinkSet, error)
}

// Config holds configuration for sink creation
type Config struct {
	// CSV tables, always written
	OutputDir string
	Delimiter rune

	// Excel workbook, written next to the CSV tables
	XLSXExport bool

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
}

// SinkType represents an optional sink
type SinkType string

const (
	XLSXSink   SinkType = "xlsx"
	SQLiteSink SinkType = "sqlite"
	SheetsSink SinkType = "sheets"
)

// String implements fmt.Stringer
func (st SinkType) String() string {
	return string(st)
}
