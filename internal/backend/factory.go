package backend

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	appconfig "grantstats/internal/config"
	applog "grantstats/internal/log"
	"grantstats/internal/sink"
	"grantstats/internal/sink/csvfile"
	"grantstats/internal/sink/sheets"
	"grantstats/internal/sink/sqlite"
	"grantstats/internal/sink/xlsx"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new sink factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Default(applog.ComponentSink)
	}
	return &DefaultFactory{
		logger: logger.WithComponent(applog.ComponentSink),
	}
}

// CreateSinks implements Factory.CreateSinks
func (f *DefaultFactory) CreateSinks(ctx context.Context, config Config) (*SinkSet, error) {
	if err := config.Validate(); err != nil {
		f.logger.ErrorContext(ctx, "Invalid sink configuration", applog.NewFields().
			WithOperation(applog.OpStartup).
			WithError(err).
			WithErrorType(applog.ErrorTypeConfiguration).
			ToSlice()...)
		return nil, fmt.Errorf("invalid sink config: %w", err)
	}

	set := &SinkSet{Primary: csvfile.New(config.OutputDir, config.Delimiter)}
	for _, t := range config.Enabled() {
		w, err := f.createSink(ctx, t, config)
		if err != nil {
			closeAll(set.Extras)
			return nil, fmt.Errorf("failed to initialize %s sink: %w", t, err)
		}
		set.Extras = append(set.Extras, w)
	}
	set.Cleanup = func() error { return closeAll(set.Extras) }

	f.logger.InfoContext(ctx, "Initialized output sinks", applog.FieldSink, set.Names())
	return set, nil
}

func (f *DefaultFactory) createSink(ctx context.Context, t SinkType, config Config) (sink.TableWriter, error) {
	switch t {
	case XLSXSink:
		path := filepath.Join(config.OutputDir, appconfig.WorkbookFileName)
		f.logger.InfoContext(ctx, "Initialized Excel sink", applog.FieldPath, path)
		return xlsx.New(path), nil
	case SQLiteSink:
		store, err := sqlite.Open(config.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		f.logger.InfoContext(ctx, "Initialized SQLite sink", applog.FieldPath, config.SQLiteDBPath)
		return store, nil
	case SheetsSink:
		cli, err := sheets.New(ctx, config.GoogleSpreadsheetID)
		if err != nil {
			return nil, err
		}
		f.logger.InfoContext(ctx, "Initialized Google Sheets sink", "spreadsheet", config.GoogleSpreadsheetID)
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported sink type: %s", t)
	}
}

func closeAll(ws []sink.TableWriter) error {
	var errs []error
	for _, w := range ws {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", w.Name(), err))
		}
	}
	return errors.Join(errs...)
}
