// Package worker re-renders the report whenever an aggregation run
// announces fresh tables.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"grantstats/internal/amqp"
	"grantstats/internal/core"
	applog "grantstats/internal/log"
	"grantstats/internal/services"
)

var errNoYearTable = errors.New("run did not list the global_sectors_year table")

// Generator renders the report from a table file.
type Generator interface {
	Generate(ctx context.Context, tablePath string) (*services.ReportResult, error)
}

// Consumer delivers run announcements to a handler until ctx ends.
type Consumer interface {
	ConsumeTablesReady(ctx context.Context, handler amqp.TablesReadyHandler) error
}

// ReportWorker handles TablesReady messages by regenerating the report.
type ReportWorker struct {
	logger    *applog.Logger
	generator Generator

	mu         sync.Mutex
	lastDigest string
}

func NewReportWorker(logger *applog.Logger, generator Generator) *ReportWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &ReportWorker{
		logger:    logger.WithComponent(applog.ComponentWorker),
		generator: generator,
	}
}

// Run consumes announcements until ctx is cancelled.
func (w *ReportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Report worker started", applog.FieldOperation, applog.OpStartup)
	err := consumer.ConsumeTablesReady(ctx, w.HandleTablesReady)
	if errors.Is(err, context.Canceled) {
		w.logger.InfoContext(ctx, "Report worker stopped", applog.FieldOperation, applog.OpShutdown)
		return nil
	}
	return err
}

// HandleTablesReady regenerates the report for one run. A run whose digest
// matches the last rendered one is skipped.
func (w *ReportWorker) HandleTablesReady(ctx context.Context, msg *amqp.TablesReadyMessage) error {
	log := w.logger.With(applog.FieldRunID, msg.RunID)

	info, ok := msg.Table(core.GlobalSectorsYear)
	if !ok {
		return fmt.Errorf("run %s: %w", msg.RunID, errNoYearTable)
	}

	w.mu.Lock()
	same := msg.Digest != "" && msg.Digest == w.lastDigest
	w.mu.Unlock()
	if same {
		log.InfoContext(ctx, "Tables unchanged since last report, skipping", applog.NewFields().
			WithOperation(applog.OpConsume).
			With(applog.FieldDigest, msg.Digest).
			ToSlice()...)
		return nil
	}

	res, err := w.generator.Generate(ctx, info.File)
	if err != nil {
		log.ErrorContext(ctx, "Report regeneration failed", applog.NewFields().
			WithOperation(applog.OpRender).
			WithError(err).
			WithErrorType(applog.ErrorTypeInternal).
			ToSlice()...)
		return fmt.Errorf("generate report for run %s: %w", msg.RunID, err)
	}

	w.mu.Lock()
	w.lastDigest = msg.Digest
	w.mu.Unlock()

	log.InfoContext(ctx, "Report regenerated", applog.NewFields().
		WithOperation(applog.OpConsume).
		With(applog.FieldPath, res.HTMLPath).
		With(applog.FieldSectors, len(res.Sectors)).
		With(applog.FieldDigest, msg.Digest).
		ToSlice()...)
	return nil
}
