// Package services orchestrates the aggregation and report runs on top of
// the dataset, aggregate, sink and report packages.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"grantstats/internal/aggregate"
	"grantstats/internal/amqp"
	"grantstats/internal/core"
	"grantstats/internal/dataset"
	applog "grantstats/internal/log"
	"grantstats/internal/sink"
	"grantstats/internal/sink/csvfile"
)

// Publisher announces finished runs.
type Publisher interface {
	PublishTablesReady(ctx context.Context, msg *amqp.TablesReadyMessage) error
}

// AggregateResult summarizes one aggregation run.
type AggregateResult struct {
	RunID        string
	Records      int
	Excluded     int
	UnknownYears int
	Tables       []core.Table
	Digest       string
	Duration     time.Duration
}

// AggregateService reads the record file, builds the four summary tables
// and writes them to every configured sink.
type AggregateService struct {
	logger    *applog.Logger
	primary   *csvfile.Writer
	extras    []sink.TableWriter
	publisher Publisher
	opts      dataset.Options
	newRunID  func() string
}

// NewAggregateService wires a service. extras and publisher may be nil.
func NewAggregateService(logger *applog.Logger, primary *csvfile.Writer, extras []sink.TableWriter, publisher Publisher, opts dataset.Options) *AggregateService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &AggregateService{
		logger:    logger.WithComponent(applog.ComponentAggregate),
		primary:   primary,
		extras:    extras,
		publisher: publisher,
		opts:      opts,
		newRunID:  uuid.NewString,
	}
}

// Run aggregates inputPath. The CSV tables are written before any optional
// sink so they exist even when an optional sink fails.
func (s *AggregateService) Run(ctx context.Context, inputPath string) (*AggregateResult, error) {
	start := time.Now()
	res := &AggregateResult{RunID: s.newRunID()}
	log := s.logger.With(applog.FieldRunID, res.RunID)

	dsLog := log.WithComponent(applog.ComponentDataset)
	dsLog.InfoContext(ctx, "Loading funding records", applog.NewFields().
		WithOperation(applog.OpLoad).
		With(applog.FieldPath, inputPath).
		ToSlice()...)
	load, err := dataset.LoadRecords(inputPath, s.opts)
	if err != nil {
		dsLog.ErrorContext(ctx, "Failed to load funding records", applog.NewFields().
			WithOperation(applog.OpLoad).
			WithError(err).
			WithErrorType(applog.ErrorTypeInput).
			ToSlice()...)
		return nil, fmt.Errorf("load records: %w", err)
	}
	res.Records = len(load.Records)
	res.Excluded = load.Excluded
	res.UnknownYears = load.UnknownYears
	dsLog.InfoContext(ctx, "Records loaded", applog.NewFields().
		WithOperation(applog.OpLoad).
		With(applog.FieldRecords, load.Read).
		With(applog.FieldExcluded, load.Excluded).
		With(applog.FieldUnknown, load.UnknownYears).
		ToSlice()...)

	tables, err := aggregate.BuildAll(load.Records)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	res.Tables = tables
	for _, t := range tables {
		log.DebugContext(ctx, "Table built", applog.NewFields().
			WithOperation(applog.OpAggregate).
			WithTable(string(t.Kind), len(t.Rows)).
			ToSlice()...)
	}

	if err := s.primary.WriteTables(ctx, tables); err != nil {
		log.ErrorContext(ctx, "Failed to write tables", applog.NewFields().
			WithOperation(applog.OpWrite).
			With(applog.FieldSink, s.primary.Name()).
			WithError(err).
			WithErrorType(applog.ErrorTypeInternal).
			ToSlice()...)
		return nil, fmt.Errorf("write %s tables: %w", s.primary.Name(), err)
	}
	for _, t := range tables {
		log.InfoContext(ctx, "Table written", applog.NewFields().
			WithOperation(applog.OpWrite).
			WithTable(string(t.Kind), len(t.Rows)).
			With(applog.FieldPath, s.primary.Path(t.Kind)).
			ToSlice()...)
	}

	if err := s.writeExtras(ctx, tables); err != nil {
		return nil, err
	}

	if res.Digest, err = s.primary.Digest(core.AllTables); err != nil {
		return nil, fmt.Errorf("digest tables: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTablesReady(ctx, s.message(res)); err != nil {
			log.ErrorContext(ctx, "Failed to announce run", applog.NewFields().
				WithOperation(applog.OpPublish).
				WithError(err).
				WithErrorType(applog.ErrorTypeNetwork).
				ToSlice()...)
			return nil, fmt.Errorf("announce run: %w", err)
		}
	}

	res.Duration = time.Since(start)
	log.InfoContext(ctx, "Aggregation complete", applog.NewFields().
		WithOperation(applog.OpAggregate).
		With(applog.FieldDigest, res.Digest).
		WithDuration(res.Duration.Milliseconds()).
		ToSlice()...)
	return res, nil
}

// writeExtras writes the optional sinks in parallel; the first failure
// cancels the rest.
func (s *AggregateService) writeExtras(ctx context.Context, tables []core.Table) error {
	if len(s.extras) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, w := range s.extras {
		w := w
		g.Go(func() error {
			start := time.Now()
			if err := w.WriteTables(gctx, tables); err != nil {
				s.logger.ErrorContext(gctx, "Sink write failed", applog.NewFields().
					WithOperation(applog.OpWrite).
					With(applog.FieldSink, w.Name()).
					WithError(err).
					WithErrorType(applog.ErrorTypeInternal).
					ToSlice()...)
				return fmt.Errorf("write %s tables: %w", w.Name(), err)
			}
			s.logger.InfoContext(gctx, "Sink written", applog.NewFields().
				WithOperation(applog.OpWrite).
				With(applog.FieldSink, w.Name()).
				WithDuration(time.Since(start).Milliseconds()).
				ToSlice()...)
			return nil
		})
	}
	return g.Wait()
}

func (s *AggregateService) message(res *AggregateResult) *amqp.TablesReadyMessage {
	infos := make([]amqp.TableInfo, 0, len(res.Tables))
	for _, t := range res.Tables {
		infos = append(infos, amqp.TableInfo{
			Name: string(t.Kind),
			File: s.primary.Path(t.Kind),
			Rows: len(t.Rows),
		})
	}
	return amqp.NewTablesReadyMessage(res.RunID, res.Digest, infos)
}
