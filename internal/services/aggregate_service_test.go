package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"grantstats/internal/amqp"
	"grantstats/internal/core"
	"grantstats/internal/dataset"
	applog "grantstats/internal/log"
	"grantstats/internal/sink"
	"grantstats/internal/sink/csvfile"
)

const grantsCSV = `DIVISION,DATE COMMITTED,sector,GRANTEE,AMOUNT COMMITTED
Global Health,2020-03-01,Health,WHO,300
U.S. Program,2020-05-01,Education,District 9,999
Global Development,2021-11-02,Economic Growth,BRAC,"1,200"
Global Health,not a date,Health,PATH,50
Global Growth,2019-01-01,Education,Charter Org,10
`

type recordingSink struct {
	mu     sync.Mutex
	name   string
	err    error
	tables []core.Table
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) WriteTables(_ context.Context, tables []core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables = tables
	return s.err
}

func (s *recordingSink) Close() error { return nil }

type recordingPublisher struct {
	msgs []*amqp.TablesReadyMessage
	err  error
}

func (p *recordingPublisher) PublishTablesReady(_ context.Context, msg *amqp.TablesReadyMessage) error {
	p.msgs = append(p.msgs, msg)
	return p.err
}

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "grants.csv")
	if err := os.WriteFile(path, []byte(grantsCSV), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestAggregateService(dir string, extras []sink.TableWriter, pub Publisher) *AggregateService {
	svc := NewAggregateService(nil, csvfile.New(dir, ','), extras, pub, dataset.DefaultOptions())
	svc.newRunID = func() string { return "run-1" }
	return svc
}

func TestAggregateServiceRun(t *testing.T) {
	out := t.TempDir()
	extra := &recordingSink{name: "fake"}
	pub := &recordingPublisher{}
	svc := newTestAggregateService(out, []sink.TableWriter{extra}, pub)

	res, err := svc.Run(context.Background(), writeInput(t))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.RunID != "run-1" || res.Records != 4 || res.Excluded != 1 || res.UnknownYears != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Tables) != 4 {
		t.Fatalf("expected 4 tables, got %d", len(res.Tables))
	}
	for _, k := range core.AllTables {
		if _, err := os.Stat(filepath.Join(out, k.FileName())); err != nil {
			t.Errorf("missing output %s: %v", k.FileName(), err)
		}
	}

	global := res.Tables[0]
	want := [][]string{
		{"Economic Growth", "1200", "76.92"},
		{"Health", "350", "22.44"},
		{"Education", "10", "0.64"},
	}
	if diff := cmp.Diff(want, global.Records()); diff != "" {
		t.Errorf("global_sectors mismatch (-want +got):\n%s", diff)
	}

	if len(extra.tables) != 4 {
		t.Errorf("extra sink got %d tables, want 4", len(extra.tables))
	}

	if len(pub.msgs) != 1 {
		t.Fatalf("expected one announcement, got %d", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.RunID != "run-1" || msg.Digest != res.Digest || len(msg.Tables) != 4 {
		t.Errorf("unexpected announcement: %+v", msg)
	}
	info, ok := msg.Table(core.GlobalSectorsYear)
	if !ok || info.File != filepath.Join(out, "global_sectors_year.csv") {
		t.Errorf("unexpected year table entry: %+v", info)
	}
}

func TestAggregateServiceDeterministic(t *testing.T) {
	input := writeInput(t)
	first, err := newTestAggregateService(t.TempDir(), nil, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	second, err := newTestAggregateService(t.TempDir(), nil, nil).Run(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if first.Digest == "" || first.Digest != second.Digest {
		t.Fatalf("digests differ: %q vs %q", first.Digest, second.Digest)
	}
}

func TestAggregateServiceSinkFailure(t *testing.T) {
	out := t.TempDir()
	boom := errors.New("disk full")
	pub := &recordingPublisher{}
	svc := newTestAggregateService(out, []sink.TableWriter{&recordingSink{name: "broken", err: boom}}, pub)

	_, err := svc.Run(context.Background(), writeInput(t))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "global_sectors.csv")); err != nil {
		t.Errorf("CSV tables should be written before optional sinks: %v", err)
	}
	if len(pub.msgs) != 0 {
		t.Error("failed run should not be announced")
	}
}

func TestAggregateServicePublishFailure(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestAggregateService(t.TempDir(), nil, pub)
	if _, err := svc.Run(context.Background(), writeInput(t)); err == nil {
		t.Fatal("expected publish error")
	}
}

func TestAggregateServiceLogsRunContext(t *testing.T) {
	var buf bytes.Buffer
	logger := applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf})
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewAggregateService(logger, csvfile.New(t.TempDir(), ','), nil, pub, dataset.DefaultOptions())
	svc.newRunID = func() string { return "run-1" }

	if _, err := svc.Run(context.Background(), writeInput(t)); err == nil {
		t.Fatal("expected publish error")
	}
	out := buf.String()
	for _, s := range []string{
		"run_id=run-1",
		"component=dataset",
		"operation=load",
		"excluded=1",
		"component=aggregate",
		"operation=publish",
		"error_type=network_error",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("log output missing %q:\n%s", s, out)
		}
	}
}

func TestAggregateServiceMissingInput(t *testing.T) {
	svc := newTestAggregateService(t.TempDir(), nil, nil)
	_, err := svc.Run(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
