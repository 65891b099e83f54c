// Package sqlite stores summary tables in a SQLite database. Each run
// replaces the rows of the tables it writes inside a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"grantstats/internal/core"
	applog "grantstats/internal/log"
	"grantstats/internal/sink"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	now    func() time.Time
	logger *applog.Logger
}

var (
	_ sink.TableWriter = (*Store)(nil)
	_ sink.TableReader = (*Store)(nil)
)

// Open opens (creating if needed) the database at dbPath and migrates it.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now, logger: applog.Default(applog.ComponentStorage)}, nil
}

func (s *Store) Name() string { return "sqlite" }

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// WriteTables replaces the stored rows of every given table.
func (s *Store) WriteTables(ctx context.Context, tables []core.Table) error {
	start := s.now()
	if err := s.replaceTables(ctx, tables); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save summary tables", applog.NewFields().
			WithOperation(applog.OpWrite).
			WithError(err).
			WithErrorType(applog.ErrorTypeDatabase).
			ToSlice()...)
		return err
	}
	for _, t := range tables {
		s.logger.DebugContext(ctx, "Table saved", applog.NewFields().
			WithOperation(applog.OpWrite).
			WithTable(string(t.Kind), len(t.Rows)).
			ToSlice()...)
	}
	s.logger.InfoContext(ctx, "Summary tables saved to SQLite", applog.NewFields().
		WithOperation(applog.OpWrite).
		With("tables", len(tables)).
		WithDuration(s.now().Sub(start).Milliseconds()).
		ToSlice()...)
	return nil
}

func (s *Store) replaceTables(ctx context.Context, tables []core.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert, err := tx.PrepareContext(ctx, `INSERT INTO summary_rows
		(table_name, position, sector, year, grantee, amount, percentage)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	writtenAt := s.now().UTC().Format(time.RFC3339)
	for _, t := range tables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM summary_rows WHERE table_name = ?`, string(t.Kind)); err != nil {
			return fmt.Errorf("clear %s: %w", t.Kind, err)
		}
		for i, r := range t.Rows {
			if _, err := insert.ExecContext(ctx, string(t.Kind), i, r.Sector,
				yearValue(t.Kind, r.Year), granteeValue(t.Kind, r.Grantee),
				r.Amount.String(), percentValue(r.Percentage)); err != nil {
				return fmt.Errorf("insert %s row %d: %w", t.Kind, i, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO table_runs (table_name, row_count, written_at)
			VALUES (?, ?, ?)
			ON CONFLICT(table_name) DO UPDATE SET row_count = excluded.row_count, written_at = excluded.written_at`,
			string(t.Kind), len(t.Rows), writtenAt); err != nil {
			return fmt.Errorf("record %s run: %w", t.Kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ReadTable returns the rows of one table in their stored order.
func (s *Store) ReadTable(ctx context.Context, kind core.TableKind) (core.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT sector, year, grantee, amount, percentage
		FROM summary_rows WHERE table_name = ? ORDER BY position`, string(kind))
	if err != nil {
		return core.Table{}, fmt.Errorf("query %s: %w", kind, err)
	}
	defer rows.Close()

	tbl := core.Table{Kind: kind}
	for rows.Next() {
		var (
			r       core.SummaryRow
			year    sql.NullInt64
			grantee sql.NullString
			amount  string
			percent sql.NullString
		)
		if err := rows.Scan(&r.Sector, &year, &grantee, &amount, &percent); err != nil {
			return core.Table{}, fmt.Errorf("scan %s: %w", kind, err)
		}
		if year.Valid {
			r.Year = core.NewYear(int(year.Int64))
		}
		r.Grantee = grantee.String
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return core.Table{}, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		if percent.Valid {
			if r.Percentage, err = core.ParsePercentage(percent.String); err != nil {
				return core.Table{}, fmt.Errorf("parse percentage %q: %w", percent.String, err)
			}
		}
		tbl.Rows = append(tbl.Rows, r)
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("iterate %s: %w", kind, err)
	}
	return tbl, nil
}

// RowCount returns the row count recorded by the last write of kind.
func (s *Store) RowCount(ctx context.Context, kind core.TableKind) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT row_count FROM table_runs WHERE table_name = ?`, string(kind)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("row count %s: %w", kind, err)
	}
	return n, nil
}

func yearValue(kind core.TableKind, y core.Year) any {
	if !kind.HasYear() || !y.Known() {
		return nil
	}
	return y.Value()
}

func granteeValue(kind core.TableKind, g string) any {
	if !kind.HasGrantee() {
		return nil
	}
	return g
}

func percentValue(p decimal.NullDecimal) any {
	if !p.Valid {
		return nil
	}
	return core.FormatPercentage(p)
}
