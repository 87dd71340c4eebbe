/*
Package sqlite provides a SQLite-backed implementation of the record store.

PURPOSE:
  Implements generic.TxStore using SQLite. Every engine operation (leave
  approval, payslip computation, reports) runs against this store in the
  server binary; tests use ":memory:".

KEY TABLES:
  workers:              Both worker categories; local-only columns are NULL for foreign
  shifts:               Work and leave shift records
  leave_requests:       Requests with their stored allocation (JSON)
  payslips:             One row per (worker, year, month); full record as JSON
  working_days:         Configured working-day count per month
  holidays:             Public holidays backing the calendar oracle
  balance_transactions: Append-only balance journal

INDEXES:
  - idx_shifts_worker_date: Month aggregation and leave window lookups (hot path)
  - idx_shifts_request: Removing a request's leave records
  - payslips UNIQUE(worker_id, year, month): Idempotent upsert key
  - balance_transactions.idempotency_key UNIQUE: No double deduction/restoration

NUMBERS:
  Decimal values are stored as TEXT. A value that fails to parse as a finite
  number is read back as zero and a warning is logged.

CONCURRENCY:
  The pool is limited to one connection. SQLite serializes writers anyway and
  ":memory:" databases exist per connection, so one connection keeps every
  caller on the same database.

USAGE:
  store, err := sqlite.New("./data/payroll.db", sqlite.WithLogger(log))
  if err != nil {
      log.Fatal().Err(err).Msg("open store")
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - generic/store.go: Interface definitions
  - generic/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/warp/payroll-engine/generic"
)

// Store implements generic.TxStore using SQLite.
type Store struct {
	queries
	db *sql.DB
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for data-quality warnings.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{db: db, queries: queries{q: db, log: zerolog.Nop()}}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL CHECK (category IN ('local', 'foreign')),
		site_id TEXT,
		monthly_basic_salary TEXT NOT NULL,
		ot_rate_per_hour TEXT NOT NULL,
		rest_holiday_rate_per_day TEXT NOT NULL,
		monthly_allowance TEXT NOT NULL,
		annual_limit TEXT NOT NULL,
		medical_limit TEXT NOT NULL,
		annual_balance TEXT NOT NULL,
		medical_balance TEXT NOT NULL,
		birth_date TEXT,
		employee_contribution_rate TEXT,
		employer_contribution_rate TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_workers_category ON workers(category);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		work_date TEXT NOT NULL,
		entry_time TEXT NOT NULL,
		exit_time TEXT,
		breaks_json TEXT,
		leave_type TEXT,
		leave_duration TEXT,
		leave_paid INTEGER NOT NULL DEFAULT 0,
		leave_request_id TEXT,
		site_id TEXT,
		basic_hours TEXT NOT NULL,
		rest_holiday_hours TEXT NOT NULL,
		ot_hours TEXT NOT NULL,
		break_hours TEXT NOT NULL,
		has_left INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_worker_date ON shifts(worker_id, work_date);
	CREATE INDEX IF NOT EXISTS idx_shifts_request
		ON shifts(leave_request_id) WHERE leave_request_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		duration TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected')),
		admin_notes TEXT,
		allocation_json TEXT,
		created_at TEXT NOT NULL,
		decided_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_leave_requests_worker ON leave_requests(worker_id, status);

	CREATE TABLE IF NOT EXISTS payslips (
		id TEXT PRIMARY KEY,
		worker_id TEXT NOT NULL,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		net_pay TEXT NOT NULL,
		data_json TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		UNIQUE(worker_id, year, month)
	);

	CREATE TABLE IF NOT EXISTS working_days (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		days INTEGER NOT NULL CHECK (days > 0),
		PRIMARY KEY (year, month)
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	-- Append-only: no UPDATE or DELETE statements target this table.
	CREATE TABLE IF NOT EXISTS balance_transactions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		worker_id TEXT NOT NULL,
		pool TEXT NOT NULL,
		delta TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		tx_type TEXT NOT NULL,
		reference_id TEXT,
		reason TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_balance_transactions_worker ON balance_transactions(worker_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION SUPPORT
// =============================================================================

// WithTx executes fn within a transaction.
// If fn returns an error, the transaction is rolled back.
func (s *Store) WithTx(ctx context.Context, fn func(store generic.Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&queries{q: sqlTx, log: s.log}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// Reset deletes all rows. Used by demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	tables := []string{"workers", "shifts", "leave_requests", "payslips", "working_days", "holidays", "balance_transactions"}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, t := range tables {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+t); err != nil {
			return fmt.Errorf("reset %s: %w", t, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
