/*
store.go - Record store interfaces

PURPOSE:
  Defines the boundary between the engine and persistence. Every engine
  operation is expressed against these interfaces; implementations decide
  the protocol (SQLite, in-memory, or a remote store behind a client).

KEY INTERFACES:
  WorkerStore:  Worker records (both categories through one interface)
  ShiftStore:   Attendance and leave shift records
  LeaveStore:   Leave requests
  PayslipStore: Payslips, upserted by (worker, month, year)
  ConfigStore:  Working days per month and the holiday list
  JournalStore: Append-only balance journal
  Store:        All of the above
  TxStore:      Store plus WithTx for atomic multi-record writes

NOT-FOUND CONTRACT:
  Getters return the matching sentinel (ErrWorkerNotFound,
  ErrLeaveRequestNotFound, ErrShiftNotFound, ErrPayslipNotFound,
  ErrConfigurationMissing) wrapped in a typed *Error. They never return
  (nil, nil).

ATOMICITY:
  WithTx runs fn against a Store view; if fn returns an error nothing it
  wrote is kept. Leave approval uses this so balance deduction, shift
  replacement and the status change land together for one worker.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - generic/store/memory.go: In-memory for testing

SEE ALSO:
  - ledger.go: Balance journal on top of JournalStore + WorkerStore
*/
package generic

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type WorkerStore interface {
	// SaveWorker inserts or replaces a worker.
	SaveWorker(ctx context.Context, w Worker) error
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)
	ListWorkers(ctx context.Context, filter CategoryFilter) ([]Worker, error)
	// DeleteWorker removes the worker only. Payslips are never touched.
	DeleteWorker(ctx context.Context, id WorkerID) error
	UpdateLeaveBalances(ctx context.Context, id WorkerID, annual, medical decimal.Decimal) error
}

type ShiftStore interface {
	SaveShift(ctx context.Context, s ShiftRecord) error
	GetShift(ctx context.Context, id ShiftID) (*ShiftRecord, error)
	// ListShifts returns the worker's records with WorkDate in period,
	// ordered by work date then entry time.
	ListShifts(ctx context.Context, workerID WorkerID, period Period) ([]ShiftRecord, error)
	DeleteShift(ctx context.Context, id ShiftID) error
}

type LeaveStore interface {
	SaveLeaveRequest(ctx context.Context, r LeaveRequest) error
	GetLeaveRequest(ctx context.Context, id LeaveRequestID) (*LeaveRequest, error)
	ListLeaveRequests(ctx context.Context, filter LeaveFilter) ([]LeaveRequest, error)
	DeleteLeaveRequest(ctx context.Context, id LeaveRequestID) error
}

type PayslipStore interface {
	// UpsertPayslip overwrites any payslip with the same (worker, month, year).
	UpsertPayslip(ctx context.Context, p PayslipRecord) error
	GetPayslip(ctx context.Context, workerID WorkerID, year int, month time.Month) (*PayslipRecord, error)
	// ListPayslips returns the worker's payslips for a year ordered by month.
	ListPayslips(ctx context.Context, workerID WorkerID, year int) ([]PayslipRecord, error)
}

type ConfigStore interface {
	SetWorkingDays(ctx context.Context, cfg WorkingDaysConfig) error
	GetWorkingDays(ctx context.Context, year int, month time.Month) (int, error)
	SaveHoliday(ctx context.Context, h Holiday) error
	ListHolidays(ctx context.Context) ([]Holiday, error)
	DeleteHoliday(ctx context.Context, id string) error
}

type JournalStore interface {
	// AppendBalanceTx fails with ErrDuplicateIdempotencyKey on a repeated key.
	AppendBalanceTx(ctx context.Context, tx BalanceTransaction) error
	ListBalanceTx(ctx context.Context, workerID WorkerID) ([]BalanceTransaction, error)
}

// Store is the full record store.
type Store interface {
	WorkerStore
	ShiftStore
	LeaveStore
	PayslipStore
	ConfigStore
	JournalStore
}

// TxStore extends Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}
