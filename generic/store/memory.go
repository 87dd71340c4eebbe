// Package store provides Store implementations.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory is a thread-safe in-memory generic.Store.
type Memory struct {
	mu    sync.RWMutex
	state *memoryState
}

type payslipKey struct {
	WorkerID generic.WorkerID
	Year     int
	Month    time.Month
}

type monthKey struct {
	Year  int
	Month time.Month
}

// memoryState holds the data and implements generic.Store without locking.
// Memory wraps it with a mutex; TxMemory hands it directly to WithTx callbacks
// while holding the write lock.
type memoryState struct {
	workers     map[generic.WorkerID]generic.Worker
	shifts      map[generic.ShiftID]generic.ShiftRecord
	leaves      map[generic.LeaveRequestID]generic.LeaveRequest
	payslips    map[payslipKey]generic.PayslipRecord
	workingDays map[monthKey]int
	holidays    map[string]generic.Holiday
	journal     []generic.BalanceTransaction
	idempotency map[string]bool
}

func newMemoryState() *memoryState {
	return &memoryState{
		workers:     make(map[generic.WorkerID]generic.Worker),
		shifts:      make(map[generic.ShiftID]generic.ShiftRecord),
		leaves:      make(map[generic.LeaveRequestID]generic.LeaveRequest),
		payslips:    make(map[payslipKey]generic.PayslipRecord),
		workingDays: make(map[monthKey]int),
		holidays:    make(map[string]generic.Holiday),
		idempotency: make(map[string]bool),
	}
}

func NewMemory() *Memory {
	return &Memory{state: newMemoryState()}
}

// --- workers ---

func (m *Memory) SaveWorker(ctx context.Context, w generic.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SaveWorker(ctx, w)
}

func (m *Memory) GetWorker(ctx context.Context, id generic.WorkerID) (*generic.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetWorker(ctx, id)
}

func (m *Memory) ListWorkers(ctx context.Context, filter generic.CategoryFilter) ([]generic.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListWorkers(ctx, filter)
}

func (m *Memory) DeleteWorker(ctx context.Context, id generic.WorkerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteWorker(ctx, id)
}

func (m *Memory) UpdateLeaveBalances(ctx context.Context, id generic.WorkerID, annual, medical decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpdateLeaveBalances(ctx, id, annual, medical)
}

// --- shifts ---

func (m *Memory) SaveShift(ctx context.Context, s generic.ShiftRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SaveShift(ctx, s)
}

func (m *Memory) GetShift(ctx context.Context, id generic.ShiftID) (*generic.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetShift(ctx, id)
}

func (m *Memory) ListShifts(ctx context.Context, workerID generic.WorkerID, period generic.Period) ([]generic.ShiftRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListShifts(ctx, workerID, period)
}

func (m *Memory) DeleteShift(ctx context.Context, id generic.ShiftID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteShift(ctx, id)
}

// --- leave requests ---

func (m *Memory) SaveLeaveRequest(ctx context.Context, r generic.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SaveLeaveRequest(ctx, r)
}

func (m *Memory) GetLeaveRequest(ctx context.Context, id generic.LeaveRequestID) (*generic.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetLeaveRequest(ctx, id)
}

func (m *Memory) ListLeaveRequests(ctx context.Context, filter generic.LeaveFilter) ([]generic.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListLeaveRequests(ctx, filter)
}

func (m *Memory) DeleteLeaveRequest(ctx context.Context, id generic.LeaveRequestID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteLeaveRequest(ctx, id)
}

// --- payslips ---

func (m *Memory) UpsertPayslip(ctx context.Context, p generic.PayslipRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.UpsertPayslip(ctx, p)
}

func (m *Memory) GetPayslip(ctx context.Context, workerID generic.WorkerID, year int, month time.Month) (*generic.PayslipRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetPayslip(ctx, workerID, year, month)
}

func (m *Memory) ListPayslips(ctx context.Context, workerID generic.WorkerID, year int) ([]generic.PayslipRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListPayslips(ctx, workerID, year)
}

// --- configuration ---

func (m *Memory) SetWorkingDays(ctx context.Context, cfg generic.WorkingDaysConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SetWorkingDays(ctx, cfg)
}

func (m *Memory) GetWorkingDays(ctx context.Context, year int, month time.Month) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.GetWorkingDays(ctx, year, month)
}

func (m *Memory) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.SaveHoliday(ctx, h)
}

func (m *Memory) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListHolidays(ctx)
}

func (m *Memory) DeleteHoliday(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.DeleteHoliday(ctx, id)
}

// --- journal ---

func (m *Memory) AppendBalanceTx(ctx context.Context, tx generic.BalanceTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.AppendBalanceTx(ctx, tx)
}

func (m *Memory) ListBalanceTx(ctx context.Context, workerID generic.WorkerID) ([]generic.BalanceTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.ListBalanceTx(ctx, workerID)
}

// =============================================================================
// UNLOCKED STATE
// =============================================================================

func (s *memoryState) SaveWorker(_ context.Context, w generic.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}
	s.workers[w.ID] = cloneWorker(w)
	return nil
}

func (s *memoryState) GetWorker(_ context.Context, id generic.WorkerID) (*generic.Worker, error) {
	w, ok := s.workers[id]
	if !ok {
		return nil, generic.WorkerNotFound(id)
	}
	out := cloneWorker(w)
	return &out, nil
}

func (s *memoryState) ListWorkers(_ context.Context, filter generic.CategoryFilter) ([]generic.Worker, error) {
	var out []generic.Worker
	for _, w := range s.workers {
		if filter.Matches(w.Category) {
			out = append(out, cloneWorker(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryState) DeleteWorker(_ context.Context, id generic.WorkerID) error {
	if _, ok := s.workers[id]; !ok {
		return generic.WorkerNotFound(id)
	}
	delete(s.workers, id)
	return nil
}

func (s *memoryState) UpdateLeaveBalances(_ context.Context, id generic.WorkerID, annual, medical decimal.Decimal) error {
	w, ok := s.workers[id]
	if !ok {
		return generic.WorkerNotFound(id)
	}
	w.Leave.AnnualBalance = annual
	w.Leave.MedicalBalance = medical
	s.workers[id] = w
	return nil
}

func (s *memoryState) SaveShift(_ context.Context, r generic.ShiftRecord) error {
	if r.ID == "" {
		return generic.InvalidInput("shift record id is required")
	}
	s.shifts[r.ID] = cloneShift(r)
	return nil
}

func (s *memoryState) GetShift(_ context.Context, id generic.ShiftID) (*generic.ShiftRecord, error) {
	r, ok := s.shifts[id]
	if !ok {
		return nil, generic.NewError(generic.KindNotFound, fmt.Sprintf("shift record %s not found", id), generic.ErrShiftNotFound)
	}
	out := cloneShift(r)
	return &out, nil
}

func (s *memoryState) ListShifts(_ context.Context, workerID generic.WorkerID, period generic.Period) ([]generic.ShiftRecord, error) {
	var out []generic.ShiftRecord
	for _, r := range s.shifts {
		if r.WorkerID == workerID && period.Contains(r.WorkDate) {
			out = append(out, cloneShift(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].WorkDate.Equal(out[j].WorkDate) {
			return out[i].WorkDate.Before(out[j].WorkDate)
		}
		if !out[i].Entry.Equal(out[j].Entry) {
			return out[i].Entry.Before(out[j].Entry)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryState) DeleteShift(_ context.Context, id generic.ShiftID) error {
	if _, ok := s.shifts[id]; !ok {
		return generic.NewError(generic.KindNotFound, fmt.Sprintf("shift record %s not found", id), generic.ErrShiftNotFound)
	}
	delete(s.shifts, id)
	return nil
}

func (s *memoryState) SaveLeaveRequest(_ context.Context, r generic.LeaveRequest) error {
	if r.ID == "" {
		return generic.InvalidInput("leave request id is required")
	}
	s.leaves[r.ID] = cloneLeave(r)
	return nil
}

func (s *memoryState) GetLeaveRequest(_ context.Context, id generic.LeaveRequestID) (*generic.LeaveRequest, error) {
	r, ok := s.leaves[id]
	if !ok {
		return nil, leaveNotFound(id)
	}
	out := cloneLeave(r)
	return &out, nil
}

func (s *memoryState) ListLeaveRequests(_ context.Context, filter generic.LeaveFilter) ([]generic.LeaveRequest, error) {
	var out []generic.LeaveRequest
	for _, r := range s.leaves {
		if filter.WorkerID != "" && r.WorkerID != filter.WorkerID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, cloneLeave(r))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].From.Equal(out[j].From) {
			return out[i].From.Before(out[j].From)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *memoryState) DeleteLeaveRequest(_ context.Context, id generic.LeaveRequestID) error {
	if _, ok := s.leaves[id]; !ok {
		return leaveNotFound(id)
	}
	delete(s.leaves, id)
	return nil
}

func (s *memoryState) UpsertPayslip(_ context.Context, p generic.PayslipRecord) error {
	k := payslipKey{WorkerID: p.WorkerID, Year: p.Year, Month: p.Month}
	if existing, ok := s.payslips[k]; ok {
		p.ID = existing.ID
	}
	s.payslips[k] = clonePayslip(p)
	return nil
}

func (s *memoryState) GetPayslip(_ context.Context, workerID generic.WorkerID, year int, month time.Month) (*generic.PayslipRecord, error) {
	p, ok := s.payslips[payslipKey{WorkerID: workerID, Year: year, Month: month}]
	if !ok {
		return nil, payslipNotFound(workerID, year, month)
	}
	out := clonePayslip(p)
	return &out, nil
}

func (s *memoryState) ListPayslips(_ context.Context, workerID generic.WorkerID, year int) ([]generic.PayslipRecord, error) {
	var out []generic.PayslipRecord
	for k, p := range s.payslips {
		if k.WorkerID == workerID && k.Year == year {
			out = append(out, clonePayslip(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (s *memoryState) SetWorkingDays(_ context.Context, cfg generic.WorkingDaysConfig) error {
	if cfg.Days <= 0 {
		return generic.InvalidInput("working days must be positive, got %d", cfg.Days)
	}
	s.workingDays[monthKey{Year: cfg.Year, Month: cfg.Month}] = cfg.Days
	return nil
}

func (s *memoryState) GetWorkingDays(_ context.Context, year int, month time.Month) (int, error) {
	days, ok := s.workingDays[monthKey{Year: year, Month: month}]
	if !ok {
		return 0, generic.ConfigurationMissing(year, month)
	}
	return days, nil
}

func (s *memoryState) SaveHoliday(_ context.Context, h generic.Holiday) error {
	if h.ID == "" {
		return generic.InvalidInput("holiday id is required")
	}
	s.holidays[h.ID] = h
	return nil
}

func (s *memoryState) ListHolidays(_ context.Context) ([]generic.Holiday, error) {
	out := make([]generic.Holiday, 0, len(s.holidays))
	for _, h := range s.holidays {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *memoryState) DeleteHoliday(_ context.Context, id string) error {
	if _, ok := s.holidays[id]; !ok {
		return generic.NewError(generic.KindNotFound, fmt.Sprintf("holiday %s not found", id), generic.ErrHolidayNotFound)
	}
	delete(s.holidays, id)
	return nil
}

func (s *memoryState) AppendBalanceTx(_ context.Context, tx generic.BalanceTransaction) error {
	if tx.IdempotencyKey != "" {
		if s.idempotency[tx.IdempotencyKey] {
			return generic.ErrDuplicateIdempotencyKey
		}
		s.idempotency[tx.IdempotencyKey] = true
	}
	s.journal = append(s.journal, tx)
	return nil
}

func (s *memoryState) ListBalanceTx(_ context.Context, workerID generic.WorkerID) ([]generic.BalanceTransaction, error) {
	var out []generic.BalanceTransaction
	for _, tx := range s.journal {
		if tx.WorkerID == workerID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support.
type TxMemory struct {
	*Memory
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(generic.Store) error) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	snapshot := tm.state.clone()
	if err := fn(tm.state); err != nil {
		tm.state = snapshot
		return err
	}
	return nil
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.workers {
		c.workers[k] = cloneWorker(v)
	}
	for k, v := range s.shifts {
		c.shifts[k] = cloneShift(v)
	}
	for k, v := range s.leaves {
		c.leaves[k] = cloneLeave(v)
	}
	for k, v := range s.payslips {
		c.payslips[k] = clonePayslip(v)
	}
	for k, v := range s.workingDays {
		c.workingDays[k] = v
	}
	for k, v := range s.holidays {
		c.holidays[k] = v
	}
	for k, v := range s.idempotency {
		c.idempotency[k] = v
	}
	c.journal = append([]generic.BalanceTransaction(nil), s.journal...)
	return c
}

// =============================================================================
// COPY HELPERS - callers never alias stored values
// =============================================================================

func cloneWorker(w generic.Worker) generic.Worker {
	if w.Local != nil {
		local := *w.Local
		w.Local = &local
	}
	return w
}

func cloneShift(r generic.ShiftRecord) generic.ShiftRecord {
	if r.Exit != nil {
		exit := *r.Exit
		r.Exit = &exit
	}
	r.Breaks = append([]generic.Break(nil), r.Breaks...)
	return r
}

func cloneLeave(r generic.LeaveRequest) generic.LeaveRequest {
	if r.Allocation != nil {
		alloc := *r.Allocation
		r.Allocation = &alloc
	}
	if r.DecidedAt != nil {
		at := *r.DecidedAt
		r.DecidedAt = &at
	}
	return r
}

func clonePayslip(p generic.PayslipRecord) generic.PayslipRecord {
	p.CustomAdditions = append([]generic.PayLine(nil), p.CustomAdditions...)
	p.CustomDeductions = append([]generic.PayLine(nil), p.CustomDeductions...)
	p.Warnings = append([]string(nil), p.Warnings...)
	return p
}

func leaveNotFound(id generic.LeaveRequestID) error {
	return generic.NewError(generic.KindNotFound, fmt.Sprintf("leave request %s not found", id), generic.ErrLeaveRequestNotFound)
}

func payslipNotFound(workerID generic.WorkerID, year int, month time.Month) error {
	return generic.NewError(generic.KindNotFound,
		fmt.Sprintf("no payslip for worker %s in %s %d", workerID, month, year), generic.ErrPayslipNotFound)
}
