/*
service.go - Leave request lifecycle and the leave balance ledger

PURPOSE:
  Owns every transition of a leave request and keeps three things in step:
  the worker's annual/medical balance, the leave shift records the payroll
  aggregator reads, and the request's own status and allocation.

STATE MACHINE:
  ┌─────────┐  Approve   ┌──────────┐  Delete   ┌─────────┐
  │ Pending │──────────▶ │ Approved │─────────▶ │ (gone)  │  balance restored
  └─────────┘            └──────────┘           └─────────┘
       │ Reject               │ Edit (balance untouched)
       ▼                      ▼
  ┌──────────┐           ┌──────────┐
  │ Rejected │──Delete──▶│ Approved │
  └──────────┘           └──────────┘

  Pending requests cannot be deleted and rejected requests cannot be edited.

APPROVAL:
  One transaction: deduct min(requested, balance) from the pool, replace
  overlapping work shifts with one leave record per calendar day, store the
  allocation. If that transaction fails the status change is still saved on
  its own and the caller gets a *generic.PartialFailure naming what was
  applied and what was not.

DELETION:
  Adds back exactly the days that approval deducted (stored on the
  allocation), never a recomputation. A recomputation is still made and any
  disagreement is logged as a ReconciliationMismatch.

SEE ALSO:
  - days.go: Allocate
  - generic/ledger.go: Balance journal
  - attendance/aggregate.go: Reads the leave records written here
*/
package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
)

// WarnBalanceNotRecomputed is attached to every approved-request edit.
const WarnBalanceNotRecomputed = "balance not recomputed on edit"

// Outcome is what a lifecycle operation did.
type Outcome struct {
	Request    *generic.LeaveRequest    `json:"request"`
	Allocation *generic.LeaveAllocation `json:"allocation,omitempty"`
	Days       []DayOutcome             `json:"days,omitempty"`
	Warnings   []string                 `json:"warnings,omitempty"`
}

// SubmitInput is a new leave request.
type SubmitInput struct {
	WorkerID   generic.WorkerID
	LeaveType  generic.LeaveType
	Duration   generic.LeaveDuration
	From       generic.Date
	To         generic.Date
	AdminNotes string
}

// EditInput replaces the editable fields of a request.
type EditInput struct {
	LeaveType  generic.LeaveType
	Duration   generic.LeaveDuration
	From       generic.Date
	To         generic.Date
	AdminNotes string
}

// =============================================================================
// SERVICE
// =============================================================================

type Service struct {
	store      generic.TxStore
	log        zerolog.Logger
	restDays   []time.Weekday
	restoreCap bool
	now        func() time.Time
}

type Option func(*Service)

// WithRestDays sets the weekly rest days. Sunday when unset.
func WithRestDays(days []time.Weekday) Option {
	return func(s *Service) { s.restDays = days }
}

// WithRestoreCap caps restored balances at the pool's annual limit.
func WithRestoreCap(enabled bool) Option {
	return func(s *Service) { s.restoreCap = enabled }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store generic.TxStore, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log.With().Str("component", "leave").Logger(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) calendar(ctx context.Context) (*generic.HolidayCalendar, error) {
	return generic.LoadCalendar(ctx, s.store, s.restDays)
}

func (s *Service) ledger(tx generic.Store) *generic.Ledger {
	l := generic.NewLedger(tx)
	l.Now = s.now
	return l
}

// validateWindow checks the range and that it covers at least one working day.
func (s *Service) validateWindow(ctx context.Context, from, to generic.Date, duration generic.LeaveDuration) (generic.Period, error) {
	period, err := generic.NewPeriod(from, to)
	if err != nil {
		return generic.Period{}, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return generic.Period{}, err
	}
	if !RequestedDays(period, duration, cal).IsPositive() {
		return generic.Period{}, generic.NewError(generic.KindInvalidRange,
			fmt.Sprintf("leave %s has no working days", period), generic.ErrInvalidRange)
	}
	return period, nil
}

// =============================================================================
// QUERIES
// =============================================================================

func (s *Service) Get(ctx context.Context, id generic.LeaveRequestID) (*generic.LeaveRequest, error) {
	return s.store.GetLeaveRequest(ctx, id)
}

func (s *Service) List(ctx context.Context, filter generic.LeaveFilter) ([]generic.LeaveRequest, error) {
	return s.store.ListLeaveRequests(ctx, filter)
}

// History returns the worker's balance journal, oldest first.
func (s *Service) History(ctx context.Context, workerID generic.WorkerID) ([]generic.BalanceTransaction, error) {
	if _, err := s.store.GetWorker(ctx, workerID); err != nil {
		return nil, err
	}
	return s.ledger(s.store).History(ctx, workerID)
}

// =============================================================================
// SUBMIT / REJECT
// =============================================================================

// Submit records a pending request. Balances are not touched until approval.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*generic.LeaveRequest, error) {
	if _, err := s.store.GetWorker(ctx, in.WorkerID); err != nil {
		return nil, err
	}
	info, err := Classify(in.LeaveType)
	if err != nil {
		return nil, err
	}
	if in.Duration == "" {
		in.Duration = generic.DurationFullDay
	}
	if _, err := s.validateWindow(ctx, in.From, in.To, in.Duration); err != nil {
		return nil, err
	}

	req := generic.LeaveRequest{
		ID:         generic.LeaveRequestID(uuid.NewString()),
		WorkerID:   in.WorkerID,
		LeaveType:  info.Type,
		Duration:   in.Duration,
		From:       in.From,
		To:         in.To,
		Status:     generic.StatusPending,
		AdminNotes: in.AdminNotes,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.SaveLeaveRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("save leave request: %w", err)
	}
	s.log.Info().Str("request_id", string(req.ID)).Str("worker_id", string(req.WorkerID)).
		Str("leave_type", string(req.LeaveType)).Msg("leave request submitted")
	return &req, nil
}

func (s *Service) Reject(ctx context.Context, id generic.LeaveRequestID, notes string) (*generic.LeaveRequest, error) {
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != generic.StatusPending {
		return nil, generic.InvalidTransition(id, req.Status, "reject")
	}
	decided := s.now().UTC()
	req.Status = generic.StatusRejected
	req.DecidedAt = &decided
	if notes != "" {
		req.AdminNotes = notes
	}
	if err := s.store.SaveLeaveRequest(ctx, *req); err != nil {
		return nil, fmt.Errorf("save leave request %s: %w", id, err)
	}
	return req, nil
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve moves a pending request to approved, deducting what the balance
// covers and writing one leave record per day of the range.
func (s *Service) Approve(ctx context.Context, id generic.LeaveRequestID, notes string) (*Outcome, error) {
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != generic.StatusPending {
		return nil, generic.InvalidTransition(id, req.Status, "approve")
	}
	info, err := Classify(req.LeaveType)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}

	decided := s.now().UTC()
	approved := *req
	approved.Status = generic.StatusApproved
	approved.DecidedAt = &decided
	if notes != "" {
		approved.AdminNotes = notes
	}

	var (
		alloc generic.LeaveAllocation
		days  []DayOutcome
	)
	txErr := s.store.WithTx(ctx, func(tx generic.Store) error {
		w, err := tx.GetWorker(ctx, req.WorkerID)
		if err != nil {
			return err
		}
		budget := decimal.Zero
		if info.Tracked() {
			budget = w.Leave.Balance(info.Pool)
		}
		alloc, days = Allocate(info, req.Period(), req.Duration, cal, budget)

		if alloc.DeductedDays.IsPositive() {
			if _, err := s.ledger(tx).Post(ctx, w, generic.BalanceChange{
				Pool:           info.Pool,
				Delta:          alloc.DeductedDays.Neg(),
				Type:           generic.TxDeduction,
				ReferenceID:    string(id),
				Reason:         fmt.Sprintf("%s %s", req.LeaveType, req.Period()),
				IdempotencyKey: string(id) + "-deduct",
			}); err != nil {
				return err
			}
		}

		if err := replaceLeaveRecords(ctx, tx, approved, w.SiteID, req.Period(), days, cal); err != nil {
			return err
		}
		approved.Allocation = &alloc
		return tx.SaveLeaveRequest(ctx, approved)
	})

	if txErr == nil {
		s.log.Info().Str("request_id", string(id)).Str("worker_id", string(req.WorkerID)).
			Str("paid_days", alloc.PaidDays.String()).Str("unpaid_days", alloc.UnpaidDays.String()).
			Str("deducted_days", alloc.DeductedDays.String()).Msg("leave request approved")
		return &Outcome{Request: &approved, Allocation: &alloc, Days: days}, nil
	}

	// Keep the decision even though balances and shifts could not follow.
	approved.Allocation = nil
	if err := s.store.SaveLeaveRequest(ctx, approved); err != nil {
		s.log.Error().Err(err).AnErr("cause", txErr).Str("request_id", string(id)).Msg("approve: status save failed")
		return nil, errors.Join(txErr, fmt.Errorf("save status of leave request %s: %w", id, err))
	}
	pf := &generic.PartialFailure{
		Operation: "approve_leave",
		Applied:   []string{"status"},
		Failed:    "balance_and_shifts",
		Cause:     txErr,
	}
	s.log.Warn().Err(txErr).Str("request_id", string(id)).Msg("leave request approved without balance or shift sync")
	return &Outcome{Request: &approved, Warnings: []string{pf.Error()}}, pf
}

// replaceLeaveRecords drops the request's previous leave records and every
// work shift in period, then writes one leave record per day.
func replaceLeaveRecords(ctx context.Context, tx generic.Store, req generic.LeaveRequest, siteID string, period generic.Period, days []DayOutcome, cal generic.Calendar) error {
	window := period
	if !req.From.IsZero() && !req.To.IsZero() {
		window = window.Union(req.Period())
	}
	existing, err := tx.ListShifts(ctx, req.WorkerID, window)
	if err != nil {
		return err
	}
	for _, rec := range existing {
		stale := rec.LeaveRequestID == req.ID
		overlapping := !rec.IsLeave() && period.Contains(rec.WorkDate)
		if stale || overlapping {
			if err := tx.DeleteShift(ctx, rec.ID); err != nil {
				return fmt.Errorf("remove shift %s: %w", rec.ID, err)
			}
		}
	}

	for _, day := range days {
		rec := generic.ShiftRecord{
			ID:             generic.ShiftID(uuid.NewString()),
			WorkerID:       req.WorkerID,
			WorkDate:       day.Date,
			Entry:          day.Date.Time,
			LeaveType:      req.LeaveType,
			LeaveDuration:  day.Duration,
			LeavePaid:      day.Paid,
			LeaveRequestID: req.ID,
			SiteID:         siteID,
			HasLeft:        true,
		}
		rec.Hours = generic.HourSplit{
			Basic:       attendance.LeaveHours(rec, cal),
			RestHoliday: decimal.Zero,
			OT:          decimal.Zero,
			Break:       decimal.Zero,
		}
		if err := tx.SaveShift(ctx, rec); err != nil {
			return fmt.Errorf("write leave record for %s: %w", day.Date, err)
		}
	}
	return nil
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a rejected or approved request. Approved requests give back
// exactly the days they deducted.
func (s *Service) Delete(ctx context.Context, id generic.LeaveRequestID) (*Outcome, error) {
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case generic.StatusPending:
		return nil, generic.InvalidTransition(id, req.Status, "delete")
	case generic.StatusRejected:
		if err := s.store.DeleteLeaveRequest(ctx, id); err != nil {
			return nil, err
		}
		return &Outcome{Request: req}, nil
	}

	info, err := Classify(req.LeaveType)
	if err != nil {
		return nil, err
	}
	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.store.ListShifts(ctx, req.WorkerID, req.Period())
	if err != nil {
		return nil, err
	}
	var records []generic.ShiftRecord
	for _, rec := range all {
		if rec.LeaveRequestID == id {
			records = append(records, rec)
		}
	}

	out := &Outcome{Request: req, Allocation: req.Allocation}
	for _, mismatch := range s.reconcile(*req, records, cal) {
		out.Warnings = append(out.Warnings, mismatch.Error())
	}

	restore := decimal.Zero
	if info.Tracked() && req.Allocation != nil {
		restore = req.Allocation.DeductedDays
	}
	pool := info.Pool
	if req.Allocation != nil && req.Allocation.Pool != "" {
		pool = req.Allocation.Pool
	}

	txErr := s.store.WithTx(ctx, func(tx generic.Store) error {
		if restore.IsPositive() {
			w, err := tx.GetWorker(ctx, req.WorkerID)
			if err != nil {
				return err
			}
			if _, err := s.ledger(tx).Post(ctx, w, generic.BalanceChange{
				Pool:           pool,
				Delta:          restore,
				Type:           generic.TxRestoration,
				ReferenceID:    string(id),
				Reason:         fmt.Sprintf("deleted %s %s", req.LeaveType, req.Period()),
				IdempotencyKey: string(id) + "-restore",
				CapAtLimit:     s.restoreCap,
			}); err != nil {
				return err
			}
		}
		for _, rec := range records {
			if err := tx.DeleteShift(ctx, rec.ID); err != nil {
				return fmt.Errorf("remove leave record %s: %w", rec.ID, err)
			}
		}
		return tx.DeleteLeaveRequest(ctx, id)
	})
	if txErr == nil {
		s.log.Info().Str("request_id", string(id)).Str("restored_days", restore.String()).Msg("leave request deleted")
		return out, nil
	}

	// Remove the request and its records even if the balance cannot be restored.
	var cleanup []error
	for _, rec := range records {
		if err := s.store.DeleteShift(ctx, rec.ID); err != nil && !generic.IsNotFound(err) {
			cleanup = append(cleanup, err)
		}
	}
	if err := s.store.DeleteLeaveRequest(ctx, id); err != nil && !generic.IsNotFound(err) {
		cleanup = append(cleanup, err)
	}
	if len(cleanup) > 0 {
		s.log.Error().Err(txErr).Errs("cleanup", cleanup).Str("request_id", string(id)).Msg("delete: cleanup failed")
		return nil, errors.Join(append([]error{txErr}, cleanup...)...)
	}

	pf := &generic.PartialFailure{
		Operation: "delete_leave",
		Applied:   []string{"request_deleted", "shifts_removed"},
		Failed:    "balance_restore",
		Cause:     txErr,
	}
	s.log.Warn().Err(txErr).Str("request_id", string(id)).Str("unrestored_days", restore.String()).
		Msg("leave request deleted without balance restore")
	out.Warnings = append(out.Warnings, pf.Error())
	return out, pf
}

// reconcile recomputes the request's day counts and reports where they
// disagree with what approval stored.
func (s *Service) reconcile(req generic.LeaveRequest, records []generic.ShiftRecord, cal generic.Calendar) []*generic.ReconciliationMismatch {
	if req.Allocation == nil {
		return nil
	}
	var out []*generic.ReconciliationMismatch
	if recomputed := RequestedDays(req.Period(), req.Duration, cal); !recomputed.Equal(req.Allocation.RequestedDays) {
		out = append(out, &generic.ReconciliationMismatch{
			RequestID: req.ID, Source: "requested_days",
			Recorded: req.Allocation.RequestedDays, Recomputed: recomputed,
		})
	}
	if paid := PaidFromRecords(records, cal); !paid.Equal(req.Allocation.PaidDays) {
		out = append(out, &generic.ReconciliationMismatch{
			RequestID: req.ID, Source: "paid_days",
			Recorded: req.Allocation.PaidDays, Recomputed: paid,
		})
	}
	for _, m := range out {
		s.log.Warn().Str("kind", string(generic.KindReconciliationMismatch)).Str("request_id", string(req.ID)).
			Str("source", m.Source).Str("recorded", m.Recorded.String()).Str("recomputed", m.Recomputed.String()).
			Msg("leave allocation disagrees with recomputation")
	}
	return out
}

// =============================================================================
// EDIT
// =============================================================================

// Edit changes the type, duration, range or notes of a pending or approved
// request. For approved requests the leave records are regenerated within
// the days already deducted; the balance itself is never recomputed. The
// new type decides which days may be paid, but paid days never exceed the
// original deduction, so an approved unpaid request edited into annual
// leave stays entirely unpaid.
func (s *Service) Edit(ctx context.Context, id generic.LeaveRequestID, in EditInput) (*Outcome, error) {
	req, err := s.store.GetLeaveRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == generic.StatusRejected {
		return nil, generic.InvalidTransition(id, req.Status, "edit")
	}
	info, err := Classify(in.LeaveType)
	if err != nil {
		return nil, err
	}
	if in.Duration == "" {
		in.Duration = generic.DurationFullDay
	}
	period, err := s.validateWindow(ctx, in.From, in.To, in.Duration)
	if err != nil {
		return nil, err
	}

	edited := *req
	edited.LeaveType = info.Type
	edited.Duration = in.Duration
	edited.From = in.From
	edited.To = in.To
	if in.AdminNotes != "" {
		edited.AdminNotes = in.AdminNotes
	}

	if req.Status == generic.StatusPending {
		if err := s.store.SaveLeaveRequest(ctx, edited); err != nil {
			return nil, fmt.Errorf("save leave request %s: %w", id, err)
		}
		return &Outcome{Request: &edited}, nil
	}

	cal, err := s.calendar(ctx)
	if err != nil {
		return nil, err
	}
	budget := decimal.Zero
	prior := generic.LeaveAllocation{Pool: info.Pool, DeductedDays: decimal.Zero}
	if req.Allocation != nil {
		prior = *req.Allocation
		budget = prior.DeductedDays
	}
	alloc, days := Allocate(info, period, in.Duration, cal, budget)
	alloc.Pool = prior.Pool
	alloc.DeductedDays = prior.DeductedDays
	edited.Allocation = &alloc

	err = s.store.WithTx(ctx, func(tx generic.Store) error {
		w, err := tx.GetWorker(ctx, req.WorkerID)
		if err != nil {
			return err
		}
		// The old window is passed through req so its records are found too.
		scan := edited
		scan.From, scan.To = req.From, req.To
		if err := replaceLeaveRecords(ctx, tx, scan, w.SiteID, period, days, cal); err != nil {
			return err
		}
		return tx.SaveLeaveRequest(ctx, edited)
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn().Str("request_id", string(id)).Str("deducted_days", alloc.DeductedDays.String()).
		Str("paid_days", alloc.PaidDays.String()).Msg(WarnBalanceNotRecomputed)
	return &Outcome{Request: &edited, Allocation: &alloc, Days: days, Warnings: []string{WarnBalanceNotRecomputed}}, nil
}

// =============================================================================
// MANUAL ADJUSTMENT
// =============================================================================

// AdjustBalance applies an administrator correction to one pool.
func (s *Service) AdjustBalance(ctx context.Context, workerID generic.WorkerID, pool generic.Pool, delta decimal.Decimal, reason string) (generic.BalanceTransaction, error) {
	if delta.IsZero() {
		return generic.BalanceTransaction{}, generic.InvalidInput("adjustment delta must not be zero")
	}
	var posted generic.BalanceTransaction
	err := s.store.WithTx(ctx, func(tx generic.Store) error {
		w, err := tx.GetWorker(ctx, workerID)
		if err != nil {
			return err
		}
		posted, err = s.ledger(tx).Post(ctx, w, generic.BalanceChange{
			Pool:           pool,
			Delta:          delta,
			Type:           generic.TxAdjustment,
			Reason:         reason,
			IdempotencyKey: uuid.NewString(),
		})
		return err
	})
	if err != nil {
		return generic.BalanceTransaction{}, err
	}
	s.log.Info().Str("worker_id", string(workerID)).Str("pool", string(pool)).
		Str("delta", delta.String()).Str("balance_after", posted.BalanceAfter.String()).Msg("leave balance adjusted")
	return posted, nil
}
