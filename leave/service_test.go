package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var testNow = time.Date(2025, time.February, 20, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, opts ...leave.Option) (*leave.Service, *sqlite.Store) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	opts = append([]leave.Option{leave.WithClock(func() time.Time { return testNow })}, opts...)
	return leave.NewService(store, zerolog.Nop(), opts...), store
}

func seedWorker(t *testing.T, store *sqlite.Store, id string, annual int64) {
	t.Helper()
	err := store.SaveWorker(context.Background(), generic.Worker{
		ID:       generic.WorkerID(id),
		Name:     "Worker " + id,
		Category: generic.CategoryForeign,
		SiteID:   "site-1",
		Leave: generic.LeaveEntitlement{
			AnnualLimit:    decimal.NewFromInt(14),
			MedicalLimit:   decimal.NewFromInt(14),
			AnnualBalance:  decimal.NewFromInt(annual),
			MedicalBalance: decimal.NewFromInt(14),
		},
	})
	require.NoError(t, err)
}

func date(t *testing.T, s string) generic.Date {
	t.Helper()
	d, err := generic.ParseDate(s)
	require.NoError(t, err)
	return d
}

func submit(t *testing.T, svc *leave.Service, worker string, lt generic.LeaveType, d generic.LeaveDuration, from, to string) *generic.LeaveRequest {
	t.Helper()
	req, err := svc.Submit(context.Background(), leave.SubmitInput{
		WorkerID:  generic.WorkerID(worker),
		LeaveType: lt,
		Duration:  d,
		From:      date(t, from),
		To:        date(t, to),
	})
	require.NoError(t, err)
	return req
}

func annualBalance(t *testing.T, store *sqlite.Store, worker string) decimal.Decimal {
	t.Helper()
	w, err := store.GetWorker(context.Background(), generic.WorkerID(worker))
	require.NoError(t, err)
	return w.Leave.AnnualBalance
}

func leaveRecords(t *testing.T, store *sqlite.Store, worker, from, to string) []generic.ShiftRecord {
	t.Helper()
	recs, err := store.ListShifts(context.Background(), generic.WorkerID(worker),
		generic.Period{Start: date(t, from), End: date(t, to)})
	require.NoError(t, err)
	return recs
}

// =============================================================================
// APPROVAL
// =============================================================================

func TestApprove_PartialBalance_SplitsPaidAndUnpaid(t *testing.T) {
	// GIVEN: Annual balance of 3 and a request for Mon..Fri
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 3)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-07")
	assert.Equal(t, generic.StatusPending, req.Status)

	// WHEN: Approving
	out, err := svc.Approve(ctx, req.ID, "ok")
	require.NoError(t, err)

	// THEN: 3 paid, 2 unpaid, balance exhausted
	require.NotNil(t, out.Allocation)
	assertDays(t, "3", out.Allocation.PaidDays, "paid")
	assertDays(t, "2", out.Allocation.UnpaidDays, "unpaid")
	assertDays(t, "3", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "0", annualBalance(t, store, "w-1"), "balance")

	// AND: One leave record per day, the first three paid with 8 hours
	recs := leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-07")
	require.Len(t, recs, 5)
	for i, r := range recs {
		assert.Equal(t, req.ID, r.LeaveRequestID)
		assert.Equal(t, i < 3, r.LeavePaid, "day %s", r.WorkDate)
		if r.LeavePaid {
			assertDays(t, "8", r.Hours.Basic, "paid hours")
		} else {
			assertDays(t, "0", r.Hours.Basic, "unpaid hours")
		}
	}

	// AND: The journal explains the change
	history, err := svc.History(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, generic.TxDeduction, history[0].Type)
	assertDays(t, "-3", history[0].Delta.Value, "journal delta")

	stored, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, stored.Status)
	assert.Equal(t, "ok", stored.AdminNotes)
	require.NotNil(t, stored.DecidedAt)
}

func TestApprove_FractionalBalance_PaysWhatItDeducts(t *testing.T) {
	// GIVEN: An annual balance of 0.3 after a manual correction
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 0)
	_, err := svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, generic.MustParseDecimal("0.3"), "correction")
	require.NoError(t, err)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-03")

	// WHEN: Approving one full day
	out, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// THEN: The day is unpaid and the 0.3 stays on the balance
	assertDays(t, "0", out.Allocation.PaidDays, "paid")
	assertDays(t, "0", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "0.3", annualBalance(t, store, "w-1"), "balance")
	recs := leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-03")
	require.Len(t, recs, 1)
	assert.False(t, recs[0].LeavePaid)
	assertDays(t, "0", recs[0].Hours.Basic, "hours")

	// AND: Deleting reconciles cleanly
	del, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, del.Warnings)
	assertDays(t, "0.3", annualBalance(t, store, "w-1"), "balance after delete")
}

func TestApprove_ThreeQuarterBalance_PaysMorningHalf(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 0)
	_, err := svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, generic.MustParseDecimal("0.75"), "correction")
	require.NoError(t, err)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-03")

	out, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// Half a day is paid as 4 hours and half a day is deducted
	assertDays(t, "0.5", out.Allocation.PaidDays, "paid")
	assertDays(t, "0.5", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "0.25", annualBalance(t, store, "w-1"), "balance")
	recs := leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-03")
	require.Len(t, recs, 1)
	assert.True(t, recs[0].LeavePaid)
	assert.Equal(t, generic.DurationHalfDayMorning, recs[0].LeaveDuration)
	assertDays(t, "4", recs[0].Hours.Basic, "hours")

	del, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, del.Warnings)
	assertDays(t, "0.75", annualBalance(t, store, "w-1"), "balance after delete")
}

func TestApprove_WeekSpanningSunday_DeductsSix(t *testing.T) {
	svc, store := newTestService(t)
	seedWorker(t, store, "w-1", 14)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-09")

	out, err := svc.Approve(context.Background(), req.ID, "")
	require.NoError(t, err)

	assertDays(t, "6", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "8", annualBalance(t, store, "w-1"), "balance")

	recs := leaveRecords(t, store, "w-1", "2025-03-09", "2025-03-09")
	require.Len(t, recs, 1, "rest days still get a leave record")
	assertDays(t, "0", recs[0].Hours.Basic, "rest day hours")
}

func TestApprove_HalfDays(t *testing.T) {
	svc, store := newTestService(t)
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationHalfDayMorning, "2025-03-03", "2025-03-04")

	out, err := svc.Approve(context.Background(), req.ID, "")
	require.NoError(t, err)

	assertDays(t, "1", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "9", annualBalance(t, store, "w-1"), "balance")
	for _, r := range leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-04") {
		assertDays(t, "4", r.Hours.Basic, "half day hours")
	}
}

func TestApprove_ReplacesOverlappingWorkShifts(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)

	entry := time.Date(2025, time.March, 4, 8, 0, 0, 0, time.UTC)
	exit := entry.Add(9 * time.Hour)
	require.NoError(t, store.SaveShift(ctx, generic.ShiftRecord{
		ID: "work-1", WorkerID: "w-1", WorkDate: date(t, "2025-03-04"),
		Entry: entry, Exit: &exit, HasLeft: true,
	}))

	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-05")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	_, err = store.GetShift(ctx, "work-1")
	assert.True(t, errors.Is(err, generic.ErrShiftNotFound), "overlapping work shift is removed")
	for _, r := range leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-05") {
		assert.True(t, r.IsLeave())
	}
}

func TestApprove_UnpaidLeave_LeavesBalanceAlone(t *testing.T) {
	svc, store := newTestService(t)
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Unpaid, generic.DurationFullDay, "2025-03-03", "2025-03-04")

	out, err := svc.Approve(context.Background(), req.ID, "")
	require.NoError(t, err)

	assertDays(t, "0", out.Allocation.DeductedDays, "deducted")
	assertDays(t, "10", annualBalance(t, store, "w-1"), "balance")
	for _, r := range leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-04") {
		assert.False(t, r.LeavePaid)
	}
}

func TestApprove_WorkerGone_ReportsPartialFailure(t *testing.T) {
	// GIVEN: A pending request whose worker was removed afterwards
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-04")
	require.NoError(t, store.DeleteWorker(ctx, "w-1"))

	// WHEN: Approving
	out, err := svc.Approve(ctx, req.ID, "")

	// THEN: Status is saved but the caller learns balance and shifts were not
	var pf *generic.PartialFailure
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, generic.KindPartialPersistenceFailure, generic.KindOf(err))
	assert.Equal(t, []string{"status"}, pf.Applied)
	assert.Equal(t, "balance_and_shifts", pf.Failed)
	assert.True(t, errors.Is(err, generic.ErrWorkerNotFound))
	require.NotNil(t, out)
	assert.NotEmpty(t, out.Warnings)

	stored, err := svc.Get(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, generic.StatusApproved, stored.Status)
	assert.Nil(t, stored.Allocation)
	assert.Empty(t, leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-04"))
}

// =============================================================================
// VALIDATION & TRANSITIONS
// =============================================================================

func TestSubmit_InvalidRange(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)

	_, err := svc.Submit(ctx, leave.SubmitInput{
		WorkerID: "w-1", LeaveType: leave.Annual,
		From: date(t, "2025-03-07"), To: date(t, "2025-03-03"),
	})
	assert.Equal(t, generic.KindInvalidRange, generic.KindOf(err), "to before from")

	_, err = svc.Submit(ctx, leave.SubmitInput{
		WorkerID: "w-1", LeaveType: leave.Annual,
		From: date(t, "2025-03-09"), To: date(t, "2025-03-09"),
	})
	assert.Equal(t, generic.KindInvalidRange, generic.KindOf(err), "a lone Sunday has no working days")

	_, err = svc.Submit(ctx, leave.SubmitInput{
		WorkerID: "nobody", LeaveType: leave.Annual,
		From: date(t, "2025-03-03"), To: date(t, "2025-03-03"),
	})
	assert.Equal(t, generic.KindWorkerNotFound, generic.KindOf(err))
}

func TestTransitions_Invalid(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)

	pending := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-03")
	_, err := svc.Delete(ctx, pending.ID)
	assert.Equal(t, generic.KindInvalidTransition, generic.KindOf(err), "pending cannot be deleted")

	_, err = svc.Approve(ctx, pending.ID, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, pending.ID, "")
	assert.Equal(t, generic.KindInvalidTransition, generic.KindOf(err), "approve twice")
	_, err = svc.Reject(ctx, pending.ID, "")
	assert.Equal(t, generic.KindInvalidTransition, generic.KindOf(err), "reject approved")

	rejected := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-10", "2025-03-10")
	_, err = svc.Reject(ctx, rejected.ID, "no cover")
	require.NoError(t, err)
	_, err = svc.Edit(ctx, rejected.ID, leave.EditInput{
		LeaveType: leave.Annual, From: date(t, "2025-03-11"), To: date(t, "2025-03-11"),
	})
	assert.Equal(t, generic.KindInvalidTransition, generic.KindOf(err), "rejected cannot be edited")
}

// =============================================================================
// DELETION
// =============================================================================

func TestDelete_Approved_RestoresDeductedDays(t *testing.T) {
	// GIVEN: An approved request that deducted 3 of 3 days
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 3)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-07")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// WHEN: Deleting it
	out, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, out.Warnings, "fresh approval reconciles cleanly")

	// THEN: Balance is back to 3 and nothing is left behind
	assertDays(t, "3", annualBalance(t, store, "w-1"), "balance")
	assert.Empty(t, leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-07"))
	_, err = svc.Get(ctx, req.ID)
	assert.True(t, errors.Is(err, generic.ErrLeaveRequestNotFound))

	history, err := svc.History(ctx, "w-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, generic.TxRestoration, history[1].Type)
	assertDays(t, "0", generic.NetDelta(history, generic.PoolAnnual), "net journal")
}

func TestDelete_HolidayAddedAfterApproval_LogsMismatch(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-07")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// A holiday declared after approval changes the recomputation
	require.NoError(t, store.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: date(t, "2025-03-05"), Name: "Late"}))

	out, err := svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warnings)

	// The stored deduction is restored, not the recomputation
	assertDays(t, "10", annualBalance(t, store, "w-1"), "balance")
}

func TestDelete_Rejected(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-03")
	_, err := svc.Reject(ctx, req.ID, "")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assertDays(t, "10", annualBalance(t, store, "w-1"), "balance untouched")
	_, err = svc.Get(ctx, req.ID)
	assert.Equal(t, generic.KindNotFound, generic.KindOf(err))
}

func TestDelete_RestoreCap(t *testing.T) {
	svc, store := newTestService(t, leave.WithRestoreCap(true))
	ctx := context.Background()
	seedWorker(t, store, "w-1", 5)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-07")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// Balance topped up to the limit while the leave was approved
	_, err = svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, decimal.NewFromInt(12), "carry forward")
	require.NoError(t, err)

	_, err = svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assertDays(t, "14", annualBalance(t, store, "w-1"), "restore capped at limit")
}

// =============================================================================
// EDIT
// =============================================================================

func TestEdit_Approved_KeepsBalance(t *testing.T) {
	// GIVEN: Five approved days, balance 10 -> 5
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-07")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// WHEN: Shortening to three days the following week
	out, err := svc.Edit(ctx, req.ID, leave.EditInput{
		LeaveType: leave.Annual, From: date(t, "2025-03-10"), To: date(t, "2025-03-12"),
	})
	require.NoError(t, err)

	// THEN: Records move, balance does not
	assert.Contains(t, out.Warnings, leave.WarnBalanceNotRecomputed)
	assertDays(t, "5", annualBalance(t, store, "w-1"), "balance")
	assertDays(t, "3", out.Allocation.PaidDays, "paid")
	assertDays(t, "5", out.Allocation.DeductedDays, "deducted is what approval took")
	assert.Empty(t, leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-07"))
	assert.Len(t, leaveRecords(t, store, "w-1", "2025-03-10", "2025-03-12"), 3)

	// AND: Deleting afterwards restores the original deduction
	_, err = svc.Delete(ctx, req.ID)
	require.NoError(t, err)
	assertDays(t, "10", annualBalance(t, store, "w-1"), "balance after delete")
}

func TestEdit_ApprovedUnpaidToAnnual_StaysUnpaid(t *testing.T) {
	// GIVEN: Approved unpaid leave, which deducted nothing
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Unpaid, generic.DurationFullDay, "2025-03-03", "2025-03-04")
	_, err := svc.Approve(ctx, req.ID, "")
	require.NoError(t, err)

	// WHEN: Reclassifying it as annual leave
	out, err := svc.Edit(ctx, req.ID, leave.EditInput{
		LeaveType: leave.Annual, From: date(t, "2025-03-03"), To: date(t, "2025-03-04"),
	})
	require.NoError(t, err)

	// THEN: The type changes but pay stays within the zero days deducted
	assert.Equal(t, leave.Annual, out.Request.LeaveType)
	assertDays(t, "0", out.Allocation.PaidDays, "paid")
	assertDays(t, "2", out.Allocation.UnpaidDays, "unpaid")
	assertDays(t, "10", annualBalance(t, store, "w-1"), "balance untouched")
	recs := leaveRecords(t, store, "w-1", "2025-03-03", "2025-03-04")
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, leave.Annual, r.LeaveType)
		assert.False(t, r.LeavePaid, "day %s", r.WorkDate)
	}
}

func TestEdit_Pending_UpdatesFieldsOnly(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 10)
	req := submit(t, svc, "w-1", leave.Annual, generic.DurationFullDay, "2025-03-03", "2025-03-03")

	out, err := svc.Edit(ctx, req.ID, leave.EditInput{
		LeaveType: leave.Medical, Duration: generic.DurationHalfDayAfternoon,
		From: date(t, "2025-03-04"), To: date(t, "2025-03-04"),
	})
	require.NoError(t, err)
	assert.Equal(t, leave.Medical, out.Request.LeaveType)
	assert.Equal(t, generic.StatusPending, out.Request.Status)
	assert.Empty(t, leaveRecords(t, store, "w-1", "2025-03-01", "2025-03-31"))
}

// =============================================================================
// ADJUSTMENT
// =============================================================================

func TestAdjustBalance(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	seedWorker(t, store, "w-1", 2)

	tx, err := svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, decimal.NewFromInt(3), "correction")
	require.NoError(t, err)
	assert.Equal(t, generic.TxAdjustment, tx.Type)
	assertDays(t, "5", annualBalance(t, store, "w-1"), "balance")

	_, err = svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, decimal.NewFromInt(-9), "too much")
	assert.Equal(t, generic.KindInvalidInput, generic.KindOf(err), "balance cannot go negative")
	assertDays(t, "5", annualBalance(t, store, "w-1"), "balance unchanged")

	_, err = svc.AdjustBalance(ctx, "w-1", generic.PoolAnnual, decimal.Zero, "noop")
	assert.Equal(t, generic.KindInvalidInput, generic.KindOf(err))
}
