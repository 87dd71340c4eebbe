package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warp/payroll-engine/generic"
)

// allDates spans every work date a shift can carry.
var allDates = generic.Period{
	Start: generic.NewDate(1900, time.January, 1),
	End:   generic.NewDate(9999, time.December, 31),
}

// Recorder creates and completes work shift records.
type Recorder struct {
	store      generic.Store
	aggregator *Aggregator
	now        func() time.Time
}

func NewRecorder(store generic.Store, aggregator *Aggregator) *Recorder {
	return &Recorder{store: store, aggregator: aggregator, now: time.Now}
}

// ClockIn opens a shift. A worker may have several shifts a day but only one
// open at a time, whatever day the open shift started on.
func (r *Recorder) ClockIn(ctx context.Context, workerID generic.WorkerID, siteID string, at time.Time) (*generic.ShiftRecord, error) {
	if at.IsZero() {
		at = r.now()
	}
	worker, err := r.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	existing, err := r.store.ListShifts(ctx, workerID, allDates)
	if err != nil {
		return nil, err
	}
	for _, s := range existing {
		if !s.IsLeave() && !s.HasLeft {
			return nil, generic.NewError(generic.KindConflict,
				fmt.Sprintf("worker %s already has an open shift %s on %s", workerID, s.ID, s.WorkDate), nil)
		}
	}

	if siteID == "" {
		siteID = worker.SiteID
	}
	date := generic.DateOf(at)
	shift := generic.ShiftRecord{
		ID:       generic.ShiftID(uuid.NewString()),
		WorkerID: workerID,
		WorkDate: date,
		Entry:    at,
		SiteID:   siteID,
	}
	if err := r.store.SaveShift(ctx, shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// ClockOut closes a shift and stores its derived hours.
func (r *Recorder) ClockOut(ctx context.Context, id generic.ShiftID, at time.Time, breaks []generic.Break) (*generic.ShiftRecord, error) {
	if at.IsZero() {
		at = r.now()
	}
	shift, err := r.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.IsLeave() {
		return nil, generic.InvalidInput("shift %s is a leave record and cannot be clocked out", id)
	}
	if shift.HasLeft {
		return nil, generic.NewError(generic.KindConflict, fmt.Sprintf("shift %s is already clocked out", id), nil)
	}
	return r.complete(ctx, *shift, shift.Entry, at, breaks)
}

// Amend replaces the clock times and breaks of a work shift and recomputes
// its hours.
func (r *Recorder) Amend(ctx context.Context, id generic.ShiftID, entry, exit time.Time, breaks []generic.Break) (*generic.ShiftRecord, error) {
	shift, err := r.store.GetShift(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift.IsLeave() {
		return nil, generic.InvalidInput("shift %s is a leave record; edit the leave request instead", id)
	}
	shift.WorkDate = generic.DateOf(entry)
	return r.complete(ctx, *shift, entry, exit, breaks)
}

func (r *Recorder) complete(ctx context.Context, shift generic.ShiftRecord, entry, exit time.Time, breaks []generic.Break) (*generic.ShiftRecord, error) {
	if !exit.After(entry) {
		return nil, generic.NewError(generic.KindInvalidRange,
			fmt.Sprintf("exit %s is not after entry %s", exit.Format(time.RFC3339), entry.Format(time.RFC3339)),
			generic.ErrInvalidRange)
	}
	cal, err := r.aggregator.Calendar(ctx)
	if err != nil {
		return nil, err
	}

	shift.Entry = entry
	shift.Exit = &exit
	shift.Breaks = breaks
	shift.HasLeft = true
	shift.Hours = r.aggregator.Splitter(cal).SplitHours(entry, exit, breaks, shift.WorkDate)
	if err := r.store.SaveShift(ctx, shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// Delete removes a shift record (admin action).
func (r *Recorder) Delete(ctx context.Context, id generic.ShiftID) error {
	return r.store.DeleteShift(ctx, id)
}
