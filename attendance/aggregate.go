package attendance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// CANONICAL DAY
// =============================================================================

// CanonicalDay is the single hour tuple a calendar day contributes to payroll.
type CanonicalDay struct {
	Date             generic.Date    `json:"date"`
	BasicHours       decimal.Decimal `json:"basic_hours"`
	RestHolidayHours decimal.Decimal `json:"rest_holiday_hours"`
	OTHours          decimal.Decimal `json:"ot_hours"`
	BreakHours       decimal.Decimal `json:"break_hours"`
	LeaveLabel       string          `json:"leave_label,omitempty"`
	// Synthesized marks a holiday with no records that was credited 8 basic hours.
	Synthesized bool `json:"synthesized,omitempty"`
}

func emptyDay(date generic.Date) CanonicalDay {
	return CanonicalDay{
		Date:             date,
		BasicHours:       decimal.Zero,
		RestHolidayHours: decimal.Zero,
		OTHours:          decimal.Zero,
		BreakHours:       decimal.Zero,
	}
}

// Worked is basic + restHoliday + ot.
func (d CanonicalDay) Worked() decimal.Decimal {
	return d.BasicHours.Add(d.RestHolidayHours).Add(d.OTHours)
}

func (d CanonicalDay) IsLeave() bool { return d.LeaveLabel != "" }

func fold[T, A any](items []T, acc A, step func(A, T) A) A {
	for _, item := range items {
		acc = step(acc, item)
	}
	return acc
}

// LeaveHours is the basic-hour credit of one leave record:
// paid full day 8, paid half day 4, unpaid or rest/holiday 0.
func LeaveHours(r generic.ShiftRecord, cal generic.Calendar) decimal.Decimal {
	if !r.LeavePaid || generic.IsRestOrHoliday(cal, r.WorkDate) {
		return decimal.Zero
	}
	if r.LeaveDuration.IsHalfDay() {
		return generic.HalfDayHours
	}
	return generic.HoursPerDay
}

// AggregateDay merges one day's records. If any leave record is present the
// work records are discarded and only the leave hour policy applies;
// otherwise the splitter output of every completed work record is summed.
// Open shifts (not yet clocked out) contribute nothing.
func AggregateDay(date generic.Date, records []generic.ShiftRecord, cal generic.Calendar, splitter HourSplitter) CanonicalDay {
	var leave, work []generic.ShiftRecord
	for _, r := range records {
		switch {
		case r.IsLeave():
			leave = append(leave, r)
		case r.IsCompletedWork():
			work = append(work, r)
		}
	}

	day := emptyDay(date)
	if len(leave) > 0 {
		hours := fold(leave, decimal.Zero, func(acc decimal.Decimal, r generic.ShiftRecord) decimal.Decimal {
			return acc.Add(LeaveHours(r, cal))
		})
		day.BasicHours = decimal.Min(hours, generic.HoursPerDay)
		day.LeaveLabel = leaveLabel(leave)
		return day
	}

	split := fold(work, day.split(), func(acc generic.HourSplit, r generic.ShiftRecord) generic.HourSplit {
		return acc.Add(splitter.SplitHours(r.Entry, *r.Exit, r.Breaks, r.WorkDate))
	})
	day.BasicHours = split.Basic
	day.RestHolidayHours = split.RestHoliday
	day.OTHours = split.OT
	day.BreakHours = split.Break
	return day
}

func (d CanonicalDay) split() generic.HourSplit {
	return generic.HourSplit{Basic: d.BasicHours, RestHoliday: d.RestHolidayHours, OT: d.OTHours, Break: d.BreakHours}
}

func leaveLabel(records []generic.ShiftRecord) string {
	seen := make(map[string]bool)
	var parts []string
	for _, r := range records {
		label := string(r.LeaveType)
		switch r.LeaveDuration {
		case generic.DurationHalfDayMorning:
			label += " (AM)"
		case generic.DurationHalfDayAfternoon:
			label += " (PM)"
		}
		if !r.LeavePaid {
			label += " (Unpaid)"
		}
		if !seen[label] {
			seen[label] = true
			parts = append(parts, label)
		}
	}
	return strings.Join(parts, " + ")
}

// =============================================================================
// MONTH AGGREGATE
// =============================================================================

// MonthAggregate is a worker's month of canonical days plus unrounded totals.
type MonthAggregate struct {
	WorkerID              generic.WorkerID `json:"worker_id"`
	Period                generic.Period   `json:"-"`
	Days                  []CanonicalDay   `json:"days"`
	TotalBasicHours       decimal.Decimal  `json:"total_basic_hours"`
	TotalRestHolidayHours decimal.Decimal  `json:"total_rest_holiday_hours"`
	TotalOTHours          decimal.Decimal  `json:"total_ot_hours"`
	TotalBreakHours       decimal.Decimal  `json:"total_break_hours"`
	PaidLeaveDays         decimal.Decimal  `json:"paid_leave_days"`
	UnpaidLeaveDays       decimal.Decimal  `json:"unpaid_leave_days"`
	SynthesizedHolidays   int              `json:"synthesized_holidays"`
}

// AggregateMonth folds every day of period. A holiday with no records at all
// is credited 8 basic hours.
func AggregateMonth(workerID generic.WorkerID, period generic.Period, records []generic.ShiftRecord, cal generic.Calendar, splitter HourSplitter) MonthAggregate {
	byDate := make(map[string][]generic.ShiftRecord)
	for _, r := range records {
		if r.WorkerID == workerID && period.Contains(r.WorkDate) {
			byDate[r.WorkDate.String()] = append(byDate[r.WorkDate.String()], r)
		}
	}

	agg := MonthAggregate{
		WorkerID:              workerID,
		Period:                period,
		TotalBasicHours:       decimal.Zero,
		TotalRestHolidayHours: decimal.Zero,
		TotalOTHours:          decimal.Zero,
		TotalBreakHours:       decimal.Zero,
		PaidLeaveDays:         decimal.Zero,
		UnpaidLeaveDays:       decimal.Zero,
	}
	for _, d := range period.Days() {
		recs := byDate[d.String()]
		var day CanonicalDay
		if len(recs) == 0 && cal.IsHoliday(d) {
			day = emptyDay(d)
			day.BasicHours = generic.HoursPerDay
			day.Synthesized = true
			agg.SynthesizedHolidays++
		} else {
			day = AggregateDay(d, recs, cal, splitter)
			paid, unpaid := leaveDayCounts(recs, cal)
			agg.PaidLeaveDays = agg.PaidLeaveDays.Add(paid)
			agg.UnpaidLeaveDays = agg.UnpaidLeaveDays.Add(unpaid)
		}
		agg.Days = append(agg.Days, day)
		agg.TotalBasicHours = agg.TotalBasicHours.Add(day.BasicHours)
		agg.TotalRestHolidayHours = agg.TotalRestHolidayHours.Add(day.RestHolidayHours)
		agg.TotalOTHours = agg.TotalOTHours.Add(day.OTHours)
		agg.TotalBreakHours = agg.TotalBreakHours.Add(day.BreakHours)
	}
	return agg
}

// leaveDayCounts counts paid and unpaid leave day fractions on working days.
func leaveDayCounts(records []generic.ShiftRecord, cal generic.Calendar) (paid, unpaid decimal.Decimal) {
	paid, unpaid = decimal.Zero, decimal.Zero
	for _, r := range records {
		if !r.IsLeave() || generic.IsRestOrHoliday(cal, r.WorkDate) {
			continue
		}
		if r.LeavePaid {
			paid = paid.Add(r.LeaveDuration.DayFraction())
		} else {
			unpaid = unpaid.Add(r.LeaveDuration.DayFraction())
		}
	}
	return paid, unpaid
}

// =============================================================================
// AGGREGATOR - AggregateMonth over the record store
// =============================================================================

// Source is the slice of the record store the aggregator reads.
type Source interface {
	ListShifts(ctx context.Context, workerID generic.WorkerID, period generic.Period) ([]generic.ShiftRecord, error)
	generic.HolidayLister
}

// Aggregator loads a worker's month and folds it.
type Aggregator struct {
	store      Source
	restDays   []time.Weekday
	shiftHours decimal.Decimal
}

func NewAggregator(store Source, restDays []time.Weekday, shiftHours decimal.Decimal) *Aggregator {
	return &Aggregator{store: store, restDays: restDays, shiftHours: shiftHours}
}

// Calendar loads the current holiday calendar.
func (a *Aggregator) Calendar(ctx context.Context) (*generic.HolidayCalendar, error) {
	return generic.LoadCalendar(ctx, a.store, a.restDays)
}

// Splitter returns the standard splitter bound to cal.
func (a *Aggregator) Splitter(cal generic.Calendar) HourSplitter {
	return NewStandardSplitter(cal, a.shiftHours)
}

// Month aggregates one worker's pay month.
func (a *Aggregator) Month(ctx context.Context, workerID generic.WorkerID, year int, month time.Month) (MonthAggregate, error) {
	cal, err := a.Calendar(ctx)
	if err != nil {
		return MonthAggregate{}, err
	}
	return a.MonthWithCalendar(ctx, workerID, year, month, cal)
}

// MonthWithCalendar is Month with a preloaded calendar, for batch callers.
func (a *Aggregator) MonthWithCalendar(ctx context.Context, workerID generic.WorkerID, year int, month time.Month, cal generic.Calendar) (MonthAggregate, error) {
	period := generic.MonthPeriod(year, month)
	records, err := a.store.ListShifts(ctx, workerID, period)
	if err != nil {
		return MonthAggregate{}, fmt.Errorf("load shifts of worker %s for %s: %w", workerID, period, err)
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].WorkDate.Before(records[j].WorkDate) })
	return AggregateMonth(workerID, period, records, cal, a.Splitter(cal)), nil
}
