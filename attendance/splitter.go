/*
Package attendance turns raw shift records into hour totals.

PURPOSE:
  Two layers live here:
  - The shift hour splitter converts one clock-in/clock-out (minus breaks)
    into {basic, rest/holiday, overtime, break} hours.
  - The shift aggregator folds all records of a calendar day into one
    canonical hour tuple, applying the leave-overrides-work rule, and then
    folds a month of days into the totals the payroll engine consumes.

  Recorder adds clock-in/clock-out on top of the record store.

DAY RULES:
  Working day:     worked hours up to the standard shift are basic, the rest OT
  Rest day/holiday: worked hours up to the standard shift are rest/holiday, the rest OT
  Leave present:   work records on that day are ignored
  Holiday, no records: 8 basic hours (monthly aggregation only)

SEE ALSO:
  - aggregate.go: AggregateDay / AggregateMonth
  - recorder.go: ClockIn / ClockOut
  - payroll/engine.go: Consumes MonthAggregate
*/
package attendance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// HourSplitter converts one shift into hour buckets. Implementations must be
// pure.
type HourSplitter interface {
	SplitHours(entry, exit time.Time, breaks []generic.Break, workDate generic.Date) generic.HourSplit
}

// StandardSplitter caps regular hours at ShiftHours per shift; everything
// beyond is overtime.
type StandardSplitter struct {
	Calendar   generic.Calendar
	ShiftHours decimal.Decimal
}

// NewStandardSplitter uses an 8-hour standard shift when shiftHours is not positive.
func NewStandardSplitter(cal generic.Calendar, shiftHours decimal.Decimal) StandardSplitter {
	if !shiftHours.IsPositive() {
		shiftHours = generic.HoursPerDay
	}
	return StandardSplitter{Calendar: cal, ShiftHours: shiftHours}
}

var minutesPerHour = decimal.NewFromInt(60)

func hoursOf(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(int64(d / time.Minute)).Div(minutesPerHour)
}

func (s StandardSplitter) SplitHours(entry, exit time.Time, breaks []generic.Break, workDate generic.Date) generic.HourSplit {
	split := generic.HourSplit{Basic: decimal.Zero, RestHoliday: decimal.Zero, OT: decimal.Zero, Break: decimal.Zero}
	if !exit.After(entry) {
		return split
	}

	var breakTime time.Duration
	for _, b := range breaks {
		start, end := b.Start, b.End
		if start.Before(entry) {
			start = entry
		}
		if end.After(exit) {
			end = exit
		}
		if end.After(start) {
			breakTime += end.Sub(start)
		}
	}

	split.Break = hoursOf(breakTime)
	worked := generic.ClampNonNegative(hoursOf(exit.Sub(entry)).Sub(split.Break))
	regular := decimal.Min(worked, s.ShiftHours)
	split.OT = worked.Sub(regular)

	if s.Calendar != nil && generic.IsRestOrHoliday(s.Calendar, workDate) {
		split.RestHoliday = regular
	} else {
		split.Basic = regular
	}
	return split
}
