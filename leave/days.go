package leave

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// DayOutcome is the per-calendar-day result of an allocation.
type DayOutcome struct {
	Date     generic.Date          `json:"date"`
	Working  bool                  `json:"working"`
	Paid     bool                  `json:"paid"`
	Duration generic.LeaveDuration `json:"duration"`
}

// WorkingDates returns the days of period that are neither rest days nor holidays.
func WorkingDates(period generic.Period, cal generic.Calendar) []generic.Date {
	var out []generic.Date
	for _, d := range period.Days() {
		if generic.IsWorkingDay(cal, d) {
			out = append(out, d)
		}
	}
	return out
}

// RequestedDays is the weekday count of period, halved for half-day requests.
func RequestedDays(period generic.Period, duration generic.LeaveDuration, cal generic.Calendar) decimal.Decimal {
	n := decimal.NewFromInt(int64(len(WorkingDates(period, cal))))
	return n.Mul(duration.DayFraction())
}

// Allocate decides, day by day, which days of the request are paid.
//
// Untracked paid types pay every working day. Unpaid types pay nothing.
// Tracked types pay from budget in date order: while budget covers a day's
// fraction the day is paid; at least half a day left on a full-day request
// pays that day as a morning half day; every later day is unpaid. Budget is
// only ever spent in half-day steps, so a fractional remainder such as 0.3
// is neither paid nor deducted. Rest days and holidays never consume budget.
func Allocate(info TypeInfo, period generic.Period, duration generic.LeaveDuration, cal generic.Calendar, budget decimal.Decimal) (generic.LeaveAllocation, []DayOutcome) {
	requested := RequestedDays(period, duration, cal)
	alloc := generic.LeaveAllocation{
		Pool:          info.Pool,
		RequestedDays: requested,
		PaidDays:      decimal.Zero,
		UnpaidDays:    decimal.Zero,
		DeductedDays:  decimal.Zero,
	}

	remaining := generic.ClampNonNegative(budget)
	fraction := duration.DayFraction()
	half := generic.DurationHalfDayMorning.DayFraction()

	var days []DayOutcome
	for _, d := range period.Days() {
		out := DayOutcome{Date: d, Duration: duration, Working: generic.IsWorkingDay(cal, d)}
		if !out.Working {
			out.Paid = info.Paid
			days = append(days, out)
			continue
		}

		switch {
		case !info.Paid:
			alloc.UnpaidDays = alloc.UnpaidDays.Add(fraction)
		case !info.Tracked():
			out.Paid = true
			alloc.PaidDays = alloc.PaidDays.Add(fraction)
		case remaining.GreaterThanOrEqual(fraction):
			out.Paid = true
			remaining = remaining.Sub(fraction)
			alloc.PaidDays = alloc.PaidDays.Add(fraction)
		case fraction.GreaterThan(half) && remaining.GreaterThanOrEqual(half):
			// Budget is spent in half-day steps so the paid record and the
			// deduction always agree; a leftover below half a day stays unspent.
			out.Paid = true
			out.Duration = generic.DurationHalfDayMorning
			remaining = remaining.Sub(half)
			alloc.PaidDays = alloc.PaidDays.Add(half)
			alloc.UnpaidDays = alloc.UnpaidDays.Add(fraction.Sub(half))
		default:
			alloc.UnpaidDays = alloc.UnpaidDays.Add(fraction)
		}
		days = append(days, out)
	}

	if info.Tracked() {
		alloc.DeductedDays = alloc.PaidDays
	}
	return alloc, days
}

// PaidFromRecords re-derives the paid day total from a request's leave records.
func PaidFromRecords(records []generic.ShiftRecord, cal generic.Calendar) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		if r.IsLeave() && r.LeavePaid && generic.IsWorkingDay(cal, r.WorkDate) {
			total = total.Add(r.LeaveDuration.DayFraction())
		}
	}
	return total
}
