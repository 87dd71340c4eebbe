package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Inclusive date range (leave windows, pay months, YTD)
// =============================================================================

// Period is the inclusive range [Start, End].
//
// Examples:
//   - Pay month March 2025: Mar 1 - Mar 31
//   - Leave request: from/to dates as submitted
//   - Year-to-date: Jan 1 - end of the pay month
type Period struct {
	Start Date
	End   Date
}

// NewPeriod validates that end is not before start.
func NewPeriod(start, end Date) (Period, error) {
	if start.IsZero() || end.IsZero() {
		return Period{}, &Error{Kind: KindInvalidRange, Message: "period requires both a start and an end date", Err: ErrInvalidRange}
	}
	if end.Before(start) {
		return Period{}, &Error{
			Kind:    KindInvalidRange,
			Message: fmt.Sprintf("end date %s is before start date %s", end, start),
			Err:     ErrInvalidRange,
		}
	}
	return Period{Start: start, End: end}, nil
}

// MonthPeriod returns the calendar month containing the given year/month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// Contains returns true if the date is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Overlaps is true when the two ranges share at least one day.
func (p Period) Overlaps(other Period) bool {
	return !p.End.Before(other.Start) && !other.End.Before(p.Start)
}

// Days returns every calendar day in the period.
func (p Period) Days() []Date {
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Len is the number of calendar days in the period.
func (p Period) Len() int {
	if p.End.Before(p.Start) {
		return 0
	}
	return int(p.End.Time.Sub(p.Start.Time).Hours()/24) + 1
}

// Union returns the smallest period covering both.
func (p Period) Union(other Period) Period {
	out := p
	if other.Start.Before(out.Start) {
		out.Start = other.Start
	}
	if other.End.After(out.End) {
		out.End = other.End
	}
	return out
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
