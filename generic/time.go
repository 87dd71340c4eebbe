package generic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// DATE - Civil calendar day (work dates, leave ranges, birth dates)
// =============================================================================

const DateLayout = "2006-01-02"

// Date is a calendar day normalized to midnight UTC.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day in the timestamp's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{Time: d.Time.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) String() string        { return d.Time.Format(DateLayout) }

// At returns the timestamp at the given clock time on this day.
func (d Date) At(hour, minute int) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), hour, minute, 0, 0, time.UTC)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AgeOn returns completed years between birth and on.
func AgeOn(birth, on Date) int {
	if birth.IsZero() || on.Before(birth) {
		return 0
	}
	age := on.Year() - birth.Year()
	if on.Month() < birth.Month() || (on.Month() == birth.Month() && on.Day() < birth.Day()) {
		age--
	}
	return age
}

func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }
func EndOfMonth(year int, month time.Month) Date {
	return Date{Time: time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)}
}

// =============================================================================
// CALENDAR ORACLE - Rest days and public holidays
// =============================================================================

// Calendar answers the two questions the engine asks about a date.
// Implementations must be pure and total.
type Calendar interface {
	IsRestDay(d Date) bool
	IsHoliday(d Date) bool
}

// IsWorkingDay is true when the date is neither a rest day nor a holiday.
func IsWorkingDay(cal Calendar, d Date) bool {
	return !cal.IsRestDay(d) && !cal.IsHoliday(d)
}

// IsRestOrHoliday is the negation of IsWorkingDay, named for call sites that
// zero out pay.
func IsRestOrHoliday(cal Calendar, d Date) bool {
	return cal.IsRestDay(d) || cal.IsHoliday(d)
}

// Holiday is a public holiday.
type Holiday struct {
	ID   string `json:"id"`
	Date Date   `json:"date"`
	Name string `json:"name"`
}

// HolidayCalendar is the default Calendar: a fixed set of weekly rest days
// plus an explicit holiday list.
type HolidayCalendar struct {
	restDays map[time.Weekday]bool
	holidays map[string]Holiday
}

// NewHolidayCalendar builds a calendar. A nil or empty restDays defaults to Sunday.
func NewHolidayCalendar(restDays []time.Weekday, holidays []Holiday) *HolidayCalendar {
	if len(restDays) == 0 {
		restDays = []time.Weekday{time.Sunday}
	}
	c := &HolidayCalendar{
		restDays: make(map[time.Weekday]bool, len(restDays)),
		holidays: make(map[string]Holiday, len(holidays)),
	}
	for _, wd := range restDays {
		c.restDays[wd] = true
	}
	for _, h := range holidays {
		c.holidays[h.Date.String()] = h
	}
	return c
}

func (c *HolidayCalendar) IsRestDay(d Date) bool { return c.restDays[d.Weekday()] }
func (c *HolidayCalendar) IsHoliday(d Date) bool {
	_, ok := c.holidays[d.String()]
	return ok
}

// HolidayName returns the holiday's name, or "" when the date is not a holiday.
func (c *HolidayCalendar) HolidayName(d Date) string { return c.holidays[d.String()].Name }

// HolidayLister is the slice of the record store a calendar needs.
type HolidayLister interface {
	ListHolidays(ctx context.Context) ([]Holiday, error)
}

// LoadCalendar builds a HolidayCalendar from the stored holiday list.
func LoadCalendar(ctx context.Context, src HolidayLister, restDays []time.Weekday) (*HolidayCalendar, error) {
	holidays, err := src.ListHolidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	return NewHolidayCalendar(restDays, holidays), nil
}

// ParseWeekday accepts full or three-letter English weekday names.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}

// ParseWeekdays parses a list of weekday names.
func ParseWeekdays(names []string) ([]time.Weekday, error) {
	out := make([]time.Weekday, 0, len(names))
	for _, n := range names {
		wd, err := ParseWeekday(n)
		if err != nil {
			return nil, err
		}
		out = append(out, wd)
	}
	return out, nil
}
