package generic

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORKER - Tagged union Local | Foreign
// =============================================================================

// Category selects the statutory scheme a worker is paid under.
type Category string

const (
	CategoryLocal   Category = "local"
	CategoryForeign Category = "foreign"
)

func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryLocal:
		return CategoryLocal, nil
	case CategoryForeign:
		return CategoryForeign, nil
	}
	return "", InvalidInput("unknown worker category %q", s)
}

// CategoryFilter narrows worker listings. The zero value matches everyone.
type CategoryFilter string

const (
	FilterAll     CategoryFilter = ""
	FilterLocal   CategoryFilter = CategoryFilter(CategoryLocal)
	FilterForeign CategoryFilter = CategoryFilter(CategoryForeign)
)

func ParseCategoryFilter(s string) (CategoryFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return FilterAll, err
	}
	return CategoryFilter(c), nil
}

func (f CategoryFilter) Matches(c Category) bool {
	return f == FilterAll || Category(f) == c
}

// RateCard holds the monetary rates used by the payroll engine.
type RateCard struct {
	MonthlyBasicSalary    decimal.Decimal `json:"monthly_basic_salary"`
	OTRatePerHour         decimal.Decimal `json:"ot_rate_per_hour"`
	RestHolidayRatePerDay decimal.Decimal `json:"rest_holiday_rate_per_day"`
	MonthlyAllowance      decimal.Decimal `json:"monthly_allowance"`
}

// LeaveEntitlement holds the two countable pools. Limits are defaults shown
// to administrators, not hard caps.
type LeaveEntitlement struct {
	AnnualLimit    decimal.Decimal `json:"annual_limit"`
	MedicalLimit   decimal.Decimal `json:"medical_limit"`
	AnnualBalance  decimal.Decimal `json:"annual_balance"`
	MedicalBalance decimal.Decimal `json:"medical_balance"`
}

// Pool names a balance-tracked leave pool.
type Pool string

const (
	PoolAnnual  Pool = "annual"
	PoolMedical Pool = "medical"
)

func ParsePool(s string) (Pool, error) {
	switch Pool(strings.ToLower(strings.TrimSpace(s))) {
	case PoolAnnual:
		return PoolAnnual, nil
	case PoolMedical:
		return PoolMedical, nil
	}
	return "", InvalidInput("unknown leave pool %q", s)
}

func (e LeaveEntitlement) Balance(p Pool) decimal.Decimal {
	if p == PoolMedical {
		return e.MedicalBalance
	}
	return e.AnnualBalance
}

func (e LeaveEntitlement) Limit(p Pool) decimal.Decimal {
	if p == PoolMedical {
		return e.MedicalLimit
	}
	return e.AnnualLimit
}

func (e LeaveEntitlement) WithBalance(p Pool, v decimal.Decimal) LeaveEntitlement {
	if p == PoolMedical {
		e.MedicalBalance = v
	} else {
		e.AnnualBalance = v
	}
	return e
}

// LocalProfile is only present on Local workers.
type LocalProfile struct {
	BirthDate Date `json:"birth_date"`
	// Zero means "use the age band".
	EmployeeContributionRate decimal.Decimal `json:"employee_contribution_rate"`
	EmployerContributionRate decimal.Decimal `json:"employer_contribution_rate"`
}

// Worker is resolved once at load time; Local is non-nil exactly when
// Category is CategoryLocal.
type Worker struct {
	ID        WorkerID         `json:"id"`
	Name      string           `json:"name"`
	Category  Category         `json:"category"`
	SiteID    string           `json:"site_id,omitempty"`
	Rates     RateCard         `json:"rates"`
	Leave     LeaveEntitlement `json:"leave"`
	Local     *LocalProfile    `json:"local,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

func (w Worker) IsLocal() bool { return w.Category == CategoryLocal }

// Validate enforces the tagged-union shape.
func (w Worker) Validate() error {
	if w.ID == "" {
		return InvalidInput("worker id is required")
	}
	if strings.TrimSpace(w.Name) == "" {
		return InvalidInput("worker %s: name is required", w.ID)
	}
	switch w.Category {
	case CategoryLocal:
		if w.Local == nil {
			return InvalidInput("local worker %s requires a birth date and contribution profile", w.ID)
		}
	case CategoryForeign:
		if w.Local != nil {
			return InvalidInput("foreign worker %s cannot carry a local contribution profile", w.ID)
		}
	default:
		return InvalidInput("worker %s: unknown category %q", w.ID, w.Category)
	}
	for name, v := range map[string]decimal.Decimal{
		"annual balance":  w.Leave.AnnualBalance,
		"medical balance": w.Leave.MedicalBalance,
	} {
		if v.IsNegative() {
			return InvalidInput("worker %s: %s cannot be negative", w.ID, name)
		}
	}
	return nil
}

// =============================================================================
// SHIFT RECORD - One clock-in/out (or one leave day) for a worker
// =============================================================================

// Break is a scheduled break inside a shift.
type Break struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// HourSplit is the output of the shift hour splitter.
type HourSplit struct {
	Basic       decimal.Decimal `json:"basic"`
	RestHoliday decimal.Decimal `json:"rest_holiday"`
	OT          decimal.Decimal `json:"ot"`
	Break       decimal.Decimal `json:"break"`
}

func (h HourSplit) Add(o HourSplit) HourSplit {
	return HourSplit{
		Basic:       h.Basic.Add(o.Basic),
		RestHoliday: h.RestHoliday.Add(o.RestHoliday),
		OT:          h.OT.Add(o.OT),
		Break:       h.Break.Add(o.Break),
	}
}

// Worked is basic + restHoliday + ot. Break hours are excluded.
func (h HourSplit) Worked() decimal.Decimal {
	return h.Basic.Add(h.RestHoliday).Add(h.OT)
}

// LeaveType is a taxonomy label; see the leave package for classification.
type LeaveType string

// LeaveDuration is how much of each day a leave request covers.
type LeaveDuration string

const (
	DurationFullDay          LeaveDuration = "full_day"
	DurationHalfDayMorning   LeaveDuration = "half_day_morning"
	DurationHalfDayAfternoon LeaveDuration = "half_day_afternoon"
)

func ParseDuration(s string) (LeaveDuration, error) {
	switch LeaveDuration(strings.ToLower(strings.TrimSpace(s))) {
	case DurationFullDay, "":
		return DurationFullDay, nil
	case DurationHalfDayMorning:
		return DurationHalfDayMorning, nil
	case DurationHalfDayAfternoon:
		return DurationHalfDayAfternoon, nil
	}
	return "", InvalidInput("unknown leave duration %q", s)
}

func (d LeaveDuration) IsHalfDay() bool {
	return d == DurationHalfDayMorning || d == DurationHalfDayAfternoon
}

// DayFraction is 1 for a full day and 0.5 for a half day.
func (d LeaveDuration) DayFraction() decimal.Decimal {
	if d.IsHalfDay() {
		return decimal.NewFromFloat(0.5)
	}
	return decimal.NewFromInt(1)
}

// ShiftRecord is either a work record (LeaveType empty) or a leave record.
type ShiftRecord struct {
	ID             ShiftID        `json:"id"`
	WorkerID       WorkerID       `json:"worker_id"`
	WorkDate       Date           `json:"work_date"`
	Entry          time.Time      `json:"entry_time"`
	Exit           *time.Time     `json:"exit_time,omitempty"`
	Breaks         []Break        `json:"breaks,omitempty"`
	LeaveType      LeaveType      `json:"leave_type,omitempty"`
	LeaveDuration  LeaveDuration  `json:"leave_duration,omitempty"`
	LeavePaid      bool           `json:"leave_paid,omitempty"`
	LeaveRequestID LeaveRequestID `json:"leave_request_id,omitempty"`
	SiteID         string         `json:"site_id,omitempty"`
	Hours          HourSplit      `json:"hours"`
	HasLeft        bool           `json:"has_left"`
}

func (s ShiftRecord) IsLeave() bool { return s.LeaveType != "" }

// IsCompletedWork is a work record that has been clocked out.
func (s ShiftRecord) IsCompletedWork() bool {
	return !s.IsLeave() && s.HasLeft && s.Exit != nil
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type LeaveStatus string

const (
	StatusPending  LeaveStatus = "pending"
	StatusApproved LeaveStatus = "approved"
	StatusRejected LeaveStatus = "rejected"
)

// LeaveAllocation is what approval decided, stored so deletion can reverse it.
type LeaveAllocation struct {
	Pool          Pool            `json:"pool,omitempty"`
	RequestedDays decimal.Decimal `json:"requested_days"`
	PaidDays      decimal.Decimal `json:"paid_days"`
	UnpaidDays    decimal.Decimal `json:"unpaid_days"`
	DeductedDays  decimal.Decimal `json:"deducted_days"`
}

type LeaveRequest struct {
	ID         LeaveRequestID   `json:"id"`
	WorkerID   WorkerID         `json:"worker_id"`
	LeaveType  LeaveType        `json:"leave_type"`
	Duration   LeaveDuration    `json:"duration"`
	From       Date             `json:"from_date"`
	To         Date             `json:"to_date"`
	Status     LeaveStatus      `json:"status"`
	AdminNotes string           `json:"admin_notes,omitempty"`
	Allocation *LeaveAllocation `json:"allocation,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	DecidedAt  *time.Time       `json:"decided_at,omitempty"`
}

// Period returns the request window. The range must already be validated.
func (r LeaveRequest) Period() Period { return Period{Start: r.From, End: r.To} }

// LeaveFilter narrows leave request listings. Zero fields match everything.
type LeaveFilter struct {
	WorkerID WorkerID
	Status   LeaveStatus
}

// =============================================================================
// PAYSLIP RECORD - One per (worker, month, year)
// =============================================================================

// PayLine is a named manual addition or deduction.
type PayLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// PayslipRecord holds every figure already rounded to cents.
type PayslipRecord struct {
	ID         PayslipID  `json:"id"`
	WorkerID   WorkerID   `json:"worker_id"`
	WorkerName string     `json:"worker_name"`
	Category   Category   `json:"category"`
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`

	WorkingDays      int             `json:"working_days"`
	BasicHours       decimal.Decimal `json:"basic_hours"`
	RestHolidayHours decimal.Decimal `json:"rest_holiday_hours"`
	OTHours          decimal.Decimal `json:"ot_hours"`
	PayableOTHours   decimal.Decimal `json:"payable_ot_hours"`
	ExcessOTHours    decimal.Decimal `json:"excess_ot_hours"`
	BasicDays        decimal.Decimal `json:"basic_days"`
	RestHolidayDays  decimal.Decimal `json:"rest_holiday_days"`
	DailyBasicRate   decimal.Decimal `json:"daily_basic_rate"`

	BasicPay           decimal.Decimal `json:"basic_pay"`
	OTPay              decimal.Decimal `json:"ot_pay"`
	IncentiveAllowance decimal.Decimal `json:"incentive_allowance"`
	RestHolidayPay     decimal.Decimal `json:"rest_holiday_pay"`
	ProratedAllowance  decimal.Decimal `json:"prorated_allowance"`
	Bonus              decimal.Decimal `json:"bonus"`
	CustomAdditions    []PayLine       `json:"custom_additions,omitempty"`
	TotalAdditions     decimal.Decimal `json:"total_additions"`

	WageBase             decimal.Decimal `json:"wage_base"`
	EmployeeRate         decimal.Decimal `json:"employee_rate"`
	EmployerRate         decimal.Decimal `json:"employer_rate"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	CommunityFund        decimal.Decimal `json:"community_fund"`
	CommunityFundMethod  string          `json:"community_fund_method,omitempty"`
	DevelopmentLevy      decimal.Decimal `json:"development_levy"`
	CustomDeductions     []PayLine       `json:"custom_deductions,omitempty"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`

	NetPay decimal.Decimal `json:"net_pay"`

	YTDNetPay               decimal.Decimal `json:"ytd_net_pay"`
	YTDEmployeeContribution decimal.Decimal `json:"ytd_employee_contribution"`
	YTDEmployerContribution decimal.Decimal `json:"ytd_employer_contribution"`

	Warnings    []string  `json:"warnings,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Key is the natural upsert key.
func (p PayslipRecord) Key() string {
	return fmt.Sprintf("%s/%04d-%02d", p.WorkerID, p.Year, int(p.Month))
}

// WorkingDaysConfig is the externally configured working-day count of a month.
type WorkingDaysConfig struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  int        `json:"days"`
}
