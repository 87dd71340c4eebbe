/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Records from the
  generic package are returned as they are; request bodies get their own
  types so numeric input can be read leniently.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *DTO: Response types that add something to a domain record

NUMBERS:
  Money, hour and rate fields accept a JSON number or a numeric string.
  Anything else ("NaN", "12abc", "Infinity") is read as zero and the
  response carries a warning naming the field. Input never fails on a
  malformed number and never lets one reach a currency figure.

SEE ALSO:
  - handlers.go: Uses these types
  - generic/records.go: Worker, ShiftRecord, LeaveRequest, PayslipRecord
*/
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// LENIENT NUMBERS
// =============================================================================

// Number is a decimal read from either a JSON number or a string.
type Number struct {
	decimal.Decimal
	Invalid bool
	Raw     string
}

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		n.Decimal = decimal.Zero
		return nil
	}
	raw = strings.Trim(raw, `"`)
	d, ok := generic.ParseDecimal(raw)
	n.Decimal, n.Invalid, n.Raw = d, !ok, raw
	return nil
}

// warnings collects coercion notes while a request body is converted.
type warnings []string

func (w *warnings) num(field string, n Number) decimal.Decimal {
	if n.Invalid {
		*w = append(*w, fmt.Sprintf("%s: %q is not a finite number, treated as 0", field, n.Raw))
	}
	return n.Decimal
}

// =============================================================================
// WORKERS
// =============================================================================

// WorkerRequest creates or replaces a worker. Local-only fields are ignored
// for foreign workers.
type WorkerRequest struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Category              string `json:"category"`
	SiteID                string `json:"site_id"`
	MonthlyBasicSalary    Number `json:"monthly_basic_salary"`
	OTRatePerHour         Number `json:"ot_rate_per_hour"`
	RestHolidayRatePerDay Number `json:"rest_holiday_rate_per_day"`
	MonthlyAllowance      Number `json:"monthly_allowance"`
	AnnualLimit           Number `json:"annual_limit"`
	MedicalLimit          Number `json:"medical_limit"`
	AnnualBalance         Number `json:"annual_balance"`
	MedicalBalance        Number `json:"medical_balance"`

	BirthDate                *generic.Date `json:"birth_date,omitempty"`
	EmployeeContributionRate Number        `json:"employee_contribution_rate"`
	EmployerContributionRate Number        `json:"employer_contribution_rate"`
}

func (r WorkerRequest) toWorker() (generic.Worker, warnings, error) {
	var warn warnings
	category, err := generic.ParseCategory(r.Category)
	if err != nil {
		return generic.Worker{}, nil, err
	}
	w := generic.Worker{
		ID:       generic.WorkerID(r.ID),
		Name:     r.Name,
		Category: category,
		SiteID:   r.SiteID,
		Rates: generic.RateCard{
			MonthlyBasicSalary:    warn.num("monthly_basic_salary", r.MonthlyBasicSalary),
			OTRatePerHour:         warn.num("ot_rate_per_hour", r.OTRatePerHour),
			RestHolidayRatePerDay: warn.num("rest_holiday_rate_per_day", r.RestHolidayRatePerDay),
			MonthlyAllowance:      warn.num("monthly_allowance", r.MonthlyAllowance),
		},
		Leave: generic.LeaveEntitlement{
			AnnualLimit:    warn.num("annual_limit", r.AnnualLimit),
			MedicalLimit:   warn.num("medical_limit", r.MedicalLimit),
			AnnualBalance:  warn.num("annual_balance", r.AnnualBalance),
			MedicalBalance: warn.num("medical_balance", r.MedicalBalance),
		},
	}
	if category == generic.CategoryLocal {
		if r.BirthDate == nil || r.BirthDate.IsZero() {
			return generic.Worker{}, nil, generic.InvalidInput("local worker requires birth_date")
		}
		w.Local = &generic.LocalProfile{
			BirthDate:                *r.BirthDate,
			EmployeeContributionRate: warn.num("employee_contribution_rate", r.EmployeeContributionRate),
			EmployerContributionRate: warn.num("employer_contribution_rate", r.EmployerContributionRate),
		}
	}
	return w, warn, nil
}

// WorkerDTO is a worker plus any input warnings.
type WorkerDTO struct {
	generic.Worker
	Warnings []string `json:"warnings,omitempty"`
}

// AdjustmentRequest is a manual balance correction.
type AdjustmentRequest struct {
	Pool   string `json:"pool"`
	Delta  Number `json:"delta"`
	Reason string `json:"reason"`
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type ClockInRequest struct {
	SiteID string     `json:"site_id"`
	At     *time.Time `json:"at,omitempty"`
}

type ClockOutRequest struct {
	At     *time.Time      `json:"at,omitempty"`
	Breaks []generic.Break `json:"breaks"`
}

type AmendShiftRequest struct {
	Entry  time.Time       `json:"entry_time"`
	Exit   time.Time       `json:"exit_time"`
	Breaks []generic.Break `json:"breaks"`
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveRequestBody struct {
	WorkerID   string       `json:"worker_id"`
	LeaveType  string       `json:"leave_type"`
	Duration   string       `json:"duration"`
	From       generic.Date `json:"from_date"`
	To         generic.Date `json:"to_date"`
	AdminNotes string       `json:"admin_notes"`
}

type DecisionRequest struct {
	AdminNotes string `json:"admin_notes"`
}

// =============================================================================
// PAYROLL
// =============================================================================

type PayLineRequest struct {
	Name   string `json:"name"`
	Amount Number `json:"amount"`
}

// ComputePayslipRequest carries the pay month and the manual lines of the
// single-worker path.
type ComputePayslipRequest struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Bonus      Number           `json:"bonus"`
	Additions  []PayLineRequest `json:"additions"`
	Deductions []PayLineRequest `json:"deductions"`
}

func payLines(field string, in []PayLineRequest, warn *warnings) []generic.PayLine {
	if len(in) == 0 {
		return nil
	}
	out := make([]generic.PayLine, len(in))
	for i, l := range in {
		out[i] = generic.PayLine{Name: l.Name, Amount: warn.num(fmt.Sprintf("%s[%d].amount", field, i), l.Amount)}
	}
	return out
}

type PayMonthRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

type WorkingDaysRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Days  int `json:"days"`
}

type HolidayRequest struct {
	ID   string       `json:"id"`
	Date generic.Date `json:"date"`
	Name string       `json:"name"`
}

// =============================================================================
// SCENARIOS / ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string             `json:"error"`
	Kind    generic.Kind       `json:"kind"`
	Partial *PartialFailureDTO `json:"partial,omitempty"`
}

// PartialFailureDTO details which half of a multi-write operation landed.
type PartialFailureDTO struct {
	Operation string   `json:"operation"`
	Applied   []string `json:"applied"`
	Failed    string   `json:"failed"`
}
