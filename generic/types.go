/*
Package generic provides the core payroll and leave engine types.

PURPOSE:
  This package contains the shared vocabulary every other package speaks:
  identifiers, quantities with units, civil dates, the calendar oracle,
  the record types persisted by the record store, the error taxonomy and
  the balance journal. Domain packages (attendance, leave, contribution,
  payroll) build on top of it and never on each other's storage details.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 5 days, 37.5 hours, 2200 currency)
  - IDs: Type-safe identifiers for workers, shifts, requests, transactions
  - Decimal helpers: rounding to currency precision and finite-number guards

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for every hour, day and currency figure
  2. No intermediate rounding: only Round2 at the payslip boundary
  3. Type Safety: Strong typing for IDs prevents mixing worker/request IDs
  4. Non-finite input never reaches currency output; it becomes zero with a warning

USAGE:
  days := generic.NewAmount(2.5, generic.UnitDays)
  pay := generic.Round2(rate.Mul(days.Value))

SEE ALSO:
  - records.go: Worker, ShiftRecord, LeaveRequest, PayslipRecord
  - ledger.go: Balance journal
  - store.go: Record store interfaces
*/
package generic

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type ShiftID string
type LeaveRequestID string
type TransactionID string
type PayslipID string

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal `json:"value"`
	Unit  Unit            `json:"unit"`
}

type Unit string

const (
	UnitDays     Unit = "days"
	UnitHours    Unit = "hours"
	UnitCurrency Unit = "currency"
)

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

var (
	// HoursPerDay converts hour totals into day totals (hours/8).
	HoursPerDay = decimal.NewFromInt(8)
	// HalfDayHours is the paid-leave credit for a half-day on a working day.
	HalfDayHours = decimal.NewFromInt(4)

	hundred = decimal.NewFromInt(100)
)

// Round2 rounds a currency figure to cents, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns base * pct / 100.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(hundred)
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// ClampNonNegative returns zero for negative values.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// FiniteDecimal converts a float into a decimal. NaN and infinities become
// zero and ok is false so the caller can record a warning.
func FiniteDecimal(f float64) (d decimal.Decimal, ok bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(f), true
}

// ParseDecimal parses a stored or user-supplied number. Blank input is zero.
// Anything that is not a finite number becomes zero and ok is false.
func ParseDecimal(s string) (d decimal.Decimal, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}
	switch strings.ToLower(s) {
	case "nan", "inf", "+inf", "-inf", "infinity", "-infinity":
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// MustParseDecimal is ParseDecimal for literals and tests.
func MustParseDecimal(s string) decimal.Decimal {
	d, _ := ParseDecimal(s)
	return d
}
