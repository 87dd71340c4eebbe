package payroll

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/generic"
)

// DefaultOTCapHours is the monthly overtime payable at the OT rate.
var DefaultOTCapHours = decimal.NewFromInt(72)

// Adjustments are manual, per-worker lines. Bulk runs pass none.
type Adjustments struct {
	Bonus      decimal.Decimal   `json:"bonus"`
	Additions  []generic.PayLine `json:"additions,omitempty"`
	Deductions []generic.PayLine `json:"deductions,omitempty"`
	// Warnings raised while reading the adjustments (e.g. a coerced
	// non-numeric amount); copied onto the payslip.
	Warnings []string `json:"-"`
}

// RatesContext is the month-level input shared by every worker of a run.
type RatesContext struct {
	Year        int
	Month       time.Month
	WorkingDays int

	Calculator    *contribution.Calculator
	CommunityFund contribution.CommunityFund
	Levy          contribution.Levy
	OTCapHours    decimal.Decimal

	// Warnings already raised while building the context (e.g. a fallback
	// working-day count); copied onto the payslip.
	Warnings []string
}

// WorkerResult is one worker's line in a bulk run.
type WorkerResult struct {
	WorkerID   generic.WorkerID       `json:"worker_id"`
	WorkerName string                 `json:"worker_name"`
	Payslip    *generic.PayslipRecord `json:"payslip,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Kind       generic.Kind           `json:"kind,omitempty"`
}

func (r WorkerResult) OK() bool { return r.Error == "" }

type BulkResult struct {
	Year        int            `json:"year"`
	Month       time.Month     `json:"month"`
	WorkingDays int            `json:"working_days"`
	Results     []WorkerResult `json:"results"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
}

// ReportTotals are column sums over the successful rows.
type ReportTotals struct {
	BasicPay             decimal.Decimal `json:"basic_pay"`
	OTPay                decimal.Decimal `json:"ot_pay"`
	IncentiveAllowance   decimal.Decimal `json:"incentive_allowance"`
	RestHolidayPay       decimal.Decimal `json:"rest_holiday_pay"`
	ProratedAllowance    decimal.Decimal `json:"prorated_allowance"`
	TotalAdditions       decimal.Decimal `json:"total_additions"`
	EmployeeContribution decimal.Decimal `json:"employee_contribution"`
	EmployerContribution decimal.Decimal `json:"employer_contribution"`
	CommunityFund        decimal.Decimal `json:"community_fund"`
	DevelopmentLevy      decimal.Decimal `json:"development_levy"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`
}

func newReportTotals() ReportTotals {
	z := decimal.Zero
	return ReportTotals{z, z, z, z, z, z, z, z, z, z, z, z}
}

func (t *ReportTotals) add(p generic.PayslipRecord) {
	t.BasicPay = t.BasicPay.Add(p.BasicPay)
	t.OTPay = t.OTPay.Add(p.OTPay)
	t.IncentiveAllowance = t.IncentiveAllowance.Add(p.IncentiveAllowance)
	t.RestHolidayPay = t.RestHolidayPay.Add(p.RestHolidayPay)
	t.ProratedAllowance = t.ProratedAllowance.Add(p.ProratedAllowance)
	t.TotalAdditions = t.TotalAdditions.Add(p.TotalAdditions)
	t.EmployeeContribution = t.EmployeeContribution.Add(p.EmployeeContribution)
	t.EmployerContribution = t.EmployerContribution.Add(p.EmployerContribution)
	t.CommunityFund = t.CommunityFund.Add(p.CommunityFund)
	t.DevelopmentLevy = t.DevelopmentLevy.Add(p.DevelopmentLevy)
	t.TotalDeductions = t.TotalDeductions.Add(p.TotalDeductions)
	t.NetPay = t.NetPay.Add(p.NetPay)
}

// SalaryReport is the month's computed payroll for a worker category.
type SalaryReport struct {
	Year        int                     `json:"year"`
	Month       time.Month              `json:"month"`
	Filter      generic.CategoryFilter  `json:"filter"`
	WorkingDays int                     `json:"working_days"`
	Rows        []generic.PayslipRecord `json:"rows"`
	Totals      ReportTotals            `json:"totals"`
	Failures    []WorkerResult          `json:"failures,omitempty"`
}
