package contribution

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Input is one worker-month. Overrides of zero mean "use the age band".
type Input struct {
	WageBase         decimal.Decimal
	Age              int
	EmployeeOverride decimal.Decimal
	EmployerOverride decimal.Decimal
}

// Result amounts are unrounded; the payroll engine rounds at output.
type Result struct {
	EmployeeRate decimal.Decimal `json:"employee_rate"`
	EmployerRate decimal.Decimal `json:"employer_rate"`
	Employee     decimal.Decimal `json:"employee"`
	Employer     decimal.Decimal `json:"employer"`
	// WageBand is "none", "employer_only", "phase_in" or "full".
	WageBand string `json:"wage_band"`
}

type Calculator struct {
	tables Tables
}

// NewCalculator expects tables already validated (DefaultTables always is).
func NewCalculator(tables Tables) *Calculator {
	return &Calculator{tables: tables}
}

func (c *Calculator) Tables() Tables { return c.tables }

func (c *Calculator) Compute(in Input) Result {
	band := c.tables.Band(in.Age)
	res := Result{
		EmployeeRate: band.EmployeePercent,
		EmployerRate: band.EmployerPercent,
		Employee:     decimal.Zero,
		Employer:     decimal.Zero,
	}
	if in.EmployeeOverride.IsPositive() {
		res.EmployeeRate = in.EmployeeOverride
	}
	if in.EmployerOverride.IsPositive() {
		res.EmployerRate = in.EmployerOverride
	}

	wage := generic.ClampNonNegative(in.WageBase)
	switch {
	case wage.LessThanOrEqual(c.tables.NoContributionUpTo):
		res.WageBand = "none"

	case wage.LessThanOrEqual(c.tables.EmployerOnlyUpTo):
		res.WageBand = "employer_only"
		res.Employer = generic.Percent(wage, res.EmployerRate)

	case wage.LessThanOrEqual(c.tables.PhaseInUpTo):
		res.WageBand = "phase_in"
		res.Employer = generic.Percent(wage, res.EmployerRate)
		phased := band.PhaseFactor.Mul(wage.Sub(c.tables.EmployerOnlyUpTo))
		res.Employee = decimal.Min(phased, generic.Percent(wage, res.EmployeeRate))

	default:
		res.WageBand = "full"
		capped := decimal.Min(wage, c.tables.WageCeiling)
		res.Employee = generic.Percent(capped, res.EmployeeRate)
		res.Employer = generic.Percent(capped, res.EmployerRate)
	}
	return res
}
