/*
Package contribution is the statutory contribution calculator for Local workers.

PURPOSE:
  Produces the employee and employer social-contribution amounts for a
  month's wage base, plus the two employer-side flat charges: the community
  fund deduction and the development levy. Foreign workers never reach this
  package.

RATE TABLES:
  Age band (age at end of pay month)   Employee   Employer   Phase-in factor
  55 and below                         20%        17%        0.60
  above 55 to 60                       17%        15.5%      0.51
  above 60 to 65                       11.5%      12%        0.345
  above 65 to 70                       7.5%       9%         0.225
  above 70                             5%         7.5%       0.15

WAGE BANDS:
  wage <= 50          nothing
  50 < wage <= 500    employer only
  500 < wage <= 750   employer full; employee phased in:
                      min(factor x (wage - 500), rate x wage)
  wage > 750          both at full rate on min(wage, ordinary wage ceiling)

  A non-zero rate stored on the worker overrides the age band's rate.

USAGE:
  calc := contribution.NewCalculator(contribution.DefaultTables())
  res := calc.Compute(contribution.Input{WageBase: base, Age: 42})

SEE ALSO:
  - community.go: Community fund strategies (flat vs table)
  - levy.go: Development levy
  - factory/rates.go: Tables from JSON
*/
package contribution

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// AgeBand applies to ages up to and including MaxAge. MaxAge 0 is open-ended.
type AgeBand struct {
	MaxAge          int             `json:"max_age"`
	EmployeePercent decimal.Decimal `json:"employee_percent"`
	EmployerPercent decimal.Decimal `json:"employer_percent"`
	PhaseFactor     decimal.Decimal `json:"phase_factor"`
}

// Tables is the full statutory rate table set.
type Tables struct {
	AgeBands []AgeBand `json:"age_bands"`

	NoContributionUpTo decimal.Decimal `json:"no_contribution_up_to"`
	EmployerOnlyUpTo   decimal.Decimal `json:"employer_only_up_to"`
	PhaseInUpTo        decimal.Decimal `json:"phase_in_up_to"`
	WageCeiling        decimal.Decimal `json:"wage_ceiling"`
}

func pct(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func DefaultTables() Tables {
	return Tables{
		AgeBands: []AgeBand{
			{MaxAge: 55, EmployeePercent: pct("20"), EmployerPercent: pct("17"), PhaseFactor: pct("0.6")},
			{MaxAge: 60, EmployeePercent: pct("17"), EmployerPercent: pct("15.5"), PhaseFactor: pct("0.51")},
			{MaxAge: 65, EmployeePercent: pct("11.5"), EmployerPercent: pct("12"), PhaseFactor: pct("0.345")},
			{MaxAge: 70, EmployeePercent: pct("7.5"), EmployerPercent: pct("9"), PhaseFactor: pct("0.225")},
			{MaxAge: 0, EmployeePercent: pct("5"), EmployerPercent: pct("7.5"), PhaseFactor: pct("0.15")},
		},
		NoContributionUpTo: pct("50"),
		EmployerOnlyUpTo:   pct("500"),
		PhaseInUpTo:        pct("750"),
		WageCeiling:        pct("6800"),
	}
}

// Validate checks band ordering and threshold monotonicity. It sorts the
// bounded bands by MaxAge and moves the open band last.
func (t *Tables) Validate() error {
	if len(t.AgeBands) == 0 {
		return fmt.Errorf("contribution tables: at least one age band is required")
	}
	open := 0
	for i, b := range t.AgeBands {
		if b.MaxAge < 0 {
			return fmt.Errorf("contribution tables: band %d has negative max_age", i)
		}
		if b.MaxAge == 0 {
			open++
		}
		for name, v := range map[string]decimal.Decimal{
			"employee_percent": b.EmployeePercent,
			"employer_percent": b.EmployerPercent,
			"phase_factor":     b.PhaseFactor,
		} {
			if v.IsNegative() {
				return fmt.Errorf("contribution tables: band %d has negative %s", i, name)
			}
		}
	}
	if open != 1 {
		return fmt.Errorf("contribution tables: exactly one open-ended band (max_age 0) is required, got %d", open)
	}
	sort.SliceStable(t.AgeBands, func(i, j int) bool {
		a, b := t.AgeBands[i].MaxAge, t.AgeBands[j].MaxAge
		if a == 0 || b == 0 {
			return b == 0 && a != 0
		}
		return a < b
	})

	if t.NoContributionUpTo.IsNegative() ||
		t.EmployerOnlyUpTo.LessThan(t.NoContributionUpTo) ||
		t.PhaseInUpTo.LessThan(t.EmployerOnlyUpTo) {
		return fmt.Errorf("contribution tables: wage thresholds must be non-decreasing (%s, %s, %s)",
			t.NoContributionUpTo, t.EmployerOnlyUpTo, t.PhaseInUpTo)
	}
	if !t.WageCeiling.IsPositive() {
		return fmt.Errorf("contribution tables: wage_ceiling must be positive")
	}
	return nil
}

// Band returns the age band covering age. Bands must be sorted (see Validate).
func (t Tables) Band(age int) AgeBand {
	for _, b := range t.AgeBands {
		if b.MaxAge == 0 || age <= b.MaxAge {
			return b
		}
	}
	return t.AgeBands[len(t.AgeBands)-1]
}

func (t Tables) EmployeeRate(age int) decimal.Decimal { return t.Band(age).EmployeePercent }
func (t Tables) EmployerRate(age int) decimal.Decimal { return t.Band(age).EmployerPercent }
