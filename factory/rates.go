/*
Package factory provides JSON to Go contribution rate conversion.

PURPOSE:
  Statutory rate tables change by regulation, not by release. The factory
  turns a JSON rate file into contribution.Tables, a community fund table
  and a levy so a deployment can follow a rate change by editing
  configuration (payroll.rate_tables_file).

JSON SCHEMA:
  {
    "age_bands": [
      {"max_age": 55, "employee_percent": 20, "employer_percent": 17, "phase_factor": 0.6},
      {"max_age": 0,  "employee_percent": 5,  "employer_percent": 7.5, "phase_factor": 0.15}
    ],
    "wage_bands": {
      "no_contribution_up_to": 50,
      "employer_only_up_to": 500,
      "phase_in_up_to": 750,
      "wage_ceiling": 6800
    },
    "community_fund": {
      "basis": "age",
      "bands": [{"up_to": 55, "percent": 3}, {"percent": 1.5}]
    },
    "levy": {"percent": 0.25, "min": 2, "max": 11.25}
  }

  Every section is optional; a missing section keeps the built-in default.
  max_age / up_to of 0 marks the open-ended last band.

USAGE:
  set, err := factory.NewRatesFactory().ParseRates(jsonString)
  calc := contribution.NewCalculator(set.Tables)

SEE ALSO:
  - contribution/tables.go: Built-in defaults and validation
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

type RatesJSON struct {
	AgeBands      []AgeBandJSON      `json:"age_bands,omitempty"`
	WageBands     *WageBandsJSON     `json:"wage_bands,omitempty"`
	CommunityFund *CommunityFundJSON `json:"community_fund,omitempty"`
	Levy          *LevyJSON          `json:"levy,omitempty"`
}

type AgeBandJSON struct {
	MaxAge          int     `json:"max_age"`
	EmployeePercent float64 `json:"employee_percent"`
	EmployerPercent float64 `json:"employer_percent"`
	PhaseFactor     float64 `json:"phase_factor"`
}

type WageBandsJSON struct {
	NoContributionUpTo float64 `json:"no_contribution_up_to"`
	EmployerOnlyUpTo   float64 `json:"employer_only_up_to"`
	PhaseInUpTo        float64 `json:"phase_in_up_to"`
	WageCeiling        float64 `json:"wage_ceiling"`
}

type CommunityFundJSON struct {
	Basis string         `json:"basis"` // age, wage
	Bands []FundBandJSON `json:"bands"`
}

type FundBandJSON struct {
	UpTo    float64 `json:"up_to,omitempty"`
	Amount  float64 `json:"amount,omitempty"`
	Percent float64 `json:"percent,omitempty"`
}

type LevyJSON struct {
	Percent float64 `json:"percent"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
}

// RateSet is everything the payroll engine needs from a rate file.
type RateSet struct {
	Tables contribution.Tables
	// CommunityFund is nil when the file does not define one.
	CommunityFund *contribution.Table
	Levy          contribution.Levy
}

// Defaults is the built-in rate set.
func Defaults() *RateSet {
	return &RateSet{Tables: contribution.DefaultTables(), Levy: contribution.DefaultLevy()}
}

// =============================================================================
// RATES FACTORY
// =============================================================================

type RatesFactory struct{}

func NewRatesFactory() *RatesFactory {
	return &RatesFactory{}
}

// ParseRates parses a JSON document into a validated RateSet.
func (f *RatesFactory) ParseRates(jsonStr string) (*RateSet, error) {
	var rj RatesJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse rates JSON: %w", err)
	}
	return f.FromJSON(rj)
}

// LoadRatesFile reads and parses a rate file. An empty path yields the defaults.
func (f *RatesFactory) LoadRatesFile(path string) (*RateSet, error) {
	if path == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rates file %s: %w", path, err)
	}
	set, err := f.ParseRates(string(raw))
	if err != nil {
		return nil, fmt.Errorf("rates file %s: %w", path, err)
	}
	return set, nil
}

// FromJSON converts RatesJSON, filling missing sections from Defaults.
func (f *RatesFactory) FromJSON(rj RatesJSON) (*RateSet, error) {
	set := Defaults()

	if len(rj.AgeBands) > 0 {
		set.Tables.AgeBands = make([]contribution.AgeBand, 0, len(rj.AgeBands))
		for _, b := range rj.AgeBands {
			set.Tables.AgeBands = append(set.Tables.AgeBands, contribution.AgeBand{
				MaxAge:          b.MaxAge,
				EmployeePercent: dec(b.EmployeePercent),
				EmployerPercent: dec(b.EmployerPercent),
				PhaseFactor:     dec(b.PhaseFactor),
			})
		}
	}
	if wb := rj.WageBands; wb != nil {
		set.Tables.NoContributionUpTo = dec(wb.NoContributionUpTo)
		set.Tables.EmployerOnlyUpTo = dec(wb.EmployerOnlyUpTo)
		set.Tables.PhaseInUpTo = dec(wb.PhaseInUpTo)
		set.Tables.WageCeiling = dec(wb.WageCeiling)
	}
	if err := set.Tables.Validate(); err != nil {
		return nil, err
	}

	if cf := rj.CommunityFund; cf != nil {
		table := contribution.Table{Basis: parseBasis(cf.Basis)}
		for _, b := range cf.Bands {
			table.Bands = append(table.Bands, contribution.FundBand{
				UpTo:    dec(b.UpTo),
				Amount:  dec(b.Amount),
				Percent: dec(b.Percent),
			})
		}
		if err := table.Validate(); err != nil {
			return nil, err
		}
		set.CommunityFund = &table
	}

	if l := rj.Levy; l != nil {
		set.Levy = contribution.Levy{Percent: dec(l.Percent), Min: dec(l.Min), Max: dec(l.Max)}
		if set.Levy.Percent.IsNegative() || set.Levy.Min.IsNegative() ||
			(set.Levy.Max.IsPositive() && set.Levy.Max.LessThan(set.Levy.Min)) {
			return nil, fmt.Errorf("levy: invalid bounds (percent %s, min %s, max %s)", set.Levy.Percent, set.Levy.Min, set.Levy.Max)
		}
	}
	return set, nil
}

// ToJSON converts a RateSet back to its JSON form.
func (f *RatesFactory) ToJSON(set *RateSet) RatesJSON {
	rj := RatesJSON{
		WageBands: &WageBandsJSON{
			NoContributionUpTo: set.Tables.NoContributionUpTo.InexactFloat64(),
			EmployerOnlyUpTo:   set.Tables.EmployerOnlyUpTo.InexactFloat64(),
			PhaseInUpTo:        set.Tables.PhaseInUpTo.InexactFloat64(),
			WageCeiling:        set.Tables.WageCeiling.InexactFloat64(),
		},
		Levy: &LevyJSON{
			Percent: set.Levy.Percent.InexactFloat64(),
			Min:     set.Levy.Min.InexactFloat64(),
			Max:     set.Levy.Max.InexactFloat64(),
		},
	}
	for _, b := range set.Tables.AgeBands {
		rj.AgeBands = append(rj.AgeBands, AgeBandJSON{
			MaxAge:          b.MaxAge,
			EmployeePercent: b.EmployeePercent.InexactFloat64(),
			EmployerPercent: b.EmployerPercent.InexactFloat64(),
			PhaseFactor:     b.PhaseFactor.InexactFloat64(),
		})
	}
	if set.CommunityFund != nil {
		cf := &CommunityFundJSON{Basis: string(set.CommunityFund.Basis)}
		for _, b := range set.CommunityFund.Bands {
			cf.Bands = append(cf.Bands, FundBandJSON{
				UpTo:    b.UpTo.InexactFloat64(),
				Amount:  b.Amount.InexactFloat64(),
				Percent: b.Percent.InexactFloat64(),
			})
		}
		rj.CommunityFund = cf
	}
	return rj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// dec converts a JSON number. encoding/json cannot produce NaN or Inf, so
// the finite check never fails here.
func dec(f float64) decimal.Decimal {
	d, _ := generic.FiniteDecimal(f)
	return d
}

func parseBasis(s string) contribution.Basis {
	switch s {
	case "wage":
		return contribution.BasisWage
	default:
		return contribution.BasisAge
	}
}
