package contribution

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// Levy is the development levy: Percent of the wage base, clamped to
// [Min, Max]. It is an employer charge and never enters net pay.
type Levy struct {
	Percent decimal.Decimal `json:"percent"`
	Min     decimal.Decimal `json:"min"`
	Max     decimal.Decimal `json:"max"`
}

func DefaultLevy() Levy {
	return Levy{Percent: pct("0.25"), Min: pct("2"), Max: pct("11.25")}
}

func (l Levy) Amount(wageBase decimal.Decimal) decimal.Decimal {
	if !wageBase.IsPositive() {
		return decimal.Zero
	}
	v := generic.Percent(wageBase, l.Percent)
	if v.LessThan(l.Min) {
		v = l.Min
	}
	if l.Max.IsPositive() && v.GreaterThan(l.Max) {
		v = l.Max
	}
	return v
}
