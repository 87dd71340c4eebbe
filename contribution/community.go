package contribution

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// CommunityFund computes the community fund deduction of a Local worker.
//
// Two strategies exist because payroll has historically computed this
// figure two ways: bulk runs take a flat percentage of the wage base, the
// single-worker path reads an age-banded table. Which one a call site uses
// is configuration (payroll.bulk_community_fund, payroll.single_community_fund).
type CommunityFund interface {
	Name() string
	Amount(wageBase decimal.Decimal, age int) decimal.Decimal
}

// FlatRate takes Percent of the wage base.
type FlatRate struct {
	Percent decimal.Decimal `json:"percent"`
}

func (f FlatRate) Name() string { return "flat" }

func (f FlatRate) Amount(wageBase decimal.Decimal, _ int) decimal.Decimal {
	if !wageBase.IsPositive() {
		return decimal.Zero
	}
	return generic.Percent(wageBase, f.Percent)
}

// =============================================================================
// BANDED TABLE
// =============================================================================

// Basis selects what a Table's bands are keyed on.
type Basis string

const (
	BasisAge  Basis = "age"
	BasisWage Basis = "wage"
)

// FundBand covers keys up to and including UpTo (zero is open-ended).
// A non-zero Percent is applied to the wage base, otherwise Amount is a
// fixed contribution.
type FundBand struct {
	UpTo    decimal.Decimal `json:"up_to"`
	Amount  decimal.Decimal `json:"amount"`
	Percent decimal.Decimal `json:"percent"`
}

type Table struct {
	Basis Basis      `json:"basis"`
	Bands []FundBand `json:"bands"`
}

func (t Table) Name() string { return "table:" + string(t.Basis) }

func (t Table) Amount(wageBase decimal.Decimal, age int) decimal.Decimal {
	if !wageBase.IsPositive() || len(t.Bands) == 0 {
		return decimal.Zero
	}
	key := wageBase
	if t.Basis == BasisAge {
		key = decimal.NewFromInt(int64(age))
	}
	band := t.Bands[len(t.Bands)-1]
	for _, b := range t.Bands {
		if b.UpTo.IsZero() || key.LessThanOrEqual(b.UpTo) {
			band = b
			break
		}
	}
	if !band.Percent.IsZero() {
		return generic.Percent(wageBase, band.Percent)
	}
	return band.Amount
}

// Validate requires ascending bounded bands followed by one open band.
func (t Table) Validate() error {
	if t.Basis != BasisAge && t.Basis != BasisWage {
		return fmt.Errorf("community fund table: unknown basis %q", t.Basis)
	}
	if len(t.Bands) == 0 {
		return fmt.Errorf("community fund table: no bands")
	}
	prev := decimal.Zero
	for i, b := range t.Bands {
		last := i == len(t.Bands)-1
		if b.UpTo.IsZero() != last {
			return fmt.Errorf("community fund table: only the last band may be open-ended (band %d)", i)
		}
		if !last && !b.UpTo.GreaterThan(prev) {
			return fmt.Errorf("community fund table: band %d up_to %s is not ascending", i, b.UpTo)
		}
		if b.Amount.IsNegative() || b.Percent.IsNegative() {
			return fmt.Errorf("community fund table: band %d is negative", i)
		}
		prev = b.UpTo
	}
	return nil
}

// AgeTable is the age-banded percentage table used by the single-worker path.
func AgeTable() Table {
	return Table{
		Basis: BasisAge,
		Bands: []FundBand{
			{UpTo: pct("55"), Percent: pct("3")},
			{UpTo: pct("60"), Percent: pct("2.5")},
			{UpTo: pct("65"), Percent: pct("2")},
			{Percent: pct("1.5")},
		},
	}
}

// WageTable is the wage-banded fixed-amount schedule.
func WageTable() Table {
	return Table{
		Basis: BasisWage,
		Bands: []FundBand{
			{UpTo: pct("1000"), Amount: pct("1")},
			{UpTo: pct("1500"), Amount: pct("3")},
			{UpTo: pct("2500"), Amount: pct("5")},
			{UpTo: pct("4500"), Amount: pct("7")},
			{UpTo: pct("7500"), Amount: pct("9")},
			{UpTo: pct("10000"), Amount: pct("12")},
			{UpTo: pct("15000"), Amount: pct("18")},
			{Amount: pct("30")},
		},
	}
}

// ParseStrategy resolves a configured strategy name. A non-nil table
// replaces the built-in age table for "table".
func ParseStrategy(name string, flatPercent decimal.Decimal, table *Table) (CommunityFund, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flat", "":
		return FlatRate{Percent: flatPercent}, nil
	case "table", "age":
		if table != nil {
			return *table, nil
		}
		return AgeTable(), nil
	case "wage":
		return WageTable(), nil
	}
	return nil, fmt.Errorf("unknown community fund strategy %q (want flat, table or wage)", name)
}
