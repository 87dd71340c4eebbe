package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func d(s string) decimal.Decimal { return generic.MustParseDecimal(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func localWorker(id string) generic.Worker {
	return generic.Worker{
		ID:       generic.WorkerID(id),
		Name:     "Local " + id,
		Category: generic.CategoryLocal,
		Rates: generic.RateCard{
			MonthlyBasicSalary:    d("2200"),
			OTRatePerHour:         d("8"),
			RestHolidayRatePerDay: d("120"),
			MonthlyAllowance:      d("150"),
		},
		Local: &generic.LocalProfile{BirthDate: generic.NewDate(1990, time.June, 1)},
	}
}

func foreignWorker(id string) generic.Worker {
	return generic.Worker{
		ID:       generic.WorkerID(id),
		Name:     "Foreign " + id,
		Category: generic.CategoryForeign,
		Rates: generic.RateCard{
			MonthlyBasicSalary:    d("1500"),
			OTRatePerHour:         d("10"),
			RestHolidayRatePerDay: d("80"),
			MonthlyAllowance:      d("0"),
		},
	}
}

func aggregate(basic, restHoliday, ot string) attendance.MonthAggregate {
	return attendance.MonthAggregate{
		TotalBasicHours:       d(basic),
		TotalRestHolidayHours: d(restHoliday),
		TotalOTHours:          d(ot),
		TotalBreakHours:       decimal.Zero,
	}
}

func flatContext(workingDays int) payroll.RatesContext {
	return payroll.RatesContext{
		Year:          2025,
		Month:         time.March,
		WorkingDays:   workingDays,
		Calculator:    contribution.NewCalculator(contribution.DefaultTables()),
		CommunityFund: contribution.FlatRate{Percent: d("3")},
		Levy:          contribution.DefaultLevy(),
		OTCapHours:    payroll.DefaultOTCapHours,
	}
}

func assertBalanced(t *testing.T, p generic.PayslipRecord) {
	t.Helper()
	assert.True(t, p.NetPay.Equal(p.TotalAdditions.Sub(p.TotalDeductions)),
		"net %s != additions %s - deductions %s", p.NetPay, p.TotalAdditions, p.TotalDeductions)
}

// =============================================================================
// PIPELINE
// =============================================================================

func TestComputePayslip_EndToEnd(t *testing.T) {
	// GIVEN: 2200/22 days, 20 basic days, 10 OT hours, 1 rest/holiday day, allowance 150
	w := localWorker("l-1")
	agg := aggregate("160", "8", "10")

	// WHEN: Computing with the flat 3% community fund
	p, err := payroll.ComputePayslip(w, agg, flatContext(22), payroll.Adjustments{})
	require.NoError(t, err)

	// THEN: Every line matches the worked example
	assertMoney(t, "100", p.DailyBasicRate, "daily rate")
	assertMoney(t, "2000", p.BasicPay, "basic pay")
	assertMoney(t, "80", p.OTPay, "ot pay")
	assertMoney(t, "0", p.IncentiveAllowance, "incentive")
	assertMoney(t, "120", p.RestHolidayPay, "rest/holiday pay")
	assertMoney(t, "136.36", p.ProratedAllowance, "prorated allowance")
	assertMoney(t, "2336.36", p.TotalAdditions, "total additions")
	assertMoney(t, "2256.36", p.WageBase, "wage base")
	assertMoney(t, "451.27", p.EmployeeContribution, "employee contribution")
	assertMoney(t, "67.69", p.CommunityFund, "community fund")
	assertMoney(t, "518.96", p.TotalDeductions, "total deductions")
	assertMoney(t, "1817.40", p.NetPay, "net pay")
	assert.Equal(t, "flat", p.CommunityFundMethod)
	assertBalanced(t, p)

	// AND: Employer-side figures are reported but not deducted
	assertMoney(t, "383.58", p.EmployerContribution, "employer contribution")
	assertMoney(t, "5.64", p.DevelopmentLevy, "levy")
}

func TestComputePayslip_OTCap(t *testing.T) {
	// GIVEN: 80 OT hours at 10/hour, cap 72
	p, err := payroll.ComputePayslip(foreignWorker("f-1"), aggregate("0", "0", "80"), flatContext(22), payroll.Adjustments{})
	require.NoError(t, err)

	// THEN: 72 paid as OT, 8 reclassified as incentive
	assertMoney(t, "720", p.OTPay, "ot pay")
	assertMoney(t, "80", p.IncentiveAllowance, "incentive")
	assertMoney(t, "72", p.PayableOTHours, "payable hours")
	assertMoney(t, "8", p.ExcessOTHours, "excess hours")
	assertMoney(t, "800", p.TotalAdditions, "additions")
}

func TestComputePayslip_ForeignWorker_NoContributions(t *testing.T) {
	p, err := payroll.ComputePayslip(foreignWorker("f-1"), aggregate("176", "0", "0"), flatContext(22), payroll.Adjustments{})
	require.NoError(t, err)

	assertMoney(t, "1500", p.BasicPay, "basic pay")
	assertMoney(t, "0", p.EmployeeContribution, "employee")
	assertMoney(t, "0", p.EmployerContribution, "employer")
	assertMoney(t, "0", p.CommunityFund, "fund")
	assertMoney(t, "0", p.DevelopmentLevy, "levy")
	assertMoney(t, "1500", p.NetPay, "net")
	assert.Empty(t, p.CommunityFundMethod)
}

func TestComputePayslip_Adjustments(t *testing.T) {
	// GIVEN: A bonus, one custom addition and one custom deduction
	adj := payroll.Adjustments{
		Bonus:      d("100"),
		Additions:  []generic.PayLine{{Name: "Transport", Amount: d("25.555")}},
		Deductions: []generic.PayLine{{Name: "Advance", Amount: d("50")}},
	}

	p, err := payroll.ComputePayslip(localWorker("l-1"), aggregate("160", "8", "10"), flatContext(22), adj)
	require.NoError(t, err)

	// THEN: Bonus enters the wage base, custom lines do not
	assertMoney(t, "2356.36", p.WageBase, "wage base includes bonus")
	assertMoney(t, "25.56", p.CustomAdditions[0].Amount, "custom addition rounded")
	assertMoney(t, "2461.92", p.TotalAdditions, "additions")
	assertMoney(t, "471.27", p.EmployeeContribution, "employee")
	assertMoney(t, "70.69", p.CommunityFund, "fund")
	assertMoney(t, "591.96", p.TotalDeductions, "deductions")
	assertBalanced(t, p)
}

func TestComputePayslip_SingleAndBulkFundStrategiesDiffer(t *testing.T) {
	// GIVEN: A 58-year-old worker
	w := localWorker("l-1")
	w.Local.BirthDate = generic.NewDate(1967, time.January, 1)
	agg := aggregate("160", "0", "0")

	flat, err := payroll.ComputePayslip(w, agg, flatContext(22), payroll.Adjustments{})
	require.NoError(t, err)

	rc := flatContext(22)
	rc.CommunityFund = contribution.AgeTable()
	table, err := payroll.ComputePayslip(w, agg, rc, payroll.Adjustments{})
	require.NoError(t, err)

	// THEN: Same inputs, different fund figures per strategy
	assert.False(t, flat.CommunityFund.Equal(table.CommunityFund))
	assert.Equal(t, "table:age", table.CommunityFundMethod)
	assert.True(t, d("17").Equal(table.EmployeeRate), "age band 55-60")
}

func TestComputePayslip_MissingWorkingDays(t *testing.T) {
	_, err := payroll.ComputePayslip(localWorker("l-1"), aggregate("160", "0", "0"), flatContext(0), payroll.Adjustments{})
	assert.Equal(t, generic.KindConfigurationMissing, generic.KindOf(err))
}

// =============================================================================
// YEAR TO DATE
// =============================================================================

func TestApplyYTD_ExcludesCurrentAndLaterMonths(t *testing.T) {
	p := generic.PayslipRecord{
		WorkerID: "w-1", Year: 2025, Month: time.March,
		NetPay: d("100"), EmployeeContribution: d("10"), EmployerContribution: d("20"),
	}
	stored := []generic.PayslipRecord{
		{WorkerID: "w-1", Year: 2025, Month: time.January, NetPay: d("50"), EmployeeContribution: d("5"), EmployerContribution: d("6")},
		{WorkerID: "w-1", Year: 2025, Month: time.February, NetPay: d("60"), EmployeeContribution: d("5"), EmployerContribution: d("6")},
		{WorkerID: "w-1", Year: 2025, Month: time.March, NetPay: d("999"), EmployeeContribution: d("9"), EmployerContribution: d("9")},
		{WorkerID: "w-1", Year: 2025, Month: time.April, NetPay: d("999"), EmployeeContribution: d("9"), EmployerContribution: d("9")},
		{WorkerID: "w-1", Year: 2024, Month: time.December, NetPay: d("999"), EmployeeContribution: d("9"), EmployerContribution: d("9")},
	}

	payroll.ApplyYTD(&p, stored)

	assertMoney(t, "210", p.YTDNetPay, "ytd net")
	assertMoney(t, "20", p.YTDEmployeeContribution, "ytd employee")
	assertMoney(t, "32", p.YTDEmployerContribution, "ytd employer")
}
