/*
Package payroll is the payroll computation engine.

PURPOSE:
  Turns a worker's month of canonical hours and rate card into a payslip,
  then accumulates the year to date. ComputePayslip is pure; Service wraps
  it with record-store reads, working-day configuration and idempotent
  persistence.

PIPELINE (no rounding until the last step):
  1. basicDays = basicHours / 8, restHolidayDays = restHolidayHours / 8
  2. dailyRate = monthlySalary / workingDays
  3. basicPay = dailyRate x basicDays
  4. otPay = min(ot, cap) x otRate; incentive = max(ot - cap, 0) x otRate
  5. restHolidayPay = restHolidayDays x restHolidayRate
  6. allowance = monthlyAllowance x basicDays / workingDays
  7. additions = 3 + 4 + 5 + 6 + bonus + custom additions
  8. Local only: wageBase = basicPay + allowance + incentive + restHoliday + bonus
     employee/employer contribution, community fund, development levy
  9. deductions = employee contribution + community fund + custom deductions
 10. net = additions - deductions

  Each currency line is rounded to cents at output and totals are the sum
  of the rounded lines, so net = additions - deductions holds exactly on
  the stored record. Employer contribution and the levy are reported only.

SEE ALSO:
  - service.go: ComputeMonthlyPayslip, ComputeBulkPayslips, ComputeSalaryReport
  - contribution/: Statutory tables
  - attendance/aggregate.go: MonthAggregate
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/generic"
)

// Hour and day figures on the payslip keep four decimals.
const hourScale = 4

// ComputePayslip runs the pipeline for one worker-month.
func ComputePayslip(w generic.Worker, agg attendance.MonthAggregate, rc RatesContext, adj Adjustments) (generic.PayslipRecord, error) {
	if rc.WorkingDays <= 0 {
		return generic.PayslipRecord{}, generic.ConfigurationMissing(rc.Year, rc.Month)
	}
	if w.IsLocal() && (w.Local == nil || rc.Calculator == nil || rc.CommunityFund == nil) {
		return generic.PayslipRecord{}, generic.InvalidInput("local worker %s: contribution profile or rates missing", w.ID)
	}
	otCap := rc.OTCapHours
	if !otCap.IsPositive() {
		otCap = DefaultOTCapHours
	}

	p := generic.PayslipRecord{
		WorkerID:    w.ID,
		WorkerName:  w.Name,
		Category:    w.Category,
		Year:        rc.Year,
		Month:       rc.Month,
		WorkingDays: rc.WorkingDays,
		Warnings:    append(append([]string(nil), rc.Warnings...), adj.Warnings...),
	}

	// 1-2. Hours and days.
	workingDays := decimal.NewFromInt(int64(rc.WorkingDays))
	basicDays := agg.TotalBasicHours.Div(generic.HoursPerDay)
	restHolidayDays := agg.TotalRestHolidayHours.Div(generic.HoursPerDay)
	payableOT := decimal.Min(agg.TotalOTHours, otCap)
	excessOT := generic.ClampNonNegative(agg.TotalOTHours.Sub(otCap))

	// 3-7. Additions, unrounded.
	rates := w.Rates
	dailyRate := rates.MonthlyBasicSalary.Div(workingDays)
	basicPay := dailyRate.Mul(basicDays)
	otPay := payableOT.Mul(rates.OTRatePerHour)
	incentive := excessOT.Mul(rates.OTRatePerHour)
	restHolidayPay := restHolidayDays.Mul(rates.RestHolidayRatePerDay)
	allowance := rates.MonthlyAllowance.Mul(basicDays).Div(workingDays)
	bonus := adj.Bonus

	p.BasicHours = agg.TotalBasicHours.Round(hourScale)
	p.RestHolidayHours = agg.TotalRestHolidayHours.Round(hourScale)
	p.OTHours = agg.TotalOTHours.Round(hourScale)
	p.PayableOTHours = payableOT.Round(hourScale)
	p.ExcessOTHours = excessOT.Round(hourScale)
	p.BasicDays = basicDays.Round(hourScale)
	p.RestHolidayDays = restHolidayDays.Round(hourScale)
	p.DailyBasicRate = generic.Round2(dailyRate)

	p.BasicPay = generic.Round2(basicPay)
	p.OTPay = generic.Round2(otPay)
	p.IncentiveAllowance = generic.Round2(incentive)
	p.RestHolidayPay = generic.Round2(restHolidayPay)
	p.ProratedAllowance = generic.Round2(allowance)
	p.Bonus = generic.Round2(bonus)
	p.CustomAdditions = roundLines(adj.Additions)
	p.TotalAdditions = generic.Sum(
		p.BasicPay, p.OTPay, p.IncentiveAllowance, p.RestHolidayPay,
		p.ProratedAllowance, p.Bonus, sumLines(p.CustomAdditions),
	)

	// 8. Statutory contributions.
	p.WageBase = decimal.Zero
	p.EmployeeRate = decimal.Zero
	p.EmployerRate = decimal.Zero
	p.EmployeeContribution = decimal.Zero
	p.EmployerContribution = decimal.Zero
	p.CommunityFund = decimal.Zero
	p.DevelopmentLevy = decimal.Zero
	if w.IsLocal() {
		wageBase := generic.Sum(basicPay, allowance, incentive, restHolidayPay, bonus)
		age := generic.AgeOn(w.Local.BirthDate, generic.EndOfMonth(rc.Year, rc.Month))
		res := rc.Calculator.Compute(contribution.Input{
			WageBase:         wageBase,
			Age:              age,
			EmployeeOverride: w.Local.EmployeeContributionRate,
			EmployerOverride: w.Local.EmployerContributionRate,
		})
		p.WageBase = generic.Round2(wageBase)
		p.EmployeeRate = res.EmployeeRate
		p.EmployerRate = res.EmployerRate
		p.EmployeeContribution = generic.Round2(res.Employee)
		p.EmployerContribution = generic.Round2(res.Employer)
		p.CommunityFund = generic.Round2(rc.CommunityFund.Amount(wageBase, age))
		p.CommunityFundMethod = rc.CommunityFund.Name()
		p.DevelopmentLevy = generic.Round2(rc.Levy.Amount(wageBase))
	}

	// 9-10. Deductions and net.
	p.CustomDeductions = roundLines(adj.Deductions)
	p.TotalDeductions = generic.Sum(p.EmployeeContribution, p.CommunityFund, sumLines(p.CustomDeductions))
	p.NetPay = p.TotalAdditions.Sub(p.TotalDeductions)
	if p.NetPay.IsNegative() {
		p.Warnings = append(p.Warnings, fmt.Sprintf("net pay is negative (%s)", p.NetPay.StringFixed(2)))
	}
	return p, nil
}

// ApplyYTD sets the year-to-date fields from the worker's stored payslips.
// Only earlier months of the same year count, so recomputing a month never
// double-counts it.
func ApplyYTD(p *generic.PayslipRecord, stored []generic.PayslipRecord) {
	net, employee, employer := p.NetPay, p.EmployeeContribution, p.EmployerContribution
	for _, prior := range stored {
		if prior.WorkerID != p.WorkerID || prior.Year != p.Year || prior.Month >= p.Month {
			continue
		}
		net = net.Add(prior.NetPay)
		employee = employee.Add(prior.EmployeeContribution)
		employer = employer.Add(prior.EmployerContribution)
	}
	p.YTDNetPay = net
	p.YTDEmployeeContribution = employee
	p.YTDEmployerContribution = employer
}

func roundLines(lines []generic.PayLine) []generic.PayLine {
	if len(lines) == 0 {
		return nil
	}
	out := make([]generic.PayLine, len(lines))
	for i, l := range lines {
		out[i] = generic.PayLine{Name: l.Name, Amount: generic.Round2(l.Amount)}
	}
	return out
}

func sumLines(lines []generic.PayLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Amount)
	}
	return total
}
