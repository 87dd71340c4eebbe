package payroll_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/generic"
	memstore "github.com/warp/payroll-engine/generic/store"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var sundayOnly = []time.Weekday{time.Sunday}

func newTestPayroll(t *testing.T, log zerolog.Logger) (*payroll.Service, *memstore.TxMemory) {
	t.Helper()
	store := memstore.NewTxMemory()
	agg := attendance.NewAggregator(store, sundayOnly, decimal.NewFromInt(8))
	fixed := time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC)
	return payroll.NewService(store, agg, log, payroll.WithClock(func() time.Time { return fixed })), store
}

func saveShift(t *testing.T, store generic.Store, worker string, day generic.Date, fromHour, toHour int) {
	t.Helper()
	entry := day.At(fromHour, 0)
	exit := day.At(toHour, 0)
	require.NoError(t, store.SaveShift(context.Background(), generic.ShiftRecord{
		ID:       generic.ShiftID(worker + "-" + day.String()),
		WorkerID: generic.WorkerID(worker),
		WorkDate: day,
		Entry:    entry,
		Exit:     &exit,
		HasLeft:  true,
	}))
}

// seedMarch gives worker 20 working days of 8 hours (five of them with 2 OT
// hours) plus one Sunday shift: 160 basic, 10 OT, 8 rest/holiday hours.
func seedMarch(t *testing.T, store generic.Store, worker string) {
	t.Helper()
	worked := 0
	for _, day := range generic.MonthPeriod(2025, time.March).Days() {
		if day.Weekday() == time.Sunday || worked == 20 {
			continue
		}
		end := 16
		if worked < 5 {
			end = 18
		}
		saveShift(t, store, worker, day, 8, end)
		worked++
	}
	saveShift(t, store, worker, generic.NewDate(2025, time.March, 2), 8, 16)
}

func setWorkingDays(t *testing.T, store generic.Store, year int, month time.Month, days int) {
	t.Helper()
	require.NoError(t, store.SetWorkingDays(context.Background(), generic.WorkingDaysConfig{Year: year, Month: month, Days: days}))
}

// =============================================================================
// SINGLE WORKER PATH
// =============================================================================

func TestComputeMonthlyPayslip_FromShifts(t *testing.T) {
	// GIVEN: The worked example recorded as real shifts
	svc, store := newTestPayroll(t, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-1")))
	setWorkingDays(t, store, 2025, time.March, 22)
	seedMarch(t, store, "l-1")

	// WHEN: Computing March
	p, err := svc.ComputeMonthlyPayslip(ctx, "l-1", time.March, 2025, payroll.Adjustments{})
	require.NoError(t, err)

	// THEN: The aggregate reconciles with the payslip
	assertMoney(t, "160", p.BasicHours, "basic hours")
	assertMoney(t, "10", p.OTHours, "ot hours")
	assertMoney(t, "8", p.RestHolidayHours, "rest/holiday hours")
	assertMoney(t, "1817.40", p.NetPay, "net pay")
	assert.Equal(t, "table:age", p.CommunityFundMethod, "single path uses the age table")
	assert.Empty(t, p.Warnings)

	// AND: It is stored, and recomputing overwrites under the same ID
	again, err := svc.ComputeMonthlyPayslip(ctx, "l-1", time.March, 2025, payroll.Adjustments{})
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	stored, err := svc.ListPayslips(ctx, "l-1", 2025)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestComputeMonthlyPayslip_FallsBackTo22AndLogs(t *testing.T) {
	// GIVEN: No working-day configuration for March
	var logs bytes.Buffer
	svc, store := newTestPayroll(t, zerolog.New(&logs))
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-1")))
	seedMarch(t, store, "l-1")

	// WHEN: Computing on the single-worker path
	p, err := svc.ComputeMonthlyPayslip(ctx, "l-1", time.March, 2025, payroll.Adjustments{})
	require.NoError(t, err)

	// THEN: 22 is used and the fallback is visible in both the payslip and the log
	assert.Equal(t, 22, p.WorkingDays)
	require.Len(t, p.Warnings, 1)
	assert.Contains(t, p.Warnings[0], "using default 22")
	assert.Contains(t, logs.String(), "working days not configured")
}

func TestComputeMonthlyPayslip_UnknownWorker(t *testing.T) {
	svc, _ := newTestPayroll(t, zerolog.Nop())

	_, err := svc.ComputeMonthlyPayslip(context.Background(), "ghost", time.March, 2025, payroll.Adjustments{})
	assert.Equal(t, generic.KindWorkerNotFound, generic.KindOf(err))
}

func TestComputeMonthlyPayslip_YTD(t *testing.T) {
	svc, store := newTestPayroll(t, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, foreignWorker("f-1")))
	setWorkingDays(t, store, 2025, time.February, 20)
	setWorkingDays(t, store, 2025, time.March, 22)
	saveShift(t, store, "f-1", generic.NewDate(2025, time.February, 3), 8, 16)
	saveShift(t, store, "f-1", generic.NewDate(2025, time.March, 3), 8, 16)

	feb, err := svc.ComputeMonthlyPayslip(ctx, "f-1", time.February, 2025, payroll.Adjustments{})
	require.NoError(t, err)
	mar, err := svc.ComputeMonthlyPayslip(ctx, "f-1", time.March, 2025, payroll.Adjustments{})
	require.NoError(t, err)

	// March YTD is Feb + March; recomputing March does not double count it
	assert.True(t, feb.NetPay.Add(mar.NetPay).Equal(mar.YTDNetPay))
	again, err := svc.ComputeMonthlyPayslip(ctx, "f-1", time.March, 2025, payroll.Adjustments{})
	require.NoError(t, err)
	assert.True(t, mar.YTDNetPay.Equal(again.YTDNetPay))
}

// =============================================================================
// BULK PATH
// =============================================================================

func TestComputeBulkPayslips_MissingConfigIsFatal(t *testing.T) {
	svc, store := newTestPayroll(t, zerolog.Nop())
	require.NoError(t, store.SaveWorker(context.Background(), localWorker("l-1")))

	_, err := svc.ComputeBulkPayslips(context.Background(), time.March, 2025)

	assert.Equal(t, generic.KindConfigurationMissing, generic.KindOf(err))
	assert.True(t, errors.Is(err, generic.ErrConfigurationMissing))
}

func TestComputeBulkPayslips_Idempotent(t *testing.T) {
	// GIVEN: One local and one foreign worker with March attendance
	svc, store := newTestPayroll(t, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-1")))
	require.NoError(t, store.SaveWorker(ctx, foreignWorker("f-1")))
	setWorkingDays(t, store, 2025, time.March, 22)
	seedMarch(t, store, "l-1")
	seedMarch(t, store, "f-1")

	// WHEN: Running the batch twice
	first, err := svc.ComputeBulkPayslips(ctx, time.March, 2025)
	require.NoError(t, err)
	second, err := svc.ComputeBulkPayslips(ctx, time.March, 2025)
	require.NoError(t, err)

	// THEN: Same rows, no duplicates
	assert.Equal(t, 2, first.Succeeded)
	assert.Equal(t, 0, first.Failed)
	require.Len(t, second.Results, 2)
	for i := range first.Results {
		a, b := first.Results[i].Payslip, second.Results[i].Payslip
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, a.ID, b.ID)
		assert.True(t, a.NetPay.Equal(b.NetPay))
		assert.True(t, a.YTDNetPay.Equal(b.YTDNetPay))
	}
	for _, id := range []generic.WorkerID{"l-1", "f-1"} {
		stored, err := store.ListPayslips(ctx, id, 2025)
		require.NoError(t, err)
		assert.Len(t, stored, 1, "worker %s", id)
	}

	// AND: The bulk path uses the flat fund
	local, err := svc.GetPayslip(ctx, "l-1", 2025, time.March)
	require.NoError(t, err)
	assert.Equal(t, "flat", local.CommunityFundMethod)
	assertMoney(t, "1817.40", local.NetPay, "net pay")
}

// flakyShifts fails shift reads for one worker.
type flakyShifts struct {
	generic.Store
	failFor generic.WorkerID
}

func (f flakyShifts) ListShifts(ctx context.Context, workerID generic.WorkerID, period generic.Period) ([]generic.ShiftRecord, error) {
	if workerID == f.failFor {
		return nil, errors.New("shift source unavailable")
	}
	return f.Store.ListShifts(ctx, workerID, period)
}

func TestComputeBulkPayslips_OneFailureDoesNotAbort(t *testing.T) {
	store := memstore.NewTxMemory()
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-1")))
	require.NoError(t, store.SaveWorker(ctx, foreignWorker("f-1")))
	setWorkingDays(t, store, 2025, time.March, 22)

	agg := attendance.NewAggregator(flakyShifts{Store: store, failFor: "f-1"}, sundayOnly, decimal.NewFromInt(8))
	svc := payroll.NewService(store, agg, zerolog.Nop(), payroll.WithBulkConcurrency(2))

	res, err := svc.ComputeBulkPayslips(ctx, time.March, 2025)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	for _, r := range res.Results {
		if r.WorkerID == "f-1" {
			assert.False(t, r.OK())
			assert.Contains(t, r.Error, "shift source unavailable")
			assert.Equal(t, generic.KindInternal, r.Kind)
		} else {
			assert.True(t, r.OK())
		}
	}
}

// =============================================================================
// SALARY REPORT
// =============================================================================

func TestComputeSalaryReport_FilterAndTotals(t *testing.T) {
	svc, store := newTestPayroll(t, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-1")))
	require.NoError(t, store.SaveWorker(ctx, localWorker("l-2")))
	require.NoError(t, store.SaveWorker(ctx, foreignWorker("f-1")))
	setWorkingDays(t, store, 2025, time.March, 22)
	seedMarch(t, store, "l-1")
	seedMarch(t, store, "l-2")
	seedMarch(t, store, "f-1")

	report, err := svc.ComputeSalaryReport(ctx, time.March, 2025, generic.FilterLocal)
	require.NoError(t, err)

	require.Len(t, report.Rows, 2)
	assert.Empty(t, report.Failures)
	assertMoney(t, "3634.80", report.Totals.NetPay, "net total")
	assertMoney(t, "902.54", report.Totals.EmployeeContribution, "employee total")

	// The report does not persist anything
	_, err = store.GetPayslip(ctx, "l-1", 2025, time.March)
	assert.Equal(t, generic.KindNotFound, generic.KindOf(err))
}

func TestComputeSalaryReport_CarriesYTDFromStoredPayslips(t *testing.T) {
	// GIVEN: A stored February payslip
	svc, store := newTestPayroll(t, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, store.SaveWorker(ctx, foreignWorker("f-1")))
	setWorkingDays(t, store, 2025, time.February, 20)
	setWorkingDays(t, store, 2025, time.March, 22)
	saveShift(t, store, "f-1", generic.NewDate(2025, time.February, 3), 8, 16)
	seedMarch(t, store, "f-1")
	feb, err := svc.ComputeMonthlyPayslip(ctx, "f-1", time.February, 2025, payroll.Adjustments{})
	require.NoError(t, err)

	// WHEN: Reporting March
	report, err := svc.ComputeSalaryReport(ctx, time.March, 2025, generic.FilterForeign)
	require.NoError(t, err)

	// THEN: The row's YTD adds February to March
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]
	assert.True(t, row.NetPay.IsPositive())
	assertMoney(t, feb.NetPay.Add(row.NetPay).StringFixed(2), row.YTDNetPay, "ytd net")

	// AND: March is still not stored
	_, err = store.GetPayslip(ctx, "f-1", 2025, time.March)
	assert.Equal(t, generic.KindNotFound, generic.KindOf(err))
}
