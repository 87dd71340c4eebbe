package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/payroll"
)

func loadScenario(t *testing.T, s *testServer, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	s := newTestServer(t)

	list := decodeBody[[]ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios", nil))
	require.Len(t, list, len(scenarioLoaders))
	for _, sc := range list {
		assert.Contains(t, scenarioLoaders, sc.ID)
	}
}

func TestLoadScenario_MarchPayroll(t *testing.T) {
	s := newTestServer(t)

	// GIVEN: The march payroll scenario
	loadScenario(t, s, "march-payroll")

	current := decodeBody[ScenarioDTO](t, s.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "march-payroll", current.ID)

	workers := decodeBody[[]generic.Worker](t, s.do(t, http.MethodGet, "/api/workers", nil))
	require.Len(t, workers, 2)
	assert.Equal(t, generic.WorkerID("F-001"), workers[0].ID)
	assert.Equal(t, generic.WorkerID("L-001"), workers[1].ID)

	// WHEN: Running the month
	rec := s.do(t, http.MethodPost, "/api/payroll/bulk", map[string]any{"year": 2025, "month": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[payroll.BulkResult](t, rec)

	// THEN: Both workers are paid for the configured 22 days
	assert.Equal(t, 22, res.WorkingDays)
	assert.Equal(t, 2, res.Succeeded)
	require.Len(t, res.Results, 2)

	foreign := res.Results[0].Payslip
	require.NotNil(t, foreign)
	// Ten weekdays plus the Sunday and the public holiday worked 09:00-18:00
	assert.True(t, decimal.NewFromInt(80).Equal(foreign.BasicHours), foreign.BasicHours.String())
	assert.True(t, decimal.NewFromInt(16).Equal(foreign.RestHolidayHours), foreign.RestHolidayHours.String())
	assert.True(t, decimal.NewFromInt(20).Equal(foreign.OTHours), foreign.OTHours.String())
	assert.True(t, foreign.EmployeeContribution.IsZero())

	local := res.Results[1].Payslip
	require.NotNil(t, local)
	// Ten weekdays worked, three days of paid annual leave and the
	// unworked public holiday
	assert.True(t, decimal.NewFromInt(112).Equal(local.BasicHours), local.BasicHours.String())
	assert.True(t, local.EmployeeContribution.IsPositive())
	assert.Equal(t, "flat", local.CommunityFundMethod)

	w, err := s.store.GetWorker(context.Background(), "L-001")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(11).Equal(w.Leave.AnnualBalance))
}

func TestLoadScenario_LeaveShortfall(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "leave-shortfall")

	reqs := decodeBody[[]generic.LeaveRequest](t, s.do(t, http.MethodGet, "/api/workers/F-100/leave-requests", nil))
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].Allocation)
	assert.Equal(t, generic.StatusApproved, reqs[0].Status)
	assert.True(t, decimal.NewFromInt(3).Equal(reqs[0].Allocation.PaidDays))
	assert.True(t, decimal.NewFromInt(2).Equal(reqs[0].Allocation.UnpaidDays))
}

func TestLoadScenario_ContributionAges(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "contribution-ages")

	report := decodeBody[payroll.SalaryReport](t, s.do(t, http.MethodGet, "/api/reports/salary?year=2025&month=3&category=local", nil))
	require.Len(t, report.Rows, 5)
	assert.Empty(t, report.Failures)

	byWorker := map[generic.WorkerID]generic.PayslipRecord{}
	for _, row := range report.Rows {
		byWorker[row.WorkerID] = row
	}
	assert.True(t, decimal.NewFromInt(20).Equal(byWorker["L-200"].EmployeeRate))
	assert.True(t, decimal.NewFromInt(5).Equal(byWorker["L-204"].EmployeeRate))

	// The report does not store payslips
	rec := s.do(t, http.MethodGet, "/api/workers/L-200/payslips/2025/3", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoadScenario_ReplacesPrevious(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "march-payroll")
	loadScenario(t, s, "leave-shortfall")

	workers := decodeBody[[]generic.Worker](t, s.do(t, http.MethodGet, "/api/workers", nil))
	require.Len(t, workers, 1)
	assert.Equal(t, generic.WorkerID("F-100"), workers[0].ID)
}

func TestLoadScenario_Unknown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "nope"})
	assertKind(t, rec, http.StatusBadRequest, generic.KindInvalidInput)
}

func TestResetDatabase(t *testing.T) {
	s := newTestServer(t)
	loadScenario(t, s, "march-payroll")

	rec := s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	workers := decodeBody[[]generic.Worker](t, s.do(t, http.MethodGet, "/api/workers", nil))
	assert.Empty(t, workers)
	assert.Equal(t, "null\n", s.do(t, http.MethodGet, "/api/scenarios/current", nil).Body.String())
}
