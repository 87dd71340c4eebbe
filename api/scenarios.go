/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates workers, calendar configuration,
	shifts and leave through the same services the API uses, so what a
	scenario shows is what the engine computes.

AVAILABLE SCENARIOS:

	march-payroll:     One local and one foreign worker with a month of shifts,
	                   overtime, a worked public holiday and approved annual leave
	leave-shortfall:   Annual leave longer than the balance (paid + unpaid split)
	contribution-ages: Local workers across the contribution age bands

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Configure holidays and working days
 3. Create workers
 4. Clock shifts in and out through the recorder
 5. Submit and approve leave through the leave service

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "march-payroll"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase handler
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// ScenarioYear and ScenarioMonth are the pay month every scenario fills.
const (
	ScenarioYear  = 2025
	ScenarioMonth = time.March
)

var scenarios = []ScenarioDTO{
	{
		ID:          "march-payroll",
		Name:        "March Payroll",
		Description: "Local and foreign worker with overtime, a worked holiday and approved annual leave",
	},
	{
		ID:          "leave-shortfall",
		Name:        "Leave Shortfall",
		Description: "Five days of annual leave against a balance of three",
	},
	{
		ID:          "contribution-ages",
		Name:        "Contribution Age Bands",
		Description: "Local workers aged 30, 58, 62, 67 and 72 on the same salary",
	},
}

var scenarioLoaders = map[string]func(h *Handler, ctx context.Context) error{
	"march-payroll":     (*Handler).loadMarchPayrollScenario,
	"leave-shortfall":   (*Handler).loadLeaveShortfallScenario,
	"contribution-ages": (*Handler).loadContributionAgesScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, generic.InvalidInput("invalid request body: %v", err))
		return
	}
	load, ok := scenarioLoaders[req.ScenarioID]
	if !ok {
		writeError(w, generic.InvalidInput("unknown scenario %q", req.ScenarioID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := r.Context()
	h.currentScenario = ""
	if err := h.Store.Reset(ctx); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := load(h, ctx); err != nil {
		h.fail(w, r, fmt.Errorf("load scenario %s: %w", req.ScenarioID, err))
		return
	}
	h.currentScenario = req.ScenarioID

	hlog.FromRequest(r).Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadMarchPayrollScenario(ctx context.Context) error {
	if err := h.scenarioCalendar(ctx); err != nil {
		return err
	}

	local := scenarioWorker("L-001", "Tan Wei Ming", generic.CategoryLocal, 3200, 14)
	local.Local = &generic.LocalProfile{BirthDate: generic.NewDate(1990, time.May, 12)}
	local.Rates.MonthlyAllowance = decimal.NewFromInt(300)

	foreign := scenarioWorker("F-001", "Rahul Kumar", generic.CategoryForeign, 1800, 10)
	foreign.Rates.OTRatePerHour = decimal.NewFromInt(12)
	foreign.Rates.RestHolidayRatePerDay = decimal.NewFromInt(90)

	for _, w := range []generic.Worker{local, foreign} {
		if err := h.Store.SaveWorker(ctx, w); err != nil {
			return err
		}
	}

	// Weekdays of the first two weeks: 08:00-19:00 with an hour's lunch,
	// i.e. 8 basic and 2 overtime hours a day.
	for day := 3; day <= 14; day++ {
		date := generic.NewDate(ScenarioYear, ScenarioMonth, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		for _, id := range []generic.WorkerID{local.ID, foreign.ID} {
			if err := h.scenarioShift(ctx, id, date, 8, 19, true); err != nil {
				return err
			}
		}
	}

	// The foreign worker works the public holiday and one Sunday.
	for _, date := range []generic.Date{
		generic.NewDate(ScenarioYear, ScenarioMonth, 31),
		generic.NewDate(ScenarioYear, ScenarioMonth, 16),
	} {
		if err := h.scenarioShift(ctx, foreign.ID, date, 9, 18, true); err != nil {
			return err
		}
	}

	// The local worker takes three days of annual leave.
	return h.scenarioLeave(ctx, local.ID, leave.Annual,
		generic.NewDate(ScenarioYear, ScenarioMonth, 17),
		generic.NewDate(ScenarioYear, ScenarioMonth, 19))
}

func (h *Handler) loadLeaveShortfallScenario(ctx context.Context) error {
	if err := h.scenarioCalendar(ctx); err != nil {
		return err
	}
	w := scenarioWorker("F-100", "Nguyen Van An", generic.CategoryForeign, 1600, 3)
	if err := h.Store.SaveWorker(ctx, w); err != nil {
		return err
	}
	// Monday to Friday: three days are paid from the balance, two are unpaid.
	return h.scenarioLeave(ctx, w.ID, leave.Annual,
		generic.NewDate(ScenarioYear, ScenarioMonth, 10),
		generic.NewDate(ScenarioYear, ScenarioMonth, 14))
}

func (h *Handler) loadContributionAgesScenario(ctx context.Context) error {
	if err := h.scenarioCalendar(ctx); err != nil {
		return err
	}
	for i, age := range []int{30, 58, 62, 67, 72} {
		w := scenarioWorker(generic.WorkerID(fmt.Sprintf("L-%03d", 200+i)),
			fmt.Sprintf("Local Worker Aged %d", age), generic.CategoryLocal, 4000, 14)
		// Born on 1 January so the age is the same for the whole month.
		w.Local = &generic.LocalProfile{BirthDate: generic.NewDate(ScenarioYear-age, time.January, 1)}
		if err := h.Store.SaveWorker(ctx, w); err != nil {
			return err
		}
		for day := 3; day <= 7; day++ {
			if err := h.scenarioShift(ctx, w.ID, generic.NewDate(ScenarioYear, ScenarioMonth, day), 9, 18, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// scenarioCalendar configures March 2025: 22 working days and one holiday.
func (h *Handler) scenarioCalendar(ctx context.Context) error {
	if err := h.Store.SaveHoliday(ctx, generic.Holiday{
		ID:   "holiday-2025-03-31",
		Date: generic.NewDate(ScenarioYear, ScenarioMonth, 31),
		Name: "Hari Raya Puasa",
	}); err != nil {
		return err
	}
	return h.Store.SetWorkingDays(ctx, generic.WorkingDaysConfig{Year: ScenarioYear, Month: ScenarioMonth, Days: 22})
}

func scenarioWorker(id generic.WorkerID, name string, category generic.Category, salary, annual int64) generic.Worker {
	return generic.Worker{
		ID:       id,
		Name:     name,
		Category: category,
		SiteID:   "site-1",
		Rates: generic.RateCard{
			MonthlyBasicSalary: decimal.NewFromInt(salary),
		},
		Leave: generic.LeaveEntitlement{
			AnnualLimit:    decimal.NewFromInt(14),
			MedicalLimit:   decimal.NewFromInt(14),
			AnnualBalance:  decimal.NewFromInt(annual),
			MedicalBalance: decimal.NewFromInt(14),
		},
		CreatedAt: time.Date(ScenarioYear, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

// scenarioShift clocks a worker in at entryHour and out at exitHour, with an
// optional 12:00-13:00 break.
func (h *Handler) scenarioShift(ctx context.Context, id generic.WorkerID, date generic.Date, entryHour, exitHour int, lunch bool) error {
	shift, err := h.Recorder.ClockIn(ctx, id, "", date.At(entryHour, 0))
	if err != nil {
		return err
	}
	var breaks []generic.Break
	if lunch {
		breaks = []generic.Break{{Start: date.At(12, 0), End: date.At(13, 0)}}
	}
	_, err = h.Recorder.ClockOut(ctx, shift.ID, date.At(exitHour, 0), breaks)
	return err
}

func (h *Handler) scenarioLeave(ctx context.Context, id generic.WorkerID, lt generic.LeaveType, from, to generic.Date) error {
	req, err := h.Leave.Submit(ctx, leave.SubmitInput{
		WorkerID:  id,
		LeaveType: lt,
		Duration:  generic.DurationFullDay,
		From:      from,
		To:        to,
	})
	if err != nil {
		return err
	}
	_, err = h.Leave.Approve(ctx, req.ID, "demo scenario")
	return err
}
