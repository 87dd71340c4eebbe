/*
handlers.go - HTTP API handlers for the payroll and leave engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response and JSON
  serialization, and delegates every rule to the domain packages.

ENDPOINTS:
  Workers:
    GET    /api/workers                          List (?category=local|foreign)
    POST   /api/workers                          Create
    GET    /api/workers/{id}                     Get
    PUT    /api/workers/{id}                     Replace
    DELETE /api/workers/{id}                     Delete (payslips are kept)
    GET    /api/workers/{id}/balance-transactions Balance journal
    POST   /api/workers/{id}/adjustments         Manual balance adjustment
    GET    /api/workers/{id}/leave-requests      The worker's leave requests

  Attendance:
    POST   /api/workers/{id}/clock-in            Open a shift
    GET    /api/workers/{id}/timesheet           Month aggregate (?year=&month=)
    GET    /api/shifts/{id}                      Get a shift record
    POST   /api/shifts/{id}/clock-out            Close a shift
    PUT    /api/shifts/{id}                      Amend clock times
    DELETE /api/shifts/{id}                      Delete

  Leave:
    GET    /api/leave-types                      Leave type classification
    GET    /api/leave-requests                   List (?worker_id=&status=)
    POST   /api/leave-requests                   Submit
    GET    /api/leave-requests/{id}              Get
    PUT    /api/leave-requests/{id}              Edit
    DELETE /api/leave-requests/{id}              Delete (restores balance)
    POST   /api/leave-requests/{id}/approve      Approve
    POST   /api/leave-requests/{id}/reject       Reject

  Payroll:
    POST   /api/workers/{id}/payslips            Compute one worker's month
    GET    /api/workers/{id}/payslips            List a year (?year=)
    GET    /api/workers/{id}/payslips/{year}/{month}
    POST   /api/payroll/bulk                     Compute every worker's month
    GET    /api/reports/salary                   Salary report (?year=&month=&category=)

  Configuration:
    GET    /api/config/working-days/{year}/{month}
    PUT    /api/config/working-days
    GET    /api/config/rates                     Active contribution tables
    GET    /api/holidays
    POST   /api/holidays
    DELETE /api/holidays/{id}

ERROR HANDLING:
  Every failure is {"error": message, "kind": kind} with the status taken
  from the kind:
  - 400: invalid_input, invalid_range
  - 404: not_found, worker_not_found
  - 409: invalid_transition, conflict, reconciliation_mismatch
  - 422: configuration_missing
  - 500: partial_persistence_failure (with a "partial" detail), internal

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/generic"
	"github.com/warp/payroll-engine/leave"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is the record store plus the reset used by demo scenarios.
type Store interface {
	generic.TxStore
	Reset(ctx context.Context) error
}

// Services are the domain services the handlers delegate to.
type Services struct {
	Leave      *leave.Service
	Payroll    *payroll.Service
	Recorder   *attendance.Recorder
	Aggregator *attendance.Aggregator
	Rates      *factory.RateSet
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store Store
	Services

	log          zerolog.Logger
	ratesFactory *factory.RatesFactory
	now          func() time.Time

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over store and svc.
func NewHandler(store Store, svc Services, log zerolog.Logger) *Handler {
	if svc.Rates == nil {
		svc.Rates = factory.Defaults()
	}
	return &Handler{
		Store:        store,
		Services:     svc,
		log:          log.With().Str("component", "api").Logger(),
		ratesFactory: factory.NewRatesFactory(),
		now:          time.Now,
	}
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	filter, err := generic.ParseCategoryFilter(r.URL.Query().Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	workers, err := h.Store.ListWorkers(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if workers == nil {
		workers = []generic.Worker{}
	}
	writeJSON(w, http.StatusOK, workers)
}

func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.Store.GetWorker(r.Context(), workerParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, worker)
}

// CreateWorker creates a worker. The ID is generated when omitted.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req WorkerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	worker, warn, err := req.toWorker()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.GetWorker(r.Context(), worker.ID); err == nil {
		h.fail(w, r, generic.NewError(generic.KindConflict, "worker "+string(worker.ID)+" already exists", nil))
		return
	}
	worker.CreatedAt = h.now().UTC()
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logCoerced(r, worker.ID, warn)
	writeJSON(w, http.StatusCreated, WorkerDTO{Worker: worker, Warnings: warn})
}

// UpdateWorker replaces a worker's fields, keeping its creation time.
func (h *Handler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	existing, err := h.Store.GetWorker(r.Context(), workerParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req WorkerRequest
	if !decode(w, r, &req) {
		return
	}
	req.ID = string(existing.ID)
	worker, warn, err := req.toWorker()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	worker.CreatedAt = existing.CreatedAt
	if err := h.Store.SaveWorker(r.Context(), worker); err != nil {
		h.fail(w, r, err)
		return
	}
	h.logCoerced(r, worker.ID, warn)
	writeJSON(w, http.StatusOK, WorkerDTO{Worker: worker, Warnings: warn})
}

func (h *Handler) DeleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteWorker(r.Context(), workerParam(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) GetBalanceTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Leave.History(r.Context(), workerParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if txs == nil {
		txs = []generic.BalanceTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// CreateAdjustment applies a manual balance correction.
func (h *Handler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req AdjustmentRequest
	if !decode(w, r, &req) {
		return
	}
	pool, err := generic.ParsePool(req.Pool)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var warn warnings
	delta := warn.num("delta", req.Delta)
	h.logCoerced(r, workerParam(r), warn)

	tx, err := h.Leave.AdjustBalance(r.Context(), workerParam(r), pool, delta, req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *Handler) ListWorkerLeaveRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Leave.List(r.Context(), generic.LeaveFilter{WorkerID: workerParam(r)})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reqs))
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	var req ClockInRequest
	if !decode(w, r, &req) {
		return
	}
	shift, err := h.Recorder.ClockIn(r.Context(), workerParam(r), req.SiteID, timeOrZero(req.At))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, shift)
}

func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	var req ClockOutRequest
	if !decode(w, r, &req) {
		return
	}
	shift, err := h.Recorder.ClockOut(r.Context(), generic.ShiftID(chi.URLParam(r, "id")), timeOrZero(req.At), req.Breaks)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Store.GetShift(r.Context(), generic.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handler) AmendShift(w http.ResponseWriter, r *http.Request) {
	var req AmendShiftRequest
	if !decode(w, r, &req) {
		return
	}
	shift, err := h.Recorder.Amend(r.Context(), generic.ShiftID(chi.URLParam(r, "id")), req.Entry, req.Exit, req.Breaks)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shift)
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	if err := h.Recorder.Delete(r.Context(), generic.ShiftID(chi.URLParam(r, "id"))); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// GetTimesheet returns the month's canonical days and totals.
func (h *Handler) GetTimesheet(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryMonth(r, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id := workerParam(r)
	if _, err := h.Store.GetWorker(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	agg, err := h.Aggregator.Month(r.Context(), id, year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agg)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, leave.Types())
}

func (h *Handler) ListLeaveRequests(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := generic.LeaveFilter{WorkerID: generic.WorkerID(q.Get("worker_id"))}
	if s := q.Get("status"); s != "" {
		status, err := parseStatus(s)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter.Status = status
	}
	reqs, err := h.Leave.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(reqs))
}

func (h *Handler) SubmitLeave(w http.ResponseWriter, r *http.Request) {
	var body LeaveRequestBody
	if !decode(w, r, &body) {
		return
	}
	duration, err := generic.ParseDuration(body.Duration)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := h.Leave.Submit(r.Context(), leave.SubmitInput{
		WorkerID:   generic.WorkerID(body.WorkerID),
		LeaveType:  generic.LeaveType(body.LeaveType),
		Duration:   duration,
		From:       body.From,
		To:         body.To,
		AdminNotes: body.AdminNotes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	req, err := h.Leave.Get(r.Context(), leaveParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) ApproveLeave(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	if !decodeOptional(w, r, &body) {
		return
	}
	out, err := h.Leave.Approve(r.Context(), leaveParam(r), body.AdminNotes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) RejectLeave(w http.ResponseWriter, r *http.Request) {
	var body DecisionRequest
	if !decodeOptional(w, r, &body) {
		return
	}
	req, err := h.Leave.Reject(r.Context(), leaveParam(r), body.AdminNotes)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// EditLeave replaces an approved or pending request's fields. Balances are
// not recomputed; the response carries a warning saying so.
func (h *Handler) EditLeave(w http.ResponseWriter, r *http.Request) {
	var body LeaveRequestBody
	if !decode(w, r, &body) {
		return
	}
	var duration generic.LeaveDuration
	if body.Duration != "" {
		d, err := generic.ParseDuration(body.Duration)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		duration = d
	}
	out, err := h.Leave.Edit(r.Context(), leaveParam(r), leave.EditInput{
		LeaveType:  generic.LeaveType(body.LeaveType),
		Duration:   duration,
		From:       body.From,
		To:         body.To,
		AdminNotes: body.AdminNotes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	out, err := h.Leave.Delete(r.Context(), leaveParam(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// ComputePayslip runs the single-worker path with manual adjustments.
func (h *Handler) ComputePayslip(w http.ResponseWriter, r *http.Request) {
	var req ComputePayslipRequest
	if !decode(w, r, &req) {
		return
	}
	var warn warnings
	adj := payroll.Adjustments{
		Bonus:      warn.num("bonus", req.Bonus),
		Additions:  payLines("additions", req.Additions, &warn),
		Deductions: payLines("deductions", req.Deductions, &warn),
	}
	adj.Warnings = warn
	h.logCoerced(r, workerParam(r), warn)

	p, err := h.Payroll.ComputeMonthlyPayslip(r.Context(), workerParam(r), time.Month(req.Month), req.Year, adj)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) ListPayslips(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil {
			h.fail(w, r, generic.InvalidInput("invalid year %q", s))
			return
		}
		year = y
	}
	payslips, err := h.Payroll.ListPayslips(r.Context(), workerParam(r), year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(payslips))
}

func (h *Handler) GetPayslip(w http.ResponseWriter, r *http.Request) {
	year, month, err := pathMonth(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	p, err := h.Payroll.GetPayslip(r.Context(), workerParam(r), year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ComputeBulk computes and stores every worker's payslip for the month.
// Per-worker failures are in the body; only missing configuration fails
// the request.
func (h *Handler) ComputeBulk(w http.ResponseWriter, r *http.Request) {
	var req PayMonthRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.Payroll.ComputeBulkPayslips(r.Context(), time.Month(req.Month), req.Year)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) GetSalaryReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := queryMonth(r, h.now())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter, err := generic.ParseCategoryFilter(r.URL.Query().Get("category"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.Payroll.ComputeSalaryReport(r.Context(), month, year, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// =============================================================================
// CONFIGURATION HANDLERS
// =============================================================================

func (h *Handler) GetWorkingDays(w http.ResponseWriter, r *http.Request) {
	year, month, err := pathMonth(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	days, err := h.Store.GetWorkingDays(r.Context(), year, month)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, generic.WorkingDaysConfig{Year: year, Month: month, Days: days})
}

func (h *Handler) SetWorkingDays(w http.ResponseWriter, r *http.Request) {
	var req WorkingDaysRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Month < 1 || req.Month > 12 {
		h.fail(w, r, generic.InvalidInput("invalid month %d", req.Month))
		return
	}
	cfg := generic.WorkingDaysConfig{Year: req.Year, Month: time.Month(req.Month), Days: req.Days}
	if err := h.Store.SetWorkingDays(r.Context(), cfg); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.ratesFactory.ToJSON(h.Rates))
}

func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(holidays))
}

func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Date.IsZero() || strings.TrimSpace(req.Name) == "" {
		h.fail(w, r, generic.InvalidInput("date and name are required"))
		return
	}
	holiday := generic.Holiday{ID: req.ID, Date: req.Date, Name: req.Name}
	if holiday.ID == "" {
		holiday.ID = "holiday-" + req.Date.String()
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, holiday)
}

func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind generic.Kind) int {
	switch kind {
	case generic.KindInvalidInput, generic.KindInvalidRange:
		return http.StatusBadRequest
	case generic.KindNotFound, generic.KindWorkerNotFound:
		return http.StatusNotFound
	case generic.KindInvalidTransition, generic.KindConflict, generic.KindReconciliationMismatch:
		return http.StatusConflict
	case generic.KindConfigurationMissing:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	kind := generic.KindOf(err)
	resp := ErrorResponse{Error: err.Error(), Kind: kind}
	var pf *generic.PartialFailure
	if errors.As(err, &pf) {
		resp.Partial = &PartialFailureDTO{Operation: pf.Operation, Applied: pf.Applied, Failed: pf.Failed}
	}
	writeJSON(w, statusFor(kind), resp)
}

// fail writes err and logs server-side failures with the request's logger.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := statusFor(generic.KindOf(err)); status >= http.StatusInternalServerError {
		hlog.FromRequest(r).Error().Err(err).Str("kind", string(generic.KindOf(err))).Msg("request failed")
	}
	writeError(w, err)
}

func (h *Handler) logCoerced(r *http.Request, workerID generic.WorkerID, warn warnings) {
	for _, msg := range warn {
		hlog.FromRequest(r).Warn().Str("worker_id", string(workerID)).Msg(msg)
	}
}

// decode reads a JSON body, answering 400 itself on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, generic.InvalidInput("invalid request body: %v", err))
		return false
	}
	return true
}

// decodeOptional is decode for endpoints whose body may be empty.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	return decode(w, r, v)
}

func workerParam(r *http.Request) generic.WorkerID {
	return generic.WorkerID(chi.URLParam(r, "id"))
}

func leaveParam(r *http.Request) generic.LeaveRequestID {
	return generic.LeaveRequestID(chi.URLParam(r, "id"))
}

func parseMonth(yearStr, monthStr string) (int, time.Month, error) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1 {
		return 0, 0, generic.InvalidInput("invalid year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return 0, 0, generic.InvalidInput("invalid month %q", monthStr)
	}
	return year, time.Month(month), nil
}

func pathMonth(r *http.Request) (int, time.Month, error) {
	return parseMonth(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
}

// queryMonth reads ?year=&month=, defaulting each to the current one.
func queryMonth(r *http.Request, now time.Time) (int, time.Month, error) {
	q := r.URL.Query()
	year, month := q.Get("year"), q.Get("month")
	if year == "" {
		year = strconv.Itoa(now.Year())
	}
	if month == "" {
		month = strconv.Itoa(int(now.Month()))
	}
	return parseMonth(year, month)
}

func parseStatus(s string) (generic.LeaveStatus, error) {
	switch st := generic.LeaveStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case generic.StatusPending, generic.StatusApproved, generic.StatusRejected:
		return st, nil
	}
	return "", generic.InvalidInput("unknown leave status %q", s)
}

func timeOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
