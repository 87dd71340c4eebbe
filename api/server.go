/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. hlog:       Request-scoped zerolog logger carrying req_id
  4. Access log: One structured line per request
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/workers/*          Workers, balances, attendance, payslips
  /api/shifts/*           Shift records
  /api/leave-types        Leave type classification
  /api/leave-requests/*   Leave lifecycle
  /api/payroll/bulk       Month run for every worker
  /api/reports/salary     Non-persisting salary report
  /api/config/*           Working days and rate tables
  /api/holidays/*         Public holidays
  /api/scenarios/*        Demo scenarios
  /healthz                Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, log zerolog.Logger, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.RequestIDHandler("req_id", "Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Put("/{id}", h.UpdateWorker)
			r.Delete("/{id}", h.DeleteWorker)
			r.Get("/{id}/balance-transactions", h.GetBalanceTransactions)
			r.Post("/{id}/adjustments", h.CreateAdjustment)
			r.Get("/{id}/leave-requests", h.ListWorkerLeaveRequests)
			r.Post("/{id}/clock-in", h.ClockIn)
			r.Get("/{id}/timesheet", h.GetTimesheet)
			r.Get("/{id}/payslips", h.ListPayslips)
			r.Post("/{id}/payslips", h.ComputePayslip)
			r.Get("/{id}/payslips/{year}/{month}", h.GetPayslip)
		})

		// Shift routes
		r.Route("/shifts", func(r chi.Router) {
			r.Get("/{id}", h.GetShift)
			r.Put("/{id}", h.AmendShift)
			r.Delete("/{id}", h.DeleteShift)
			r.Post("/{id}/clock-out", h.ClockOut)
		})

		// Leave routes
		r.Get("/leave-types", h.ListLeaveTypes)
		r.Route("/leave-requests", func(r chi.Router) {
			r.Get("/", h.ListLeaveRequests)
			r.Post("/", h.SubmitLeave)
			r.Get("/{id}", h.GetLeaveRequest)
			r.Put("/{id}", h.EditLeave)
			r.Delete("/{id}", h.DeleteLeave)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Payroll routes
		r.Post("/payroll/bulk", h.ComputeBulk)
		r.Get("/reports/salary", h.GetSalaryReport)

		// Configuration routes
		r.Route("/config", func(r chi.Router) {
			r.Get("/working-days/{year}/{month}", h.GetWorkingDays)
			r.Put("/working-days", h.SetWorkingDays)
			r.Get("/rates", h.GetRates)
		})

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
