/*
errors.go - Centralized error taxonomy for the payroll engine

PURPOSE:
  Every failure an exposed operation can return carries a human-readable
  message plus a machine-readable Kind. Callers switch on KindOf(err);
  errors.Is still works against the sentinels below.

ERROR KINDS:
  configuration_missing        No working-days entry for the pay month
  worker_not_found             Worker lookup miss (either category)
  invalid_range                Leave to-date before from-date, or zero working days
  partial_persistence_failure  Status applied but balance/shift sync failed
  reconciliation_mismatch      Stored allocation disagrees with a recomputation (logged)
  invalid_transition           Leave request state machine violation
  not_found / invalid_input / conflict / internal

USAGE:
  if generic.KindOf(err) == generic.KindConfigurationMissing { ... }

  var pf *generic.PartialFailure
  if errors.As(err, &pf) {
      log.Warn().Strs("applied", pf.Applied).Str("failed", pf.Failed).Msg("...")
  }

SEE ALSO:
  - api/handlers.go: Maps kinds to HTTP status codes
  - leave/service.go: Produces PartialFailure and ReconciliationMismatch
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the machine-readable failure category.
type Kind string

const (
	KindConfigurationMissing      Kind = "configuration_missing"
	KindWorkerNotFound            Kind = "worker_not_found"
	KindInvalidRange              Kind = "invalid_range"
	KindPartialPersistenceFailure Kind = "partial_persistence_failure"
	KindReconciliationMismatch    Kind = "reconciliation_mismatch"
	KindInvalidTransition         Kind = "invalid_transition"
	KindNotFound                  Kind = "not_found"
	KindInvalidInput              Kind = "invalid_input"
	KindConflict                  Kind = "conflict"
	KindInternal                  Kind = "internal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrConfigurationMissing is returned when a month has no working-days entry.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrWorkerNotFound is returned when neither worker category has the ID.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrInvalidRange is returned for inverted or empty leave ranges.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidTransition is returned when a leave request cannot move to the
	// requested state (e.g., approving an already approved request).
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrShiftNotFound        = errors.New("shift record not found")
	ErrPayslipNotFound      = errors.New("payslip not found")
	ErrHolidayNotFound      = errors.New("holiday not found")

	// ErrDuplicateIdempotencyKey is returned when a journal entry with the same
	// idempotency key already exists.
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	ErrInvalidInput = errors.New("invalid input")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// Error is a typed failure: a message for humans, a kind for machines.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WorkerNotFound builds the lookup-miss error for a worker.
func WorkerNotFound(id WorkerID) error {
	return &Error{Kind: KindWorkerNotFound, Message: fmt.Sprintf("worker %s not found", id), Err: ErrWorkerNotFound}
}

// ConfigurationMissing builds the missing working-days error for a month.
func ConfigurationMissing(year int, month time.Month) error {
	return &Error{
		Kind:    KindConfigurationMissing,
		Message: fmt.Sprintf("working days not configured for %s %d", month, year),
		Err:     ErrConfigurationMissing,
	}
}

// InvalidInput builds a client error with a formatted message.
func InvalidInput(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...), Err: ErrInvalidInput}
}

// InvalidTransition builds a state machine violation.
func InvalidTransition(id LeaveRequestID, from LeaveStatus, action string) error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("cannot %s leave request %s in status %s", action, id, from),
		Err:     ErrInvalidTransition,
	}
}

// PartialFailure reports which half of a multi-write operation was applied.
// It is never retried automatically.
type PartialFailure struct {
	Operation string
	Applied   []string
	Failed    string
	Cause     error
}

func (e *PartialFailure) Error() string {
	return fmt.Sprintf("%s partially applied: applied [%s], failed %s: %v",
		e.Operation, strings.Join(e.Applied, ", "), e.Failed, e.Cause)
}

func (e *PartialFailure) Unwrap() error { return e.Cause }

// ReconciliationMismatch records a disagreement between what a stored leave
// request says was allocated and what the engine recomputes now.
type ReconciliationMismatch struct {
	RequestID  LeaveRequestID
	Source     string
	Recorded   decimal.Decimal
	Recomputed decimal.Decimal
}

func (e *ReconciliationMismatch) Error() string {
	return fmt.Sprintf("reconciliation mismatch on leave request %s (%s): recorded %s, recomputed %s",
		e.RequestID, e.Source, e.Recorded, e.Recomputed)
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// KindOf classifies any error returned by the engine.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var pf *PartialFailure
	if errors.As(err, &pf) {
		return KindPartialPersistenceFailure
	}
	var rm *ReconciliationMismatch
	if errors.As(err, &rm) {
		return KindReconciliationMismatch
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrConfigurationMissing):
		return KindConfigurationMissing
	case errors.Is(err, ErrWorkerNotFound):
		return KindWorkerNotFound
	case errors.Is(err, ErrInvalidRange):
		return KindInvalidRange
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case IsNotFound(err):
		return KindNotFound
	case errors.Is(err, ErrDuplicateIdempotencyKey):
		return KindConflict
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	}
	return KindInternal
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrLeaveRequestNotFound) ||
		errors.Is(err, ErrShiftNotFound) ||
		errors.Is(err, ErrPayslipNotFound) ||
		errors.Is(err, ErrHolidayNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	switch KindOf(err) {
	case KindInvalidRange, KindInvalidTransition, KindInvalidInput, KindConflict:
		return true
	}
	return false
}
