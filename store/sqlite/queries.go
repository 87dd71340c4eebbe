package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/generic"
)

// queries implements generic.Store against either the pool or an open
// transaction.
type queries struct {
	q   querier
	log zerolog.Logger
}

// dec parses a stored decimal column, logging and zeroing malformed values.
func (s *queries) dec(table, column, id, raw string) decimal.Decimal {
	d, ok := generic.ParseDecimal(raw)
	if !ok {
		s.log.Warn().
			Str("table", table).
			Str("column", column).
			Str("id", id).
			Str("value", raw).
			Msg("non-finite stored number treated as zero")
	}
	return d
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseDateColumn(raw string) generic.Date {
	d, err := generic.ParseDate(raw)
	if err != nil {
		return generic.Date{}
	}
	return d
}

// =============================================================================
// WORKERS
// =============================================================================

const workerColumns = `id, name, category, site_id, monthly_basic_salary, ot_rate_per_hour,
	rest_holiday_rate_per_day, monthly_allowance, annual_limit, medical_limit,
	annual_balance, medical_balance, birth_date, employee_contribution_rate,
	employer_contribution_rate, created_at`

// SaveWorker inserts or updates a worker.
func (s *queries) SaveWorker(ctx context.Context, w generic.Worker) error {
	if err := w.Validate(); err != nil {
		return err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now()
	}
	var birth, empRate, erRate sql.NullString
	if w.Local != nil {
		birth = nullString(w.Local.BirthDate.String())
		empRate = nullString(w.Local.EmployeeContributionRate.String())
		erRate = nullString(w.Local.EmployerContributionRate.String())
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO workers (`+workerColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			category = excluded.category,
			site_id = excluded.site_id,
			monthly_basic_salary = excluded.monthly_basic_salary,
			ot_rate_per_hour = excluded.ot_rate_per_hour,
			rest_holiday_rate_per_day = excluded.rest_holiday_rate_per_day,
			monthly_allowance = excluded.monthly_allowance,
			annual_limit = excluded.annual_limit,
			medical_limit = excluded.medical_limit,
			annual_balance = excluded.annual_balance,
			medical_balance = excluded.medical_balance,
			birth_date = excluded.birth_date,
			employee_contribution_rate = excluded.employee_contribution_rate,
			employer_contribution_rate = excluded.employer_contribution_rate
	`,
		string(w.ID), w.Name, string(w.Category), nullString(w.SiteID),
		w.Rates.MonthlyBasicSalary.String(), w.Rates.OTRatePerHour.String(),
		w.Rates.RestHolidayRatePerDay.String(), w.Rates.MonthlyAllowance.String(),
		w.Leave.AnnualLimit.String(), w.Leave.MedicalLimit.String(),
		w.Leave.AnnualBalance.String(), w.Leave.MedicalBalance.String(),
		birth, empRate, erRate, formatTime(w.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("save worker %s: %w", w.ID, err)
	}
	return nil
}

// GetWorker resolves either category in one lookup.
func (s *queries) GetWorker(ctx context.Context, id generic.WorkerID) (*generic.Worker, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+workerColumns+` FROM workers WHERE id = ?`, string(id))
	w, err := s.scanWorker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.WorkerNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get worker %s: %w", id, err)
	}
	return &w, nil
}

func (s *queries) ListWorkers(ctx context.Context, filter generic.CategoryFilter) ([]generic.Worker, error) {
	query := `SELECT ` + workerColumns + ` FROM workers`
	var args []any
	if filter != generic.FilterAll {
		query += ` WHERE category = ?`
		args = append(args, string(filter))
	}
	query += ` ORDER BY id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	defer rows.Close()

	var out []generic.Worker
	for rows.Next() {
		w, err := s.scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *queries) DeleteWorker(ctx context.Context, id generic.WorkerID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM workers WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete worker %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.WorkerNotFound(id)
	}
	return nil
}

func (s *queries) UpdateLeaveBalances(ctx context.Context, id generic.WorkerID, annual, medical decimal.Decimal) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE workers SET annual_balance = ?, medical_balance = ? WHERE id = ?`,
		annual.String(), medical.String(), string(id))
	if err != nil {
		return fmt.Errorf("update balances of worker %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.WorkerNotFound(id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *queries) scanWorker(sc scanner) (generic.Worker, error) {
	var (
		w                                          generic.Worker
		id, category, createdAt                    string
		siteID, birth, empRate, erRate             sql.NullString
		basic, ot, restHoliday, allowance          string
		annualLimit, medicalLimit, annual, medical string
	)
	if err := sc.Scan(&id, &w.Name, &category, &siteID, &basic, &ot, &restHoliday, &allowance,
		&annualLimit, &medicalLimit, &annual, &medical, &birth, &empRate, &erRate, &createdAt); err != nil {
		return w, err
	}
	w.ID = generic.WorkerID(id)
	w.Category = generic.Category(category)
	w.SiteID = siteID.String
	w.Rates = generic.RateCard{
		MonthlyBasicSalary:    s.dec("workers", "monthly_basic_salary", id, basic),
		OTRatePerHour:         s.dec("workers", "ot_rate_per_hour", id, ot),
		RestHolidayRatePerDay: s.dec("workers", "rest_holiday_rate_per_day", id, restHoliday),
		MonthlyAllowance:      s.dec("workers", "monthly_allowance", id, allowance),
	}
	w.Leave = generic.LeaveEntitlement{
		AnnualLimit:    s.dec("workers", "annual_limit", id, annualLimit),
		MedicalLimit:   s.dec("workers", "medical_limit", id, medicalLimit),
		AnnualBalance:  s.dec("workers", "annual_balance", id, annual),
		MedicalBalance: s.dec("workers", "medical_balance", id, medical),
	}
	if w.Category == generic.CategoryLocal {
		w.Local = &generic.LocalProfile{
			BirthDate:                parseDateColumn(birth.String),
			EmployeeContributionRate: s.dec("workers", "employee_contribution_rate", id, empRate.String),
			EmployerContributionRate: s.dec("workers", "employer_contribution_rate", id, erRate.String),
		}
	}
	w.CreatedAt = parseTime(createdAt)
	return w, nil
}

// =============================================================================
// SHIFTS
// =============================================================================

const shiftColumns = `id, worker_id, work_date, entry_time, exit_time, breaks_json, leave_type,
	leave_duration, leave_paid, leave_request_id, site_id, basic_hours, rest_holiday_hours,
	ot_hours, break_hours, has_left`

func (s *queries) SaveShift(ctx context.Context, r generic.ShiftRecord) error {
	if r.ID == "" {
		return generic.InvalidInput("shift record id is required")
	}
	var exit sql.NullString
	if r.Exit != nil {
		exit = nullString(formatTime(*r.Exit))
	}
	var breaksJSON sql.NullString
	if len(r.Breaks) > 0 {
		b, err := json.Marshal(r.Breaks)
		if err != nil {
			return fmt.Errorf("encode breaks: %w", err)
		}
		breaksJSON = nullString(string(b))
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shifts (`+shiftColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			work_date = excluded.work_date,
			entry_time = excluded.entry_time,
			exit_time = excluded.exit_time,
			breaks_json = excluded.breaks_json,
			leave_type = excluded.leave_type,
			leave_duration = excluded.leave_duration,
			leave_paid = excluded.leave_paid,
			leave_request_id = excluded.leave_request_id,
			site_id = excluded.site_id,
			basic_hours = excluded.basic_hours,
			rest_holiday_hours = excluded.rest_holiday_hours,
			ot_hours = excluded.ot_hours,
			break_hours = excluded.break_hours,
			has_left = excluded.has_left
	`,
		string(r.ID), string(r.WorkerID), r.WorkDate.String(), formatTime(r.Entry), exit, breaksJSON,
		nullString(string(r.LeaveType)), nullString(string(r.LeaveDuration)), boolToInt(r.LeavePaid),
		nullString(string(r.LeaveRequestID)), nullString(r.SiteID),
		r.Hours.Basic.String(), r.Hours.RestHoliday.String(), r.Hours.OT.String(), r.Hours.Break.String(),
		boolToInt(r.HasLeft),
	)
	if err != nil {
		return fmt.Errorf("save shift %s: %w", r.ID, err)
	}
	return nil
}

func (s *queries) GetShift(ctx context.Context, id generic.ShiftID) (*generic.ShiftRecord, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+shiftColumns+` FROM shifts WHERE id = ?`, string(id))
	r, err := s.scanShift(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewError(generic.KindNotFound, fmt.Sprintf("shift record %s not found", id), generic.ErrShiftNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get shift %s: %w", id, err)
	}
	return &r, nil
}

func (s *queries) ListShifts(ctx context.Context, workerID generic.WorkerID, period generic.Period) ([]generic.ShiftRecord, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+shiftColumns+` FROM shifts
		WHERE worker_id = ? AND work_date >= ? AND work_date <= ?
		ORDER BY work_date, entry_time, id
	`, string(workerID), period.Start.String(), period.End.String())
	if err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}
	defer rows.Close()

	var out []generic.ShiftRecord
	for rows.Next() {
		r, err := s.scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *queries) DeleteShift(ctx context.Context, id generic.ShiftID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM shifts WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete shift %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.NewError(generic.KindNotFound, fmt.Sprintf("shift record %s not found", id), generic.ErrShiftNotFound)
	}
	return nil
}

func (s *queries) scanShift(sc scanner) (generic.ShiftRecord, error) {
	var (
		r                                     generic.ShiftRecord
		id, workerID, workDate, entry         string
		exit, breaksJSON, leaveType, duration sql.NullString
		requestID, siteID                     sql.NullString
		basic, restHoliday, ot, brk           string
		leavePaid, hasLeft                    int
	)
	if err := sc.Scan(&id, &workerID, &workDate, &entry, &exit, &breaksJSON, &leaveType, &duration,
		&leavePaid, &requestID, &siteID, &basic, &restHoliday, &ot, &brk, &hasLeft); err != nil {
		return r, err
	}
	r.ID = generic.ShiftID(id)
	r.WorkerID = generic.WorkerID(workerID)
	r.WorkDate = parseDateColumn(workDate)
	r.Entry = parseTime(entry)
	if exit.Valid {
		t := parseTime(exit.String)
		r.Exit = &t
	}
	if breaksJSON.Valid && breaksJSON.String != "" {
		if err := json.Unmarshal([]byte(breaksJSON.String), &r.Breaks); err != nil {
			return r, fmt.Errorf("decode breaks of shift %s: %w", id, err)
		}
	}
	r.LeaveType = generic.LeaveType(leaveType.String)
	r.LeaveDuration = generic.LeaveDuration(duration.String)
	r.LeavePaid = leavePaid == 1
	r.LeaveRequestID = generic.LeaveRequestID(requestID.String)
	r.SiteID = siteID.String
	r.Hours = generic.HourSplit{
		Basic:       s.dec("shifts", "basic_hours", id, basic),
		RestHoliday: s.dec("shifts", "rest_holiday_hours", id, restHoliday),
		OT:          s.dec("shifts", "ot_hours", id, ot),
		Break:       s.dec("shifts", "break_hours", id, brk),
	}
	r.HasLeft = hasLeft == 1
	return r, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const leaveColumns = `id, worker_id, leave_type, duration, from_date, to_date, status,
	admin_notes, allocation_json, created_at, decided_at`

func (s *queries) SaveLeaveRequest(ctx context.Context, r generic.LeaveRequest) error {
	if r.ID == "" {
		return generic.InvalidInput("leave request id is required")
	}
	var alloc sql.NullString
	if r.Allocation != nil {
		b, err := json.Marshal(r.Allocation)
		if err != nil {
			return fmt.Errorf("encode allocation: %w", err)
		}
		alloc = nullString(string(b))
	}
	var decided sql.NullString
	if r.DecidedAt != nil {
		decided = nullString(formatTime(*r.DecidedAt))
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO leave_requests (`+leaveColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			leave_type = excluded.leave_type,
			duration = excluded.duration,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			status = excluded.status,
			admin_notes = excluded.admin_notes,
			allocation_json = excluded.allocation_json,
			decided_at = excluded.decided_at
	`,
		string(r.ID), string(r.WorkerID), string(r.LeaveType), string(r.Duration),
		r.From.String(), r.To.String(), string(r.Status), nullString(r.AdminNotes),
		alloc, formatTime(r.CreatedAt), decided,
	)
	if err != nil {
		return fmt.Errorf("save leave request %s: %w", r.ID, err)
	}
	return nil
}

func (s *queries) GetLeaveRequest(ctx context.Context, id generic.LeaveRequestID) (*generic.LeaveRequest, error) {
	row := s.q.QueryRowContext(ctx, `SELECT `+leaveColumns+` FROM leave_requests WHERE id = ?`, string(id))
	r, err := scanLeave(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewError(generic.KindNotFound, fmt.Sprintf("leave request %s not found", id), generic.ErrLeaveRequestNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get leave request %s: %w", id, err)
	}
	return &r, nil
}

func (s *queries) ListLeaveRequests(ctx context.Context, filter generic.LeaveFilter) ([]generic.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests WHERE 1 = 1`
	var args []any
	if filter.WorkerID != "" {
		query += ` AND worker_id = ?`
		args = append(args, string(filter.WorkerID))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY from_date, id`

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	defer rows.Close()

	var out []generic.LeaveRequest
	for rows.Next() {
		r, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *queries) DeleteLeaveRequest(ctx context.Context, id generic.LeaveRequestID) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM leave_requests WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete leave request %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.NewError(generic.KindNotFound, fmt.Sprintf("leave request %s not found", id), generic.ErrLeaveRequestNotFound)
	}
	return nil
}

func scanLeave(sc scanner) (generic.LeaveRequest, error) {
	var (
		r                                        generic.LeaveRequest
		id, workerID, leaveType, duration        string
		from, to, status, createdAt              string
		notes, allocJSON, decidedAt              sql.NullString
	)
	if err := sc.Scan(&id, &workerID, &leaveType, &duration, &from, &to, &status,
		&notes, &allocJSON, &createdAt, &decidedAt); err != nil {
		return r, err
	}
	r.ID = generic.LeaveRequestID(id)
	r.WorkerID = generic.WorkerID(workerID)
	r.LeaveType = generic.LeaveType(leaveType)
	r.Duration = generic.LeaveDuration(duration)
	r.From = parseDateColumn(from)
	r.To = parseDateColumn(to)
	r.Status = generic.LeaveStatus(status)
	r.AdminNotes = notes.String
	if allocJSON.Valid && allocJSON.String != "" {
		var alloc generic.LeaveAllocation
		if err := json.Unmarshal([]byte(allocJSON.String), &alloc); err != nil {
			return r, fmt.Errorf("decode allocation of leave request %s: %w", id, err)
		}
		r.Allocation = &alloc
	}
	r.CreatedAt = parseTime(createdAt)
	if decidedAt.Valid {
		t := parseTime(decidedAt.String)
		r.DecidedAt = &t
	}
	return r, nil
}

// =============================================================================
// PAYSLIPS
// =============================================================================

// UpsertPayslip writes the payslip keyed by (worker, year, month). Re-running a
// period overwrites the row and keeps its original ID.
func (s *queries) UpsertPayslip(ctx context.Context, p generic.PayslipRecord) error {
	var existing string
	err := s.q.QueryRowContext(ctx,
		`SELECT id FROM payslips WHERE worker_id = ? AND year = ? AND month = ?`,
		string(p.WorkerID), p.Year, int(p.Month)).Scan(&existing)
	switch {
	case err == nil:
		p.ID = generic.PayslipID(existing)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("lookup payslip %s: %w", p.Key(), err)
	case p.ID == "":
		p.ID = generic.PayslipID(uuid.NewString())
	}
	if p.GeneratedAt.IsZero() {
		p.GeneratedAt = time.Now()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payslip %s: %w", p.Key(), err)
	}
	_, err = s.q.ExecContext(ctx, `
		INSERT INTO payslips (id, worker_id, year, month, net_pay, data_json, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(worker_id, year, month) DO UPDATE SET
			net_pay = excluded.net_pay,
			data_json = excluded.data_json,
			generated_at = excluded.generated_at
	`, string(p.ID), string(p.WorkerID), p.Year, int(p.Month), p.NetPay.String(), string(data), formatTime(p.GeneratedAt))
	if err != nil {
		return fmt.Errorf("upsert payslip %s: %w", p.Key(), err)
	}
	return nil
}

func (s *queries) GetPayslip(ctx context.Context, workerID generic.WorkerID, year int, month time.Month) (*generic.PayslipRecord, error) {
	var data string
	err := s.q.QueryRowContext(ctx,
		`SELECT data_json FROM payslips WHERE worker_id = ? AND year = ? AND month = ?`,
		string(workerID), year, int(month)).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, generic.NewError(generic.KindNotFound,
			fmt.Sprintf("no payslip for worker %s in %s %d", workerID, month, year), generic.ErrPayslipNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payslip: %w", err)
	}
	var p generic.PayslipRecord
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("decode payslip: %w", err)
	}
	return &p, nil
}

func (s *queries) ListPayslips(ctx context.Context, workerID generic.WorkerID, year int) ([]generic.PayslipRecord, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT data_json FROM payslips WHERE worker_id = ? AND year = ? ORDER BY month`,
		string(workerID), year)
	if err != nil {
		return nil, fmt.Errorf("list payslips: %w", err)
	}
	defer rows.Close()

	var out []generic.PayslipRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var p generic.PayslipRecord
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, fmt.Errorf("decode payslip: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// CONFIGURATION: working days and holidays
// =============================================================================

func (s *queries) SetWorkingDays(ctx context.Context, cfg generic.WorkingDaysConfig) error {
	if cfg.Days <= 0 {
		return generic.InvalidInput("working days must be positive, got %d", cfg.Days)
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO working_days (year, month, days) VALUES (?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET days = excluded.days
	`, cfg.Year, int(cfg.Month), cfg.Days)
	if err != nil {
		return fmt.Errorf("set working days: %w", err)
	}
	return nil
}

func (s *queries) GetWorkingDays(ctx context.Context, year int, month time.Month) (int, error) {
	var days int
	err := s.q.QueryRowContext(ctx,
		`SELECT days FROM working_days WHERE year = ? AND month = ?`, year, int(month)).Scan(&days)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, generic.ConfigurationMissing(year, month)
	}
	if err != nil {
		return 0, fmt.Errorf("get working days: %w", err)
	}
	return days, nil
}

func (s *queries) SaveHoliday(ctx context.Context, h generic.Holiday) error {
	if h.ID == "" {
		return generic.InvalidInput("holiday id is required")
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO holidays (id, date, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET date = excluded.date, name = excluded.name
	`, h.ID, h.Date.String(), h.Name)
	if err != nil {
		return fmt.Errorf("save holiday: %w", err)
	}
	return nil
}

func (s *queries) ListHolidays(ctx context.Context) ([]generic.Holiday, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, date, name FROM holidays ORDER BY date`)
	if err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	defer rows.Close()

	var out []generic.Holiday
	for rows.Next() {
		var h generic.Holiday
		var date string
		if err := rows.Scan(&h.ID, &date, &h.Name); err != nil {
			return nil, err
		}
		h.Date = parseDateColumn(date)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *queries) DeleteHoliday(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM holidays WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return generic.NewError(generic.KindNotFound, fmt.Sprintf("holiday %s not found", id), generic.ErrHolidayNotFound)
	}
	return nil
}

// =============================================================================
// BALANCE JOURNAL
// =============================================================================

func (s *queries) AppendBalanceTx(ctx context.Context, tx generic.BalanceTransaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO balance_transactions
			(id, worker_id, pool, delta, balance_after, tx_type, reference_id, reason, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(tx.ID), string(tx.WorkerID), string(tx.Pool), tx.Delta.Value.String(), tx.BalanceAfter.String(),
		string(tx.Type), nullString(tx.ReferenceID), nullString(tx.Reason), nullString(tx.IdempotencyKey),
		formatTime(tx.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return generic.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("append balance transaction: %w", err)
	}
	return nil
}

func (s *queries) ListBalanceTx(ctx context.Context, workerID generic.WorkerID) ([]generic.BalanceTransaction, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, worker_id, pool, delta, balance_after, tx_type, reference_id, reason, idempotency_key, created_at
		FROM balance_transactions WHERE worker_id = ? ORDER BY seq
	`, string(workerID))
	if err != nil {
		return nil, fmt.Errorf("list balance transactions: %w", err)
	}
	defer rows.Close()

	var out []generic.BalanceTransaction
	for rows.Next() {
		var (
			tx                                   generic.BalanceTransaction
			id, wid, pool, delta, after, txType  string
			ref, reason, key                     sql.NullString
			createdAt                            string
		)
		if err := rows.Scan(&id, &wid, &pool, &delta, &after, &txType, &ref, &reason, &key, &createdAt); err != nil {
			return nil, err
		}
		tx.ID = generic.TransactionID(id)
		tx.WorkerID = generic.WorkerID(wid)
		tx.Pool = generic.Pool(pool)
		tx.Delta = generic.Amount{Value: s.dec("balance_transactions", "delta", id, delta), Unit: generic.UnitDays}
		tx.BalanceAfter = s.dec("balance_transactions", "balance_after", id, after)
		tx.Type = generic.TxType(txType)
		tx.ReferenceID = ref.String
		tx.Reason = reason.String
		tx.IdempotencyKey = key.String
		tx.CreatedAt = parseTime(createdAt)
		out = append(out, tx)
	}
	return out, rows.Err()
}
