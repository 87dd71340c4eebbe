package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/attendance"
	"github.com/warp/payroll-engine/contribution"
	"github.com/warp/payroll-engine/generic"
	"golang.org/x/sync/errgroup"
)

// DefaultFallbackWorkingDays is used by the single-worker path when a month
// has no working-day configuration.
const DefaultFallbackWorkingDays = 22

// =============================================================================
// SERVICE
// =============================================================================

// Service runs the engine against the record store.
//
// The single-worker and bulk paths differ on purpose in two ways: the
// single path tolerates a missing working-day configuration (falling back
// with a warning) while bulk treats it as fatal, and each path has its own
// community fund strategy.
type Service struct {
	store      generic.Store
	aggregator *attendance.Aggregator
	log        zerolog.Logger
	now        func() time.Time

	calculator      *contribution.Calculator
	levy            contribution.Levy
	singleFund      contribution.CommunityFund
	bulkFund        contribution.CommunityFund
	otCapHours      decimal.Decimal
	fallbackDays    int
	bulkConcurrency int
}

type Option func(*Service)

func WithCalculator(c *contribution.Calculator) Option {
	return func(s *Service) { s.calculator = c }
}

func WithLevy(l contribution.Levy) Option {
	return func(s *Service) { s.levy = l }
}

// WithCommunityFunds sets the strategies of the single-worker and bulk paths.
func WithCommunityFunds(single, bulk contribution.CommunityFund) Option {
	return func(s *Service) {
		if single != nil {
			s.singleFund = single
		}
		if bulk != nil {
			s.bulkFund = bulk
		}
	}
}

func WithOTCap(hours decimal.Decimal) Option {
	return func(s *Service) { s.otCapHours = hours }
}

func WithFallbackWorkingDays(days int) Option {
	return func(s *Service) { s.fallbackDays = days }
}

func WithBulkConcurrency(n int) Option {
	return func(s *Service) { s.bulkConcurrency = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store generic.Store, aggregator *attendance.Aggregator, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:           store,
		aggregator:      aggregator,
		log:             log.With().Str("component", "payroll").Logger(),
		now:             time.Now,
		calculator:      contribution.NewCalculator(contribution.DefaultTables()),
		levy:            contribution.DefaultLevy(),
		singleFund:      contribution.AgeTable(),
		bulkFund:        contribution.FlatRate{Percent: decimal.NewFromInt(3)},
		otCapHours:      DefaultOTCapHours,
		fallbackDays:    DefaultFallbackWorkingDays,
		bulkConcurrency: 8,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bulkConcurrency < 1 {
		s.bulkConcurrency = 1
	}
	return s
}

func (s *Service) ratesContext(year int, month time.Month, workingDays int, fund contribution.CommunityFund) RatesContext {
	return RatesContext{
		Year:          year,
		Month:         month,
		WorkingDays:   workingDays,
		Calculator:    s.calculator,
		CommunityFund: fund,
		Levy:          s.levy,
		OTCapHours:    s.otCapHours,
	}
}

func validMonth(year int, month time.Month) error {
	if month < time.January || month > time.December || year < 1 {
		return generic.InvalidInput("invalid pay month %d-%02d", year, int(month))
	}
	return nil
}

// =============================================================================
// SINGLE WORKER
// =============================================================================

// ComputeMonthlyPayslip computes, stores and returns one worker's payslip.
// Recomputing a month overwrites the stored payslip.
func (s *Service) ComputeMonthlyPayslip(ctx context.Context, workerID generic.WorkerID, month time.Month, year int, adj Adjustments) (*generic.PayslipRecord, error) {
	if err := validMonth(year, month); err != nil {
		return nil, err
	}
	w, err := s.store.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	rc := s.ratesContext(year, month, 0, s.singleFund)
	days, err := s.store.GetWorkingDays(ctx, year, month)
	switch {
	case err == nil:
		rc.WorkingDays = days
	case generic.KindOf(err) == generic.KindConfigurationMissing:
		rc.WorkingDays = s.fallbackDays
		msg := fmt.Sprintf("working days for %s %d not configured; using default %d", month, year, s.fallbackDays)
		rc.Warnings = append(rc.Warnings, msg)
		s.log.Warn().Str("worker_id", string(workerID)).Int("year", year).Int("month", int(month)).
			Int("working_days", s.fallbackDays).Msg("working days not configured, using fallback")
	default:
		return nil, err
	}

	agg, err := s.aggregator.Month(ctx, workerID, year, month)
	if err != nil {
		return nil, err
	}
	p, err := ComputePayslip(*w, agg, rc, adj)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, &p); err != nil {
		return nil, err
	}
	s.log.Info().Str("worker_id", string(workerID)).Int("year", year).Int("month", int(month)).
		Str("net_pay", p.NetPay.StringFixed(2)).Msg("payslip computed")
	return &p, nil
}

// persist fills YTD and identity and upserts by (worker, year, month).
func (s *Service) persist(ctx context.Context, p *generic.PayslipRecord) error {
	stored, err := s.storedPayslips(ctx, p)
	if err != nil {
		return err
	}
	ApplyYTD(p, stored)

	p.ID = generic.PayslipID(uuid.NewString())
	for _, prior := range stored {
		if prior.Month == p.Month {
			p.ID = prior.ID
			break
		}
	}
	p.GeneratedAt = s.now().UTC()
	if err := s.store.UpsertPayslip(ctx, *p); err != nil {
		return fmt.Errorf("store payslip %s: %w", p.Key(), err)
	}
	return nil
}

// applyStoredYTD fills the year-to-date fields of a payslip that is not
// being stored.
func (s *Service) applyStoredYTD(ctx context.Context, p *generic.PayslipRecord) error {
	stored, err := s.storedPayslips(ctx, p)
	if err != nil {
		return err
	}
	ApplyYTD(p, stored)
	return nil
}

func (s *Service) storedPayslips(ctx context.Context, p *generic.PayslipRecord) ([]generic.PayslipRecord, error) {
	stored, err := s.store.ListPayslips(ctx, p.WorkerID, p.Year)
	if err != nil {
		return nil, fmt.Errorf("load payslips of worker %s for %d: %w", p.WorkerID, p.Year, err)
	}
	return stored, nil
}

func (s *Service) GetPayslip(ctx context.Context, workerID generic.WorkerID, year int, month time.Month) (*generic.PayslipRecord, error) {
	return s.store.GetPayslip(ctx, workerID, year, month)
}

func (s *Service) ListPayslips(ctx context.Context, workerID generic.WorkerID, year int) ([]generic.PayslipRecord, error) {
	return s.store.ListPayslips(ctx, workerID, year)
}

// =============================================================================
// BATCH
// =============================================================================

// fanOut computes every worker's payslip concurrently. A worker's failure is
// recorded on its result and never stops the others.
func (s *Service) fanOut(ctx context.Context, workers []generic.Worker, rc RatesContext, cal generic.Calendar, persist bool) []WorkerResult {
	results := make([]WorkerResult, len(workers))
	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)

	for i, w := range workers {
		i, w := i, w
		g.Go(func() error {
			res := WorkerResult{WorkerID: w.ID, WorkerName: w.Name}
			p, err := s.computeOne(ctx, w, rc, cal, persist)
			if err != nil {
				res.Error = err.Error()
				res.Kind = generic.KindOf(err)
				s.log.Warn().Err(err).Str("worker_id", string(w.ID)).Int("year", rc.Year).
					Int("month", int(rc.Month)).Msg("payslip failed in batch")
			} else {
				res.Payslip = p
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (s *Service) computeOne(ctx context.Context, w generic.Worker, rc RatesContext, cal generic.Calendar, persist bool) (*generic.PayslipRecord, error) {
	agg, err := s.aggregator.MonthWithCalendar(ctx, w.ID, rc.Year, rc.Month, cal)
	if err != nil {
		return nil, err
	}
	p, err := ComputePayslip(w, agg, rc, Adjustments{})
	if err != nil {
		return nil, err
	}
	if persist {
		if err := s.persist(ctx, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}
	if err := s.applyStoredYTD(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// monthInputs loads what a batch shares: the strict working-day count and
// the holiday calendar.
func (s *Service) monthInputs(ctx context.Context, year int, month time.Month) (int, *generic.HolidayCalendar, error) {
	if err := validMonth(year, month); err != nil {
		return 0, nil, err
	}
	days, err := s.store.GetWorkingDays(ctx, year, month)
	if err != nil {
		return 0, nil, err
	}
	cal, err := s.aggregator.Calendar(ctx)
	if err != nil {
		return 0, nil, err
	}
	return days, cal, nil
}

// ComputeBulkPayslips computes and stores the month's payslip for every
// worker. Missing working-day configuration fails the whole batch; any other
// failure is reported per worker. Re-running a month overwrites.
func (s *Service) ComputeBulkPayslips(ctx context.Context, month time.Month, year int) (*BulkResult, error) {
	days, cal, err := s.monthInputs(ctx, year, month)
	if err != nil {
		return nil, err
	}
	workers, err := s.store.ListWorkers(ctx, generic.FilterAll)
	if err != nil {
		return nil, err
	}

	out := &BulkResult{Year: year, Month: month, WorkingDays: days}
	out.Results = s.fanOut(ctx, workers, s.ratesContext(year, month, days, s.bulkFund), cal, true)
	for _, r := range out.Results {
		if r.OK() {
			out.Succeeded++
		} else {
			out.Failed++
		}
	}
	s.log.Info().Int("year", year).Int("month", int(month)).Int("succeeded", out.Succeeded).
		Int("failed", out.Failed).Msg("bulk payslips computed")
	return out, nil
}

// ComputeSalaryReport computes (without storing) the month's payroll for
// the workers matching filter, with column totals.
func (s *Service) ComputeSalaryReport(ctx context.Context, month time.Month, year int, filter generic.CategoryFilter) (*SalaryReport, error) {
	days, cal, err := s.monthInputs(ctx, year, month)
	if err != nil {
		return nil, err
	}
	workers, err := s.store.ListWorkers(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &SalaryReport{
		Year:        year,
		Month:       month,
		Filter:      filter,
		WorkingDays: days,
		Rows:        []generic.PayslipRecord{},
		Totals:      newReportTotals(),
	}
	for _, r := range s.fanOut(ctx, workers, s.ratesContext(year, month, days, s.bulkFund), cal, false) {
		if !r.OK() {
			report.Failures = append(report.Failures, r)
			continue
		}
		report.Rows = append(report.Rows, *r.Payslip)
		report.Totals.add(*r.Payslip)
	}
	return report, nil
}
