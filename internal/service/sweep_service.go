package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/repository"
)

type sweepEmployeeReader interface {
	ListActive(ctx context.Context) ([]models.Employee, error)
}

type sweepPeriodStore interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error)
	ListByStatuses(ctx context.Context, statuses ...models.PeriodStatus) ([]models.AcquisitionPeriod, error)
	Create(ctx context.Context, period *models.AcquisitionPeriod) error
	UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error
}

type sweepRequestReader interface {
	ListByPeriodIDs(ctx context.Context, periodIDs []string) ([]models.VacationRequest, error)
}

// SweepService keeps the stored periods in step with the calendar. Both
// sweeps are idempotent and process one employee or period at a time; a
// failing item is logged, counted and skipped.
type SweepService struct {
	employees sweepEmployeeReader
	periods   sweepPeriodStore
	requests  sweepRequestReader
	cache     *CacheService
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewSweepService constructs a SweepService.
func NewSweepService(employees sweepEmployeeReader, periods sweepPeriodStore, requests sweepRequestReader, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *SweepService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SweepService{
		employees: employees,
		periods:   periods,
		requests:  requests,
		cache:     cache,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// Run dispatches a sweep by kind.
func (s *SweepService) Run(ctx context.Context, kind models.SweepKind) (models.SweepResult, error) {
	switch kind {
	case models.SweepNewPeriods:
		return s.SweepNewPeriods(ctx)
	case models.SweepPeriodStatuses:
		return s.SweepPeriodStatuses(ctx)
	}
	return models.SweepResult{}, validationErrorf("unknown sweep %q", kind)
}

// SweepNewPeriods opens, for every active employee whose latest period has
// ended, the next one starting at that end date. Employees without periods are
// first backfilled from the hire date. Balances are invalidated in one pass
// when anything was created.
func (s *SweepService) SweepNewPeriods(ctx context.Context) (models.SweepResult, error) {
	result := models.SweepResult{Kind: models.SweepNewPeriods, StartedAt: s.now().UTC()}
	defer s.finish(&result)

	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return result, storeError(err, "", "list active employees")
	}

	today := dateOnly(s.now())
	for _, employee := range employees {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		created, err := s.catchUp(ctx, employee, today)
		result.Created += created
		if err != nil {
			result.Failed++
			s.logger.Error("period sweep failed for employee",
				zap.String("employee_id", employee.ID),
				zap.Int("created", created),
				zap.Error(err))
			continue
		}
	}
	if result.Created > 0 {
		_ = s.cache.Invalidate(ctx, balancePattern)
	}
	return result, nil
}

func (s *SweepService) catchUp(ctx context.Context, employee models.Employee, today time.Time) (int, error) {
	existing, err := s.periods.ListByEmployee(ctx, employee.ID)
	if err != nil {
		return 0, err
	}

	var pending []models.AcquisitionPeriod
	var latest *models.AcquisitionPeriod
	if len(existing) == 0 {
		pending = GeneratePeriods(employee.ID, employee.HireDate, today)
		if len(pending) > 0 {
			latest = &pending[len(pending)-1]
		}
	} else {
		latest = &existing[0]
		for i := range existing[1:] {
			if existing[i+1].Number > latest.Number {
				latest = &existing[i+1]
			}
		}
	}
	// One period per elapsed acquisition end; the newest one is still running.
	for latest != nil && dateOnly(latest.AcquisitionEnd).Before(today) {
		next := NextPeriod(*latest)
		pending = append(pending, next)
		latest = &next
	}

	created := 0
	for i := range pending {
		if err := s.periods.Create(ctx, &pending[i]); err != nil {
			if repository.IsUniqueViolation(err) {
				s.logger.Debug("period already exists",
					zap.String("employee_id", employee.ID),
					zap.Int("number", pending[i].Number))
				continue
			}
			return created, err
		}
		created++
	}
	return created, nil
}

// SweepPeriodStatuses recomputes the stored status of every open or settled
// period from its balance and the deadline.
func (s *SweepService) SweepPeriodStatuses(ctx context.Context) (models.SweepResult, error) {
	result := models.SweepResult{Kind: models.SweepPeriodStatuses, StartedAt: s.now().UTC()}
	defer s.finish(&result)

	periods, err := s.periods.ListByStatuses(ctx, models.PeriodStatusActive, models.PeriodStatusSettled)
	if err != nil {
		return result, storeError(err, "", "list periods")
	}
	if len(periods) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(periods))
	for _, p := range periods {
		ids = append(ids, p.ID)
	}
	requests, err := s.requests.ListByPeriodIDs(ctx, ids)
	if err != nil {
		return result, storeError(err, "", "list vacation requests")
	}
	byPeriod := make(map[string][]models.VacationRequest, len(periods))
	for _, r := range requests {
		byPeriod[r.PeriodID] = append(byPeriod[r.PeriodID], r)
	}

	today := dateOnly(s.now())
	touched := make(map[string]struct{})
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Processed++

		balance := ComputeBalance(period, byPeriod[period.ID], today)
		next := DerivePeriodStatus(balance, today)
		if next == period.Status {
			continue
		}
		if err := s.periods.UpdateStatus(ctx, period.ID, next); err != nil {
			result.Failed++
			s.logger.Error("status sweep failed for period",
				zap.String("period_id", period.ID),
				zap.String("employee_id", period.EmployeeID),
				zap.String("from", string(period.Status)),
				zap.String("to", string(next)),
				zap.Error(err))
			continue
		}

		switch {
		case next == models.PeriodStatusExpired:
			result.Expired++
		case next == models.PeriodStatusSettled:
			result.Settled++
		case period.Status == models.PeriodStatusSettled:
			result.Reopened++
		}
		touched[period.EmployeeID] = struct{}{}
	}

	switch len(touched) {
	case 0:
	case 1:
		for employeeID := range touched {
			s.cache.Drop(ctx, employeeBalanceKey(employeeID))
		}
	default:
		_ = s.cache.Invalidate(ctx, balancePattern)
	}
	return result, nil
}

func (s *SweepService) finish(result *models.SweepResult) {
	result.FinishedAt = s.now().UTC()
	s.metrics.ObserveSweep(*result)
	if result.Created+result.Expired+result.Settled+result.Reopened > 0 {
		s.cache.Drop(context.Background(), dashboardCacheKey)
	}
	s.logger.Info("sweep finished",
		zap.String("sweep", string(result.Kind)),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("expired", result.Expired),
		zap.Int("settled", result.Settled),
		zap.Int("reopened", result.Reopened),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)))
}
