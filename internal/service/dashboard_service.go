package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
)

type dashboardEmployeeReader interface {
	Counts(ctx context.Context) (int, int, error)
	ListOnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error)
}

type dashboardRequestReader interface {
	CountByStatus(ctx context.Context, status models.RequestStatus) (int, error)
	ListUpcoming(ctx context.Context, today time.Time, limit int) ([]models.VacationRequestDetail, error)
}

type dashboardDepartmentReader interface {
	Summaries(ctx context.Context, day time.Time) ([]dto.DepartmentSummary, error)
}

type dashboardPeriodReader interface {
	ListExpiring(ctx context.Context, today, until time.Time) ([]models.PeriodWithEmployee, error)
	ListOverdue(ctx context.Context, today time.Time) ([]models.PeriodWithEmployee, error)
}

type dashboardConflictReader interface {
	Active(ctx context.Context) ([]models.ConflictReport, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL           time.Duration
	UpcomingLimit      int
	ExpiringWindowDays int
}

// DashboardService composes the HR overview.
type DashboardService struct {
	employees   dashboardEmployeeReader
	requests    dashboardRequestReader
	departments dashboardDepartmentReader
	periods     dashboardPeriodReader
	conflicts   dashboardConflictReader
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Employees   dashboardEmployeeReader
	Requests    dashboardRequestReader
	Departments dashboardDepartmentReader
	Periods     dashboardPeriodReader
	Conflicts   dashboardConflictReader
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 10
	}
	if cfg.ExpiringWindowDays <= 0 {
		cfg.ExpiringWindowDays = models.ExpiringWindowDays
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		employees:   params.Employees,
		requests:    params.Requests,
		departments: params.Departments,
		periods:     params.Periods,
		conflicts:   params.Conflicts,
		cache:       params.Cache,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Summary returns the dashboard payload and whether it was served from cache.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	summary, hit, err := Remember(ctx, s.cache, dashboardCacheKey, s.cfg.CacheTTL, s.compose)
	if err != nil {
		return nil, false, err
	}
	return &summary, hit, nil
}

func (s *DashboardService) compose(ctx context.Context) (dto.DashboardResponse, error) {
	today := dateOnly(s.now())
	resp := dto.DashboardResponse{Date: today.Format(dateLayout)}

	total, active, err := s.employees.Counts(ctx)
	if err != nil {
		return resp, storeError(err, "", "count employees")
	}
	resp.Metrics.TotalEmployees = total
	resp.Metrics.ActiveEmployees = active

	onLeave, err := s.employees.ListOnLeave(ctx, today, "")
	if err != nil {
		return resp, storeError(err, "", "list employees on leave")
	}
	resp.Metrics.OnLeaveToday = len(onLeave)

	if resp.Metrics.PendingRequests, err = s.requests.CountByStatus(ctx, models.RequestStatusPending); err != nil {
		return resp, storeError(err, "", "count pending requests")
	}

	if resp.Upcoming, err = s.requests.ListUpcoming(ctx, today, s.cfg.UpcomingLimit); err != nil {
		return resp, storeError(err, "", "list upcoming departures")
	}
	if resp.Departments, err = s.departments.Summaries(ctx, today); err != nil {
		return resp, storeError(err, "", "summarise departments")
	}

	expiring, err := s.periods.ListExpiring(ctx, today, today.AddDate(0, 0, s.cfg.ExpiringWindowDays))
	if err != nil {
		return resp, storeError(err, "", "list expiring periods")
	}
	resp.Metrics.ExpiringPeriods = len(expiring)

	overdue, err := s.periods.ListOverdue(ctx, today)
	if err != nil {
		return resp, storeError(err, "", "list overdue periods")
	}
	resp.Metrics.OverduePeriods = len(overdue)

	// Conflicts are advisory; a failure degrades the payload instead of failing it.
	if s.conflicts != nil {
		conflicts, err := s.conflicts.Active(ctx)
		if err != nil {
			s.logger.Warn("dashboard conflict check failed", zap.Error(err))
		} else {
			resp.Conflicts = conflicts
			resp.Metrics.ConflictAlerts = len(conflicts)
		}
	}

	if resp.Upcoming == nil {
		resp.Upcoming = []models.VacationRequestDetail{}
	}
	if resp.Departments == nil {
		resp.Departments = []dto.DepartmentSummary{}
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []models.ConflictReport{}
	}
	return resp, nil
}
