package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/repository"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type periodRepository interface {
	FindByID(ctx context.Context, id string) (*models.AcquisitionPeriod, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error)
	ListExpiring(ctx context.Context, today, until time.Time) ([]models.PeriodWithEmployee, error)
	ListOverdue(ctx context.Context, today time.Time) ([]models.PeriodWithEmployee, error)
	SetIgnored(ctx context.Context, id string, ignored bool) error
	UpdateNotes(ctx context.Context, id string, notes *string) error
}

type periodRequestReader interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.VacationRequest, error)
}

// PeriodService exposes acquisition periods, their balances and direct sales.
type PeriodService struct {
	repo      periodRepository
	requests  periodRequestReader
	ledger    periodLedger
	cache     *CacheService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	expiringWindow int
}

// NewPeriodService constructs a PeriodService.
func NewPeriodService(repo periodRepository, requests periodRequestReader, ledger periodLedger, cache *CacheService, audit auditLogger, validate *validator.Validate, logger *zap.Logger, expiringWindowDays int) *PeriodService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if expiringWindowDays <= 0 {
		expiringWindowDays = models.ExpiringWindowDays
	}
	return &PeriodService{
		repo:           repo,
		requests:       requests,
		ledger:         ledger,
		cache:          cache,
		audit:          audit,
		validator:      validate,
		logger:         logger,
		now:            time.Now,
		expiringWindow: expiringWindowDays,
	}
}

// Get returns a period by id.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.AcquisitionPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "acquisition period not found", "load acquisition period")
	}
	return period, nil
}

// ListByEmployee returns the periods of an employee ordered by number.
func (s *PeriodService) ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error) {
	periods, err := s.repo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, storeError(err, "", "list acquisition periods")
	}
	return periods, nil
}

// Balance computes the current balance of one period.
func (s *PeriodService) Balance(ctx context.Context, id string) (*models.PeriodBalance, error) {
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	requests, err := s.requests.ListByPeriod(ctx, id)
	if err != nil {
		return nil, storeError(err, "", "list period requests")
	}
	balance := ComputeBalance(*period, requests, dateOnly(s.now()))
	return &balance, nil
}

// Expiring lists active periods whose deadline falls within days from today.
func (s *PeriodService) Expiring(ctx context.Context, days int) ([]models.PeriodWithEmployee, error) {
	if days <= 0 {
		days = s.expiringWindow
	}
	today := dateOnly(s.now())
	periods, err := s.repo.ListExpiring(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, storeError(err, "", "list expiring periods")
	}
	return periods, nil
}

// Overdue lists periods past their deadline that still carry days.
func (s *PeriodService) Overdue(ctx context.Context) ([]models.PeriodWithEmployee, error) {
	periods, err := s.repo.ListOverdue(ctx, dateOnly(s.now()))
	if err != nil {
		return nil, storeError(err, "", "list overdue periods")
	}
	return periods, nil
}

// SetIgnored excludes a period from aggregation, or restores it.
func (s *PeriodService) SetIgnored(ctx context.Context, id string, ignored bool) (*models.AcquisitionPeriod, error) {
	if err := s.repo.SetIgnored(ctx, id, ignored); err != nil {
		return nil, storeError(err, "acquisition period not found", "update acquisition period")
	}
	period, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Drop(ctx, employeeBalanceKey(period.EmployeeID), dashboardCacheKey)
	return period, nil
}

// UpdateNotes replaces the notes of a period.
func (s *PeriodService) UpdateNotes(ctx context.Context, id string, req dto.UpdatePeriodNotesRequest) (*models.AcquisitionPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid notes payload")
	}
	if err := s.repo.UpdateNotes(ctx, id, trimmedOrNil(req.Notes)); err != nil {
		return nil, storeError(err, "acquisition period not found", "update acquisition period")
	}
	return s.Get(ctx, id)
}

// RegisterSale adds days sold directly on the period.
func (s *PeriodService) RegisterSale(ctx context.Context, actor *models.JWTClaims, id string, req dto.RegisterSaleRequest) (*models.PeriodBalance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid sale payload")
	}

	today := dateOnly(s.now())
	var before int
	var after models.PeriodBalance
	var employeeID string
	err := s.ledger.WithPeriod(ctx, id, func(ctx context.Context, l repository.Ledger) error {
		period := l.Period()
		if period.Status != models.PeriodStatusActive {
			return appErrors.Clonef(appErrors.ErrInvalidState, "cannot sell days of a period with status %s", period.Status)
		}

		balance := ComputeBalance(period, l.Requests(), today)
		if balance.TotalSold+req.Days > models.MaxSoldDays {
			return appErrors.Clonef(appErrors.ErrRuleViolation,
				"sale limit exceeded: %d days already sold, at most %d more allowed",
				balance.TotalSold, max(models.MaxSoldDays-balance.TotalSold, 0))
		}
		if req.Days > balance.Available {
			return appErrors.Clonef(appErrors.ErrRuleViolation,
				"insufficient balance: %d days requested, %d available", req.Days, balance.Available)
		}

		before = period.SoldDays
		employeeID = period.EmployeeID
		if err := l.UpdateSoldDays(ctx, period.SoldDays+req.Days); err != nil {
			return err
		}
		period.SoldDays += req.Days
		after = ComputeBalance(period, l.Requests(), today)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "acquisition period not found", "register sale")
	}

	s.cache.Drop(ctx, employeeBalanceKey(employeeID), dashboardCacheKey)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSaleRegister, "acquisition_period", id,
		map[string]int{"sold_days": before}, map[string]int{"sold_days": after.SoldField})
	return &after, nil
}

// CancelSale resets the directly sold days to zero.
func (s *PeriodService) CancelSale(ctx context.Context, actor *models.JWTClaims, id string) (*models.PeriodBalance, error) {
	today := dateOnly(s.now())
	var before int
	var after models.PeriodBalance
	var employeeID string
	err := s.ledger.WithPeriod(ctx, id, func(ctx context.Context, l repository.Ledger) error {
		period := l.Period()
		if period.SoldDays == 0 {
			return appErrors.Clone(appErrors.ErrRuleViolation, "there is no sale to cancel on this period")
		}
		before = period.SoldDays
		employeeID = period.EmployeeID
		if err := l.UpdateSoldDays(ctx, 0); err != nil {
			return err
		}
		period.SoldDays = 0
		after = ComputeBalance(period, l.Requests(), today)
		return nil
	})
	if err != nil {
		return nil, storeError(err, "acquisition period not found", "cancel sale")
	}

	s.cache.Drop(ctx, employeeBalanceKey(employeeID), dashboardCacheKey)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionSaleCancel, "acquisition_period", id,
		map[string]int{"sold_days": before}, map[string]int{"sold_days": 0})
	return &after, nil
}
