package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/repository"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type vacationRequestRepository interface {
	FindByID(ctx context.Context, id string) (*models.VacationRequest, error)
	FindDetail(ctx context.Context, id string) (*models.VacationRequestDetail, error)
	List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, int, error)
	ListUpcoming(ctx context.Context, today time.Time, limit int) ([]models.VacationRequestDetail, error)
	Delete(ctx context.Context, id string) error
}

type periodLedger interface {
	WithPeriod(ctx context.Context, periodID string, fn func(ctx context.Context, l repository.Ledger) error) error
}

type requestConflictChecker interface {
	ForEmployeeLeave(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (*models.ConflictReport, error)
}

type requestEmployeeLookup interface {
	FindByID(ctx context.Context, id string) (*models.EmployeeDetail, error)
}

// VacationRequestService drives the request lifecycle. Every mutation runs
// through the period ledger so the balance is evaluated against a locked,
// consistent read of the period's requests.
type VacationRequestService struct {
	repo      vacationRequestRepository
	ledger    periodLedger
	employees requestEmployeeLookup
	conflicts requestConflictChecker
	cache     *CacheService
	metrics   *MetricsService
	audit     auditLogger
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time

	upcomingLimit int
}

// NewVacationRequestService wires the lifecycle service.
func NewVacationRequestService(
	repo vacationRequestRepository,
	ledger periodLedger,
	employees requestEmployeeLookup,
	conflicts requestConflictChecker,
	cache *CacheService,
	metrics *MetricsService,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	upcomingLimit int,
) *VacationRequestService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if upcomingLimit <= 0 {
		upcomingLimit = 10
	}
	return &VacationRequestService{
		repo:          repo,
		ledger:        ledger,
		employees:     employees,
		conflicts:     conflicts,
		cache:         cache,
		metrics:       metrics,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		now:           time.Now,
		upcomingLimit: upcomingLimit,
	}
}

func (s *VacationRequestService) today() time.Time {
	return dateOnly(s.now())
}

// Get returns a request with its period and employee.
func (s *VacationRequestService) Get(ctx context.Context, id string) (*models.VacationRequestDetail, error) {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return nil, storeError(err, "vacation request not found", "load vacation request")
	}
	return detail, nil
}

// List returns filtered requests with pagination metadata.
func (s *VacationRequestService) List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "", "list vacation requests")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Pending lists requests awaiting a decision.
func (s *VacationRequestService) Pending(ctx context.Context, page, size int) ([]models.VacationRequestDetail, *models.Pagination, error) {
	status := models.RequestStatusPending
	return s.List(ctx, models.VacationRequestFilter{
		Status:    &status,
		Page:      page,
		PageSize:  size,
		SortBy:    "created_at",
		SortOrder: "asc",
	})
}

// Upcoming lists the next leave departures.
func (s *VacationRequestService) Upcoming(ctx context.Context, limit int) ([]models.VacationRequestDetail, error) {
	if limit <= 0 {
		limit = s.upcomingLimit
	}
	items, err := s.repo.ListUpcoming(ctx, s.today(), limit)
	if err != nil {
		return nil, storeError(err, "", "list upcoming departures")
	}
	return items, nil
}

// Create files a new request. Leave gets an advisory conflict check against
// the employee's department.
func (s *VacationRequestService) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateVacationRequest) (*dto.VacationRequestResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vacation request payload")
	}

	today := s.today()
	proposal, err := buildProposal(req.Type, req.Days, req.StartDate, req.EndDate, today)
	if err != nil {
		return nil, err
	}

	var created models.VacationRequest
	var employeeID string
	err = s.ledger.WithPeriod(ctx, req.PeriodID, func(ctx context.Context, l repository.Ledger) error {
		period := l.Period()
		if err := checkPeriodOpen(period, today); err != nil {
			return err
		}
		if err := ValidateProposal(period, l.Requests(), proposal, today); err != nil {
			return err
		}

		now := s.now().UTC()
		created = models.VacationRequest{
			ID:        uuid.NewString(),
			PeriodID:  period.ID,
			StartDate: proposal.StartDate,
			EndDate:   proposal.EndDate,
			Days:      proposal.Days,
			Type:      proposal.Type,
			Status:    models.RequestStatusPending,
			Notes:     trimmedOrNil(req.Notes),
			CreatedAt: now,
			UpdatedAt: now,
		}
		employeeID = period.EmployeeID
		return l.InsertRequest(ctx, &created)
	})
	if err != nil {
		return nil, storeError(err, "acquisition period not found", "create vacation request")
	}

	s.afterTransition(ctx, employeeID, &created)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestCreate, "vacation_request", created.ID, nil, created)

	result := &dto.VacationRequestResult{Request: &created}
	if created.Type == models.RequestTypeLeave && s.conflicts != nil {
		report, err := s.conflicts.ForEmployeeLeave(ctx, employeeID, created.StartDate, created.EndDate, created.ID)
		if err != nil {
			s.logger.Warn("conflict check failed", zap.String("request_id", created.ID), zap.Error(err))
		} else {
			result.Conflict = report
		}
	}
	return result, nil
}

// Update edits a pending request and re-runs the full validation with the
// request itself left out of the existing set.
func (s *VacationRequestService) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateVacationRequest) (*models.VacationRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid vacation request payload")
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "vacation request not found", "load vacation request")
	}

	today := s.today()
	var before, updated models.VacationRequest
	var employeeID string
	err = s.ledger.WithPeriod(ctx, current.PeriodID, func(ctx context.Context, l repository.Ledger) error {
		target, err := findInLedger(l, id)
		if err != nil {
			return err
		}
		if err := CheckEditable(target); err != nil {
			return err
		}
		before = *target
		updated = *target

		start, end := formatDate(target.StartDate), formatDate(target.EndDate)
		if req.StartDate != nil {
			start = *req.StartDate
		}
		if req.EndDate != nil {
			end = *req.EndDate
		}
		days := target.Days
		if req.Days != nil {
			days = *req.Days
		}
		proposal, err := buildProposal(target.Type, days, start, end, today)
		if err != nil {
			return err
		}

		period := l.Period()
		if err := checkPeriodOpen(period, today); err != nil {
			return err
		}
		if err := ValidateProposal(period, excludeRequest(l.Requests(), id), proposal, today); err != nil {
			return err
		}

		updated.StartDate = proposal.StartDate
		updated.EndDate = proposal.EndDate
		updated.Days = proposal.Days
		if req.Notes != nil {
			updated.Notes = trimmedOrNil(req.Notes)
		}
		updated.UpdatedAt = s.now().UTC()
		employeeID = period.EmployeeID
		return l.UpdateRequest(ctx, &updated, models.RequestStatusPending)
	})
	if err != nil {
		return nil, storeError(err, "vacation request not found", "update vacation request")
	}

	s.invalidate(ctx, employeeID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestUpdate, "vacation_request", id, before, updated)
	return &updated, nil
}

// Approve re-checks the balance under the period lock, excluding the request
// itself, and records the approver.
func (s *VacationRequestService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.VacationRequest, error) {
	var approved models.VacationRequest
	employeeID, err := s.transition(ctx, id, func(l repository.Ledger, target *models.VacationRequest, today time.Time) error {
		if err := CheckApprovable(l.Period(), l.Requests(), target, today); err != nil {
			return err
		}
		now := s.now().UTC()
		approved = *target
		approved.Status = models.RequestStatusApproved
		approved.ApprovedAt = &now
		if actor != nil {
			approver := actor.UserID
			approved.ApprovedBy = &approver
		}
		approved.UpdatedAt = now
		return l.UpdateRequest(ctx, &approved, models.RequestStatusPending)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, employeeID, &approved)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestApprove, "vacation_request", id,
		map[string]models.RequestStatus{"status": models.RequestStatusPending}, approved)
	return &approved, nil
}

// Reject closes a pending request with a reason.
func (s *VacationRequestService) Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectVacationRequest) (*models.VacationRequest, error) {
	var rejected models.VacationRequest
	employeeID, err := s.transition(ctx, id, func(l repository.Ledger, target *models.VacationRequest, _ time.Time) error {
		reason, err := CheckRejectable(target, req.Reason)
		if err != nil {
			return err
		}
		rejected = *target
		rejected.Status = models.RequestStatusRejected
		rejected.RejectionReason = &reason
		rejected.UpdatedAt = s.now().UTC()
		return l.UpdateRequest(ctx, &rejected, models.RequestStatusPending)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, employeeID, &rejected)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestReject, "vacation_request", id,
		map[string]models.RequestStatus{"status": models.RequestStatusPending}, rejected)
	return &rejected, nil
}

// Cancel withdraws a pending request, an approved sale, or approved leave that
// has not started yet.
func (s *VacationRequestService) Cancel(ctx context.Context, actor *models.JWTClaims, id string, req dto.CancelVacationRequest) (*models.VacationRequest, error) {
	var cancelled models.VacationRequest
	var previous models.RequestStatus
	employeeID, err := s.transition(ctx, id, func(l repository.Ledger, target *models.VacationRequest, today time.Time) error {
		reason, err := CheckCancellable(target, req.Reason, today)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		previous = target.Status
		cancelled = *target
		cancelled.Status = models.RequestStatusCancelled
		cancelled.CancellationReason = &reason
		cancelled.CancelledAt = &now
		cancelled.UpdatedAt = now
		return l.UpdateRequest(ctx, &cancelled, previous)
	})
	if err != nil {
		return nil, err
	}

	s.afterTransition(ctx, employeeID, &cancelled)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestCancel, "vacation_request", id,
		map[string]models.RequestStatus{"status": previous}, cancelled)
	return &cancelled, nil
}

// Delete removes a request without any lifecycle guard.
func (s *VacationRequestService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	detail, err := s.repo.FindDetail(ctx, id)
	if err != nil {
		return storeError(err, "vacation request not found", "load vacation request")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "vacation request not found", "delete vacation request")
	}
	s.invalidate(ctx, detail.EmployeeID)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRequestDelete, "vacation_request", id, detail.VacationRequest, nil)
	return nil
}

func (s *VacationRequestService) transition(ctx context.Context, id string, apply func(l repository.Ledger, target *models.VacationRequest, today time.Time) error) (string, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", storeError(err, "vacation request not found", "load vacation request")
	}

	today := s.today()
	var employeeID string
	err = s.ledger.WithPeriod(ctx, current.PeriodID, func(ctx context.Context, l repository.Ledger) error {
		target, err := findInLedger(l, id)
		if err != nil {
			return err
		}
		employeeID = l.Period().EmployeeID
		return apply(l, target, today)
	})
	if err != nil {
		return "", storeError(err, "vacation request not found", "update vacation request")
	}
	return employeeID, nil
}

func (s *VacationRequestService) afterTransition(ctx context.Context, employeeID string, req *models.VacationRequest) {
	if s.metrics != nil {
		s.metrics.RecordTransition(req.Type, req.Status)
	}
	s.invalidate(ctx, employeeID)
}

func (s *VacationRequestService) invalidate(ctx context.Context, employeeID string) {
	if employeeID == "" {
		s.cache.Drop(ctx, dashboardCacheKey)
		return
	}
	s.cache.Drop(ctx, employeeBalanceKey(employeeID), dashboardCacheKey)
}

func findInLedger(l repository.Ledger, id string) (*models.VacationRequest, error) {
	for _, r := range l.Requests() {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "vacation request not found")
}

// checkPeriodOpen rejects filings against settled, expired or overdue periods.
func checkPeriodOpen(period models.AcquisitionPeriod, today time.Time) error {
	if period.Status != models.PeriodStatusActive {
		return appErrors.Clonef(appErrors.ErrInvalidState, "period %d is %s", period.Number, period.Status)
	}
	if dateOnly(today).After(dateOnly(period.LeaveDeadline)) {
		return appErrors.Clonef(appErrors.ErrInvalidState, "period %d is past its leave deadline", period.Number)
	}
	return nil
}

// buildProposal parses the payload dates. Sales carry placeholder dates that
// default to today.
func buildProposal(reqType models.RequestType, days int, rawStart, rawEnd string, today time.Time) (Proposal, error) {
	p := Proposal{Type: reqType, Days: days}

	start, err := optionalDate(rawStart)
	if err != nil {
		return p, err
	}
	end, err := optionalDate(rawEnd)
	if err != nil {
		return p, err
	}

	if reqType == models.RequestTypeSale {
		if start.IsZero() {
			start = today
		}
		if end.IsZero() {
			end = start
		}
	}
	p.StartDate, p.EndDate = start, end
	return p, nil
}

func optionalDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return time.Time{}, appErrors.Clonef(appErrors.ErrValidation, "invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
