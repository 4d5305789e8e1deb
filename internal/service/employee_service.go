package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type employeeRepository interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.EmployeeDetail, error)
	ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error)
	ExistsByRegistration(ctx context.Context, registration, excludeID string) (bool, error)
	CreateWithPeriods(ctx context.Context, employee *models.Employee, periods []models.AcquisitionPeriod) error
	Update(ctx context.Context, employee *models.Employee) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	ListOnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error)
}

type employeeDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type employeePeriodReader interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error)
}

type employeeRequestReader interface {
	ListByPeriodIDs(ctx context.Context, periodIDs []string) ([]models.VacationRequest, error)
}

// EmployeeService manages employees and their aggregated balances.
type EmployeeService struct {
	repo        employeeRepository
	departments employeeDepartmentReader
	periods     employeePeriodReader
	requests    employeeRequestReader
	cache       *CacheService
	audit       auditLogger
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	balanceTTL  time.Duration
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(
	repo employeeRepository,
	departments employeeDepartmentReader,
	periods employeePeriodReader,
	requests employeeRequestReader,
	cache *CacheService,
	audit auditLogger,
	validate *validator.Validate,
	logger *zap.Logger,
	balanceTTL time.Duration,
) *EmployeeService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{
		repo:        repo,
		departments: departments,
		periods:     periods,
		requests:    requests,
		cache:       cache,
		audit:       audit,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		balanceTTL:  balanceTTL,
	}
}

// List returns employees with pagination metadata.
func (s *EmployeeService) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, *models.Pagination, error) {
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, storeError(err, "", "list employees")
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns an employee with its department name.
func (s *EmployeeService) Get(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "employee not found", "load employee")
	}
	return employee, nil
}

// Create registers an employee and generates every period elapsed since the
// hire date in the same transaction.
func (s *EmployeeService) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	hireDate, err := parseDate(req.HireDate)
	if err != nil {
		return nil, appErrors.Clonef(appErrors.ErrValidation, "invalid hire date %q", req.HireDate)
	}
	today := dateOnly(s.now())
	if hireDate.After(today) {
		return nil, appErrors.Clone(appErrors.ErrRuleViolation, "hire date cannot be in the future")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	registration := trimmedOrNil(req.RegistrationNumber)
	if err := s.ensureUnique(ctx, email, registration, ""); err != nil {
		return nil, err
	}
	department, err := s.departments.FindByID(ctx, req.DepartmentID)
	if err != nil {
		return nil, storeError(err, "department not found", "load department")
	}

	employee := &models.Employee{
		ID:                 uuid.NewString(),
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		RegistrationNumber: registration,
		JobTitle:           trimmedOrNil(req.JobTitle),
		HireDate:           hireDate,
		Active:             true,
		AvatarURL:          trimmedOrNil(req.AvatarURL),
		DepartmentID:       department.ID,
	}
	periods := GeneratePeriods(employee.ID, hireDate, today)
	if err := s.repo.CreateWithPeriods(ctx, employee, periods); err != nil {
		return nil, storeError(err, "", "create employee")
	}

	s.logger.Info("employee created",
		zap.String("employee_id", employee.ID),
		zap.Int("periods", len(periods)))
	s.cache.Drop(ctx, dashboardCacheKey)
	return &models.EmployeeDetail{Employee: *employee, DepartmentName: department.Name}, nil
}

// Update changes employee fields, rechecking uniqueness when email or
// registration change. The hire date is immutable once periods exist.
func (s *EmployeeService) Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.EmployeeDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid employee payload")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	employee := current.Employee

	email := ""
	if req.Email != nil {
		if e := strings.ToLower(strings.TrimSpace(*req.Email)); e != employee.Email {
			email = e
		}
	}
	var registration *string
	if req.RegistrationNumber != nil {
		r := trimmedOrNil(req.RegistrationNumber)
		if r != nil && (employee.RegistrationNumber == nil || *r != *employee.RegistrationNumber) {
			registration = r
		}
		employee.RegistrationNumber = r
	}
	if err := s.ensureUnique(ctx, email, registration, id); err != nil {
		return nil, err
	}
	if email != "" {
		employee.Email = email
	}

	if req.Name != nil {
		employee.Name = strings.TrimSpace(*req.Name)
	}
	if req.JobTitle != nil {
		employee.JobTitle = trimmedOrNil(req.JobTitle)
	}
	if req.AvatarURL != nil {
		employee.AvatarURL = trimmedOrNil(req.AvatarURL)
	}
	departmentName := current.DepartmentName
	if req.DepartmentID != nil && *req.DepartmentID != employee.DepartmentID {
		department, err := s.departments.FindByID(ctx, *req.DepartmentID)
		if err != nil {
			return nil, storeError(err, "department not found", "load department")
		}
		employee.DepartmentID = department.ID
		departmentName = department.Name
	}

	if err := s.repo.Update(ctx, &employee); err != nil {
		return nil, storeError(err, "employee not found", "update employee")
	}
	s.cache.Drop(ctx, employeeBalanceKey(id), dashboardCacheKey)
	return &models.EmployeeDetail{Employee: employee, DepartmentName: departmentName}, nil
}

// SetActive deactivates or reactivates an employee. Periods and requests are kept.
func (s *EmployeeService) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return storeError(err, "employee not found", "update employee")
	}
	s.cache.Drop(ctx, employeeBalanceKey(id), dashboardCacheKey)
	return nil
}

// Delete hard-deletes the employee with its periods and requests.
func (s *EmployeeService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError(err, "employee not found", "delete employee")
	}
	s.cache.Drop(ctx, employeeBalanceKey(id), dashboardCacheKey)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionEmployeeDelete, "employee", id, current.Employee, nil)
	return nil
}

// OnLeave lists employees on approved leave on day.
func (s *EmployeeService) OnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error) {
	if day.IsZero() {
		day = s.now()
	}
	entries, err := s.repo.ListOnLeave(ctx, dateOnly(day), departmentID)
	if err != nil {
		return nil, storeError(err, "", "list employees on leave")
	}
	if entries == nil {
		entries = []dto.OnLeaveEntry{}
	}
	return entries, nil
}

// Balance returns the aggregated balance of an employee. The result is cached
// and reports whether it came from the cache.
func (s *EmployeeService) Balance(ctx context.Context, id string) (*models.EmployeeBalance, bool, error) {
	balance, hit, err := Remember(ctx, s.cache, employeeBalanceKey(id), s.balanceTTL, func(ctx context.Context) (models.EmployeeBalance, error) {
		employee, err := s.Get(ctx, id)
		if err != nil {
			return models.EmployeeBalance{}, err
		}
		return s.computeBalance(ctx, employee.Employee)
	})
	if err != nil {
		return nil, false, err
	}
	return &balance, hit, nil
}

func (s *EmployeeService) computeBalance(ctx context.Context, employee models.Employee) (models.EmployeeBalance, error) {
	periods, err := s.periods.ListByEmployee(ctx, employee.ID)
	if err != nil {
		return models.EmployeeBalance{}, storeError(err, "", "list acquisition periods")
	}
	ids := make([]string, 0, len(periods))
	for _, p := range periods {
		ids = append(ids, p.ID)
	}

	var requests []models.VacationRequest
	if len(ids) > 0 {
		requests, err = s.requests.ListByPeriodIDs(ctx, ids)
		if err != nil {
			return models.EmployeeBalance{}, storeError(err, "", "list vacation requests")
		}
	}

	byPeriod := make(map[string][]models.VacationRequest, len(periods))
	for _, r := range requests {
		byPeriod[r.PeriodID] = append(byPeriod[r.PeriodID], r)
	}

	today := dateOnly(s.now())
	balances := make([]models.PeriodBalance, 0, len(periods))
	for _, p := range periods {
		balances = append(balances, ComputeBalance(p, byPeriod[p.ID], today))
	}
	return AggregateBalances(employee, balances), nil
}

func (s *EmployeeService) ensureUnique(ctx context.Context, email string, registration *string, excludeID string) error {
	if email != "" {
		exists, err := s.repo.ExistsByEmail(ctx, email, excludeID)
		if err != nil {
			return storeError(err, "", "check employee email")
		}
		if exists {
			return appErrors.Clonef(appErrors.ErrConflict, "email %s is already registered", email)
		}
	}
	if registration != nil {
		exists, err := s.repo.ExistsByRegistration(ctx, *registration, excludeID)
		if err != nil {
			return storeError(err, "", "check employee registration")
		}
		if exists {
			return appErrors.Clonef(appErrors.ErrConflict, "registration %s is already in use", *registration)
		}
	}
	return nil
}
