package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type conflictRepository interface {
	FindConflicts(ctx context.Context, departmentID string, start, end time.Time, excludeID string) ([]models.ConflictEntry, error)
}

type conflictDepartmentReader interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type conflictEmployeeReader interface {
	FindByID(ctx context.Context, id string) (*models.EmployeeDetail, error)
}

// ConflictService runs the advisory concurrent-absence checks.
type ConflictService struct {
	requests    conflictRepository
	departments conflictDepartmentReader
	employees   conflictEmployeeReader
	logger      *zap.Logger
	now         func() time.Time
	lookahead   int
}

// NewConflictService constructs a ConflictService. lookaheadDays bounds the
// window of Active.
func NewConflictService(requests conflictRepository, departments conflictDepartmentReader, employees conflictEmployeeReader, logger *zap.Logger, lookaheadDays int) *ConflictService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lookaheadDays <= 0 {
		lookaheadDays = 30
	}
	return &ConflictService{
		requests:    requests,
		departments: departments,
		employees:   employees,
		logger:      logger,
		now:         time.Now,
		lookahead:   lookaheadDays,
	}
}

// Detect returns approved leave of the department overlapping [start, end].
func (s *ConflictService) Detect(ctx context.Context, departmentID string, start, end time.Time, excludeID string) (*models.ConflictReport, error) {
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrRuleViolation, "window end must not be before its start")
	}
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		return nil, storeError(err, "department not found", "load department")
	}
	return s.detect(ctx, *dept, start, end, excludeID)
}

// ForEmployeeLeave checks a leave window against the employee's department.
func (s *ConflictService) ForEmployeeLeave(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (*models.ConflictReport, error) {
	employee, err := s.employees.FindByID(ctx, employeeID)
	if err != nil {
		return nil, storeError(err, "employee not found", "load employee")
	}
	return s.Detect(ctx, employee.DepartmentID, start, end, excludeID)
}

// Active reports, per active department, conflicts over the lookahead window
// starting today. Only departments reaching their limit are returned.
func (s *ConflictService) Active(ctx context.Context) ([]models.ConflictReport, error) {
	active := true
	departments, err := s.departments.List(ctx, models.DepartmentFilter{Active: &active})
	if err != nil {
		return nil, storeError(err, "", "list departments")
	}

	start := dateOnly(s.now())
	end := start.AddDate(0, 0, s.lookahead)
	reports := make([]models.ConflictReport, 0)
	for _, dept := range departments {
		report, err := s.detect(ctx, dept, start, end, "")
		if err != nil {
			return nil, err
		}
		if report.ExceedsLimit {
			reports = append(reports, *report)
		}
	}
	return reports, nil
}

func (s *ConflictService) detect(ctx context.Context, dept models.Department, start, end time.Time, excludeID string) (*models.ConflictReport, error) {
	start, end = dateOnly(start), dateOnly(end)
	candidates, err := s.requests.FindConflicts(ctx, dept.ID, start, end, excludeID)
	if err != nil {
		return nil, storeError(err, "", "find conflicts")
	}
	report := DetectConflicts(dept, start, end, candidates)
	if report.ExceedsLimit {
		s.logger.Debug("absence limit reached",
			zap.String("department_id", dept.ID),
			zap.Int("count", report.Count),
			zap.Int("limit", report.Limit))
	}
	return &report, nil
}
