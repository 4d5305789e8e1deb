package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
}

// DepartmentService manages departments and their absence limits.
type DepartmentService struct {
	repo      departmentRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs a DepartmentService.
func NewDepartmentService(repo departmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns departments.
func (s *DepartmentService) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error) {
	departments, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, storeError(err, "", "list departments")
	}
	return departments, nil
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "department not found", "load department")
	}
	return department, nil
}

// Create registers a department; the absence limit defaults to 1.
func (s *DepartmentService) Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	name := strings.TrimSpace(req.Name)
	if err := s.ensureUniqueName(ctx, name, ""); err != nil {
		return nil, err
	}

	department := &models.Department{
		Name:         name,
		Code:         trimmedOrNil(req.Code),
		AbsenceLimit: models.DefaultAbsenceLimit,
		Active:       true,
	}
	if req.AbsenceLimit != nil {
		department.AbsenceLimit = *req.AbsenceLimit
	}

	if err := s.repo.Create(ctx, department); err != nil {
		return nil, storeError(err, "", "create department")
	}
	s.cache.Drop(ctx, dashboardCacheKey)
	return department, nil
}

// Update changes department fields; deactivation is done through Active.
func (s *DepartmentService) Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid department payload")
	}
	department, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !strings.EqualFold(name, department.Name) {
			if err := s.ensureUniqueName(ctx, name, id); err != nil {
				return nil, err
			}
		}
		department.Name = name
	}
	if req.Code != nil {
		department.Code = trimmedOrNil(req.Code)
	}
	if req.AbsenceLimit != nil {
		department.AbsenceLimit = *req.AbsenceLimit
	}
	if req.Active != nil {
		department.Active = *req.Active
	}

	if err := s.repo.Update(ctx, department); err != nil {
		return nil, storeError(err, "department not found", "update department")
	}
	s.cache.Drop(ctx, dashboardCacheKey)
	return department, nil
}

// Deactivate soft-deletes a department.
func (s *DepartmentService) Deactivate(ctx context.Context, id string) error {
	inactive := false
	_, err := s.Update(ctx, id, dto.UpdateDepartmentRequest{Active: &inactive})
	return err
}

func (s *DepartmentService) ensureUniqueName(ctx context.Context, name, excludeID string) error {
	exists, err := s.repo.ExistsByName(ctx, name, excludeID)
	if err != nil {
		return storeError(err, "", "check department name")
	}
	if exists {
		return appErrors.Clonef(appErrors.ErrConflict, "department %q already exists", name)
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
