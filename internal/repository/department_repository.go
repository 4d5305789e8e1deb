package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
)

const departmentColumns = `id, name, code, absence_limit, active, created_at, updated_at`

// DepartmentRepository handles persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository instantiates a department repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error) {
	query := "SELECT " + departmentColumns + " FROM departments WHERE 1=1"
	var args []interface{}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		query += fmt.Sprintf(" AND active = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		query += fmt.Sprintf(" AND (LOWER(name) LIKE $%d OR LOWER(COALESCE(code, '')) LIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY name ASC"

	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, query, args...); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID fetches a department by id.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var department models.Department
	if err := r.db.GetContext(ctx, &department, "SELECT "+departmentColumns+" FROM departments WHERE id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get department: %w", err)
	}
	return &department, nil
}

// ExistsByName checks name uniqueness case-insensitively, skipping excludeID.
func (r *DepartmentRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM departments WHERE LOWER(name) = LOWER($1) AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, name, excludeID); err != nil {
		return false, fmt.Errorf("check department name: %w", err)
	}
	return exists, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	department.CreatedAt = now
	department.UpdatedAt = now

	const query = `INSERT INTO departments (id, name, code, absence_limit, active, created_at, updated_at)
VALUES (:id, :name, :code, :absence_limit, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update persists mutable department fields.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	department.UpdatedAt = time.Now().UTC()
	const query = `UPDATE departments SET name = :name, code = :code, absence_limit = :absence_limit, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return nil
}

// Summaries returns headcount and today's absences per active department.
func (r *DepartmentRepository) Summaries(ctx context.Context, day time.Time) ([]dto.DepartmentSummary, error) {
	const query = `
SELECT
	d.id AS department_id,
	d.name AS department_name,
	d.absence_limit,
	COUNT(DISTINCT e.id) FILTER (WHERE e.active) AS headcount,
	COUNT(DISTINCT e.id) FILTER (WHERE e.active AND vr.id IS NOT NULL) AS on_leave_today
FROM departments d
LEFT JOIN employees e ON e.department_id = d.id
LEFT JOIN acquisition_periods p ON p.employee_id = e.id
LEFT JOIN vacation_requests vr ON vr.period_id = p.id
	AND vr.status = 'APROVADO' AND vr.type = 'GOZO'
	AND vr.start_date <= $1 AND vr.end_date >= $1
WHERE d.active = TRUE
GROUP BY d.id, d.name, d.absence_limit
ORDER BY d.name ASC`
	var rows []dto.DepartmentSummary
	if err := r.db.SelectContext(ctx, &rows, query, day); err != nil {
		return nil, fmt.Errorf("department summaries: %w", err)
	}
	return rows, nil
}
