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
	"github.com/noah-isme/ferias-api/pkg/database"
)

const employeeColumns = `e.id, e.name, e.email, e.registration_number, e.job_title, e.hire_date, e.active, e.avatar_url, e.department_id, e.created_at, e.updated_at`

// EmployeeRepository handles persistence for employees.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository instantiates an employee repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// List returns employees with their department names and the total count.
func (r *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, int, error) {
	base := "FROM employees e JOIN departments d ON d.id = e.department_id WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.department_id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("e.active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(e.name) LIKE $%d OR LOWER(e.email) LIKE $%d OR LOWER(COALESCE(e.registration_number, '')) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":       "e.name",
		"hire_date":  "e.hire_date",
		"created_at": "e.created_at",
		"department": "d.name",
	}
	sortBy, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortBy = "e.name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s, d.name AS department_name %s ORDER BY %s %s LIMIT %d OFFSET %d", employeeColumns, base, sortBy, sortOrder, size, offset)
	var employees []models.EmployeeDetail
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return employees, total, nil
}

// ListActive returns every active employee ordered by hire date.
func (r *EmployeeRepository) ListActive(ctx context.Context) ([]models.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM employees e WHERE e.active = TRUE ORDER BY e.hire_date ASC, e.id ASC"
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query); err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	return employees, nil
}

// FindByID fetches an employee with its department name.
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	query := "SELECT " + employeeColumns + ", d.name AS department_name FROM employees e JOIN departments d ON d.id = e.department_id WHERE e.id = $1"
	var employee models.EmployeeDetail
	if err := r.db.GetContext(ctx, &employee, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get employee: %w", err)
	}
	return &employee, nil
}

// ExistsByEmail checks email uniqueness case-insensitively, skipping excludeID.
func (r *EmployeeRepository) ExistsByEmail(ctx context.Context, email, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM employees WHERE LOWER(email) = LOWER($1) AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check employee email: %w", err)
	}
	return exists, nil
}

// ExistsByRegistration checks registration number uniqueness, skipping excludeID.
func (r *EmployeeRepository) ExistsByRegistration(ctx context.Context, registration, excludeID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM employees WHERE registration_number = $1 AND id::text <> $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, registration, excludeID); err != nil {
		return false, fmt.Errorf("check employee registration: %w", err)
	}
	return exists, nil
}

// CreateWithPeriods inserts the employee and its initial periods atomically.
func (r *EmployeeRepository) CreateWithPeriods(ctx context.Context, employee *models.Employee, periods []models.AcquisitionPeriod) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now

	const insertEmployee = `INSERT INTO employees (id, name, email, registration_number, job_title, hire_date, active, avatar_url, department_id, created_at, updated_at)
VALUES (:id, :name, :email, :registration_number, :job_title, :hire_date, :active, :avatar_url, :department_id, :created_at, :updated_at)`
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx, insertEmployee, employee); err != nil {
			return fmt.Errorf("create employee: %w", err)
		}
		for i := range periods {
			periods[i].EmployeeID = employee.ID
			if err := insertPeriod(ctx, tx, &periods[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Update persists mutable employee fields.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	const query = `UPDATE employees SET name = :name, email = :email, registration_number = :registration_number, job_title = :job_title,
avatar_url = :avatar_url, department_id = :department_id, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}

// SetActive toggles the soft-delete flag.
func (r *EmployeeRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE employees SET active = $2, updated_at = $3 WHERE id = $1`, id, active, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set employee active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the employee with all periods and requests in one transaction.
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vacation_requests WHERE period_id IN (SELECT id FROM acquisition_periods WHERE employee_id = $1)`, id); err != nil {
			return fmt.Errorf("delete employee requests: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM acquisition_periods WHERE employee_id = $1`, id); err != nil {
			return fmt.Errorf("delete employee periods: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete employee: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

// ListOnLeave returns active employees with approved leave covering day.
func (r *EmployeeRepository) ListOnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error) {
	query := `
SELECT
	e.id AS employee_id,
	e.name AS employee_name,
	d.name AS department_name,
	vr.id AS request_id,
	vr.start_date,
	vr.end_date
FROM vacation_requests vr
JOIN acquisition_periods p ON p.id = vr.period_id
JOIN employees e ON e.id = p.employee_id
JOIN departments d ON d.id = e.department_id
WHERE vr.status = 'APROVADO' AND vr.type = 'GOZO'
	AND vr.start_date <= $1 AND vr.end_date >= $1
	AND e.active = TRUE`
	args := []interface{}{day}
	if departmentID != "" {
		args = append(args, departmentID)
		query += fmt.Sprintf(" AND e.department_id = $%d", len(args))
	}
	query += " ORDER BY e.name ASC"

	var entries []dto.OnLeaveEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list employees on leave: %w", err)
	}
	return entries, nil
}

// Counts returns the total and active employee counts.
func (r *EmployeeRepository) Counts(ctx context.Context) (total int, active int, err error) {
	var row struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	const query = `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE active) AS active FROM employees`
	if err := r.db.GetContext(ctx, &row, query); err != nil {
		return 0, 0, fmt.Errorf("count employees: %w", err)
	}
	return row.Total, row.Active, nil
}
