package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ferias-api/internal/models"
)

const periodColumns = `p.id, p.employee_id, p.number, p.acquisition_start, p.acquisition_end, p.leave_deadline, p.entitled_days, p.sold_days, p.status, p.ignored, p.notes, p.created_at, p.updated_at`

const periodWithEmployeeSelect = `SELECT ` + periodColumns + `, e.name AS employee_name, e.department_id, d.name AS department_name
FROM acquisition_periods p
JOIN employees e ON e.id = p.employee_id
JOIN departments d ON d.id = e.department_id`

// PeriodRepository handles persistence for acquisition periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository instantiates a period repository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

func insertPeriod(ctx context.Context, exec sqlx.ExtContext, period *models.AcquisitionPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now

	const query = `INSERT INTO acquisition_periods (id, employee_id, number, acquisition_start, acquisition_end, leave_deadline, entitled_days, sold_days, status, ignored, notes, created_at, updated_at)
VALUES (:id, :employee_id, :number, :acquisition_start, :acquisition_end, :leave_deadline, :entitled_days, :sold_days, :status, :ignored, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, period); err != nil {
		return fmt.Errorf("create period %d: %w", period.Number, err)
	}
	return nil
}

// Create inserts a single period.
func (r *PeriodRepository) Create(ctx context.Context, period *models.AcquisitionPeriod) error {
	return insertPeriod(ctx, r.db, period)
}

// FindByID fetches a period by id.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.AcquisitionPeriod, error) {
	var period models.AcquisitionPeriod
	if err := r.db.GetContext(ctx, &period, "SELECT "+periodColumns+" FROM acquisition_periods p WHERE p.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get period: %w", err)
	}
	return &period, nil
}

// ListByEmployee returns the periods of one employee ordered by number.
func (r *PeriodRepository) ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error) {
	var periods []models.AcquisitionPeriod
	query := "SELECT " + periodColumns + " FROM acquisition_periods p WHERE p.employee_id = $1 ORDER BY p.number ASC"
	if err := r.db.SelectContext(ctx, &periods, query, employeeID); err != nil {
		return nil, fmt.Errorf("list employee periods: %w", err)
	}
	return periods, nil
}

// ListByStatuses returns periods in any of the statuses, ordered for stable sweeps.
func (r *PeriodRepository) ListByStatuses(ctx context.Context, statuses ...models.PeriodStatus) ([]models.AcquisitionPeriod, error) {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	var periods []models.AcquisitionPeriod
	query := "SELECT " + periodColumns + " FROM acquisition_periods p WHERE p.status = ANY($1) ORDER BY p.employee_id ASC, p.number ASC"
	if err := r.db.SelectContext(ctx, &periods, query, pq.Array(values)); err != nil {
		return nil, fmt.Errorf("list periods by status: %w", err)
	}
	return periods, nil
}

// ListExpiring returns active, non-ignored periods of active employees whose
// deadline falls within (today, until].
func (r *PeriodRepository) ListExpiring(ctx context.Context, today, until time.Time) ([]models.PeriodWithEmployee, error) {
	query := periodWithEmployeeSelect + `
WHERE p.status = 'ATIVO' AND p.ignored = FALSE AND e.active = TRUE
	AND p.leave_deadline > $1 AND p.leave_deadline <= $2
ORDER BY p.leave_deadline ASC`
	var periods []models.PeriodWithEmployee
	if err := r.db.SelectContext(ctx, &periods, query, today, until); err != nil {
		return nil, fmt.Errorf("list expiring periods: %w", err)
	}
	return periods, nil
}

// ListOverdue returns non-ignored periods past their deadline that are not settled.
func (r *PeriodRepository) ListOverdue(ctx context.Context, today time.Time) ([]models.PeriodWithEmployee, error) {
	query := periodWithEmployeeSelect + `
WHERE p.status <> 'QUITADO' AND p.ignored = FALSE AND e.active = TRUE AND p.leave_deadline < $1
ORDER BY p.leave_deadline ASC`
	var periods []models.PeriodWithEmployee
	if err := r.db.SelectContext(ctx, &periods, query, today); err != nil {
		return nil, fmt.Errorf("list overdue periods: %w", err)
	}
	return periods, nil
}

// UpdateStatus stores a recomputed status.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE acquisition_periods SET status = $2, updated_at = $3 WHERE id = $1`, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update period status: %w", err)
	}
	return nil
}

// SetIgnored flags or restores a period.
func (r *PeriodRepository) SetIgnored(ctx context.Context, id string, ignored bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE acquisition_periods SET ignored = $2, updated_at = $3 WHERE id = $1`, id, ignored, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set period ignored: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateNotes replaces the free-text notes.
func (r *PeriodRepository) UpdateNotes(ctx context.Context, id string, notes *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE acquisition_periods SET notes = $2, updated_at = $3 WHERE id = $1`, id, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update period notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
