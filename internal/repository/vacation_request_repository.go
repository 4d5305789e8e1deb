package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/ferias-api/internal/models"
)

const requestColumns = `vr.id, vr.period_id, vr.start_date, vr.end_date, vr.days, vr.type, vr.status, vr.notes, vr.rejection_reason, vr.cancellation_reason, vr.approved_by, vr.approved_at, vr.cancelled_at, vr.created_at, vr.updated_at`

const requestDetailSelect = `SELECT ` + requestColumns + `, p.number AS period_number, e.id AS employee_id, e.name AS employee_name, d.id AS department_id, d.name AS department_name
FROM vacation_requests vr
JOIN acquisition_periods p ON p.id = vr.period_id
JOIN employees e ON e.id = p.employee_id
JOIN departments d ON d.id = e.department_id`

// VacationRequestRepository handles read access and hard deletes of vacation
// requests. Lifecycle writes go through LedgerRepository.
type VacationRequestRepository struct {
	db *sqlx.DB
}

// NewVacationRequestRepository instantiates a vacation request repository.
func NewVacationRequestRepository(db *sqlx.DB) *VacationRequestRepository {
	return &VacationRequestRepository{db: db}
}

// FindByID fetches a request by id.
func (r *VacationRequestRepository) FindByID(ctx context.Context, id string) (*models.VacationRequest, error) {
	var req models.VacationRequest
	if err := r.db.GetContext(ctx, &req, "SELECT "+requestColumns+" FROM vacation_requests vr WHERE vr.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get vacation request: %w", err)
	}
	return &req, nil
}

// FindDetail fetches a request joined with its period and employee.
func (r *VacationRequestRepository) FindDetail(ctx context.Context, id string) (*models.VacationRequestDetail, error) {
	var req models.VacationRequestDetail
	if err := r.db.GetContext(ctx, &req, requestDetailSelect+" WHERE vr.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get vacation request detail: %w", err)
	}
	return &req, nil
}

// ListByPeriod returns every request of a period.
func (r *VacationRequestRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.VacationRequest, error) {
	var reqs []models.VacationRequest
	query := "SELECT " + requestColumns + " FROM vacation_requests vr WHERE vr.period_id = $1 ORDER BY vr.start_date ASC"
	if err := r.db.SelectContext(ctx, &reqs, query, periodID); err != nil {
		return nil, fmt.Errorf("list period requests: %w", err)
	}
	return reqs, nil
}

// ListByPeriodIDs returns the requests of several periods in one round trip.
func (r *VacationRequestRepository) ListByPeriodIDs(ctx context.Context, periodIDs []string) ([]models.VacationRequest, error) {
	if len(periodIDs) == 0 {
		return []models.VacationRequest{}, nil
	}
	var reqs []models.VacationRequest
	query := "SELECT " + requestColumns + " FROM vacation_requests vr WHERE vr.period_id = ANY($1) ORDER BY vr.start_date ASC"
	if err := r.db.SelectContext(ctx, &reqs, query, pq.Array(periodIDs)); err != nil {
		return nil, fmt.Errorf("list requests by periods: %w", err)
	}
	return reqs, nil
}

// List returns request details matching the filter and the total count.
func (r *VacationRequestRepository) List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, int, error) {
	base := `FROM vacation_requests vr
JOIN acquisition_periods p ON p.id = vr.period_id
JOIN employees e ON e.id = p.employee_id
JOIN departments d ON d.id = e.department_id
WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("vr.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("vr.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.EmployeeID != "" {
		conditions = append(conditions, fmt.Sprintf("e.id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.DepartmentID != "" {
		conditions = append(conditions, fmt.Sprintf("d.id = $%d", len(args)+1))
		args = append(args, filter.DepartmentID)
	}
	if filter.PeriodID != "" {
		conditions = append(conditions, fmt.Sprintf("vr.period_id = $%d", len(args)+1))
		args = append(args, filter.PeriodID)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("vr.end_date >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("vr.start_date <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date": "vr.start_date",
		"created_at": "vr.created_at",
		"employee":   "e.name",
		"days":       "vr.days",
	}
	sortBy, ok := allowedSorts[filter.SortBy]
	if !ok {
		sortBy = "vr.start_date"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	offset := (page - 1) * size

	selectCols := "SELECT " + requestColumns + ", p.number AS period_number, e.id AS employee_id, e.name AS employee_name, d.id AS department_id, d.name AS department_name "
	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", selectCols, base, sortBy, sortOrder, size, offset)

	var reqs []models.VacationRequestDetail
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list vacation requests: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count vacation requests: %w", err)
	}
	return reqs, total, nil
}

// ListUpcoming returns approved or pending requests starting on or after today.
func (r *VacationRequestRepository) ListUpcoming(ctx context.Context, today time.Time, limit int) ([]models.VacationRequestDetail, error) {
	query := requestDetailSelect + `
WHERE vr.status IN ('APROVADO', 'PENDENTE') AND vr.type = 'GOZO' AND vr.start_date >= $1 AND e.active = TRUE
ORDER BY vr.start_date ASC
LIMIT $2`
	var reqs []models.VacationRequestDetail
	if err := r.db.SelectContext(ctx, &reqs, query, today, limit); err != nil {
		return nil, fmt.Errorf("list upcoming requests: %w", err)
	}
	return reqs, nil
}

// CountByStatus counts requests in the given status.
func (r *VacationRequestRepository) CountByStatus(ctx context.Context, status models.RequestStatus) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM vacation_requests WHERE status = $1`, status); err != nil {
		return 0, fmt.Errorf("count requests by status: %w", err)
	}
	return total, nil
}

// FindConflicts returns approved leave of active employees in the department
// whose range intersects [start, end], optionally excluding one request.
func (r *VacationRequestRepository) FindConflicts(ctx context.Context, departmentID string, start, end time.Time, excludeID string) ([]models.ConflictEntry, error) {
	const query = `
SELECT
	vr.id AS request_id,
	e.id AS employee_id,
	e.name AS employee_name,
	vr.start_date,
	vr.end_date,
	vr.days
FROM vacation_requests vr
JOIN acquisition_periods p ON p.id = vr.period_id
JOIN employees e ON e.id = p.employee_id
WHERE e.department_id = $1
	AND e.active = TRUE
	AND vr.status = 'APROVADO'
	AND vr.type = 'GOZO'
	AND vr.start_date <= $3
	AND vr.end_date >= $2
	AND vr.id::text <> $4
ORDER BY vr.start_date ASC`
	var entries []models.ConflictEntry
	if err := r.db.SelectContext(ctx, &entries, query, departmentID, start, end, excludeID); err != nil {
		return nil, fmt.Errorf("find conflicts: %w", err)
	}
	return entries, nil
}

// Delete removes a request unconditionally.
func (r *VacationRequestRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vacation_requests WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete vacation request: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
