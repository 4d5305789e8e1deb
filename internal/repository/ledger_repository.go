package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/ferias-api/internal/models"
)

// Ledger is a locked, consistent view of one period and all its requests.
// Writes made through it commit together when the enclosing callback returns nil.
type Ledger interface {
	Period() models.AcquisitionPeriod
	Requests() []models.VacationRequest
	InsertRequest(ctx context.Context, req *models.VacationRequest) error
	UpdateRequest(ctx context.Context, req *models.VacationRequest, expected models.RequestStatus) error
	UpdateSoldDays(ctx context.Context, days int) error
}

// LedgerRepository runs period-scoped mutations inside a transaction holding
// the period row lock.
type LedgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository instantiates a ledger repository.
func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// WithPeriod locks the period, loads its requests and hands them to fn.
// sql.ErrNoRows is returned untouched when the period does not exist.
func (r *LedgerRepository) WithPeriod(ctx context.Context, periodID string, fn func(ctx context.Context, l Ledger) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	l := &txLedger{tx: tx}
	lockQuery := "SELECT " + periodColumns + " FROM acquisition_periods p WHERE p.id = $1 FOR UPDATE"
	if err = tx.GetContext(ctx, &l.period, lockQuery, periodID); err != nil {
		if err == sql.ErrNoRows {
			return err
		}
		return fmt.Errorf("lock period: %w", err)
	}

	reqQuery := "SELECT " + requestColumns + " FROM vacation_requests vr WHERE vr.period_id = $1 ORDER BY vr.created_at ASC"
	if err = tx.SelectContext(ctx, &l.requests, reqQuery, periodID); err != nil {
		return fmt.Errorf("load period requests: %w", err)
	}

	if err = fn(ctx, l); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

type txLedger struct {
	tx       *sqlx.Tx
	period   models.AcquisitionPeriod
	requests []models.VacationRequest
}

func (l *txLedger) Period() models.AcquisitionPeriod { return l.period }

func (l *txLedger) Requests() []models.VacationRequest {
	out := make([]models.VacationRequest, len(l.requests))
	copy(out, l.requests)
	return out
}

func (l *txLedger) InsertRequest(ctx context.Context, req *models.VacationRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	req.CreatedAt = now
	req.UpdatedAt = now
	req.PeriodID = l.period.ID

	const query = `INSERT INTO vacation_requests (id, period_id, start_date, end_date, days, type, status, notes, created_at, updated_at)
VALUES (:id, :period_id, :start_date, :end_date, :days, :type, :status, :notes, :created_at, :updated_at)`
	if _, err := l.tx.NamedExecContext(ctx, query, req); err != nil {
		return fmt.Errorf("create vacation request: %w", err)
	}
	l.requests = append(l.requests, *req)
	return nil
}

func (l *txLedger) UpdateRequest(ctx context.Context, req *models.VacationRequest, expected models.RequestStatus) error {
	req.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vacation_requests SET start_date = $3, end_date = $4, days = $5, status = $6, notes = $7,
rejection_reason = $8, cancellation_reason = $9, approved_by = $10, approved_at = $11, cancelled_at = $12, updated_at = $13
WHERE id = $1 AND status = $2`
	res, err := l.tx.ExecContext(ctx, query,
		req.ID, expected, req.StartDate, req.EndDate, req.Days, req.Status, req.Notes,
		req.RejectionReason, req.CancellationReason, req.ApprovedBy, req.ApprovedAt, req.CancelledAt, req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update vacation request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update vacation request: %w", err)
	}
	if n == 0 {
		return ErrStaleRequest
	}
	for i := range l.requests {
		if l.requests[i].ID == req.ID {
			l.requests[i] = *req
		}
	}
	return nil
}

func (l *txLedger) UpdateSoldDays(ctx context.Context, days int) error {
	now := time.Now().UTC()
	if _, err := l.tx.ExecContext(ctx, `UPDATE acquisition_periods SET sold_days = $2, updated_at = $3 WHERE id = $1`, l.period.ID, days, now); err != nil {
		return fmt.Errorf("update sold days: %w", err)
	}
	l.period.SoldDays = days
	l.period.UpdatedAt = now
	return nil
}
