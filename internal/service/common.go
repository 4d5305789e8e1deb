package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/repository"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

const (
	dashboardCacheKey = "dashboard:summary"
	balancePattern    = "balance:*"
)

func employeeBalanceKey(employeeID string) string {
	return "balance:employee:" + employeeID
}

// NewValidator returns a validator with the request_type rule registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("request_type", func(fl validator.FieldLevel) bool {
		return models.RequestType(fl.Field().String()).Valid()
	})
	return v
}

// storeError maps repository errors onto the error taxonomy.
func storeError(err error, notFound, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	case repository.IsUniqueViolation(err):
		return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
			fmt.Sprintf("duplicate value violates %s", repository.ConstraintName(err)))
	case errors.Is(err, repository.ErrStaleRequest):
		return appErrors.Wrap(err, appErrors.ErrInvalidState.Code, appErrors.ErrInvalidState.Status,
			"request changed status concurrently, reload and retry")
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

func recordAudit(ctx context.Context, audit auditLogger, logger *zap.Logger, actor *models.JWTClaims, action, resource, resourceID string, oldValue, newValue interface{}) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if actor != nil {
		entry.UserID = &actor.UserID
	}
	if oldValue != nil {
		entry.OldValues, _ = json.Marshal(oldValue)
	}
	if newValue != nil {
		entry.NewValues, _ = json.Marshal(newValue)
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil {
		logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func actorName(actor *models.JWTClaims) string {
	if actor == nil {
		return "system"
	}
	if actor.FullName != "" {
		return actor.FullName
	}
	return actor.Email
}

func validationErrorf(format string, args ...interface{}) error {
	return appErrors.Clonef(appErrors.ErrValidation, format, args...)
}
