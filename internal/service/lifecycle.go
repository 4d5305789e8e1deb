package service

import (
	"strings"
	"time"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

const (
	minCancellationReason = 5
	minRejectionReason    = 10
)

func requirePending(req *models.VacationRequest, action string) error {
	if req.Status != models.RequestStatusPending {
		return appErrors.Clonef(appErrors.ErrInvalidState,
			"cannot %s a request with status %s", action, req.Status)
	}
	return nil
}

// CheckEditable guards updates of a request.
func CheckEditable(req *models.VacationRequest) error {
	return requirePending(req, "edit")
}

// CheckApprovable guards approval and re-checks the balance with the request
// itself left out of the aggregation, so a sibling approved in the meantime
// is accounted for.
func CheckApprovable(period models.AcquisitionPeriod, siblings []models.VacationRequest, req *models.VacationRequest, today time.Time) error {
	if err := requirePending(req, "approve"); err != nil {
		return err
	}

	others := excludeRequest(siblings, req.ID)
	balance := ComputeBalance(period, others, today)
	if req.Days > balance.Available {
		return appErrors.Clonef(appErrors.ErrRuleViolation,
			"insufficient balance to approve: %d days requested, %d available", req.Days, balance.Available)
	}

	if req.Type == models.RequestTypeSale {
		if sold := balance.TotalSold + req.Days; sold > models.MaxSoldDays {
			return appErrors.Clonef(appErrors.ErrRuleViolation,
				"sale limit exceeded: approving would sell %d days, at most %d allowed", sold, models.MaxSoldDays)
		}
	}
	return nil
}

// CheckRejectable guards rejection and returns the normalised reason.
func CheckRejectable(req *models.VacationRequest, reason string) (string, error) {
	if err := requirePending(req, "reject"); err != nil {
		return "", err
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minRejectionReason {
		return "", appErrors.Clonef(appErrors.ErrRuleViolation,
			"rejection reason must have at least %d characters", minRejectionReason)
	}
	return reason, nil
}

// CheckCancellable guards cancellation and returns the normalised reason.
// Pending requests and approved sales can always be cancelled; approved
// leave only before it starts.
func CheckCancellable(req *models.VacationRequest, reason string, today time.Time) (string, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < minCancellationReason {
		return "", appErrors.Clonef(appErrors.ErrRuleViolation,
			"cancellation reason must have at least %d characters", minCancellationReason)
	}

	switch req.Status {
	case models.RequestStatusPending:
		return reason, nil
	case models.RequestStatusApproved:
		if req.Type == models.RequestTypeSale {
			return reason, nil
		}
		if dateOnly(req.StartDate).After(dateOnly(today)) {
			return reason, nil
		}
		return "", appErrors.Clone(appErrors.ErrInvalidState,
			"approved leave that has already started cannot be cancelled")
	default:
		return "", appErrors.Clonef(appErrors.ErrInvalidState,
			"cannot cancel a request with status %s", req.Status)
	}
}
