package service

import (
	"time"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

// Proposal is a leave or sale about to be filed against a period.
type Proposal struct {
	Type      models.RequestType
	Days      int
	StartDate time.Time
	EndDate   time.Time
}

// ValidateProposal checks a proposal against the statutory fractioning and
// sale rules of its period. existing must not contain the request being
// edited. The check is pure; it returns a ValidationFailure describing the
// first rule broken.
func ValidateProposal(period models.AcquisitionPeriod, existing []models.VacationRequest, p Proposal, today time.Time) error {
	if p.Days <= 0 {
		return appErrors.Clone(appErrors.ErrRuleViolation, "days must be greater than zero")
	}
	if !p.Type.Valid() {
		return appErrors.Clonef(appErrors.ErrRuleViolation, "unknown request type %q", p.Type)
	}

	if p.Type == models.RequestTypeLeave {
		if err := validateLeaveDates(p); err != nil {
			return err
		}
	}

	balance := ComputeBalance(period, existing, today)
	if p.Days > balance.Available {
		return appErrors.Clonef(appErrors.ErrRuleViolation,
			"insufficient balance: %d days requested, %d available (%d remaining, %d pending)",
			p.Days, balance.Available, balance.Remaining, balance.Pending)
	}

	active := activeFractions(existing)

	if p.Type == models.RequestTypeSale {
		sold := period.SoldDays
		for _, r := range active {
			if r.Type == models.RequestTypeSale {
				sold += r.Days
			}
		}
		if sold+p.Days > models.MaxSoldDays {
			return appErrors.Clonef(appErrors.ErrRuleViolation,
				"sale limit exceeded: %d days already sold or requested, at most %d more allowed",
				sold, max(models.MaxSoldDays-sold, 0))
		}
	}

	if len(active)+1 > models.MaxFractions {
		return appErrors.Clonef(appErrors.ErrRuleViolation,
			"a period can be split into at most %d requests", models.MaxFractions)
	}

	return checkMainFraction(period, active, p)
}

func validateLeaveDates(p Proposal) error {
	if p.StartDate.IsZero() || p.EndDate.IsZero() {
		return appErrors.Clone(appErrors.ErrRuleViolation, "start and end dates are required for leave")
	}
	if p.EndDate.Before(p.StartDate) {
		return appErrors.Clone(appErrors.ErrRuleViolation, "end date must not be before start date")
	}
	if span := inclusiveDays(p.StartDate, p.EndDate); span != p.Days {
		return appErrors.Clonef(appErrors.ErrRuleViolation,
			"date range covers %d days but %d were declared", span, p.Days)
	}
	if p.Days < models.MinFractionDays {
		return appErrors.Clonef(appErrors.ErrRuleViolation,
			"leave must be at least %d days", models.MinFractionDays)
	}
	return nil
}

// checkMainFraction enforces that the final set of fractions holds one leave
// of at least MainFractionDays, or can still get one: a slot is free and the
// days left in the period could fill it.
func checkMainFraction(period models.AcquisitionPeriod, active []models.VacationRequest, p Proposal) error {
	hasMain := p.Type == models.RequestTypeLeave && p.Days >= models.MainFractionDays
	committed := p.Days
	for _, r := range active {
		committed += r.Days
		if r.Type == models.RequestTypeLeave && r.Days >= models.MainFractionDays {
			hasMain = true
		}
	}
	if hasMain {
		return nil
	}

	freeSlots := models.MaxFractions - (len(active) + 1)
	left := period.EntitledDays - period.SoldDays - committed
	if freeSlots > 0 && left >= models.MainFractionDays {
		return nil
	}

	return appErrors.Clonef(appErrors.ErrRuleViolation,
		"one fraction must have at least %d days: after this request %d days and %d slots would remain",
		models.MainFractionDays, max(left, 0), freeSlots)
}

func activeFractions(requests []models.VacationRequest) []models.VacationRequest {
	active := make([]models.VacationRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status.Counts() {
			active = append(active, r)
		}
	}
	return active
}

// excludeRequest returns requests without the one identified by id.
func excludeRequest(requests []models.VacationRequest, id string) []models.VacationRequest {
	out := make([]models.VacationRequest, 0, len(requests))
	for _, r := range requests {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
