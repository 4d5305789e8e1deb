package dto

import "github.com/noah-isme/ferias-api/internal/models"

// CreateVacationRequest defines payload for filing a leave or sale.
type CreateVacationRequest struct {
	PeriodID  string             `json:"periodId" validate:"required,uuid"`
	Type      models.RequestType `json:"type" validate:"required,request_type"`
	StartDate string             `json:"startDate" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string             `json:"endDate" validate:"omitempty,datetime=2006-01-02"`
	Days      int                `json:"days" validate:"required,min=1"`
	Notes     *string            `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// UpdateVacationRequest edits a pending request.
type UpdateVacationRequest struct {
	StartDate *string `json:"startDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"endDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Days      *int    `json:"days,omitempty" validate:"omitempty,min=1"`
	Notes     *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// RejectVacationRequest carries the mandatory rejection reason.
type RejectVacationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// CancelVacationRequest carries the mandatory cancellation reason.
type CancelVacationRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// VacationRequestResult wraps a created request with its advisory conflict check.
type VacationRequestResult struct {
	Request  *models.VacationRequest `json:"request"`
	Conflict *models.ConflictReport  `json:"conflict,omitempty"`
}
