package dto

// RegisterSaleRequest records days sold directly on a period.
type RegisterSaleRequest struct {
	Days int `json:"days" validate:"required,min=1,max=10"`
}

// UpdatePeriodNotesRequest replaces the free-text notes of a period.
type UpdatePeriodNotesRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}
