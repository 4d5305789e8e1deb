package dto

import "github.com/noah-isme/ferias-api/internal/models"

// ReportRequest captures POST /reports/balances payload.
type ReportRequest struct {
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
	DepartmentID string              `json:"departmentId" validate:"omitempty,uuid"`
}
