package models

import "time"

// RequestType distinguishes leave from day sales.
type RequestType string

const (
	RequestTypeLeave RequestType = "GOZO"
	RequestTypeSale  RequestType = "ABONO_PECUNIARIO"
)

// Valid reports whether t is a known request type.
func (t RequestType) Valid() bool {
	return t == RequestTypeLeave || t == RequestTypeSale
}

// RequestStatus is the lifecycle state of a vacation request.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "PENDENTE"
	RequestStatusApproved  RequestStatus = "APROVADO"
	RequestStatusRejected  RequestStatus = "REJEITADO"
	RequestStatusCancelled RequestStatus = "CANCELADO"
)

// Counts reports whether the status still reserves or consumes balance.
func (s RequestStatus) Counts() bool {
	return s == RequestStatusPending || s == RequestStatusApproved
}

// VacationRequest is a leave or sale filed against one acquisition period.
type VacationRequest struct {
	ID                 string        `db:"id" json:"id"`
	PeriodID           string        `db:"period_id" json:"period_id"`
	StartDate          time.Time     `db:"start_date" json:"start_date"`
	EndDate            time.Time     `db:"end_date" json:"end_date"`
	Days               int           `db:"days" json:"days"`
	Type               RequestType   `db:"type" json:"type"`
	Status             RequestStatus `db:"status" json:"status"`
	Notes              *string       `db:"notes" json:"notes,omitempty"`
	RejectionReason    *string       `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CancellationReason *string       `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	ApprovedBy         *string       `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt         *time.Time    `db:"approved_at" json:"approved_at,omitempty"`
	CancelledAt        *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// VacationRequestDetail joins a request with its period and employee.
type VacationRequestDetail struct {
	VacationRequest
	PeriodNumber   int    `db:"period_number" json:"period_number"`
	EmployeeID     string `db:"employee_id" json:"employee_id"`
	EmployeeName   string `db:"employee_name" json:"employee_name"`
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
}

// VacationRequestFilter captures listing criteria.
type VacationRequestFilter struct {
	Status       *RequestStatus
	Type         *RequestType
	EmployeeID   string
	DepartmentID string
	PeriodID     string
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
