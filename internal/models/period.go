package models

import "time"

// PeriodStatus is the stored, sweep-maintained status of an acquisition period.
type PeriodStatus string

const (
	PeriodStatusActive  PeriodStatus = "ATIVO"
	PeriodStatusSettled PeriodStatus = "QUITADO"
	PeriodStatusExpired PeriodStatus = "VENCIDO"
)

const (
	// EntitledDaysPerPeriod is granted to every period at creation.
	EntitledDaysPerPeriod = 30
	// MaxSoldDays is the statutory cap on abono pecuniário per period.
	MaxSoldDays = 10
	// MinFractionDays is the shortest allowed leave fraction.
	MinFractionDays = 5
	// MainFractionDays is the length at least one fraction must reach.
	MainFractionDays = 14
	// MaxFractions caps the active requests against one period.
	MaxFractions = 3
	// ExpiringWindowDays flags periods whose deadline is this close.
	ExpiringWindowDays = 90
)

// AcquisitionPeriod is one yearly accrual cycle of an employee.
type AcquisitionPeriod struct {
	ID               string       `db:"id" json:"id"`
	EmployeeID       string       `db:"employee_id" json:"employee_id"`
	Number           int          `db:"number" json:"number"`
	AcquisitionStart time.Time    `db:"acquisition_start" json:"acquisition_start"`
	AcquisitionEnd   time.Time    `db:"acquisition_end" json:"acquisition_end"`
	LeaveDeadline    time.Time    `db:"leave_deadline" json:"leave_deadline"`
	EntitledDays     int          `db:"entitled_days" json:"entitled_days"`
	SoldDays         int          `db:"sold_days" json:"sold_days"`
	Status           PeriodStatus `db:"status" json:"status"`
	Ignored          bool         `db:"ignored" json:"ignored"`
	Notes            *string      `db:"notes" json:"notes,omitempty"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodWithEmployee carries the owning employee's identity for listings.
type PeriodWithEmployee struct {
	AcquisitionPeriod
	EmployeeName   string `db:"employee_name" json:"employee_name"`
	DepartmentID   string `db:"department_id" json:"department_id"`
	DepartmentName string `db:"department_name" json:"department_name"`
}
