package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PeriodBalance is a point-in-time balance snapshot of one period.
type PeriodBalance struct {
	PeriodID          string          `json:"period_id"`
	Number            int             `json:"number"`
	EntitledDays      int             `json:"entitled_days"`
	Taken             int             `json:"taken"`
	SoldField         int             `json:"sold_field"`
	SoldViaRequest    int             `json:"sold_via_request"`
	TotalSold         int             `json:"total_sold"`
	Used              int             `json:"used"`
	Pending           int             `json:"pending"`
	Remaining         int             `json:"remaining"`
	Available         int             `json:"available"`
	PercentConsumed   decimal.Decimal `json:"percent_consumed"`
	LeaveDeadline     time.Time       `json:"leave_deadline"`
	DaysUntilDeadline int             `json:"days_until_deadline"`
	Expiring          bool            `json:"expiring"`
	Ignored           bool            `json:"ignored"`
	Status            PeriodStatus    `json:"status"`
}

// EmployeeBalance aggregates period balances of one employee.
type EmployeeBalance struct {
	EmployeeID        string          `json:"employee_id"`
	EmployeeName      string          `json:"employee_name"`
	Periods           []PeriodBalance `json:"periods"`
	TotalEntitled     int             `json:"total_entitled"`
	TotalTaken        int             `json:"total_taken"`
	TotalSold         int             `json:"total_sold"`
	TotalPending      int             `json:"total_pending"`
	TotalAvailable    int             `json:"total_available"`
	HasExpiringPeriod bool            `json:"has_expiring_period"`
}
