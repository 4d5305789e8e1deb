package models

import "time"

// ConflictEntry is one approved leave overlapping a queried window.
type ConflictEntry struct {
	RequestID    string    `db:"request_id" json:"request_id"`
	EmployeeID   string    `db:"employee_id" json:"employee_id"`
	EmployeeName string    `db:"employee_name" json:"employee_name"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Days         int       `db:"days" json:"days"`
}

// ConflictReport is the advisory result of a department overlap check.
type ConflictReport struct {
	DepartmentID   string          `json:"department_id"`
	DepartmentName string          `json:"department_name"`
	WindowStart    time.Time       `json:"window_start"`
	WindowEnd      time.Time       `json:"window_end"`
	Limit          int             `json:"limit"`
	Count          int             `json:"count"`
	Employees      int             `json:"employees"`
	ExceedsLimit   bool            `json:"exceeds_limit"`
	Conflicts      []ConflictEntry `json:"conflicts"`
}
