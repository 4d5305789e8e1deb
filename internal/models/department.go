package models

import "time"

// DefaultAbsenceLimit applies when a department is created without a limit.
const DefaultAbsenceLimit = 1

// Department groups employees and caps simultaneous approved absences.
type Department struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         *string   `db:"code" json:"code,omitempty"`
	AbsenceLimit int       `db:"absence_limit" json:"absence_limit"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// DepartmentFilter narrows department listings.
type DepartmentFilter struct {
	Active *bool
	Search string
}
