package models

import "time"

// Employee is a person accruing vacation entitlement.
type Employee struct {
	ID                 string    `db:"id" json:"id"`
	Name               string    `db:"name" json:"name"`
	Email              string    `db:"email" json:"email"`
	RegistrationNumber *string   `db:"registration_number" json:"registration_number,omitempty"`
	JobTitle           *string   `db:"job_title" json:"job_title,omitempty"`
	HireDate           time.Time `db:"hire_date" json:"hire_date"`
	Active             bool      `db:"active" json:"active"`
	AvatarURL          *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	DepartmentID       string    `db:"department_id" json:"department_id"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// EmployeeDetail joins the employee with its department name.
type EmployeeDetail struct {
	Employee
	DepartmentName string `db:"department_name" json:"department_name"`
}

// EmployeeFilter captures listing criteria.
type EmployeeFilter struct {
	DepartmentID string
	Active       *bool
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
