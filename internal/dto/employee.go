package dto

import "time"

// CreateEmployeeRequest defines payload for registering an employee.
type CreateEmployeeRequest struct {
	Name               string  `json:"name" validate:"required,min=2,max=160"`
	Email              string  `json:"email" validate:"required,email"`
	RegistrationNumber *string `json:"registrationNumber,omitempty" validate:"omitempty,max=40"`
	JobTitle           *string `json:"jobTitle,omitempty" validate:"omitempty,max=120"`
	HireDate           string  `json:"hireDate" validate:"required,datetime=2006-01-02"`
	DepartmentID       string  `json:"departmentId" validate:"required,uuid"`
	AvatarURL          *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

// UpdateEmployeeRequest defines payload for partially updating an employee.
type UpdateEmployeeRequest struct {
	Name               *string `json:"name,omitempty" validate:"omitempty,min=2,max=160"`
	Email              *string `json:"email,omitempty" validate:"omitempty,email"`
	RegistrationNumber *string `json:"registrationNumber,omitempty" validate:"omitempty,max=40"`
	JobTitle           *string `json:"jobTitle,omitempty" validate:"omitempty,max=120"`
	DepartmentID       *string `json:"departmentId,omitempty" validate:"omitempty,uuid"`
	AvatarURL          *string `json:"avatarUrl,omitempty" validate:"omitempty,url"`
}

// OnLeaveEntry lists an employee away on a given date.
type OnLeaveEntry struct {
	EmployeeID     string    `db:"employee_id" json:"employeeId"`
	EmployeeName   string    `db:"employee_name" json:"employeeName"`
	DepartmentName string    `db:"department_name" json:"departmentName"`
	RequestID      string    `db:"request_id" json:"requestId"`
	StartDate      time.Time `db:"start_date" json:"startDate"`
	EndDate        time.Time `db:"end_date" json:"endDate"`
}
