package dto

// CreateDepartmentRequest defines payload for creating a department.
type CreateDepartmentRequest struct {
	Name         string  `json:"name" validate:"required,min=2,max=120"`
	Code         *string `json:"code,omitempty" validate:"omitempty,max=20"`
	AbsenceLimit *int    `json:"absenceLimit,omitempty" validate:"omitempty,min=1"`
}

// UpdateDepartmentRequest defines payload for updating a department.
type UpdateDepartmentRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Code         *string `json:"code,omitempty" validate:"omitempty,max=20"`
	AbsenceLimit *int    `json:"absenceLimit,omitempty" validate:"omitempty,min=1"`
	Active       *bool   `json:"active,omitempty"`
}

// DepartmentSummary is one row of the dashboard department overview.
type DepartmentSummary struct {
	DepartmentID   string `db:"department_id" json:"departmentId"`
	DepartmentName string `db:"department_name" json:"departmentName"`
	AbsenceLimit   int    `db:"absence_limit" json:"absenceLimit"`
	Headcount      int    `db:"headcount" json:"headcount"`
	OnLeaveToday   int    `db:"on_leave_today" json:"onLeaveToday"`
}
