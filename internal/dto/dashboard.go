package dto

import "github.com/noah-isme/ferias-api/internal/models"

// DashboardMetrics holds headline counters.
type DashboardMetrics struct {
	OnLeaveToday    int `json:"onLeaveToday"`
	PendingRequests int `json:"pendingRequests"`
	ConflictAlerts  int `json:"conflictAlerts"`
	TotalEmployees  int `json:"totalEmployees"`
	ActiveEmployees int `json:"activeEmployees"`
	ExpiringPeriods int `json:"expiringPeriods"`
	OverduePeriods  int `json:"overduePeriods"`
}

// DashboardResponse is the aggregated HR dashboard payload.
type DashboardResponse struct {
	Date        string                         `json:"date"`
	Metrics     DashboardMetrics               `json:"metrics"`
	Upcoming    []models.VacationRequestDetail `json:"upcoming"`
	Departments []DepartmentSummary            `json:"departments"`
	Conflicts   []models.ConflictReport        `json:"conflicts"`
}
