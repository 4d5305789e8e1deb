package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.EmployeeDetail, error)
	Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.EmployeeDetail, error)
	Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.EmployeeDetail, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
	OnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error)
	Balance(ctx context.Context, id string) (*models.EmployeeBalance, bool, error)
}

type employeePeriodLister interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error)
}

// EmployeeHandler exposes employee endpoints.
type EmployeeHandler struct {
	employees employeeService
	periods   employeePeriodLister
	now       func() time.Time
}

// NewEmployeeHandler constructs EmployeeHandler.
func NewEmployeeHandler(employees employeeService, periods employeePeriodLister) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, periods: periods, now: time.Now}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Search by name, email or registration"
// @Param departmentId query string false "Filter by department"
// @Param active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (name, hire_date, created_at)"
// @Param order query string false "asc or desc"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	filter := models.EmployeeFilter{
		Search:       strings.TrimSpace(c.Query("search")),
		DepartmentID: c.Query("departmentId"),
		Active:       queryBool(c, "active"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "limit", 20),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	employees, pagination, err := h.employees.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get employee with department
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	employee, err := h.employees.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create employee and generate its acquisition periods
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.CreateEmployeeRequest true "Employee payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	var req dto.CreateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := h.employees.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Update godoc
// @Summary Update employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param id path string true "Employee ID"
// @Param payload body dto.UpdateEmployeeRequest true "Employee payload"
// @Success 200 {object} response.Envelope
// @Router /employees/{id} [put]
func (h *EmployeeHandler) Update(c *gin.Context) {
	var req dto.UpdateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := h.employees.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetActive godoc
// @Summary Deactivate or reactivate employee
// @Tags Employees
// @Accept json
// @Param id path string true "Employee ID"
// @Param payload body setActiveRequest true "Active flag"
// @Success 204
// @Router /employees/{id}/active [patch]
func (h *EmployeeHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.employees.SetActive(c.Request.Context(), c.Param("id"), *req.Active); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Delete godoc
// @Summary Delete employee with its periods and requests
// @Tags Employees
// @Param id path string true "Employee ID"
// @Success 204
// @Router /employees/{id} [delete]
func (h *EmployeeHandler) Delete(c *gin.Context) {
	if err := h.employees.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// OnLeave godoc
// @Summary Employees on approved leave on a date
// @Tags Employees
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Param departmentId query string false "Filter by department"
// @Success 200 {object} response.Envelope
// @Router /employees/on-leave [get]
func (h *EmployeeHandler) OnLeave(c *gin.Context) {
	date, err := queryDate(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day := h.now()
	if date != nil {
		day = *date
	}
	entries, err := h.employees.OnLeave(c.Request.Context(), day, c.Query("departmentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Balance godoc
// @Summary Vacation balance of an employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/balance [get]
func (h *EmployeeHandler) Balance(c *gin.Context) {
	start := time.Now()
	balance, hit, err := h.employees.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	withCacheMeta(c, balance, hit, start)
}

// Periods godoc
// @Summary Acquisition periods of an employee
// @Tags Employees
// @Produce json
// @Param id path string true "Employee ID"
// @Success 200 {object} response.Envelope
// @Router /employees/{id}/periods [get]
func (h *EmployeeHandler) Periods(c *gin.Context) {
	periods, err := h.periods.ListByEmployee(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}
