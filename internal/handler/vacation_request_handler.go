package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type vacationRequestService interface {
	Get(ctx context.Context, id string) (*models.VacationRequestDetail, error)
	List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, *models.Pagination, error)
	Pending(ctx context.Context, page, size int) ([]models.VacationRequestDetail, *models.Pagination, error)
	Upcoming(ctx context.Context, limit int) ([]models.VacationRequestDetail, error)
	Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateVacationRequest) (*dto.VacationRequestResult, error)
	Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateVacationRequest) (*models.VacationRequest, error)
	Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.VacationRequest, error)
	Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectVacationRequest) (*models.VacationRequest, error)
	Cancel(ctx context.Context, actor *models.JWTClaims, id string, req dto.CancelVacationRequest) (*models.VacationRequest, error)
	Delete(ctx context.Context, actor *models.JWTClaims, id string) error
}

// VacationRequestHandler exposes the request lifecycle endpoints.
type VacationRequestHandler struct {
	requests vacationRequestService
}

// NewVacationRequestHandler constructs VacationRequestHandler.
func NewVacationRequestHandler(requests vacationRequestService) *VacationRequestHandler {
	return &VacationRequestHandler{requests: requests}
}

// List godoc
// @Summary List vacation requests
// @Tags Requests
// @Produce json
// @Param status query string false "PENDENTE, APROVADO, REJEITADO or CANCELADO"
// @Param type query string false "GOZO or ABONO_PECUNIARIO"
// @Param employeeId query string false "Filter by employee"
// @Param departmentId query string false "Filter by department"
// @Param periodId query string false "Filter by acquisition period"
// @Param from query string false "Window start (YYYY-MM-DD)"
// @Param to query string false "Window end (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *VacationRequestHandler) List(c *gin.Context) {
	filter := models.VacationRequestFilter{
		EmployeeID:   c.Query("employeeId"),
		DepartmentID: c.Query("departmentId"),
		PeriodID:     c.Query("periodId"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "limit", 20),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := models.RequestStatus(raw)
		switch status {
		case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected, models.RequestStatusCancelled:
			filter.Status = &status
		default:
			response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "unknown status %s", raw))
			return
		}
	}
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("type"))); raw != "" {
		reqType := models.RequestType(raw)
		if !reqType.Valid() {
			response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "unknown type %s", raw))
			return
		}
		filter.Type = &reqType
	}
	var err error
	if filter.From, err = queryDate(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = queryDate(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	items, pagination, err := h.requests.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Pending godoc
// @Summary Requests awaiting a decision
// @Tags Requests
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /requests/pending [get]
func (h *VacationRequestHandler) Pending(c *gin.Context) {
	items, pagination, err := h.requests.Pending(c.Request.Context(), queryInt(c, "page", 1), queryInt(c, "limit", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Upcoming godoc
// @Summary Next leave departures
// @Tags Requests
// @Produce json
// @Param limit query int false "Maximum entries (default 10)"
// @Success 200 {object} response.Envelope
// @Router /requests/upcoming [get]
func (h *VacationRequestHandler) Upcoming(c *gin.Context) {
	items, err := h.requests.Upcoming(c.Request.Context(), queryInt(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Get godoc
// @Summary Get vacation request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *VacationRequestHandler) Get(c *gin.Context) {
	item, err := h.requests.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Create godoc
// @Summary File a leave or sale request
// @Description Leave requests carry an advisory conflict report when the department limit is reached.
// @Tags Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateVacationRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /requests [post]
func (h *VacationRequestHandler) Create(c *gin.Context) {
	var req dto.CreateVacationRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.requests.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Edit a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.UpdateVacationRequest true "Changes"
// @Success 200 {object} response.Envelope
// @Router /requests/{id} [put]
func (h *VacationRequestHandler) Update(c *gin.Context) {
	var req dto.UpdateVacationRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.requests.Update(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Approve godoc
// @Summary Approve a pending request
// @Tags Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /requests/{id}/approve [post]
func (h *VacationRequestHandler) Approve(c *gin.Context) {
	item, err := h.requests.Approve(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Reject godoc
// @Summary Reject a pending request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectVacationRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/reject [post]
func (h *VacationRequestHandler) Reject(c *gin.Context) {
	var req dto.RejectVacationRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.requests.Reject(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Cancel godoc
// @Summary Cancel a pending or approved request
// @Tags Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.CancelVacationRequest true "Reason"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/cancel [post]
func (h *VacationRequestHandler) Cancel(c *gin.Context) {
	var req dto.CancelVacationRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.requests.Cancel(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// Delete godoc
// @Summary Delete a request
// @Tags Requests
// @Param id path string true "Request ID"
// @Success 204
// @Router /requests/{id} [delete]
func (h *VacationRequestHandler) Delete(c *gin.Context) {
	if err := h.requests.Delete(c.Request.Context(), claimsFromContext(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
