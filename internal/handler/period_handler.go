package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type periodService interface {
	Get(ctx context.Context, id string) (*models.AcquisitionPeriod, error)
	Balance(ctx context.Context, id string) (*models.PeriodBalance, error)
	Expiring(ctx context.Context, days int) ([]models.PeriodWithEmployee, error)
	Overdue(ctx context.Context) ([]models.PeriodWithEmployee, error)
	SetIgnored(ctx context.Context, id string, ignored bool) (*models.AcquisitionPeriod, error)
	UpdateNotes(ctx context.Context, id string, req dto.UpdatePeriodNotesRequest) (*models.AcquisitionPeriod, error)
	RegisterSale(ctx context.Context, actor *models.JWTClaims, id string, req dto.RegisterSaleRequest) (*models.PeriodBalance, error)
	CancelSale(ctx context.Context, actor *models.JWTClaims, id string) (*models.PeriodBalance, error)
}

// PeriodHandler exposes acquisition period endpoints.
type PeriodHandler struct {
	periods periodService
}

// NewPeriodHandler constructs PeriodHandler.
func NewPeriodHandler(periods periodService) *PeriodHandler {
	return &PeriodHandler{periods: periods}
}

// Get godoc
// @Summary Get acquisition period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id} [get]
func (h *PeriodHandler) Get(c *gin.Context) {
	period, err := h.periods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Balance godoc
// @Summary Balance of an acquisition period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/balance [get]
func (h *PeriodHandler) Balance(c *gin.Context) {
	balance, err := h.periods.Balance(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// Expiring godoc
// @Summary Active periods whose deadline is near
// @Tags Periods
// @Produce json
// @Param days query int false "Window in days (default 90)"
// @Success 200 {object} response.Envelope
// @Router /periods/expiring [get]
func (h *PeriodHandler) Expiring(c *gin.Context) {
	periods, err := h.periods.Expiring(c.Request.Context(), queryInt(c, "days", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Overdue godoc
// @Summary Periods past their deadline
// @Tags Periods
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /periods/overdue [get]
func (h *PeriodHandler) Overdue(c *gin.Context) {
	periods, err := h.periods.Overdue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

type setIgnoredRequest struct {
	Ignored *bool `json:"ignored" binding:"required"`
}

// SetIgnored godoc
// @Summary Ignore or restore a period in balance aggregation
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body setIgnoredRequest true "Ignored flag"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/ignored [patch]
func (h *PeriodHandler) SetIgnored(c *gin.Context) {
	var req setIgnoredRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.periods.SetIgnored(c.Request.Context(), c.Param("id"), *req.Ignored)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// UpdateNotes godoc
// @Summary Update period notes
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body dto.UpdatePeriodNotesRequest true "Notes"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/notes [patch]
func (h *PeriodHandler) UpdateNotes(c *gin.Context) {
	var req dto.UpdatePeriodNotesRequest
	if !bindJSON(c, &req) {
		return
	}
	period, err := h.periods.UpdateNotes(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// RegisterSale godoc
// @Summary Register sold days directly on a period
// @Tags Periods
// @Accept json
// @Produce json
// @Param id path string true "Period ID"
// @Param payload body dto.RegisterSaleRequest true "Days to sell"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /periods/{id}/sale [post]
func (h *PeriodHandler) RegisterSale(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindJSON(c, &req) {
		return
	}
	balance, err := h.periods.RegisterSale(c.Request.Context(), claimsFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}

// CancelSale godoc
// @Summary Reset sold days of a period
// @Tags Periods
// @Produce json
// @Param id path string true "Period ID"
// @Success 200 {object} response.Envelope
// @Router /periods/{id}/sale [delete]
func (h *PeriodHandler) CancelSale(c *gin.Context) {
	balance, err := h.periods.CancelSale(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, balance, nil)
}
