package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type conflictService interface {
	Detect(ctx context.Context, departmentID string, start, end time.Time, excludeID string) (*models.ConflictReport, error)
	Active(ctx context.Context) ([]models.ConflictReport, error)
}

// ConflictHandler exposes department absence conflict checks.
type ConflictHandler struct {
	conflicts conflictService
}

// NewConflictHandler constructs ConflictHandler.
func NewConflictHandler(conflicts conflictService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts}
}

// Detect godoc
// @Summary Approved absences overlapping a window in a department
// @Tags Conflicts
// @Produce json
// @Param departmentId query string true "Department ID"
// @Param start query string true "Window start (YYYY-MM-DD)"
// @Param end query string true "Window end (YYYY-MM-DD)"
// @Param excludeId query string false "Request ID to leave out"
// @Success 200 {object} response.Envelope
// @Router /conflicts [get]
func (h *ConflictHandler) Detect(c *gin.Context) {
	departmentID := c.Query("departmentId")
	start, err := queryDate(c, "start")
	if err != nil {
		response.Error(c, err)
		return
	}
	end, err := queryDate(c, "end")
	if err != nil {
		response.Error(c, err)
		return
	}
	if departmentID == "" || start == nil || end == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId, start and end are required"))
		return
	}
	report, err := h.conflicts.Detect(c.Request.Context(), departmentID, *start, *end, c.Query("excludeId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Active godoc
// @Summary Departments over their absence limit in the coming weeks
// @Tags Conflicts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /conflicts/active [get]
func (h *ConflictHandler) Active(c *gin.Context) {
	reports, err := h.conflicts.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}
