package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/jobs"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type sweepRunner interface {
	Run(ctx context.Context, kind models.SweepKind) (models.SweepResult, error)
}

// SweepTrigger queues sweeps on the background workers.
type SweepTrigger interface {
	Trigger(kind models.SweepKind) error
	LastResults() map[models.SweepKind]models.SweepResult
}

// SweepHandler runs the period sweeps on demand.
type SweepHandler struct {
	sweeps    sweepRunner
	scheduler SweepTrigger
}

// NewSweepHandler constructs SweepHandler. scheduler may be nil when
// background sweeps are disabled.
func NewSweepHandler(sweeps sweepRunner, scheduler SweepTrigger) *SweepHandler {
	return &SweepHandler{sweeps: sweeps, scheduler: scheduler}
}

// Run godoc
// @Summary Run a sweep and wait for its result
// @Tags Sweeps
// @Produce json
// @Param kind path string true "new_periods or period_statuses"
// @Success 200 {object} response.Envelope
// @Router /sweeps/{kind}/run [post]
func (h *SweepHandler) Run(c *gin.Context) {
	result, err := h.sweeps.Run(c.Request.Context(), models.SweepKind(c.Param("kind")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Trigger godoc
// @Summary Queue a sweep on the background workers
// @Tags Sweeps
// @Produce json
// @Param kind path string true "new_periods or period_statuses"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sweeps/{kind}/trigger [post]
func (h *SweepHandler) Trigger(c *gin.Context) {
	if h.scheduler == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidState, "background sweeps are disabled"))
		return
	}
	kind := models.SweepKind(c.Param("kind"))
	if kind != models.SweepNewPeriods && kind != models.SweepPeriodStatuses {
		response.Error(c, appErrors.Clonef(appErrors.ErrValidation, "unknown sweep %s", kind))
		return
	}
	if err := h.scheduler.Trigger(kind); err != nil {
		if errors.Is(err, jobs.ErrDuplicate) {
			response.Error(c, appErrors.Clonef(appErrors.ErrConflict, "sweep %s already running", kind))
			return
		}
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"kind": kind, "queued": true})
}

// Status godoc
// @Summary Last result of each background sweep
// @Tags Sweeps
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sweeps/status [get]
func (h *SweepHandler) Status(c *gin.Context) {
	results := map[models.SweepKind]models.SweepResult{}
	if h.scheduler != nil {
		results = h.scheduler.LastResults()
	}
	response.JSON(c, http.StatusOK, results, nil)
}
