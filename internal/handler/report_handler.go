package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/service"
	"github.com/noah-isme/ferias-api/pkg/response"
)

type reportService interface {
	GenerateBalances(ctx context.Context, actor *models.JWTClaims, req dto.ReportRequest) (*models.Report, error)
	ResolveDownload(token string) (*service.ReportDownload, error)
}

// ReportHandler exposes balance report exports.
type ReportHandler struct {
	reports reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(reports reportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Balances godoc
// @Summary Render the vacation balance report
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body dto.ReportRequest true "Format and optional department"
// @Success 201 {object} response.Envelope
// @Router /reports/balances [post]
func (h *ReportHandler) Balances(c *gin.Context) {
	var req dto.ReportRequest
	if !bindJSON(c, &req) {
		return
	}
	report, err := h.reports.GenerateBalances(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Download godoc
// @Summary Download a rendered report through its signed link
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.reports.ResolveDownload(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	contentType := "text/csv; charset=utf-8"
	if download.Format == models.ReportFormatPDF {
		contentType = "application/pdf"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", download.Filename))
	c.Header("Cache-Control", "no-store")
	if !download.ExpiresAt.IsZero() {
		c.Header("X-Link-Expires", download.ExpiresAt.UTC().Format(time.RFC3339))
	}
	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	c.DataFromReader(http.StatusOK, info.Size(), contentType, download.File, nil)
}
