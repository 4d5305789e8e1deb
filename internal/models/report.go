package models

import "time"

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// Report describes a rendered balance report stored on disk.
type Report struct {
	ID          string       `json:"id"`
	Format      ReportFormat `json:"format"`
	Filename    string       `json:"filename"`
	Rows        int          `json:"rows"`
	GeneratedBy string       `json:"generated_by"`
	GeneratedAt time.Time    `json:"generated_at"`
	DownloadURL string       `json:"download_url"`
	ExpiresAt   time.Time    `json:"expires_at"`
}
