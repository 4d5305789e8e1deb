package service

import (
	"context"
	"fmt"
	"os"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/models"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
	"github.com/noah-isme/ferias-api/pkg/export"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(reportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (string, string, time.Time, error)
}

type reportEmployeeReader interface {
	ListActive(ctx context.Context) ([]models.Employee, error)
}

type reportDepartmentReader interface {
	List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error)
}

type employeeBalancer interface {
	Balance(ctx context.Context, id string) (*models.EmployeeBalance, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ReportServiceConfig governs download links and file retention.
type ReportServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File      *os.File
	Filename  string
	Format    models.ReportFormat
	ExpiresAt time.Time
}

// ReportService renders balance reports, stores them and signs download links.
type ReportService struct {
	employees   reportEmployeeReader
	departments reportDepartmentReader
	balances    employeeBalancer
	storage     fileStorage
	signer      urlSigner
	csv         csvRenderer
	pdf         pdfRenderer
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
	cfg         ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(employees reportEmployeeReader, departments reportDepartmentReader, balances employeeBalancer, storage fileStorage, signer urlSigner, validate *validator.Validate, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Hour
	}
	return &ReportService{
		employees:   employees,
		departments: departments,
		balances:    balances,
		storage:     storage,
		signer:      signer,
		csv:         export.NewCSVExporter(';'),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

var balanceReportHeaders = []string{
	"Employee", "Department", "Periods", "Entitled", "Taken", "Sold", "Pending", "Available", "Expiring",
}

// GenerateBalances renders the balance report of active employees,
// optionally restricted to one department.
func (s *ReportService) GenerateBalances(ctx context.Context, actor *models.JWTClaims, req dto.ReportRequest) (*models.Report, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid report payload")
	}

	dataset, err := s.buildDataset(ctx, req.DepartmentID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch req.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset)
	default:
		return nil, appErrors.Clonef(appErrors.ErrValidation, "unsupported format %s", req.Format)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	generatedAt := s.now().UTC()
	report := &models.Report{
		ID:          uuid.NewString(),
		Format:      req.Format,
		Rows:        len(dataset.Rows),
		GeneratedBy: actorName(actor),
		GeneratedAt: generatedAt,
	}
	report.Filename = fmt.Sprintf("balances/saldo_%s_%s.%s", generatedAt.Format("20060102_150405"), report.ID[:8], req.Format)

	relPath, err := s.storage.Save(report.Filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(report.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	report.DownloadURL = fmt.Sprintf("%s/reports/download/%s", prefix, token)
	report.ExpiresAt = expiresAt

	s.logger.Info("balance report generated",
		zap.String("report_id", report.ID),
		zap.String("format", string(report.Format)),
		zap.Int("rows", report.Rows))
	return report, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ReportService) ResolveDownload(token string) (*ReportDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}
	format := models.ReportFormat(strings.TrimPrefix(path.Ext(relPath), "."))
	return &ReportDownload{
		File:      file,
		Filename:  path.Base(relPath),
		Format:    format,
		ExpiresAt: expiresAt,
	}, nil
}

// Cleanup removes report files older than the link lifetime.
func (s *ReportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// StartCleanup deletes expired reports every CleanupInterval until ctx ends.
func (s *ReportService) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.Cleanup()
				if err != nil {
					s.logger.Warn("report cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("expired reports removed", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func (s *ReportService) buildDataset(ctx context.Context, departmentID string) (export.Dataset, error) {
	employees, err := s.employees.ListActive(ctx)
	if err != nil {
		return export.Dataset{}, storeError(err, "", "list active employees")
	}
	departments, err := s.departments.List(ctx, models.DepartmentFilter{})
	if err != nil {
		return export.Dataset{}, storeError(err, "", "list departments")
	}
	names := make(map[string]string, len(departments))
	for _, d := range departments {
		names[d.ID] = d.Name
	}

	sort.SliceStable(employees, func(i, j int) bool {
		return strings.ToLower(employees[i].Name) < strings.ToLower(employees[j].Name)
	})

	rows := make([]map[string]string, 0, len(employees))
	for _, e := range employees {
		if departmentID != "" && e.DepartmentID != departmentID {
			continue
		}
		balance, _, err := s.balances.Balance(ctx, e.ID)
		if err != nil {
			return export.Dataset{}, err
		}
		expiring := "no"
		if balance.HasExpiringPeriod {
			expiring = "yes"
		}
		rows = append(rows, map[string]string{
			"Employee":   e.Name,
			"Department": names[e.DepartmentID],
			"Periods":    strconv.Itoa(len(balance.Periods)),
			"Entitled":   strconv.Itoa(balance.TotalEntitled),
			"Taken":      strconv.Itoa(balance.TotalTaken),
			"Sold":       strconv.Itoa(balance.TotalSold),
			"Pending":    strconv.Itoa(balance.TotalPending),
			"Available":  strconv.Itoa(balance.TotalAvailable),
			"Expiring":   expiring,
		})
	}

	title := "Vacation balances"
	if departmentID != "" {
		if name, ok := names[departmentID]; ok {
			title += " - " + name
		}
	}
	return export.Dataset{
		Title:   title,
		Headers: balanceReportHeaders,
		Rows:    rows,
		Numeric: map[string]bool{
			"Periods": true, "Entitled": true, "Taken": true, "Sold": true, "Pending": true, "Available": true,
		},
		Footer: "Generated " + s.now().UTC().Format("2006-01-02 15:04 MST"),
	}, nil
}
