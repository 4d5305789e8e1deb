package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ferias-api/internal/dto"
	"github.com/noah-isme/ferias-api/internal/middleware"
	"github.com/noah-isme/ferias-api/internal/models"
	"github.com/noah-isme/ferias-api/internal/service"
	appErrors "github.com/noah-isme/ferias-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func do(router http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type roleTokens struct{}

func (roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	role := models.UserRole(strings.ToUpper(token))
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return &models.JWTClaims{UserID: "u-" + token, Role: role, FullName: token}, nil
}

type nopAudit struct{ entries []*models.AuditLog }

func (a *nopAudit) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

type fakeRequests struct {
	createResult *dto.VacationRequestResult
	err          error
	lastFilter   models.VacationRequestFilter
	lastActor    *models.JWTClaims
	lastCreate   dto.CreateVacationRequest
	lastReject   dto.RejectVacationRequest
}

func (f *fakeRequests) Get(ctx context.Context, id string) (*models.VacationRequestDetail, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.VacationRequestDetail{VacationRequest: models.VacationRequest{ID: id}}, nil
}

func (f *fakeRequests) List(ctx context.Context, filter models.VacationRequestFilter) ([]models.VacationRequestDetail, *models.Pagination, error) {
	f.lastFilter = filter
	return []models.VacationRequestDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, f.err
}

func (f *fakeRequests) Pending(ctx context.Context, page, size int) ([]models.VacationRequestDetail, *models.Pagination, error) {
	return []models.VacationRequestDetail{}, &models.Pagination{Page: page, PageSize: size}, f.err
}

func (f *fakeRequests) Upcoming(ctx context.Context, limit int) ([]models.VacationRequestDetail, error) {
	return []models.VacationRequestDetail{}, f.err
}

func (f *fakeRequests) Create(ctx context.Context, actor *models.JWTClaims, req dto.CreateVacationRequest) (*dto.VacationRequestResult, error) {
	f.lastActor = actor
	f.lastCreate = req
	return f.createResult, f.err
}

func (f *fakeRequests) Update(ctx context.Context, actor *models.JWTClaims, id string, req dto.UpdateVacationRequest) (*models.VacationRequest, error) {
	return &models.VacationRequest{ID: id}, f.err
}

func (f *fakeRequests) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.VacationRequest, error) {
	f.lastActor = actor
	if f.err != nil {
		return nil, f.err
	}
	return &models.VacationRequest{ID: id, Status: models.RequestStatusApproved}, nil
}

func (f *fakeRequests) Reject(ctx context.Context, actor *models.JWTClaims, id string, req dto.RejectVacationRequest) (*models.VacationRequest, error) {
	f.lastReject = req
	return &models.VacationRequest{ID: id, Status: models.RequestStatusRejected}, f.err
}

func (f *fakeRequests) Cancel(ctx context.Context, actor *models.JWTClaims, id string, req dto.CancelVacationRequest) (*models.VacationRequest, error) {
	return &models.VacationRequest{ID: id, Status: models.RequestStatusCancelled}, f.err
}

func (f *fakeRequests) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return f.err
}

type fakeDepartments struct{ created dto.CreateDepartmentRequest }

func (f *fakeDepartments) List(ctx context.Context, filter models.DepartmentFilter) ([]models.Department, error) {
	return []models.Department{{ID: "d1", Name: "Financeiro"}}, nil
}

func (f *fakeDepartments) Get(ctx context.Context, id string) (*models.Department, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
}

func (f *fakeDepartments) Create(ctx context.Context, req dto.CreateDepartmentRequest) (*models.Department, error) {
	f.created = req
	return &models.Department{ID: "d2", Name: req.Name}, nil
}

func (f *fakeDepartments) Update(ctx context.Context, id string, req dto.UpdateDepartmentRequest) (*models.Department, error) {
	return &models.Department{ID: id}, nil
}

func (f *fakeDepartments) Deactivate(ctx context.Context, id string) error { return nil }

type fakeEmployees struct {
	balanceHit bool
	onLeaveDay time.Time
	activeSet  *bool
}

func (f *fakeEmployees) List(ctx context.Context, filter models.EmployeeFilter) ([]models.EmployeeDetail, *models.Pagination, error) {
	return []models.EmployeeDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (f *fakeEmployees) Get(ctx context.Context, id string) (*models.EmployeeDetail, error) {
	return &models.EmployeeDetail{}, nil
}

func (f *fakeEmployees) Create(ctx context.Context, req dto.CreateEmployeeRequest) (*models.EmployeeDetail, error) {
	return &models.EmployeeDetail{}, nil
}

func (f *fakeEmployees) Update(ctx context.Context, id string, req dto.UpdateEmployeeRequest) (*models.EmployeeDetail, error) {
	return &models.EmployeeDetail{}, nil
}

func (f *fakeEmployees) SetActive(ctx context.Context, id string, active bool) error {
	f.activeSet = &active
	return nil
}

func (f *fakeEmployees) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	return nil
}

func (f *fakeEmployees) OnLeave(ctx context.Context, day time.Time, departmentID string) ([]dto.OnLeaveEntry, error) {
	f.onLeaveDay = day
	return []dto.OnLeaveEntry{}, nil
}

func (f *fakeEmployees) Balance(ctx context.Context, id string) (*models.EmployeeBalance, bool, error) {
	return &models.EmployeeBalance{EmployeeID: id, TotalAvailable: 30}, f.balanceHit, nil
}

func (f *fakeEmployees) ListByEmployee(ctx context.Context, employeeID string) ([]models.AcquisitionPeriod, error) {
	return []models.AcquisitionPeriod{}, nil
}

type fakePeriods struct{ saleDays int }

func (f *fakePeriods) Get(ctx context.Context, id string) (*models.AcquisitionPeriod, error) {
	return &models.AcquisitionPeriod{ID: id}, nil
}

func (f *fakePeriods) Balance(ctx context.Context, id string) (*models.PeriodBalance, error) {
	return &models.PeriodBalance{}, nil
}

func (f *fakePeriods) Expiring(ctx context.Context, days int) ([]models.PeriodWithEmployee, error) {
	return []models.PeriodWithEmployee{}, nil
}

func (f *fakePeriods) Overdue(ctx context.Context) ([]models.PeriodWithEmployee, error) {
	return []models.PeriodWithEmployee{}, nil
}

func (f *fakePeriods) SetIgnored(ctx context.Context, id string, ignored bool) (*models.AcquisitionPeriod, error) {
	return &models.AcquisitionPeriod{ID: id}, nil
}

func (f *fakePeriods) UpdateNotes(ctx context.Context, id string, req dto.UpdatePeriodNotesRequest) (*models.AcquisitionPeriod, error) {
	return &models.AcquisitionPeriod{ID: id}, nil
}

func (f *fakePeriods) RegisterSale(ctx context.Context, actor *models.JWTClaims, id string, req dto.RegisterSaleRequest) (*models.PeriodBalance, error) {
	f.saleDays = req.Days
	if req.Days > 10 {
		return nil, appErrors.Clone(appErrors.ErrRuleViolation, "sale exceeds 10 days")
	}
	return &models.PeriodBalance{}, nil
}

func (f *fakePeriods) CancelSale(ctx context.Context, actor *models.JWTClaims, id string) (*models.PeriodBalance, error) {
	return &models.PeriodBalance{}, nil
}

type fakeConflicts struct {
	start, end time.Time
}

func (f *fakeConflicts) Detect(ctx context.Context, departmentID string, start, end time.Time, excludeID string) (*models.ConflictReport, error) {
	f.start, f.end = start, end
	return &models.ConflictReport{DepartmentID: departmentID}, nil
}

func (f *fakeConflicts) Active(ctx context.Context) ([]models.ConflictReport, error) {
	return []models.ConflictReport{}, nil
}

type fakeDashboard struct{ hit bool }

func (f *fakeDashboard) Summary(ctx context.Context) (*dto.DashboardResponse, bool, error) {
	return &dto.DashboardResponse{Date: "2025-10-19"}, f.hit, nil
}

type fakeSweeps struct {
	ran       []models.SweepKind
	triggered []models.SweepKind
	triggerErr error
}

func (f *fakeSweeps) Run(ctx context.Context, kind models.SweepKind) (models.SweepResult, error) {
	f.ran = append(f.ran, kind)
	return models.SweepResult{Kind: kind, Processed: 3, Created: 1}, nil
}

func (f *fakeSweeps) Trigger(kind models.SweepKind) error {
	f.triggered = append(f.triggered, kind)
	return f.triggerErr
}

func (f *fakeSweeps) LastResults() map[models.SweepKind]models.SweepResult {
	return map[models.SweepKind]models.SweepResult{}
}

type fakeReports struct{}

func (fakeReports) GenerateBalances(ctx context.Context, actor *models.JWTClaims, req dto.ReportRequest) (*models.Report, error) {
	return &models.Report{ID: "r1", Format: req.Format, DownloadURL: "/api/v1/reports/download/tok"}, nil
}

func (fakeReports) ResolveDownload(token string) (*service.ReportDownload, error) {
	return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
}

type fakeAuth struct {
	lastClient *models.ClientMeta
}

func (f *fakeAuth) Login(ctx context.Context, req models.Credentials, client models.ClientMeta) (*models.LoginResponse, error) {
	f.lastClient = &client
	return nil, appErrors.ErrInvalidCredentials
}

func (f *fakeAuth) Refresh(ctx context.Context, req models.RefreshRequest, client models.ClientMeta) (*models.TokenPair, error) {
	f.lastClient = &client
	return &models.TokenPair{AccessToken: "a"}, nil
}

func (f *fakeAuth) Logout(ctx context.Context, userID string, req models.RefreshRequest, client models.ClientMeta) error {
	f.lastClient = &client
	return nil
}

func (f *fakeAuth) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	return nil
}

func (f *fakeAuth) Me(ctx context.Context, userID string) (*models.UserInfo, error) {
	return &models.UserInfo{ID: userID}, nil
}

type testAPI struct {
	router    *gin.Engine
	requests  *fakeRequests
	employees *fakeEmployees
	periods   *fakePeriods
	conflicts *fakeConflicts
	sweeps    *fakeSweeps
	auth      *fakeAuth
	audit     *nopAudit
}

func newTestAPI() *testAPI {
	api := &testAPI{
		requests:  &fakeRequests{},
		employees: &fakeEmployees{},
		periods:   &fakePeriods{},
		conflicts: &fakeConflicts{},
		sweeps:    &fakeSweeps{},
		auth:      &fakeAuth{},
		audit:     &nopAudit{},
	}
	router := gin.New()
	Register(router, "/api/v1", Handlers{
		Auth:        NewAuthHandler(api.auth),
		Departments: NewDepartmentHandler(&fakeDepartments{}),
		Employees:   NewEmployeeHandler(api.employees, api.employees),
		Periods:     NewPeriodHandler(api.periods),
		Requests:    NewVacationRequestHandler(api.requests),
		Conflicts:   NewConflictHandler(api.conflicts),
		Dashboard:   NewDashboardHandler(&fakeDashboard{hit: true}),
		Sweeps:      NewSweepHandler(api.sweeps, api.sweeps),
		Reports:     NewReportHandler(fakeReports{}),
		Metrics:     NewMetricsHandler(service.NewMetricsService(), nil),
	}, RouterDeps{
		Tokens:  roleTokens{},
		Audit:   api.audit,
		Limiter: middleware.NewRateLimiter(0, 0),
	})
	api.router = router
	return api
}
