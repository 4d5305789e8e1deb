package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/ferias-api/internal/middleware"
	"github.com/noah-isme/ferias-api/internal/models"
)

type tokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// Handlers bundles every HTTP handler mounted by Register.
type Handlers struct {
	Auth        *AuthHandler
	Departments *DepartmentHandler
	Employees   *EmployeeHandler
	Periods     *PeriodHandler
	Requests    *VacationRequestHandler
	Conflicts   *ConflictHandler
	Dashboard   *DashboardHandler
	Sweeps      *SweepHandler
	Reports     *ReportHandler
	Metrics     *MetricsHandler
}

// RouterDeps carries the cross-cutting collaborators of the routes.
type RouterDeps struct {
	Tokens  tokenValidator
	Audit   auditRecorder
	Limiter *middleware.RateLimiter
	Logger  *zap.Logger
}

// Register mounts the API under prefix. Reads need any authenticated role,
// writes need ADMIN or HR, decisions also admit MANAGER and sweeps are ADMIN only.
func Register(r *gin.Engine, prefix string, h Handlers, deps RouterDeps) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.Use(middleware.WithResponseMeta())

	api.POST("/auth/login", deps.Limiter.Middleware(), h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)
	api.GET("/reports/download/:token", h.Reports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(deps.Tokens))

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.POST("/auth/change-password", h.Auth.ChangePassword)

	readers := secured.Group("")
	readers.Use(middleware.RequireRoles())

	writers := secured.Group("")
	writers.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleHR), deps.Limiter.Middleware())

	deciders := secured.Group("")
	deciders.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleHR, models.RoleManager), deps.Limiter.Middleware())

	admins := secured.Group("")
	admins.Use(middleware.RequireRoles(models.RoleAdmin))

	audit := func(action, resource string) gin.HandlerFunc {
		return middleware.Audit(deps.Audit, deps.Logger, action, resource)
	}

	readers.GET("/departments", h.Departments.List)
	readers.GET("/departments/:id", h.Departments.Get)
	writers.POST("/departments", audit(models.AuditActionDeptWrite, "department"), h.Departments.Create)
	writers.PUT("/departments/:id", audit(models.AuditActionDeptWrite, "department"), h.Departments.Update)
	writers.DELETE("/departments/:id", audit(models.AuditActionDeptWrite, "department"), h.Departments.Deactivate)

	readers.GET("/employees", h.Employees.List)
	readers.GET("/employees/on-leave", h.Employees.OnLeave)
	readers.GET("/employees/:id", h.Employees.Get)
	readers.GET("/employees/:id/balance", h.Employees.Balance)
	readers.GET("/employees/:id/periods", h.Employees.Periods)
	writers.POST("/employees", audit(models.AuditActionEmployeeWrite, "employee"), h.Employees.Create)
	writers.PUT("/employees/:id", audit(models.AuditActionEmployeeWrite, "employee"), h.Employees.Update)
	writers.PATCH("/employees/:id/active", audit(models.AuditActionEmployeeWrite, "employee"), h.Employees.SetActive)
	writers.DELETE("/employees/:id", h.Employees.Delete)

	readers.GET("/periods/expiring", h.Periods.Expiring)
	readers.GET("/periods/overdue", h.Periods.Overdue)
	readers.GET("/periods/:id", h.Periods.Get)
	readers.GET("/periods/:id/balance", h.Periods.Balance)
	writers.PATCH("/periods/:id/ignored", audit(models.AuditActionPeriodWrite, "acquisition_period"), h.Periods.SetIgnored)
	writers.PATCH("/periods/:id/notes", audit(models.AuditActionPeriodWrite, "acquisition_period"), h.Periods.UpdateNotes)
	writers.POST("/periods/:id/sale", h.Periods.RegisterSale)
	writers.DELETE("/periods/:id/sale", h.Periods.CancelSale)

	readers.GET("/requests", h.Requests.List)
	readers.GET("/requests/pending", h.Requests.Pending)
	readers.GET("/requests/upcoming", h.Requests.Upcoming)
	readers.GET("/requests/:id", h.Requests.Get)
	writers.POST("/requests", h.Requests.Create)
	writers.PUT("/requests/:id", h.Requests.Update)
	writers.POST("/requests/:id/cancel", h.Requests.Cancel)
	writers.DELETE("/requests/:id", h.Requests.Delete)
	deciders.POST("/requests/:id/approve", h.Requests.Approve)
	deciders.POST("/requests/:id/reject", h.Requests.Reject)

	readers.GET("/conflicts", h.Conflicts.Detect)
	readers.GET("/conflicts/active", h.Conflicts.Active)

	readers.GET("/dashboard", h.Dashboard.Summary)

	writers.POST("/reports/balances", audit(models.AuditActionReportExport, "report"), h.Reports.Balances)

	admins.GET("/sweeps/status", h.Sweeps.Status)
	admins.POST("/sweeps/:kind/run", audit(models.AuditActionSweepRun, "sweep"), h.Sweeps.Run)
	admins.POST("/sweeps/:kind/trigger", audit(models.AuditActionSweepRun, "sweep"), h.Sweeps.Trigger)
	admins.GET("/admin/metrics", h.Metrics.Snapshot)
}
