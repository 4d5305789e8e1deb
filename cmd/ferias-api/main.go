package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/ferias-api/api/swagger"
	"github.com/noah-isme/ferias-api/internal/handler"
	"github.com/noah-isme/ferias-api/internal/middleware"
	"github.com/noah-isme/ferias-api/internal/repository"
	"github.com/noah-isme/ferias-api/internal/service"
	"github.com/noah-isme/ferias-api/pkg/cache"
	"github.com/noah-isme/ferias-api/pkg/config"
	"github.com/noah-isme/ferias-api/pkg/database"
	"github.com/noah-isme/ferias-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/ferias-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ferias-api/pkg/middleware/requestid"
	"github.com/noah-isme/ferias-api/pkg/storage"
)

// @title Ferias API
// @version 1.0.0
// @description Vacation accrual, balances and request lifecycle
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database, logr)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			defer client.Close()
			cacheRepo = repository.NewCacheRepository(client, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.BalanceTTL, logr, cfg.Cache.Enabled && cacheRepo != nil)

	departmentRepo := repository.NewDepartmentRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	requestRepo := repository.NewVacationRequestRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := service.NewValidator()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	if cfg.Bootstrap.AdminEmail != "" {
		if err := authSvc.EnsureAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
			return fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	conflictSvc := service.NewConflictService(requestRepo, departmentRepo, employeeRepo, logr, cfg.Vacation.ConflictLookaheadDays)
	departmentSvc := service.NewDepartmentService(departmentRepo, cacheSvc, validate, logr)
	employeeSvc := service.NewEmployeeService(employeeRepo, departmentRepo, periodRepo, requestRepo, cacheSvc, userRepo, validate, logr, cfg.Cache.BalanceTTL)
	periodSvc := service.NewPeriodService(periodRepo, requestRepo, ledgerRepo, cacheSvc, userRepo, validate, logr, cfg.Vacation.ExpiringWindowDays)
	requestSvc := service.NewVacationRequestService(requestRepo, ledgerRepo, employeeRepo, conflictSvc, cacheSvc, metrics, userRepo, validate, logr, cfg.Vacation.UpcomingLimit)
	sweepSvc := service.NewSweepService(employeeRepo, periodRepo, requestRepo, cacheSvc, metrics, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Employees:   employeeRepo,
		Requests:    requestRepo,
		Departments: departmentRepo,
		Periods:     periodRepo,
		Conflicts:   conflictSvc,
		Cache:       cacheSvc,
		Logger:      logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:           cfg.Cache.DashboardTTL,
			UpcomingLimit:      cfg.Vacation.UpcomingLimit,
			ExpiringWindowDays: cfg.Vacation.ExpiringWindowDays,
		},
	})

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return fmt.Errorf("report storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(employeeRepo, departmentRepo, employeeSvc, files, signer, validate, logr, service.ReportServiceConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	reportSvc.StartCleanup(ctx)

	var scheduler *service.SweepScheduler
	if cfg.Sweeps.Enabled {
		scheduler = service.NewSweepScheduler(sweepSvc, service.SweepSchedulerConfig{
			Interval:   cfg.Sweeps.Interval,
			Workers:    cfg.Sweeps.Workers,
			MaxRetries: cfg.Sweeps.MaxRetries,
			RetryDelay: cfg.Sweeps.RetryDelay,
		}, logr)
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	var sweepTrigger handler.SweepTrigger
	if scheduler != nil {
		sweepTrigger = scheduler
	}

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:        handler.NewAuthHandler(authSvc),
		Departments: handler.NewDepartmentHandler(departmentSvc),
		Employees:   handler.NewEmployeeHandler(employeeSvc, periodSvc),
		Periods:     handler.NewPeriodHandler(periodSvc),
		Requests:    handler.NewVacationRequestHandler(requestSvc),
		Conflicts:   handler.NewConflictHandler(conflictSvc),
		Dashboard:   handler.NewDashboardHandler(dashboardSvc),
		Sweeps:      handler.NewSweepHandler(sweepSvc, sweepTrigger),
		Reports:     handler.NewReportHandler(reportSvc),
		Metrics:     handler.NewMetricsHandler(metrics, db),
	}, handler.RouterDeps{
		Tokens:  authSvc,
		Audit:   userRepo,
		Limiter: middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		Logger:  logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
