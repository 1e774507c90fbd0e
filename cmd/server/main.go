// Package main is the entrypoint for the HRMS API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/hrms/internal/api"
	"github.com/kiranshivaraju/hrms/internal/api/handler"
	mw "github.com/kiranshivaraju/hrms/internal/api/middleware"
	"github.com/kiranshivaraju/hrms/internal/auth"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/config"
	"github.com/kiranshivaraju/hrms/internal/hr"
	"github.com/kiranshivaraju/hrms/internal/metrics"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/internal/tenant"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// services is everything the router needs, built once per process.
type services struct {
	store     *store.PostgresStore
	cache     handler.Pinger
	backend   cache.Cache
	metrics   *metrics.Metrics
	issuer    *auth.Issuer
	resolver  *tenant.Resolver
	tenants   *tenant.Service
	sessions  *tenant.Authenticator
	hr        *hr.Service
	rateLimit int
	promHTTP  http.Handler
}

func run() error {
	// 1. Load config, fail fast on invalid config
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations for the shared directory tables
	if err := store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache. The cache is optional at runtime: reads fall
	// back to the database while it is down.
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		slog.Warn("redis unreachable, running degraded", "error", err)
	} else {
		slog.Info("redis connected")
	}

	// 5. Metrics
	m := metrics.New()
	reg, err := metrics.NewRegistry(m)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// 6. Tenancy and domain services
	pgStore := store.NewPostgresStore(pool)
	provisioner := store.NewProvisioner(pool, cfg.Tenant.ProvisionTimeout, m)
	tenantCache := cache.NewTenantCache(redisCache, m)

	resolver, err := tenant.NewResolver(pgStore, cfg.Tenant.CacheTTL, cfg.Tenant.CacheMaxEntries, m)
	if err != nil {
		return fmt.Errorf("create tenant resolver: %w", err)
	}
	defer resolver.Close()

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL)
	tenants := tenant.NewService(pgStore, pgStore, provisioner, tenantCache, resolver, m)

	svc := services{
		store:     pgStore,
		cache:     redisCache,
		backend:   redisCache,
		metrics:   m,
		issuer:    issuer,
		resolver:  resolver,
		tenants:   tenants,
		sessions:  tenant.NewAuthenticator(resolver, pgStore, issuer),
		hr:        hr.NewService(pgStore, tenantCache, tenants),
		rateLimit: cfg.RateLimit.PerMinute,
		promHTTP:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}

	// 7. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      newRouter(svc),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // registration provisions a namespace
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newRouter wires handlers to services.
func newRouter(s services) http.Handler {
	departments := handler.NewDepartments(s.hr)
	employees := handler.NewEmployees(s.hr)
	leaves := handler.NewLeaves(s.hr)
	payroll := handler.NewPayroll(s.hr)
	insights := handler.NewInsights(s.hr)
	tenantH := handler.NewTenant(s.tenants)

	return api.NewRouter(api.Dependencies{
		Auth:      mw.NewAuth(s.issuer),
		Tenant:    mw.NewTenantContext(s.resolver),
		RateLimit: mw.NewRateLimit(s.backend, s.rateLimit),
		Metrics:   s.metrics,

		MetricsHandler:  s.promHTTP,
		HealthHandler:   handler.NewHealthHandler(s.store, s.cache),
		RegisterHandler: handler.NewRegisterHandler(s.tenants, s.sessions),
		LoginHandler:    handler.NewLoginHandler(s.sessions),

		GetTenant:    tenantH.Get,
		DeleteTenant: tenantH.Delete,
		ListFeatures: tenantH.ListFeatures,
		GetFeature:   tenantH.GetFeature,
		SetFeature:   tenantH.SetFeature,

		Dashboard: insights.Dashboard(),
		ListAudit: insights.Audit(),

		ListDepartments:  departments.List(),
		GetDepartment:    departments.Get(),
		CreateDepartment: departments.Create(),
		UpdateDepartment: departments.Update(),
		DeleteDepartment: departments.Delete(),

		ListEmployees:  employees.List(),
		GetEmployee:    employees.Get(),
		CreateEmployee: employees.Create(),
		UpdateEmployee: employees.Update(),
		DeleteEmployee: employees.Delete(),

		ListLeaveTypes:     leaves.ListTypes(),
		CreateLeaveType:    leaves.CreateType(),
		ListLeaveRequests:  leaves.List(),
		GetLeaveRequest:    leaves.Get(),
		CreateLeaveRequest: leaves.Create(),
		ApproveLeave:       leaves.Approve(),
		RejectLeave:        leaves.Reject(),
		LeaveBalance:       leaves.Balance(),

		ListPayrollPeriods:   payroll.ListPeriods(),
		GetPayrollPeriod:     payroll.GetPeriod(),
		CreatePayrollPeriod:  payroll.CreatePeriod(),
		AdvancePayrollPeriod: payroll.AdvancePeriod(),
		ListSalarySlips:      payroll.ListSlips(),
		CreateSalarySlip:     payroll.CreateSlip(),
		GetSalarySlip:        payroll.GetSlip(),
	})
}
