// Command hrmsctl is the operator CLI for tenant lifecycle tasks that are
// not exposed over HTTP, such as dropping a tenant namespace.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/hrms/internal/cache"
	"github.com/kiranshivaraju/hrms/internal/config"
	"github.com/kiranshivaraju/hrms/internal/store"
	"github.com/kiranshivaraju/hrms/internal/tenant"
)

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd(openEnv).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openEnv connects to the directory database. Redis is optional here: when
// REDIS_URL is set, status changes also purge the tenant's cached entries.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.LoadOperator()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	closers := []func(){pool.Close}
	var tc *cache.TenantCache
	if cfg.Redis.URL != "" {
		rc, err := cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("create redis cache: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		tc = cache.NewTenantCache(rc, nil)
	}

	pg := store.NewPostgresStore(pool)
	prov := store.NewProvisioner(pool, cfg.Tenant.ProvisionTimeout, nil)

	return &env{
		tenants:    tenant.NewService(pg, pg, prov, tc, nil, nil),
		namespaces: prov,
		migrate: func() error {
			return store.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsDir)
		},
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}
