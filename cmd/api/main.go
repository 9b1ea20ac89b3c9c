package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/shopsphere/internal/auth"
	"github.com/geocoder89/shopsphere/internal/cache"
	"github.com/geocoder89/shopsphere/internal/config"
	"github.com/geocoder89/shopsphere/internal/db"
	httpx "github.com/geocoder89/shopsphere/internal/http"
	"github.com/geocoder89/shopsphere/internal/http/handlers"
	"github.com/geocoder89/shopsphere/internal/observability"
	"github.com/geocoder89/shopsphere/internal/offers"
	"github.com/geocoder89/shopsphere/internal/orders"
	"github.com/geocoder89/shopsphere/internal/redisclient"
	"github.com/geocoder89/shopsphere/internal/repo/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("api stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: "shopsphere-api",
			Endpoint:    cfg.OTLPEndpoint,
			Environment: cfg.Env,
			SessionType: string(cfg.SessionType),
			SampleRatio: cfg.TraceSampleRatio,
		})
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(sctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, log); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	rdb, err := redisclient.Connect(ctx, redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer rdb.Close()

	usersRepo := postgres.NewUsersRepo(pool, prom)
	if err := db.EnsureAdminUser(ctx, usersRepo, cfg); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	strategy, err := auth.NewStrategy(auth.Options{
		Type:          cfg.SessionType,
		Tokens:        auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL),
		CookieSigner:  auth.NewCookieSigner(cfg.CookieSecret),
		SessionSigner: auth.NewCookieSigner(cfg.SessionSecret),
		Sessions:      auth.NewRedisSessionStore(rdb.Raw(), cfg.TokenTTL),
		Users:         usersRepo,
		SecureCookies: cfg.IsProd(),
		MaxAge:        cfg.TokenTTL,
	})
	if err != nil {
		return err
	}

	products := cache.NewCachedProducts(postgres.NewProductsRepo(pool, prom), rdb.Raw(), 5*time.Minute, log)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	router := httpx.NewRouter(log, cfg, httpx.Deps{
		Strategy:  strategy,
		Users:     usersRepo,
		Products:  products,
		Orders:    orders.NewService(products, postgres.NewOrdersRepo(pool, prom), jobsRepo, prom, log),
		Offers:    offers.NewService(postgres.NewOffersRepo(pool, prom), prom),
		AdminJobs: jobsRepo,
		Prom:      prom,
		Gatherer:  reg,
		Checks: map[string]handlers.Check{
			"postgres": pool.Ping,
			"redis":    rdb.Ping,
		},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "session_type", strategy.Type())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server shutting down")

	shutdownCh := make(chan struct{})
	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")
	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}

	return nil
}
