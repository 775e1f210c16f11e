package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"tutorbook/internal/aggregate"
	"tutorbook/internal/auth"
	"tutorbook/internal/backend"
	"tutorbook/internal/cache"
	"tutorbook/internal/cli"
	"tutorbook/internal/config"
	apphttp "tutorbook/internal/http"
	applog "tutorbook/internal/log"
	"tutorbook/internal/middleware/ratelimit"
	"tutorbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)

	logger.Info("Starting tutorbook", "port", cfg.Port, "backend", cfg.DataBackend, "month_bucket", cfg.MonthBucket)

	bucketing, err := aggregate.ParseBucketing(cfg.MonthBucket)
	if err != nil {
		logger.Error("Invalid month bucketing", applog.FieldError, err)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateBackend(startCtx, backendCfg)
	cancelStart()
	if err != nil {
		logger.Error("Failed to create backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	provider, err := auth.NewProvider(auth.Config{Secret: cfg.JWTSecret, TokenTTL: cfg.JWTTTL})
	if err != nil {
		logger.Error("Failed to initialize auth", applog.FieldError, err)
		os.Exit(1)
	}

	dashboard := services.NewDashboard(res.Store, res.Hub, services.DashboardConfig{
		Bucketing: bucketing,
		CacheTTL:  cfg.DashboardCacheTTL,
	}, logger.WithComponent(applog.ComponentDashboard).Logger)
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	proxies, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Error("Invalid trusted proxies", applog.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Auth:           provider,
		Books:          services.NewBookkeeping(res.Store, logger.WithComponent(applog.ComponentRecords).Logger),
		Dashboard:      dashboard,
		Ready:          res.Ready,
		RateLimiter:    limiter,
		Logger:         logger,
		TrustedProxies: proxies,
	})

	ctx, done := cli.GracefulShutdown(context.Background(), logger, 15*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", applog.FieldError, err)
		}
		metrics := srv.Metrics()
		logger.Info("HTTP server stopped",
			"total_requests", metrics.TotalRequests,
			"avg_response_us", metrics.AverageResponseTime)
		dashboard.Close()
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", applog.FieldError, err)
		}
	})

	janitor := cache.NewJanitor(time.Minute, logger.WithComponent(applog.ComponentCache).Logger, dashboard.Cache(), limiter, provider)
	go janitor.Run(ctx)

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", applog.FieldError, err)
			os.Exit(1)
		}
	}()

	cli.WaitForShutdown(done)
}
