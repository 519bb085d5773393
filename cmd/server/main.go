// Copyright 2026 The IFLA Standards Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/iflastandards/rgauthz/internal/audit"
	"github.com/iflastandards/rgauthz/internal/authz"
	"github.com/iflastandards/rgauthz/internal/config"
	"github.com/iflastandards/rgauthz/internal/observability/logger"
	"github.com/iflastandards/rgauthz/internal/observability/metrics"
	"github.com/iflastandards/rgauthz/internal/observability/tracing"
	"github.com/iflastandards/rgauthz/internal/store/postgres"
	transportHTTP "github.com/iflastandards/rgauthz/internal/transport/http"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Printf("Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
		OTel:        cfg.Observability.OTELEnabled,
	})

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(cfg); err != nil {
			fmt.Printf("Migration failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if err := run(cfg); err != nil {
		slog.Error("server failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting review group authorization service",
		slog.String("version", cfg.Observability.ServiceVersion),
	)

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   cfg.Observability.SamplingRate,
		Endpoint:       cfg.Observability.OTELEndpoint,
		Insecure:       cfg.Observability.OTELInsecure,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
		tracer, _ = tracing.New(ctx, tracing.Config{})
	}
	defer tracer.Shutdown(context.Background())

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.MetricsEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
		meter = metrics.Noop()
	}

	auditLogger := audit.NewSlogLogger()

	bootCtx, span := tracer.Start(ctx, "rgauthz.bootstrap")

	model, err := loadPolicy(bootCtx, cfg.Policy, auditLogger)
	if err != nil {
		span.End()
		return err
	}

	var (
		db          *postgres.DB
		assignments authz.AssignmentRepository
		health      transportHTTP.HealthChecker
	)
	if cfg.Database.Enabled {
		db, err = connect(bootCtx, cfg)
		if err != nil {
			span.End()
			return err
		}
		defer db.Close()
		slog.Info("connected to database")

		assignments = postgres.NewAssignmentRepository(db)
		health = db
	}

	groups, err := loadRegistry(bootCtx, cfg, db, auditLogger)
	span.End()
	if err != nil {
		return err
	}

	engine := authz.NewEngine(model, groups)
	authzService, err := authz.NewService(engine, authz.NewResolver(groups), assignments, auditLogger, meter)
	if err != nil {
		return fmt.Errorf("failed to initialize authorization service: %w", err)
	}

	// Rate Limiter
	var rateLimiter *transportHTTP.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go rateLimiter.Run(ctx)
	}

	trustedProxies, err := transportHTTP.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	verifier := transportHTTP.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.ClockSkew)
	handler := transportHTTP.NewHandler(authzService, verifier, health)
	router := transportHTTP.NewRouter(handler, transportHTTP.RouterConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		RateLimiter:    rateLimiter,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TrustedProxies: trustedProxies,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"),
			slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
	return nil
}

func connect(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	return postgres.New(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
	})
}

func runMigrate(cfg *config.Config) error {
	ctx := context.Background()
	db, err := connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
