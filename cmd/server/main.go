// Copyright 2026 The PraxHub Authors
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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/praxhub/praxhub/internal/audit"
	"github.com/praxhub/praxhub/internal/authz"
	"github.com/praxhub/praxhub/internal/config"
	"github.com/praxhub/praxhub/internal/observability/logger"
	"github.com/praxhub/praxhub/internal/observability/metrics"
	"github.com/praxhub/praxhub/internal/observability/tracing"
	"github.com/praxhub/praxhub/internal/rbac"
	"github.com/praxhub/praxhub/internal/revocation"
	"github.com/praxhub/praxhub/internal/session"
	"github.com/praxhub/praxhub/internal/store/postgres"
	redisstore "github.com/praxhub/praxhub/internal/store/redis"
	transportHTTP "github.com/praxhub/praxhub/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting praxhub authorization core")

	ctx := context.Background()

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		slog.Error("failed to connect to redis", logger.Error(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Repositories
	roleRepo := postgres.NewRoleRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)
	permissionRepo := postgres.NewPermissionRepository(db)
	orgRepo := postgres.NewOrganizationRepository(db)
	refreshRepo := postgres.NewRefreshTokenRepository(db)
	blacklist := redisstore.NewBlacklist(redisClient)

	// The catalog is loaded and validated once; malformed entries abort
	// startup instead of degrading authorization.
	names, err := permissionRepo.ListNames(ctx)
	if err != nil {
		slog.Error("failed to load permission catalog", logger.Error(err))
		os.Exit(1)
	}
	catalog, err := authz.NewCatalog(names)
	if err != nil {
		slog.Error("invalid permission catalog", logger.Error(err))
		os.Exit(1)
	}
	slog.Info("permission catalog loaded", slog.Int("entries", catalog.Len()))

	// Seed integrity: the root organization and the system roles come from
	// the initial migration and every deployment depends on them.
	if _, err := orgRepo.GetByID(ctx, rbac.RootOrganizationID); err != nil {
		slog.Error("root organization seed missing; run migrations", logger.Error(err))
		os.Exit(1)
	}
	for _, roleID := range []string{rbac.RoleIDPlatformAdmin, rbac.RoleIDOrgAdmin, rbac.RoleIDPractitioner, rbac.RoleIDAnalyst} {
		if _, err := roleRepo.GetByID(ctx, roleID); err != nil {
			slog.Error("system role seed missing; run migrations",
				logger.RoleID(roleID), logger.Error(err))
			os.Exit(1)
		}
	}

	// Services
	auditLogger := audit.NewSlogLogger()
	tokenManager := session.NewManager(
		[]byte(cfg.Tokens.Secret),
		cfg.Tokens.Issuer,
		cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshTTL,
		refreshRepo,
		blacklist,
	)
	invalidator := revocation.New(
		assignmentRepo,
		refreshRepo,
		blacklist,
		auditLogger,
		meter,
		revocation.Config{
			FanoutLimit:  cfg.Invalidator.FanoutLimit,
			Deadline:     cfg.Invalidator.Deadline,
			BlacklistTTL: cfg.Tokens.AccessTTL,
		},
	)
	contextBuilder := authz.NewContextBuilder(assignmentRepo, roleRepo, permissionRepo, orgRepo, catalog)
	authzService := authz.NewService(roleRepo, assignmentRepo, permissionRepo, catalog, invalidator, auditLogger)

	handler := transportHTTP.NewHandler(authzService, contextBuilder, orgRepo, tokenManager, auditLogger, meter)
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	router := transportHTTP.NewRouter(handler, rateLimiter)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		slog.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("forced shutdown", logger.Error(err))
	}
}
