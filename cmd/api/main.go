// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the yomira-id identity server.
//
// # Subcommands
//
//	api run   [flags]   serve the identity API
//	api init  [flags]   bootstrap the admin and persist the client-id allow-list
//	api admin [flags]   replace the admin password
//
// # Startup Sequence (run)
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables and flags.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis when configured.
//  5. Load the identity key and generate the first blind-signature key.
//  6. Wire HTTP handlers and background tasks.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-id/internal/api"
	"github.com/taibuivan/yomira-id/internal/blind"
	"github.com/taibuivan/yomira-id/internal/discovery"
	"github.com/taibuivan/yomira-id/internal/platform/config"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-id/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-id/internal/platform/redis"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/internal/users/auth"
)

// startupTimeout bounds connection and bootstrap work so misconfiguration
// fails fast instead of hanging.
const startupTimeout = 30 * time.Second

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	log := newLogger(slog.LevelInfo)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: api <run|init|admin> [flags]")
		os.Exit(2)
	}

	command, err := config.ParseCommand(os.Args[1])
	must(log, err, "parse command")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load(command, os.Args[2:])
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("command", string(command)),
		slog.String("environment", cfg.Environment),
	)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	accountService := account.NewService(account.NewUserRepository(pool), log)
	clientRepository := auth.NewClientRepository(pool)

	switch command {
	case config.CommandInit:
		_, err := accountService.Bootstrap(startupCtx, cfg.AdminPassword)
		must(log, err, "bootstrap admin")

		policy := auth.NewClientPolicy(cfg.ClientIDs)
		must(log, policy.Persist(startupCtx, clientRepository), "persist client ids")
		log.Info("init_completed", slog.Any("client_ids", policy.IDs()))
		return

	case config.CommandAdmin:
		must(log, accountService.SetAdminPassword(startupCtx, cfg.AdminPassword), "update admin password")
		return
	}

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Keys ───────────────────────────────────────────────────────────
	algorithm, err := cfg.SigningAlgorithmTag()
	must(log, err, "parse signing algorithm")

	var signerOptions []sec.SignerOption
	if cfg.WithKeyID {
		signerOptions = append(signerOptions, sec.WithKeyIDHeader())
	}
	signer, err := sec.LoadIdentitySigner(algorithm, cfg.SigningKeyPath, signerOptions...)
	must(log, err, "load signing key")
	log.Info("identity_key_loaded", slog.String("algorithm", string(signer.Algorithm())), slog.String("key_id", signer.KeyID()))

	keyManager, err := blind.NewKeyManager(blind.KeyManagerConfig{
		Period:      cfg.BlindRotationPeriod,
		RetiredKeys: cfg.BlindRetiredKeys,
		Bits:        cfg.BlindKeyBits,
	}, log)
	must(log, err, "generate blind signing key")

	// ── 6. Domain Wiring ──────────────────────────────────────────────────
	_, err = accountService.Bootstrap(startupCtx, cfg.AdminPassword)
	must(log, err, "bootstrap admin")

	clientPolicy := auth.NewClientPolicy(cfg.ClientIDs)
	if clientPolicy.Open() {
		clientPolicy, err = auth.LoadClientPolicy(startupCtx, clientRepository)
		must(log, err, "load client ids")
	}

	refreshManager := auth.NewRefreshManager(auth.NewRefreshTokenRepository(pool), cfg.RefreshTokenTTL, log)
	authService := auth.NewService(accountService, signer, refreshManager, clientPolicy, auth.Settings{
		Issuer:     cfg.TokenIssuer,
		IDTokenTTL: cfg.IDTokenTTL,
	}, log)

	var quota blind.Quota = blind.Unlimited{}
	if cfg.BlindSignQuota > 0 {
		quota = blind.NewRedisQuota(rdb, int64(cfg.BlindSignQuota))
	}
	blindService := blind.NewService(keyManager, quota, log)

	publisher, err := discovery.NewPublisher(startupCtx, signer, keyManager)
	must(log, err, "render key documents")

	healthDeps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}
	if rdb != nil {
		healthDeps.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 7. Background Tasks ───────────────────────────────────────────────
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	limiter := api.DefaultRateLimiter()
	go limiter.Run(appCtx)
	go keyManager.Run(appCtx)
	go refreshManager.RunPruner(appCtx, constants.RefreshPruneInterval)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(cfg, log, sec.BearerVerifier{Signer: signer, Issuer: cfg.TokenIssuer}, limiter, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(authService),
		Account:   account.NewHandler(accountService),
		Blind:     blind.NewHandler(blindService),
		Discovery: discovery.NewHandler(publisher),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	appCancel()

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))
	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON root logger and installs it as the default.
func newLogger(level slog.Level) *slog.Logger {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)
	return log
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
