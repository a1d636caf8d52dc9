// Package app wires together configuration, storage, and the HTTP surface
// into a running hakanai server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hakanai/hakanai/internal/audit"
	"github.com/hakanai/hakanai/internal/auth"
	"github.com/hakanai/hakanai/internal/config"
	"github.com/hakanai/hakanai/internal/httpapi"
	"github.com/hakanai/hakanai/internal/httpserver"
	"github.com/hakanai/hakanai/internal/platform"
	"github.com/hakanai/hakanai/internal/telemetry"
	"github.com/hakanai/hakanai/pkg/observer"
	"github.com/hakanai/hakanai/pkg/secret"
	"github.com/hakanai/hakanai/pkg/secretservice"
	"github.com/hakanai/hakanai/pkg/stats"
	"github.com/hakanai/hakanai/pkg/token"
)

// gaugeAggregationInterval is how often the operational gauges
// (hakanai_secrets_active, hakanai_secrets_expired_unread) are refreshed.
const gaugeAggregationInterval = 60 * time.Second

// Run wires up the hakanai server — configuration, Redis, the optional audit
// log, the secret lifecycle stack, and the HTTP surface — then blocks until
// ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisDSN)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			logger.Error("closing redis", "error", cerr)
		}
	}()

	maxTTL, err := cfg.MaxTTLDuration()
	if err != nil {
		return fmt.Errorf("parsing max ttl: %w", err)
	}
	anonymousLimit, err := cfg.AnonymousUploadSizeLimitBytes()
	if err != nil {
		return fmt.Errorf("parsing anonymous upload size limit: %w", err)
	}
	uploadSizeLimit, err := cfg.UploadSizeLimitBytes()
	if err != nil {
		return fmt.Errorf("parsing upload size limit: %w", err)
	}
	trustedIPNets, err := cfg.TrustedIPNets()
	if err != nil {
		return fmt.Errorf("parsing trusted ip ranges: %w", err)
	}

	// Optional audit log (Postgres). A nil pool yields a no-op writer.
	var auditPool *pgxpool.Pool
	if cfg.AuditDSN != "" {
		auditPool, err = pgxpool.New(ctx, cfg.AuditDSN)
		if err != nil {
			return fmt.Errorf("connecting to audit database: %w", err)
		}
		defer auditPool.Close()

		if err := platform.RunMigrations(cfg.AuditDSN, cfg.MigrationsDir); err != nil {
			return fmt.Errorf("running audit log migrations: %w", err)
		}
		logger.Info("audit log enabled")
	} else {
		logger.Info("audit log disabled, HAKANAI_AUDIT_DSN not set")
	}

	auditFlushInterval, err := cfg.AuditFlushIntervalDuration()
	if err != nil {
		return fmt.Errorf("parsing audit flush interval: %w", err)
	}
	auditWriter := audit.NewWriter(auditPool, logger, auditFlushInterval)
	auditWriter.Start(ctx)
	defer auditWriter.Close()

	// Secret lifecycle stack.
	secretStore := secret.NewRedisStore(rdb, maxTTL)
	statsStore := stats.NewRedisStore(rdb, maxTTL)
	tokenStore := token.NewRedisStore(rdb)
	tokens := token.NewManager(tokenStore)

	observers := observer.NewManager()
	observers.Register(observer.NewMetricsObserver())
	observers.Register(observer.NewStatsObserver(statsStore, logger))
	if cfg.WebhookURL != "" {
		observers.Register(observer.NewWebhookObserver(cfg.WebhookURL, cfg.WebhookAuthToken, logger))
		logger.Info("webhook observer enabled", "url", cfg.WebhookURL)
	} else {
		logger.Info("webhook observer disabled, HAKANAI_WEBHOOK_URL not set")
	}

	service := secretservice.NewService(secretStore, observers, maxTTL, anonymousLimit, logger)

	if err := bootstrapTokens(ctx, cfg, tokens, auditWriter, logger); err != nil {
		return fmt.Errorf("bootstrapping tokens: %w", err)
	}

	rateLimitWindow, err := cfg.RateLimitWindowDuration()
	if err != nil {
		return fmt.Errorf("parsing rate limit window: %w", err)
	}
	rateLimiter := auth.NewRateLimiter(rdb, cfg.RateLimitMaxAttempts, rateLimitWindow)

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	srv := httpserver.NewServer(cfg, logger, metricsReg)

	handler := httpapi.NewHandler(logger, service, secretStore, tokens, rateLimiter, auditWriter, auditPool, cfg, anonymousLimit, uploadSizeLimit, trustedIPNets, maxTTL)
	handler.MountRoot(srv.Router)
	handler.MountAPI(srv.APIRouter)

	stopGauges := startGaugeAggregation(ctx, secretStore, statsStore, logger)
	defer stopGauges()

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

// bootstrapTokens implements the startup token policy: when admin auth is
// enabled, issue (or reset) the admin token; otherwise issue a default user
// token if none exist. Raw tokens are printed to stderr once and never
// handed to the structured logger.
func bootstrapTokens(ctx context.Context, cfg *config.Config, tokens *token.Manager, auditWriter *audit.Writer, logger *slog.Logger) error {
	if cfg.EnableAdminToken {
		var raw string
		var err error
		action := audit.ActionAdminBootstrap
		if cfg.ResetAdminToken {
			raw, err = tokens.CreateAdminToken(ctx)
			action = audit.ActionAdminTokenReset
		} else {
			raw, err = tokens.CreateAdminTokenIfNone(ctx)
		}
		if err != nil {
			return fmt.Errorf("creating admin token: %w", err)
		}
		if raw != "" {
			fmt.Fprintf(os.Stderr, "hakanai admin token (store this securely, it will not be shown again):\n%s\n", raw)
			auditWriter.Log(audit.Entry{Action: action})
		}
		return nil
	}

	raw, err := tokens.CreateDefaultTokenIfNone(ctx)
	if err != nil {
		return fmt.Errorf("creating default user token: %w", err)
	}
	if raw != "" {
		fmt.Fprintf(os.Stderr, "hakanai default user token (store this securely, it will not be shown again):\n%s\n", raw)
		auditWriter.Log(audit.Entry{Action: audit.ActionAdminBootstrap})
	}
	return nil
}

// startGaugeAggregation launches the background goroutine that periodically
// publishes the active/expired-unread operational gauges, stopping when ctx
// is cancelled. The returned function blocks until the goroutine has exited.
func startGaugeAggregation(ctx context.Context, secretStore secret.Store, statsStore *stats.RedisStore, logger *slog.Logger) func() {
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(gaugeAggregationInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				active, err := secretStore.ActiveSecretCount(ctx)
				if err != nil {
					logger.Warn("gauge aggregation: counting active secrets", "error", err)
				} else {
					telemetry.SecretsActive.Set(float64(active))
				}

				expiredUnread, err := statsStore.CountExpiredUnread(ctx)
				if err != nil {
					logger.Warn("gauge aggregation: counting expired-unread secrets", "error", err)
				} else {
					telemetry.SecretsExpiredUnread.Set(float64(expiredUnread))
				}
			}
		}
	}()

	return func() {
		<-done
	}
}
