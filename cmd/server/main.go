package main // Entry point package

import (
	"context"   // lifecycle of background workers
	"errors"    // http.ErrServerClosed matching
	"log/slog"  // structured logging
	"net/http"  // server error sentinels
	"os"        // exit codes and signals
	"os/signal" // graceful shutdown
	"syscall"   // SIGTERM
	"time"      // shutdown deadline

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-checkin/internal/config"     // env configuration
	"github.com/iliyamo/event-checkin/internal/database"   // MySQL pool + migrations
	"github.com/iliyamo/event-checkin/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-checkin/internal/i18n"       // welcome messages
	"github.com/iliyamo/event-checkin/internal/logging"    // slog setup
	"github.com/iliyamo/event-checkin/internal/middleware" // rate limiting
	"github.com/iliyamo/event-checkin/internal/qrcode"     // QR codec
	"github.com/iliyamo/event-checkin/internal/queue"      // audit consumer
	"github.com/iliyamo/event-checkin/internal/realtime"   // websocket fan-out
	"github.com/iliyamo/event-checkin/internal/repository" // MySQL repositories
	"github.com/iliyamo/event-checkin/internal/router"     // route registration
	"github.com/iliyamo/event-checkin/internal/service"    // check-in pipeline
)

func main() {
	cfg, err := config.Load() // Load environment config
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.IsDev())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	db, err := database.Open(ctx, database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBName); err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	participants := repository.NewParticipantRepo(db)

	if n, err := tokens.PurgeExpired(ctx, time.Now()); err != nil {
		logger.Warn("purge expired refresh tokens", "error", err)
	} else if n > 0 {
		logger.Info("expired refresh tokens purged", "count", n)
	}

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		created, err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.BcryptCost)
		if err != nil {
			return err
		}
		if created {
			logger.Info("bootstrap admin created", "email", cfg.AdminEmail)
		}
	}

	// Fan-out: the hub serves local sockets; with Redis every instance
	// shares events through the relay.
	hub := realtime.NewHub(logger)
	var bus service.Broadcaster = hub
	rdb := config.NewRedisClient(ctx)
	if rdb != nil {
		defer rdb.Close()
		relay := realtime.NewRedisRelay(rdb, hub, "")
		bus = relay
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("realtime relay stopped", "error", err)
			}
		}()
	}

	var auditor service.Auditor
	if cfg.RabbitMQURL != "" {
		amqpAuditor := service.NewAMQPAuditor(cfg.RabbitMQURL, logger)
		auditor = amqpAuditor
		go amqpAuditor.Run(ctx)
		go func() {
			if err := queue.StartCheckinConsumer(ctx, cfg.RabbitMQURL, queue.DefaultLogPath); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("checkin consumer stopped", "error", err)
			}
		}()
	}

	svc := service.NewParticipantService(service.Deps{
		Store:   participants,
		QR:      qrcode.NewEncoder(),
		Bus:     bus,
		Greeter: i18n.NewTranslator(cfg.Locale),
		Auditor: auditor,
		Logger:  logger,
	})

	e := echo.New() // Create Echo instance
	router.Setup(e, logger, cfg.CORSOrigins)
	router.RegisterRoutes(e, realtime.NewServer(hub, cfg.CORSOrigins))
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)
	rl := config.LoadRateLimitConfig()
	logger.Info("scan rate limit", "enabled", rl.Enabled && rdb != nil, "config", rl.String())
	router.RegisterParticipants(e, handler.NewParticipantHandler(svc), cfg.JWTSecret,
		middleware.NewTokenBucket(rl, rdb))

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
