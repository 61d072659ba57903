package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/url"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	zlog "github.com/rs/zerolog/log"

	"github.com/greencity/event-service/internal/application/event"
	"github.com/greencity/event-service/internal/config"
	rediscache "github.com/greencity/event-service/internal/infrastructure/caching/redis"
	"github.com/greencity/event-service/internal/infrastructure/db/memory"
	"github.com/greencity/event-service/internal/infrastructure/db/postgres"
	"github.com/greencity/event-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/greencity/event-service/internal/logger"
	"github.com/greencity/event-service/internal/transport/http/handlers"
	authmw "github.com/greencity/event-service/internal/transport/http/middleware"
	"github.com/greencity/event-service/internal/transport/http/router"
)

// sysClock implements event.Clock using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

// App holds all dependencies for the service
type App struct {
	Config  *config.Config
	Server  *http.Server
	DB      *sql.DB
	Service *event.Service

	Cache     *rediscache.Client
	Publisher *rabbitmq.Publisher
	Consumer  *rabbitmq.Consumer

	outbox *postgres.OutboxRelay
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg)
	if err != nil {
		zlog.Fatal().Err(err).Msg("db init failed")
	}
	if db != nil {
		defer db.Close()
	}

	var cache *rediscache.Client
	if cfg.RedisURL != "" {
		cache, err = rediscache.New(cfg.RedisURL)
		if err != nil {
			zlog.Fatal().Err(err).Msg("redis init failed")
		}
		defer cache.Close()
	} else {
		zlog.Warn().Msg("REDIS_URL empty: caching disabled")
	}

	app, err := NewApp(cfg, db, cache)
	if err != nil {
		zlog.Fatal().Err(err).Msg("app init failed")
	}
	defer app.Close()

	app.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := app.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		zlog.Info().Msg("shutdown signal received")
	case err := <-errCh:
		zlog.Error().Err(err).Msg("server crashed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Err(err).Msg("http shutdown failed")
	}
}

// openDB returns nil when no DATABASE_URL is configured (dev only).
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.UsesMemoryStore() {
		zlog.Warn().Msg("DATABASE_URL empty: using in-memory event store")
		return nil, nil
	}

	if u, err := url.Parse(cfg.DatabaseURL); err == nil {
		zlog.Info().
			Str("db_user", u.User.Username()).
			Str("db_host", u.Host).
			Str("db_db", u.Path).
			Msg("db config loaded")
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	if cfg.AppEnv == "dev" {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		zlog.Info().Msg("schema migrated")
	}
	return db, nil
}

func NewApp(cfg *config.Config, db *sql.DB, cache *rediscache.Client) (*App, error) {
	app := &App{Config: cfg, DB: db, Cache: cache}
	checks := map[string]handlers.Check{}

	// 1) Infrastructure
	var repo event.EventRepo
	if db != nil {
		repo = postgres.New(db)
		checks["postgres"] = db.PingContext
	} else {
		repo = memory.New()
	}

	var svcCache event.Cache
	if cache != nil {
		svcCache = cache
		checks["redis"] = cache.Ping
	}

	var pub event.EventPublisher = event.NoopPublisher{}
	if cfg.RabbitURL != "" {
		p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, err
		}
		app.Publisher = p
		pub = p
		checks["rabbitmq"] = p.Ping
		zlog.Info().Str("exchange", cfg.RabbitExchange).Msg("rabbit publisher ready")
		if db != nil && cfg.OutboxEnabled {
			app.outbox = postgres.NewOutboxRelay(db, p, postgres.OutboxOptions{Retention: cfg.OutboxRetention})
		}
	} else {
		zlog.Warn().Msg("RABBIT_URL empty: domain events will not be published")
	}

	// 2) Application
	svc := event.New(repo, sysClock{}, pub, svcCache, cfg.CacheTTLDetails, cfg.CacheTTLSearch, event.SearchSettings{
		Location:        cfg.SearchLocation,
		DefaultLanguage: cfg.SearchDefaultLanguage,
		MaxPageSize:     cfg.SearchMaxPageSize,
	})
	// Without a relay nothing would drain the outbox table.
	svc.WithOutbox(app.outbox != nil)
	app.Service = svc

	if cfg.RabbitURL != "" && svcCache != nil {
		c, err := rabbitmq.NewConsumer(cfg.RabbitURL, cfg.RabbitExchange, svc)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.Consumer = c
	}

	// 3) Transport
	h := handlers.NewEventsHandler(svc, cfg.SearchDefaultLanguage)
	auth := authmw.NewAuth(cfg.JWTSecret, cfg.JWTIssuer)
	z := handlers.NewHealthHandler(checks)

	// 4) Router
	httpHandler := router.New(h, auth, z, cfg)

	// 5) Server
	app.Server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      httpHandler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
	return app, nil
}

// Start launches the background workers. They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	if a.outbox != nil {
		go a.outbox.Run(ctx)
		zlog.Info().Msg("outbox relay started")
	}
	if a.Consumer != nil {
		a.Consumer.Start(ctx)
	}
}

func (a *App) Close() {
	if a.Consumer != nil {
		_ = a.Consumer.Close()
	}
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
}
