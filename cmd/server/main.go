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

	"github.com/go-chi/chi/v5"

	"trustverify/internal/platform/config"
	"trustverify/internal/platform/httpserver"
	"trustverify/internal/platform/logger"
	"trustverify/internal/platform/metrics"
	"trustverify/internal/platform/postgres"
	"trustverify/internal/platform/redis"
	"trustverify/internal/session"
	"trustverify/internal/sharing/cache"
	sharingHandler "trustverify/internal/sharing/handler"
	sharingMetrics "trustverify/internal/sharing/metrics"
	"trustverify/internal/sharing/prefsync"
	"trustverify/internal/sharing/publisher"
	sharingService "trustverify/internal/sharing/service"
	"trustverify/internal/sharing/store"
	"trustverify/internal/verification/document"
	verificationHandler "trustverify/internal/verification/handler"
	verificationMetrics "trustverify/internal/verification/metrics"
	verificationService "trustverify/internal/verification/service"
	"trustverify/pkg/platform/middleware/auth"
	"trustverify/pkg/platform/middleware/request"
	"trustverify/pkg/platform/middleware/requesttime"
)

const sessionIssuer = "trustverify"

// main wires dependencies and owns the server lifecycle. Business logic
// lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		slog.Error("trustverify exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer app.close()

	return httpserver.Run(ctx, httpserver.New(cfg.Server.Addr, app.router), log)
}

type app struct {
	router  http.Handler
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger) (*app, error) {
	a := &app{}
	reg := metrics.New()
	sessions := session.NewService(cfg.Server.SessionSigningKey, sessionIssuer, cfg.Server.SessionTTL)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(log))
	r.Use(request.Logger(log))
	r.Use(requesttime.Middleware)
	r.Use(auth.LoadSession(sessions, cfg.Server.SessionCookieName, log))
	r.Handle("/metrics", reg.Handler())

	// Verification read path.
	var fetcher document.Fetcher = document.NewDirFetcher(cfg.Documents.DataDir)
	if cfg.Documents.BaseURL != "" {
		fetcher = document.NewHTTPFetcher(cfg.Documents.BaseURL, &http.Client{})
	}
	verifications := verificationService.New(
		document.NewSharedFetcher(fetcher, document.WithSharedTimeout(cfg.Documents.FetchTimeout)),
		verificationService.WithLogger(log),
		verificationService.WithMetrics(verificationMetrics.New(reg)),
		verificationService.WithFetchTimeout(cfg.Documents.FetchTimeout),
	)
	verificationHandler.New(verifications, log).Register(r)
	document.NewServer(cfg.Documents.DataDir, log).Register(r)

	// Sharing.
	sharingM := sharingMetrics.New(reg)
	backend, err := cacheBackend(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	prefCache := cache.New(backend,
		cache.WithTTL(cfg.Cache.TTL),
		cache.WithLogger(log),
		cache.WithMetrics(sharingM),
	)

	st, err := sharingStore(ctx, cfg, a)
	if err != nil {
		return nil, err
	}
	pub, err := historyPublisher(cfg, log, a)
	if err != nil {
		return nil, err
	}
	sharing := sharingService.New(st, pub,
		sharingService.WithLogger(log),
		sharingService.WithMetrics(sharingM),
		sharingService.WithPhoneRegion(cfg.Sharing.PhoneRegion),
	)

	var remote prefsync.Remote = sharing
	if cfg.PreferencesAPI != "" {
		remote = prefsync.NewHTTPRemote(cfg.PreferencesAPI)
	}
	preferences := prefsync.New(prefCache, remote,
		prefsync.WithLogger(log),
		prefsync.WithMetrics(sharingM),
	)
	sharingHandler.New(preferences, sharing, log).Register(r)

	a.router = r
	return a, nil
}

func cacheBackend(ctx context.Context, cfg config.Config, a *app) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case "", "memory":
		return cache.NewMemoryBackend(), nil
	case "file":
		return cache.NewFileBackend(cfg.Cache.Dir)
	case "redis":
		client, err := redis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		if client == nil {
			return nil, errors.New("cache backend redis requires REDIS_URL")
		}
		a.closers = append(a.closers, client.Close)
		return cache.NewRedisBackend(client), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

func sharingStore(ctx context.Context, cfg config.Config, a *app) (sharingService.Store, error) {
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return store.NewInMemoryStore(), nil
	}
	a.closers = append(a.closers, db.Close)
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}
	return store.NewPostgres(db), nil
}

func historyPublisher(cfg config.Config, log *slog.Logger, a *app) (sharingService.Publisher, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return publisher.NewLogPublisher(log), nil
	}
	pub, err := publisher.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.HistoryTopic)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pub.Close)
	return pub, nil
}
