package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/austinstudio/meeting-actions-sub000/api"
	"github.com/austinstudio/meeting-actions-sub000/domain"
	"github.com/austinstudio/meeting-actions-sub000/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	cfg := loadConfig()
	logger := log.StandardLogger()
	ctx := context.Background()

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)
	otel.SetTracerProvider(tp)

	var rc *redis.Client
	if cfg.RedisConnStr != "" {
		rc = redis.NewClient(redisOptions(cfg.RedisConnStr))
	}

	base, health, closeStore, err := openStore(ctx, cfg, rc)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	store := base
	if rc != nil && cfg.Backend != "redis" {
		store = storage.NewCache(base, rc, cfg.CacheTTL)
		log.WithField("ttl", cfg.CacheTTL).Info("redis read-through cache enabled")
	}

	board := domain.DefaultBoard()
	if cfg.BoardFile != "" {
		if board, err = domain.LoadBoard(cfg.BoardFile); err != nil {
			log.Fatalf("board: %v", err)
		}
	}
	opts := []domain.Option{domain.WithLogger(logger), domain.WithBoard(board)}
	if cfg.ActivityQueue != "" {
		if cfg.StorageConnStr == "" {
			log.Fatal("ACTIVITY_QUEUE requires STORAGE_CONNECTION_STRING")
		}
		publisher, err := storage.NewActivityQueue(cfg.StorageConnStr, cfg.ActivityQueue)
		if err != nil {
			log.Fatalf("activity queue: %v", err)
		}
		opts = append(opts, domain.WithPublisher(publisher))
	}

	tasks := domain.NewTaskService(
		domain.NewCollection[*domain.Task](store, domain.TasksCollection, cfg.Concurrency, cfg.MaxRetries, logger),
		opts...,
	)
	contacts := domain.NewContactService(
		domain.NewCollection[*domain.Contact](store, domain.ContactsCollection, cfg.Concurrency, cfg.MaxRetries, logger),
		opts...,
	)

	auth, err := newAuth(cfg)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, echo.HeaderContentEncoding},
	}))
	e.Use(api.GzipRequestMiddleware())
	e.Use(middleware.Gzip())

	svc := api.Services{Tasks: tasks, Contacts: contacts, Health: health}
	if rc != nil {
		svc.Dedupe = api.NewRedisDeduper(rc, cfg.DedupeTTL)
	}
	api.Register(e, svc, auth, logger)

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()
	log.WithFields(log.Fields{"addr": cfg.ListenAddr, "backend": cfg.Backend, "concurrency": cfg.Concurrency}).Info("board api listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("server shutdown")
	}
	if err := closeStore(); err != nil {
		log.WithError(err).Warn("close store")
	}
	if rc != nil {
		_ = rc.Close()
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("tracer shutdown")
	}
}

// openStore builds the configured backend together with its health check and
// a close function.
func openStore(ctx context.Context, cfg config, rc *redis.Client) (domain.BlobStore, api.HealthChecker, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "memory":
		m := storage.NewMemory()
		return m, m, noop, nil
	case "redis":
		if rc == nil {
			return nil, nil, nil, errors.New("redis backend requires REDIS_CONNECTION_STRING")
		}
		r := storage.NewRedis(rc, "board:")
		return r, r, noop, nil
	case "tables":
		if cfg.StorageConnStr == "" {
			return nil, nil, nil, errors.New("tables backend requires STORAGE_CONNECTION_STRING")
		}
		t, err := storage.NewTables(cfg.StorageConnStr, cfg.CollectionTable)
		if err != nil {
			return nil, nil, nil, err
		}
		return t, t, noop, nil
	case "sqlite":
		s, err := storage.NewSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s.Close, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, nil, nil, errors.New("postgres backend requires DATABASE_URL")
		}
		s, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s.Close, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.Backend)
}

func newAuth(cfg config) (*api.Auth, error) {
	authCfg := api.AuthConfig{Audience: cfg.Auth0Audience, KeyCacheTTL: cfg.JWKSCacheTTL}
	if cfg.TestSecret != "" {
		authCfg.TestSecret = []byte(cfg.TestSecret)
		log.Warn("auth running with a shared test secret")
		return api.NewAuth(nil, authCfg), nil
	}
	authCfg.Issuer = "https://" + cfg.Auth0Domain + "/"
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", cfg.Auth0Domain)
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.WithError(err).Warn("jwks refresh failed")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks: %w", err)
	}
	return api.NewAuth(jwks, authCfg), nil
}
