package main

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/austinstudio/meeting-actions-sub000/api"
	"github.com/austinstudio/meeting-actions-sub000/domain"
)

type config struct {
	Backend         string
	StorageConnStr  string
	CollectionTable string
	SQLitePath      string
	DatabaseURL     string
	RedisConnStr    string
	CacheTTL        time.Duration
	DedupeTTL       time.Duration
	Concurrency     domain.ConcurrencyMode
	MaxRetries      int
	ActivityQueue   string
	BoardFile       string

	Auth0Domain   string
	Auth0Audience string
	TestSecret    string
	JWKSCacheTTL  time.Duration

	SampleRatio float64
	ListenAddr  string
}

func loadConfig() config {
	cfg := config{
		Backend:         strings.ToLower(envString("STORE_BACKEND", "memory")),
		StorageConnStr:  os.Getenv("STORAGE_CONNECTION_STRING"),
		CollectionTable: envString("COLLECTIONS_TABLE", "BoardCollections"),
		SQLitePath:      envString("SQLITE_PATH", "board.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisConnStr:    os.Getenv("REDIS_CONNECTION_STRING"),
		CacheTTL:        envDur("CACHE_TTL", 5*time.Minute),
		DedupeTTL:       envDur("DEDUPER_TTL", 24*time.Hour),
		MaxRetries:      envInt("STORE_MAX_RETRIES", 5),
		ActivityQueue:   os.Getenv("ACTIVITY_QUEUE"),
		BoardFile:       os.Getenv("BOARD_CONFIG_FILE"),
		Auth0Domain:     os.Getenv("AUTH0_DOMAIN"),
		Auth0Audience:   os.Getenv("AUTH0_AUDIENCE"),
		JWKSCacheTTL:    envDur("JWKS_CACHE_TTL", api.DefaultJWKSCacheTTL),
		SampleRatio:     envFloat("OTEL_SAMPLE_RATIO", 1),
		ListenAddr:      ":8080",
	}

	mode, err := domain.ParseConcurrencyMode(os.Getenv("STORE_CONCURRENCY"))
	if err != nil {
		log.Fatalf("invalid STORE_CONCURRENCY: %v", err)
	}
	cfg.Concurrency = mode

	secret, err := authSecret(cfg.Auth0Domain, cfg.Auth0Audience)
	if err != nil {
		log.Fatal(err)
	}
	cfg.TestSecret = secret

	if val, ok := os.LookupEnv("FUNCTIONS_CUSTOMHANDLER_PORT"); ok {
		cfg.ListenAddr = ":" + val
	}
	if cfg.SampleRatio < 0 || cfg.SampleRatio > 1 {
		log.Fatalf("invalid OTEL_SAMPLE_RATIO: must be between 0 and 1")
	}
	return cfg
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	if n < 0 {
		log.Fatalf("invalid %s: must not be negative", key)
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return d
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Fatalf("invalid %s: %v", key, err)
	}
	return f
}

// authSecret returns the shared HS256 secret when a local or test auth mode
// is enabled, and "" when tokens are verified against Auth0.
func authSecret(auth0Domain, auth0Audience string) (string, error) {
	if mode := strings.ToLower(os.Getenv("LOCAL_AUTH_MODE")); mode != "" {
		if mode != "hs256" {
			return "", fmt.Errorf("unsupported LOCAL_AUTH_MODE value %q", mode)
		}
		secret := os.Getenv("LOCAL_AUTH_SHARED_SECRET")
		if secret == "" {
			return "", errors.New("LOCAL_AUTH_SHARED_SECRET must be set when LOCAL_AUTH_MODE=hs256")
		}
		return secret, nil
	}
	if os.Getenv("AUTH0_TEST_MODE") == "1" {
		secret := os.Getenv("TEST_JWT_SECRET")
		if secret == "" {
			return "", errors.New("AUTH0_TEST_MODE requires TEST_JWT_SECRET")
		}
		return secret, nil
	}
	if auth0Domain == "" || auth0Audience == "" {
		return "", errors.New("missing Auth0 config")
	}
	return "", nil
}

// redisOptions accepts both redis:// URLs and the Azure style
// "host:port,password=...,ssl=True" connection strings.
func redisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.EqualFold(kv[1], "true") {
				opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			}
		}
	}
	return opts
}
