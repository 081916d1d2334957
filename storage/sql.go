package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/austinstudio/meeting-actions-sub000/domain"
)

// Schema is the DDL shared by the SQLite and Postgres backends.
const Schema = `CREATE TABLE IF NOT EXISTS collections (
	name TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	version BIGINT NOT NULL
)`

// SQL stores collections as rows versioned by an increasing counter.
type SQL struct {
	db       *sql.DB
	postgres bool
}

// NewSQLite opens (and creates if needed) a file backed SQLite database.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	s := &SQL{db: db}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgres connects through the pgx stdlib driver.
func NewPostgres(ctx context.Context, databaseURL string) (*SQL, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(20)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	s := &SQL{db: db, postgres: true}
	if err := s.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQL) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQL) rebind(query string) string {
	if !s.postgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) Get(ctx context.Context, name string) (domain.Blob, error) {
	var data string
	var version int64
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT data, version FROM collections WHERE name = ?`), name).Scan(&data, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Blob{}, nil
	}
	if err != nil {
		return domain.Blob{}, fmt.Errorf("select %s: %w", name, err)
	}
	return domain.Blob{Data: []byte(data), Version: strconv.FormatInt(version, 10)}, nil
}

func (s *SQL) Put(ctx context.Context, name string, data []byte, ifVersion string) (string, error) {
	switch ifVersion {
	case domain.AnyVersion:
		var version int64
		err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO collections (name, data, version) VALUES (?, ?, 1)
ON CONFLICT (name) DO UPDATE SET data = excluded.data, version = collections.version + 1
RETURNING version`), name, string(data)).Scan(&version)
		if err != nil {
			return "", fmt.Errorf("upsert %s: %w", name, err)
		}
		return strconv.FormatInt(version, 10), nil
	case "":
		res, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO collections (name, data, version) VALUES (?, ?, 1)
ON CONFLICT (name) DO NOTHING`), name, string(data))
		if err != nil {
			return "", fmt.Errorf("insert %s: %w", name, err)
		}
		if err := requireOneRow(res); err != nil {
			return "", err
		}
		return "1", nil
	}
	current, err := strconv.ParseInt(ifVersion, 10, 64)
	if err != nil {
		return "", domain.ErrConcurrencyConflict
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE collections SET data = ?, version = version + 1 WHERE name = ? AND version = ?`), string(data), name, current)
	if err != nil {
		return "", fmt.Errorf("update %s: %w", name, err)
	}
	if err := requireOneRow(res); err != nil {
		return "", err
	}
	return strconv.FormatInt(current+1, 10), nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConcurrencyConflict
	}
	return nil
}
