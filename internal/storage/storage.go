// Package storage owns the SQLite connection pool and the transaction
// boundary every repository call runs inside.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"quizboard/internal/metrics"
)

const (
	defaultPath        = "quiz.db"
	defaultBusyTimeout = 5 * time.Second
	tracerName         = "quizboard/storage"
)

type Options struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration
	// AutoMigrate creates the schema on open when it does not exist yet.
	AutoMigrate bool

	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	TracerProvider trace.TracerProvider
}

type DB struct {
	sql     *sql.DB
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Open is called once at process start; the returned handle is passed to the
// repositories and closed at shutdown.
func Open(ctx context.Context, opts Options) (*DB, error) {
	path := strings.TrimSpace(opts.Path)
	if path == "" {
		path = defaultPath
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = defaultBusyTimeout
	}
	if opts.MaxOpenConns <= 0 || path == ":memory:" {
		opts.MaxOpenConns = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	conn, err := sql.Open("sqlite3", buildDSN(path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	conn.SetMaxOpenConns(opts.MaxOpenConns)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}

	db := &DB{
		sql:     conn,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		tracer:  opts.TracerProvider.Tracer(tracerName),
	}

	if opts.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}

	db.logger.InfoContext(ctx, "storage opened",
		"path", path,
		"max_open_conns", opts.MaxOpenConns,
		"auto_migrate", opts.AutoMigrate,
	)
	return db, nil
}

func (db *DB) Ping(ctx context.Context) error {
	return db.sql.PingContext(ctx)
}

func (db *DB) Close() error {
	if db == nil || db.sql == nil {
		return errors.New("storage: close of unopened database")
	}
	return db.sql.Close()
}

// buildDSN turns a file path into a go-sqlite3 DSN. Foreign keys are enforced
// and every transaction takes the write lock up front so concurrent writers
// queue on busy_timeout instead of failing on lock upgrade.
func buildDSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	params.Set("_foreign_keys", "on")
	params.Set("_txlock", "immediate")
	if path != ":memory:" {
		params.Set("_journal_mode", "WAL")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}
