package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/i474232898/weather-analyzer/internal/common"
	"github.com/i474232898/weather-analyzer/internal/metrics"
	"github.com/i474232898/weather-analyzer/internal/weather"
)

// Options configures a SQLStore.
type Options struct {
	// Dialect is DialectPostgres or DialectSQLite.
	Dialect string
	// DriverName overrides the database/sql driver registered for Dialect.
	DriverName string
	DSN        string
	// MaxAttempts bounds attempts on transient failures. Defaults to 3.
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
	Sleep       common.SleepFunc
	Logger      *slog.Logger
}

// SQLStore persists weather records in the weather_summary table.
// It holds no open connection between calls: each operation opens one,
// uses it, and closes it before returning.
type SQLStore struct {
	dialect     dialect
	driver      string
	dsn         string
	maxAttempts int
	backoff     func(attempt int) time.Duration
	sleep       common.SleepFunc
	logger      *slog.Logger
}

// New validates opts and returns a store. It does not connect.
func New(opts Options) (*SQLStore, error) {
	d, err := lookupDialect(opts.Dialect)
	if err != nil {
		return nil, err
	}
	if opts.DSN == "" {
		return nil, fmt.Errorf("store: dsn is required")
	}

	s := &SQLStore{
		dialect:     d,
		driver:      d.driver,
		dsn:         opts.DSN,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		sleep:       opts.Sleep,
		logger:      opts.Logger,
	}
	if opts.DriverName != "" {
		s.driver = opts.DriverName
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = 3
	}
	if s.backoff == nil {
		s.backoff = common.Backoff
	}
	if s.sleep == nil {
		s.sleep = common.Sleep
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("module", "record_store", "dialect", d.name)

	return s, nil
}

// withConn opens a connection, runs fn, and releases the connection on every path.
func (s *SQLStore) withConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	db, err := sql.Open(s.driver, s.dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	return fn(conn)
}

// EnsureSchema creates the weather_summary table and its unique key if missing.
// For SQLite the parent directory of the database file is created first.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if s.dialect.name == DialectSQLite {
		if path := sqliteFilePath(s.dsn); path != "" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return weather.NewError(weather.KindStructural, "ensure schema",
					fmt.Errorf("create database dir: %w", err))
			}
		}
	}

	err := s.withConn(ctx, func(conn *sql.Conn) error {
		for _, stmt := range s.dialect.schemaStatements() {
			if _, err := conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return weather.NewError(classify(err), "ensure schema", err)
	}
	return nil
}

// InsertBatch stores records, skipping any whose (city, observed_at) already
// exists, and returns the number newly stored.
//
// Transient failures are retried up to MaxAttempts with exponential backoff;
// once exhausted the error wraps weather.ErrStoreUnavailable. Structural
// failures are returned after the first attempt.
func (s *SQLStore) InsertBatch(ctx context.Context, records []weather.Record) (int, error) {
	if len(records) == 0 {
		s.logger.Warn("no records to insert")
		return 0, nil
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		inserted, err := s.insertOnce(ctx, records)
		if err == nil {
			metrics.StoreAttempts.WithLabelValues("ok").Inc()
			s.logger.Info("records inserted", "inserted", inserted, "records", len(records), "attempt", attempt)
			return inserted, nil
		}

		kind := classify(err)
		if kind != weather.KindTransient {
			metrics.StoreAttempts.WithLabelValues("structural").Inc()
			s.logger.Error("database error; not retrying", "attempt", attempt, "kind", kind.String(), "err", err)
			return 0, weather.NewError(weather.KindStructural, "insert batch", err)
		}

		metrics.StoreAttempts.WithLabelValues("transient").Inc()
		lastErr = err
		s.logger.Warn("database connection attempt failed",
			"attempt", attempt, "max_attempts", s.maxAttempts, "err", err)
		if attempt == s.maxAttempts {
			break
		}

		if err := s.sleep(ctx, s.backoff(attempt)); err != nil {
			lastErr = err
			break
		}
	}

	s.logger.Error("database permanently unavailable; records not inserted",
		"severity", "critical", "records", len(records), "err", lastErr)
	return 0, weather.NewError(weather.KindTransient, "insert batch",
		fmt.Errorf("%w: %v", weather.ErrStoreUnavailable, lastErr))
}

// insertOnce runs one attempt in a single transaction.
func (s *SQLStore) insertOnce(ctx context.Context, records []weather.Record) (int, error) {
	inserted := 0
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}
		defer tx.Rollback() // no-op after commit

		stmt, err := tx.PrepareContext(ctx, s.dialect.insertSQL())
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		n := 0
		for _, r := range records {
			res, err := stmt.ExecContext(ctx, r.City, r.Temperature, r.Humidity, r.ObservedAt.UTC())
			if err != nil {
				return fmt.Errorf("insert %s: %w", r.City, err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			n += int(affected)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		inserted = n
		return nil
	})
	return inserted, err
}
