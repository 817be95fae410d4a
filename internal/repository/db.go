package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

// Store wraps a database handle for the ledger. Postgres DSNs go through a
// pgx pool; anything else opens an embedded SQLite database (":memory:" for
// in-memory runs).
type Store struct {
	db      *sql.DB
	pool    *pgxpool.Pool // nil for sqlite
	dialect string
	logger  *slog.Logger
}

// Open connects per the DSN and returns the store.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		logger.Info("connecting to database", "dialect", dialectPostgres)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse DSN", "error", err)
			return nil, err
		}

		pc.MaxConns = cfg.MaxConns
		pc.MinConns = cfg.MinConns
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		pc.ConnConfig.RuntimeParams["application_name"] = "invoice-prorata"
		if cfg.StatementTimeout > 0 {
			pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
		}

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}

		logger.Info("successfully connected to database")
		return &Store{
			db:      stdlib.OpenDBFromPool(pool),
			pool:    pool,
			dialect: dialectPostgres,
			logger:  logger,
		}, nil
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn = ":memory:"
	}
	logger.Info("opening database", "dialect", dialectSQLite, "dsn", dsn)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return nil, err
	}
	// a second pooled conn would see a different ":memory:" database
	db.SetMaxOpenConns(1)
	return &Store{db: db, dialect: dialectSQLite, logger: logger}, nil
}

// Close closes the database connections gracefully
func (s *Store) Close() {
	s.logger.Info("closing database connections")
	if err := s.db.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
	if s.pool != nil {
		s.pool.Close()
	}
}

// HealthCheck pings the database to catch DSN issues early.
func (s *Store) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if s.pool != nil {
		return s.pool.Ping(ctx)
	}
	return s.db.PingContext(ctx)
}

// rebind rewrites ?-placeholders to $n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
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
