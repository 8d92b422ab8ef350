package store

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultLockTimeout bounds how long a registration waits for an event row lock.
const DefaultLockTimeout = 5 * time.Second

const migrationLockID int64 = 734019221

type PostgresStore struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// Option configures a PostgresStore.
type Option func(*PostgresStore)

// WithLockTimeout overrides the lock_timeout applied inside transactions.
// Zero leaves the server default in place.
func WithLockTimeout(d time.Duration) Option {
	return func(s *PostgresStore) {
		if d >= 0 {
			s.lockTimeout = d
		}
	}
}

func NewPostgres(ctx context.Context, databaseURL string, opts ...Option) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return NewFromPool(pool, opts...), nil
}

// NewFromPool wraps an existing pool; the caller keeps ownership of it.
func NewFromPool(pool *pgxpool.Pool, opts ...Option) *PostgresStore {
	s := &PostgresStore{pool: pool, lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping reports whether the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RunMigrations executes all .up.sql migration files in order. An advisory
// lock keeps concurrently starting instances from racing on the same files.
func (s *PostgresStore) RunMigrations(ctx context.Context, migrationsDir string) error {
	var migrations []string
	err := filepath.WalkDir(migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".up.sql") {
			migrations = append(migrations, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Strings(migrations)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring migration connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.WithoutCancel(ctx), `SELECT pg_advisory_unlock($1)`, migrationLockID)
	}()

	_, err = conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	for _, path := range migrations {
		version := filepath.Base(path)

		var exists bool
		err := conn.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		sql, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", version, err)
		}

		if _, err := conn.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("executing migration %s: %w", version, err)
		}

		_, err = conn.Exec(ctx,
			"INSERT INTO schema_migrations (version) VALUES ($1)",
			version,
		)
		if err != nil {
			return fmt.Errorf("recording migration %s: %w", version, err)
		}
	}

	return nil
}
