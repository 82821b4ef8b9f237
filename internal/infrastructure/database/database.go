package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmaster/crm/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	healthTimeout  = 5 * time.Second
)

// ErrSchemaNotMigrated is returned by HealthCheck while any record table is missing.
var ErrSchemaNotMigrated = errors.New("crm schema not migrated")

// recordTables are created by migrations/000001_init_schema.up.sql.
var recordTables = []string{"customers", "contacts", "opportunities"}

// DB is the PostgreSQL handle behind the CRM record store.
type DB struct {
	DB *sqlx.DB
}

// New opens the pool described by cfg and waits for the server to answer.
func New(cfg config.DatabaseConfig) (*DB, error) {
	conn, err := sqlx.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s on %s:%d: %w", cfg.Name, cfg.Host, cfg.Port, err)
	}

	return Wrap(conn), nil
}

// Wrap adopts an already open handle.
func Wrap(conn *sqlx.DB) *DB {
	return &DB{DB: conn}
}

// Close closes the pool.
func (db *DB) Close() error {
	if db.DB != nil {
		return db.DB.Close()
	}
	return nil
}

// HealthCheck pings the server and checks that the record tables exist, so a
// reachable but unmigrated database is reported as unhealthy.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	if err := db.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	missing, err := db.MissingTables(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrSchemaNotMigrated, strings.Join(missing, ", "))
	}
	return nil
}

// MissingTables lists the record tables not present in the search path.
func (db *DB) MissingTables(ctx context.Context) ([]string, error) {
	const query = `SELECT t FROM unnest($1::text[]) AS t WHERE to_regclass(t) IS NULL ORDER BY t`

	missing := []string{}
	if err := db.DB.SelectContext(ctx, &missing, query, pq.Array(recordTables)); err != nil {
		return nil, fmt.Errorf("look up record tables: %w", err)
	}
	return missing, nil
}

// Stats reports the pool counters shown on the detailed health endpoint.
func (db *DB) Stats() map[string]interface{} {
	stats := db.DB.Stats()

	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
		"max_idle_closed":      stats.MaxIdleClosed,
		"max_lifetime_closed":  stats.MaxLifetimeClosed,
		"record_tables":        len(recordTables),
	}
}
