package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/ports"
)

// PostgresStore is the record store backed by PostgreSQL.
type PostgresStore struct {
	db            *sqlx.DB
	customers     *CustomerRepositoryImpl
	contacts      *ContactRepositoryImpl
	opportunities *OpportunityRepositoryImpl
}

// NewPostgresStore wires the repositories around one connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:            db,
		customers:     &CustomerRepositoryImpl{db: db},
		contacts:      &ContactRepositoryImpl{db: db},
		opportunities: &OpportunityRepositoryImpl{db: db},
	}
}

func (s *PostgresStore) Customers() ports.CustomerRepository         { return s.customers }
func (s *PostgresStore) Contacts() ports.ContactRepository           { return s.contacts }
func (s *PostgresStore) Opportunities() ports.OpportunityRepository { return s.opportunities }

// Ping checks the connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// withTransaction runs fn inside a transaction, rolling back on error or panic.
func withTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rollbackErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// expectOneRow maps a zero-row write to notFound.
func expectOneRow(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// nullableDate converts an optional date to a query argument.
func nullableDate(d *calendar.GregorianDate) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// whereClause collects conditions and positional arguments.
type whereClause struct {
	conds []string
	args  []interface{}
}

func (w *whereClause) add(cond string, arg interface{}) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *whereClause) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT and OFFSET when set.
func (w *whereClause) page(query string, limit, offset int) string {
	if limit > 0 {
		w.args = append(w.args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(w.args))
	}
	if offset > 0 {
		w.args = append(w.args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(w.args))
	}
	return query
}
