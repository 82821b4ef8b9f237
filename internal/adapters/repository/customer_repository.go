package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/ports"
)

const customerColumns = `id, name, phone, email, company, address, created_at, updated_at`

// CustomerRepositoryImpl implements the CustomerRepository interface
type CustomerRepositoryImpl struct {
	db *sqlx.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *sqlx.DB) ports.CustomerRepository {
	return &CustomerRepositoryImpl{db: db}
}

func (r *CustomerRepositoryImpl) Create(ctx context.Context, customer *entities.Customer) error {
	query := `
		INSERT INTO customers (id, name, phone, email, company, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.Name, customer.Phone, customer.Email,
		customer.Company, customer.Address, customer.CreatedAt, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}

	return nil
}

func (r *CustomerRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var customer entities.Customer
	err := r.db.GetContext(ctx, &customer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}

	return &customer, nil
}

func (r *CustomerRepositoryImpl) Update(ctx context.Context, customer *entities.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, phone = $3, email = $4, company = $5, address = $6, updated_at = $7
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		customer.ID, customer.Name, customer.Phone, customer.Email,
		customer.Company, customer.Address, customer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}

	return expectOneRow(result, entities.ErrCustomerNotFound)
}

// Delete removes the customer's contacts and opportunities in the same transaction.
func (r *CustomerRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return withTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM contacts WHERE customer_id = $1`, id); err != nil {
			return fmt.Errorf("delete customer contacts: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM opportunities WHERE customer_id = $1`, id); err != nil {
			return fmt.Errorf("delete customer opportunities: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return expectOneRow(result, entities.ErrCustomerNotFound)
	})
}

func (r *CustomerRepositoryImpl) List(ctx context.Context, filter ports.CustomerFilter) ([]*entities.Customer, error) {
	var where whereClause
	if filter.Search != "" {
		where.add(`(name ILIKE ? OR phone ILIKE ? OR company ILIKE ?)`, "%"+filter.Search+"%")
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where.String() + ` ORDER BY created_at DESC`
	query = where.page(query, filter.Limit, filter.Offset)

	customers := []*entities.Customer{}
	if err := r.db.SelectContext(ctx, &customers, query, where.args...); err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	return customers, nil
}

func (r *CustomerRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM customers`); err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return count, nil
}
