package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/ports"
)

const contactColumns = `id, customer_id, type, contact_date, description, created_at, updated_at`

// contactRow mirrors the contacts table. DATE columns come back as midnight UTC.
type contactRow struct {
	ID          uuid.UUID `db:"id"`
	CustomerID  uuid.UUID `db:"customer_id"`
	Type        string    `db:"type"`
	ContactDate time.Time `db:"contact_date"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row contactRow) entity() *entities.Contact {
	return &entities.Contact{
		ID:          row.ID,
		CustomerID:  row.CustomerID,
		Type:        entities.ContactType(row.Type),
		Date:        calendar.FromTime(row.ContactDate),
		Description: row.Description,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

// ContactRepositoryImpl implements the ContactRepository interface
type ContactRepositoryImpl struct {
	db *sqlx.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *sqlx.DB) ports.ContactRepository {
	return &ContactRepositoryImpl{db: db}
}

func (r *ContactRepositoryImpl) Create(ctx context.Context, contact *entities.Contact) error {
	query := `
		INSERT INTO contacts (id, customer_id, type, contact_date, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.CustomerID, string(contact.Type), contact.Date.String(),
		contact.Description, contact.CreatedAt, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}

	return nil
}

func (r *ContactRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1`

	var row contactRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrContactNotFound
		}
		return nil, fmt.Errorf("get contact by id: %w", err)
	}

	return row.entity(), nil
}

func (r *ContactRepositoryImpl) Update(ctx context.Context, contact *entities.Contact) error {
	query := `
		UPDATE contacts
		SET customer_id = $2, type = $3, contact_date = $4, description = $5, updated_at = $6
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		contact.ID, contact.CustomerID, string(contact.Type), contact.Date.String(),
		contact.Description, contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}

	return expectOneRow(result, entities.ErrContactNotFound)
}

func (r *ContactRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}

	return expectOneRow(result, entities.ErrContactNotFound)
}

func (r *ContactRepositoryImpl) List(ctx context.Context, filter ports.ContactFilter) ([]*entities.Contact, error) {
	var where whereClause
	if filter.CustomerID != nil {
		where.add(`customer_id = ?`, *filter.CustomerID)
	}
	if filter.Type != nil {
		where.add(`type = ?`, string(*filter.Type))
	}

	query := `SELECT ` + contactColumns + ` FROM contacts` + where.String() + ` ORDER BY contact_date DESC, created_at DESC`
	query = where.page(query, filter.Limit, filter.Offset)

	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, query, where.args...); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	contacts := make([]*entities.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, row.entity())
	}
	return contacts, nil
}

func (r *ContactRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM contacts`); err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return count, nil
}
