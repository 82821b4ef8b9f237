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

const opportunityColumns = `id, name, customer_id, value, probability, stage, expected_close_date, created_at, updated_at`

type opportunityRow struct {
	ID                uuid.UUID    `db:"id"`
	Name              string       `db:"name"`
	CustomerID        uuid.UUID    `db:"customer_id"`
	Value             int64        `db:"value"`
	Probability       int          `db:"probability"`
	Stage             string       `db:"stage"`
	ExpectedCloseDate sql.NullTime `db:"expected_close_date"`
	CreatedAt         time.Time    `db:"created_at"`
	UpdatedAt         time.Time    `db:"updated_at"`
}

func (row opportunityRow) entity() *entities.Opportunity {
	o := &entities.Opportunity{
		ID:          row.ID,
		Name:        row.Name,
		CustomerID:  row.CustomerID,
		Value:       row.Value,
		Probability: row.Probability,
		Stage:       entities.Stage(row.Stage),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ExpectedCloseDate.Valid {
		d := calendar.FromTime(row.ExpectedCloseDate.Time)
		o.ExpectedCloseDate = &d
	}
	return o
}

// OpportunityRepositoryImpl implements the OpportunityRepository interface
type OpportunityRepositoryImpl struct {
	db *sqlx.DB
}

// NewOpportunityRepository creates a new opportunity repository
func NewOpportunityRepository(db *sqlx.DB) ports.OpportunityRepository {
	return &OpportunityRepositoryImpl{db: db}
}

func (r *OpportunityRepositoryImpl) Create(ctx context.Context, o *entities.Opportunity) error {
	query := `
		INSERT INTO opportunities (id, name, customer_id, value, probability, stage,
			expected_close_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.Name, o.CustomerID, o.Value, o.Probability, string(o.Stage),
		nullableDate(o.ExpectedCloseDate), o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}

	return nil
}

func (r *OpportunityRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	query := `SELECT ` + opportunityColumns + ` FROM opportunities WHERE id = $1`

	var row opportunityRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("get opportunity by id: %w", err)
	}

	return row.entity(), nil
}

func (r *OpportunityRepositoryImpl) Update(ctx context.Context, o *entities.Opportunity) error {
	query := `
		UPDATE opportunities
		SET name = $2, customer_id = $3, value = $4, probability = $5, stage = $6,
			expected_close_date = $7, updated_at = $8
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		o.ID, o.Name, o.CustomerID, o.Value, o.Probability, string(o.Stage),
		nullableDate(o.ExpectedCloseDate), o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}

	return expectOneRow(result, entities.ErrOpportunityNotFound)
}

func (r *OpportunityRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM opportunities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}

	return expectOneRow(result, entities.ErrOpportunityNotFound)
}

func (r *OpportunityRepositoryImpl) List(ctx context.Context, filter ports.OpportunityFilter) ([]*entities.Opportunity, error) {
	var where whereClause
	if filter.CustomerID != nil {
		where.add(`customer_id = ?`, *filter.CustomerID)
	}
	if filter.Stage != nil {
		where.add(`stage = ?`, string(*filter.Stage))
	}

	query := `SELECT ` + opportunityColumns + ` FROM opportunities` + where.String() + ` ORDER BY created_at DESC`
	query = where.page(query, filter.Limit, filter.Offset)

	var rows []opportunityRow
	if err := r.db.SelectContext(ctx, &rows, query, where.args...); err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	opportunities := make([]*entities.Opportunity, 0, len(rows))
	for _, row := range rows {
		opportunities = append(opportunities, row.entity())
	}
	return opportunities, nil
}

func (r *OpportunityRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM opportunities`); err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return count, nil
}

func (r *OpportunityRepositoryImpl) SumWeightedValue(ctx context.Context) (int64, error) {
	var sum int64
	query := `SELECT COALESCE(SUM(value * probability), 0)::BIGINT FROM opportunities`
	if err := r.db.GetContext(ctx, &sum, query); err != nil {
		return 0, fmt.Errorf("sum weighted value: %w", err)
	}
	return sum, nil
}
