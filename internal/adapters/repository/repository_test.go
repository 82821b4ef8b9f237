package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/ports"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var customerCols = []string{"id", "name", "phone", "email", "company", "address", "created_at", "updated_at"}

func TestCustomerRepository_Create(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()

	c := &entities.Customer{Name: "علی", Phone: "0912", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(q("INSERT INTO customers")).
		WithArgs(sqlmock.AnyArg(), "علی", "0912", "", "", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Customers().Create(ctx, c))
	assert.NotEqual(t, uuid.Nil, c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_GetByID(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	id := uuid.New()
	now := time.Now().UTC()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(q("SELECT id, name, phone")).
			WithArgs(id.String()).
			WillReturnRows(sqlmock.NewRows(customerCols).
				AddRow(id.String(), "علی", "0912", "a@b.c", "", "", now, now))

		c, err := store.Customers().GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, c.ID)
		assert.Equal(t, "علی", c.Name)
		assert.Equal(t, "a@b.c", c.Email)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(q("SELECT id, name, phone")).
			WithArgs(id.String()).
			WillReturnError(sql.ErrNoRows)

		_, err := store.Customers().GetByID(ctx, id)
		assert.ErrorIs(t, err, entities.ErrCustomerNotFound)
	})

	t.Run("DatabaseError", func(t *testing.T) {
		mock.ExpectQuery(q("SELECT id, name, phone")).
			WithArgs(id.String()).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Customers().GetByID(ctx, id)
		assert.ErrorContains(t, err, "get customer by id")
		assert.NotErrorIs(t, err, entities.ErrCustomerNotFound)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_Update(t *testing.T) {
	store, mock := newMockStore(t)
	c := &entities.Customer{ID: uuid.New(), Name: "n", Phone: "p", UpdatedAt: time.Now()}

	mock.ExpectExec(q("UPDATE customers")).
		WithArgs(c.ID.String(), "n", "p", "", "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Customers().Update(context.Background(), c)
	assert.ErrorIs(t, err, entities.ErrCustomerNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerRepository_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM contacts WHERE customer_id = $1")).
			WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(q("DELETE FROM opportunities WHERE customer_id = $1")).
			WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("DELETE FROM customers WHERE id = $1")).
			WithArgs(id.String()).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, store.Customers().Delete(ctx, id))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("MissingCustomerRollsBack", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM contacts")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q("DELETE FROM opportunities")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q("DELETE FROM customers")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := store.Customers().Delete(ctx, id)
		assert.ErrorIs(t, err, entities.ErrCustomerNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("FailureRollsBack", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectExec(q("DELETE FROM contacts")).WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		err := store.Customers().Delete(ctx, id)
		assert.ErrorContains(t, err, "delete customer contacts")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepository_List(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectQuery(q("SELECT id, name, phone, email, company, address, created_at, updated_at FROM customers WHERE (name ILIKE $1 OR phone ILIKE $1 OR company ILIKE $1) ORDER BY created_at DESC LIMIT $2")).
		WithArgs("%پارس%", 10).
		WillReturnRows(sqlmock.NewRows(customerCols).
			AddRow(uuid.NewString(), "a", "1", "", "پارس", "", now, now).
			AddRow(uuid.NewString(), "b", "2", "", "پارس", "", now, now))

	list, err := store.Customers().List(context.Background(), ports.CustomerFilter{Search: "پارس", Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_CreateAndGet(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()
	customerID := uuid.New()

	c := &entities.Contact{
		CustomerID: customerID,
		Type:       entities.ContactTypeCall,
		Date:       calendar.GregorianDate{Year: 2024, Month: 12, Day: 23},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	mock.ExpectExec(q("INSERT INTO contacts")).
		WithArgs(sqlmock.AnyArg(), customerID.String(), "call", "2024-12-23", "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Contacts().Create(ctx, c))

	mock.ExpectQuery(q("SELECT id, customer_id, type, contact_date")).
		WithArgs(c.ID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "type", "contact_date", "description", "created_at", "updated_at"}).
			AddRow(c.ID.String(), customerID.String(), "call", time.Date(2024, 12, 23, 0, 0, 0, 0, time.UTC), "", now, now))

	got, err := store.Contacts().GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Date, got.Date)
	assert.Equal(t, entities.ContactTypeCall, got.Type)

	mock.ExpectExec(q("DELETE FROM contacts WHERE id = $1")).
		WithArgs(c.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Contacts().Delete(ctx, c.ID), entities.ErrContactNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_ListFilters(t *testing.T) {
	store, mock := newMockStore(t)
	customerID := uuid.New()
	contactType := entities.ContactTypeMeeting

	mock.ExpectQuery(q("FROM contacts WHERE customer_id = $1 AND type = $2 ORDER BY contact_date DESC, created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(customerID.String(), "meeting", 20, 40).
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "type", "contact_date", "description", "created_at", "updated_at"}))

	list, err := store.Contacts().List(context.Background(), ports.ContactFilter{
		CustomerID: &customerID,
		Type:       &contactType,
		Limit:      20,
		Offset:     40,
	})
	require.NoError(t, err)
	assert.Empty(t, list)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepository(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	now := time.Now()
	closeDate := calendar.GregorianDate{Year: 2025, Month: 3, Day: 20}

	o := &entities.Opportunity{
		ID:                uuid.New(),
		Name:              "deal",
		CustomerID:        uuid.New(),
		Value:             1000,
		Probability:       50,
		Stage:             entities.StageProposal,
		ExpectedCloseDate: &closeDate,
		UpdatedAt:         now,
	}

	mock.ExpectExec(q("UPDATE opportunities")).
		WithArgs(o.ID.String(), "deal", o.CustomerID.String(), int64(1000), int64(50), "proposal", "2025-03-20", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Opportunities().Update(ctx, o))

	cols := []string{"id", "name", "customer_id", "value", "probability", "stage", "expected_close_date", "created_at", "updated_at"}
	mock.ExpectQuery(q("FROM opportunities WHERE stage = $1 ORDER BY created_at DESC")).
		WithArgs("proposal").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(o.ID.String(), "deal", o.CustomerID.String(), 1000, 50, "proposal", time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), now, now).
			AddRow(uuid.NewString(), "open", o.CustomerID.String(), 500, 10, "proposal", nil, now, now))

	stage := entities.StageProposal
	list, err := store.Opportunities().List(ctx, ports.OpportunityFilter{Stage: &stage})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].ExpectedCloseDate)
	assert.Equal(t, closeDate, *list[0].ExpectedCloseDate)
	assert.Nil(t, list[1].ExpectedCloseDate)

	mock.ExpectQuery(q("SELECT COALESCE(SUM(value * probability), 0)::BIGINT FROM opportunities")).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(55000)))
	sum, err := store.Opportunities().SumWeightedValue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(55000), sum)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM opportunities")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	count, err := store.Opportunities().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpportunityRepository_CreateWithoutCloseDate(t *testing.T) {
	store, mock := newMockStore(t)
	o := &entities.Opportunity{Name: "x", CustomerID: uuid.New(), Value: 1, Probability: 50, Stage: entities.StageWon}

	mock.ExpectExec(q("INSERT INTO opportunities")).
		WithArgs(sqlmock.AnyArg(), "x", o.CustomerID.String(), int64(1), int64(50), "won", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Opportunities().Create(context.Background(), o))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWhereClause(t *testing.T) {
	var w whereClause
	assert.Empty(t, w.String())

	w.add("a = ?", 1)
	w.add("(b = ? OR c = ?)", 2)
	assert.Equal(t, " WHERE a = $1 AND (b = $2 OR c = $2)", w.String())
	assert.Equal(t, "q LIMIT $3", w.page("q", 5, 0))
	assert.Equal(t, []interface{}{1, 2, 5}, w.args)
}
