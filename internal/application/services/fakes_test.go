package services

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/infrastructure/logger"
	"github.com/taskmaster/crm/internal/ports"
)

func fixedNow() time.Time {
	return time.Date(2024, 12, 23, 9, 30, 0, 0, time.UTC) // 1403/10/03
}

// fakeStore keeps records in maps. Setting err makes every call fail with it.
type fakeStore struct {
	customers     map[uuid.UUID]entities.Customer
	contacts      map[uuid.UUID]entities.Contact
	opportunities map[uuid.UUID]entities.Opportunity
	err           error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		customers:     map[uuid.UUID]entities.Customer{},
		contacts:      map[uuid.UUID]entities.Contact{},
		opportunities: map[uuid.UUID]entities.Opportunity{},
	}
}

func (s *fakeStore) Customers() ports.CustomerRepository         { return fakeCustomers{s} }
func (s *fakeStore) Contacts() ports.ContactRepository           { return fakeContacts{s} }
func (s *fakeStore) Opportunities() ports.OpportunityRepository { return fakeOpportunities{s} }
func (s *fakeStore) Ping(context.Context) error                 { return s.err }
func (s *fakeStore) Close() error                               { return nil }

type fakeCustomers struct{ s *fakeStore }

func (r fakeCustomers) Create(_ context.Context, c *entities.Customer) error {
	if r.s.err != nil {
		return r.s.err
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r fakeCustomers) GetByID(_ context.Context, id uuid.UUID) (*entities.Customer, error) {
	if r.s.err != nil {
		return nil, r.s.err
	}
	c, ok := r.s.customers[id]
	if !ok {
		return nil, entities.ErrCustomerNotFound
	}
	return &c, nil
}

func (r fakeCustomers) Update(_ context.Context, c *entities.Customer) error {
	if _, ok := r.s.customers[c.ID]; !ok {
		return entities.ErrCustomerNotFound
	}
	r.s.customers[c.ID] = *c
	return nil
}

func (r fakeCustomers) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.customers[id]; !ok {
		return entities.ErrCustomerNotFound
	}
	delete(r.s.customers, id)
	for cid, c := range r.s.contacts {
		if c.CustomerID == id {
			delete(r.s.contacts, cid)
		}
	}
	for oid, o := range r.s.opportunities {
		if o.CustomerID == id {
			delete(r.s.opportunities, oid)
		}
	}
	return nil
}

func (r fakeCustomers) List(_ context.Context, _ ports.CustomerFilter) ([]*entities.Customer, error) {
	var out []*entities.Customer
	for _, c := range r.s.customers {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r fakeCustomers) Count(context.Context) (int64, error) {
	if r.s.err != nil {
		return 0, r.s.err
	}
	return int64(len(r.s.customers)), nil
}

type fakeContacts struct{ s *fakeStore }

func (r fakeContacts) Create(_ context.Context, c *entities.Contact) error {
	r.s.contacts[c.ID] = *c
	return nil
}

func (r fakeContacts) GetByID(_ context.Context, id uuid.UUID) (*entities.Contact, error) {
	c, ok := r.s.contacts[id]
	if !ok {
		return nil, entities.ErrContactNotFound
	}
	return &c, nil
}

func (r fakeContacts) Update(_ context.Context, c *entities.Contact) error {
	if _, ok := r.s.contacts[c.ID]; !ok {
		return entities.ErrContactNotFound
	}
	r.s.contacts[c.ID] = *c
	return nil
}

func (r fakeContacts) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.contacts[id]; !ok {
		return entities.ErrContactNotFound
	}
	delete(r.s.contacts, id)
	return nil
}

func (r fakeContacts) List(_ context.Context, f ports.ContactFilter) ([]*entities.Contact, error) {
	var out []*entities.Contact
	for _, c := range r.s.contacts {
		c := c
		if f.CustomerID != nil && c.CustomerID != *f.CustomerID {
			continue
		}
		out = append(out, &c)
	}
	return out, nil
}

func (r fakeContacts) Count(context.Context) (int64, error) {
	return int64(len(r.s.contacts)), nil
}

type fakeOpportunities struct{ s *fakeStore }

func (r fakeOpportunities) Create(_ context.Context, o *entities.Opportunity) error {
	r.s.opportunities[o.ID] = *o
	return nil
}

func (r fakeOpportunities) GetByID(_ context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	o, ok := r.s.opportunities[id]
	if !ok {
		return nil, entities.ErrOpportunityNotFound
	}
	return &o, nil
}

func (r fakeOpportunities) Update(_ context.Context, o *entities.Opportunity) error {
	if _, ok := r.s.opportunities[o.ID]; !ok {
		return entities.ErrOpportunityNotFound
	}
	r.s.opportunities[o.ID] = *o
	return nil
}

func (r fakeOpportunities) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.s.opportunities[id]; !ok {
		return entities.ErrOpportunityNotFound
	}
	delete(r.s.opportunities, id)
	return nil
}

func (r fakeOpportunities) List(_ context.Context, f ports.OpportunityFilter) ([]*entities.Opportunity, error) {
	var out []*entities.Opportunity
	for _, o := range r.s.opportunities {
		o := o
		if f.Stage != nil && o.Stage != *f.Stage {
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

func (r fakeOpportunities) Count(context.Context) (int64, error) {
	return int64(len(r.s.opportunities)), nil
}

func (r fakeOpportunities) SumWeightedValue(context.Context) (int64, error) {
	var sum int64
	for _, o := range r.s.opportunities {
		sum += o.WeightedValue()
	}
	return sum, nil
}

// recordingMetrics counts observations.
type recordingMetrics struct {
	conversions map[string]int
	sessions    int
	selections  atomic.Int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{conversions: map[string]int{}}
}

func (m *recordingMetrics) ObserveConversion(direction, outcome string) {
	m.conversions[direction+"/"+outcome]++
}

func (m *recordingMetrics) SetPickerSessions(n int) { m.sessions = n }

func (m *recordingMetrics) ObservePickerSelection() { m.selections.Add(1) }

type testServices struct {
	store         *fakeStore
	calendar      *CalendarService
	customers     *CustomerService
	contacts      *ContactService
	opportunities *OpportunityService
	dashboard     *DashboardService
}

func newTestServices() testServices {
	log := logger.NewNop()
	store := newFakeStore()
	cal := NewCalendarService(fixedNow, "", nil, log)
	return testServices{
		store:         store,
		calendar:      cal,
		customers:     NewCustomerService(store.Customers(), log),
		contacts:      NewContactService(store.Contacts(), store.Customers(), cal, log),
		opportunities: NewOpportunityService(store.Opportunities(), store.Customers(), cal, log),
		dashboard:     NewDashboardService(store, cal, log),
	}
}
