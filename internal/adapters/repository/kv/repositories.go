package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/crm/internal/domain/calendar"
	"github.com/taskmaster/crm/internal/domain/entities"
	"github.com/taskmaster/crm/internal/ports"
)

// CustomerRepository implements ports.CustomerRepository on Redis.
type CustomerRepository struct {
	client *redis.Client
	keys   keyspace
}

func (r *CustomerRepository) Create(ctx context.Context, customer *entities.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	doc, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.customer(customer.ID), doc, 0)
		pipe.SAdd(ctx, r.keys.customers(), customer.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Customer, error) {
	var customer entities.Customer
	if err := getJSON(ctx, r.client, r.keys.customer(id), &customer, entities.ErrCustomerNotFound); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *CustomerRepository) Update(ctx context.Context, customer *entities.Customer) error {
	doc, err := json.Marshal(customer)
	if err != nil {
		return fmt.Errorf("encode customer: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.keys.customer(customer.ID), doc, 0).Result()
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if !ok {
		return entities.ErrCustomerNotFound
	}
	return nil
}

// Delete removes the customer, its contacts and its opportunities in one MULTI block.
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exists, err := r.client.Exists(ctx, r.keys.customer(id)).Result()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if exists == 0 {
		return entities.ErrCustomerNotFound
	}

	contactIDs, err := r.client.SMembers(ctx, r.keys.customerContacts(id)).Result()
	if err != nil {
		return fmt.Errorf("read customer contacts: %w", err)
	}
	opportunityIDs, err := r.client.SMembers(ctx, r.keys.customerOpportunities(id)).Result()
	if err != nil {
		return fmt.Errorf("read customer opportunities: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, raw := range contactIDs {
			pipe.Del(ctx, r.keys.key("contact", raw))
			pipe.SRem(ctx, r.keys.contacts(), raw)
		}
		for _, raw := range opportunityIDs {
			pipe.Del(ctx, r.keys.key("opportunity", raw))
			pipe.SRem(ctx, r.keys.opportunities(), raw)
		}
		pipe.Del(ctx, r.keys.customerContacts(id), r.keys.customerOpportunities(id), r.keys.customer(id))
		pipe.SRem(ctx, r.keys.customers(), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, filter ports.CustomerFilter) ([]*entities.Customer, error) {
	all, err := loadAll[entities.Customer](ctx, r.client, r.keys.customers(), r.keys.customer)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	out := all[:0]
	needle := strings.ToLower(filter.Search)
	for _, c := range all {
		if needle == "" ||
			strings.Contains(strings.ToLower(c.Name), needle) ||
			strings.Contains(strings.ToLower(c.Phone), needle) ||
			strings.Contains(strings.ToLower(c.Company), needle) {
			out = append(out, c)
		}
	}

	sortByCreatedDesc(out, func(c *entities.Customer) int64 { return c.CreatedAt.UnixNano() })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *CustomerRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, r.keys.customers()).Result()
	if err != nil {
		return 0, fmt.Errorf("count customers: %w", err)
	}
	return n, nil
}

// ContactRepository implements ports.ContactRepository on Redis.
type ContactRepository struct {
	client *redis.Client
	keys   keyspace
}

func contactDocument(c *entities.Contact) ([]byte, error) {
	doc := *c
	doc.TypeLabel = ""
	doc.JalaliDate = ""
	return json.Marshal(&doc)
}

func (r *ContactRepository) Create(ctx context.Context, contact *entities.Contact) error {
	if contact.ID == uuid.Nil {
		contact.ID = uuid.New()
	}
	doc, err := contactDocument(contact)
	if err != nil {
		return fmt.Errorf("encode contact: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.contact(contact.ID), doc, 0)
		pipe.SAdd(ctx, r.keys.contacts(), contact.ID.String())
		pipe.SAdd(ctx, r.keys.customerContacts(contact.CustomerID), contact.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Contact, error) {
	var contact entities.Contact
	if err := getJSON(ctx, r.client, r.keys.contact(id), &contact, entities.ErrContactNotFound); err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *entities.Contact) error {
	previous, err := r.GetByID(ctx, contact.ID)
	if err != nil {
		return err
	}
	doc, err := contactDocument(contact)
	if err != nil {
		return fmt.Errorf("encode contact: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.contact(contact.ID), doc, 0)
		if previous.CustomerID != contact.CustomerID {
			pipe.SRem(ctx, r.keys.customerContacts(previous.CustomerID), contact.ID.String())
			pipe.SAdd(ctx, r.keys.customerContacts(contact.CustomerID), contact.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	contact, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.keys.contact(id))
		pipe.SRem(ctx, r.keys.contacts(), id.String())
		pipe.SRem(ctx, r.keys.customerContacts(contact.CustomerID), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (r *ContactRepository) List(ctx context.Context, filter ports.ContactFilter) ([]*entities.Contact, error) {
	index := r.keys.contacts()
	if filter.CustomerID != nil {
		index = r.keys.customerContacts(*filter.CustomerID)
	}

	all, err := loadAll[entities.Contact](ctx, r.client, index, r.keys.contact)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}

	out := all[:0]
	for _, c := range all {
		if filter.Type == nil || c.Type == *filter.Type {
			out = append(out, c)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := dayKey(out[i].Date), dayKey(out[j].Date)
		if a != b {
			return a > b
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *ContactRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, r.keys.contacts()).Result()
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

func dayKey(d calendar.GregorianDate) int {
	return d.Year*10000 + d.Month*100 + d.Day
}

// OpportunityRepository implements ports.OpportunityRepository on Redis.
type OpportunityRepository struct {
	client *redis.Client
	keys   keyspace
}

func opportunityDocument(o *entities.Opportunity) ([]byte, error) {
	doc := *o
	doc.StageLabel = ""
	doc.ExpectedCloseJalali = ""
	return json.Marshal(&doc)
}

func (r *OpportunityRepository) Create(ctx context.Context, o *entities.Opportunity) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	doc, err := opportunityDocument(o)
	if err != nil {
		return fmt.Errorf("encode opportunity: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.opportunity(o.ID), doc, 0)
		pipe.SAdd(ctx, r.keys.opportunities(), o.ID.String())
		pipe.SAdd(ctx, r.keys.customerOpportunities(o.CustomerID), o.ID.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("create opportunity: %w", err)
	}
	return nil
}

func (r *OpportunityRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Opportunity, error) {
	var o entities.Opportunity
	if err := getJSON(ctx, r.client, r.keys.opportunity(id), &o, entities.ErrOpportunityNotFound); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OpportunityRepository) Update(ctx context.Context, o *entities.Opportunity) error {
	previous, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	doc, err := opportunityDocument(o)
	if err != nil {
		return fmt.Errorf("encode opportunity: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.keys.opportunity(o.ID), doc, 0)
		if previous.CustomerID != o.CustomerID {
			pipe.SRem(ctx, r.keys.customerOpportunities(previous.CustomerID), o.ID.String())
			pipe.SAdd(ctx, r.keys.customerOpportunities(o.CustomerID), o.ID.String())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	return nil
}

func (r *OpportunityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.keys.opportunity(id))
		pipe.SRem(ctx, r.keys.opportunities(), id.String())
		pipe.SRem(ctx, r.keys.customerOpportunities(o.CustomerID), id.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}

func (r *OpportunityRepository) List(ctx context.Context, filter ports.OpportunityFilter) ([]*entities.Opportunity, error) {
	index := r.keys.opportunities()
	if filter.CustomerID != nil {
		index = r.keys.customerOpportunities(*filter.CustomerID)
	}

	all, err := loadAll[entities.Opportunity](ctx, r.client, index, r.keys.opportunity)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}

	out := all[:0]
	for _, o := range all {
		if filter.Stage == nil || o.Stage == *filter.Stage {
			out = append(out, o)
		}
	}

	sortByCreatedDesc(out, func(o *entities.Opportunity) int64 { return o.CreatedAt.UnixNano() })
	return page(out, filter.Limit, filter.Offset), nil
}

func (r *OpportunityRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.SCard(ctx, r.keys.opportunities()).Result()
	if err != nil {
		return 0, fmt.Errorf("count opportunities: %w", err)
	}
	return n, nil
}

func (r *OpportunityRepository) SumWeightedValue(ctx context.Context) (int64, error) {
	all, err := loadAll[entities.Opportunity](ctx, r.client, r.keys.opportunities(), r.keys.opportunity)
	if err != nil {
		return 0, fmt.Errorf("sum weighted value: %w", err)
	}

	var sum int64
	for _, o := range all {
		sum += o.WeightedValue()
	}
	return sum, nil
}
