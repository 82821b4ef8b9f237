// Package kv stores records as JSON documents in Redis, with one set per
// collection and per customer acting as indexes.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/taskmaster/crm/internal/ports"
)

// Store is the record store backed by Redis.
type Store struct {
	client        *redis.Client
	keys          keyspace
	customers     *CustomerRepository
	contacts      *ContactRepository
	opportunities *OpportunityRepository
}

// NewStore wires the repositories around client. Every key starts with prefix.
func NewStore(client *redis.Client, prefix string) *Store {
	s := &Store{client: client, keys: keyspace{prefix: prefix}}
	s.customers = &CustomerRepository{client: client, keys: s.keys}
	s.contacts = &ContactRepository{client: client, keys: s.keys}
	s.opportunities = &OpportunityRepository{client: client, keys: s.keys}
	return s
}

func (s *Store) Customers() ports.CustomerRepository         { return s.customers }
func (s *Store) Contacts() ports.ContactRepository           { return s.contacts }
func (s *Store) Opportunities() ports.OpportunityRepository { return s.opportunities }

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

type keyspace struct {
	prefix string
}

func (k keyspace) key(parts ...string) string {
	out := k.prefix
	for _, p := range parts {
		if out != "" {
			out += ":"
		}
		out += p
	}
	return out
}

func (k keyspace) customer(id uuid.UUID) string    { return k.key("customer", id.String()) }
func (k keyspace) contact(id uuid.UUID) string     { return k.key("contact", id.String()) }
func (k keyspace) opportunity(id uuid.UUID) string { return k.key("opportunity", id.String()) }
func (k keyspace) customers() string               { return k.key("customers") }
func (k keyspace) contacts() string                { return k.key("contacts") }
func (k keyspace) opportunities() string           { return k.key("opportunities") }

func (k keyspace) customerContacts(id uuid.UUID) string {
	return k.key("customer", id.String(), "contacts")
}

func (k keyspace) customerOpportunities(id uuid.UUID) string {
	return k.key("customer", id.String(), "opportunities")
}

// getJSON loads one document. A missing key yields notFound.
func getJSON(ctx context.Context, client *redis.Client, key string, dst interface{}, notFound error) error {
	raw, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// loadAll reads every document whose id is a member of index. Ids whose document
// vanished between the two calls are skipped.
func loadAll[T any](ctx context.Context, client *redis.Client, index string, docKey func(uuid.UUID) string) ([]*T, error) {
	ids, err := client.SMembers(ctx, index).Result()
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", index, err)
	}
	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		keys = append(keys, docKey(id))
	}

	values, err := client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	out := make([]*T, 0, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		doc := new(T)
		if err := json.Unmarshal([]byte(s), doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// page applies offset and limit to an already sorted slice.
func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return items[:0]
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortByCreatedDesc[T any](items []*T, createdAt func(*T) int64) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]) > createdAt(items[j])
	})
}
