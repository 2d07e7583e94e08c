// invoice/store.go
package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"
)

// ErrNotFound indicates no invoice exists under the given number.
var ErrNotFound = errors.New("invoice: not found")

// ErrDuplicate indicates an invoice with the same number already exists.
var ErrDuplicate = errors.New("invoice: duplicate invoice number")

// Store persists invoice records keyed by invoice number.
type Store interface {
	Save(ctx context.Context, inv *Invoice) error
	Get(ctx context.Context, number string) (*Invoice, error)
	List(ctx context.Context) ([]*Invoice, error)
	Update(ctx context.Context, inv *Invoice) error
	SetBillRef(ctx context.Context, number, billID string) error
	Remove(ctx context.Context, number string) error
}

// RedisStore implements Store on Redis: one hash of number → JSON record.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed invoice store
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) key() string {
	return fmt.Sprintf("%s:invoices", s.prefix)
}

// Save stores a new invoice, rejecting duplicates by invoice number.
func (s *RedisStore) Save(ctx context.Context, inv *Invoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice: %w", err)
	}

	added, err := s.client.HSetNX(ctx, s.key(), inv.Number, data).Result()
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	if !added {
		return ErrDuplicate
	}
	return nil
}

// Get retrieves one invoice by number
func (s *RedisStore) Get(ctx context.Context, number string) (*Invoice, error) {
	data, err := s.client.HGet(ctx, s.key(), number).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	var inv Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
	}
	return &inv, nil
}

// List returns all invoices ordered by invoice number.
func (s *RedisStore) List(ctx context.Context) ([]*Invoice, error) {
	entries, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	invoices := make([]*Invoice, 0, len(entries))
	for _, raw := range entries {
		var inv Invoice
		if err := json.Unmarshal([]byte(raw), &inv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal invoice: %w", err)
		}
		invoices = append(invoices, &inv)
	}
	sort.Slice(invoices, func(i, j int) bool {
		return invoices[i].Number < invoices[j].Number
	})
	return invoices, nil
}

// Update overwrites an existing invoice record
func (s *RedisStore) Update(ctx context.Context, inv *Invoice) error {
	data, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("failed to marshal invoice: %w", err)
	}
	if err := s.client.HSet(ctx, s.key(), inv.Number, data).Err(); err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// SetBillRef stores the remote bill correlation id on an invoice.
func (s *RedisStore) SetBillRef(ctx context.Context, number, billID string) error {
	inv, err := s.Get(ctx, number)
	if err != nil {
		return err
	}
	inv.BillID = billID
	return s.Update(ctx, inv)
}

// Remove deletes an invoice record. Used only by the explicit removal
// action; status transitions otherwise never hard-delete.
func (s *RedisStore) Remove(ctx context.Context, number string) error {
	if err := s.client.HDel(ctx, s.key(), number).Err(); err != nil {
		return fmt.Errorf("failed to remove invoice: %w", err)
	}
	return nil
}
