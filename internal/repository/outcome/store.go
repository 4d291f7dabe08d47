// Package outcome publishes customers the batch tool rejected so the
// operators and the admin API can see them without access to the load directory.
package outcome

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/metro-mecard/mecard/internal/db"
	"github.com/metro-mecard/mecard/internal/domain/failure"
)

// ErrNotFound is returned when no failure is recorded for a customer.
var ErrNotFound = errors.New("outcome: failure not found")

// store is the consumer interface for outcome operations (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Store keeps one JSON document per rejected customer under <prefix>failure:<id>.
type Store struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an outcome store. Entries expire after ttl.
func New(s store, prefix string, ttl time.Duration) *Store {
	return &Store{store: s, prefix: prefix, ttl: ttl}
}

func (s *Store) key(customerID string) string {
	return s.prefix + "failure:" + customerID
}

// RecordFailure stores f, replacing any earlier failure for the same customer.
func (s *Store) RecordFailure(ctx context.Context, f failure.Failure) error {
	if f.CustomerID == "" {
		return fmt.Errorf("record failure: empty customer id")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal failure %s: %w", f.CustomerID, err)
	}
	if err := s.store.SetWithTTL(ctx, s.key(f.CustomerID), data, s.ttl); err != nil {
		return fmt.Errorf("outcome SET %s: %w", f.CustomerID, err)
	}
	return nil
}

// Failure returns the recorded failure for customerID.
func (s *Store) Failure(ctx context.Context, customerID string) (failure.Failure, error) {
	data, err := s.store.Get(ctx, s.key(customerID))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return failure.Failure{}, ErrNotFound
		}
		return failure.Failure{}, fmt.Errorf("outcome GET %s: %w", customerID, err)
	}
	var f failure.Failure
	if err := json.Unmarshal(data, &f); err != nil {
		return failure.Failure{}, fmt.Errorf("outcome GET %s parse: %w", customerID, err)
	}
	return f, nil
}

// Failures lists every recorded failure, sorted by customer id.
// Keys that expire between SCAN and GET are skipped.
func (s *Store) Failures(ctx context.Context) ([]failure.Failure, error) {
	keys, err := s.store.Scan(ctx, s.prefix+"failure:*")
	if err != nil {
		return nil, fmt.Errorf("outcome SCAN: %w", err)
	}
	out := make([]failure.Failure, 0, len(keys))
	for _, k := range keys {
		f, err := s.Failure(ctx, strings.TrimPrefix(k, s.prefix+"failure:"))
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}

// Clear removes the failure recorded for customerID.
func (s *Store) Clear(ctx context.Context, customerID string) error {
	if err := s.store.Del(ctx, s.key(customerID)); err != nil {
		return fmt.Errorf("outcome DEL %s: %w", customerID, err)
	}
	return nil
}
