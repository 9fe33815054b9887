// Package memory provides an in-memory Store implementation for unit testing
// and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/rule"
	relaystore "github.com/xraph/smsrelay/store"
	"github.com/xraph/smsrelay/transport"
)

// compile-time interface check.
var _ relaystore.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store. Values are copied
// in and out so callers never share state with the store.
type Store struct {
	mu sync.RWMutex

	messages  map[string]*message.Record // keyed by ID string
	rules     map[string]*rule.Rule      // keyed by ID string
	transport *transport.Config          // singleton slot

	closed bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		messages: make(map[string]*message.Record),
		rules:    make(map[string]*rule.Rule),
	}
}

// ──────────────────────────────────────────────────
// Lifecycle
// ──────────────────────────────────────────────────

// Migrate is a no-op for the in-memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkOpen()
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *Store) checkOpen() error {
	if s.closed {
		return smsrelay.ErrStoreClosed
	}
	return nil
}

// ──────────────────────────────────────────────────
// message.Store
// ──────────────────────────────────────────────────

// CreateMessage persists a record.
func (s *Store) CreateMessage(_ context.Context, r *message.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.messages[r.ID.String()] = copyRecord(r)
	return nil
}

// GetMessage returns a record by ID.
func (s *Store) GetMessage(_ context.Context, msgID id.ID) (*message.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	r, ok := s.messages[msgID.String()]
	if !ok {
		return nil, smsrelay.ErrMessageNotFound
	}
	return copyRecord(r), nil
}

// ListMessages returns records newest first, optionally filtered by status.
func (s *Store) ListMessages(_ context.Context, opts message.ListOpts) ([]*message.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	result := make([]*message.Record, 0, len(s.messages))
	for _, r := range s.messages {
		if opts.Status != "" && r.Status != opts.Status {
			continue
		}
		result = append(result, copyRecord(r))
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].ID.String() > result[j].ID.String()
		}
		return result[i].Timestamp.After(result[j].Timestamp)
	})

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// CountMessages counts records matching the filter.
func (s *Store) CountMessages(_ context.Context, filter message.CountFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var n int64
	for _, r := range s.messages {
		if filter.Match(r) {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// rule.Store
// ──────────────────────────────────────────────────

// CreateRule persists a new rule.
func (s *Store) CreateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.rules[r.ID.String()] = copyRule(r)
	return nil
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(_ context.Context, ruleID id.ID) (*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	r, ok := s.rules[ruleID.String()]
	if !ok {
		return nil, smsrelay.ErrRuleNotFound
	}
	return copyRule(r), nil
}

// UpdateRule replaces an existing rule.
func (s *Store) UpdateRule(_ context.Context, r *rule.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, ok := s.rules[r.ID.String()]; !ok {
		return smsrelay.ErrRuleNotFound
	}
	s.rules[r.ID.String()] = copyRule(r)
	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(_ context.Context, ruleID id.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	if _, ok := s.rules[ruleID.String()]; !ok {
		return smsrelay.ErrRuleNotFound
	}
	delete(s.rules, ruleID.String())
	return nil
}

// ListRules returns rules newest first.
func (s *Store) ListRules(_ context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	result := s.collectRules(opts.Enabled)
	sort.Slice(result, func(i, j int) bool {
		return newer(result[i], result[j])
	})

	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// EnabledRules returns enabled rules oldest first.
func (s *Store) EnabledRules(_ context.Context, limit int) ([]*rule.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	enabled := true
	result := s.collectRules(&enabled)
	sort.Slice(result, func(i, j int) bool {
		return newer(result[j], result[i])
	})

	return applyPagination(result, 0, limit), nil
}

func (s *Store) collectRules(enabled *bool) []*rule.Rule {
	result := make([]*rule.Rule, 0, len(s.rules))
	for _, r := range s.rules {
		if enabled != nil && r.Enabled != *enabled {
			continue
		}
		result = append(result, copyRule(r))
	}
	return result
}

// newer orders by creation time, then by ID (TypeIDs are time-sortable).
func newer(a, b *rule.Rule) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() > b.ID.String()
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// ──────────────────────────────────────────────────
// transport.Store
// ──────────────────────────────────────────────────

// ReplaceTransport swaps the singleton configuration under the write lock.
func (s *Store) ReplaceTransport(_ context.Context, cfg *transport.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	cp := *cfg
	s.transport = &cp
	return nil
}

// CurrentTransport returns the active configuration.
func (s *Store) CurrentTransport(_ context.Context) (*transport.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	if s.transport == nil {
		return nil, smsrelay.ErrNoTransportConfig
	}
	cp := *s.transport
	return &cp, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func copyRecord(r *message.Record) *message.Record {
	cp := *r
	if r.ForwardedAt != nil {
		at := *r.ForwardedAt
		cp.ForwardedAt = &at
	}
	return &cp
}

func copyRule(r *rule.Rule) *rule.Rule {
	cp := *r
	return &cp
}

func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	if offset > 0 {
		items = items[offset:]
	}

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
