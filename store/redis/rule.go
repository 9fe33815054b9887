package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
	"github.com/xraph/smsrelay/rule"
)

// ruleModel is the JSON representation stored in Redis.
type ruleModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	FilterType  string    `json:"filter_type"`
	FilterValue string    `json:"filter_value,omitempty"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toRuleModel(r *rule.Rule) *ruleModel {
	return &ruleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		FilterType:  string(r.Kind),
		FilterValue: r.Value,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRuleModel(m *ruleModel) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse rule ID %q: %w", m.ID, err)
	}
	return &rule.Rule{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:      ruleID,
		Name:    m.Name,
		Kind:    rule.Kind(m.FilterType),
		Value:   m.FilterValue,
		Enabled: m.Enabled,
	}, nil
}

// CreateRule stores a rule and indexes it.
func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	if err := s.writeRule(ctx, toRuleModel(r)); err != nil {
		return fmt.Errorf("smsrelay/redis: create rule: %w", err)
	}
	return nil
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(ctx context.Context, ruleID id.ID) (*rule.Rule, error) {
	var m ruleModel
	if err := s.getEntity(ctx, entityKey(prefixRule, ruleID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, smsrelay.ErrRuleNotFound
		}
		return nil, fmt.Errorf("smsrelay/redis: get rule: %w", err)
	}
	return fromRuleModel(&m)
}

// UpdateRule replaces an existing rule and its enabled index entry.
func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	m := toRuleModel(r)

	n, err := s.rdb.Exists(ctx, entityKey(prefixRule, m.ID)).Result()
	if err != nil {
		return fmt.Errorf("smsrelay/redis: update rule: %w", err)
	}
	if n == 0 {
		return smsrelay.ErrRuleNotFound
	}

	if err := s.writeRule(ctx, m); err != nil {
		return fmt.Errorf("smsrelay/redis: update rule: %w", err)
	}
	return nil
}

func (s *Store) writeRule(ctx context.Context, m *ruleModel) error {
	raw, err := marshal(m)
	if err != nil {
		return err
	}

	z := goredis.Z{Score: score(m.CreatedAt), Member: m.ID}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entityKey(prefixRule, m.ID), raw, 0)
	pipe.ZAdd(ctx, zRuleAll, z)
	if m.Enabled {
		pipe.ZAdd(ctx, zRuleEnabled, z)
	} else {
		pipe.ZRem(ctx, zRuleEnabled, m.ID)
	}
	_, err = pipe.Exec(ctx)
	return err
}

// DeleteRule removes a rule and its index entries.
func (s *Store) DeleteRule(ctx context.Context, ruleID id.ID) error {
	key := ruleID.String()

	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, entityKey(prefixRule, key))
	pipe.ZRem(ctx, zRuleAll, key)
	pipe.ZRem(ctx, zRuleEnabled, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/redis: delete rule: %w", err)
	}

	if del.Val() == 0 {
		return smsrelay.ErrRuleNotFound
	}
	return nil
}

// ListRules returns rules newest first.
func (s *Store) ListRules(ctx context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	// Without an enabled filter the index can page directly.
	if opts.Enabled == nil {
		start, stop := rangeBounds(opts.Offset, opts.Limit)
		ids, err := s.rdb.ZRevRange(ctx, zRuleAll, start, stop).Result()
		if err != nil {
			return nil, fmt.Errorf("smsrelay/redis: list rules: %w", err)
		}
		return s.loadRules(ctx, ids)
	}

	ids, err := s.rdb.ZRevRange(ctx, zRuleAll, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: list rules: %w", err)
	}
	all, err := s.loadRules(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := make([]*rule.Rule, 0, len(all))
	for _, r := range all {
		if r.Enabled == *opts.Enabled {
			result = append(result, r)
		}
	}
	return applyPagination(result, opts.Offset, opts.Limit), nil
}

// EnabledRules returns enabled rules oldest first.
func (s *Store) EnabledRules(ctx context.Context, limit int) ([]*rule.Rule, error) {
	start, stop := rangeBounds(0, limit)
	ids, err := s.rdb.ZRange(ctx, zRuleEnabled, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: enabled rules: %w", err)
	}
	return s.loadRules(ctx, ids)
}

func (s *Store) loadRules(ctx context.Context, ids []string) ([]*rule.Rule, error) {
	models, err := getEntities[ruleModel](ctx, s, prefixRule, ids)
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: load rules: %w", err)
	}

	result := make([]*rule.Rule, 0, len(models))
	for _, m := range models {
		r, err := fromRuleModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}
