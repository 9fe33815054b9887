package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/rule"
)

// CreateRule persists a new rule.
func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	if _, err := s.mdb.NewInsert(toRuleModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/mongo: create rule: %w", err)
	}
	return nil
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(ctx context.Context, ruleID id.ID) (*rule.Rule, error) {
	var m ruleModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": ruleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, smsrelay.ErrRuleNotFound
		}
		return nil, fmt.Errorf("smsrelay/mongo: get rule: %w", err)
	}

	return fromRuleModel(&m)
}

// UpdateRule replaces an existing rule.
func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	m := toRuleModel(r)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("smsrelay/mongo: update rule: %w", err)
	}
	if res.MatchedCount() == 0 {
		return smsrelay.ErrRuleNotFound
	}

	return nil
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, ruleID id.ID) error {
	res, err := s.mdb.NewDelete((*ruleModel)(nil)).
		Filter(bson.M{"_id": ruleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("smsrelay/mongo: delete rule: %w", err)
	}
	if res.DeletedCount() == 0 {
		return smsrelay.ErrRuleNotFound
	}

	return nil
}

// ListRules returns rules newest first.
func (s *Store) ListRules(ctx context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	filter := bson.M{}
	if opts.Enabled != nil {
		filter["enabled"] = *opts.Enabled
	}

	return s.findRules(ctx, filter,
		bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}},
		opts.Offset, opts.Limit)
}

// EnabledRules returns enabled rules oldest first.
func (s *Store) EnabledRules(ctx context.Context, limit int) ([]*rule.Rule, error) {
	return s.findRules(ctx, bson.M{"enabled": true},
		bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
		0, limit)
}

func (s *Store) findRules(ctx context.Context, filter bson.M, sort bson.D, offset, limit int) ([]*rule.Rule, error) {
	var models []ruleModel

	q := s.mdb.NewFind(&models).Filter(filter).Sort(sort)
	if offset > 0 {
		q = q.Skip(int64(offset))
	}
	if limit > 0 {
		q = q.Limit(int64(limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("smsrelay/mongo: list rules: %w", err)
	}

	result := make([]*rule.Rule, 0, len(models))
	for i := range models {
		r, err := fromRuleModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}

	return result, nil
}
