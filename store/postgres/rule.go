package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/rule"
)

// CreateRule persists a new rule.
func (s *Store) CreateRule(ctx context.Context, r *rule.Rule) error {
	if _, err := s.pg.NewInsert(toRuleModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/postgres: create rule: %w", err)
	}
	return nil
}

// GetRule returns a rule by ID.
func (s *Store) GetRule(ctx context.Context, ruleID id.ID) (*rule.Rule, error) {
	m := new(ruleModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", ruleID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, smsrelay.ErrRuleNotFound
		}
		return nil, fmt.Errorf("smsrelay/postgres: get rule: %w", err)
	}
	return fromRuleModel(m)
}

// UpdateRule replaces the mutable fields of an existing rule.
func (s *Store) UpdateRule(ctx context.Context, r *rule.Rule) error {
	res, err := s.updateRuleQuery(r).Exec(ctx)
	if err != nil {
		return fmt.Errorf("smsrelay/postgres: update rule: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("smsrelay/postgres: update rule: %w", err)
	}
	if rows == 0 {
		return smsrelay.ErrRuleNotFound
	}
	return nil
}

func (s *Store) updateRuleQuery(r *rule.Rule) *pgdriver.UpdateQuery {
	return s.pg.NewUpdate(toRuleModel(r)).
		Column("name", "filter_type", "filter_value", "enabled", "updated_at").
		WherePK()
}

// DeleteRule removes a rule.
func (s *Store) DeleteRule(ctx context.Context, ruleID id.ID) error {
	res, err := s.pg.NewDelete((*ruleModel)(nil)).
		Where("id = ?", ruleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("smsrelay/postgres: delete rule: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("smsrelay/postgres: delete rule: %w", err)
	}
	if rows == 0 {
		return smsrelay.ErrRuleNotFound
	}
	return nil
}

// ListRules returns rules newest first.
func (s *Store) ListRules(ctx context.Context, opts rule.ListOpts) ([]*rule.Rule, error) {
	var models []ruleModel
	if err := s.listRulesQuery(&models, opts).Scan(ctx); err != nil {
		return nil, fmt.Errorf("smsrelay/postgres: list rules: %w", err)
	}
	return fromRuleModels(models)
}

func (s *Store) listRulesQuery(dest *[]ruleModel, opts rule.ListOpts) *pgdriver.SelectQuery {
	q := s.pg.NewSelect(dest)
	if opts.Enabled != nil {
		q = q.Where("enabled = ?", *opts.Enabled)
	}
	q = q.OrderExpr("created_at DESC").OrderExpr("id DESC")
	return page(q, opts.Offset, opts.Limit)
}

// EnabledRules returns enabled rules oldest first.
func (s *Store) EnabledRules(ctx context.Context, limit int) ([]*rule.Rule, error) {
	var models []ruleModel
	if err := s.enabledRulesQuery(&models, limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("smsrelay/postgres: list rules: %w", err)
	}
	return fromRuleModels(models)
}

func (s *Store) enabledRulesQuery(dest *[]ruleModel, limit int) *pgdriver.SelectQuery {
	q := s.pg.NewSelect(dest).
		Where("enabled = true").
		OrderExpr("created_at ASC").
		OrderExpr("id ASC")
	return page(q, 0, limit)
}

func fromRuleModels(models []ruleModel) ([]*rule.Rule, error) {
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
