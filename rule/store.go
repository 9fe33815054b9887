package rule

import (
	"context"

	"github.com/xraph/smsrelay/id"
)

// Store defines the persistence contract for relay rules.
type Store interface {
	// CreateRule persists a new rule.
	CreateRule(ctx context.Context, r *Rule) error

	// GetRule returns a rule by ID.
	GetRule(ctx context.Context, ruleID id.ID) (*Rule, error)

	// UpdateRule replaces the stored fields of an existing rule.
	UpdateRule(ctx context.Context, r *Rule) error

	// DeleteRule removes a rule.
	DeleteRule(ctx context.Context, ruleID id.ID) error

	// ListRules returns rules ordered by creation time, newest first.
	ListRules(ctx context.Context, opts ListOpts) ([]*Rule, error)

	// EnabledRules returns up to limit enabled rules in evaluation order,
	// oldest first. Called on every forwarded message.
	EnabledRules(ctx context.Context, limit int) ([]*Rule, error)
}
