package rule

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
)

// DefaultListLimit caps rule listings when the caller does not.
const DefaultListLimit = 100

// Input is the creation payload for rules.
type Input struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"filter_type"`
	Value   string `json:"filter_value,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name    *string `json:"name,omitempty"`
	Kind    *Kind   `json:"filter_type,omitempty"`
	Value   *string `json:"filter_value,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// UnmarshalJSON decodes a patch. An explicit "filter_value": null clears the
// value; an absent key leaves it unchanged.
func (p *Patch) UnmarshalJSON(data []byte) error {
	type plain Patch
	var raw struct {
		plain
		Value json.RawMessage `json:"filter_value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Patch(raw.plain)
	if raw.Value == nil {
		return nil
	}
	var v string
	if !bytes.Equal(raw.Value, []byte("null")) {
		if err := json.Unmarshal(raw.Value, &v); err != nil {
			return err
		}
	}
	p.Value = &v
	return nil
}

// Service provides relay rule management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new rule service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Create validates and stores a new rule. Rules are enabled unless the
// input says otherwise.
func (svc *Service) Create(ctx context.Context, in Input) (*Rule, error) {
	r := &Rule{
		Entity:  entity.New(),
		ID:      id.NewRuleID(),
		Name:    strings.TrimSpace(in.Name),
		Kind:    in.Kind,
		Value:   in.Value,
		Enabled: true,
	}
	if in.Enabled != nil {
		r.Enabled = *in.Enabled
	}

	if err := validate(r); err != nil {
		return nil, err
	}

	if err := svc.store.CreateRule(ctx, r); err != nil {
		return nil, err
	}

	svc.logger.InfoContext(ctx, "rule created", "rule_id", r.ID, "kind", r.Kind)
	return r, nil
}

// Get returns a rule by ID.
func (svc *Service) Get(ctx context.Context, ruleID id.ID) (*Rule, error) {
	return svc.store.GetRule(ctx, ruleID)
}

// Update applies a partial update. It reports whether any field changed;
// an update that changes nothing is not written.
func (svc *Service) Update(ctx context.Context, ruleID id.ID, p Patch) (bool, error) {
	r, err := svc.store.GetRule(ctx, ruleID)
	if err != nil {
		return false, err
	}

	changed := false
	if p.Name != nil && strings.TrimSpace(*p.Name) != r.Name {
		r.Name = strings.TrimSpace(*p.Name)
		changed = true
	}
	if p.Kind != nil && *p.Kind != r.Kind {
		r.Kind = *p.Kind
		changed = true
	}
	if p.Value != nil && *p.Value != r.Value {
		r.Value = *p.Value
		changed = true
	}
	if p.Enabled != nil && *p.Enabled != r.Enabled {
		r.Enabled = *p.Enabled
		changed = true
	}

	if !changed {
		return false, nil
	}

	if err := validate(r); err != nil {
		return false, err
	}

	r.Touch()
	if err := svc.store.UpdateRule(ctx, r); err != nil {
		return false, err
	}

	svc.logger.InfoContext(ctx, "rule updated", "rule_id", r.ID)
	return true, nil
}

// Delete removes a rule.
func (svc *Service) Delete(ctx context.Context, ruleID id.ID) error {
	if err := svc.store.DeleteRule(ctx, ruleID); err != nil {
		return err
	}
	svc.logger.InfoContext(ctx, "rule deleted", "rule_id", ruleID)
	return nil
}

// List returns rules newest first.
func (svc *Service) List(ctx context.Context, opts ListOpts) ([]*Rule, error) {
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	return svc.store.ListRules(ctx, opts)
}

func validate(r *Rule) error {
	if r.Name == "" {
		return &ValidationError{Field: "name", Message: "required"}
	}
	if !r.Kind.Valid() {
		return &ValidationError{Field: "filter_type", Message: "must be one of all, sender, keyword"}
	}
	if r.Kind.NeedsValue() && r.Value == "" {
		return &ValidationError{Field: "filter_value", Message: "required for " + string(r.Kind) + " rules"}
	}
	return nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "rule validation: " + e.Field + ": " + e.Message
}
