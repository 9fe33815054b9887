// Package rule defines relay rules and the evaluator that decides whether an
// inbound message is forwarded.
package rule

import (
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
)

// Kind selects how a rule matches a message.
type Kind string

// Rule kinds.
const (
	// KindAll matches every message.
	KindAll Kind = "all"

	// KindSender matches when Value is a case-insensitive substring of the sender.
	KindSender Kind = "sender"

	// KindKeyword matches when Value is a case-insensitive substring of the content.
	KindKeyword Kind = "keyword"
)

// Valid reports whether k is a known rule kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAll, KindSender, KindKeyword:
		return true
	}
	return false
}

// NeedsValue reports whether rules of this kind require a match value.
func (k Kind) NeedsValue() bool {
	return k == KindSender || k == KindKeyword
}

// Rule is a stored predicate deciding whether a message qualifies for relay.
type Rule struct {
	entity.Entity

	// ID is the unique TypeID for this rule.
	ID id.ID `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Kind selects the match strategy.
	Kind Kind `json:"filter_type"`

	// Value is the substring to look for. Empty for KindAll.
	Value string `json:"filter_value,omitempty"`

	// Enabled rules take part in evaluation.
	Enabled bool `json:"enabled"`
}

// ListOpts configures pagination for rule listing.
type ListOpts struct {
	Offset  int
	Limit   int
	Enabled *bool
}
