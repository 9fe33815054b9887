// Package message defines the inbound SMS record and its history store.
package message

import (
	"time"

	"github.com/xraph/smsrelay/id"
)

// Status is the delivery state recorded for an inbound message.
type Status string

// Delivery statuses. Pending is transient and never persisted by the relay.
const (
	StatusPending  Status = "pending"
	StatusSent     Status = "sent"
	StatusFailed   Status = "failed"
	StatusFiltered Status = "filtered"
	StatusNoConfig Status = "no_config"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed, StatusFiltered, StatusNoConfig:
		return true
	}
	return false
}

// Record is one inbound SMS and the outcome of relaying it.
type Record struct {
	// ID is the unique TypeID for this message.
	ID id.ID `json:"id"`

	// Sender is the originating number or caller name, as received.
	Sender string `json:"sender"`

	// Content is the message body.
	Content string `json:"content"`

	// Timestamp is when the message was received.
	Timestamp time.Time `json:"timestamp"`

	// Forwarded is true once an email has been accepted by the transport.
	Forwarded bool `json:"forwarded"`

	// ForwardedAt is set together with Forwarded.
	ForwardedAt *time.Time `json:"forwarded_at"`

	// Status is the terminal delivery state.
	Status Status `json:"email_status"`

	// Error holds the transport failure detail. Only set when Status is failed.
	Error string `json:"error_message,omitempty"`
}

// New returns a pending record. A zero received time defaults to now.
func New(sender, content string, received time.Time) *Record {
	if received.IsZero() {
		received = time.Now()
	}
	return &Record{
		ID:        id.NewMessageID(),
		Sender:    sender,
		Content:   content,
		Timestamp: received.UTC(),
		Status:    StatusPending,
	}
}

// MarkFiltered records that no relay rule accepted the message.
func (r *Record) MarkFiltered() {
	r.setUnsent(StatusFiltered, "")
}

// MarkNoConfig records that no transport was configured.
func (r *Record) MarkNoConfig() {
	r.setUnsent(StatusNoConfig, "")
}

// MarkFailed records a failed delivery attempt.
func (r *Record) MarkFailed(detail string) {
	r.setUnsent(StatusFailed, detail)
}

// MarkSent records a successful delivery at the given time.
func (r *Record) MarkSent(at time.Time) {
	at = at.UTC()
	r.Forwarded = true
	r.ForwardedAt = &at
	r.Status = StatusSent
	r.Error = ""
}

func (r *Record) setUnsent(status Status, detail string) {
	r.Forwarded = false
	r.ForwardedAt = nil
	r.Status = status
	r.Error = detail
}

// ListOpts configures filtering and pagination for history listing.
// Results are always ordered most recent first.
type ListOpts struct {
	Offset int
	Limit  int
	Status Status
}

// CountFilter narrows a message count. Zero fields are ignored.
type CountFilter struct {
	Forwarded *bool
	Status    Status
	Since     time.Time
}

// Match reports whether r satisfies the filter.
func (f CountFilter) Match(r *Record) bool {
	if f.Forwarded != nil && r.Forwarded != *f.Forwarded {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if !f.Since.IsZero() && r.Timestamp.Before(f.Since) {
		return false
	}
	return true
}
