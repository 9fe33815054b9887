package message

import (
	"context"

	"github.com/xraph/smsrelay/id"
)

// Store defines the persistence contract for message history.
type Store interface {
	// CreateMessage persists a record in its terminal state.
	CreateMessage(ctx context.Context, r *Record) error

	// GetMessage returns a record by ID.
	GetMessage(ctx context.Context, msgID id.ID) (*Record, error)

	// ListMessages returns records ordered by Timestamp, newest first.
	ListMessages(ctx context.Context, opts ListOpts) ([]*Record, error)

	// CountMessages returns how many records match the filter.
	CountMessages(ctx context.Context, filter CountFilter) (int64, error)
}
