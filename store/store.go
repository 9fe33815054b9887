// Package store defines the composite Store interface for all relay persistence.
//
// Each domain package defines its own store interface and the aggregate
// Store composes them with lifecycle methods.
package store

import (
	"context"

	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

// Store is the aggregate persistence interface.
type Store interface {
	message.Store
	rule.Store
	transport.Store

	// Migrate creates collections, tables and indexes.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
