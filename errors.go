package smsrelay

import "errors"

// Sentinel errors returned by Relay operations and stores.
var (
	// ErrNoStore is returned when a Relay is created without a store.
	ErrNoStore = errors.New("smsrelay: store is required")

	// ErrNoTransportConfig is returned when a message should be forwarded
	// but no transport configuration has been saved.
	ErrNoTransportConfig = errors.New("smsrelay: no email configuration found")

	// ErrRuleNotFound is returned when a relay rule cannot be found.
	ErrRuleNotFound = errors.New("smsrelay: rule not found")

	// ErrMessageNotFound is returned when a message record cannot be found.
	ErrMessageNotFound = errors.New("smsrelay: message not found")

	// ErrStoreClosed is returned when a store operation is attempted after the store is closed.
	ErrStoreClosed = errors.New("smsrelay: store is closed")

	// ErrMigrationFailed is returned when a database migration fails.
	ErrMigrationFailed = errors.New("smsrelay: migration failed")
)
