package transport

import "context"

// Store defines the persistence contract for the transport configuration.
type Store interface {
	// ReplaceTransport makes cfg the only configuration. Implementations
	// must perform the replacement as a single atomic write so readers
	// never observe zero or two configurations.
	ReplaceTransport(ctx context.Context, cfg *Config) error

	// CurrentTransport returns the active configuration, or
	// smsrelay.ErrNoTransportConfig when none has been saved.
	CurrentTransport(ctx context.Context) (*Config, error)
}
