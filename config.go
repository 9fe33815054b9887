package smsrelay

import "time"

// Config holds the configuration for a Relay instance.
type Config struct {
	// DeliveryTimeout bounds one outbound delivery. Expiry is reported as a
	// failed delivery, never as an error.
	DeliveryTimeout time.Duration

	// RuleFetchLimit caps how many enabled rules are read per forward.
	RuleFetchLimit int

	// HistoryLimit is the default page size for message history.
	HistoryLimit int

	// DeliveryRateLimit is the number of deliveries per second allowed per
	// mail server. Zero disables pacing.
	DeliveryRateLimit int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DeliveryTimeout: 30 * time.Second,
		RuleFetchLimit:  100,
		HistoryLimit:    100,
	}
}
