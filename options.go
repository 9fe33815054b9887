package smsrelay

import (
	"log/slog"
	"time"

	"github.com/xraph/smsrelay/delivery"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/observability"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

// Store is the persistence the Relay needs. store.Store satisfies it.
type Store interface {
	message.Store
	rule.Store
	transport.Store
}

// Relay is the SMS forwarding orchestrator.
type Relay struct {
	config     Config
	store      Store
	rules      *rule.Service
	transports *transport.Service
	deliverer  delivery.Deliverer
	smtpOpts   []delivery.SMTPOption
	metrics    *observability.Metrics
	tracer     *observability.Tracer
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Relay instance.
type Option func(*Relay) error

// New creates a new Relay with the given options.
func New(opts ...Option) (*Relay, error) {
	r := &Relay{
		config: DefaultConfig(),
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.store == nil {
		return nil, ErrNoStore
	}
	r.wireServices()
	return r, nil
}

// WithStore sets the persistence backend for the Relay instance.
func WithStore(s Store) Option {
	return func(r *Relay) error {
		r.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Relay instance.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) error {
		r.logger = logger
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(r *Relay) error {
		r.config = cfg
		return nil
	}
}

// WithDeliveryTimeout sets the bound on one outbound delivery.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(r *Relay) error {
		r.config.DeliveryTimeout = d
		return nil
	}
}

// WithRuleFetchLimit sets how many enabled rules are evaluated per message.
func WithRuleFetchLimit(n int) Option {
	return func(r *Relay) error {
		r.config.RuleFetchLimit = n
		return nil
	}
}

// WithHistoryLimit sets the default page size for message history.
func WithHistoryLimit(n int) Option {
	return func(r *Relay) error {
		r.config.HistoryLimit = n
		return nil
	}
}

// WithDeliveryRateLimit sets the per-server delivery rate, in messages per second.
func WithDeliveryRateLimit(perSecond int) Option {
	return func(r *Relay) error {
		r.config.DeliveryRateLimit = perSecond
		return nil
	}
}

// WithDeliverer replaces the default dispatcher.
func WithDeliverer(d delivery.Deliverer) Option {
	return func(r *Relay) error {
		r.deliverer = d
		return nil
	}
}

// WithSMTPOptions passes options to the default dispatcher's SMTP sender.
func WithSMTPOptions(opts ...delivery.SMTPOption) Option {
	return func(r *Relay) error {
		r.smtpOpts = append(r.smtpOpts, opts...)
		return nil
	}
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Relay) error {
		r.metrics = m
		return nil
	}
}

// WithTracer enables OpenTelemetry spans.
func WithTracer(t *observability.Tracer) Option {
	return func(r *Relay) error {
		r.tracer = t
		return nil
	}
}
