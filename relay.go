package smsrelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/smsrelay/delivery"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/ratelimit"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

// Response texts reported by Forward and TestTransport.
const (
	FilteredMessage    = "SMS filtered, not forwarded"
	TestSender         = "Test Sender"
	DefaultTestMessage = "This is a test email from SMS Mail Forwarder"
)

// ForwardResult is the outcome of one Forward call.
type ForwardResult struct {
	Status  message.Status `json:"status"`
	Message string         `json:"message"`
	SMSID   id.ID          `json:"sms_id"`
}

// wireServices initializes the internal services after options have been applied.
func (r *Relay) wireServices() {
	r.rules = rule.NewService(r.store, r.logger)
	r.transports = transport.NewService(r.store, r.logger)

	if r.deliverer == nil {
		r.deliverer = delivery.NewDispatcher(delivery.DispatcherConfig{
			Timeout: r.config.DeliveryTimeout,
			Limiter: ratelimit.New(r.config.DeliveryRateLimit),
			Metrics: r.metrics,
			Tracer:  r.tracer,
		}, r.logger, r.smtpOpts...)
	}
}

// Forward relays one inbound message and records it in history.
//
// The critical path:
//  1. Evaluate the enabled relay rules (oldest first).
//  2. Persist filtered messages without delivering them.
//  3. Load the active transport; without one, persist as no_config and
//     return ErrNoTransportConfig.
//  4. Deliver, then persist the record once with the outcome.
//
// Delivery failures are part of the result. Only store failures and a
// missing transport are returned as errors.
func (r *Relay) Forward(ctx context.Context, sender, content string, received time.Time) (res *ForwardResult, err error) {
	rec := message.New(sender, content, received)

	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.StartForwardSpan(ctx, rec.ID.String(), sender)
		defer func() { r.tracer.EndForwardSpan(span, string(rec.Status), err) }()
	}
	if r.metrics != nil {
		r.metrics.MessagesReceived.Inc()
	}

	// 1. Decide.
	rules, err := r.store.EnabledRules(ctx, r.config.RuleFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("smsrelay: load rules: %w", err)
	}
	if r.metrics != nil {
		r.metrics.RulesEvaluated.Inc()
	}

	// 2. Filtered.
	if !rule.ShouldForward(sender, content, rules) {
		rec.MarkFiltered()
		if err := r.persist(ctx, rec); err != nil {
			return nil, err
		}
		return &ForwardResult{Status: rec.Status, Message: FilteredMessage, SMSID: rec.ID}, nil
	}

	// 3. Transport.
	cfg, err := r.store.CurrentTransport(ctx)
	if errors.Is(err, ErrNoTransportConfig) {
		rec.MarkNoConfig()
		if err := r.persist(ctx, rec); err != nil {
			return nil, err
		}
		return nil, ErrNoTransportConfig
	}
	if err != nil {
		return nil, fmt.Errorf("smsrelay: load transport: %w", err)
	}

	// 4. Deliver and record.
	out := r.deliverer.Deliver(ctx, cfg, rec)
	if out.Sent() {
		rec.MarkSent(r.now())
	} else {
		rec.MarkFailed(out.Detail)
	}
	if err := r.persist(ctx, rec); err != nil {
		return nil, err
	}

	return &ForwardResult{Status: out.Status, Message: out.Detail, SMSID: rec.ID}, nil
}

func (r *Relay) persist(ctx context.Context, rec *message.Record) error {
	if err := r.store.CreateMessage(ctx, rec); err != nil {
		r.logger.ErrorContext(ctx, "persist message failed",
			"sms_id", rec.ID,
			"status", rec.Status,
			"error", err,
		)
		return fmt.Errorf("smsrelay: persist message: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordMessage(string(rec.Status))
	}

	r.logger.InfoContext(ctx, "message recorded",
		"sms_id", rec.ID,
		"sender", rec.Sender,
		"status", rec.Status,
	)
	return nil
}

// TestTransport sends a test email through the active transport to
// recipient, leaving the stored configuration untouched. An empty text uses
// DefaultTestMessage. Nothing is written to history.
func (r *Relay) TestTransport(ctx context.Context, recipient, text string) (delivery.Outcome, error) {
	cfg, err := r.store.CurrentTransport(ctx)
	if err != nil {
		if errors.Is(err, ErrNoTransportConfig) {
			return delivery.Outcome{}, ErrNoTransportConfig
		}
		return delivery.Outcome{}, fmt.Errorf("smsrelay: load transport: %w", err)
	}

	if text == "" {
		text = DefaultTestMessage
	}
	if recipient != "" {
		cfg = cfg.WithRecipient(recipient)
	}

	out := r.deliverer.Deliver(ctx, cfg, message.New(TestSender, text, r.now()))
	r.logger.InfoContext(ctx, "test email dispatched",
		"recipient", cfg.Recipient,
		"status", out.Status,
	)
	return out, nil
}

// History returns recorded messages, most recent first.
func (r *Relay) History(ctx context.Context, opts message.ListOpts) ([]*message.Record, error) {
	if opts.Limit <= 0 {
		opts.Limit = r.config.HistoryLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	return r.store.ListMessages(ctx, opts)
}

// Stats returns forwarding statistics as of now.
func (r *Relay) Stats(ctx context.Context) (*message.Stats, error) {
	return message.ComputeStats(ctx, r.store, r.now())
}

// Ping checks that the store is reachable. Stores without a Ping method are
// reported healthy.
func (r *Relay) Ping(ctx context.Context) error {
	if p, ok := r.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Rules returns the relay rule service.
func (r *Relay) Rules() *rule.Service {
	return r.rules
}

// Transport returns the transport configuration service.
func (r *Relay) Transport() *transport.Service {
	return r.transports
}

// Store returns the underlying store.
func (r *Relay) Store() Store {
	return r.store
}
