package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/observability"
	"github.com/xraph/smsrelay/ratelimit"
	"github.com/xraph/smsrelay/transport"
)

// Deliverer hands a message to the configured transport.
type Deliverer interface {
	Deliver(ctx context.Context, cfg *transport.Config, msg *message.Record) Outcome
}

// Sender delivers through one transport kind and reports faults as errors.
type Sender interface {
	Send(ctx context.Context, cfg *transport.Config, msg *message.Record) error
}

// NotImplementedError is returned for transport kinds that are declared
// but have no sender.
type NotImplementedError struct {
	Kind transport.Kind
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("Email type %s not implemented yet", e.Kind)
}

type unimplemented transport.Kind

func (u unimplemented) Send(context.Context, *transport.Config, *message.Record) error {
	return &NotImplementedError{Kind: transport.Kind(u)}
}

// DispatcherConfig holds dispatcher configuration.
type DispatcherConfig struct {
	// Timeout bounds one delivery attempt. Zero means no bound.
	Timeout time.Duration

	// Limiter paces deliveries per SMTP host. Nil means unlimited.
	Limiter *ratelimit.Limiter

	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Dispatcher routes deliveries to the sender for the configured transport kind.
type Dispatcher struct {
	senders map[transport.Kind]Sender
	config  DispatcherConfig
	logger  *slog.Logger
}

var _ Deliverer = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with the SMTP sender registered and the
// remaining declared kinds wired to the not-implemented placeholder.
func NewDispatcher(cfg DispatcherConfig, logger *slog.Logger, opts ...SMTPOption) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		senders: map[transport.Kind]Sender{
			transport.KindSMTP:     NewSMTPSender(opts...),
			transport.KindEmergent: unimplemented(transport.KindEmergent),
			transport.KindDevice:   unimplemented(transport.KindDevice),
		},
		config: cfg,
		logger: logger,
	}
}

// Register installs s as the sender for kind, replacing any existing one.
func (d *Dispatcher) Register(kind transport.Kind, s Sender) {
	d.senders[kind] = s
}

// Deliver attempts one delivery of msg. It always returns an outcome.
func (d *Dispatcher) Deliver(ctx context.Context, cfg *transport.Config, msg *message.Record) (out Outcome) {
	sender, ok := d.senders[cfg.Kind]
	if !ok {
		sender = unimplemented(cfg.Kind)
	}

	var span trace.Span
	if d.config.Tracer != nil {
		ctx, span = d.config.Tracer.StartDispatchSpan(ctx, msg.ID.String(), string(cfg.Kind), cfg.Host)
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.ErrorContext(ctx, "sender panicked", "kind", cfg.Kind, "error", rec)
			out = failed(fmt.Sprintf("internal error: %v", rec))
		}

		latency := time.Since(start)
		if d.config.Metrics != nil {
			d.config.Metrics.RecordDispatch(string(cfg.Kind), string(out.Status), latency.Seconds())
		}
		if span != nil {
			d.config.Tracer.EndDispatchSpan(span, string(out.Status), int(latency.Milliseconds()), out.Detail)
		}
	}()

	err := d.config.Limiter.Wait(ctx, cfg.Host)
	if err == nil {
		err = sender.Send(ctx, cfg, msg)
	}

	if err != nil {
		detail := d.describe(err)
		d.logger.WarnContext(ctx, "delivery failed",
			"sms_id", msg.ID,
			"kind", cfg.Kind,
			"host", cfg.Host,
			"error", detail,
		)
		return failed(detail)
	}

	d.logger.DebugContext(ctx, "delivered",
		"sms_id", msg.ID,
		"kind", cfg.Kind,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return sent()
}

func (d *Dispatcher) describe(err error) string {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		if d.config.Timeout > 0 {
			return fmt.Sprintf("delivery timed out after %s: %v", d.config.Timeout, err)
		}
		return fmt.Sprintf("delivery timed out: %v", err)
	}
	return err.Error()
}
