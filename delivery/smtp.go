package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/transport"
)

// SMTPSender delivers messages over SMTP.
//
// With UseTLS set the session starts in plain text and is upgraded with
// STARTTLS before authenticating; otherwise the connection is TLS from the
// first byte (SMTPS).
type SMTPSender struct {
	dialer    *net.Dialer
	tlsConfig *tls.Config
	helloName string
	now       func() time.Time
}

// SMTPOption configures an SMTPSender.
type SMTPOption func(*SMTPSender)

// WithTLSConfig sets the base TLS configuration. ServerName defaults to the
// configured SMTP host.
func WithTLSConfig(c *tls.Config) SMTPOption {
	return func(s *SMTPSender) { s.tlsConfig = c }
}

// WithHelloName sets the name announced in EHLO.
func WithHelloName(name string) SMTPOption {
	return func(s *SMTPSender) { s.helloName = name }
}

// NewSMTPSender creates an SMTP sender.
func NewSMTPSender(opts ...SMTPOption) *SMTPSender {
	s := &SMTPSender{
		dialer: &net.Dialer{KeepAlive: -1},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send transmits msg to cfg.Recipient. The connection is closed on every path.
func (s *SMTPSender) Send(ctx context.Context, cfg *transport.Config, msg *message.Record) error {
	if cfg.Host == "" {
		return errors.New("smtp server is not configured")
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	tlsCfg := s.tlsFor(cfg.Host)

	conn, err := s.dial(ctx, addr, !cfg.UseTLS, tlsCfg)
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	c, err := s.client(ctx, conn, cfg.UseTLS, tlsCfg)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if cfg.Username != "" {
		if !c.SupportsAuth(sasl.Plain) {
			return errors.New("server does not support AUTH PLAIN")
		}
		if err := c.Auth(sasl.NewPlainClient("", cfg.Username, cfg.Password)); err != nil {
			return fmt.Errorf("authenticate: %w", err)
		}
	}

	if err := c.Mail(FromAddress(cfg), nil); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(cfg.Recipient, nil); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if err := Compose(w, cfg, msg, s.now()); err != nil {
		w.Close()
		return fmt.Errorf("compose: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data: %w", err)
	}

	return c.Quit()
}

// client greets the server and, when startTLS is set, upgrades the session
// before returning. Command timeouts follow the context deadline.
func (s *SMTPSender) client(ctx context.Context, conn net.Conn, startTLS bool, tlsCfg *tls.Config) (*smtp.Client, error) {
	var (
		c   *smtp.Client
		err error
	)
	if startTLS {
		c, err = smtp.NewClientStartTLS(conn, tlsCfg)
		if err != nil {
			return nil, fmt.Errorf("starttls: %w", err)
		}
	} else {
		c = smtp.NewClient(conn)
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.CommandTimeout = time.Until(deadline)
		c.SubmissionTimeout = c.CommandTimeout
	}

	if s.helloName != "" {
		if err := c.Hello(s.helloName); err != nil {
			c.Close()
			return nil, fmt.Errorf("ehlo: %w", err)
		}
	}
	return c, nil
}

func (s *SMTPSender) dial(ctx context.Context, addr string, implicitTLS bool, tlsCfg *tls.Config) (net.Conn, error) {
	if implicitTLS {
		d := &tls.Dialer{NetDialer: s.dialer, Config: tlsCfg}
		return d.DialContext(ctx, "tcp", addr)
	}
	return s.dialer.DialContext(ctx, "tcp", addr)
}

func (s *SMTPSender) tlsFor(host string) *tls.Config {
	var c *tls.Config
	if s.tlsConfig != nil {
		c = s.tlsConfig.Clone()
	} else {
		c = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	if c.ServerName == "" {
		c.ServerName = host
	}
	return c
}
