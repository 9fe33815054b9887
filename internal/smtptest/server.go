// Package smtptest runs an in-process SMTP server for tests.
//
// The server is a go-smtp backend that records every accepted message. It
// presents the certificate of an httptest TLS server, which is valid for
// 127.0.0.1.
package smtptest

import (
	"crypto/tls"
	"crypto/x509"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Mode selects how the server secures the session.
type Mode int

const (
	// STARTTLS accepts plain connections and advertises the upgrade.
	STARTTLS Mode = iota
	// ImplicitTLS wraps every connection in TLS before the greeting.
	ImplicitTLS
	// Plain never offers TLS.
	Plain
)

// Mail is one message accepted by the server.
type Mail struct {
	Username string
	Password string
	From     string
	To       []string
	Data     string
}

// Server is a fake SMTP server listening on 127.0.0.1.
type Server struct {
	Host string
	Port int

	rejectAuth bool
	silent     bool

	srv      *smtp.Server
	ln       net.Listener
	roots    *x509.CertPool
	certHost *httptest.Server
	done     chan struct{}

	mu     sync.Mutex
	mails  []Mail
	held   []net.Conn
	closed bool
}

// Option configures a Server.
type Option func(*Server)

// RejectAuth makes every AUTH attempt fail with 535.
func RejectAuth() Option {
	return func(s *Server) { s.rejectAuth = true }
}

// Silent accepts connections without ever sending a greeting.
func Silent() Option {
	return func(s *Server) { s.silent = true }
}

// Start runs a server in the given mode and registers cleanup with t.
func Start(t testing.TB, mode Mode, opts ...Option) *Server {
	t.Helper()

	certHost := httptest.NewTLSServer(http.NotFoundHandler())
	roots := x509.NewCertPool()
	roots.AddCert(certHost.Certificate())
	tlsCfg := &tls.Config{Certificates: certHost.TLS.Certificates, MinVersion: tls.VersionTLS12}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		certHost.Close()
		t.Fatalf("smtptest: listen: %v", err)
	}

	s := &Server{
		Host:     "127.0.0.1",
		Port:     ln.Addr().(*net.TCPAddr).Port,
		ln:       ln,
		roots:    roots,
		certHost: certHost,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.silent {
		go s.hold()
		t.Cleanup(s.Close)
		return s
	}

	s.srv = smtp.NewServer(smtp.BackendFunc(func(*smtp.Conn) (smtp.Session, error) {
		return &session{server: s}, nil
	}))
	s.srv.Domain = "smtptest"
	s.srv.AllowInsecureAuth = true
	s.srv.ErrorLog = log.New(io.Discard, "", 0)

	switch mode {
	case STARTTLS:
		s.srv.TLSConfig = tlsCfg
	case ImplicitTLS:
		s.srv.TLSConfig = tlsCfg
		s.ln = tls.NewListener(ln, tlsCfg)
	}

	go func() {
		defer close(s.done)
		_ = s.srv.Serve(s.ln)
	}()
	t.Cleanup(s.Close)
	return s
}

// ClientTLSConfig returns a TLS configuration that trusts the server.
func (s *Server) ClientTLSConfig() *tls.Config {
	return &tls.Config{RootCAs: s.roots, MinVersion: tls.VersionTLS12}
}

// Mails returns the messages accepted so far.
func (s *Server) Mails() []Mail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Mail(nil), s.mails...)
}

// Close stops the server and drops open sessions.
func (s *Server) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for _, c := range s.held {
		c.Close()
	}
	s.mu.Unlock()

	if s.srv != nil {
		_ = s.srv.Close()
	} else {
		s.ln.Close()
	}
	<-s.done
	s.certHost.Close()
}

// ClosedPort returns a local port with nothing listening on it.
func ClosedPort(t testing.TB) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("smtptest: listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}

// hold accepts connections and keeps them open until Close.
func (s *Server) hold() {
	defer close(s.done)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.held = append(s.held, conn)
		s.mu.Unlock()
	}
}

func (s *Server) record(m Mail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mails = append(s.mails, m)
}

// ──────────────────────────────────────────────────
// Session
// ──────────────────────────────────────────────────

type session struct {
	server   *Server
	username string
	password string
	from     string
	to       []string
}

var _ smtp.AuthSession = (*session)(nil)

func (ss *session) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (ss *session) Auth(mech string) (sasl.Server, error) {
	if mech != sasl.Plain {
		return nil, smtp.ErrAuthUnknownMechanism
	}
	return sasl.NewPlainServer(func(_, username, password string) error {
		if ss.server.rejectAuth {
			return smtp.ErrAuthFailed
		}
		ss.username, ss.password = username, password
		return nil
	}), nil
}

func (ss *session) Mail(from string, _ *smtp.MailOptions) error {
	ss.from = from
	return nil
}

func (ss *session) Rcpt(to string, _ *smtp.RcptOptions) error {
	ss.to = append(ss.to, to)
	return nil
}

func (ss *session) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	data := strings.ReplaceAll(string(raw), "\r\n", "\n")
	ss.server.record(Mail{
		Username: ss.username,
		Password: ss.password,
		From:     ss.from,
		To:       append([]string(nil), ss.to...),
		Data:     strings.TrimSuffix(data, "\n"),
	})
	return nil
}

func (ss *session) Reset() {
	ss.from = ""
	ss.to = nil
}

func (ss *session) Logout() error { return nil }
