package delivery

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/transport"
)

// ReceivedLayout is the timestamp format used in forwarded email bodies.
const ReceivedLayout = "2006-01-02 15:04:05"

// Subject returns the email subject for a forwarded message.
func Subject(msg *message.Record) string {
	return "SMS from " + msg.Sender
}

// Body renders the plain-text email body for a forwarded message.
func Body(msg *message.Record) string {
	var b strings.Builder
	b.WriteString("SMS Forwarded Message\n\n")
	fmt.Fprintf(&b, "From: %s\n", msg.Sender)
	fmt.Fprintf(&b, "Received: %s\n\n", msg.Timestamp.UTC().Format(ReceivedLayout))
	b.WriteString("Message:\n")
	b.WriteString(msg.Content)
	b.WriteString("\n\n---\nThis message was automatically forwarded by SMS Mail Forwarder\n")
	return b.String()
}

// FromAddress is the mailbox used for the envelope sender and the From
// header. SMTP usernames that are not addresses fall back to the recipient.
func FromAddress(cfg *transport.Config) string {
	if strings.Contains(cfg.Username, "@") {
		return cfg.Username
	}
	return cfg.Recipient
}

// Compose writes an RFC 5322 message for msg addressed per cfg.
func Compose(w io.Writer, cfg *transport.Config, msg *message.Record, date time.Time) error {
	from := FromAddress(cfg)

	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: cfg.SenderName, Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: cfg.Recipient}})
	h.SetSubject(Subject(msg))
	h.SetMessageID(uuid.NewString() + "@" + domainOf(from))
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	body, err := mail.CreateSingleInlineWriter(w, h)
	if err != nil {
		return fmt.Errorf("create message writer: %w", err)
	}
	if _, err := io.WriteString(body, Body(msg)); err != nil {
		body.Close()
		return fmt.Errorf("write body: %w", err)
	}
	return body.Close()
}

func domainOf(addr string) string {
	if _, domain, ok := strings.Cut(addr, "@"); ok && domain != "" {
		return domain
	}
	return "smsrelay.local"
}
