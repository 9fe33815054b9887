// Package transport defines the singleton mail-transport configuration.
package transport

import (
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
)

// Kind identifies a mail transport implementation.
type Kind string

// Transport kinds. Only KindSMTP is deliverable; the others are accepted
// and stored but fail at dispatch time.
const (
	KindSMTP     Kind = "smtp"
	KindEmergent Kind = "emergent"
	KindDevice   Kind = "device"
)

// PasswordMask replaces a non-empty password in read views.
const PasswordMask = "***masked***"

// Config is the active transport configuration. At most one exists.
type Config struct {
	entity.Entity

	// ID identifies this revision of the configuration. Each save issues a new one.
	ID id.ID `json:"id"`

	Kind       Kind   `json:"email_type"      validate:"required,oneof=smtp emergent device"`
	Host       string `json:"smtp_server"     validate:"required_if=Kind smtp"`
	Port       int    `json:"smtp_port"       validate:"omitempty,min=1,max=65535"`
	Username   string `json:"smtp_username"`
	Password   string `json:"smtp_password"`
	UseTLS     bool   `json:"use_tls"`
	Recipient  string `json:"recipient_email" validate:"required,email"`
	SenderName string `json:"sender_name"`
}

// View is the read-only representation returned to API callers. The
// password is masked when set and null when empty.
type View struct {
	ID         string  `json:"id"`
	Kind       Kind    `json:"email_type"`
	Host       string  `json:"smtp_server"`
	Port       int     `json:"smtp_port"`
	Username   string  `json:"smtp_username"`
	Password   *string `json:"smtp_password"`
	UseTLS     bool    `json:"use_tls"`
	Recipient  string  `json:"recipient_email"`
	SenderName string  `json:"sender_name"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

// Masked returns the display view of c.
func (c *Config) Masked() View {
	v := View{
		ID:         c.ID.String(),
		Kind:       c.Kind,
		Host:       c.Host,
		Port:       c.Port,
		Username:   c.Username,
		UseTLS:     c.UseTLS,
		Recipient:  c.Recipient,
		SenderName: c.SenderName,
		CreatedAt:  c.CreatedAt.Format(timeLayout),
		UpdatedAt:  c.UpdatedAt.Format(timeLayout),
	}
	if c.Password != "" {
		mask := PasswordMask
		v.Password = &mask
	}
	return v
}

// WithRecipient returns a copy of c addressed to recipient.
func (c *Config) WithRecipient(recipient string) *Config {
	cp := *c
	cp.Recipient = recipient
	return &cp
}

const timeLayout = "2006-01-02T15:04:05.000000Z07:00"
