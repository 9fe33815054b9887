package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
	"github.com/xraph/smsrelay/transport"
)

// transportModel is the JSON representation stored in Redis.
type transportModel struct {
	ID             string    `json:"id"`
	EmailType      string    `json:"email_type"`
	SMTPServer     string    `json:"smtp_server"`
	SMTPPort       int       `json:"smtp_port"`
	SMTPUsername   string    `json:"smtp_username"`
	SMTPPassword   string    `json:"smtp_password"`
	UseTLS         bool      `json:"use_tls"`
	RecipientEmail string    `json:"recipient_email"`
	SenderName     string    `json:"sender_name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ReplaceTransport overwrites the singleton key with a single SET.
func (s *Store) ReplaceTransport(ctx context.Context, cfg *transport.Config) error {
	raw, err := marshal(&transportModel{
		ID:             cfg.ID.String(),
		EmailType:      string(cfg.Kind),
		SMTPServer:     cfg.Host,
		SMTPPort:       cfg.Port,
		SMTPUsername:   cfg.Username,
		SMTPPassword:   cfg.Password,
		UseTLS:         cfg.UseTLS,
		RecipientEmail: cfg.Recipient,
		SenderName:     cfg.SenderName,
		CreatedAt:      cfg.CreatedAt,
		UpdatedAt:      cfg.UpdatedAt,
	})
	if err != nil {
		return err
	}

	if err := s.kv.SetRaw(ctx, keyTransport, raw); err != nil {
		return fmt.Errorf("smsrelay/redis: replace transport: %w", err)
	}
	return nil
}

// CurrentTransport returns the active configuration.
func (s *Store) CurrentTransport(ctx context.Context) (*transport.Config, error) {
	var m transportModel
	if err := s.getEntity(ctx, keyTransport, &m); err != nil {
		if isNotFound(err) {
			return nil, smsrelay.ErrNoTransportConfig
		}
		return nil, fmt.Errorf("smsrelay/redis: current transport: %w", err)
	}

	cfgID, err := id.ParseTransportID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse transport ID %q: %w", m.ID, err)
	}

	return &transport.Config{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         cfgID,
		Kind:       transport.Kind(m.EmailType),
		Host:       m.SMTPServer,
		Port:       m.SMTPPort,
		Username:   m.SMTPUsername,
		Password:   m.SMTPPassword,
		UseTLS:     m.UseTLS,
		Recipient:  m.RecipientEmail,
		SenderName: m.SenderName,
	}, nil
}
