package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/transport"
)

// ReplaceTransport upserts the singleton row in one statement.
func (s *Store) ReplaceTransport(ctx context.Context, cfg *transport.Config) error {
	if _, err := s.replaceTransportQuery(cfg).Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/postgres: replace transport: %w", err)
	}
	return nil
}

func (s *Store) replaceTransportQuery(cfg *transport.Config) *pgdriver.InsertQuery {
	return s.pg.NewInsert(toTransportModel(cfg)).
		OnConflict("(slot) DO UPDATE").
		Set("id = EXCLUDED.id").
		Set("email_type = EXCLUDED.email_type").
		Set("smtp_server = EXCLUDED.smtp_server").
		Set("smtp_port = EXCLUDED.smtp_port").
		Set("smtp_username = EXCLUDED.smtp_username").
		Set("smtp_password = EXCLUDED.smtp_password").
		Set("use_tls = EXCLUDED.use_tls").
		Set("recipient_email = EXCLUDED.recipient_email").
		Set("sender_name = EXCLUDED.sender_name").
		Set("created_at = EXCLUDED.created_at").
		Set("updated_at = EXCLUDED.updated_at")
}

// CurrentTransport returns the active configuration.
func (s *Store) CurrentTransport(ctx context.Context) (*transport.Config, error) {
	m := new(transportModel)
	err := s.pg.NewSelect(m).
		Where("slot = ?", activeSlot).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, smsrelay.ErrNoTransportConfig
		}
		return nil, fmt.Errorf("smsrelay/postgres: current transport: %w", err)
	}
	return fromTransportModel(m)
}
