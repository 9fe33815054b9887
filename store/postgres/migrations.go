package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the SMS relay store. The
// orchestrator records applied versions and holds a lock while it runs.
var Migrations = migrate.NewGroup("smsrelay")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_sms_messages",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sms_messages (
    id            TEXT PRIMARY KEY,
    sender        TEXT NOT NULL,
    content       TEXT NOT NULL,
    timestamp     TIMESTAMPTZ NOT NULL,
    forwarded     BOOLEAN NOT NULL DEFAULT FALSE,
    forwarded_at  TIMESTAMPTZ,
    email_status  TEXT NOT NULL,
    error_message TEXT
);
CREATE INDEX IF NOT EXISTS idx_sms_messages_timestamp ON sms_messages (timestamp DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_sms_messages_status ON sms_messages (email_status, timestamp DESC);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sms_messages`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_sms_filters",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS sms_filters (
    id           TEXT PRIMARY KEY,
    name         TEXT NOT NULL,
    filter_type  TEXT NOT NULL,
    filter_value TEXT NOT NULL DEFAULT '',
    enabled      BOOLEAN NOT NULL DEFAULT TRUE,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_sms_filters_enabled ON sms_filters (enabled, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS sms_filters`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_email_configs",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS email_configs (
    slot            TEXT PRIMARY KEY CHECK (slot = 'active'),
    id              TEXT NOT NULL,
    email_type      TEXT NOT NULL,
    smtp_server     TEXT NOT NULL DEFAULT '',
    smtp_port       INT NOT NULL DEFAULT 0,
    smtp_username   TEXT NOT NULL DEFAULT '',
    smtp_password   TEXT NOT NULL DEFAULT '',
    use_tls         BOOLEAN NOT NULL DEFAULT TRUE,
    recipient_email TEXT NOT NULL,
    sender_name     TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS email_configs`)
				return err
			},
		},
	)
}
