package mongo

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/grove"

	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/internal/entity"
	"github.com/xraph/smsrelay/message"
	"github.com/xraph/smsrelay/rule"
	"github.com/xraph/smsrelay/transport"
)

// --- Message models ---

type messageModel struct {
	grove.BaseModel `grove:"table:sms_messages"`

	ID           string     `grove:"id,pk"         bson:"_id"`
	Sender       string     `grove:"sender"        bson:"sender"`
	Content      string     `grove:"content"       bson:"content"`
	Timestamp    time.Time  `grove:"timestamp"     bson:"timestamp"`
	Forwarded    bool       `grove:"forwarded"     bson:"forwarded"`
	ForwardedAt  *time.Time `grove:"forwarded_at"  bson:"forwarded_at"`
	EmailStatus  string     `grove:"email_status"  bson:"email_status"`
	ErrorMessage *string    `grove:"error_message" bson:"error_message"`
}

func toMessageModel(r *message.Record) *messageModel {
	m := &messageModel{
		ID:          r.ID.String(),
		Sender:      r.Sender,
		Content:     r.Content,
		Timestamp:   r.Timestamp,
		Forwarded:   r.Forwarded,
		ForwardedAt: r.ForwardedAt,
		EmailStatus: string(r.Status),
	}
	if r.Error != "" {
		detail := r.Error
		m.ErrorMessage = &detail
	}
	return m
}

func fromMessageModel(m *messageModel) (*message.Record, error) {
	msgID, err := id.ParseMessageID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse message ID %q: %w", m.ID, err)
	}

	r := &message.Record{
		ID:          msgID,
		Sender:      m.Sender,
		Content:     m.Content,
		Timestamp:   m.Timestamp.UTC(),
		Forwarded:   m.Forwarded,
		ForwardedAt: m.ForwardedAt,
		Status:      message.Status(m.EmailStatus),
	}
	if m.ErrorMessage != nil {
		r.Error = *m.ErrorMessage
	}
	return r, nil
}

func countFilter(f message.CountFilter) bson.M {
	filter := bson.M{}
	if f.Forwarded != nil {
		filter["forwarded"] = *f.Forwarded
	}
	if f.Status != "" {
		filter["email_status"] = string(f.Status)
	}
	if !f.Since.IsZero() {
		filter["timestamp"] = bson.M{"$gte": f.Since}
	}
	return filter
}

// --- Rule models ---

type ruleModel struct {
	grove.BaseModel `grove:"table:sms_filters"`

	ID          string    `grove:"id,pk"        bson:"_id"`
	Name        string    `grove:"name"         bson:"name"`
	FilterType  string    `grove:"filter_type"  bson:"filter_type"`
	FilterValue string    `grove:"filter_value" bson:"filter_value"`
	Enabled     bool      `grove:"enabled"      bson:"enabled"`
	CreatedAt   time.Time `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"   bson:"updated_at"`
}

func toRuleModel(r *rule.Rule) *ruleModel {
	return &ruleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		FilterType:  string(r.Kind),
		FilterValue: r.Value,
		Enabled:     r.Enabled,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromRuleModel(m *ruleModel) (*rule.Rule, error) {
	ruleID, err := id.ParseRuleID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse rule ID %q: %w", m.ID, err)
	}

	return &rule.Rule{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
		},
		ID:      ruleID,
		Name:    m.Name,
		Kind:    rule.Kind(m.FilterType),
		Value:   m.FilterValue,
		Enabled: m.Enabled,
	}, nil
}

// --- Transport models ---

type transportModel struct {
	grove.BaseModel `grove:"table:email_configs"`

	Slot           string    `grove:"id,pk"           bson:"_id"`
	ConfigID       string    `grove:"config_id"       bson:"config_id"`
	EmailType      string    `grove:"email_type"      bson:"email_type"`
	SMTPServer     string    `grove:"smtp_server"     bson:"smtp_server"`
	SMTPPort       int       `grove:"smtp_port"       bson:"smtp_port"`
	SMTPUsername   string    `grove:"smtp_username"   bson:"smtp_username"`
	SMTPPassword   string    `grove:"smtp_password"   bson:"smtp_password"`
	UseTLS         bool      `grove:"use_tls"         bson:"use_tls"`
	RecipientEmail string    `grove:"recipient_email" bson:"recipient_email"`
	SenderName     string    `grove:"sender_name"     bson:"sender_name"`
	CreatedAt      time.Time `grove:"created_at"      bson:"created_at"`
	UpdatedAt      time.Time `grove:"updated_at"      bson:"updated_at"`
}

func toTransportModel(c *transport.Config) *transportModel {
	return &transportModel{
		Slot:           activeSlot,
		ConfigID:       c.ID.String(),
		EmailType:      string(c.Kind),
		SMTPServer:     c.Host,
		SMTPPort:       c.Port,
		SMTPUsername:   c.Username,
		SMTPPassword:   c.Password,
		UseTLS:         c.UseTLS,
		RecipientEmail: c.Recipient,
		SenderName:     c.SenderName,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func fromTransportModel(m *transportModel) (*transport.Config, error) {
	cfgID, err := id.ParseTransportID(m.ConfigID)
	if err != nil {
		return nil, fmt.Errorf("parse transport ID %q: %w", m.ConfigID, err)
	}

	return &transport.Config{
		Entity: entity.Entity{
			CreatedAt: m.CreatedAt.UTC(),
			UpdatedAt: m.UpdatedAt.UTC(),
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
