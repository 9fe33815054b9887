package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/message"
)

// messageModel is the JSON representation stored in Redis.
type messageModel struct {
	ID           string     `json:"id"`
	Sender       string     `json:"sender"`
	Content      string     `json:"content"`
	Timestamp    time.Time  `json:"timestamp"`
	Forwarded    bool       `json:"forwarded"`
	ForwardedAt  *time.Time `json:"forwarded_at,omitempty"`
	EmailStatus  string     `json:"email_status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

func toMessageModel(r *message.Record) *messageModel {
	return &messageModel{
		ID:           r.ID.String(),
		Sender:       r.Sender,
		Content:      r.Content,
		Timestamp:    r.Timestamp,
		Forwarded:    r.Forwarded,
		ForwardedAt:  r.ForwardedAt,
		EmailStatus:  string(r.Status),
		ErrorMessage: r.Error,
	}
}

func fromMessageModel(m *messageModel) (*message.Record, error) {
	msgID, err := id.ParseMessageID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("parse message ID %q: %w", m.ID, err)
	}
	return &message.Record{
		ID:          msgID,
		Sender:      m.Sender,
		Content:     m.Content,
		Timestamp:   m.Timestamp,
		Forwarded:   m.Forwarded,
		ForwardedAt: m.ForwardedAt,
		Status:      message.Status(m.EmailStatus),
		Error:       m.ErrorMessage,
	}, nil
}

// CreateMessage stores the record and its index entries in one transaction.
func (s *Store) CreateMessage(ctx context.Context, r *message.Record) error {
	m := toMessageModel(r)
	raw, err := marshal(m)
	if err != nil {
		return err
	}

	z := goredis.Z{Score: score(m.Timestamp), Member: m.ID}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, entityKey(prefixMessage, m.ID), raw, 0)
	pipe.ZAdd(ctx, zMessageAll, z)
	pipe.ZAdd(ctx, statusKey(m.EmailStatus), z)
	if m.Forwarded {
		pipe.ZAdd(ctx, zMessageForwarded, z)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/redis: create message: %w", err)
	}
	return nil
}

// GetMessage returns a record by ID.
func (s *Store) GetMessage(ctx context.Context, msgID id.ID) (*message.Record, error) {
	var m messageModel
	if err := s.getEntity(ctx, entityKey(prefixMessage, msgID.String()), &m); err != nil {
		if isNotFound(err) {
			return nil, smsrelay.ErrMessageNotFound
		}
		return nil, fmt.Errorf("smsrelay/redis: get message: %w", err)
	}
	return fromMessageModel(&m)
}

// ListMessages returns records newest first.
func (s *Store) ListMessages(ctx context.Context, opts message.ListOpts) ([]*message.Record, error) {
	key := zMessageAll
	if opts.Status != "" {
		key = statusKey(string(opts.Status))
	}

	start, stop := rangeBounds(opts.Offset, opts.Limit)
	ids, err := s.rdb.ZRevRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: list messages: %w", err)
	}

	models, err := getEntities[messageModel](ctx, s, prefixMessage, ids)
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: list messages: %w", err)
	}

	result := make([]*message.Record, 0, len(models))
	for _, m := range models {
		r, err := fromMessageModel(m)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

// CountMessages counts records matching the filter using the sorted set
// indexes. A record is forwarded exactly when its status is sent, which
// lets status and forwarded clauses be answered from a single index.
func (s *Store) CountMessages(ctx context.Context, f message.CountFilter) (int64, error) {
	lo := "-inf"
	if !f.Since.IsZero() {
		lo = scoreArg(f.Since)
	}

	count := func(key string) (int64, error) {
		n, err := s.rdb.ZCount(ctx, key, lo, "+inf").Result()
		if err != nil {
			return 0, fmt.Errorf("smsrelay/redis: count messages: %w", err)
		}
		return n, nil
	}

	switch {
	case f.Status != "":
		if f.Forwarded != nil && *f.Forwarded != (f.Status == message.StatusSent) {
			return 0, nil
		}
		return count(statusKey(string(f.Status)))

	case f.Forwarded != nil && *f.Forwarded:
		return count(zMessageForwarded)

	case f.Forwarded != nil:
		all, err := count(zMessageAll)
		if err != nil {
			return 0, err
		}
		fwd, err := count(zMessageForwarded)
		if err != nil {
			return 0, err
		}
		return all - fwd, nil

	default:
		return count(zMessageAll)
	}
}
