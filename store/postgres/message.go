package postgres

import (
	"context"
	"fmt"

	"github.com/xraph/grove/drivers/pgdriver"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/message"
)

// CreateMessage persists a record.
func (s *Store) CreateMessage(ctx context.Context, r *message.Record) error {
	if _, err := s.pg.NewInsert(toMessageModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/postgres: create message: %w", err)
	}
	return nil
}

// GetMessage returns a record by ID.
func (s *Store) GetMessage(ctx context.Context, msgID id.ID) (*message.Record, error) {
	m := new(messageModel)
	err := s.pg.NewSelect(m).
		Where("id = ?", msgID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, smsrelay.ErrMessageNotFound
		}
		return nil, fmt.Errorf("smsrelay/postgres: get message: %w", err)
	}
	return fromMessageModel(m)
}

// ListMessages returns records newest first.
func (s *Store) ListMessages(ctx context.Context, opts message.ListOpts) ([]*message.Record, error) {
	var models []messageModel
	if err := s.listMessagesQuery(&models, opts).Scan(ctx); err != nil {
		return nil, fmt.Errorf("smsrelay/postgres: list messages: %w", err)
	}

	result := make([]*message.Record, 0, len(models))
	for i := range models {
		r, err := fromMessageModel(&models[i])
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *Store) listMessagesQuery(dest *[]messageModel, opts message.ListOpts) *pgdriver.SelectQuery {
	q := s.pg.NewSelect(dest)
	if opts.Status != "" {
		q = q.Where("email_status = ?", string(opts.Status))
	}
	q = q.OrderExpr("timestamp DESC").OrderExpr("id DESC")
	return page(q, opts.Offset, opts.Limit)
}

// CountMessages counts records matching the filter.
func (s *Store) CountMessages(ctx context.Context, f message.CountFilter) (int64, error) {
	n, err := s.countMessagesQuery(f).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("smsrelay/postgres: count messages: %w", err)
	}
	return n, nil
}

func (s *Store) countMessagesQuery(f message.CountFilter) *pgdriver.SelectQuery {
	q := s.pg.NewSelect((*messageModel)(nil))
	if f.Forwarded != nil {
		q = q.Where("forwarded = ?", *f.Forwarded)
	}
	if f.Status != "" {
		q = q.Where("email_status = ?", string(f.Status))
	}
	if !f.Since.IsZero() {
		q = q.Where("timestamp >= ?", f.Since)
	}
	return q
}
