package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/id"
	"github.com/xraph/smsrelay/message"
)

// CreateMessage persists a record.
func (s *Store) CreateMessage(ctx context.Context, r *message.Record) error {
	if _, err := s.mdb.NewInsert(toMessageModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("smsrelay/mongo: create message: %w", err)
	}
	return nil
}

// GetMessage returns a record by ID.
func (s *Store) GetMessage(ctx context.Context, msgID id.ID) (*message.Record, error) {
	var m messageModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": msgID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, smsrelay.ErrMessageNotFound
		}
		return nil, fmt.Errorf("smsrelay/mongo: get message: %w", err)
	}

	return fromMessageModel(&m)
}

// ListMessages returns records newest first.
func (s *Store) ListMessages(ctx context.Context, opts message.ListOpts) ([]*message.Record, error) {
	var models []messageModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["email_status"] = string(opts.Status)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})

	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("smsrelay/mongo: list messages: %w", err)
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

// CountMessages counts records matching the filter.
func (s *Store) CountMessages(ctx context.Context, f message.CountFilter) (int64, error) {
	n, err := s.mdb.NewFind((*messageModel)(nil)).
		Filter(countFilter(f)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("smsrelay/mongo: count messages: %w", err)
	}
	return n, nil
}
