package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/xraph/smsrelay"
	"github.com/xraph/smsrelay/transport"
)

// ReplaceTransport upserts the singleton configuration document.
func (s *Store) ReplaceTransport(ctx context.Context, cfg *transport.Config) error {
	_, err := s.mdb.NewUpdate(toTransportModel(cfg)).
		Filter(bson.M{"_id": activeSlot}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("smsrelay/mongo: replace transport: %w", err)
	}
	return nil
}

// CurrentTransport returns the active configuration.
func (s *Store) CurrentTransport(ctx context.Context) (*transport.Config, error) {
	var m transportModel

	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": activeSlot}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, smsrelay.ErrNoTransportConfig
		}
		return nil, fmt.Errorf("smsrelay/mongo: current transport: %w", err)
	}

	return fromTransportModel(&m)
}
