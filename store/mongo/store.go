// Package mongo implements store.Store on MongoDB.
//
// Messages, rules and the transport configuration live in the collections
// sms_messages, sms_filters and email_configs. The transport configuration is
// a single document with a fixed _id, so saving one is a single upsert.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/smsrelay/store"
)

// Collection name constants.
const (
	colMessages   = "sms_messages"
	colRules      = "sms_filters"
	colTransports = "email_configs"
)

// activeSlot is the _id of the transport configuration document.
const activeSlot = "active"

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Open dials uri and returns a Grove handle on dbName. An empty dbName
// falls back to the database named in the URI path.
func Open(ctx context.Context, uri, dbName string) (*grove.DB, error) {
	var opts []mongodriver.MongoOption
	if dbName != "" {
		opts = append(opts, mongodriver.WithDatabase(dbName))
	}

	drv := mongodriver.New()
	if err := drv.Open(ctx, uri, opts...); err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("smsrelay/mongo: open: %w", err)
	}

	db, err := grove.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("smsrelay/mongo: open: %w", err)
	}
	return db, nil
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all relay collections.
func (s *Store) Migrate(ctx context.Context) error {
	for col, models := range migrationIndexes() {
		if len(models) == 0 {
			continue
		}

		if _, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("smsrelay/mongo: migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("smsrelay/mongo: ping: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoDocuments checks if an error is a "no documents" error from MongoDB.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all relay collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colMessages: {
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "email_status", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "forwarded", Value: 1}, {Key: "timestamp", Value: -1}}},
		},
		colRules: {
			{Keys: bson.D{{Key: "enabled", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
	}
}
