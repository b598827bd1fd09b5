// Package database owns the MongoDB connection and index bootstrap.
package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/logger"
)

// Collection names used across the repositories
const (
	ColUsers         = "users"
	ColMessages      = "messages"
	ColItems         = "items"
	ColPosts         = "posts"
	ColTrips         = "trips"
	ColNotifications = "notifications"
	ColReports       = "reports"
	ColColleges      = "colleges"
	ColContacts      = "contacts"
)

// MongoDB wraps the driver client and the application database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Config controls connection behavior
type Config struct {
	URI           string
	Name          string
	RetryCount    int
	RetryInterval time.Duration
}

// Connect dials MongoDB with retries and verifies with a primary ping
func Connect(ctx context.Context, cfg Config) (*MongoDB, error) {
	if cfg.RetryCount <= 0 {
		cfg.RetryCount = 5
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 2 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(50).
		SetServerSelectionTimeout(5 * time.Second)

	var client *mongo.Client
	var err error

	for i := 0; i <= cfg.RetryCount; i++ {
		client, err = mongo.Connect(ctx, clientOpts)
		if err == nil {
			if pingErr := client.Ping(ctx, readpref.Primary()); pingErr == nil {
				logger.Log.Info("MongoDB connected",
					zap.String("database", cfg.Name),
					zap.Int("attempt", i+1),
				)
				return &MongoDB{
					Client:   client,
					Database: client.Database(cfg.Name),
				}, nil
			} else {
				err = pingErr
			}
		}

		if i < cfg.RetryCount {
			logger.Log.Warn("MongoDB connection failed, retrying",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(cfg.RetryInterval)
		}
	}

	return nil, fmt.Errorf("failed to connect to MongoDB after %d attempts: %w", cfg.RetryCount+1, err)
}

// Close disconnects the client
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// Collection returns a handle by name
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.Database.Collection(name)
}

// EnsureIndexes creates the indexes the application depends on.
// Safe to call on every startup; Mongo treats existing indexes as no-ops.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	thirtyDays := int32((30 * 24 * time.Hour).Seconds())

	specs := map[string][]mongo.IndexModel{
		ColUsers: {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "college", Value: 1}}},
		},
		ColMessages: {
			// Conversation history scans and unread lookups.
			{Keys: bson.D{{Key: "sender", Value: 1}, {Key: "receiver", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "receiver", Value: 1}, {Key: "read_at", Value: 1}}},
		},
		ColItems: {
			{Keys: bson.D{{Key: "college", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}}},
		},
		ColPosts: {
			{Keys: bson.D{{Key: "college", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "body", Value: "text"}}},
		},
		ColTrips: {
			{Keys: bson.D{{Key: "college", Value: 1}, {Key: "depart_at", Value: 1}}},
		},
		ColNotifications: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
			{
				Keys:    bson.D{{Key: "created_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(thirtyDays),
			},
		},
		ColReports: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		ColColleges: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		ColContacts: {
			{
				Keys:    bson.D{{Key: "created_at", Value: 1}},
				Options: options.Index().SetExpireAfterSeconds(thirtyDays),
			},
		},
	}

	for col, models := range specs {
		if _, err := m.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("creating indexes for %s: %w", col, err)
		}
	}

	logger.Log.Info("MongoDB indexes ensured")
	return nil
}
