// internal/database/mongodb.go
package database

import (
	"context"
	"fmt"
	"time"

	"clean-street/internal/config"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names
const (
	UsersCollection      = "users"
	ComplaintsCollection = "complaints"
	AdminLogsCollection  = "admin_logs"
)

type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
	log      *logrus.Logger
}

func NewMongoDB(cfg *config.Config, log *logrus.Logger) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout())
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(cfg.MongoURI).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	log.WithField("database", cfg.DatabaseName).Info("Connected to MongoDB")

	return &MongoDB{
		Client:   client,
		Database: client.Database(cfg.DatabaseName),
		log:      log,
	}, nil
}

func (m *MongoDB) Users() *mongo.Collection      { return m.Database.Collection(UsersCollection) }
func (m *MongoDB) Complaints() *mongo.Collection { return m.Database.Collection(ComplaintsCollection) }
func (m *MongoDB) AdminLogs() *mongo.Collection  { return m.Database.Collection(AdminLogsCollection) }

// Ping is used by the health endpoint.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}

func (m *MongoDB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect from MongoDB: %w", err)
	}

	m.log.Info("Disconnected from MongoDB")
	return nil
}

// CreateIndexes creates the indexes every collection relies on.
// Keys are bson.D so the compound key order is preserved.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
	}

	if _, err := m.Users().Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	complaintIndexes := []mongo.IndexModel{
		{
			// $near needs a 2dsphere index
			Keys: bson.D{{Key: "location_coords", Value: "2dsphere"}},
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{{Key: "assigned_to", Value: 1}},
		},
	}

	if _, err := m.Complaints().Indexes().CreateMany(ctx, complaintIndexes); err != nil {
		return fmt.Errorf("create complaint indexes: %w", err)
	}

	logIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
	}

	if _, err := m.AdminLogs().Indexes().CreateMany(ctx, logIndexes); err != nil {
		return fmt.Errorf("create admin log indexes: %w", err)
	}

	m.log.Info("Indexes created for all collections")
	return nil
}
