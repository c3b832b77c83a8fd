package store

import (
	"context"
	"fmt"
	"time"

	"clean-street/internal/database"
	"clean-street/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoAdminLogStore struct {
	logs    *mongo.Collection
	timeout time.Duration
}

func NewMongoAdminLogStore(db *database.MongoDB, timeout time.Duration) *MongoAdminLogStore {
	return &MongoAdminLogStore{logs: db.AdminLogs(), timeout: timeout}
}

func (s *MongoAdminLogStore) Append(ctx context.Context, entry *models.AdminLog) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return insertLog(ctx, s.logs, entry)
}

func insertLog(ctx context.Context, logs *mongo.Collection, entry *models.AdminLog) error {
	result, err := logs.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert admin log: %w", err)
	}
	entry.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

// List returns entries newest first.
func (s *MongoAdminLogStore) List(ctx context.Context, page Page) ([]models.AdminLog, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page = page.Normalize()

	total, err := s.logs.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count admin logs: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := s.logs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find admin logs: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []models.AdminLog{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, 0, fmt.Errorf("decode admin logs: %w", err)
	}
	return entries, total, nil
}
