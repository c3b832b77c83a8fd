package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clean-street/internal/database"
	"clean-street/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoComplaintStore struct {
	client     *mongo.Client
	complaints *mongo.Collection
	logs       *mongo.Collection
	timeout    time.Duration

	// transactions requires a replica set or sharded cluster
	transactions bool
}

func NewMongoComplaintStore(db *database.MongoDB, timeout time.Duration, transactions bool) *MongoComplaintStore {
	return &MongoComplaintStore{
		client:       db.Client,
		complaints:   db.Complaints(),
		logs:         db.AdminLogs(),
		timeout:      timeout,
		transactions: transactions,
	}
}

func (s *MongoComplaintStore) Create(ctx context.Context, complaint *models.Complaint) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.complaints.InsertOne(ctx, complaint)
	if err != nil {
		return fmt.Errorf("insert complaint: %w", err)
	}
	complaint.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *MongoComplaintStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var complaint models.Complaint
	if err := s.complaints.FindOne(ctx, bson.M{"_id": id}).Decode(&complaint); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find complaint: %w", err)
	}
	return &complaint, nil
}

func (s *MongoComplaintStore) Update(ctx context.Context, id primitive.ObjectID, patch models.ComplaintPatch) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.findAndUpdate(ctx, bson.M{"_id": id}, patchUpdate(patch, time.Now()))
}

func (s *MongoComplaintStore) UpdateWithLog(ctx context.Context, id primitive.ObjectID, patch models.ComplaintPatch, entry *models.AdminLog) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := patchUpdate(patch, time.Now())

	if !s.transactions {
		updated, err := s.findAndUpdate(ctx, bson.M{"_id": id}, update)
		if err != nil {
			return nil, err
		}
		if err := insertLog(ctx, s.logs, entry); err != nil {
			return nil, err
		}
		return updated, nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		updated, err := s.findAndUpdate(sc, bson.M{"_id": id}, update)
		if err != nil {
			return nil, err
		}
		if err := insertLog(sc, s.logs, entry); err != nil {
			return nil, err
		}
		return updated, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Complaint), nil
}

func (s *MongoComplaintStore) findAndUpdate(ctx context.Context, filter, update bson.M) (*models.Complaint, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var complaint models.Complaint
	if err := s.complaints.FindOneAndUpdate(ctx, filter, update, opts).Decode(&complaint); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update complaint: %w", err)
	}
	return &complaint, nil
}

func (s *MongoComplaintStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.complaints.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete complaint: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoComplaintStore) List(ctx context.Context, filter ComplaintFilter) ([]models.Complaint, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := complaintQuery(filter)
	page := filter.Page.Normalize()

	total, err := s.complaints.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count complaints: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	complaints, err := s.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return complaints, total, nil
}

// Near returns complaints within MaxDistance metres of Point, closest first.
func (s *MongoComplaintStore) Near(ctx context.Context, query NearQuery) ([]models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find()
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	return s.find(ctx, nearQuery(query), opts)
}

func (s *MongoComplaintStore) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Complaint, error) {
	cursor, err := s.complaints.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find complaints: %w", err)
	}
	defer cursor.Close(ctx)

	complaints := []models.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, fmt.Errorf("decode complaints: %w", err)
	}
	return complaints, nil
}

func (s *MongoComplaintStore) Count(ctx context.Context, filter ComplaintFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	total, err := s.complaints.CountDocuments(ctx, complaintQuery(filter))
	if err != nil {
		return 0, fmt.Errorf("count complaints: %w", err)
	}
	return total, nil
}

// CountByStatus always reports every status, zero-filled.
func (s *MongoComplaintStore) CountByStatus(ctx context.Context, filter ComplaintFilter) (map[models.ComplaintStatus]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: complaintQuery(filter)}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cursor, err := s.complaints.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate complaints by status: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []groupCount
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}

	counts := make(map[models.ComplaintStatus]int64, len(models.AllStatuses()))
	for _, status := range models.AllStatuses() {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[models.ComplaintStatus(row.Key)] += row.Count
	}
	return counts, nil
}

func (s *MongoComplaintStore) SetVote(ctx context.Context, id, userID primitive.ObjectID, vote models.Vote) (*models.Complaint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := stampedVoteUpdate("upvotes", "downvotes", userID, vote, time.Now())
	return s.findAndUpdate(ctx, bson.M{"_id": id}, update)
}

func (s *MongoComplaintStore) AddComment(ctx context.Context, id primitive.ObjectID, comment models.Comment) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"comments": comment},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := s.complaints.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetCommentReaction uses the positional operator so only the matched
// comment's like/dislike sets change.
func (s *MongoComplaintStore) SetCommentReaction(ctx context.Context, id, commentID, userID primitive.ObjectID, vote models.Vote) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"_id": id, "comments.id": commentID}
	update := stampedVoteUpdate("comments.$.likes", "comments.$.dislikes", userID, vote, time.Now())

	complaint, err := s.findAndUpdate(ctx, filter, update)
	if err != nil {
		return nil, err
	}
	comment := complaint.FindComment(commentID)
	if comment == nil {
		return nil, ErrNotFound
	}
	return comment, nil
}
