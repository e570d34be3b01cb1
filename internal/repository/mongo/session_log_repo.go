package mongo

import (
	"context"
	"errors"
	"time"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sessionLogCollectionName = "session_logs"

// mongoSessionLogRepository implements repository.SessionLogRepository
type mongoSessionLogRepository struct {
	collection *mongo.Collection
}

// NewMongoSessionLogRepository creates a new session-log repository backed by MongoDB.
func NewMongoSessionLogRepository(db *mongo.Database) repository.SessionLogRepository {
	return &mongoSessionLogRepository{
		collection: db.Collection(sessionLogCollectionName),
	}
}

// Create appends a session log entry.
func (r *mongoSessionLogRepository) Create(ctx context.Context, sessionLog *domain.SessionLog) (primitive.ObjectID, error) {
	if sessionLog.UserID == "" {
		return primitive.NilObjectID, errors.New("session log requires userId")
	}

	sessionLog.ID = primitive.NewObjectID()
	sessionLog.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, sessionLog)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted session log ID")
	}
	return insertedID, nil
}

// GetByUserID lists a patient's session logs, newest first.
func (r *mongoSessionLogRepository) GetByUserID(ctx context.Context, userID string) ([]domain.SessionLog, error) {
	filter := bson.M{"userId": userID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var logs []domain.SessionLog
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureSessionLogIndexes creates necessary indexes for the session_logs collection.
func EnsureSessionLogIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "sessionDate", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
