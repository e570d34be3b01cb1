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

const flagCollectionName = "coach_flags"

// mongoFlagRepository implements repository.FlagRepository
type mongoFlagRepository struct {
	collection *mongo.Collection
}

// NewMongoFlagRepository creates a new coach-flag repository backed by MongoDB.
func NewMongoFlagRepository(db *mongo.Database) repository.FlagRepository {
	return &mongoFlagRepository{
		collection: db.Collection(flagCollectionName),
	}
}

// Create appends a new coach flag.
func (r *mongoFlagRepository) Create(ctx context.Context, flag *domain.CoachFlag) (primitive.ObjectID, error) {
	if flag.UserID == "" || flag.FlagType == "" {
		return primitive.NilObjectID, errors.New("flag requires userId and flagType")
	}

	flag.ID = primitive.NewObjectID()
	flag.CreatedAt = time.Now().UTC()
	flag.IsResolved = false

	result, err := r.collection.InsertOne(ctx, flag)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted flag ID")
	}
	return insertedID, nil
}

// HasUnresolved reports whether the user has an open flag of the given type.
func (r *mongoFlagRepository) HasUnresolved(ctx context.Context, userID string, flagType domain.FlagType) (bool, error) {
	filter := bson.M{
		"userId":     userID,
		"flagType":   flagType,
		"isResolved": false,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUnresolvedSevere reports whether the user has any open red flag.
func (r *mongoFlagRepository) HasUnresolvedSevere(ctx context.Context, userID string) (bool, error) {
	filter := bson.M{
		"userId":     userID,
		"isResolved": false,
		"severity":   domain.SeverityRed,
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUnresolvedByUser lists a user's open flags, newest first.
func (r *mongoFlagRepository) GetUnresolvedByUser(ctx context.Context, userID string) ([]domain.CoachFlag, error) {
	filter := bson.M{"userId": userID, "isResolved": false}
	return r.findFlags(ctx, filter)
}

// GetAllUnresolved lists every open flag across patients, newest first.
func (r *mongoFlagRepository) GetAllUnresolved(ctx context.Context) ([]domain.CoachFlag, error) {
	filter := bson.M{"isResolved": false}
	return r.findFlags(ctx, filter)
}

func (r *mongoFlagRepository) findFlags(ctx context.Context, filter bson.M) ([]domain.CoachFlag, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var flags []domain.CoachFlag
	if err = cursor.All(ctx, &flags); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return flags, nil
}

// Resolve marks a flag as handled by a specialist.
func (r *mongoFlagRepository) Resolve(ctx context.Context, flagID primitive.ObjectID, resolvedBy, notes string) error {
	filter := bson.M{"_id": flagID}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"isResolved":      true,
		"resolvedAt":      now,
		"resolvedBy":      resolvedBy,
		"resolutionNotes": notes,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureFlagIndexes creates necessary indexes for the coach_flags collection.
func EnsureFlagIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Open-flag lookups by user and type (dedup checks).
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "flagType", Value: 1}, {Key: "isResolved", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "isResolved", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
