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

const assignmentCollectionName = "pathway_assignments"

// mongoAssignmentRepository implements repository.AssignmentRepository
type mongoAssignmentRepository struct {
	collection *mongo.Collection
}

// NewMongoAssignmentRepository creates a new pathway assignment repository backed by MongoDB.
func NewMongoAssignmentRepository(db *mongo.Database) repository.AssignmentRepository {
	return &mongoAssignmentRepository{
		collection: db.Collection(assignmentCollectionName),
	}
}

// Create inserts a new pathway assignment. The unique index on userId makes a
// second onboarding attempt for the same patient fail with ErrDuplicate.
func (r *mongoAssignmentRepository) Create(ctx context.Context, assignment *domain.PathwayAssignment) (primitive.ObjectID, error) {
	if assignment.UserID == "" || assignment.PathwayID == "" {
		return primitive.NilObjectID, errors.New("assignment requires userId and pathwayId")
	}

	assignment.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, assignment)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted assignment ID")
	}

	return insertedID, nil
}

// GetByUserID retrieves the assignment for a patient.
func (r *mongoAssignmentRepository) GetByUserID(ctx context.Context, userID string) (*domain.PathwayAssignment, error) {
	var assignment domain.PathwayAssignment
	filter := bson.M{"userId": userID}

	err := r.collection.FindOne(ctx, filter).Decode(&assignment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &assignment, nil
}

// Update rewrites the mutable intake fields of an assignment. Stage, week
// counters, and telemetry history have their own targeted updates and are
// deliberately not touched here.
func (r *mongoAssignmentRepository) Update(ctx context.Context, assignment *domain.PathwayAssignment) error {
	if assignment.UserID == "" {
		return errors.New("assignment userId is required for update")
	}

	filter := bson.M{"userId": assignment.UserID}
	update := bson.M{"$set": bson.M{
		"cancerType":          assignment.CancerType,
		"surgeryType":         assignment.SurgeryType,
		"axillarySurgery":     assignment.AxillarySurgery,
		"surgeryDate":         assignment.SurgeryDate,
		"currentTreatments":   assignment.CurrentTreatments,
		"movementReadiness":   assignment.MovementReadiness,
		"shoulderRestriction": assignment.ShoulderRestriction,
		"neuropathy":          assignment.Neuropathy,
		"fatigueBaseline":     assignment.FatigueBaseline,
		"redFlagsChecked":     assignment.RedFlagsChecked,
		"hasActiveRedFlags":   assignment.HasActiveRedFlags,
		"updatedAt":           time.Now().UTC(),
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

// SetStage persists a recomputed stage and day count.
func (r *mongoAssignmentRepository) SetStage(ctx context.Context, userID string, stage, daysSinceSurgery int) error {
	filter := bson.M{"userId": userID}
	update := bson.M{"$set": bson.M{
		"pathwayStage":     stage,
		"daysSinceSurgery": daysSinceSurgery,
		"updatedAt":        time.Now().UTC(),
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

// ResetWeek rolls the assignment onto a new tracking week. The week start and
// all three counters change in one write so a concurrent reader can never see
// a half-reset week.
func (r *mongoAssignmentRepository) ResetWeek(ctx context.Context, userID string, weekStartDate string) error {
	filter := bson.M{"userId": userID}
	update := bson.M{"$set": bson.M{
		"weekStartDate":        weekStartDate,
		"weekStrengthSessions": 0,
		"weekWalkMinutes":      0,
		"weekRestDays":         0,
		"updatedAt":            time.Now().UTC(),
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

// ApplyCompletion applies a session completion in a single atomic update:
// $inc for the counter delta, $set for last-session tracking, and a
// position-0 $push with $slice for the capped telemetry history. Concurrent
// double-submits therefore increment counters correctly instead of racing a
// read-modify-write cycle.
func (r *mongoAssignmentRepository) ApplyCompletion(ctx context.Context, userID string, u domain.CompletionUpdate) (*domain.PathwayAssignment, error) {
	filter := bson.M{"userId": userID}

	set := bson.M{
		"lastSessionType": u.LastSessionType,
		"lastSessionDate": u.LastSessionDate,
		"updatedAt":       time.Now().UTC(),
	}
	update := bson.M{"$set": set}

	inc := bson.M{}
	if u.StrengthDelta != 0 {
		inc["weekStrengthSessions"] = u.StrengthDelta
	}
	if u.WalkMinutesDelta != 0 {
		inc["weekWalkMinutes"] = u.WalkMinutesDelta
	}
	if u.RestDaysDelta != 0 {
		inc["weekRestDays"] = u.RestDaysDelta
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	if u.Snapshot != nil {
		update["$push"] = bson.M{
			"recentSessions": bson.M{
				"$each":     bson.A{*u.Snapshot},
				"$position": 0,
				"$slice":    domain.RecentSessionLimit,
			},
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated domain.PathwayAssignment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &updated, nil
}

// EnsureAssignmentIndexes creates necessary indexes for the pathway_assignments collection.
func EnsureAssignmentIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One assignment per patient.
			Keys:    bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "pathwayId", Value: 1}, {Key: "pathwayStage", Value: 1}},
			Options: options.Index(),
		},
	}

	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
