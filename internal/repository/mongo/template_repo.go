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

const (
	templateCollectionName         = "session_templates"
	templateExerciseCollectionName = "template_exercises"
)

// mongoTemplateRepository implements repository.TemplateRepository
type mongoTemplateRepository struct {
	templates *mongo.Collection
	exercises *mongo.Collection
}

// NewMongoTemplateRepository creates a new session-template repository backed by MongoDB.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		templates: db.Collection(templateCollectionName),
		exercises: db.Collection(templateExerciseCollectionName),
	}
}

// GetByCode retrieves a session template by its unique code.
func (r *mongoTemplateRepository) GetByCode(ctx context.Context, templateCode string) (*domain.SessionTemplate, error) {
	var template domain.SessionTemplate
	filter := bson.M{"templateCode": templateCode}

	err := r.templates.FindOne(ctx, filter).Decode(&template)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

// GetForStage lists active templates for a pathway stage, ordered by sortOrder.
func (r *mongoTemplateRepository) GetForStage(ctx context.Context, pathwayID string, stage int, sessionType domain.SessionType) ([]domain.SessionTemplate, error) {
	filter := bson.M{
		"pathwayId":    pathwayID,
		"pathwayStage": stage,
		"isActive":     true,
	}
	if sessionType != "" {
		filter["sessionType"] = sessionType
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}})

	cursor, err := r.templates.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var templates []domain.SessionTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return templates, nil
}

// GetExercises retrieves the ordered exercise rows for a template.
func (r *mongoTemplateRepository) GetExercises(ctx context.Context, templateID primitive.ObjectID) ([]domain.TemplateExercise, error) {
	filter := bson.M{"templateId": templateID}
	findOptions := options.Find().SetSort(bson.D{{Key: "sortOrder", Value: 1}})

	cursor, err := r.exercises.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exercises []domain.TemplateExercise
	if err = cursor.All(ctx, &exercises); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return exercises, nil
}

// SetExerciseVideoKey stores the object-storage key of a demonstration video.
func (r *mongoTemplateRepository) SetExerciseVideoKey(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) error {
	filter := bson.M{"_id": exerciseID}
	update := bson.M{"$set": bson.M{"videoObjectKey": objectKey}}

	result, err := r.exercises.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Upsert writes a template and replaces its exercise rows. Used by the seed
// tool; runtime code never mutates the catalog.
func (r *mongoTemplateRepository) Upsert(ctx context.Context, template *domain.SessionTemplate, exercises []domain.TemplateExercise) error {
	if template.TemplateCode == "" {
		return errors.New("template requires a templateCode")
	}

	now := time.Now().UTC()
	filter := bson.M{"templateCode": template.TemplateCode}
	update := bson.M{
		"$set": bson.M{
			"pathwayId":          template.PathwayID,
			"pathwayStage":       template.PathwayStage,
			"sessionType":        template.SessionType,
			"name":               template.Name,
			"displayTitle":       template.DisplayTitle,
			"displayDescription": template.DisplayDescription,
			"estimatedMinutes":   template.EstimatedMinutes,
			"easierTitle":        template.EasierTitle,
			"easierDescription":  template.EasierDescription,
			"minMinutes":         template.MinMinutes,
			"isActive":           template.IsActive,
			"sortOrder":          template.SortOrder,
			"updatedAt":          now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	var saved domain.SessionTemplate
	if err := r.templates.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved); err != nil {
		return err
	}
	template.ID = saved.ID

	// Replace the exercise rows wholesale; seeding is the only writer.
	if _, err := r.exercises.DeleteMany(ctx, bson.M{"templateId": saved.ID}); err != nil {
		return err
	}
	if len(exercises) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(exercises))
	for i := range exercises {
		exercises[i].ID = primitive.NewObjectID()
		exercises[i].TemplateID = saved.ID
		docs = append(docs, exercises[i])
	}
	_, err := r.exercises.InsertMany(ctx, docs)
	return err
}

// EnsureTemplateIndexes creates necessary indexes for the template collections.
func EnsureTemplateIndexes(ctx context.Context, templates, exercises *mongo.Collection) {
	templateIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "templateCode", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "pathwayId", Value: 1}, {Key: "pathwayStage", Value: 1}, {Key: "sessionType", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = templates.Indexes().CreateMany(ctx, templateIndexes)

	exerciseIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "templateId", Value: 1}, {Key: "sortOrder", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = exercises.Indexes().CreateMany(ctx, exerciseIndexes)
}
