package repository

import (
	"context"

	"oncomove/pathway-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("already exists")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}

// AssignmentRepository defines the interface for per-patient pathway state.
// There is at most one assignment per user.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.PathwayAssignment) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID string) (*domain.PathwayAssignment, error)
	// Update rewrites the mutable intake fields of an existing assignment.
	Update(ctx context.Context, assignment *domain.PathwayAssignment) error
	// SetStage persists a recomputed stage and elapsed-day count.
	SetStage(ctx context.Context, userID string, stage, daysSinceSurgery int) error
	// ResetWeek moves the assignment onto a new tracking week, zeroing all
	// three weekly counters in the same write.
	ResetWeek(ctx context.Context, userID string, weekStartDate string) error
	// ApplyCompletion applies a session completion as a single atomic update
	// (counter increment, last-session tracking, capped telemetry push) and
	// returns the post-update assignment.
	ApplyCompletion(ctx context.Context, userID string, update domain.CompletionUpdate) (*domain.PathwayAssignment, error)
}

// TemplateRepository defines the interface for the static session-template
// catalog. Content is read-only at runtime; Upsert exists for seeding.
type TemplateRepository interface {
	GetByCode(ctx context.Context, templateCode string) (*domain.SessionTemplate, error)
	// GetForStage lists active templates for a pathway stage, ordered by
	// sortOrder. Pass sessionType "" for all types.
	GetForStage(ctx context.Context, pathwayID string, stage int, sessionType domain.SessionType) ([]domain.SessionTemplate, error)
	GetExercises(ctx context.Context, templateID primitive.ObjectID) ([]domain.TemplateExercise, error)
	SetExerciseVideoKey(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) error
	Upsert(ctx context.Context, template *domain.SessionTemplate, exercises []domain.TemplateExercise) error
}

// FlagRepository defines the interface for coach safety flags.
type FlagRepository interface {
	Create(ctx context.Context, flag *domain.CoachFlag) (primitive.ObjectID, error)
	// HasUnresolved reports whether the user has an open flag of the given type.
	HasUnresolved(ctx context.Context, userID string, flagType domain.FlagType) (bool, error)
	// HasUnresolvedSevere reports whether the user has any open red flag.
	HasUnresolvedSevere(ctx context.Context, userID string) (bool, error)
	GetUnresolvedByUser(ctx context.Context, userID string) ([]domain.CoachFlag, error)
	GetAllUnresolved(ctx context.Context) ([]domain.CoachFlag, error)
	Resolve(ctx context.Context, flagID primitive.ObjectID, resolvedBy, notes string) error
}

// SessionLogRepository defines the interface for the append-only session log.
type SessionLogRepository interface {
	Create(ctx context.Context, sessionLog *domain.SessionLog) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID string) ([]domain.SessionLog, error)
}
