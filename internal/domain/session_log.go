package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionLog is the append-only per-completion record kept for coach review.
// Unlike the capped telemetry history on the assignment, logs are never
// evicted. A failed log write must not fail the completion it describes.
type SessionLog struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       string             `bson:"userId" json:"userId"`
	AssignmentID primitive.ObjectID `bson:"assignmentId" json:"assignmentId"`
	SessionType  SessionType        `bson:"sessionType" json:"sessionType"`
	TemplateCode string             `bson:"templateCode,omitempty" json:"templateCode,omitempty"`
	SessionDate  string             `bson:"sessionDate" json:"sessionDate"`

	DurationMinutes    int    `bson:"durationMinutes" json:"durationMinutes"`
	EnergyLevel        int    `bson:"energyLevel,omitempty" json:"energyLevel,omitempty"`
	PainLevel          int    `bson:"painLevel,omitempty" json:"painLevel,omitempty"`
	PainQuality        string `bson:"painQuality,omitempty" json:"painQuality,omitempty"`
	AverageRPE         int    `bson:"averageRPE,omitempty" json:"averageRPE,omitempty"`
	RestReason         string `bson:"restReason,omitempty" json:"restReason,omitempty"`
	WasPlannedRest     bool   `bson:"wasPlannedRest" json:"wasPlannedRest"`
	ExercisesCompleted int    `bson:"exercisesCompleted,omitempty" json:"exercisesCompleted,omitempty"`
	ExercisesTotal     int    `bson:"exercisesTotal,omitempty" json:"exercisesTotal,omitempty"`
	IsEasyMode         bool   `bson:"isEasyMode" json:"isEasyMode"`
	Completed          bool   `bson:"completed" json:"completed"`
	PatientNote        string `bson:"patientNote,omitempty" json:"patientNote,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
