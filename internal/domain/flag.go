package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FlagType identifies the safety condition that raised a coach flag.
type FlagType string

const (
	FlagLowEnergyStreak  FlagType = "low_energy_streak"
	FlagHighPain         FlagType = "high_pain"
	FlagHighRPE          FlagType = "high_rpe"
	FlagPainQualityAlert FlagType = "pain_quality_concern"
)

// FlagSeverity grades how urgently a coach should review a flag.
type FlagSeverity string

const (
	SeverityAmber FlagSeverity = "amber"
	SeverityRed   FlagSeverity = "red"
)

// CoachFlag is an append-only, coach-visible alert raised when a patient's
// self-reported signals cross a safety threshold. The engine creates flags;
// resolution happens in the coach console.
type CoachFlag struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      string             `bson:"userId" json:"userId"`
	FlagType    FlagType           `bson:"flagType" json:"flagType"`
	Severity    FlagSeverity       `bson:"severity" json:"severity"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	TriggerData map[string]any     `bson:"triggerData,omitempty" json:"triggerData,omitempty"`

	IsResolved      bool       `bson:"isResolved" json:"isResolved"`
	ResolvedAt      *time.Time `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ResolvedBy      string     `bson:"resolvedBy,omitempty" json:"resolvedBy,omitempty"`
	ResolutionNotes string     `bson:"resolutionNotes,omitempty" json:"resolutionNotes,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
