package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionTemplate is static, pre-authored session content. The engine only
// selects template codes; it never generates content.
type SessionTemplate struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateCode string             `bson:"templateCode" json:"templateCode"` // unique
	PathwayID    string             `bson:"pathwayId" json:"pathwayId"`
	PathwayStage int                `bson:"pathwayStage" json:"pathwayStage"`
	SessionType  SessionType        `bson:"sessionType" json:"sessionType"`

	Name               string `bson:"name" json:"name"`
	DisplayTitle       string `bson:"displayTitle,omitempty" json:"displayTitle,omitempty"`
	DisplayDescription string `bson:"displayDescription,omitempty" json:"displayDescription,omitempty"`
	EstimatedMinutes   int    `bson:"estimatedMinutes" json:"estimatedMinutes"`

	// Optional reduced-intensity variant.
	EasierTitle       string `bson:"easierTitle,omitempty" json:"easierTitle,omitempty"`
	EasierDescription string `bson:"easierDescription,omitempty" json:"easierDescription,omitempty"`
	MinMinutes        int    `bson:"minMinutes,omitempty" json:"minMinutes,omitempty"`

	IsActive  bool      `bson:"isActive" json:"isActive"`
	SortOrder int       `bson:"sortOrder" json:"sortOrder"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// TemplateExercise is one ordered exercise row attached to a session
// template. VideoObjectKey, when set, points at a demonstration video in
// object storage; it is resolved to a temporary URL at read time.
type TemplateExercise struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TemplateID primitive.ObjectID `bson:"templateId" json:"templateId"`
	Name       string             `bson:"name" json:"name"`
	Cue        string             `bson:"cue,omitempty" json:"cue,omitempty"`
	Sets       int                `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps       string             `bson:"reps,omitempty" json:"reps,omitempty"`
	HoldSecs   int                `bson:"holdSecs,omitempty" json:"holdSecs,omitempty"`
	SortOrder  int                `bson:"sortOrder" json:"sortOrder"`

	VideoObjectKey string `bson:"videoObjectKey,omitempty" json:"-"`
}
