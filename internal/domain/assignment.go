package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RecentSessionLimit caps the per-assignment telemetry history.
const RecentSessionLimit = 10

// SessionSnapshot is one entry of the bounded telemetry history kept on a
// pathway assignment for coach pattern review. The engine records it but
// never interprets it.
type SessionSnapshot struct {
	Date            string      `bson:"date" json:"date"`
	TemplateCode    string      `bson:"templateCode,omitempty" json:"templateCode,omitempty"`
	SessionType     SessionType `bson:"sessionType" json:"sessionType"`
	DurationMinutes int         `bson:"durationMinutes" json:"durationMinutes"`
	AverageRPE      int         `bson:"averageRPE,omitempty" json:"averageRPE,omitempty"`
	MaxPain         int         `bson:"maxPain,omitempty" json:"maxPain,omitempty"`
	IsEasyMode      bool        `bson:"isEasyMode,omitempty" json:"isEasyMode,omitempty"`
	Completed       bool        `bson:"completed" json:"completed"`
	RestReason      string      `bson:"restReason,omitempty" json:"restReason,omitempty"`
}

// PushRecentSession prepends snap to history, evicting the oldest entry once
// the cap is exceeded. Newest entries are always at index 0.
func PushRecentSession(history []SessionSnapshot, snap SessionSnapshot) []SessionSnapshot {
	out := make([]SessionSnapshot, 0, len(history)+1)
	out = append(out, snap)
	out = append(out, history...)
	if len(out) > RecentSessionLimit {
		out = out[:RecentSessionLimit]
	}
	return out
}

// PathwayAssignment is the long-lived per-patient pathway state: onboarding
// intake, derived stage, and the week's running quota counters.
//
// The weekly counters are only meaningful relative to WeekStartDate; every
// read of progress must reconcile the stored week against the real current
// week first.
type PathwayAssignment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userId" json:"userId"`
	PathwayID string             `bson:"pathwayId" json:"pathwayId"`

	// Onboarding intake.
	CancerType          string     `bson:"cancerType,omitempty" json:"cancerType,omitempty"`
	SurgeryType         string     `bson:"surgeryType,omitempty" json:"surgeryType,omitempty"`
	AxillarySurgery     string     `bson:"axillarySurgery,omitempty" json:"axillarySurgery,omitempty"`
	SurgeryDate         *time.Time `bson:"surgeryDate,omitempty" json:"surgeryDate,omitempty"`
	CurrentTreatments   []string   `bson:"currentTreatments,omitempty" json:"currentTreatments,omitempty"`
	MovementReadiness   string     `bson:"movementReadiness,omitempty" json:"movementReadiness,omitempty"`
	ShoulderRestriction bool       `bson:"shoulderRestriction" json:"shoulderRestriction"`
	Neuropathy          bool       `bson:"neuropathy" json:"neuropathy"`
	FatigueBaseline     string     `bson:"fatigueBaseline,omitempty" json:"fatigueBaseline,omitempty"`
	RedFlagsChecked     bool       `bson:"redFlagsChecked" json:"redFlagsChecked"`
	HasActiveRedFlags   bool       `bson:"hasActiveRedFlags" json:"hasActiveRedFlags"`

	// Derived stage state, recomputed from SurgeryDate on every access.
	PathwayStage     int `bson:"pathwayStage" json:"pathwayStage"`
	DaysSinceSurgery int `bson:"daysSinceSurgery" json:"daysSinceSurgery"`

	// Current tracking week (Monday-anchored) and its counters.
	WeekStartDate        string `bson:"weekStartDate" json:"weekStartDate"`
	WeekStrengthSessions int    `bson:"weekStrengthSessions" json:"weekStrengthSessions"`
	WeekWalkMinutes      int    `bson:"weekWalkMinutes" json:"weekWalkMinutes"`
	WeekRestDays         int    `bson:"weekRestDays" json:"weekRestDays"`

	LastSessionType SessionType `bson:"lastSessionType,omitempty" json:"lastSessionType,omitempty"`
	LastSessionDate string      `bson:"lastSessionDate,omitempty" json:"lastSessionDate,omitempty"`

	// Bounded telemetry history, newest first, capped at RecentSessionLimit.
	RecentSessions []SessionSnapshot `bson:"recentSessions,omitempty" json:"recentSessions,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// CompletionUpdate describes the single atomic write a session completion
// applies to an assignment: last-session tracking, at most one counter
// increment, and an optional telemetry snapshot.
type CompletionUpdate struct {
	LastSessionType  SessionType
	LastSessionDate  string
	StrengthDelta    int
	WalkMinutesDelta int
	RestDaysDelta    int
	Snapshot         *SessionSnapshot
}

// CompletionUpdateFor maps a recorded session onto its counter effect.
// Mobility and skipped sessions deliberately earn no quota credit.
func CompletionUpdateFor(sessionType SessionType, durationMinutes int, date string) CompletionUpdate {
	u := CompletionUpdate{
		LastSessionType: sessionType,
		LastSessionDate: date,
	}
	switch sessionType {
	case SessionStrength:
		u.StrengthDelta = 1
	case SessionWalk:
		u.WalkMinutesDelta = durationMinutes
	case SessionRest:
		u.RestDaysDelta = 1
	}
	return u
}
