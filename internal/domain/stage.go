package domain

import (
	"math"
	"time"
)

// SessionType classifies a prescribed or recorded pathway session.
type SessionType string

const (
	SessionStrength SessionType = "strength"
	SessionWalk     SessionType = "walk"
	SessionMobility SessionType = "mobility"
	SessionRest     SessionType = "rest"
	// SessionSkipped records a session the patient chose to skip entirely.
	// It updates last-session tracking but never earns quota credit.
	SessionSkipped SessionType = "skipped"
)

// KnownSessionType reports whether t is a recordable session type.
func KnownSessionType(t SessionType) bool {
	switch t {
	case SessionStrength, SessionWalk, SessionMobility, SessionRest, SessionSkipped:
		return true
	}
	return false
}

// WeeklyPlan is the per-week quota set attached to a pathway stage.
type WeeklyPlan struct {
	StrengthSessions int `bson:"strengthSessions" json:"strengthSessions"`
	WalkMinutes      int `bson:"walkMinutes" json:"walkMinutes"`
	MobilityMinis    int `bson:"mobilityMinis" json:"mobilityMinis"`
	RestDays         int `bson:"restDays" json:"restDays"`
}

// PathwayStage describes one phase of the recovery pathway: its day range,
// weekly quotas, and the template codes the engine may select while a patient
// is in it. Stages are configuration data injected into the engine, not
// hard-coded rules.
type PathwayStage struct {
	Stage       int    `json:"stage"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MinDay      int    `json:"minDay"`
	// MaxDay is nil for the open-ended final stage.
	MaxDay           *int       `json:"maxDay"`
	WeeklyPlan       WeeklyPlan `json:"weeklyPlan"`
	StrengthRotation []string   `json:"strengthRotation,omitempty"`
	WalkTemplate     string     `json:"walkTemplate"`
	MobilityTemplate string     `json:"mobilityTemplate"`
}

func dayPtr(d int) *int { return &d }

// DefaultStages is the production breast-cancer pathway configuration.
var DefaultStages = []PathwayStage{
	{
		Stage:       0,
		Name:        "Very Early (Days 0-6)",
		Description: "Focus on rest and very gentle movement. Listen to your body.",
		MinDay:      0,
		MaxDay:      dayPtr(6),
		WeeklyPlan: WeeklyPlan{
			StrengthSessions: 0,
			WalkMinutes:      20,
			MobilityMinis:    3,
			RestDays:         4,
		},
		WalkTemplate:     "BC_S0_WALK",
		MobilityTemplate: "BC_S0_GENTLE",
	},
	{
		Stage:       1,
		Name:        "Foundations (Days 7-28)",
		Description: "Building gentle habits with supported movement.",
		MinDay:      7,
		MaxDay:      dayPtr(28),
		WeeklyPlan: WeeklyPlan{
			StrengthSessions: 2,
			WalkMinutes:      45,
			MobilityMinis:    3,
			RestDays:         2,
		},
		StrengthRotation: []string{"BC_S1_STRENGTH_A", "BC_S1_STRENGTH_B", "BC_S1_STRENGTH_C"},
		WalkTemplate:     "BC_S1_WALK",
		MobilityTemplate: "BC_S1_MOBILITY",
	},
	{
		Stage:       2,
		Name:        "Building Confidence (Day 29+)",
		Description: "Gradual progression with more variety.",
		MinDay:      29,
		MaxDay:      nil,
		WeeklyPlan: WeeklyPlan{
			StrengthSessions: 3,
			WalkMinutes:      60,
			MobilityMinis:    2,
			RestDays:         2,
		},
		StrengthRotation: []string{"BC_S2_STRENGTH_A", "BC_S2_STRENGTH_B", "BC_S2_STRENGTH_C"},
		WalkTemplate:     "BC_S2_WALK",
		MobilityTemplate: "BC_S2_MOBILITY",
	},
}

// DefaultStage is the stage assigned when no surgery date is known.
const DefaultStage = 1

// StageInfo returns the stage entry for the given stage number, falling back
// to the default stage when the number is unknown.
func StageInfo(stages []PathwayStage, stage int) PathwayStage {
	for _, s := range stages {
		if s.Stage == stage {
			return s
		}
	}
	for _, s := range stages {
		if s.Stage == DefaultStage {
			return s
		}
	}
	return stages[0]
}

// CalculateStage derives the pathway stage from the surgery date. A missing
// or future-dated surgery defaults to the Foundations stage.
func CalculateStage(stages []PathwayStage, surgeryDate *time.Time, now time.Time) int {
	if surgeryDate == nil {
		return DefaultStage
	}
	days := elapsedDays(*surgeryDate, now)
	if days < 0 {
		return DefaultStage
	}
	for _, s := range stages {
		if days >= s.MinDay && (s.MaxDay == nil || days <= *s.MaxDay) {
			return s.Stage
		}
	}
	return DefaultStage
}

// DaysSinceSurgery returns whole days elapsed since surgery, clamped at zero.
func DaysSinceSurgery(surgeryDate *time.Time, now time.Time) int {
	if surgeryDate == nil {
		return 0
	}
	days := elapsedDays(*surgeryDate, now)
	if days < 0 {
		return 0
	}
	return days
}

func elapsedDays(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// WeekDateLayout is the stored format for week-start and session dates.
const WeekDateLayout = "2006-01-02"

// WeekStart returns the ISO date of the Monday of the week containing t.
func WeekStart(t time.Time) string {
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return t.AddDate(0, 0, -offset).Format(WeekDateLayout)
}

// WeekProgress is a snapshot of the week's running totals used by the
// session-type selection rules.
type WeekProgress struct {
	StrengthDone int
	WalkMinutes  int
	RestDays     int
}

// SuggestSessionType applies the ordered prescription rules for one day.
//
// Stage 0 patients rest on weekends and otherwise walk until the weekly
// walk-minute quota is met; they are never prescribed strength. For later
// stages a rest day is enforced after a strength or walk session while the
// rest quota is unmet, except on Mondays so the engine cannot wedge itself
// into rest after a quota-satisfied weekend. Strength is preferred over walk
// while its quota is unmet and yesterday was not already strength; if only
// the strength quota remains it is prescribed even back-to-back. Mobility is
// the filler once every quota is satisfied.
func SuggestSessionType(stage PathwayStage, progress WeekProgress, last SessionType, weekday time.Weekday) SessionType {
	plan := stage.WeeklyPlan

	if stage.Stage == 0 {
		if weekday == time.Sunday || weekday == time.Saturday {
			return SessionRest
		}
		if progress.WalkMinutes < plan.WalkMinutes {
			return SessionWalk
		}
		return SessionMobility
	}

	needsRest := progress.RestDays < plan.RestDays &&
		(last == SessionStrength || last == SessionWalk)
	if needsRest && weekday != time.Monday {
		return SessionRest
	}

	strengthNeeded := progress.StrengthDone < plan.StrengthSessions
	walkNeeded := progress.WalkMinutes < plan.WalkMinutes

	if strengthNeeded && last != SessionStrength {
		return SessionStrength
	}
	if walkNeeded {
		return SessionWalk
	}
	if strengthNeeded {
		return SessionStrength
	}
	return SessionMobility
}

// NextStrengthRotation picks the strength template for the next session in a
// round-robin over the stage's rotation, so consecutive strength sessions in
// a week cycle through distinct content.
func NextStrengthRotation(stage PathwayStage, weekStrengthDone int) string {
	if len(stage.StrengthRotation) == 0 {
		return ""
	}
	return stage.StrengthRotation[weekStrengthDone%len(stage.StrengthRotation)]
}
