package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestCalculateStage(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name        string
		surgeryDate *time.Time
		want        int
	}{
		{"no surgery date defaults to foundations", nil, 1},
		{"future surgery date defaults to foundations", datePtr(now.AddDate(0, 0, 3)), 1},
		{"day of surgery", datePtr(now), 0},
		{"day 6 is still very early", datePtr(now.AddDate(0, 0, -6)), 0},
		{"day 7 enters foundations", datePtr(now.AddDate(0, 0, -7)), 1},
		{"day 28 is still foundations", datePtr(now.AddDate(0, 0, -28)), 1},
		{"day 29 enters building confidence", datePtr(now.AddDate(0, 0, -29)), 2},
		{"far past surgery stays in final stage", datePtr(now.AddDate(-2, 0, 0)), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStage(DefaultStages, tt.surgeryDate, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDaysSinceSurgery(t *testing.T) {
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysSinceSurgery(nil, now))
	assert.Equal(t, 0, DaysSinceSurgery(datePtr(now.AddDate(0, 0, 5)), now), "future date clamps to zero")
	assert.Equal(t, 10, DaysSinceSurgery(datePtr(now.AddDate(0, 0, -10)), now))
}

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want string
	}{
		{"monday maps to itself", time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC), "2025-06-16"},
		{"wednesday maps back to monday", time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC), "2025-06-16"},
		{"sunday maps back to previous monday", time.Date(2025, 6, 22, 23, 0, 0, 0, time.UTC), "2025-06-16"},
		{"next monday starts a new week", time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC), "2025-06-23"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStart(tt.day))
		})
	}
}

func stageByNumber(t *testing.T, n int) PathwayStage {
	t.Helper()
	for _, s := range DefaultStages {
		if s.Stage == n {
			return s
		}
	}
	t.Fatalf("stage %d not in default configuration", n)
	return PathwayStage{}
}

func TestSuggestSessionType_StageZero(t *testing.T) {
	stage := stageByNumber(t, 0)

	t.Run("weekends are rest regardless of progress", func(t *testing.T) {
		assert.Equal(t, SessionRest, SuggestSessionType(stage, WeekProgress{}, "", time.Saturday))
		assert.Equal(t, SessionRest, SuggestSessionType(stage, WeekProgress{}, "", time.Sunday))
	})

	t.Run("walks until the weekly minutes are met", func(t *testing.T) {
		assert.Equal(t, SessionWalk, SuggestSessionType(stage, WeekProgress{WalkMinutes: 19}, "", time.Tuesday))
		assert.Equal(t, SessionMobility, SuggestSessionType(stage, WeekProgress{WalkMinutes: 20}, "", time.Tuesday))
	})

	t.Run("never prescribes strength on any weekday", func(t *testing.T) {
		weekdays := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
		for _, wd := range weekdays {
			got := SuggestSessionType(stage, WeekProgress{}, "", wd)
			assert.NotEqual(t, SessionStrength, got, "weekday %v", wd)
		}
	})
}

func TestSuggestSessionType_RestEnforcement(t *testing.T) {
	stage := stageByNumber(t, 1)

	t.Run("rest follows an active day while quota unmet", func(t *testing.T) {
		got := SuggestSessionType(stage, WeekProgress{RestDays: 0}, SessionStrength, time.Wednesday)
		assert.Equal(t, SessionRest, got)

		got = SuggestSessionType(stage, WeekProgress{RestDays: 1}, SessionWalk, time.Thursday)
		assert.Equal(t, SessionRest, got)
	})

	t.Run("rest quota met lifts the enforcement", func(t *testing.T) {
		got := SuggestSessionType(stage, WeekProgress{RestDays: 2}, SessionStrength, time.Wednesday)
		assert.NotEqual(t, SessionRest, got)
	})

	t.Run("mobility yesterday does not force rest", func(t *testing.T) {
		got := SuggestSessionType(stage, WeekProgress{}, SessionMobility, time.Wednesday)
		assert.Equal(t, SessionStrength, got)
	})

	t.Run("monday is exempt so weeks never open with forced rest", func(t *testing.T) {
		got := SuggestSessionType(stage, WeekProgress{RestDays: 0}, SessionWalk, time.Monday)
		assert.Equal(t, SessionStrength, got)
	})
}

func TestSuggestSessionType_QuotaOrdering(t *testing.T) {
	stage := stageByNumber(t, 1)
	// Rest quota satisfied in all cases so the active rules are isolated.
	base := WeekProgress{RestDays: 2}

	t.Run("strength preferred when quota unmet and not repeating", func(t *testing.T) {
		p := base
		got := SuggestSessionType(stage, p, SessionWalk, time.Monday)
		assert.Equal(t, SessionStrength, got)
	})

	t.Run("walk when yesterday was strength", func(t *testing.T) {
		p := base
		got := SuggestSessionType(stage, p, SessionStrength, time.Monday)
		assert.Equal(t, SessionWalk, got)
	})

	t.Run("back-to-back strength when only strength remains", func(t *testing.T) {
		p := base
		p.WalkMinutes = 45
		got := SuggestSessionType(stage, p, SessionStrength, time.Monday)
		assert.Equal(t, SessionStrength, got)
	})

	t.Run("mobility fills once every quota is met", func(t *testing.T) {
		p := base
		p.StrengthDone = 2
		p.WalkMinutes = 45
		got := SuggestSessionType(stage, p, SessionMobility, time.Tuesday)
		assert.Equal(t, SessionMobility, got)
	})
}

func TestNextStrengthRotation(t *testing.T) {
	stage := stageByNumber(t, 1)
	require.Len(t, stage.StrengthRotation, 3)

	assert.Equal(t, "BC_S1_STRENGTH_A", NextStrengthRotation(stage, 0))
	assert.Equal(t, "BC_S1_STRENGTH_B", NextStrengthRotation(stage, 1))
	assert.Equal(t, "BC_S1_STRENGTH_C", NextStrengthRotation(stage, 2))
	// The rotation wraps with period three.
	assert.Equal(t, "BC_S1_STRENGTH_A", NextStrengthRotation(stage, 3))
	assert.Equal(t, "BC_S1_STRENGTH_B", NextStrengthRotation(stage, 4))

	noRotation := stageByNumber(t, 0)
	assert.Equal(t, "", NextStrengthRotation(noRotation, 0))
}

func TestKnownSessionType(t *testing.T) {
	for _, st := range []SessionType{SessionStrength, SessionWalk, SessionMobility, SessionRest, SessionSkipped} {
		assert.True(t, KnownSessionType(st), string(st))
	}
	assert.False(t, KnownSessionType("yoga"))
	assert.False(t, KnownSessionType(""))
}
