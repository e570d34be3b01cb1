package service

import (
	"context"
	"testing"
	"time"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- In-memory fakes ---

type fakeAssignmentRepo struct {
	assignments map[string]*domain.PathwayAssignment
	resetCalls  int
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[string]*domain.PathwayAssignment)}
}

func (r *fakeAssignmentRepo) Create(ctx context.Context, a *domain.PathwayAssignment) (primitive.ObjectID, error) {
	if _, ok := r.assignments[a.UserID]; ok {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	a.ID = primitive.NewObjectID()
	copy := *a
	r.assignments[a.UserID] = &copy
	return a.ID, nil
}

func (r *fakeAssignmentRepo) GetByUserID(ctx context.Context, userID string) (*domain.PathwayAssignment, error) {
	a, ok := r.assignments[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *a
	return &copy, nil
}

func (r *fakeAssignmentRepo) Update(ctx context.Context, a *domain.PathwayAssignment) error {
	stored, ok := r.assignments[a.UserID]
	if !ok {
		return repository.ErrNotFound
	}
	copy := *a
	copy.ID = stored.ID
	r.assignments[a.UserID] = &copy
	return nil
}

func (r *fakeAssignmentRepo) SetStage(ctx context.Context, userID string, stage, days int) error {
	a, ok := r.assignments[userID]
	if !ok {
		return repository.ErrNotFound
	}
	a.PathwayStage = stage
	a.DaysSinceSurgery = days
	return nil
}

func (r *fakeAssignmentRepo) ResetWeek(ctx context.Context, userID string, weekStartDate string) error {
	a, ok := r.assignments[userID]
	if !ok {
		return repository.ErrNotFound
	}
	r.resetCalls++
	a.WeekStartDate = weekStartDate
	a.WeekStrengthSessions = 0
	a.WeekWalkMinutes = 0
	a.WeekRestDays = 0
	return nil
}

func (r *fakeAssignmentRepo) ApplyCompletion(ctx context.Context, userID string, update domain.CompletionUpdate) (*domain.PathwayAssignment, error) {
	a, ok := r.assignments[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a.LastSessionType = update.LastSessionType
	a.LastSessionDate = update.LastSessionDate
	a.WeekStrengthSessions += update.StrengthDelta
	a.WeekWalkMinutes += update.WalkMinutesDelta
	a.WeekRestDays += update.RestDaysDelta
	if update.Snapshot != nil {
		a.RecentSessions = domain.PushRecentSession(a.RecentSessions, *update.Snapshot)
	}
	copy := *a
	return &copy, nil
}

type fakeTemplateRepo struct {
	templates map[string]*domain.SessionTemplate
	exercises map[primitive.ObjectID][]domain.TemplateExercise
	lookups   []string
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{
		templates: make(map[string]*domain.SessionTemplate),
		exercises: make(map[primitive.ObjectID][]domain.TemplateExercise),
	}
}

func (r *fakeTemplateRepo) add(t domain.SessionTemplate, exercises ...domain.TemplateExercise) {
	t.ID = primitive.NewObjectID()
	r.templates[t.TemplateCode] = &t
	r.exercises[t.ID] = exercises
}

func (r *fakeTemplateRepo) GetByCode(ctx context.Context, code string) (*domain.SessionTemplate, error) {
	r.lookups = append(r.lookups, code)
	t, ok := r.templates[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *t
	return &copy, nil
}

func (r *fakeTemplateRepo) GetForStage(ctx context.Context, pathwayID string, stage int, sessionType domain.SessionType) ([]domain.SessionTemplate, error) {
	var out []domain.SessionTemplate
	for _, t := range r.templates {
		if t.PathwayID == pathwayID && t.PathwayStage == stage && (sessionType == "" || t.SessionType == sessionType) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *fakeTemplateRepo) GetExercises(ctx context.Context, templateID primitive.ObjectID) ([]domain.TemplateExercise, error) {
	return r.exercises[templateID], nil
}

func (r *fakeTemplateRepo) SetExerciseVideoKey(ctx context.Context, exerciseID primitive.ObjectID, objectKey string) error {
	return nil
}

func (r *fakeTemplateRepo) Upsert(ctx context.Context, template *domain.SessionTemplate, exercises []domain.TemplateExercise) error {
	r.add(*template, exercises...)
	return nil
}

type fakeFlagRepo struct {
	flags []domain.CoachFlag
}

func (r *fakeFlagRepo) Create(ctx context.Context, flag *domain.CoachFlag) (primitive.ObjectID, error) {
	flag.ID = primitive.NewObjectID()
	r.flags = append(r.flags, *flag)
	return flag.ID, nil
}

func (r *fakeFlagRepo) HasUnresolved(ctx context.Context, userID string, flagType domain.FlagType) (bool, error) {
	for _, f := range r.flags {
		if f.UserID == userID && f.FlagType == flagType && !f.IsResolved {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFlagRepo) HasUnresolvedSevere(ctx context.Context, userID string) (bool, error) {
	for _, f := range r.flags {
		if f.UserID == userID && f.Severity == domain.SeverityRed && !f.IsResolved {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeFlagRepo) GetUnresolvedByUser(ctx context.Context, userID string) ([]domain.CoachFlag, error) {
	var out []domain.CoachFlag
	for _, f := range r.flags {
		if f.UserID == userID && !f.IsResolved {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFlagRepo) GetAllUnresolved(ctx context.Context) ([]domain.CoachFlag, error) {
	var out []domain.CoachFlag
	for _, f := range r.flags {
		if !f.IsResolved {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeFlagRepo) Resolve(ctx context.Context, flagID primitive.ObjectID, resolvedBy, notes string) error {
	for i := range r.flags {
		if r.flags[i].ID == flagID && !r.flags[i].IsResolved {
			now := time.Now()
			r.flags[i].IsResolved = true
			r.flags[i].ResolvedAt = &now
			r.flags[i].ResolvedBy = resolvedBy
			r.flags[i].ResolutionNotes = notes
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSessionLogRepo struct {
	logs []domain.SessionLog
}

func (r *fakeSessionLogRepo) Create(ctx context.Context, l *domain.SessionLog) (primitive.ObjectID, error) {
	l.ID = primitive.NewObjectID()
	r.logs = append(r.logs, *l)
	return l.ID, nil
}

func (r *fakeSessionLogRepo) GetByUserID(ctx context.Context, userID string) ([]domain.SessionLog, error) {
	var out []domain.SessionLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].UserID == userID {
			out = append(out, r.logs[i])
		}
	}
	return out, nil
}

// --- Test fixture ---

type pathwayFixture struct {
	svc            *pathwayService
	assignmentRepo *fakeAssignmentRepo
	templateRepo   *fakeTemplateRepo
	flagRepo       *fakeFlagRepo
	logRepo        *fakeSessionLogRepo
}

func newPathwayFixture(t *testing.T, now time.Time) *pathwayFixture {
	t.Helper()

	assignmentRepo := newFakeAssignmentRepo()
	templateRepo := newFakeTemplateRepo()
	flagRepo := &fakeFlagRepo{}
	logRepo := &fakeSessionLogRepo{}

	svc := NewPathwayService(assignmentRepo, templateRepo, flagRepo, logRepo, nil).(*pathwayService)
	svc.now = func() time.Time { return now }

	return &pathwayFixture{
		svc:            svc,
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		flagRepo:       flagRepo,
		logRepo:        logRepo,
	}
}

func (f *pathwayFixture) setNow(now time.Time) {
	f.svc.now = func() time.Time { return now }
}

// wednesday returns a fixed mid-week reference time.
func wednesday() time.Time {
	return time.Date(2025, 6, 18, 10, 0, 0, 0, time.UTC)
}

func surgeryDaysAgo(now time.Time, days int) *time.Time {
	d := now.AddDate(0, 0, -days)
	return &d
}

// --- Tests ---

func TestCreateAssignment(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	t.Run("derives stage and week from intake", func(t *testing.T) {
		a, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
			SurgeryDate: surgeryDaysAgo(now, 14),
		})
		require.NoError(t, err)

		assert.Equal(t, DefaultPathwayID, a.PathwayID)
		assert.Equal(t, 1, a.PathwayStage)
		assert.Equal(t, 14, a.DaysSinceSurgery)
		assert.Equal(t, "2025-06-16", a.WeekStartDate)
	})

	t.Run("second enrollment is rejected", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{})
		assert.ErrorIs(t, err, ErrAssignmentExists)
	})

	t.Run("missing user ID is invalid", func(t *testing.T) {
		_, err := f.svc.CreateAssignment(ctx, "", AssignmentIntake{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestRefreshStageIfNeeded(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 28),
	})
	require.NoError(t, err)

	a, err := f.svc.RefreshStageIfNeeded(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, a.PathwayStage)

	// The next day crosses the stage boundary and the change persists.
	f.setNow(now.AddDate(0, 0, 1))
	a, err = f.svc.RefreshStageIfNeeded(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.PathwayStage)
	assert.Equal(t, 29, a.DaysSinceSurgery)

	stored, err := f.svc.GetAssignment(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.PathwayStage)
}

func TestGetTodaySession_WeekRollover(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	// Leave stale counters from a previous week.
	a := f.assignmentRepo.assignments["user-1"]
	a.WeekStartDate = "2025-06-09"
	a.WeekStrengthSessions = 2
	a.WeekWalkMinutes = 45
	a.WeekRestDays = 2

	session, err := f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, 1, f.assignmentRepo.resetCalls)
	assert.Equal(t, 0, session.WeekProgress.StrengthDone)
	assert.Equal(t, 0, session.WeekProgress.WalkMinutes)
	assert.Equal(t, "2025-06-16", f.assignmentRepo.assignments["user-1"].WeekStartDate)

	// A second read in the same week must not reset again.
	_, err = f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, f.assignmentRepo.resetCalls)
}

func TestGetTodaySession_StrengthWithTemplate(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	f.templateRepo.add(
		domain.SessionTemplate{
			TemplateCode:       "BC_S1_STRENGTH_A",
			DisplayTitle:       "Strength: Legs & Posture",
			DisplayDescription: "Bodyweight basics.",
			EstimatedMinutes:   15,
			EasierTitle:        "Reduced Sets",
			EasierDescription:  "One set of each movement.",
			MinMinutes:         8,
		},
		domain.TemplateExercise{Name: "Sit-to-stand", Sets: 2, Reps: "8"},
		domain.TemplateExercise{Name: "Wall push-up", Sets: 2, Reps: "8"},
	)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	session, err := f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStrength, session.SessionType)
	assert.Equal(t, "BC_S1_STRENGTH_A", session.TemplateCode)
	assert.Equal(t, "Strength: Legs & Posture", session.DisplayTitle)
	assert.Equal(t, 15, session.EstimatedMinutes)
	assert.Len(t, session.Exercises, 2)
	require.NotNil(t, session.EasierOption)
	assert.Equal(t, 8, session.EasierOption.EstimatedMinutes)
	assert.Equal(t, "Rest instead", session.RestOption.Title)
	assert.False(t, session.ProgressionPaused)
	assert.Equal(t, 2, session.WeekProgress.StrengthTarget)
	assert.Equal(t, 45, session.WeekProgress.WalkTarget)
}

func TestGetTodaySession_MissingTemplateDegrades(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	session, err := f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "BC_S1_STRENGTH_A", session.TemplateCode)
	assert.Nil(t, session.Template)
	assert.Empty(t, session.Exercises)
	assert.Equal(t, "Today's Session", session.DisplayTitle)
	assert.Equal(t, fallbackEstimatedMinutes, session.EstimatedMinutes)
}

func TestGetTodaySession_RestDay(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	// Yesterday was strength and the rest quota is untouched.
	a := f.assignmentRepo.assignments["user-1"]
	a.LastSessionType = domain.SessionStrength

	session, err := f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, domain.SessionRest, session.SessionType)
	assert.Equal(t, "rest", session.TemplateCode)
	assert.Empty(t, session.Exercises)
	assert.Equal(t, 0, session.EstimatedMinutes)
	// Rest carries no catalog content, so no lookup happens.
	assert.Empty(t, f.templateRepo.lookups)
}

func TestGetTodaySession_SevereFlagForcesRest(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	_, err = f.flagRepo.Create(ctx, &domain.CoachFlag{
		UserID:   "user-1",
		FlagType: domain.FlagHighPain,
		Severity: domain.SeverityRed,
	})
	require.NoError(t, err)

	session, err := f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "rest_required", session.TemplateCode)
	assert.Equal(t, domain.SessionRest, session.SessionType)
	assert.True(t, session.ProgressionPaused)
	assert.NotEmpty(t, session.PauseReason)

	// Resolving the flag lifts the gate.
	require.NoError(t, f.flagRepo.Resolve(ctx, f.flagRepo.flags[0].ID, "coach-1", "reviewed"))
	session, err = f.svc.GetTodaySession(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, session.ProgressionPaused)
	assert.NotEqual(t, "rest_required", session.TemplateCode)
}

func TestRecordSessionCompletion_CounterEffects(t *testing.T) {
	ctx := context.Background()
	now := wednesday()

	tests := []struct {
		name         string
		sessionType  domain.SessionType
		duration     int
		wantStrength int
		wantWalk     int
		wantRest     int
	}{
		{"strength adds one session", domain.SessionStrength, 20, 1, 0, 0},
		{"walk adds its minutes", domain.SessionWalk, 30, 0, 30, 0},
		{"rest adds one rest day", domain.SessionRest, 0, 0, 0, 1},
		{"mobility earns no credit", domain.SessionMobility, 10, 0, 0, 0},
		{"skipped earns no credit", domain.SessionSkipped, 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPathwayFixture(t, now)
			_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
				SurgeryDate: surgeryDaysAgo(now, 14),
			})
			require.NoError(t, err)

			updated, err := f.svc.RecordSessionCompletion(ctx, "user-1", tt.sessionType, tt.duration, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStrength, updated.WeekStrengthSessions)
			assert.Equal(t, tt.wantWalk, updated.WeekWalkMinutes)
			assert.Equal(t, tt.wantRest, updated.WeekRestDays)
			assert.Equal(t, tt.sessionType, updated.LastSessionType)
			assert.Equal(t, "2025-06-18", updated.LastSessionDate)
		})
	}
}

func TestRecordSessionCompletion_Validation(t *testing.T) {
	ctx := context.Background()
	f := newPathwayFixture(t, wednesday())

	_, err := f.svc.RecordSessionCompletion(ctx, "user-1", "yoga", 10, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, -5, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, 10, &SessionTelemetry{AverageRPE: 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, 10, &SessionTelemetry{MaxPain: 6})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, 10, &SessionTelemetry{EnergyLevel: 9})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, 10, nil)
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestRecordSessionCompletion_TelemetryHistory(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	var updated *domain.PathwayAssignment
	for i := 0; i < domain.RecentSessionLimit+3; i++ {
		updated, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionWalk, 10+i, &SessionTelemetry{
			TemplateCode: "BC_S1_WALK",
			AverageRPE:   5,
		})
		require.NoError(t, err)
	}

	require.Len(t, updated.RecentSessions, domain.RecentSessionLimit)
	// Newest first: the final completion's duration leads the history.
	assert.Equal(t, 10+domain.RecentSessionLimit+2, updated.RecentSessions[0].DurationMinutes)
	assert.Equal(t, "BC_S1_WALK", updated.RecentSessions[0].TemplateCode)

	// Every completion also lands in the append-only log.
	logs, err := f.svc.GetSessionHistory(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, logs, domain.RecentSessionLimit+3)
}

func TestRecordSessionCompletion_PlannedRest(t *testing.T) {
	ctx := context.Background()
	now := wednesday()
	f := newPathwayFixture(t, now)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(now, 14),
	})
	require.NoError(t, err)

	// Yesterday was strength, so today's prescription is rest.
	f.assignmentRepo.assignments["user-1"].LastSessionType = domain.SessionStrength

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionRest, 0, &SessionTelemetry{RestReason: "tired"})
	require.NoError(t, err)

	require.Len(t, f.logRepo.logs, 1)
	assert.True(t, f.logRepo.logs[0].WasPlannedRest)
	assert.Equal(t, "tired", f.logRepo.logs[0].RestReason)

	// A rest taken when strength was prescribed is an opt-out, not planned.
	f.assignmentRepo.assignments["user-1"].LastSessionType = domain.SessionMobility
	f.assignmentRepo.assignments["user-1"].WeekRestDays = 2

	_, err = f.svc.RecordSessionCompletion(ctx, "user-1", domain.SessionRest, 0, nil)
	require.NoError(t, err)

	require.Len(t, f.logRepo.logs, 2)
	assert.False(t, f.logRepo.logs[1].WasPlannedRest)
}

// TestWeekScenario walks a stage-1 patient through a full week of the
// prescribe/complete loop and checks the sequence the rules produce.
func TestWeekScenario(t *testing.T) {
	ctx := context.Background()
	monday := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	f := newPathwayFixture(t, monday)

	_, err := f.svc.CreateAssignment(ctx, "user-1", AssignmentIntake{
		SurgeryDate: surgeryDaysAgo(monday, 14),
	})
	require.NoError(t, err)

	walkMinutes := map[domain.SessionType]int{
		domain.SessionWalk: 25,
	}

	var got []domain.SessionType
	for day := 0; day < 7; day++ {
		f.setNow(monday.AddDate(0, 0, day))

		session, err := f.svc.GetTodaySession(ctx, "user-1")
		require.NoError(t, err)
		got = append(got, session.SessionType)

		_, err = f.svc.RecordSessionCompletion(ctx, "user-1", session.SessionType, walkMinutes[session.SessionType], nil)
		require.NoError(t, err)
	}

	want := []domain.SessionType{
		domain.SessionStrength, // Mon: strength quota open
		domain.SessionRest,     // Tue: rest after an active day
		domain.SessionStrength, // Wed: quota still open, yesterday was rest
		domain.SessionRest,     // Thu: second enforced rest
		domain.SessionWalk,     // Fri: strength done, walk quota open
		domain.SessionWalk,     // Sat: 25 of 45 minutes walked
		domain.SessionMobility, // Sun: every quota met
	}
	assert.Equal(t, want, got)
}
