package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrAssignmentNotFound = errors.New("pathway assignment not found")
	ErrAssignmentExists   = errors.New("pathway assignment already exists for this user")
	ErrInvalidInput       = errors.New("invalid input")
)

// DefaultPathwayID is the pathway patients are enrolled on when onboarding
// does not name one.
const DefaultPathwayID = "breast_cancer"

const fallbackEstimatedMinutes = 15

// AssignmentIntake carries the onboarding answers used to create or update a
// pathway assignment.
type AssignmentIntake struct {
	PathwayID           string
	CancerType          string
	SurgeryType         string
	AxillarySurgery     string
	SurgeryDate         *time.Time
	CurrentTreatments   []string
	MovementReadiness   string
	ShoulderRestriction bool
	Neuropathy          bool
	FatigueBaseline     string
	RedFlagsChecked     bool
	HasActiveRedFlags   bool
}

// SessionTelemetry is the optional self-report bag attached to a completion.
type SessionTelemetry struct {
	TemplateCode       string
	AverageRPE         int // 1-10, 0 when not reported
	MaxPain            int // 1-5, 0 when not reported
	EnergyLevel        int // 1-5, 0 when not reported
	PainQuality        string
	IsEasyMode         bool
	ExercisesCompleted int
	ExercisesTotal     int
	RestReason         string
	Completed          *bool // nil means completed
	PatientNote        string
}

// WeekProgressView is the done/target snapshot surfaced with today's session.
type WeekProgressView struct {
	StrengthDone   int `json:"strengthDone"`
	StrengthTarget int `json:"strengthTarget"`
	WalkMinutes    int `json:"walkMinutes"`
	WalkTarget     int `json:"walkTarget"`
	RestDays       int `json:"restDays"`
}

// EasierOption is the reduced-intensity variant of a prescribed session.
type EasierOption struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimatedMinutes"`
}

// RestOption is the always-available opt-out to rest.
type RestOption struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TodaySession is the assembled prescription for one patient-day.
type TodaySession struct {
	TemplateCode       string                    `json:"templateCode"`
	Template           *domain.SessionTemplate   `json:"template"`
	Exercises          []domain.TemplateExercise `json:"exercises"`
	DisplayTitle       string                    `json:"displayTitle"`
	DisplayDescription string                    `json:"displayDescription"`
	EstimatedMinutes   int                       `json:"estimatedMinutes"`
	SessionType        domain.SessionType        `json:"sessionType"`
	EasierOption       *EasierOption             `json:"easierOption,omitempty"`
	RestOption         RestOption                `json:"restOption"`
	WeekProgress       WeekProgressView          `json:"weekProgress"`
	ProgressionPaused  bool                      `json:"progressionPaused,omitempty"`
	PauseReason        string                    `json:"pauseReason,omitempty"`
}

// --- Service Interface ---

type PathwayService interface {
	CreateAssignment(ctx context.Context, userID string, intake AssignmentIntake) (*domain.PathwayAssignment, error)
	GetAssignment(ctx context.Context, userID string) (*domain.PathwayAssignment, error)
	UpdateAssignment(ctx context.Context, userID string, intake AssignmentIntake) (*domain.PathwayAssignment, error)

	// RefreshStageIfNeeded recomputes stage and elapsed days from the stored
	// surgery date, persisting when they changed, so stage transitions take
	// effect the day they occur.
	RefreshStageIfNeeded(ctx context.Context, userID string) (*domain.PathwayAssignment, error)

	GetTodaySession(ctx context.Context, userID string) (*TodaySession, error)
	RecordSessionCompletion(ctx context.Context, userID string, sessionType domain.SessionType, durationMinutes int, telemetry *SessionTelemetry) (*domain.PathwayAssignment, error)
	GetSessionHistory(ctx context.Context, userID string) ([]domain.SessionLog, error)

	StageInfo(stage int) domain.PathwayStage
	Stages() []domain.PathwayStage
}

// --- Service Implementation ---

// pathwayService implements the PathwayService interface. Stage rules are
// injected so thresholds and rotation codes are overridable without touching
// the selection logic.
type pathwayService struct {
	assignmentRepo repository.AssignmentRepository
	templateRepo   repository.TemplateRepository
	flagRepo       repository.FlagRepository
	logRepo        repository.SessionLogRepository
	stages         []domain.PathwayStage
	now            func() time.Time
}

// NewPathwayService creates a new instance of pathwayService. Passing nil
// stages selects the production defaults.
func NewPathwayService(
	assignmentRepo repository.AssignmentRepository,
	templateRepo repository.TemplateRepository,
	flagRepo repository.FlagRepository,
	logRepo repository.SessionLogRepository,
	stages []domain.PathwayStage,
) PathwayService {
	if len(stages) == 0 {
		stages = domain.DefaultStages
	}
	return &pathwayService{
		assignmentRepo: assignmentRepo,
		templateRepo:   templateRepo,
		flagRepo:       flagRepo,
		logRepo:        logRepo,
		stages:         stages,
		now:            time.Now,
	}
}

func (s *pathwayService) Stages() []domain.PathwayStage {
	return s.stages
}

func (s *pathwayService) StageInfo(stage int) domain.PathwayStage {
	return domain.StageInfo(s.stages, stage)
}

// === Assignment Lifecycle ===

// CreateAssignment enrolls a patient onto a pathway at onboarding.
func (s *pathwayService) CreateAssignment(ctx context.Context, userID string, intake AssignmentIntake) (*domain.PathwayAssignment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}

	pathwayID := intake.PathwayID
	if pathwayID == "" {
		pathwayID = DefaultPathwayID
	}

	now := s.now()
	assignment := &domain.PathwayAssignment{
		UserID:              userID,
		PathwayID:           pathwayID,
		CancerType:          intake.CancerType,
		SurgeryType:         intake.SurgeryType,
		AxillarySurgery:     intake.AxillarySurgery,
		SurgeryDate:         intake.SurgeryDate,
		CurrentTreatments:   intake.CurrentTreatments,
		MovementReadiness:   intake.MovementReadiness,
		ShoulderRestriction: intake.ShoulderRestriction,
		Neuropathy:          intake.Neuropathy,
		FatigueBaseline:     intake.FatigueBaseline,
		RedFlagsChecked:     intake.RedFlagsChecked,
		HasActiveRedFlags:   intake.HasActiveRedFlags,
		PathwayStage:        domain.CalculateStage(s.stages, intake.SurgeryDate, now),
		DaysSinceSurgery:    domain.DaysSinceSurgery(intake.SurgeryDate, now),
		WeekStartDate:       domain.WeekStart(now),
	}

	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAssignmentExists
		}
		return nil, err
	}
	assignment.ID = id
	return assignment, nil
}

// GetAssignment returns the patient's current assignment.
func (s *pathwayService) GetAssignment(ctx context.Context, userID string) (*domain.PathwayAssignment, error) {
	assignment, err := s.assignmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}
	return assignment, nil
}

// UpdateAssignment rewrites the intake fields, then refreshes the derived
// stage since the surgery date may have changed.
func (s *pathwayService) UpdateAssignment(ctx context.Context, userID string, intake AssignmentIntake) (*domain.PathwayAssignment, error) {
	assignment, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	if intake.PathwayID != "" {
		assignment.PathwayID = intake.PathwayID
	}
	assignment.CancerType = intake.CancerType
	assignment.SurgeryType = intake.SurgeryType
	assignment.AxillarySurgery = intake.AxillarySurgery
	assignment.SurgeryDate = intake.SurgeryDate
	assignment.CurrentTreatments = intake.CurrentTreatments
	assignment.MovementReadiness = intake.MovementReadiness
	assignment.ShoulderRestriction = intake.ShoulderRestriction
	assignment.Neuropathy = intake.Neuropathy
	assignment.FatigueBaseline = intake.FatigueBaseline
	assignment.RedFlagsChecked = intake.RedFlagsChecked
	assignment.HasActiveRedFlags = intake.HasActiveRedFlags

	if err := s.assignmentRepo.Update(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	return s.RefreshStageIfNeeded(ctx, userID)
}

// RefreshStageIfNeeded recomputes and, when changed, persists the stage and
// elapsed-day count derived from the surgery date.
func (s *pathwayService) RefreshStageIfNeeded(ctx context.Context, userID string) (*domain.PathwayAssignment, error) {
	assignment, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stage := domain.CalculateStage(s.stages, assignment.SurgeryDate, now)
	days := domain.DaysSinceSurgery(assignment.SurgeryDate, now)

	if stage != assignment.PathwayStage || days != assignment.DaysSinceSurgery {
		if err := s.assignmentRepo.SetStage(ctx, userID, stage, days); err != nil {
			return nil, err
		}
		assignment.PathwayStage = stage
		assignment.DaysSinceSurgery = days
	}

	return assignment, nil
}

// resetWeeklyCountersIfNeeded reconciles the stored tracking week against the
// real current week, zeroing the counters exactly once on rollover. The
// reconciled state is applied to the in-memory assignment as well.
func (s *pathwayService) resetWeeklyCountersIfNeeded(ctx context.Context, assignment *domain.PathwayAssignment) error {
	currentWeek := domain.WeekStart(s.now())
	if assignment.WeekStartDate == currentWeek {
		return nil
	}

	if err := s.assignmentRepo.ResetWeek(ctx, assignment.UserID, currentWeek); err != nil {
		return err
	}
	assignment.WeekStartDate = currentWeek
	assignment.WeekStrengthSessions = 0
	assignment.WeekWalkMinutes = 0
	assignment.WeekRestDays = 0
	return nil
}

// === Today's Session ===

// GetTodaySession assembles the prescription for today: reconcile stage and
// week, gate on unresolved severe flags, select a session type, and resolve
// it to concrete template content.
func (s *pathwayService) GetTodaySession(ctx context.Context, userID string) (*TodaySession, error) {
	assignment, err := s.RefreshStageIfNeeded(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.resetWeeklyCountersIfNeeded(ctx, assignment); err != nil {
		return nil, err
	}

	stage := s.StageInfo(assignment.PathwayStage)
	progress := WeekProgressView{
		StrengthDone:   assignment.WeekStrengthSessions,
		StrengthTarget: stage.WeeklyPlan.StrengthSessions,
		WalkMinutes:    assignment.WeekWalkMinutes,
		WalkTarget:     stage.WeeklyPlan.WalkMinutes,
		RestDays:       assignment.WeekRestDays,
	}

	// Unresolved severe flags force rest until a coach clears them. The check
	// is advisory: a flag-store error must not block session delivery.
	severe, err := s.flagRepo.HasUnresolvedSevere(ctx, userID)
	if err != nil {
		log.Printf("WARN: severe flag check failed for user %s: %v", userID, err)
		severe = false
	}
	if severe {
		return &TodaySession{
			TemplateCode:       "rest_required",
			Exercises:          []domain.TemplateExercise{},
			DisplayTitle:       "Rest Recommended",
			DisplayDescription: "Based on your recent feedback, we recommend rest today. Your coach has been notified and will check in with you.",
			EstimatedMinutes:   0,
			SessionType:        domain.SessionRest,
			EasierOption: &EasierOption{
				Title:            "Gentle Breathing",
				Description:      "If you feel up to it, some calm breathing exercises",
				EstimatedMinutes: 5,
			},
			RestOption: RestOption{
				Title:       "Rest today",
				Description: "Your body is telling you something important. Rest is the right choice.",
			},
			WeekProgress:      progress,
			ProgressionPaused: true,
			PauseReason:       "Your coach will review your recent session feedback before suggesting more activity.",
		}, nil
	}

	suggested := domain.SuggestSessionType(
		stage,
		domain.WeekProgress{
			StrengthDone: progress.StrengthDone,
			WalkMinutes:  progress.WalkMinutes,
			RestDays:     progress.RestDays,
		},
		assignment.LastSessionType,
		s.now().Weekday(),
	)

	// Rest carries no content; no template lookup happens.
	if suggested == domain.SessionRest {
		return &TodaySession{
			TemplateCode:       "rest",
			Exercises:          []domain.TemplateExercise{},
			DisplayTitle:       "Rest Day",
			DisplayDescription: "Rest is part of recovery. Your body heals and gets stronger during rest.",
			EstimatedMinutes:   0,
			SessionType:        domain.SessionRest,
			RestOption: RestOption{
				Title:       "That's the plan!",
				Description: "Rest well today.",
			},
			WeekProgress: progress,
		}, nil
	}

	var templateCode string
	switch suggested {
	case domain.SessionStrength:
		templateCode = domain.NextStrengthRotation(stage, progress.StrengthDone)
	case domain.SessionWalk:
		templateCode = stage.WalkTemplate
	default:
		templateCode = stage.MobilityTemplate
	}

	template, err := s.templateRepo.GetByCode(ctx, templateCode)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	var exercises []domain.TemplateExercise
	if template != nil {
		exercises, err = s.templateRepo.GetExercises(ctx, template.ID)
		if err != nil {
			return nil, err
		}
	}
	if exercises == nil {
		exercises = []domain.TemplateExercise{}
	}

	// Missing catalog content degrades to a generic session rather than
	// blocking the patient.
	displayTitle := "Today's Session"
	displayDescription := ""
	estimatedMinutes := fallbackEstimatedMinutes
	var easier *EasierOption
	if template != nil {
		if template.DisplayTitle != "" {
			displayTitle = template.DisplayTitle
		} else if template.Name != "" {
			displayTitle = template.Name
		}
		if template.DisplayDescription != "" {
			displayDescription = template.DisplayDescription
		}
		if template.EstimatedMinutes > 0 {
			estimatedMinutes = template.EstimatedMinutes
		}
		if template.EasierTitle != "" {
			easierMinutes := template.MinMinutes
			if easierMinutes == 0 {
				easierMinutes = estimatedMinutes * 7 / 10
			}
			easier = &EasierOption{
				Title:            template.EasierTitle,
				Description:      template.EasierDescription,
				EstimatedMinutes: easierMinutes,
			}
		}
	}

	return &TodaySession{
		TemplateCode:       templateCode,
		Template:           template,
		Exercises:          exercises,
		DisplayTitle:       displayTitle,
		DisplayDescription: displayDescription,
		EstimatedMinutes:   estimatedMinutes,
		SessionType:        suggested,
		EasierOption:       easier,
		RestOption: RestOption{
			Title:       "Rest instead",
			Description: "If you need rest today, that's perfectly okay. Rest is recovery.",
		},
		WeekProgress: progress,
	}, nil
}

// === Completion Recording ===

func validateCompletion(sessionType domain.SessionType, durationMinutes int, telemetry *SessionTelemetry) error {
	if !domain.KnownSessionType(sessionType) {
		return fmt.Errorf("%w: unknown session type %q", ErrInvalidInput, sessionType)
	}
	if durationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	}
	if telemetry == nil {
		return nil
	}
	if telemetry.AverageRPE != 0 && (telemetry.AverageRPE < 1 || telemetry.AverageRPE > 10) {
		return fmt.Errorf("%w: averageRPE must be between 1 and 10", ErrInvalidInput)
	}
	if telemetry.MaxPain != 0 && (telemetry.MaxPain < 1 || telemetry.MaxPain > 5) {
		return fmt.Errorf("%w: maxPain must be between 1 and 5", ErrInvalidInput)
	}
	if telemetry.EnergyLevel != 0 && (telemetry.EnergyLevel < 1 || telemetry.EnergyLevel > 5) {
		return fmt.Errorf("%w: energyLevel must be between 1 and 5", ErrInvalidInput)
	}
	return nil
}

// RecordSessionCompletion updates last-session tracking, increments exactly
// one weekly counter for the session type, and captures telemetry into the
// capped history. The whole effect is one atomic repository update.
func (s *pathwayService) RecordSessionCompletion(ctx context.Context, userID string, sessionType domain.SessionType, durationMinutes int, telemetry *SessionTelemetry) (*domain.PathwayAssignment, error) {
	if err := validateCompletion(sessionType, durationMinutes, telemetry); err != nil {
		return nil, err
	}

	before, err := s.GetAssignment(ctx, userID)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(domain.WeekDateLayout)
	update := domain.CompletionUpdateFor(sessionType, durationMinutes, today)

	if telemetry != nil {
		completed := true
		if telemetry.Completed != nil {
			completed = *telemetry.Completed
		}
		update.Snapshot = &domain.SessionSnapshot{
			Date:            today,
			TemplateCode:    telemetry.TemplateCode,
			SessionType:     sessionType,
			DurationMinutes: durationMinutes,
			AverageRPE:      telemetry.AverageRPE,
			MaxPain:         telemetry.MaxPain,
			IsEasyMode:      telemetry.IsEasyMode,
			Completed:       completed,
			RestReason:      telemetry.RestReason,
		}
	}

	updated, err := s.assignmentRepo.ApplyCompletion(ctx, userID, update)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	// Persist an append-only record for coach visibility. Session logs are
	// advisory; a failed write must not fail the completion.
	s.writeSessionLog(ctx, before, sessionType, durationMinutes, today, telemetry)

	return updated, nil
}

func (s *pathwayService) writeSessionLog(ctx context.Context, before *domain.PathwayAssignment, sessionType domain.SessionType, durationMinutes int, today string, telemetry *SessionTelemetry) {
	entry := &domain.SessionLog{
		UserID:          before.UserID,
		AssignmentID:    before.ID,
		SessionType:     sessionType,
		SessionDate:     today,
		DurationMinutes: durationMinutes,
		Completed:       true,
	}

	if sessionType == domain.SessionRest {
		entry.WasPlannedRest = s.wasPlannedRest(before)
	}

	if telemetry != nil {
		entry.TemplateCode = telemetry.TemplateCode
		entry.EnergyLevel = telemetry.EnergyLevel
		entry.PainLevel = telemetry.MaxPain
		entry.PainQuality = telemetry.PainQuality
		entry.AverageRPE = telemetry.AverageRPE
		entry.RestReason = telemetry.RestReason
		entry.ExercisesCompleted = telemetry.ExercisesCompleted
		entry.ExercisesTotal = telemetry.ExercisesTotal
		entry.IsEasyMode = telemetry.IsEasyMode
		entry.PatientNote = telemetry.PatientNote
		if telemetry.Completed != nil {
			entry.Completed = *telemetry.Completed
		}
	}

	if _, err := s.logRepo.Create(ctx, entry); err != nil {
		log.Printf("WARN: failed to write session log for user %s: %v", before.UserID, err)
	}
}

// wasPlannedRest reports whether the engine would have prescribed rest today
// given the pre-completion state, so coaches can tell planned rest apart from
// an opt-out.
func (s *pathwayService) wasPlannedRest(assignment *domain.PathwayAssignment) bool {
	stage := s.StageInfo(assignment.PathwayStage)
	suggested := domain.SuggestSessionType(
		stage,
		domain.WeekProgress{
			StrengthDone: assignment.WeekStrengthSessions,
			WalkMinutes:  assignment.WeekWalkMinutes,
			RestDays:     assignment.WeekRestDays,
		},
		assignment.LastSessionType,
		s.now().Weekday(),
	)
	return suggested == domain.SessionRest
}

// GetSessionHistory lists a patient's recorded sessions, newest first.
func (s *pathwayService) GetSessionHistory(ctx context.Context, userID string) ([]domain.SessionLog, error) {
	return s.logRepo.GetByUserID(ctx, userID)
}
