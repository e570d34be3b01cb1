package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrFlagNotFound = errors.New("coach flag not found")
)

// Safety thresholds for self-reported check-in signals.
const (
	lowEnergyThreshold = 2 // 1-5 scale, at or below raises a flag
	highPainThreshold  = 4 // 1-5 scale, at or above raises a flag
	highRPEThreshold   = 8 // 1-10 scale, at or above raises a flag
	severeRPEThreshold = 9 // red instead of amber
)

// --- Service Interface ---

type FlagService interface {
	// CheckAndCreateFlags evaluates a check-in's energy and pain signals.
	// Low-energy flags de-duplicate against an existing open flag; high-pain
	// flags are created unconditionally so every incident is visible.
	CheckAndCreateFlags(ctx context.Context, userID string, energyLevel, painLevel int, painLocation string) error

	// CheckHighRPEFlag raises a de-duplicated flag for sustained high
	// perceived exertion.
	CheckHighRPEFlag(ctx context.Context, userID string, averageRPE int, templateCode string) error

	// CheckPainQualityFlag raises a red flag when pain is described as sharp
	// or worrying, pausing progression until a coach reviews.
	CheckPainQualityFlag(ctx context.Context, userID string, painQuality string, painLevel int, painLocation string) error

	GetUnresolvedFlags(ctx context.Context, userID string) ([]domain.CoachFlag, error)
	GetAllUnresolvedFlags(ctx context.Context) ([]domain.CoachFlag, error)
	ResolveFlag(ctx context.Context, flagID primitive.ObjectID, resolvedBy, notes string) error
}

// --- Service Implementation ---

type flagService struct {
	flagRepo repository.FlagRepository
	now      func() time.Time
}

// NewFlagService creates a new instance of flagService.
func NewFlagService(flagRepo repository.FlagRepository) FlagService {
	return &flagService{
		flagRepo: flagRepo,
		now:      time.Now,
	}
}

func (s *flagService) CheckAndCreateFlags(ctx context.Context, userID string, energyLevel, painLevel int, painLocation string) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	// Zero means the signal was not reported.
	if energyLevel != 0 && (energyLevel < 1 || energyLevel > 5) {
		return fmt.Errorf("%w: energy level must be between 1 and 5", ErrInvalidInput)
	}
	if painLevel != 0 && (painLevel < 1 || painLevel > 5) {
		return fmt.Errorf("%w: pain level must be between 1 and 5", ErrInvalidInput)
	}

	if energyLevel >= 1 && energyLevel <= lowEnergyThreshold {
		open, err := s.flagRepo.HasUnresolved(ctx, userID, domain.FlagLowEnergyStreak)
		if err != nil {
			return err
		}
		// Only one open low-energy flag per patient; repeated low-energy
		// check-ins must not spam the coach while one is unresolved.
		if !open {
			flag := &domain.CoachFlag{
				UserID:      userID,
				FlagType:    domain.FlagLowEnergyStreak,
				Severity:    domain.SeverityAmber,
				Title:       "Low energy reported",
				Description: fmt.Sprintf("Patient reported energy level %d/5", energyLevel),
				TriggerData: map[string]any{
					"energyLevel": energyLevel,
					"date":        s.now().UTC().Format(time.RFC3339),
				},
			}
			if _, err := s.flagRepo.Create(ctx, flag); err != nil {
				return err
			}
		}
	}

	if painLevel >= highPainThreshold {
		description := fmt.Sprintf("Pain level %d/5", painLevel)
		if painLocation != "" {
			description += " at " + painLocation
		}
		flag := &domain.CoachFlag{
			UserID:      userID,
			FlagType:    domain.FlagHighPain,
			Severity:    domain.SeverityRed,
			Title:       "High pain reported",
			Description: description,
			TriggerData: map[string]any{
				"painLevel":    painLevel,
				"painLocation": painLocation,
				"date":         s.now().UTC().Format(time.RFC3339),
			},
		}
		if _, err := s.flagRepo.Create(ctx, flag); err != nil {
			return err
		}
	}

	return nil
}

func (s *flagService) CheckHighRPEFlag(ctx context.Context, userID string, averageRPE int, templateCode string) error {
	if averageRPE < 1 || averageRPE > 10 {
		return fmt.Errorf("%w: average RPE must be between 1 and 10", ErrInvalidInput)
	}
	if averageRPE < highRPEThreshold {
		return nil
	}

	open, err := s.flagRepo.HasUnresolved(ctx, userID, domain.FlagHighRPE)
	if err != nil {
		return err
	}
	if open {
		return nil
	}

	severity := domain.SeverityAmber
	if averageRPE >= severeRPEThreshold {
		severity = domain.SeverityRed
	}
	flag := &domain.CoachFlag{
		UserID:      userID,
		FlagType:    domain.FlagHighRPE,
		Severity:    severity,
		Title:       "High perceived exertion",
		Description: fmt.Sprintf("Patient reported average RPE of %d/10", averageRPE),
		TriggerData: map[string]any{
			"averageRPE":   averageRPE,
			"templateCode": templateCode,
			"date":         s.now().UTC().Format(time.RFC3339),
		},
	}
	_, err = s.flagRepo.Create(ctx, flag)
	return err
}

func (s *flagService) CheckPainQualityFlag(ctx context.Context, userID string, painQuality string, painLevel int, painLocation string) error {
	if painQuality != "sharp" && painQuality != "worrying" {
		return nil
	}

	open, err := s.flagRepo.HasUnresolved(ctx, userID, domain.FlagPainQualityAlert)
	if err != nil {
		return err
	}
	if open {
		return nil
	}

	description := fmt.Sprintf("Patient described pain as %q", painQuality)
	if painLevel > 0 {
		description += fmt.Sprintf(" (%d/5)", painLevel)
	}
	if painLocation != "" {
		description += " at " + painLocation
	}
	description += ". Requires coach review before resuming."

	flag := &domain.CoachFlag{
		UserID:      userID,
		FlagType:    domain.FlagPainQualityAlert,
		Severity:    domain.SeverityRed,
		Title:       titleCase(painQuality) + " pain reported - progression paused",
		Description: description,
		TriggerData: map[string]any{
			"painQuality":  painQuality,
			"painLevel":    painLevel,
			"painLocation": painLocation,
			"date":         s.now().UTC().Format(time.RFC3339),
		},
	}
	_, err = s.flagRepo.Create(ctx, flag)
	return err
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (s *flagService) GetUnresolvedFlags(ctx context.Context, userID string) ([]domain.CoachFlag, error) {
	return s.flagRepo.GetUnresolvedByUser(ctx, userID)
}

func (s *flagService) GetAllUnresolvedFlags(ctx context.Context) ([]domain.CoachFlag, error) {
	return s.flagRepo.GetAllUnresolved(ctx)
}

func (s *flagService) ResolveFlag(ctx context.Context, flagID primitive.ObjectID, resolvedBy, notes string) error {
	err := s.flagRepo.Resolve(ctx, flagID, resolvedBy, notes)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrFlagNotFound
		}
		return err
	}
	return nil
}
