package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/repository"
	"oncomove/pathway-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrTemplateNotFound = errors.New("session template not found")
	ErrExerciseNotFound = errors.New("template exercise not found")
	ErrUploadURLError   = errors.New("failed to generate upload URL")
)

// ExerciseContent is a template exercise with its demonstration-video URL
// resolved, when one has been uploaded.
type ExerciseContent struct {
	domain.TemplateExercise
	VideoURL string `json:"videoUrl,omitempty"`
}

// TemplateDetails bundles a template with its ordered exercise content.
type TemplateDetails struct {
	Template  domain.SessionTemplate `json:"template"`
	Exercises []ExerciseContent      `json:"exercises"`
}

// UploadURLResponse carries a pre-signed upload URL and the object key the
// uploaded video will live under.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

// --- Service Interface ---

type ContentService interface {
	GetTemplateByCode(ctx context.Context, templateCode string) (*TemplateDetails, error)
	ListTemplates(ctx context.Context, pathwayID string, stage int, sessionType domain.SessionType) ([]domain.SessionTemplate, error)

	// RequestExerciseVideoUploadURL returns a pre-signed URL a specialist can
	// PUT a demonstration video to, and records the object key against the
	// exercise.
	RequestExerciseVideoUploadURL(ctx context.Context, templateCode string, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
}

// --- Service Implementation ---

type contentService struct {
	templateRepo repository.TemplateRepository
	fileStorage  storage.FileStorage
}

// NewContentService creates a new instance of contentService.
func NewContentService(templateRepo repository.TemplateRepository, fileStorage storage.FileStorage) ContentService {
	return &contentService{
		templateRepo: templateRepo,
		fileStorage:  fileStorage,
	}
}

// GetTemplateByCode returns a template with its ordered exercises, resolving
// demonstration-video keys to temporary download URLs.
func (s *contentService) GetTemplateByCode(ctx context.Context, templateCode string) (*TemplateDetails, error) {
	template, err := s.templateRepo.GetByCode(ctx, templateCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	exercises, err := s.templateRepo.GetExercises(ctx, template.ID)
	if err != nil {
		return nil, err
	}

	content := make([]ExerciseContent, 0, len(exercises))
	for _, ex := range exercises {
		item := ExerciseContent{TemplateExercise: ex}
		if ex.VideoObjectKey != "" {
			url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, ex.VideoObjectKey, storage.DefaultPresignedURLExpiry)
			if err != nil {
				// Video links are a nicety; content still ships without them.
				log.Printf("WARN: presign download failed for exercise %s: %v", ex.ID.Hex(), err)
			} else {
				item.VideoURL = url
			}
		}
		content = append(content, item)
	}

	return &TemplateDetails{
		Template:  *template,
		Exercises: content,
	}, nil
}

// ListTemplates lists active catalog entries for a pathway stage.
func (s *contentService) ListTemplates(ctx context.Context, pathwayID string, stage int, sessionType domain.SessionType) ([]domain.SessionTemplate, error) {
	if pathwayID == "" {
		pathwayID = DefaultPathwayID
	}
	return s.templateRepo.GetForStage(ctx, pathwayID, stage, sessionType)
}

func (s *contentService) RequestExerciseVideoUploadURL(ctx context.Context, templateCode string, exerciseID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if exerciseID == primitive.NilObjectID {
		return nil, fmt.Errorf("%w: exercise ID is required", ErrInvalidInput)
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return nil, fmt.Errorf("%w: content type must be a video type", ErrInvalidInput)
	}

	template, err := s.templateRepo.GetByCode(ctx, templateCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, err
	}

	// The exercise must belong to the named template.
	exercises, err := s.templateRepo.GetExercises(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	found := false
	for _, ex := range exercises {
		if ex.ID == exerciseID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrExerciseNotFound
	}

	ext := ""
	if parts := strings.Split(contentType, "/"); len(parts) == 2 {
		ext = parts[1]
	}
	objectKey := path.Join("exercise-videos", templateCode, fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	if err := s.templateRepo.SetExerciseVideoKey(ctx, exerciseID, objectKey); err != nil {
		return nil, err
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}
