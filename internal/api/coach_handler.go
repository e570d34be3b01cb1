package api

import (
	"errors"
	"fmt"
	"net/http"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler serves the specialist-facing review endpoints.
type CoachHandler struct {
	pathwayService service.PathwayService
	flagService    service.FlagService
	contentService service.ContentService
}

func NewCoachHandler(pathwayService service.PathwayService, flagService service.FlagService, contentService service.ContentService) *CoachHandler {
	return &CoachHandler{
		pathwayService: pathwayService,
		flagService:    flagService,
		contentService: contentService,
	}
}

// --- DTOs ---

type ResolveFlagRequest struct {
	Notes string `json:"notes"`
}

type VideoUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// --- Handler Methods ---

// GetAllFlags lists unresolved flags across every patient, newest first.
func (h *CoachHandler) GetAllFlags(c *gin.Context) {
	flags, err := h.flagService.GetAllUnresolvedFlags(c.Request.Context())
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve flags.")
		return
	}
	if flags == nil {
		c.JSON(http.StatusOK, []domain.CoachFlag{})
		return
	}
	c.JSON(http.StatusOK, flags)
}

// ResolveFlag marks a flag reviewed. Resolving the last severe flag lifts the
// patient's forced-rest gate.
func (h *CoachHandler) ResolveFlag(c *gin.Context) {
	coachID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify specialist.")
		return
	}

	flagID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid flag ID format.")
		return
	}

	// Notes are optional; an empty body is fine.
	var req ResolveFlagRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.flagService.ResolveFlag(c.Request.Context(), flagID, coachID, req.Notes); err != nil {
		if errors.Is(err, service.ErrFlagNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to resolve flag.")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Flag resolved"})
}

// GetPatientSessions lists a patient's session history for review.
func (h *CoachHandler) GetPatientSessions(c *gin.Context) {
	patientID := c.Param("patientId")
	if patientID == "" {
		abortWithError(c, http.StatusBadRequest, "Patient ID is required.")
		return
	}

	logs, err := h.pathwayService.GetSessionHistory(c.Request.Context(), patientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve patient sessions.")
		return
	}
	if logs == nil {
		c.JSON(http.StatusOK, []domain.SessionLog{})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// RequestVideoUpload issues a presigned URL for uploading an exercise
// demonstration video.
func (h *CoachHandler) RequestVideoUpload(c *gin.Context) {
	templateCode := c.Param("code")

	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}

	var req VideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.contentService.RequestExerciseVideoUploadURL(c.Request.Context(), templateCode, exerciseID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) || errors.Is(err, service.ErrExerciseNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else if errors.Is(err, service.ErrInvalidInput) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL.")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}
