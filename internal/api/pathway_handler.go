package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/service"

	"github.com/gin-gonic/gin"
)

// PathwayHandler serves the patient-facing pathway endpoints.
type PathwayHandler struct {
	pathwayService service.PathwayService
	flagService    service.FlagService
	contentService service.ContentService
}

func NewPathwayHandler(pathwayService service.PathwayService, flagService service.FlagService, contentService service.ContentService) *PathwayHandler {
	return &PathwayHandler{
		pathwayService: pathwayService,
		flagService:    flagService,
		contentService: contentService,
	}
}

// --- DTOs ---

// AssignmentRequest carries onboarding intake answers. SurgeryDate accepts
// either a plain date ("2006-01-02") or RFC3339.
type AssignmentRequest struct {
	PathwayID           string   `json:"pathwayId"`
	CancerType          string   `json:"cancerType"`
	SurgeryType         string   `json:"surgeryType"`
	AxillarySurgery     string   `json:"axillarySurgery"`
	SurgeryDate         string   `json:"surgeryDate"`
	CurrentTreatments   []string `json:"currentTreatments"`
	MovementReadiness   string   `json:"movementReadiness"`
	ShoulderRestriction bool     `json:"shoulderRestriction"`
	Neuropathy          bool     `json:"neuropathy"`
	FatigueBaseline     string   `json:"fatigueBaseline"`
	RedFlagsChecked     bool     `json:"redFlagsChecked"`
	HasActiveRedFlags   bool     `json:"hasActiveRedFlags"`
}

type AssignmentResponse struct {
	HasPathway bool                      `json:"hasPathway"`
	Assignment *domain.PathwayAssignment `json:"assignment,omitempty"`
}

type CompleteSessionRequest struct {
	SessionType        string `json:"sessionType" binding:"required,oneof=strength walk mobility rest skipped"`
	DurationMinutes    int    `json:"durationMinutes" binding:"omitempty,min=0"`
	TemplateCode       string `json:"templateCode"`
	AverageRPE         int    `json:"averageRPE" binding:"omitempty,min=1,max=10"`
	MaxPain            int    `json:"maxPain" binding:"omitempty,min=1,max=5"`
	EnergyLevel        int    `json:"energyLevel" binding:"omitempty,min=1,max=5"`
	PainQuality        string `json:"painQuality"`
	PainLocation       string `json:"painLocation"`
	IsEasyMode         bool   `json:"isEasyMode"`
	ExercisesCompleted int    `json:"exercisesCompleted"`
	ExercisesTotal     int    `json:"exercisesTotal"`
	RestReason         string `json:"restReason"`
	Completed          *bool  `json:"completed"`
	PatientNote        string `json:"patientNote"`
}

type CompleteSessionResponse struct {
	Message    string                    `json:"message"`
	Assignment *domain.PathwayAssignment `json:"assignment"`
}

func (r *AssignmentRequest) toIntake() (service.AssignmentIntake, error) {
	intake := service.AssignmentIntake{
		PathwayID:           r.PathwayID,
		CancerType:          r.CancerType,
		SurgeryType:         r.SurgeryType,
		AxillarySurgery:     r.AxillarySurgery,
		CurrentTreatments:   r.CurrentTreatments,
		MovementReadiness:   r.MovementReadiness,
		ShoulderRestriction: r.ShoulderRestriction,
		Neuropathy:          r.Neuropathy,
		FatigueBaseline:     r.FatigueBaseline,
		RedFlagsChecked:     r.RedFlagsChecked,
		HasActiveRedFlags:   r.HasActiveRedFlags,
	}
	if r.SurgeryDate != "" {
		parsed, err := time.Parse(domain.WeekDateLayout, r.SurgeryDate)
		if err != nil {
			parsed, err = time.Parse(time.RFC3339, r.SurgeryDate)
			if err != nil {
				return intake, fmt.Errorf("invalid surgeryDate %q", r.SurgeryDate)
			}
		}
		intake.SurgeryDate = &parsed
	}
	return intake, nil
}

// --- Handler Methods ---

// GetAssignment returns the authenticated patient's pathway assignment.
// Patients without one get hasPathway=false rather than a 404 so the app can
// route them to onboarding.
func (h *PathwayHandler) GetAssignment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	assignment, err := h.pathwayService.RefreshStageIfNeeded(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			c.JSON(http.StatusOK, AssignmentResponse{HasPathway: false})
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve pathway assignment.")
		return
	}

	c.JSON(http.StatusOK, AssignmentResponse{HasPathway: true, Assignment: assignment})
}

// CreateAssignment enrolls the patient onto a pathway from onboarding answers.
func (h *PathwayHandler) CreateAssignment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	intake, err := req.toIntake()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.pathwayService.CreateAssignment(c.Request.Context(), userID, intake)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentExists) {
			abortWithError(c, http.StatusConflict, err.Error())
		} else if errors.Is(err, service.ErrInvalidInput) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create pathway assignment.")
		}
		return
	}

	c.JSON(http.StatusCreated, AssignmentResponse{HasPathway: true, Assignment: assignment})
}

// UpdateAssignment rewrites the intake answers and refreshes the derived stage.
func (h *PathwayHandler) UpdateAssignment(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	var req AssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	intake, err := req.toIntake()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.pathwayService.UpdateAssignment(c.Request.Context(), userID, intake)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update pathway assignment.")
		}
		return
	}

	c.JSON(http.StatusOK, AssignmentResponse{HasPathway: true, Assignment: assignment})
}

// GetTodaySession assembles and returns today's prescribed session. An
// optional ?energy= query feeds the check-in flag flow; it never influences
// session selection.
func (h *PathwayHandler) GetTodaySession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	if energyStr := c.Query("energy"); energyStr != "" {
		if energy, convErr := strconv.Atoi(energyStr); convErr == nil && energy >= 1 && energy <= 5 {
			if flagErr := h.flagService.CheckAndCreateFlags(c.Request.Context(), userID, energy, 0, ""); flagErr != nil {
				log.Printf("WARN: energy check-in flag check failed for user %s: %v", userID, flagErr)
			}
		}
	}

	session, err := h.pathwayService.GetTodaySession(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, "No pathway assignment found. Complete onboarding first.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load today's session.")
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

// CompleteSession records a finished (or skipped) session, updates the weekly
// counters, and runs the safety flag checks on the reported telemetry.
func (h *PathwayHandler) CompleteSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	var req CompleteSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sessionType := domain.SessionType(req.SessionType)
	telemetry := &service.SessionTelemetry{
		TemplateCode:       req.TemplateCode,
		AverageRPE:         req.AverageRPE,
		MaxPain:            req.MaxPain,
		EnergyLevel:        req.EnergyLevel,
		PainQuality:        req.PainQuality,
		IsEasyMode:         req.IsEasyMode,
		ExercisesCompleted: req.ExercisesCompleted,
		ExercisesTotal:     req.ExercisesTotal,
		RestReason:         req.RestReason,
		Completed:          req.Completed,
		PatientNote:        req.PatientNote,
	}

	assignment, err := h.pathwayService.RecordSessionCompletion(c.Request.Context(), userID, sessionType, req.DurationMinutes, telemetry)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			abortWithError(c, http.StatusNotFound, "No pathway assignment found.")
		} else if errors.Is(err, service.ErrInvalidInput) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to record session.")
		}
		return
	}

	// Flag checks are advisory; failures are logged, never surfaced.
	ctx := c.Request.Context()
	if req.EnergyLevel > 0 || req.MaxPain > 0 {
		if err := h.flagService.CheckAndCreateFlags(ctx, userID, req.EnergyLevel, req.MaxPain, req.PainLocation); err != nil {
			log.Printf("WARN: flag check failed for user %s: %v", userID, err)
		}
	}
	if req.AverageRPE > 0 {
		if err := h.flagService.CheckHighRPEFlag(ctx, userID, req.AverageRPE, req.TemplateCode); err != nil {
			log.Printf("WARN: RPE flag check failed for user %s: %v", userID, err)
		}
	}
	if req.PainQuality != "" {
		if err := h.flagService.CheckPainQualityFlag(ctx, userID, req.PainQuality, req.MaxPain, req.PainLocation); err != nil {
			log.Printf("WARN: pain quality flag check failed for user %s: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, CompleteSessionResponse{
		Message:    completionMessage(sessionType),
		Assignment: assignment,
	})
}

func completionMessage(sessionType domain.SessionType) string {
	switch sessionType {
	case domain.SessionRest:
		return "Rest logged. Recovery is part of the plan."
	case domain.SessionSkipped:
		return "No problem. Tomorrow is a fresh start."
	case domain.SessionStrength:
		return "Strength session complete. Well done!"
	case domain.SessionWalk:
		return "Walk recorded. Every minute counts."
	default:
		return "Session recorded. Keep it up!"
	}
}

// GetSessionHistory lists the patient's recorded sessions, newest first.
func (h *PathwayHandler) GetSessionHistory(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	logs, err := h.pathwayService.GetSessionHistory(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve session history.")
		return
	}
	if logs == nil {
		c.JSON(http.StatusOK, []domain.SessionLog{})
		return
	}
	c.JSON(http.StatusOK, logs)
}

// GetTemplate returns one session template with its exercises and any
// presigned video URLs.
func (h *PathwayHandler) GetTemplate(c *gin.Context) {
	templateCode := c.Param("code")

	details, err := h.contentService.GetTemplateByCode(c.Request.Context(), templateCode)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			abortWithError(c, http.StatusNotFound, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve template.")
		}
		return
	}

	c.JSON(http.StatusOK, details)
}

// ListTemplates returns the active session templates, optionally filtered by
// stage and session type.
func (h *PathwayHandler) ListTemplates(c *gin.Context) {
	var query struct {
		PathwayID   string `form:"pathwayId"`
		Stage       int    `form:"stage" binding:"omitempty,min=0"`
		SessionType string `form:"type" binding:"omitempty,oneof=strength walk mobility rest skipped"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	templates, err := h.contentService.ListTemplates(c.Request.Context(), query.PathwayID, query.Stage, domain.SessionType(query.SessionType))
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve templates.")
		return
	}
	if templates == nil {
		c.JSON(http.StatusOK, []domain.SessionTemplate{})
		return
	}
	c.JSON(http.StatusOK, templates)
}

// GetMyFlags lists the patient's own unresolved coach flags.
func (h *PathwayHandler) GetMyFlags(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify patient.")
		return
	}

	flags, err := h.flagService.GetUnresolvedFlags(c.Request.Context(), userID)
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

// GetStages exposes the stage definitions. Public: the app shows them on the
// onboarding explainer before login.
func (h *PathwayHandler) GetStages(c *gin.Context) {
	c.JSON(http.StatusOK, h.pathwayService.Stages())
}
