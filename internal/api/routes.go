package api

import (
	"net/http"

	"oncomove/pathway-app/internal/domain"
	"oncomove/pathway-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	pathwayService service.PathwayService,
	flagService service.FlagService,
	contentService service.ContentService,
) {

	authHandler := NewAuthHandler(authService)
	pathwayHandler := NewPathwayHandler(pathwayService, flagService, contentService)
	coachHandler := NewCoachHandler(pathwayService, flagService, contentService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		// Stage definitions are public; the onboarding explainer shows them
		// before login.
		apiV1.GET("/pathway/stages", pathwayHandler.GetStages)
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Patient Pathway Routes ---
		pathwayGroup := protected.Group("/pathway")
		pathwayGroup.Use(RoleMiddleware(domain.RolePatient))
		{
			// GET /api/v1/pathway/assignment
			pathwayGroup.GET("/assignment", pathwayHandler.GetAssignment)
			// POST /api/v1/pathway/assignment
			pathwayGroup.POST("/assignment", pathwayHandler.CreateAssignment)
			// PATCH /api/v1/pathway/assignment
			pathwayGroup.PATCH("/assignment", pathwayHandler.UpdateAssignment)

			// GET /api/v1/pathway/today
			pathwayGroup.GET("/today", pathwayHandler.GetTodaySession)
			// POST /api/v1/pathway/complete
			pathwayGroup.POST("/complete", pathwayHandler.CompleteSession)
			// GET /api/v1/pathway/sessions
			pathwayGroup.GET("/sessions", pathwayHandler.GetSessionHistory)

			// --- Template Catalog ---
			// GET /api/v1/pathway/templates
			pathwayGroup.GET("/templates", pathwayHandler.ListTemplates)
			// GET /api/v1/pathway/template/{code}
			pathwayGroup.GET("/template/:code", pathwayHandler.GetTemplate)

			// GET /api/v1/pathway/flags
			pathwayGroup.GET("/flags", pathwayHandler.GetMyFlags)
		}

		// --- Specialist Review Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleSpecialist))
		{
			// GET /api/v1/coach/flags
			coachGroup.GET("/flags", coachHandler.GetAllFlags)
			// POST /api/v1/coach/flags/{id}/resolve
			coachGroup.POST("/flags/:id/resolve", coachHandler.ResolveFlag)

			// GET /api/v1/coach/patients/{patientId}/sessions
			coachGroup.GET("/patients/:patientId/sessions", coachHandler.GetPatientSessions)

			// POST /api/v1/coach/templates/{code}/exercises/{exerciseId}/video-upload
			coachGroup.POST("/templates/:code/exercises/:exerciseId/video-upload", coachHandler.RequestVideoUpload)
		}
	}
}
