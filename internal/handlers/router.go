package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/surveybd/survey-service/internal/models"
	"github.com/surveybd/survey-service/internal/services"
	"github.com/surveybd/survey-service/internal/utils"
)

type HandlerManager struct {
	authHandler         *AuthHandler
	registrationHandler *RegistrationHandler
	surveyHandler       *SurveyHandler
	responseHandler     *ResponseHandler
	resultsHandler      *ResultsHandler
	userHandler         *UserHandler
	authMiddleware      *SessionAuthMiddleware
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		authHandler:         NewAuthHandler(serviceManager.Auth(), logger),
		registrationHandler: NewRegistrationHandler(serviceManager.OTP(), logger),
		surveyHandler:       NewSurveyHandler(serviceManager.Survey(), logger),
		responseHandler:     NewResponseHandler(serviceManager.Response(), logger),
		resultsHandler:      NewResultsHandler(serviceManager.Results(), logger),
		userHandler:         NewUserHandler(serviceManager.User(), logger),
		authMiddleware:      NewSessionAuthMiddleware(serviceManager.Auth()),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Registration flow - no session required
	router.POST("/api/send-otp", hm.registrationHandler.SendOTP)
	router.POST("/api/verify-otp", hm.registrationHandler.VerifyOTP)
	router.POST("/api/register", hm.registrationHandler.Register)

	v1 := router.Group("/api/v1")
	{
		// Auth routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", hm.authHandler.Login)
			auth.POST("/logout", hm.authMiddleware.RequireAuth(), hm.authHandler.Logout)
			auth.GET("/me", hm.authMiddleware.RequireAuth(), hm.authHandler.Me)
		}

		// Survey authoring routes - creators and admins
		surveys := v1.Group("/surveys")
		surveys.Use(hm.authMiddleware.RequireAuth())
		{
			surveys.POST("", hm.authMiddleware.RequireRole(models.RoleCreator, models.RoleAdmin), hm.surveyHandler.CreateSurvey)
			surveys.GET("", hm.surveyHandler.ListSurveys)
			surveys.GET("/:id", hm.surveyHandler.GetSurvey)
			surveys.PUT("/:id", hm.surveyHandler.UpdateSurveyMeta)
			surveys.PUT("/:id/save", hm.surveyHandler.SaveSurvey)
			surveys.DELETE("/:id", hm.surveyHandler.DeleteSurvey)

			// Lifecycle
			surveys.POST("/:id/publish", hm.surveyHandler.PublishSurvey)
			surveys.POST("/:id/close", hm.surveyHandler.CloseSurvey)
			surveys.POST("/:id/reopen", hm.surveyHandler.ReopenSurvey)

			// Question management
			surveys.POST("/:id/questions", hm.surveyHandler.AddQuestion)
			surveys.PUT("/:id/questions/:question_id", hm.surveyHandler.UpdateQuestion)
			surveys.DELETE("/:id/questions/:question_id", hm.surveyHandler.DeleteQuestion)
			surveys.POST("/:id/questions/:question_id/duplicate", hm.surveyHandler.DuplicateQuestion)
			surveys.PUT("/:id/questions/reorder", hm.surveyHandler.ReorderQuestions)

			// Results and exports
			surveys.GET("/:id/summary", hm.resultsHandler.GetSummary)
			surveys.GET("/:id/responses", hm.resultsHandler.ListResponses)
			surveys.GET("/:id/export/csv", hm.resultsHandler.ExportCSV)
			surveys.GET("/:id/export/xlsx", hm.resultsHandler.ExportXLSX)
		}

		// Public respondent routes - session optional
		public := v1.Group("/public/surveys")
		public.Use(hm.authMiddleware.OptionalAuth())
		{
			public.GET("/:id", hm.responseHandler.GetPublicForm)
			public.POST("/:id/responses", hm.responseHandler.SubmitResponse)
			public.GET("/:id/responded", hm.responseHandler.HasResponded)
			public.PUT("/:id/draft", hm.responseHandler.SaveDraft)
			public.GET("/:id/draft", hm.responseHandler.GetDraft)
			public.DELETE("/:id/draft", hm.responseHandler.DiscardDraft)
		}

		// User management routes - admins only (GetUser also allows self)
		users := v1.Group("/users")
		users.Use(hm.authMiddleware.RequireAuth())
		{
			users.POST("", hm.authMiddleware.RequireRole(models.RoleAdmin), hm.userHandler.CreateUser)
			users.GET("", hm.authMiddleware.RequireRole(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/stats/roles", hm.authMiddleware.RequireRole(models.RoleAdmin), hm.userHandler.GetRoleCounts)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.authMiddleware.RequireRole(models.RoleAdmin), hm.userHandler.DeleteUser)
		}

		// Audit trail - admins only
		audit := v1.Group("/audit-logs")
		audit.Use(hm.authMiddleware.RequireAuth(), hm.authMiddleware.RequireRole(models.RoleAdmin))
		{
			audit.GET("", hm.userHandler.ListAuditLogs)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "survey-service",
		})
	})
}
