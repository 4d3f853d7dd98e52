package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mathsia/memocard-service/internal/middleware"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/services"
	"github.com/mathsia/memocard-service/internal/utils"
)

type HandlerManager struct {
	authService services.AuthService

	authHandler     *AuthHandler
	memocardHandler *MemocardHandler
	studentHandler  *StudentHandler
}

func NewHandlerManager(
	authService services.AuthService,
	memocardService services.MemocardService,
	studentService services.StudentService,
	importExportService services.ImportExportService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authService:     authService,
		authHandler:     NewAuthHandler(authService, logger),
		memocardHandler: NewMemocardHandler(memocardService, importExportService, logger),
		studentHandler:  NewStudentHandler(studentService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
		auth.POST("/refresh", hm.authHandler.Refresh)
	}

	authenticated := v1.Group("")
	authenticated.Use(middleware.Authenticate(hm.authService))

	adminOnly := middleware.RequireRole(models.RoleAdmin)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	memocards := authenticated.Group("/memocards")
	{
		// Student-facing routes come before /:id so gin does not treat
		// "me", "import" or "export" as an ID.
		memocards.GET("/me", studentOnly, hm.memocardHandler.ListMemocardsForStudent)
		memocards.POST("/import", adminOnly, hm.memocardHandler.ImportMemocards)
		memocards.GET("/export", adminOnly, hm.memocardHandler.ExportMemocards)

		memocards.POST("", adminOnly, hm.memocardHandler.CreateMemocard)
		memocards.GET("", adminOnly, hm.memocardHandler.ListMemocards)
		memocards.GET("/:id", hm.memocardHandler.GetMemocard)
		memocards.PUT("/:id", adminOnly, hm.memocardHandler.UpdateMemocard)
		memocards.DELETE("/:id", adminOnly, hm.memocardHandler.DeleteMemocard)

		memocards.POST("/:id/verify", studentOnly, hm.memocardHandler.VerifyAnswer)
		memocards.GET("/:id/responses", studentOnly, hm.memocardHandler.ListMyResponses)
	}

	students := authenticated.Group("/students")
	{
		students.GET("/me/progress", studentOnly, hm.studentHandler.GetMyProgress)

		students.POST("", adminOnly, hm.studentHandler.CreateStudent)
		students.GET("", adminOnly, hm.studentHandler.ListStudents)
		students.GET("/:id", adminOnly, hm.studentHandler.GetStudent)
		students.PUT("/:id", adminOnly, hm.studentHandler.UpdateStudent)
		students.DELETE("/:id", adminOnly, hm.studentHandler.DeleteStudent)
		students.GET("/:id/progress", adminOnly, hm.studentHandler.GetStudentProgress)
	}
}
