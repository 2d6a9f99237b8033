package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/qpaperai/qpaper-api/internal/app/controllers"
	"github.com/qpaperai/qpaper-api/internal/app/models"
	"github.com/qpaperai/qpaper-api/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	courseController *controllers.CourseController,
	questionController *controllers.QuestionController,
	studentController *controllers.StudentController,
	paperController *controllers.PaperController,
	userController *controllers.UserController,
	statsController *controllers.StatsController,
	healthController *controllers.HealthController,
	authMiddleware *middleware.AuthMiddleware,
	authRateLimiter *middleware.RateLimiter,
) {
	api := router.Group("/api")

	// --- Public routes ---
	api.GET("/health", healthController.Health)

	auth := api.Group("/auth")
	if authRateLimiter != nil {
		auth.Use(authRateLimiter.Middleware())
	}
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", authController.Login)
		auth.POST("/refresh", authController.RefreshToken)
		auth.POST("/logout", authController.Logout)
	}

	courses := api.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:code/units", courseController.GetUnits)
	}

	api.GET("/public/search", questionController.PublicSearch)

	// --- Authenticated routes ---
	authenticated := api.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/me", authController.Me)
		authenticated.POST("/auth/change-password", authController.ChangePassword)

		student := authenticated.Group("/student")
		{
			student.GET("/search", questionController.StudentSearch)
			student.GET("/random-questions", questionController.RandomQuestions)
			student.GET("/my-courses", studentController.MyCourses)
			student.POST("/select-courses", studentController.SelectCourses)
			student.POST("/bookmark/:id", studentController.ToggleBookmark)
			student.GET("/bookmarks", studentController.ListBookmarks)
		}

		// Admin and faculty share the management surface; papers and
		// questions are uploaded by faculty, users stay admin-shaped
		// through the same role gate.
		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.RoleRequired(string(models.RoleAdmin), string(models.RoleFaculty)))
		{
			admin.POST("/courses", courseController.CreateCourse)
			admin.PUT("/courses/:id", courseController.UpdateCourse)
			admin.DELETE("/courses/:id", courseController.DeleteCourse)
			admin.POST("/courses/:id/units", courseController.CreateUnit)

			admin.POST("/papers", paperController.UploadPaper)
			admin.GET("/papers", paperController.ListPapers)
			admin.GET("/papers/:id", paperController.GetPaper)

			admin.POST("/questions", questionController.CreateQuestion)
			admin.PUT("/questions/:id", questionController.UpdateQuestion)
			admin.DELETE("/questions/:id", questionController.DeleteQuestion)
			admin.GET("/questions/pending", questionController.ListPendingQuestions)
			admin.POST("/questions/:id/review", questionController.ReviewQuestion)

			admin.GET("/users", userController.ListUsers)
			admin.PUT("/users/:id/active", userController.SetUserActive)

			admin.GET("/stats", statsController.GetStats)
		}
	}
}
