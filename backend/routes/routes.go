package routes

import (
	"log/slog"

	"learnhub/backend/config"
	"learnhub/backend/controllers"
	"learnhub/backend/middleware"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// NewApp builds the fiber app with the shared middleware stack and every route.
func NewApp(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "learnhub",
		ErrorHandler: utils.ErrorHandler,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: cfg.AppEnv == "dev"}))
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))
	app.Use(middleware.RateLimit(cfg.RateLimitMax))

	SetupRoutes(app, db, cfg, logger)
	return app
}

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, logger *slog.Logger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes
	authController := controllers.NewAuthController(db, cfg, logger)
	auth := app.Group("/api/auth", middleware.RateLimit(cfg.AuthRateLimitMax))
	auth.Post("/register", authController.Register)
	auth.Post("/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	adminMiddleware := middleware.AdminMiddleware()
	staffMiddleware := middleware.StaffMiddleware()

	// User routes
	userController := controllers.NewUserController(db, cfg, logger)
	app.Get("/api/users/:userId", authMiddleware, userController.GetProfile)
	app.Patch("/api/users/:userId", authMiddleware, userController.UpdateProfile)

	// Courses routes
	overviewController := controllers.NewOverviewController(db, cfg, logger)
	coursesController := controllers.NewCoursesController(db, cfg, logger)
	courses := app.Group("/api/courses", authMiddleware)
	courses.Get("/", overviewController.GetCourses)
	courses.Get("/:id", coursesController.GetCourseDetails)
	courses.Post("/:id/enroll", coursesController.Enroll)
	courses.Get("/:id/lessons/:lessonId", coursesController.GetLesson)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg, logger)
	lessons := app.Group("/api/lessons", authMiddleware)
	lessons.Get("/:lessonId/progress", progressController.GetLessonProgress)
	lessons.Post("/:lessonId/progress", progressController.UpdateLessonProgress)

	// Quiz routes
	quizzesController := controllers.NewQuizzesController(db, cfg, logger)
	quizzes := app.Group("/api/quizzes", authMiddleware)
	quizzes.Get("/:quizId", quizzesController.GetQuiz)
	quizzes.Get("/:quizId/attempts", quizzesController.ListAttempts)
	quizzes.Post("/:quizId/attempts", quizzesController.CreateAttempt)
	quizzes.Post("/:quizId/attempts/:attemptId/submit", quizzesController.SubmitAttempt)

	// Admin routes
	analyticsController := controllers.NewAnalyticsController(db, cfg, logger)
	admin := app.Group("/api/admin", authMiddleware, staffMiddleware)
	admin.Get("/users", adminMiddleware, userController.ListUsers)
	admin.Get("/courses", coursesController.ListAllCourses)
	admin.Post("/courses", coursesController.CreateCourse)
	admin.Put("/courses/:id", coursesController.UpdateCourse)
	admin.Post("/courses/:id/lessons", coursesController.AddLesson)
	admin.Get("/courses/:id/analytics", analyticsController.GetCourseAnalytics)
	admin.Post("/lessons/:lessonId/quiz", quizzesController.CreateQuiz)
}
