package routes

import (
	"log"
	"project/backend/config"
	"project/backend/controllers"
	"project/backend/middleware"
	"project/backend/payment"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config, payments payment.Provider, logger *log.Logger) {
	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)

	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)
	instructorMiddleware := middleware.InstructorMiddleware(db, cfg)

	// User routes
	app.Get("/api/user/profile", authMiddleware, authController.GetProfile)
	app.Put("/api/user/profile", authMiddleware, authController.UpdateProfile)

	// Courses routes
	courseController := controllers.NewCourseController(db, cfg)
	courses := app.Group("/api/courses")
	courses.Get("/published", courseController.GetPublishedCourses)
	courses.Get("/search", courseController.SearchCourses)
	courses.Get("/creator", authMiddleware, instructorMiddleware, courseController.GetCreatorCourses)
	courses.Post("/", authMiddleware, instructorMiddleware, courseController.CreateCourse)
	courses.Get("/:id", authMiddleware, courseController.GetCourseByID)
	courses.Put("/:id", authMiddleware, instructorMiddleware, courseController.EditCourse)
	courses.Patch("/:id/publish", authMiddleware, instructorMiddleware, courseController.TogglePublishCourse)
	courses.Post("/:id/lectures", authMiddleware, instructorMiddleware, courseController.CreateLecture)
	courses.Get("/:id/lectures", authMiddleware, courseController.GetCourseLectures)
	courses.Put("/:id/lectures/:lectureId", authMiddleware, instructorMiddleware, courseController.EditLecture)

	// Progress routes
	progressController := controllers.NewProgressController(db, cfg)
	progress := app.Group("/api/progress", authMiddleware)
	progress.Get("/:id", progressController.GetCourseProgress)
	progress.Post("/:id/lectures/:lectureId/view", progressController.UpdateLectureProgress)
	progress.Post("/:id/complete", progressController.MarkAsCompleted)
	progress.Post("/:id/incomplete", progressController.MarkAsIncomplete)

	// Purchase routes
	purchaseController := controllers.NewPurchaseController(db, cfg, payments, logger)
	purchase := app.Group("/api/purchase", authMiddleware)
	purchase.Post("/checkout", purchaseController.CreateCheckoutSession)
	purchase.Get("/course/:courseId", purchaseController.GetCourseDetailWithPurchaseStatus)
	purchase.Get("/all", purchaseController.GetAllPurchasedCourses)

	// Provider callback. Registered outside the authed groups and with no
	// body-parsing middleware in front, the signature check runs over the
	// raw bytes.
	app.Post("/webhook", purchaseController.StripeWebhook)
}
