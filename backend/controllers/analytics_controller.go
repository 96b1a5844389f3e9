package controllers

import (
	"log/slog"

	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	Progress *services.ProgressService
	Cfg      *config.Config
	Logger   *slog.Logger
}

func NewAnalyticsController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *AnalyticsController {
	return &AnalyticsController{
		Progress: services.NewProgressService(db),
		Cfg:      cfg,
		Logger:   logger,
	}
}

// GetCourseAnalytics возвращает аналитику по курсу (только для автора/админа)
// @Summary Enrollment and completion statistics for a course
// @Tags admin
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} services.CourseAnalytics
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/analytics [get]
func (ac *AnalyticsController) GetCourseAnalytics(c *fiber.Ctx) error {
	analytics, err := ac.Progress.CourseAnalytics(actorOf(c), c.Params("id"))
	if err != nil {
		return handleError(c, ac.Logger, err, "Failed to fetch course analytics")
	}
	return utils.Success(c, fiber.StatusOK, analytics)
}
