package controllers

import (
	"log/slog"

	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type OverviewController struct {
	Catalog *services.CatalogService
	Cfg     *config.Config
	Logger  *slog.Logger
}

func NewOverviewController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *OverviewController {
	return &OverviewController{
		Catalog: services.NewCatalogService(db),
		Cfg:     cfg,
		Logger:  logger,
	}
}

// GetCourses godoc
// @Summary Course catalog for a user
// @Description Published courses split into the user's enrollments, with progress, and the rest
// @Tags courses
// @Produce json
// @Param userId query string false "User ID, defaults to the caller"
// @Success 200 {object} services.Overview
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses [get]
func (oc *OverviewController) GetCourses(c *fiber.Ctx) error {
	userID, ok := subjectUser(c, c.Query("userId"))
	if !ok {
		return utils.Forbidden(c, "Cannot view another user's courses")
	}

	overview, err := oc.Catalog.Overview(userID)
	if err != nil {
		return handleError(c, oc.Logger, err, "Failed to fetch courses")
	}
	return c.JSON(overview)
}
