package controllers

import (
	"log/slog"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ProgressController struct {
	Progress *services.ProgressService
	Cfg      *config.Config
	Logger   *slog.Logger
}

func NewProgressController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *ProgressController {
	return &ProgressController{
		Progress: services.NewProgressService(db),
		Cfg:      cfg,
		Logger:   logger,
	}
}

type LessonProgressRequest struct {
	UserID          string     `json:"userId"`
	WatchedSeconds  *int       `json:"watchedSeconds" validate:"omitempty,min=0"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completedAt"`
	DurationSeconds int        `json:"durationSeconds" validate:"min=0"`
}

// GetLessonProgress godoc
// @Summary Get lesson progress
// @Tags progress
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param userId query string false "User ID, defaults to the caller"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{lessonId}/progress [get]
func (pc *ProgressController) GetLessonProgress(c *fiber.Ctx) error {
	userID, ok := subjectUser(c, c.Query("userId"))
	if !ok {
		return utils.Forbidden(c, "Cannot view another user's progress")
	}

	progress, err := pc.Progress.GetLessonProgress(userID, c.Params("lessonId"))
	if err != nil {
		return handleError(c, pc.Logger, err, "Failed to fetch lesson progress")
	}
	return c.JSON(fiber.Map{"progress": progress})
}

// UpdateLessonProgress godoc
// @Summary Update lesson progress
// @Description Records watched seconds; completing the lesson recomputes course progress
// @Tags progress
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param input body LessonProgressRequest true "Progress"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /lessons/{lessonId}/progress [post]
func (pc *ProgressController) UpdateLessonProgress(c *fiber.Ctx) error {
	var req LessonProgressRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	userID, ok := subjectUser(c, req.UserID)
	if !ok {
		return utils.Forbidden(c, "Cannot update another user's progress")
	}

	res, err := pc.Progress.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:          userID,
		LessonID:        c.Params("lessonId"),
		WatchedSeconds:  req.WatchedSeconds,
		Completed:       req.Completed,
		CompletedAt:     req.CompletedAt,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return handleError(c, pc.Logger, err, "Failed to update lesson progress")
	}

	body := fiber.Map{"success": true, "progress": res.Progress}
	if res.CourseProgress != nil {
		body["courseProgress"] = res.CourseProgress
	}
	return c.JSON(body)
}
