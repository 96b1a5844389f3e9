package controllers

import (
	"log/slog"

	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CoursesController struct {
	Catalog     *services.CatalogService
	Enrollments *services.EnrollmentService
	Authoring   *services.AuthoringService
	Cfg         *config.Config
	Logger      *slog.Logger
}

func NewCoursesController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *CoursesController {
	return &CoursesController{
		Catalog:     services.NewCatalogService(db),
		Enrollments: services.NewEnrollmentService(db),
		Authoring:   services.NewAuthoringService(db),
		Cfg:         cfg,
		Logger:      logger,
	}
}

func actorOf(c *fiber.Ctx) services.Actor {
	return services.Actor{UserID: middleware.CurrentUserID(c), Role: middleware.CurrentRole(c)}
}

func tagNames(course *models.Course) []string {
	names := make([]string, 0, len(course.Tags))
	for _, t := range course.Tags {
		names = append(names, t.Name)
	}
	return names
}

// GetCourseDetails godoc
// @Summary Course with lessons and the user's progress
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Param userId query string false "User ID, defaults to the caller"
// @Success 200 {object} services.CourseDetail
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id} [get]
func (cc *CoursesController) GetCourseDetails(c *fiber.Ctx) error {
	userID, ok := subjectUser(c, c.Query("userId"))
	if !ok {
		return utils.Forbidden(c, "Cannot view another user's progress")
	}

	detail, err := cc.Catalog.CourseDetail(actorOf(c), c.Params("id"), userID)
	if err != nil {
		return handleError(c, cc.Logger, err, "Could not load course")
	}
	return c.JSON(detail)
}

type EnrollRequest struct {
	UserID string `json:"userId"`
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body EnrollRequest false "User to enroll, defaults to the caller"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/enroll [post]
func (cc *CoursesController) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}
	userID, ok := subjectUser(c, req.UserID)
	if !ok {
		return utils.Forbidden(c, "Cannot enroll another user")
	}

	enrollment, progress, err := cc.Enrollments.Enroll(userID, c.Params("id"))
	if err != nil {
		return handleError(c, cc.Logger, err, "Failed to enroll in course")
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"enrollment": enrollment,
		"progress":   progress,
	})
}

// GetLesson godoc
// @Summary Lesson page
// @Description Lesson, quiz without answers, the user's progress and attempts, previous and next lessons
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param userId query string false "User ID, defaults to the caller"
// @Success 200 {object} services.LessonDetail
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /courses/{id}/lessons/{lessonId} [get]
func (cc *CoursesController) GetLesson(c *fiber.Ctx) error {
	userID, ok := subjectUser(c, c.Query("userId"))
	if !ok {
		return utils.Forbidden(c, "Cannot view another user's lesson")
	}

	detail, err := cc.Catalog.LessonDetail(actorOf(c), c.Params("id"), c.Params("lessonId"), userID)
	if err != nil {
		return handleError(c, cc.Logger, err, "Could not load lesson")
	}
	return c.JSON(detail)
}

// ListAllCourses godoc
// @Summary All courses including unpublished
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /admin/courses [get]
func (cc *CoursesController) ListAllCourses(c *fiber.Ctx) error {
	courses, err := cc.Catalog.ListCourses(false)
	if err != nil {
		return handleError(c, cc.Logger, err, "Failed to fetch courses")
	}
	return c.JSON(fiber.Map{"courses": courses})
}

type CreateCourseRequest struct {
	Title           string   `json:"title" validate:"required,max=200"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl" validate:"omitempty,max=500"`
	DifficultyLevel string   `json:"difficultyLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes int      `json:"durationMinutes" validate:"min=0"`
	Published       bool     `json:"published"`
	InstructorID    string   `json:"instructorId"`
	Tags            []string `json:"tags" validate:"max=20,dive,max=50"`
}

// CreateCourse godoc
// @Summary Create a course
// @Tags admin
// @Accept json
// @Produce json
// @Param input body CreateCourseRequest true "Course"
// @Success 201 {object} models.Course
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses [post]
func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	course, err := cc.Authoring.CreateCourse(actorOf(c), services.CourseInput{
		Title:           req.Title,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		DifficultyLevel: req.DifficultyLevel,
		DurationMinutes: req.DurationMinutes,
		Published:       req.Published,
		InstructorID:    req.InstructorID,
		Tags:            req.Tags,
	})
	if err != nil {
		return handleError(c, cc.Logger, err, "Could not create course")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"course": course, "tags": tagNames(course)})
}

type UpdateCourseRequest struct {
	Title           *string   `json:"title" validate:"omitempty,max=200"`
	Description     *string   `json:"description"`
	ImageURL        *string   `json:"imageUrl" validate:"omitempty,max=500"`
	DifficultyLevel *string   `json:"difficultyLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	DurationMinutes *int      `json:"durationMinutes" validate:"omitempty,min=0"`
	Published       *bool     `json:"published"`
	Tags            *[]string `json:"tags" validate:"omitempty,max=20,dive,max=50"`
}

// UpdateCourse godoc
// @Summary Update a course
// @Description Partial update; publishing is done by setting published
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body UpdateCourseRequest true "Fields to change"
// @Success 200 {object} models.Course
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id} [put]
func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	var req UpdateCourseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	course, err := cc.Authoring.UpdateCourse(actorOf(c), c.Params("id"), services.CoursePatch{
		Title:           req.Title,
		Description:     req.Description,
		ImageURL:        req.ImageURL,
		DifficultyLevel: req.DifficultyLevel,
		DurationMinutes: req.DurationMinutes,
		Published:       req.Published,
		Tags:            req.Tags,
	})
	if err != nil {
		return handleError(c, cc.Logger, err, "Could not update course")
	}
	return c.JSON(fiber.Map{"course": course, "tags": tagNames(course)})
}

type AddLessonRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description"`
	VideoURL        string `json:"videoUrl" validate:"omitempty,max=500"`
	DurationSeconds int    `json:"durationSeconds" validate:"min=0"`
	Position        int    `json:"position" validate:"min=0"`
}

// AddLesson godoc
// @Summary Add a lesson to a course
// @Description Position defaults to the end of the course
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param input body AddLessonRequest true "Lesson"
// @Success 201 {object} models.Lesson
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/courses/{id}/lessons [post]
func (cc *CoursesController) AddLesson(c *fiber.Ctx) error {
	var req AddLessonRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	lesson, err := cc.Authoring.AddLesson(actorOf(c), c.Params("id"), services.LessonInput{
		Title:           req.Title,
		Description:     req.Description,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		Position:        req.Position,
	})
	if err != nil {
		return handleError(c, cc.Logger, err, "Could not add lesson")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"lesson": lesson})
}
