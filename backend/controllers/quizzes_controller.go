package controllers

import (
	"log/slog"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/middleware"
	"learnhub/backend/progress"
	"learnhub/backend/services"
	"learnhub/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type QuizzesController struct {
	Quizzes   *services.QuizService
	Authoring *services.AuthoringService
	Cfg       *config.Config
	Logger    *slog.Logger
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config, logger *slog.Logger) *QuizzesController {
	return &QuizzesController{
		Quizzes:   services.NewQuizService(db),
		Authoring: services.NewAuthoringService(db),
		Cfg:       cfg,
		Logger:    logger,
	}
}

// GetQuiz godoc
// @Summary Get a quiz
// @Description Questions and options in order; correct answers only for the course's editors
// @Tags quizzes
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizId} [get]
func (qc *QuizzesController) GetQuiz(c *fiber.Ctx) error {
	quiz, manages, err := qc.Quizzes.GetQuiz(actorOf(c), middleware.CurrentUserID(c), c.Params("quizId"))
	if err != nil {
		return handleError(c, qc.Logger, err, "Failed to fetch quiz")
	}
	return c.JSON(fiber.Map{"quiz": services.NewQuizView(quiz, manages)})
}

// ListAttempts godoc
// @Summary The user's attempts at a quiz, newest first
// @Tags quizzes
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param userId query string false "User ID, defaults to the caller"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizId}/attempts [get]
func (qc *QuizzesController) ListAttempts(c *fiber.Ctx) error {
	userID, ok := subjectUser(c, c.Query("userId"))
	if !ok {
		return utils.Forbidden(c, "Cannot view another user's attempts")
	}

	attempts, err := qc.Quizzes.ListAttempts(actorOf(c), userID, c.Params("quizId"))
	if err != nil {
		return handleError(c, qc.Logger, err, "Failed to fetch quiz attempts")
	}
	return c.JSON(fiber.Map{"attempts": attempts})
}

type CreateAttemptRequest struct {
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
}

// CreateAttempt godoc
// @Summary Start a quiz attempt
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param input body CreateAttemptRequest false "Attempt"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizId}/attempts [post]
func (qc *QuizzesController) CreateAttempt(c *fiber.Ctx) error {
	var req CreateAttemptRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &req); !ok {
			return err
		}
	}
	userID, ok := subjectUser(c, req.UserID)
	if !ok {
		return utils.Forbidden(c, "Cannot start an attempt for another user")
	}

	attempt, err := qc.Quizzes.CreateAttempt(userID, c.Params("quizId"), req.StartedAt)
	if err != nil {
		return handleError(c, qc.Logger, err, "Failed to create quiz attempt")
	}
	return c.JSON(fiber.Map{"success": true, "attempt": attempt})
}

type SubmitAttemptRequest struct {
	UserID      string            `json:"userId"`
	Responses   []progress.Answer `json:"responses" validate:"dive"`
	CompletedAt time.Time         `json:"completedAt"`
	// Score and Passed are accepted for compatibility and ignored; the
	// attempt is graded here.
	Score  *int  `json:"score"`
	Passed *bool `json:"passed"`
}

// SubmitAttempt godoc
// @Summary Submit a quiz attempt
// @Description Grades the responses; a pass completes the quiz's lesson
// @Tags quizzes
// @Accept json
// @Produce json
// @Param quizId path string true "Quiz ID"
// @Param attemptId path string true "Attempt ID"
// @Param input body SubmitAttemptRequest true "Responses"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizId}/attempts/{attemptId}/submit [post]
func (qc *QuizzesController) SubmitAttempt(c *fiber.Ctx) error {
	var req SubmitAttemptRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	userID, ok := subjectUser(c, req.UserID)
	if !ok {
		return utils.Forbidden(c, "Cannot submit an attempt for another user")
	}

	res, err := qc.Quizzes.SubmitAttempt(services.SubmitAttemptInput{
		UserID:      userID,
		QuizID:      c.Params("quizId"),
		AttemptID:   c.Params("attemptId"),
		Answers:     req.Responses,
		CompletedAt: req.CompletedAt,
	})
	if err != nil {
		return handleError(c, qc.Logger, err, "Failed to submit quiz attempt")
	}

	body := fiber.Map{
		"success":        true,
		"attempt":        res.Attempt,
		"achievedPoints": res.AchievedPoints,
		"totalPoints":    res.TotalPoints,
	}
	if res.LessonProgress != nil {
		body["lessonProgress"] = res.LessonProgress
	}
	if res.CourseProgress != nil {
		body["courseProgress"] = res.CourseProgress
	}
	return c.JSON(body)
}

type OptionRequest struct {
	OptionText string `json:"optionText" validate:"required,max=500"`
	IsCorrect  bool   `json:"isCorrect"`
}

type QuestionRequest struct {
	Question     string          `json:"question" validate:"required,max=2000"`
	QuestionType string          `json:"questionType" validate:"omitempty,oneof=multiple_choice true_false"`
	Points       int             `json:"points" validate:"min=0"`
	Options      []OptionRequest `json:"options" validate:"required,min=2,dive"`
}

type CreateQuizRequest struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description"`
	PassingScore int               `json:"passingScore" validate:"min=0,max=100"`
	Questions    []QuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

// CreateQuiz godoc
// @Summary Attach a quiz to a lesson
// @Tags admin
// @Accept json
// @Produce json
// @Param lessonId path string true "Lesson ID"
// @Param input body CreateQuizRequest true "Quiz with questions and options"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /admin/lessons/{lessonId}/quiz [post]
func (qc *QuizzesController) CreateQuiz(c *fiber.Ctx) error {
	var req CreateQuizRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	in := services.QuizInput{
		Title:        req.Title,
		Description:  req.Description,
		PassingScore: req.PassingScore,
		Questions:    make([]services.QuestionInput, 0, len(req.Questions)),
	}
	for _, q := range req.Questions {
		question := services.QuestionInput{
			Question:     q.Question,
			QuestionType: q.QuestionType,
			Points:       q.Points,
		}
		for _, o := range q.Options {
			question.Options = append(question.Options, services.OptionInput{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
			})
		}
		in.Questions = append(in.Questions, question)
	}

	quiz, err := qc.Authoring.CreateQuiz(actorOf(c), c.Params("lessonId"), in)
	if err != nil {
		return handleError(c, qc.Logger, err, "Could not create quiz")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"quiz": services.NewQuizView(quiz, true)})
}
