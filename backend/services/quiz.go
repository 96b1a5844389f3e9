package services

import (
	"fmt"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/progress"

	"gorm.io/gorm"
)

type QuizService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewQuizService(db *gorm.DB) *QuizService {
	return &QuizService{DB: db, Now: utcNow}
}

func (s *QuizService) now() time.Time {
	if s.Now == nil {
		return utcNow()
	}
	return s.Now()
}

// loadQuiz runs q against quizzes with questions and options in display order.
func loadQuiz(q *gorm.DB) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, created_at")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position, created_at")
		}).
		First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// GetQuiz loads a quiz for viewer acting as userID. manages reports whether
// the viewer edits the quiz's course and may see the answers.
func (s *QuizService) GetQuiz(viewer Actor, userID, quizID string) (quiz *models.Quiz, manages bool, err error) {
	course, err := quizCourse(s.DB, quizID)
	if err != nil {
		return nil, false, err
	}
	if manages, err = contentAccess(s.DB, viewer, course, userID); err != nil {
		return nil, false, err
	}
	quiz, err = loadQuiz(s.DB.Where("id = ?", quizID))
	if err != nil {
		return nil, false, fmt.Errorf("quiz %s: %w", quizID, notFound(err))
	}
	return quiz, manages, nil
}

// CreateAttempt opens an attempt for an enrolled user. A zero startedAt
// means now.
func (s *QuizService) CreateAttempt(userID, quizID string, startedAt time.Time) (*models.QuizAttempt, error) {
	var quiz models.Quiz
	if err := s.DB.First(&quiz, "id = ?", quizID).Error; err != nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, notFound(err))
	}
	var lesson models.Lesson
	if err := s.DB.First(&lesson, "id = ?", quiz.LessonID).Error; err != nil {
		return nil, fmt.Errorf("lesson %s: %w", quiz.LessonID, notFound(err))
	}
	if err := requireEnrollment(s.DB, userID, lesson.CourseID); err != nil {
		return nil, err
	}

	if startedAt.IsZero() {
		startedAt = s.now()
	}
	attempt := &models.QuizAttempt{
		UserID:    userID,
		QuizID:    quizID,
		StartedAt: startedAt.UTC(),
		Responses: []models.QuizResponse{},
	}
	if err := s.DB.Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

type SubmitAttemptInput struct {
	UserID      string
	QuizID      string
	AttemptID   string
	Answers     []progress.Answer
	CompletedAt time.Time
}

type SubmitAttemptResult struct {
	Attempt        *models.QuizAttempt
	AchievedPoints int
	TotalPoints    int
	LessonProgress *models.LessonProgress
	CourseProgress *models.UserProgress
}

// SubmitAttempt grades the attempt on the server and, on a pass, completes
// the quiz's lesson in the same transaction. An attempt is graded once.
func (s *QuizService) SubmitAttempt(in SubmitAttemptInput) (*SubmitAttemptResult, error) {
	now := s.now()
	completedAt := now
	if !in.CompletedAt.IsZero() {
		completedAt = in.CompletedAt.UTC()
	}

	out := &SubmitAttemptResult{}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var attempt models.QuizAttempt
		if err := tx.First(&attempt, "id = ? AND quiz_id = ?", in.AttemptID, in.QuizID).Error; err != nil {
			return fmt.Errorf("attempt %s: %w", in.AttemptID, notFound(err))
		}
		if attempt.UserID != in.UserID {
			return fmt.Errorf("%w: attempt belongs to another user", ErrForbidden)
		}
		if attempt.CompletedAt != nil {
			return fmt.Errorf("%w: attempt already submitted", ErrConflict)
		}

		quiz, err := loadQuiz(tx.Where("id = ?", in.QuizID))
		if err != nil {
			return fmt.Errorf("quiz %s: %w", in.QuizID, notFound(err))
		}

		result := progress.ScoreQuiz(quiz, in.Answers)
		attempt.Score = result.Score
		attempt.Passed = result.Passed
		attempt.CompletedAt = &completedAt
		attempt.Responses = result.Responses
		if err := tx.Save(&attempt).Error; err != nil {
			return fmt.Errorf("save attempt: %w", err)
		}
		out.Attempt = &attempt
		out.AchievedPoints = result.AchievedPoints
		out.TotalPoints = result.TotalPoints

		if !result.Passed {
			return nil
		}

		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", quiz.LessonID).Error; err != nil {
			return fmt.Errorf("lesson %s: %w", quiz.LessonID, notFound(err))
		}
		lp, err := applyLessonProgress(tx, now, &lesson, LessonProgressUpdate{
			UserID:      in.UserID,
			LessonID:    lesson.ID,
			Completed:   true,
			CompletedAt: &completedAt,
		})
		if err != nil {
			return err
		}
		out.LessonProgress = lp.Progress
		out.CourseProgress = lp.CourseProgress
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListAttempts returns the user's attempts at a quiz, newest first.
func (s *QuizService) ListAttempts(viewer Actor, userID, quizID string) ([]models.QuizAttempt, error) {
	course, err := quizCourse(s.DB, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := contentAccess(s.DB, viewer, course, userID); err != nil {
		return nil, err
	}

	attempts := []models.QuizAttempt{}
	err = s.DB.Where("user_id = ? AND quiz_id = ?", userID, quizID).
		Order("started_at DESC, created_at DESC").
		Find(&attempts).Error
	return attempts, err
}

type OptionView struct {
	ID         string `json:"id"`
	OptionText string `json:"optionText"`
	Position   int    `json:"position"`
	IsCorrect  *bool  `json:"isCorrect,omitempty"`
}

type QuestionView struct {
	ID           string       `json:"id"`
	Question     string       `json:"question"`
	QuestionType string       `json:"questionType"`
	Position     int          `json:"position"`
	Points       int          `json:"points"`
	Options      []OptionView `json:"options"`
}

type QuizView struct {
	ID           string         `json:"id"`
	LessonID     string         `json:"lessonId"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	PassingScore int            `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
}

// NewQuizView renders a quiz for the client. Option correctness is only
// included when revealAnswers is set.
func NewQuizView(q *models.Quiz, revealAnswers bool) QuizView {
	v := QuizView{
		ID:           q.ID,
		LessonID:     q.LessonID,
		Title:        q.Title,
		Description:  q.Description,
		PassingScore: progress.PassingScore(q),
		Questions:    make([]QuestionView, 0, len(q.Questions)),
	}
	for i := range q.Questions {
		qq := &q.Questions[i]
		qv := QuestionView{
			ID:           qq.ID,
			Question:     qq.Question,
			QuestionType: qq.QuestionType,
			Position:     qq.Position,
			Points:       progress.QuestionPoints(qq),
			Options:      make([]OptionView, 0, len(qq.Options)),
		}
		for _, o := range qq.Options {
			ov := OptionView{ID: o.ID, OptionText: o.OptionText, Position: o.Position}
			if revealAnswers {
				correct := o.IsCorrect
				ov.IsCorrect = &correct
			}
			qv.Options = append(qv.Options, ov)
		}
		v.Questions = append(v.Questions, qv)
	}
	return v
}
