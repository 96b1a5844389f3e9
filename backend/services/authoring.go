package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

// AuthoringService backs the admin and instructor screens. Instructors may
// only change their own courses; admins may change any.
type AuthoringService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewAuthoringService(db *gorm.DB) *AuthoringService {
	return &AuthoringService{DB: db, Now: utcNow}
}

// Actor is the authenticated caller.
type Actor struct {
	UserID string
	Role   string
}

func (a Actor) canEdit(c *models.Course) bool {
	if a.Role == models.RoleAdmin {
		return true
	}
	return a.Role == models.RoleInstructor && c.InstructorID != nil && *c.InstructorID == a.UserID
}

type CourseInput struct {
	Title           string
	Description     string
	ImageURL        string
	DifficultyLevel string
	DurationMinutes int
	Published       bool
	InstructorID    string
	Tags            []string
}

// CreateCourse stores a course. The instructor defaults to the actor; only
// admins may assign someone else.
func (s *AuthoringService) CreateCourse(actor Actor, in CourseInput) (*models.Course, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	instructorID := actor.UserID
	if in.InstructorID != "" && in.InstructorID != actor.UserID {
		if actor.Role != models.RoleAdmin {
			return nil, fmt.Errorf("%w: only admins may assign an instructor", ErrForbidden)
		}
		instructorID = in.InstructorID
	}

	course := &models.Course{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		ImageURL:        in.ImageURL,
		DifficultyLevel: in.DifficultyLevel,
		DurationMinutes: in.DurationMinutes,
		Published:       in.Published,
		InstructorID:    &instructorID,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var instructor models.User
		if err := tx.Select("id").First(&instructor, "id = ?", instructorID).Error; err != nil {
			return fmt.Errorf("instructor %s: %w", instructorID, notFound(err))
		}
		if err := tx.Omit("Tags").Create(course).Error; err != nil {
			return err
		}
		return replaceTags(tx, course, in.Tags)
	})
	if err != nil {
		return nil, err
	}
	return course, nil
}

// CoursePatch is a partial update; nil fields are left unchanged.
type CoursePatch struct {
	Title           *string
	Description     *string
	ImageURL        *string
	DifficultyLevel *string
	DurationMinutes *int
	Published       *bool
	Tags            *[]string
}

func (s *AuthoringService) UpdateCourse(actor Actor, courseID string, in CoursePatch) (*models.Course, error) {
	var course models.Course
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			return fmt.Errorf("course %s: %w", courseID, notFound(err))
		}
		if !actor.canEdit(&course) {
			return fmt.Errorf("%w: not your course", ErrForbidden)
		}

		updates := map[string]interface{}{}
		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
			}
			updates["title"] = title
		}
		if in.Description != nil {
			updates["description"] = *in.Description
		}
		if in.ImageURL != nil {
			updates["image_url"] = *in.ImageURL
		}
		if in.DifficultyLevel != nil {
			updates["difficulty_level"] = *in.DifficultyLevel
		}
		if in.DurationMinutes != nil {
			updates["duration_minutes"] = *in.DurationMinutes
		}
		if in.Published != nil {
			updates["published"] = *in.Published
		}
		if len(updates) > 0 {
			if err := tx.Model(&course).Updates(updates).Error; err != nil {
				return err
			}
		}
		if in.Tags != nil {
			if err := replaceTags(tx, &course, *in.Tags); err != nil {
				return err
			}
		}
		return tx.Preload("Tags").First(&course, "id = ?", courseID).Error
	})
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// replaceTags points the course at the named tags, creating missing ones.
func replaceTags(tx *gorm.DB, course *models.Course, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	course.Tags = tags
	return tx.Model(course).Association("Tags").Replace(tags)
}

type LessonInput struct {
	Title           string
	Description     string
	VideoURL        string
	DurationSeconds int
	Position        int // 0 appends
}

// AddLesson appends a lesson and recomputes the stored progress of every
// enrolled user, since the new lesson changes each percentage.
func (s *AuthoringService) AddLesson(actor Actor, courseID string, in LessonInput) (*models.Lesson, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.DurationSeconds < 0 || in.Position < 0 {
		return nil, fmt.Errorf("%w: durationSeconds and position cannot be negative", ErrInvalidInput)
	}

	var lesson models.Lesson
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.First(&course, "id = ?", courseID).Error; err != nil {
			return fmt.Errorf("course %s: %w", courseID, notFound(err))
		}
		if !actor.canEdit(&course) {
			return fmt.Errorf("%w: not your course", ErrForbidden)
		}

		position := in.Position
		if position == 0 {
			var count int64
			if err := tx.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&count).Error; err != nil {
				return err
			}
			position = int(count) + 1
		}

		lesson = models.Lesson{
			CourseID:        courseID,
			Title:           strings.TrimSpace(in.Title),
			Description:     in.Description,
			VideoURL:        in.VideoURL,
			DurationSeconds: in.DurationSeconds,
			Position:        position,
		}
		if err := tx.Create(&lesson).Error; err != nil {
			return err
		}

		var userIDs []string
		if err := tx.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Pluck("user_id", &userIDs).Error; err != nil {
			return err
		}
		now := s.now()
		for _, userID := range userIDs {
			if _, err := recomputeCourseProgress(tx, now, userID, courseID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

type OptionInput struct {
	OptionText string
	IsCorrect  bool
}

type QuestionInput struct {
	Question     string
	QuestionType string
	Points       int
	Options      []OptionInput
}

type QuizInput struct {
	Title        string
	Description  string
	PassingScore int
	Questions    []QuestionInput
}

// CreateQuiz attaches a quiz to a lesson. A lesson has at most one quiz and
// every question needs a correct option.
func (s *AuthoringService) CreateQuiz(actor Actor, lessonID string, in QuizInput) (*models.Quiz, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if in.PassingScore < 0 || in.PassingScore > 100 {
		return nil, fmt.Errorf("%w: passingScore must be between 0 and 100", ErrInvalidInput)
	}

	quiz := models.Quiz{
		LessonID:     lessonID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		PassingScore: in.PassingScore,
		Questions:    make([]models.QuizQuestion, 0, len(in.Questions)),
	}
	for i, q := range in.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrInvalidInput, i+1)
		}
		if q.Points < 0 {
			return nil, fmt.Errorf("%w: question %d has negative points", ErrInvalidInput, i+1)
		}
		question := models.QuizQuestion{
			Question:     q.Question,
			QuestionType: q.QuestionType,
			Position:     i + 1,
			Points:       q.Points,
			Options:      make([]models.QuizOption, 0, len(q.Options)),
		}
		if question.QuestionType == "" {
			question.QuestionType = "multiple_choice"
		}
		hasCorrect := false
		for j, o := range q.Options {
			hasCorrect = hasCorrect || o.IsCorrect
			question.Options = append(question.Options, models.QuizOption{
				OptionText: o.OptionText,
				IsCorrect:  o.IsCorrect,
				Position:   j + 1,
			})
		}
		if !hasCorrect {
			return nil, fmt.Errorf("%w: question %d has no correct option", ErrInvalidInput, i+1)
		}
		quiz.Questions = append(quiz.Questions, question)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", lessonID).Error; err != nil {
			return fmt.Errorf("lesson %s: %w", lessonID, notFound(err))
		}
		var course models.Course
		if err := tx.First(&course, "id = ?", lesson.CourseID).Error; err != nil {
			return fmt.Errorf("course %s: %w", lesson.CourseID, notFound(err))
		}
		if !actor.canEdit(&course) {
			return fmt.Errorf("%w: not your course", ErrForbidden)
		}

		var count int64
		if err := tx.Model(&models.Quiz{}).Where("lesson_id = ?", lessonID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: lesson already has a quiz", ErrConflict)
		}

		if err := tx.Create(&quiz).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: lesson already has a quiz", ErrConflict)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (s *AuthoringService) now() time.Time {
	if s.Now == nil {
		return utcNow()
	}
	return s.Now()
}
