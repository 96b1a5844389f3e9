package services

import (
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/progress"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewProgressService(db *gorm.DB) *ProgressService {
	return &ProgressService{DB: db, Now: utcNow}
}

// LessonProgressUpdate is one report from the player. WatchedSeconds nil
// leaves the stored value untouched. DurationSeconds overrides the lesson's
// own duration when checking the watch threshold.
type LessonProgressUpdate struct {
	UserID          string
	LessonID        string
	WatchedSeconds  *int
	Completed       bool
	CompletedAt     *time.Time
	DurationSeconds int
}

// LessonProgressResult carries the course progress only when the lesson is
// complete and the course aggregate was recomputed.
type LessonProgressResult struct {
	Progress       *models.LessonProgress
	CourseProgress *models.UserProgress
}

// GetLessonProgress returns nil without error when the user has no record yet.
func (s *ProgressService) GetLessonProgress(userID, lessonID string) (*models.LessonProgress, error) {
	var lesson models.Lesson
	if err := s.DB.Select("id").First(&lesson, "id = ?", lessonID).Error; err != nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, notFound(err))
	}

	var lp models.LessonProgress
	err := s.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&lp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lp, nil
}

// UpdateLessonProgress records watch state and, once the lesson is complete,
// recomputes the course percentage in the same transaction.
func (s *ProgressService) UpdateLessonProgress(in LessonProgressUpdate) (*LessonProgressResult, error) {
	if in.WatchedSeconds != nil && *in.WatchedSeconds < 0 {
		return nil, fmt.Errorf("%w: watchedSeconds cannot be negative", ErrInvalidInput)
	}

	var result *LessonProgressResult
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var lesson models.Lesson
		if err := tx.First(&lesson, "id = ?", in.LessonID).Error; err != nil {
			return fmt.Errorf("lesson %s: %w", in.LessonID, notFound(err))
		}
		if err := requireEnrollment(tx, in.UserID, lesson.CourseID); err != nil {
			return err
		}

		var err error
		result, err = applyLessonProgress(tx, s.now(), &lesson, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecomputeCourseProgress rebuilds the stored percentage for one user and course.
func (s *ProgressService) RecomputeCourseProgress(userID, courseID string) (*models.UserProgress, error) {
	var up *models.UserProgress
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		up, err = recomputeCourseProgress(tx, s.now(), userID, courseID)
		return err
	})
	return up, err
}

func (s *ProgressService) now() time.Time {
	if s.Now == nil {
		return utcNow()
	}
	return s.Now()
}

// applyLessonProgress is the single completion path shared by the player and
// quiz submission. Completion never regresses.
func applyLessonProgress(tx *gorm.DB, now time.Time, lesson *models.Lesson, in LessonProgressUpdate) (*LessonProgressResult, error) {
	var lp models.LessonProgress
	err := tx.Where("user_id = ? AND lesson_id = ?", in.UserID, lesson.ID).First(&lp).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lp = models.LessonProgress{UserID: in.UserID, LessonID: lesson.ID}
	case err != nil:
		return nil, err
	}

	if in.WatchedSeconds != nil {
		lp.WatchedSeconds = *in.WatchedSeconds
	}

	duration := in.DurationSeconds
	if duration <= 0 {
		duration = lesson.DurationSeconds
	}
	if !lp.Completed && (in.Completed || progress.WatchCompleted(lp.WatchedSeconds, duration)) {
		at := now
		if in.CompletedAt != nil && !in.CompletedAt.IsZero() {
			at = in.CompletedAt.UTC()
		}
		lp.Completed = true
		lp.CompletedAt = &at
	}

	if err := upsertLessonProgress(tx, &models.LessonProgress{
		UserID:         in.UserID,
		LessonID:       lesson.ID,
		WatchedSeconds: lp.WatchedSeconds,
		Completed:      lp.Completed,
		CompletedAt:    lp.CompletedAt,
	}); err != nil {
		return nil, err
	}
	var stored models.LessonProgress
	if err := tx.Where("user_id = ? AND lesson_id = ?", in.UserID, lesson.ID).First(&stored).Error; err != nil {
		return nil, err
	}

	result := &LessonProgressResult{Progress: &stored}
	if stored.Completed {
		up, err := recomputeCourseProgress(tx, now, in.UserID, lesson.CourseID)
		if err != nil {
			return nil, err
		}
		result.CourseProgress = up
	}
	return result, nil
}

// upsertLessonProgress writes row keyed by (user, lesson). A row that lost a
// race to a concurrent insert updates the winner instead and keeps its
// completion.
func upsertLessonProgress(tx *gorm.DB, row *models.LessonProgress) error {
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Set{
			{Column: clause.Column{Name: "watched_seconds"}, Value: gorm.Expr("excluded.watched_seconds")},
			{Column: clause.Column{Name: "completed"}, Value: gorm.Expr("lesson_progress.completed OR excluded.completed")},
			{Column: clause.Column{Name: "completed_at"}, Value: gorm.Expr("COALESCE(lesson_progress.completed_at, excluded.completed_at)")},
			{Column: clause.Column{Name: "updated_at"}, Value: gorm.Expr("excluded.updated_at")},
		},
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert lesson progress: %w", err)
	}
	return nil
}

func recomputeCourseProgress(tx *gorm.DB, now time.Time, userID, courseID string) (*models.UserProgress, error) {
	var lessonIDs []string
	if err := tx.Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Order("position, created_at").
		Pluck("id", &lessonIDs).Error; err != nil {
		return nil, fmt.Errorf("load lessons: %w", err)
	}

	var completedIDs []string
	if len(lessonIDs) > 0 {
		if err := tx.Model(&models.LessonProgress{}).
			Where("user_id = ? AND completed = ? AND lesson_id IN ?", userID, true, lessonIDs).
			Pluck("lesson_id", &completedIDs).Error; err != nil {
			return nil, fmt.Errorf("load completed lessons: %w", err)
		}
	}

	percent := progress.ComputeCourseProgress(lessonIDs, completedIDs)

	var existing models.UserProgress
	err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&existing).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	up := models.UserProgress{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: percent,
		StartedAt:          now,
	}
	if found {
		up.StartedAt = existing.StartedAt
	}
	if percent == 100 {
		if found && existing.CompletedAt != nil {
			up.CompletedAt = existing.CompletedAt
		} else {
			up.CompletedAt = &now
		}
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress_percentage", "completed_at", "updated_at"}),
	}).Create(&up).Error; err != nil {
		return nil, fmt.Errorf("upsert course progress: %w", err)
	}

	var stored models.UserProgress
	if err := tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

func requireEnrollment(tx *gorm.DB, userID, courseID string) error {
	var count int64
	if err := tx.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotEnrolled
	}
	return nil
}

type CourseStats struct {
	TotalEnrollments int64   `json:"totalEnrollments"`
	Completed        int64   `json:"completed"`
	AvgProgress      float64 `json:"avgProgress"`
}

type LessonStat struct {
	LessonID    string `json:"lessonId"`
	LessonTitle string `json:"lessonTitle"`
	Position    int    `json:"position"`
	Completed   int64  `json:"completed"`
}

type EnrollmentTrend struct {
	Date        string `json:"date"`
	Enrollments int64  `json:"enrollments"`
}

type CourseAnalytics struct {
	CourseID    string            `json:"courseId"`
	CourseTitle string            `json:"courseTitle"`
	Stats       CourseStats       `json:"stats"`
	LessonStats []LessonStat      `json:"lessonStats"`
	Enrollments []EnrollmentTrend `json:"enrollments"`
}

// CourseAnalytics summarises enrollments and completion for one course.
func (s *ProgressService) CourseAnalytics(viewer Actor, courseID string) (*CourseAnalytics, error) {
	var course models.Course
	if err := s.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return nil, fmt.Errorf("course %s: %w", courseID, notFound(err))
	}
	if !viewer.canEdit(&course) {
		return nil, fmt.Errorf("%w: not your course", ErrForbidden)
	}

	out := &CourseAnalytics{CourseID: course.ID, CourseTitle: course.Title}

	if err := s.DB.Model(&models.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&out.Stats.TotalEnrollments).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.UserProgress{}).
		Where("course_id = ? AND progress_percentage >= 100", courseID).
		Count(&out.Stats.Completed).Error; err != nil {
		return nil, err
	}
	if err := s.DB.Model(&models.UserProgress{}).
		Select("COALESCE(AVG(progress_percentage), 0)").
		Where("course_id = ?", courseID).
		Scan(&out.Stats.AvgProgress).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Raw(`
		SELECT l.id AS lesson_id, l.title AS lesson_title, l.position AS position,
		COUNT(lp.id) AS completed
		FROM lessons l
		LEFT JOIN lesson_progress lp ON lp.lesson_id = l.id AND lp.completed = ?
		WHERE l.course_id = ?
		GROUP BY l.id, l.title, l.position
		ORDER BY l.position
	`, true, courseID).Scan(&out.LessonStats).Error; err != nil {
		return nil, err
	}

	if err := s.DB.Raw(`
		SELECT DATE(enrolled_at) AS date, COUNT(*) AS enrollments
		FROM enrollments
		WHERE course_id = ?
		GROUP BY DATE(enrolled_at)
		ORDER BY date
	`, courseID).Scan(&out.Enrollments).Error; err != nil {
		return nil, err
	}

	return out, nil
}
