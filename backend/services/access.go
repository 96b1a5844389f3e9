package services

import (
	"fmt"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

// visibleTo hides unpublished courses from everyone who cannot edit them.
func visibleTo(viewer Actor, course *models.Course) error {
	if !course.Published && !viewer.canEdit(course) {
		return fmt.Errorf("course %s: %w", course.ID, ErrNotFound)
	}
	return nil
}

// contentAccess gates lessons and quizzes read on behalf of userID. Editors
// of the course always pass and manages is true; anyone else needs the course
// published and userID enrolled in it.
func contentAccess(db *gorm.DB, viewer Actor, course *models.Course, userID string) (manages bool, err error) {
	if viewer.canEdit(course) {
		return true, nil
	}
	if err := visibleTo(viewer, course); err != nil {
		return false, err
	}
	return false, requireEnrollment(db, userID, course.ID)
}

// quizCourse resolves the course a quiz belongs to through its lesson.
func quizCourse(db *gorm.DB, quizID string) (*models.Course, error) {
	var quiz models.Quiz
	if err := db.Select("id", "lesson_id").First(&quiz, "id = ?", quizID).Error; err != nil {
		return nil, fmt.Errorf("quiz %s: %w", quizID, notFound(err))
	}
	var lesson models.Lesson
	if err := db.Select("id", "course_id").First(&lesson, "id = ?", quiz.LessonID).Error; err != nil {
		return nil, fmt.Errorf("lesson %s: %w", quiz.LessonID, notFound(err))
	}
	var course models.Course
	if err := db.First(&course, "id = ?", lesson.CourseID).Error; err != nil {
		return nil, fmt.Errorf("course %s: %w", lesson.CourseID, notFound(err))
	}
	return &course, nil
}
