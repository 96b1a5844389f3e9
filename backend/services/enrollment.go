package services

import (
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewEnrollmentService(db *gorm.DB) *EnrollmentService {
	return &EnrollmentService{DB: db, Now: utcNow}
}

// Enroll adds the user to a published course and seeds their course
// progress at zero. A second enrollment for the same pair is ErrConflict.
func (s *EnrollmentService) Enroll(userID, courseID string) (*models.Enrollment, *models.UserProgress, error) {
	now := utcNow()
	if s.Now != nil {
		now = s.Now()
	}

	var (
		enrollment models.Enrollment
		up         models.UserProgress
	)
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var course models.Course
		if err := tx.Where("published = ?", true).First(&course, "id = ?", courseID).Error; err != nil {
			return fmt.Errorf("course %s: %w", courseID, notFound(err))
		}
		var user models.User
		if err := tx.Select("id").First(&user, "id = ?", userID).Error; err != nil {
			return fmt.Errorf("user %s: %w", userID, notFound(err))
		}

		var count int64
		if err := tx.Model(&models.Enrollment{}).
			Where("user_id = ? AND course_id = ?", userID, courseID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: already enrolled", ErrConflict)
		}

		enrollment = models.Enrollment{UserID: userID, CourseID: courseID, EnrolledAt: now}
		if err := tx.Create(&enrollment).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: already enrolled", ErrConflict)
			}
			return err
		}

		seed := models.UserProgress{UserID: userID, CourseID: courseID, StartedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND course_id = ?", userID, courseID).First(&up).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &enrollment, &up, nil
}

// IsEnrolled reports whether the user holds an enrollment for the course.
func (s *EnrollmentService) IsEnrolled(userID, courseID string) (bool, error) {
	err := requireEnrollment(s.DB, userID, courseID)
	if errors.Is(err, ErrNotEnrolled) {
		return false, nil
	}
	return err == nil, err
}
