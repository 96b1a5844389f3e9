// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"learnhub/backend/config"
	"learnhub/backend/models"
	"learnhub/backend/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const Password = "password123"

// Config returns a configuration pointing at a fresh in-memory sqlite database.
func Config() *config.Config {
	return &config.Config{
		AppEnv:          "test",
		DBDriver:        "sqlite",
		DBPath:          fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		DBSlowThreshold: time.Second,
		JWTSecret:       "testsecret",
		JWTTTL:          time.Hour,
		BcryptCost:      bcrypt.MinCost,
		LogLevel:        "error",
	}
}

// NewDB opens and migrates an isolated database that is closed with the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	return OpenDB(t, Config())
}

func OpenDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()
	db, err := utils.InitDB(cfg, utils.DiscardLogger())
	require.NoError(t, err)
	require.NoError(t, utils.AutoMigrate(db))
	t.Cleanup(func() { _ = utils.CloseDB(db) })
	return db
}

func User(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	require.NoError(t, err)

	id := uuid.NewString()
	u := &models.User{
		Email:        id[:8] + "@example.com",
		PasswordHash: string(hash),
		Username:     "user-" + id[:8],
		Role:         role,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Course creates a course with n lessons at positions 1..n, each 100 seconds long.
func Course(t *testing.T, db *gorm.DB, instructor *models.User, published bool, n int) (*models.Course, []models.Lesson) {
	t.Helper()
	c := &models.Course{
		Title:     "Course " + uuid.NewString()[:8],
		Published: published,
	}
	if instructor != nil {
		c.InstructorID = &instructor.ID
	}
	require.NoError(t, db.Create(c).Error)

	lessons := make([]models.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		l := models.Lesson{
			CourseID:        c.ID,
			Title:           fmt.Sprintf("Lesson %d", i),
			DurationSeconds: 100,
			Position:        i,
		}
		require.NoError(t, db.Create(&l).Error)
		lessons = append(lessons, l)
	}
	return c, lessons
}

func Enroll(t *testing.T, db *gorm.DB, userID, courseID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}).Error)
}

// Quiz creates a quiz with one question per entry in points. Every question
// has a correct option first and a wrong option second.
func Quiz(t *testing.T, db *gorm.DB, lessonID string, passingScore int, points ...int) *models.Quiz {
	t.Helper()
	q := &models.Quiz{LessonID: lessonID, Title: "Quiz", PassingScore: passingScore}
	for i, p := range points {
		q.Questions = append(q.Questions, models.QuizQuestion{
			Question:     fmt.Sprintf("Question %d", i+1),
			QuestionType: "multiple_choice",
			Position:     i + 1,
			Points:       p,
			Options: []models.QuizOption{
				{OptionText: "right", IsCorrect: true, Position: 1},
				{OptionText: "wrong", Position: 2},
			},
		})
	}
	require.NoError(t, db.Create(q).Error)
	return q
}

// Correct and Wrong return the ids of a fixture question's options.
func Correct(q *models.QuizQuestion) string { return q.Options[0].ID }
func Wrong(q *models.QuizQuestion) string   { return q.Options[1].ID }
