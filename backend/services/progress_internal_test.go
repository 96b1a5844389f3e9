package services

import (
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertLessonProgressKeepsConcurrentCompletion(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	_, lessons := testutil.Course(t, db, nil, true, 1)

	// The winner of the race already completed the lesson.
	done := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	winner := &models.LessonProgress{
		UserID: student.ID, LessonID: lessons[0].ID,
		WatchedSeconds: 95, Completed: true, CompletedAt: &done,
	}
	require.NoError(t, db.Create(winner).Error)

	// The loser read no row and now inserts a fresh, incomplete one.
	require.NoError(t, upsertLessonProgress(db, &models.LessonProgress{
		UserID: student.ID, LessonID: lessons[0].ID, WatchedSeconds: 40,
	}))

	var rows []models.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", student.ID, lessons[0].ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, winner.ID, rows[0].ID)
	assert.Equal(t, 40, rows[0].WatchedSeconds)
	assert.True(t, rows[0].Completed)
	require.NotNil(t, rows[0].CompletedAt)
	assert.True(t, done.Equal(*rows[0].CompletedAt))
}

func TestUpsertLessonProgressInsertsFirstReport(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	_, lessons := testutil.Course(t, db, nil, true, 1)

	require.NoError(t, upsertLessonProgress(db, &models.LessonProgress{
		UserID: student.ID, LessonID: lessons[0].ID, WatchedSeconds: 10,
	}))

	var lp models.LessonProgress
	require.NoError(t, db.Where("user_id = ? AND lesson_id = ?", student.ID, lessons[0].ID).First(&lp).Error)
	assert.Equal(t, 10, lp.WatchedSeconds)
	assert.False(t, lp.Completed)
	assert.Nil(t, lp.CompletedAt)
}
