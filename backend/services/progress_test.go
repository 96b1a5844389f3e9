package services_test

import (
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestUpdateLessonProgressAggregatesCourse(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 4)
	testutil.Enroll(t, db, student.ID, course.ID)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := services.NewProgressService(db)
	svc.Now = fixedClock(now)

	complete := func(l models.Lesson) *services.LessonProgressResult {
		res, err := svc.UpdateLessonProgress(services.LessonProgressUpdate{
			UserID:         student.ID,
			LessonID:       l.ID,
			WatchedSeconds: intPtr(100),
			Completed:      true,
		})
		require.NoError(t, err)
		return res
	}

	complete(lessons[0])
	res := complete(lessons[2])
	require.NotNil(t, res.CourseProgress)
	assert.Equal(t, 50, res.CourseProgress.ProgressPercentage)
	assert.Nil(t, res.CourseProgress.CompletedAt)

	complete(lessons[1])
	res = complete(lessons[3])
	assert.Equal(t, 100, res.CourseProgress.ProgressPercentage)
	require.NotNil(t, res.CourseProgress.CompletedAt)
	assert.True(t, now.Equal(*res.CourseProgress.CompletedAt))

	var stored models.UserProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&stored).Error)
	assert.Equal(t, 100, stored.ProgressPercentage)
}

func TestUpdateLessonProgressCompletionIsARatchet(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 3)
	testutil.Enroll(t, db, student.ID, course.ID)
	svc := services.NewProgressService(db)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	res, err := svc.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:      student.ID,
		LessonID:    lessons[0].ID,
		Completed:   true,
		CompletedAt: &at,
	})
	require.NoError(t, err)
	assert.Equal(t, 33, res.CourseProgress.ProgressPercentage)

	res, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:         student.ID,
		LessonID:       lessons[0].ID,
		WatchedSeconds: intPtr(10),
		Completed:      false,
	})
	require.NoError(t, err)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 10, res.Progress.WatchedSeconds)
	require.NotNil(t, res.Progress.CompletedAt)
	assert.True(t, at.Equal(*res.Progress.CompletedAt))
	assert.Equal(t, 33, res.CourseProgress.ProgressPercentage)

	var count int64
	require.NoError(t, db.Model(&models.LessonProgress{}).Where("user_id = ?", student.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpdateLessonProgressWatchThreshold(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 2)
	testutil.Enroll(t, db, student.ID, course.ID)
	svc := services.NewProgressService(db)

	res, err := svc.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:         student.ID,
		LessonID:       lessons[0].ID,
		WatchedSeconds: intPtr(89),
	})
	require.NoError(t, err)
	assert.False(t, res.Progress.Completed)
	assert.Nil(t, res.CourseProgress)

	res, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:         student.ID,
		LessonID:       lessons[0].ID,
		WatchedSeconds: intPtr(90),
	})
	require.NoError(t, err)
	assert.True(t, res.Progress.Completed)
	assert.Equal(t, 50, res.CourseProgress.ProgressPercentage)

	// the reported duration wins over the stored one
	res, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{
		UserID:          student.ID,
		LessonID:        lessons[1].ID,
		WatchedSeconds:  intPtr(90),
		DurationSeconds: 1000,
	})
	require.NoError(t, err)
	assert.False(t, res.Progress.Completed)
}

func TestUpdateLessonProgressErrors(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	_, lessons := testutil.Course(t, db, nil, true, 1)
	svc := services.NewProgressService(db)

	_, err := svc.UpdateLessonProgress(services.LessonProgressUpdate{UserID: student.ID, LessonID: "missing"})
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{UserID: student.ID, LessonID: lessons[0].ID, Completed: true})
	assert.ErrorIs(t, err, services.ErrNotEnrolled)

	_, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{UserID: student.ID, LessonID: lessons[0].ID, WatchedSeconds: intPtr(-1)})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	var count int64
	require.NoError(t, db.Model(&models.LessonProgress{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestGetLessonProgress(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	testutil.Enroll(t, db, student.ID, course.ID)
	svc := services.NewProgressService(db)

	lp, err := svc.GetLessonProgress(student.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Nil(t, lp)

	_, err = svc.UpdateLessonProgress(services.LessonProgressUpdate{UserID: student.ID, LessonID: lessons[0].ID, WatchedSeconds: intPtr(12)})
	require.NoError(t, err)

	lp, err = svc.GetLessonProgress(student.ID, lessons[0].ID)
	require.NoError(t, err)
	require.NotNil(t, lp)
	assert.Equal(t, 12, lp.WatchedSeconds)

	_, err = svc.GetLessonProgress(student.ID, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRecomputeCourseProgressWithoutLessons(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, _ := testutil.Course(t, db, nil, true, 0)

	up, err := services.NewProgressService(db).RecomputeCourseProgress(student.ID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, up.ProgressPercentage)
	assert.Nil(t, up.CompletedAt)
}

func TestCourseAnalytics(t *testing.T) {
	db := testutil.NewDB(t)
	course, lessons := testutil.Course(t, db, nil, true, 2)
	svc := services.NewProgressService(db)

	for i := 0; i < 2; i++ {
		u := testutil.User(t, db, models.RoleStudent)
		_, _, err := services.NewEnrollmentService(db).Enroll(u.ID, course.ID)
		require.NoError(t, err)
		for _, l := range lessons[:i+1] {
			_, err := svc.UpdateLessonProgress(services.LessonProgressUpdate{UserID: u.ID, LessonID: l.ID, Completed: true})
			require.NoError(t, err)
		}
	}

	admin := services.Actor{UserID: "admin", Role: models.RoleAdmin}
	a, err := svc.CourseAnalytics(admin, course.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Stats.TotalEnrollments)
	assert.Equal(t, int64(1), a.Stats.Completed)
	assert.InDelta(t, 75.0, a.Stats.AvgProgress, 0.001)
	require.Len(t, a.LessonStats, 2)
	assert.Equal(t, int64(2), a.LessonStats[0].Completed)
	assert.Equal(t, int64(1), a.LessonStats[1].Completed)
	require.Len(t, a.Enrollments, 1)
	assert.Equal(t, int64(2), a.Enrollments[0].Enrollments)

	_, err = svc.CourseAnalytics(admin, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)

	stranger := testutil.User(t, db, models.RoleInstructor)
	_, err = svc.CourseAnalytics(services.Actor{UserID: stranger.ID, Role: stranger.Role}, course.ID)
	assert.ErrorIs(t, err, services.ErrForbidden)
}
