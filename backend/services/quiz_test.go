package services_test

import (
	"testing"
	"time"

	"learnhub/backend/models"
	"learnhub/backend/progress"
	"learnhub/backend/services"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAttemptPassCompletesLesson(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 2)
	testutil.Enroll(t, db, student.ID, course.ID)
	fixture := testutil.Quiz(t, db, lessons[1].ID, 0, 1, 3)

	svc := services.NewQuizService(db)
	attempt, err := svc.CreateAttempt(student.ID, fixture.ID, time.Time{})
	require.NoError(t, err)
	assert.Nil(t, attempt.CompletedAt)

	res, err := svc.SubmitAttempt(services.SubmitAttemptInput{
		UserID:    student.ID,
		QuizID:    fixture.ID,
		AttemptID: attempt.ID,
		Answers: []progress.Answer{
			{QuestionID: fixture.Questions[0].ID, SelectedOptionID: testutil.Wrong(&fixture.Questions[0])},
			{QuestionID: fixture.Questions[1].ID, SelectedOptionID: testutil.Correct(&fixture.Questions[1])},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 75, res.Attempt.Score)
	assert.True(t, res.Attempt.Passed)
	assert.Equal(t, 3, res.AchievedPoints)
	assert.Equal(t, 4, res.TotalPoints)
	require.NotNil(t, res.Attempt.CompletedAt)
	require.Len(t, res.Attempt.Responses, 2)
	assert.False(t, res.Attempt.Responses[0].IsCorrect)
	assert.True(t, res.Attempt.Responses[1].IsCorrect)

	require.NotNil(t, res.LessonProgress)
	assert.True(t, res.LessonProgress.Completed)
	assert.Equal(t, lessons[1].ID, res.LessonProgress.LessonID)
	require.NotNil(t, res.CourseProgress)
	assert.Equal(t, 50, res.CourseProgress.ProgressPercentage)

	var stored models.QuizAttempt
	require.NoError(t, db.First(&stored, "id = ?", attempt.ID).Error)
	assert.Equal(t, 75, stored.Score)
	assert.Len(t, stored.Responses, 2)
}

func TestSubmitAttemptFailLeavesLessonOpen(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	testutil.Enroll(t, db, student.ID, course.ID)
	fixture := testutil.Quiz(t, db, lessons[0].ID, 0, 1, 1)

	svc := services.NewQuizService(db)
	attempt, err := svc.CreateAttempt(student.ID, fixture.ID, time.Time{})
	require.NoError(t, err)

	res, err := svc.SubmitAttempt(services.SubmitAttemptInput{
		UserID:    student.ID,
		QuizID:    fixture.ID,
		AttemptID: attempt.ID,
		Answers: []progress.Answer{
			{QuestionID: fixture.Questions[0].ID, SelectedOptionID: testutil.Correct(&fixture.Questions[0])},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, res.Attempt.Score)
	assert.False(t, res.Attempt.Passed)
	assert.Nil(t, res.LessonProgress)
	assert.Nil(t, res.CourseProgress)

	var count int64
	require.NoError(t, db.Model(&models.LessonProgress{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmitAttemptRules(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	other := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	testutil.Enroll(t, db, student.ID, course.ID)
	fixture := testutil.Quiz(t, db, lessons[0].ID, 0, 1)
	svc := services.NewQuizService(db)

	_, err := svc.CreateAttempt(other.ID, fixture.ID, time.Time{})
	assert.ErrorIs(t, err, services.ErrNotEnrolled)

	_, err = svc.CreateAttempt(student.ID, "missing", time.Time{})
	assert.ErrorIs(t, err, services.ErrNotFound)

	started := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	attempt, err := svc.CreateAttempt(student.ID, fixture.ID, started)
	require.NoError(t, err)
	assert.True(t, started.Equal(attempt.StartedAt))

	submit := services.SubmitAttemptInput{UserID: other.ID, QuizID: fixture.ID, AttemptID: attempt.ID}
	_, err = svc.SubmitAttempt(submit)
	assert.ErrorIs(t, err, services.ErrForbidden)

	submit.UserID = student.ID
	submit.QuizID = "other-quiz"
	_, err = svc.SubmitAttempt(submit)
	assert.ErrorIs(t, err, services.ErrNotFound)

	submit.QuizID = fixture.ID
	_, err = svc.SubmitAttempt(submit)
	require.NoError(t, err)
	_, err = svc.SubmitAttempt(submit)
	assert.ErrorIs(t, err, services.ErrConflict)
}

func TestListAttemptsNewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	testutil.Enroll(t, db, student.ID, course.ID)
	fixture := testutil.Quiz(t, db, lessons[0].ID, 0, 1)
	svc := services.NewQuizService(db)

	first, err := svc.CreateAttempt(student.ID, fixture.ID, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := svc.CreateAttempt(student.ID, fixture.ID, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	attempts, err := svc.ListAttempts(actor(student), student.ID, fixture.ID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, second.ID, attempts[0].ID)
	assert.Equal(t, first.ID, attempts[1].ID)

	_, err = svc.ListAttempts(actor(student), student.ID, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestGetQuizAndView(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	testutil.Enroll(t, db, student.ID, course.ID)
	fixture := testutil.Quiz(t, db, lessons[0].ID, 0, 2, 0)

	quiz, manages, err := services.NewQuizService(db).GetQuiz(actor(student), student.ID, fixture.ID)
	require.NoError(t, err)
	assert.False(t, manages)
	require.Len(t, quiz.Questions, 2)
	assert.Equal(t, "Question 1", quiz.Questions[0].Question)
	assert.Equal(t, "right", quiz.Questions[0].Options[0].OptionText)

	hidden := services.NewQuizView(quiz, false)
	assert.Equal(t, progress.DefaultPassingScore, hidden.PassingScore)
	assert.Equal(t, 1, hidden.Questions[1].Points)
	assert.Nil(t, hidden.Questions[0].Options[0].IsCorrect)

	shown := services.NewQuizView(quiz, true)
	require.NotNil(t, shown.Questions[0].Options[0].IsCorrect)
	assert.True(t, *shown.Questions[0].Options[0].IsCorrect)

	_, _, err = services.NewQuizService(db).GetQuiz(actor(student), student.ID, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestQuizReadsRequirePublishedEnrolledCourse(t *testing.T) {
	db := testutil.NewDB(t)
	student := testutil.User(t, db, models.RoleStudent)
	owner := testutil.User(t, db, models.RoleInstructor)
	other := testutil.User(t, db, models.RoleInstructor)
	published, lessons := testutil.Course(t, db, owner, true, 1)
	open := testutil.Quiz(t, db, lessons[0].ID, 0, 1)
	_, draftLessons := testutil.Course(t, db, owner, false, 1)
	hidden := testutil.Quiz(t, db, draftLessons[0].ID, 0, 1)
	svc := services.NewQuizService(db)

	_, _, err := svc.GetQuiz(actor(student), student.ID, open.ID)
	assert.ErrorIs(t, err, services.ErrNotEnrolled)
	_, err = svc.ListAttempts(actor(student), student.ID, open.ID)
	assert.ErrorIs(t, err, services.ErrNotEnrolled)

	_, _, err = svc.GetQuiz(actor(student), student.ID, hidden.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, err = svc.ListAttempts(actor(student), student.ID, hidden.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, _, err = svc.GetQuiz(actor(other), other.ID, hidden.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)

	_, manages, err := svc.GetQuiz(actor(owner), owner.ID, hidden.ID)
	require.NoError(t, err)
	assert.True(t, manages)

	testutil.Enroll(t, db, student.ID, published.ID)
	_, manages, err = svc.GetQuiz(actor(student), student.ID, open.ID)
	require.NoError(t, err)
	assert.False(t, manages)
	attempts, err := svc.ListAttempts(actor(student), student.ID, open.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
