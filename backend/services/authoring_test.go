package services_test

import (
	"testing"

	"learnhub/backend/models"
	"learnhub/backend/services"
	"learnhub/backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func actor(u *models.User) services.Actor {
	return services.Actor{UserID: u.ID, Role: u.Role}
}

func TestCreateAndUpdateCourse(t *testing.T) {
	db := testutil.NewDB(t)
	instructor := testutil.User(t, db, models.RoleInstructor)
	other := testutil.User(t, db, models.RoleInstructor)
	admin := testutil.User(t, db, models.RoleAdmin)
	svc := services.NewAuthoringService(db)

	course, err := svc.CreateCourse(actor(instructor), services.CourseInput{
		Title: "Go in practice",
		Tags:  []string{"Go", "backend", "go", " "},
	})
	require.NoError(t, err)
	require.NotNil(t, course.InstructorID)
	assert.Equal(t, instructor.ID, *course.InstructorID)
	assert.False(t, course.Published)
	assert.Len(t, course.Tags, 2)

	_, err = svc.CreateCourse(actor(instructor), services.CourseInput{Title: "x", InstructorID: other.ID})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.CreateCourse(actor(instructor), services.CourseInput{Title: "  "})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	published := true
	title := "Go in production"
	tags := []string{"go"}
	updated, err := svc.UpdateCourse(actor(instructor), course.ID, services.CoursePatch{
		Title:     &title,
		Published: &published,
		Tags:      &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.True(t, updated.Published)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "go", updated.Tags[0].Name)

	_, err = svc.UpdateCourse(actor(other), course.ID, services.CoursePatch{Title: &title})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.UpdateCourse(actor(admin), course.ID, services.CoursePatch{Published: new(bool)})
	assert.NoError(t, err)
	_, err = svc.UpdateCourse(actor(admin), "missing", services.CoursePatch{})
	assert.ErrorIs(t, err, services.ErrNotFound)

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(2), tagCount)
}

func TestAddLessonRecomputesProgress(t *testing.T) {
	db := testutil.NewDB(t)
	admin := testutil.User(t, db, models.RoleAdmin)
	student := testutil.User(t, db, models.RoleStudent)
	course, lessons := testutil.Course(t, db, nil, true, 1)
	svc := services.NewAuthoringService(db)

	_, _, err := services.NewEnrollmentService(db).Enroll(student.ID, course.ID)
	require.NoError(t, err)
	res, err := services.NewProgressService(db).UpdateLessonProgress(services.LessonProgressUpdate{
		UserID: student.ID, LessonID: lessons[0].ID, Completed: true,
	})
	require.NoError(t, err)
	require.Equal(t, 100, res.CourseProgress.ProgressPercentage)
	require.NotNil(t, res.CourseProgress.CompletedAt)

	lesson, err := svc.AddLesson(actor(admin), course.ID, services.LessonInput{Title: "Bonus", DurationSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, 2, lesson.Position)

	var up models.UserProgress
	require.NoError(t, db.Where("user_id = ? AND course_id = ?", student.ID, course.ID).First(&up).Error)
	assert.Equal(t, 50, up.ProgressPercentage)
	assert.Nil(t, up.CompletedAt)

	_, err = svc.AddLesson(actor(student), course.ID, services.LessonInput{Title: "Nope"})
	assert.ErrorIs(t, err, services.ErrForbidden)
	_, err = svc.AddLesson(actor(admin), "missing", services.LessonInput{Title: "Nope"})
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestCreateQuiz(t *testing.T) {
	db := testutil.NewDB(t)
	instructor := testutil.User(t, db, models.RoleInstructor)
	_, lessons := testutil.Course(t, db, instructor, true, 1)
	svc := services.NewAuthoringService(db)

	in := services.QuizInput{
		Title: "Checkpoint",
		Questions: []services.QuestionInput{
			{Question: "2+2?", Points: 2, Options: []services.OptionInput{
				{OptionText: "4", IsCorrect: true},
				{OptionText: "5"},
			}},
			{Question: "Go has generics?", Options: []services.OptionInput{
				{OptionText: "yes", IsCorrect: true},
				{OptionText: "no"},
			}},
		},
	}
	quiz, err := svc.CreateQuiz(actor(instructor), lessons[0].ID, in)
	require.NoError(t, err)

	loaded, manages, err := services.NewQuizService(db).GetQuiz(actor(instructor), instructor.ID, quiz.ID)
	require.NoError(t, err)
	assert.True(t, manages)
	require.Len(t, loaded.Questions, 2)
	assert.Equal(t, 1, loaded.Questions[0].Position)
	assert.Equal(t, "multiple_choice", loaded.Questions[0].QuestionType)
	require.Len(t, loaded.Questions[0].Options, 2)
	assert.True(t, loaded.Questions[0].Options[0].IsCorrect)

	_, err = svc.CreateQuiz(actor(instructor), lessons[0].ID, in)
	assert.ErrorIs(t, err, services.ErrConflict)

	in.Questions[0].Options[0].IsCorrect = false
	_, err = svc.CreateQuiz(actor(instructor), lessons[0].ID, in)
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	in.Questions[0].Options[0].IsCorrect = true
	_, err = svc.CreateQuiz(actor(instructor), "missing", in)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
