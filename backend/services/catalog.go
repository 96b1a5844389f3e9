package services

import (
	"errors"
	"fmt"
	"time"

	"learnhub/backend/models"

	"gorm.io/gorm"
)

type CatalogService struct {
	DB *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db}
}

type InstructorSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

type CourseSummary struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	ImageURL        string             `json:"imageUrl"`
	DifficultyLevel string             `json:"difficultyLevel"`
	DurationMinutes int                `json:"durationMinutes"`
	Published       bool               `json:"published"`
	Instructor      *InstructorSummary `json:"instructor"`
	Tags            []string           `json:"tags"`
	LessonCount     int                `json:"lessonCount"`
	CreatedAt       time.Time          `json:"createdAt"`
}

type EnrolledCourse struct {
	CourseSummary
	ProgressPercentage int        `json:"progressPercentage"`
	EnrolledAt         time.Time  `json:"enrolledAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

type Overview struct {
	Enrolled  []EnrolledCourse `json:"enrolled"`
	Available []CourseSummary  `json:"available"`
}

// ListCourses returns courses newest first with instructor and tags loaded.
func (s *CatalogService) ListCourses(publishedOnly bool) ([]CourseSummary, error) {
	q := s.DB.Preload("Instructor").Preload("Tags").Order("created_at DESC")
	if publishedOnly {
		q = q.Where("published = ?", true)
	}

	var courses []models.Course
	if err := q.Find(&courses).Error; err != nil {
		return nil, err
	}
	counts, err := lessonCounts(s.DB, courseIDs(courses))
	if err != nil {
		return nil, err
	}

	out := make([]CourseSummary, 0, len(courses))
	for i := range courses {
		out = append(out, summarize(&courses[i], counts[courses[i].ID]))
	}
	return out, nil
}

// Overview splits the published catalog into the user's enrollments, with
// their stored progress, and everything else.
func (s *CatalogService) Overview(userID string) (*Overview, error) {
	available, err := s.ListCourses(true)
	if err != nil {
		return nil, err
	}

	var enrollments []models.Enrollment
	if err := s.DB.
		Preload("Course").
		Preload("Course.Instructor").
		Preload("Course.Tags").
		Where("user_id = ?", userID).
		Order("enrolled_at DESC").
		Find(&enrollments).Error; err != nil {
		return nil, err
	}

	var rows []models.UserProgress
	if err := s.DB.Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}
	progressByCourse := make(map[string]models.UserProgress, len(rows))
	for _, up := range rows {
		progressByCourse[up.CourseID] = up
	}

	ids := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		ids = append(ids, e.CourseID)
	}
	counts, err := lessonCounts(s.DB, ids)
	if err != nil {
		return nil, err
	}

	out := &Overview{
		Enrolled:  make([]EnrolledCourse, 0, len(enrollments)),
		Available: make([]CourseSummary, 0, len(available)),
	}
	enrolled := make(map[string]bool, len(enrollments))
	for _, e := range enrollments {
		if e.Course == nil {
			continue
		}
		enrolled[e.CourseID] = true
		up := progressByCourse[e.CourseID]
		out.Enrolled = append(out.Enrolled, EnrolledCourse{
			CourseSummary:      summarize(e.Course, counts[e.CourseID]),
			ProgressPercentage: up.ProgressPercentage,
			EnrolledAt:         e.EnrolledAt,
			CompletedAt:        up.CompletedAt,
		})
	}
	for _, c := range available {
		if !enrolled[c.ID] {
			out.Available = append(out.Available, c)
		}
	}
	return out, nil
}

type LessonSummary struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationSeconds int    `json:"durationSeconds"`
	Position        int    `json:"position"`
	Completed       bool   `json:"completed"`
}

type CourseDetail struct {
	CourseSummary
	Lessons        []LessonSummary         `json:"lessons"`
	IsEnrolled     bool                    `json:"isEnrolled"`
	Progress       int                     `json:"progress"`
	LessonProgress []models.LessonProgress `json:"lessonProgress"`
}

// CourseDetail loads one course with ordered lessons and the user's progress
// through it. Unpublished courses are only visible to the people who edit them.
func (s *CatalogService) CourseDetail(viewer Actor, courseID, userID string) (*CourseDetail, error) {
	var course models.Course
	if err := s.DB.Preload("Instructor").Preload("Tags").Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, created_at")
	}).First(&course, "id = ?", courseID).Error; err != nil {
		return nil, fmt.Errorf("course %s: %w", courseID, notFound(err))
	}
	if err := visibleTo(viewer, &course); err != nil {
		return nil, err
	}

	detail := &CourseDetail{
		CourseSummary:  summarize(&course, len(course.Lessons)),
		Lessons:        make([]LessonSummary, 0, len(course.Lessons)),
		LessonProgress: []models.LessonProgress{},
	}

	completed := map[string]bool{}
	if userID != "" {
		err := requireEnrollment(s.DB, userID, courseID)
		switch {
		case err == nil:
			detail.IsEnrolled = true
		case !errors.Is(err, ErrNotEnrolled):
			return nil, err
		}

		var up models.UserProgress
		err = s.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&up).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		detail.Progress = up.ProgressPercentage

		if ids := lessonIDs(course.Lessons); len(ids) > 0 {
			if err := s.DB.Where("user_id = ? AND lesson_id IN ?", userID, ids).
				Find(&detail.LessonProgress).Error; err != nil {
				return nil, err
			}
		}
		for _, lp := range detail.LessonProgress {
			if lp.Completed {
				completed[lp.LessonID] = true
			}
		}
	}

	for _, l := range course.Lessons {
		detail.Lessons = append(detail.Lessons, LessonSummary{
			ID:              l.ID,
			Title:           l.Title,
			Description:     l.Description,
			DurationSeconds: l.DurationSeconds,
			Position:        l.Position,
			Completed:       completed[l.ID],
		})
	}
	return detail, nil
}

type LessonRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type LessonDetail struct {
	Lesson      models.Lesson          `json:"lesson"`
	CourseTitle string                 `json:"courseTitle"`
	Quiz        *QuizView              `json:"quiz"`
	Progress    *models.LessonProgress `json:"progress"`
	Previous    *LessonRef             `json:"previousLesson"`
	Next        *LessonRef             `json:"nextLesson"`
	Attempts    []models.QuizAttempt   `json:"attempts"`
}

// LessonDetail is the lesson page: the lesson, its quiz, the user's progress
// and attempts, and its neighbours. Quiz answers are only shown to the
// course's editors; everyone else must be enrolled in the course.
func (s *CatalogService) LessonDetail(viewer Actor, courseID, lessonID, userID string) (*LessonDetail, error) {
	var course models.Course
	if err := s.DB.Preload("Lessons", func(db *gorm.DB) *gorm.DB {
		return db.Order("position, created_at")
	}).First(&course, "id = ?", courseID).Error; err != nil {
		return nil, fmt.Errorf("course %s: %w", courseID, notFound(err))
	}

	var lesson *models.Lesson
	for i := range course.Lessons {
		if course.Lessons[i].ID == lessonID {
			lesson = &course.Lessons[i]
			break
		}
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", lessonID, ErrNotFound)
	}

	manages, err := contentAccess(s.DB, viewer, &course, userID)
	if err != nil {
		return nil, err
	}

	detail := &LessonDetail{Lesson: *lesson, CourseTitle: course.Title, Attempts: []models.QuizAttempt{}}
	detail.Previous, detail.Next = AdjacentLessons(course.Lessons, lessonID)

	quiz, err := loadQuiz(s.DB.Where("lesson_id = ?", lessonID))
	switch {
	case err == nil:
		view := NewQuizView(quiz, manages)
		detail.Quiz = &view
		if err := s.DB.Where("user_id = ? AND quiz_id = ?", userID, quiz.ID).
			Order("started_at DESC, created_at DESC").
			Find(&detail.Attempts).Error; err != nil {
			return nil, err
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	var lp models.LessonProgress
	err = s.DB.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&lp).Error
	switch {
	case err == nil:
		detail.Progress = &lp
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	return detail, nil
}

// AdjacentLessons returns the lessons before and after lessonID in the given
// order. Either is nil at the ends or when lessonID is absent.
func AdjacentLessons(lessons []models.Lesson, lessonID string) (prev, next *LessonRef) {
	for i := range lessons {
		if lessons[i].ID != lessonID {
			continue
		}
		if i > 0 {
			prev = lessonRef(&lessons[i-1])
		}
		if i+1 < len(lessons) {
			next = lessonRef(&lessons[i+1])
		}
		return prev, next
	}
	return nil, nil
}

func lessonRef(l *models.Lesson) *LessonRef {
	return &LessonRef{ID: l.ID, Title: l.Title, Position: l.Position}
}

func summarize(c *models.Course, lessonCount int) CourseSummary {
	cs := CourseSummary{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		ImageURL:        c.ImageURL,
		DifficultyLevel: c.DifficultyLevel,
		DurationMinutes: c.DurationMinutes,
		Published:       c.Published,
		Tags:            make([]string, 0, len(c.Tags)),
		LessonCount:     lessonCount,
		CreatedAt:       c.CreatedAt,
	}
	if c.Instructor != nil {
		cs.Instructor = &InstructorSummary{
			ID:        c.Instructor.ID,
			Name:      c.Instructor.DisplayName(),
			AvatarURL: c.Instructor.AvatarURL,
		}
	}
	for _, t := range c.Tags {
		cs.Tags = append(cs.Tags, t.Name)
	}
	return cs
}

func lessonCounts(db *gorm.DB, courseIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(courseIDs))
	if len(courseIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CourseID string
		Total    int
	}
	if err := db.Model(&models.Lesson{}).
		Select("course_id, COUNT(*) AS total").
		Where("course_id IN ?", courseIDs).
		Group("course_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.CourseID] = r.Total
	}
	return counts, nil
}

func courseIDs(courses []models.Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func lessonIDs(lessons []models.Lesson) []string {
	ids := make([]string, 0, len(lessons))
	for _, l := range lessons {
		ids = append(ids, l.ID)
	}
	return ids
}
