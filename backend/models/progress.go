package models

import "time"

// LessonProgress is the per (user, lesson) watch state. At most one row per pair.
type LessonProgress struct {
	Base
	UserID         string     `gorm:"size:36;not null;uniqueIndex:idx_lesson_progress_user_lesson" json:"userId"`
	LessonID       string     `gorm:"size:36;not null;uniqueIndex:idx_lesson_progress_user_lesson" json:"lessonId"`
	WatchedSeconds int        `gorm:"not null;default:0" json:"watchedSeconds"`
	Completed      bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }

// UserProgress is the derived course completion for a (user, course) pair.
type UserProgress struct {
	Base
	UserID             string     `gorm:"size:36;not null;uniqueIndex:idx_user_progress_user_course" json:"userId"`
	CourseID           string     `gorm:"size:36;not null;uniqueIndex:idx_user_progress_user_course" json:"courseId"`
	ProgressPercentage int        `gorm:"not null;default:0" json:"progressPercentage"`
	StartedAt          time.Time  `gorm:"not null" json:"startedAt"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
}

func (UserProgress) TableName() string { return "user_progress" }
