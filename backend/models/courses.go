package models

import "time"

type Course struct {
	Base
	Title           string   `gorm:"not null" json:"title"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl"`
	DifficultyLevel string   `json:"difficultyLevel"` // beginner, intermediate, advanced
	DurationMinutes int      `json:"durationMinutes"`
	Published       bool     `gorm:"not null;default:false;index" json:"published"`
	InstructorID    *string  `gorm:"size:36;index" json:"instructorId,omitempty"`
	Instructor      *User    `json:"-"`
	Tags            []Tag    `gorm:"many2many:course_tags" json:"-"`
	Lessons         []Lesson `json:"-"`
}

type Tag struct {
	Base
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Lesson struct {
	Base
	CourseID        string `gorm:"size:36;not null;index" json:"courseId"`
	Title           string `gorm:"not null" json:"title"`
	Description     string `json:"description"`
	VideoURL        string `json:"videoUrl"`
	DurationSeconds int    `json:"durationSeconds"`
	Position        int    `gorm:"not null;default:0" json:"position"`
}

type Enrollment struct {
	Base
	UserID     string    `gorm:"size:36;not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID   string    `gorm:"size:36;not null;uniqueIndex:idx_enrollment_user_course" json:"courseId"`
	Course     *Course   `json:"-"`
	EnrolledAt time.Time `gorm:"not null" json:"enrolledAt"`
}
