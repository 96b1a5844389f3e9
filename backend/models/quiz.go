package models

import (
	"time"

	"gorm.io/datatypes"
)

type Quiz struct {
	Base
	LessonID     string         `gorm:"size:36;not null;uniqueIndex" json:"lessonId"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `json:"description"`
	PassingScore int            `gorm:"not null;default:0" json:"passingScore"` // 0 means the default of 70
	Questions    []QuizQuestion `gorm:"constraint:OnDelete:CASCADE" json:"questions"`
}

type QuizQuestion struct {
	Base
	QuizID       string       `gorm:"size:36;not null;index" json:"quizId"`
	Question     string       `gorm:"not null" json:"question"`
	QuestionType string       `gorm:"not null;default:multiple_choice" json:"questionType"`
	Position     int          `gorm:"not null;default:0" json:"position"`
	Points       int          `gorm:"not null;default:0" json:"points"` // 0 means 1
	Options      []QuizOption `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options"`
}

type QuizOption struct {
	Base
	QuestionID string `gorm:"size:36;not null;index" json:"questionId"`
	OptionText string `gorm:"not null" json:"optionText"`
	IsCorrect  bool   `gorm:"not null;default:false" json:"isCorrect"`
	Position   int    `gorm:"not null;default:0" json:"position"`
}

type QuizAttempt struct {
	Base
	UserID      string                           `gorm:"size:36;not null;index" json:"userId"`
	QuizID      string                           `gorm:"size:36;not null;index" json:"quizId"`
	Score       int                              `gorm:"not null;default:0" json:"score"`
	Passed      bool                             `gorm:"not null;default:false" json:"passed"`
	StartedAt   time.Time                        `gorm:"not null" json:"startedAt"`
	CompletedAt *time.Time                       `json:"completedAt,omitempty"`
	Responses   datatypes.JSONSlice[QuizResponse] `json:"responses"`
}

// QuizResponse is stored inline on the attempt.
type QuizResponse struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
	TextResponse     string `json:"textResponse,omitempty"`
	IsCorrect        bool   `json:"isCorrect"`
}
