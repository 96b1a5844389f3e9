// Package progress holds the completion and scoring rules shared by every
// request path that can complete a lesson.
package progress

import (
	"sort"

	"learnhub/backend/models"
)

const (
	DefaultPassingScore   = 70
	DefaultQuestionPoints = 1
	// WatchedPercentToComplete is the share of a video that counts as watched.
	WatchedPercentToComplete = 90
)

// Percent returns round(100*part/whole) with halves rounded up.
// A non-positive whole yields 0.
func Percent(part, whole int) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	if part > whole {
		part = whole
	}
	return (200*part + whole) / (2 * whole)
}

// ComputeCourseProgress returns the completion percentage of a course given
// its lesson ids and the ids of lessons the user completed. Completed ids that
// are not lessons of the course are ignored, duplicates count once.
func ComputeCourseProgress(lessonIDs, completedLessonIDs []string) int {
	lessons := make(map[string]struct{}, len(lessonIDs))
	for _, id := range lessonIDs {
		lessons[id] = struct{}{}
	}

	done := make(map[string]struct{}, len(completedLessonIDs))
	for _, id := range completedLessonIDs {
		if _, ok := lessons[id]; ok {
			done[id] = struct{}{}
		}
	}

	return Percent(len(done), len(lessons))
}

// WatchCompleted reports whether watchedSeconds reaches the completion share
// of durationSeconds. Unknown durations never complete.
func WatchCompleted(watchedSeconds, durationSeconds int) bool {
	if durationSeconds <= 0 || watchedSeconds <= 0 {
		return false
	}
	return watchedSeconds*100 >= durationSeconds*WatchedPercentToComplete
}

func PassingScore(q *models.Quiz) int {
	if q.PassingScore <= 0 {
		return DefaultPassingScore
	}
	return q.PassingScore
}

func QuestionPoints(q *models.QuizQuestion) int {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// Answer is one submitted choice.
type Answer struct {
	QuestionID       string `json:"questionId"`
	SelectedOptionID string `json:"selectedOptionId"`
	TextResponse     string `json:"textResponse,omitempty"`
}

type QuizResult struct {
	Score          int
	Passed         bool
	AchievedPoints int
	TotalPoints    int
	Responses      []models.QuizResponse
}

// ScoreQuiz grades answers against the quiz. Only the first answer for a
// question counts; unanswered questions score nothing. An option only scores
// when it belongs to the question it was submitted for.
func ScoreQuiz(quiz *models.Quiz, answers []Answer) QuizResult {
	selected := make(map[string]Answer, len(answers))
	for _, a := range answers {
		if _, seen := selected[a.QuestionID]; !seen {
			selected[a.QuestionID] = a
		}
	}

	questions := make([]models.QuizQuestion, len(quiz.Questions))
	copy(questions, quiz.Questions)
	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].Position < questions[j].Position
	})

	var result QuizResult
	result.Responses = make([]models.QuizResponse, 0, len(selected))
	for i := range questions {
		q := &questions[i]
		points := QuestionPoints(q)
		result.TotalPoints += points

		a, answered := selected[q.ID]
		if !answered {
			continue
		}

		correct := false
		for _, o := range q.Options {
			if o.ID == a.SelectedOptionID {
				correct = o.IsCorrect
				break
			}
		}
		if correct {
			result.AchievedPoints += points
		}

		result.Responses = append(result.Responses, models.QuizResponse{
			QuestionID:       q.ID,
			SelectedOptionID: a.SelectedOptionID,
			TextResponse:     a.TextResponse,
			IsCorrect:        correct,
		})
	}

	result.Score = Percent(result.AchievedPoints, result.TotalPoints)
	result.Passed = result.Score >= PassingScore(quiz)
	return result
}
