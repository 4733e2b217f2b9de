package models

import "time"

// TestAttempt is one submitted practice test. It is immutable once recorded.
type TestAttempt struct {
	ID               string         `json:"id" validate:"required"`
	Date             time.Time      `json:"date" validate:"required"`
	ModuleID         string         `json:"moduleId,omitempty"`
	TotalQuestions   int            `json:"totalQuestions" validate:"gt=0"`
	TimeSpentSeconds int            `json:"timeSpent" validate:"gte=0"`
	ScorePercent     int            `json:"score" validate:"gte=0,lte=100"`
	Answers          []AnswerRecord `json:"answers" validate:"dive"`
}

type AnswerRecord struct {
	QuestionID       string `json:"questionId" validate:"required"`
	SelectedAnswer   int    `json:"selectedAnswer" validate:"gte=-1"`
	IsCorrect        bool   `json:"isCorrect"`
	TimeSpentSeconds int    `json:"timeSpent" validate:"gte=0"`
}

// CorrectCount returns the number of correctly answered questions.
func (a TestAttempt) CorrectCount() int {
	n := 0
	for _, ans := range a.Answers {
		if ans.IsCorrect {
			n++
		}
	}
	return n
}

type HistoryFilter struct {
	ModuleID string
	Since    *time.Time
	Limit    int
}
