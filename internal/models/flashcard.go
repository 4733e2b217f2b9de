package models

import "time"

// CardScheduleState is the spaced-repetition state persisted per reviewed card.
// JSON names follow the persisted progress layout.
type CardScheduleState struct {
	CardID       string    `json:"cardId" validate:"required"`
	IntervalDays int       `json:"interval" validate:"gte=0"`
	Repetitions  int       `json:"repetitions" validate:"gte=0"`
	EaseFactor   float64   `json:"easeFactor" validate:"gte=1.3"`
	NextReviewAt time.Time `json:"nextReview" validate:"required"`
	// Difficulty is 5 minus the last quality rating. Display only.
	Difficulty int `json:"difficulty"`
}

// IsDue reports whether the card's next review time has passed.
func (s CardScheduleState) IsDue(now time.Time) bool {
	return !now.Before(s.NextReviewAt)
}
