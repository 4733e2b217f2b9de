package models

import "time"

// ProgressSummary aggregates stored progress for the overview screen.
type ProgressSummary struct {
	CardsStudied      int           `json:"cards_studied"`
	CardsMastered     int           `json:"cards_mastered"`
	CardsStruggling   int           `json:"cards_struggling"`
	CardsDue          int           `json:"cards_due"`
	AvgEaseFactor     float64       `json:"avg_ease_factor"`
	AvgIntervalDays   float64       `json:"avg_interval_days"`
	TestsTaken        int           `json:"tests_taken"`
	AverageScore      int           `json:"average_score"`
	TotalStudySeconds int           `json:"total_study_seconds"`
	StudyStreakDays   int           `json:"study_streak_days"`
	WeakAreas         []ModuleScore `json:"weak_areas"`
	LastTestAt        *time.Time    `json:"last_test_at,omitempty"`
	DaysUntilExam     *int          `json:"days_until_exam,omitempty"`
}

type ModuleScore struct {
	ModuleID   string `json:"module_id"`
	Title      string `json:"title"`
	Correct    int    `json:"correct"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
}
