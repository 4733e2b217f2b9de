package services_test

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/services"
	"github.com/vytor/part107/internal/testutil/mocks"
)

func newProgress(t *testing.T) (services.ProgressService, *mocks.MockStore) {
	store := mocks.NewMockStore()
	return services.NewProgressService(store, testCatalog(t), services.WithClock(func() time.Time { return now })), store
}

func answers(ids []string, correct ...bool) []models.AnswerRecord {
	out := make([]models.AnswerRecord, len(ids))
	for i, id := range ids {
		out[i] = models.AnswerRecord{QuestionID: id, SelectedAnswer: 0, IsCorrect: correct[i]}
	}
	return out
}

func TestProgressService_Summary(t *testing.T) {
	svc, store := newProgress(t)

	store.ProgressRepo.On("LoadAll", mock.Anything).Return(map[string]models.CardScheduleState{
		"reg-001": {CardID: "reg-001", IntervalDays: 30, Repetitions: 4, EaseFactor: 2.7, NextReviewAt: now.Add(30 * 24 * time.Hour)},
		"wx-001":  {CardID: "wx-001", IntervalDays: 1, Repetitions: 0, EaseFactor: 2.3, NextReviewAt: now.Add(-time.Hour)},
		"ops-001": {CardID: "ops-001", IntervalDays: 6, Repetitions: 2, EaseFactor: 1.8, NextReviewAt: now},
	}, nil)

	today := now.Add(-2 * time.Hour)
	store.HistoryRepo.On("List", mock.Anything, models.HistoryFilter{}).Return([]models.TestAttempt{
		{ID: "t3", Date: today, TotalQuestions: 2, TimeSpentSeconds: 60, ScorePercent: 50,
			Answers: answers([]string{"wx-q001", "reg-q001"}, false, true)},
		{ID: "t2", Date: today.AddDate(0, 0, -1), TotalQuestions: 2, TimeSpentSeconds: 100, ScorePercent: 100,
			Answers: answers([]string{"ops-q001", "air-q001"}, true, true)},
		{ID: "t1", Date: today.AddDate(0, 0, -3), TotalQuestions: 1, TimeSpentSeconds: 40, ScorePercent: 0,
			Answers: answers([]string{"wx-q002"}, false)},
	}, nil)

	settings := models.DefaultSettings()
	settings.ExamDate = "2025-06-01"
	store.SettingsRepo.On("Get", mock.Anything).Return(settings, nil)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, sum.CardsStudied)
	assert.Equal(t, 1, sum.CardsMastered)
	assert.Equal(t, 2, sum.CardsStruggling)
	assert.Equal(t, 2, sum.CardsDue)
	assert.Equal(t, 2.27, sum.AvgEaseFactor)
	assert.Equal(t, 12.33, sum.AvgIntervalDays)

	assert.Equal(t, 3, sum.TestsTaken)
	assert.Equal(t, 50, sum.AverageScore)
	assert.Equal(t, 200, sum.TotalStudySeconds)
	assert.Equal(t, 2, sum.StudyStreakDays, "the gap three days ago ends the streak")
	require.NotNil(t, sum.LastTestAt)
	assert.Equal(t, today, *sum.LastTestAt)

	require.Len(t, sum.WeakAreas, 3)
	assert.Equal(t, "weather", sum.WeakAreas[0].ModuleID)
	assert.Equal(t, 0, sum.WeakAreas[0].Percentage)
	assert.Equal(t, 2, sum.WeakAreas[0].Total)
	assert.NotEmpty(t, sum.WeakAreas[0].Title)
	assert.Equal(t, "airspace", sum.WeakAreas[1].ModuleID)
	assert.Equal(t, 100, sum.WeakAreas[1].Percentage)

	require.NotNil(t, sum.DaysUntilExam)
	assert.Equal(t, 12, *sum.DaysUntilExam)

	store.AssertExpectations(t)
}

func TestProgressService_SummaryEmpty(t *testing.T) {
	svc, store := newProgress(t)
	store.ProgressRepo.On("LoadAll", mock.Anything).Return(map[string]models.CardScheduleState{}, nil)
	store.HistoryRepo.On("List", mock.Anything, mock.Anything).Return([]models.TestAttempt{}, nil)
	store.SettingsRepo.On("Get", mock.Anything).Return(models.DefaultSettings(), nil)

	sum, err := svc.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sum.CardsStudied)
	assert.Zero(t, sum.StudyStreakDays)
	assert.Empty(t, sum.WeakAreas)
	assert.Nil(t, sum.LastTestAt)
	assert.Nil(t, sum.DaysUntilExam)
}

func TestProgressService_SummaryStoreError(t *testing.T) {
	svc, store := newProgress(t)
	store.ProgressRepo.On("LoadAll", mock.Anything).Return(nil, stderrors.New("io"))

	_, err := svc.Summary(context.Background())
	requireCode(t, err, errors.ErrCodeInternal)
}

func TestProgressService_Export(t *testing.T) {
	svc, store := newProgress(t)
	state := models.CardScheduleState{CardID: "reg-001", IntervalDays: 1, Repetitions: 1, EaseFactor: 2.5, NextReviewAt: now}
	store.SettingsRepo.On("Get", mock.Anything).Return(models.DefaultSettings(), nil)
	store.ProgressRepo.On("LoadAll", mock.Anything).Return(map[string]models.CardScheduleState{"reg-001": state}, nil)
	store.HistoryRepo.On("List", mock.Anything, models.HistoryFilter{}).Return([]models.TestAttempt{}, nil)

	exp, err := svc.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now, exp.ExportDate)
	assert.Equal(t, state, exp.FlashcardProgress["reg-001"])
	assert.Empty(t, exp.TestHistory)
}

func TestProgressService_Import(t *testing.T) {
	svc, store := newProgress(t)

	doc, err := json.Marshal(map[string]any{
		"settings":          map[string]any{"name": "Robin"},
		"flashcardProgress": `{"reg-001":{"cardId":"reg-001","interval":1,"repetitions":1,"easeFactor":2.5,"nextReview":"2025-05-21T09:30:00.000Z"}}`,
		"exportDate":        "2025-05-19T00:00:00.000Z",
	})
	require.NoError(t, err)

	store.SettingsRepo.On("Save", mock.Anything, mock.MatchedBy(func(s models.Settings) bool {
		return s.Name == "Robin" && s.StudyGoal == models.DefaultSettings().StudyGoal
	})).Return(nil).Once()
	store.ProgressRepo.On("Clear", mock.Anything).Return(nil).Once()
	store.ProgressRepo.On("SaveAll", mock.Anything, mock.MatchedBy(func(m map[string]models.CardScheduleState) bool {
		return len(m) == 1 && m["reg-001"].Repetitions == 1
	})).Return(nil).Once()

	res, err := svc.Import(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, res.Settings)
	assert.Equal(t, 1, res.Cards)
	assert.Zero(t, res.Attempts)
	require.NotNil(t, res.ExportDate)

	store.HistoryRepo.AssertNotCalled(t, "ReplaceAll", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestProgressService_ImportInvalid(t *testing.T) {
	svc, _ := newProgress(t)

	_, err := svc.Import(context.Background(), []byte("definitely not json"))
	requireCode(t, err, errors.ErrCodeBadRequest)
}

func TestProgressService_ClearAll(t *testing.T) {
	svc, store := newProgress(t)
	store.ProgressRepo.On("Clear", mock.Anything).Return(nil).Once()
	store.HistoryRepo.On("Clear", mock.Anything).Return(nil).Once()
	store.SettingsRepo.On("Clear", mock.Anything).Return(nil).Once()

	require.NoError(t, svc.ClearAll(context.Background()))
	store.AssertExpectations(t)

	store.ProgressRepo.On("Clear", mock.Anything).Return(stderrors.New("busy")).Once()
	requireCode(t, svc.ClearAll(context.Background()), errors.ErrCodeInternal)
}
