package jsonfile_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/repository/jsonfile"
)

var due = time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)

func openStore(t *testing.T) (*jsonfile.Store, string) {
	path := filepath.Join(t.TempDir(), "data", "progress.json")
	store, err := jsonfile.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func state(id string, reps int) models.CardScheduleState {
	return models.CardScheduleState{CardID: id, IntervalDays: reps, Repetitions: reps, EaseFactor: 2.5, NextReviewAt: due}
}

func TestStore_EmptyFile(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	got, err := store.Progress().Load(ctx, "reg-001")
	require.NoError(t, err)
	assert.Nil(t, got)

	settings, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), settings)

	assert.NoError(t, store.Ping(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "reads do not create the file")
}

func TestStore_ProgressRoundTrip(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Progress().SaveAll(ctx, map[string]models.CardScheduleState{"reg-001": state("reg-001", 1)}))
	require.NoError(t, store.Progress().SaveAll(ctx, map[string]models.CardScheduleState{"reg-001": state("reg-001", 2), "air-001": state("air-001", 1)}))

	got, err := store.Progress().Load(ctx, "reg-001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Repetitions)
	assert.True(t, due.Equal(got.NextReviewAt))

	// A second store over the same file sees the same data.
	other, err := jsonfile.Open(path)
	require.NoError(t, err)
	defer other.Close()
	all, err := other.Progress().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	var raw map[string]json.RawMessage
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "flashcardProgress")
	assert.Contains(t, raw, "testHistory")
	assert.Contains(t, raw, "settings")

	require.NoError(t, store.Progress().Clear(ctx))
	all, err = store.Progress().LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_History(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()
	history := store.History()

	mk := func(id, module string, offset time.Duration) models.TestAttempt {
		return models.TestAttempt{ID: id, Date: due.Add(offset), ModuleID: module, TotalQuestions: 1, ScorePercent: 100,
			Answers: []models.AnswerRecord{{QuestionID: "q", SelectedAnswer: 0, IsCorrect: true}}}
	}

	require.NoError(t, history.Append(ctx, mk("a", "weather", 0)))
	require.NoError(t, history.Append(ctx, mk("b", "", time.Hour)))
	require.NoError(t, history.Append(ctx, mk("c", "weather", 2*time.Hour)))
	assert.ErrorIs(t, history.Append(ctx, mk("a", "", 0)), repository.ErrDuplicate)

	list, err := history.List(ctx, models.HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)

	weather, err := history.List(ctx, models.HistoryFilter{ModuleID: "weather", Limit: 1})
	require.NoError(t, err)
	require.Len(t, weather, 1)
	assert.Equal(t, "c", weather[0].ID)

	since := due.Add(30 * time.Minute)
	recent, err := history.List(ctx, models.HistoryFilter{Since: &since})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	got, err := history.Get(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", got.ModuleID)

	assert.ErrorIs(t, history.ReplaceAll(ctx, []models.TestAttempt{mk("x", "", 0), mk("x", "", 0)}), repository.ErrDuplicate)
	require.NoError(t, history.ReplaceAll(ctx, []models.TestAttempt{mk("z", "", 0)}))
	list, err = history.List(ctx, models.HistoryFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, history.Clear(ctx))
	list, err = history.List(ctx, models.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Settings(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	s := models.DefaultSettings()
	s.Name = "Robin"
	s.Preferences.FlashcardTimer = 15
	require.NoError(t, store.Settings().Save(ctx, s))

	got, err := store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, s, got)

	require.NoError(t, store.Settings().Clear(ctx))
	got, err = store.Settings().Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)
}

func TestStore_CorruptFileFailsSoft(t *testing.T) {
	store, path := openStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(path, []byte(`{"flashcardProgress": {"ok": {"cardId":"ok","interval":1,"repetitions":1,"easeFactor":2.5,"nextReview":"2025-01-01T00:00:00Z"}, "bad": {"easeFactor": "x"}}, "testHistory": "nope"}`), 0o600))

	all, err := store.Progress().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	list, err := store.History().List(ctx, models.HistoryFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	// The next write rewrites a clean document.
	require.NoError(t, store.Progress().SaveAll(ctx, map[string]models.CardScheduleState{"new": state("new", 1)}))
	all, err = store.Progress().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestStore_ConcurrentWriters(t *testing.T) {
	store, _ := openStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('a' + i))
			assert.NoError(t, store.Progress().SaveAll(ctx, map[string]models.CardScheduleState{id: state(id, 1)}))
		}(i)
	}
	wg.Wait()

	all, err := store.Progress().LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 10)
}
