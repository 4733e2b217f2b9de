package services_test

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vytor/part107/internal/catalog"
	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/services"
	"github.com/vytor/part107/internal/testutil/mocks"
)

var now = time.Date(2025, 5, 20, 9, 30, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func testCatalog(t *testing.T) *catalog.Catalog {
	c, err := catalog.Default()
	require.NoError(t, err)
	return c
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := errors.As(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func newStudy(t *testing.T, opts ...services.Option) (services.StudyService, *mocks.MockProgressRepository) {
	repo := &mocks.MockProgressRepository{}
	opts = append([]services.Option{services.WithClock(func() time.Time { return now })}, opts...)
	return services.NewStudyService(testCatalog(t), repo, opts...), repo
}

func TestStudyService_StartSession_Validation(t *testing.T) {
	svc, _ := newStudy(t)
	ctx := context.Background()

	_, err := svc.StartSession(ctx, services.StartSessionRequest{ModuleID: "astrophysics"})
	requireCode(t, err, errors.ErrCodeNotFound)

	_, err = svc.StartSession(ctx, services.StartSessionRequest{Difficulty: "brutal"})
	requireCode(t, err, errors.ErrCodeValidation)
}

func TestStudyService_StartSession_NoContent(t *testing.T) {
	svc, _ := newStudy(t)

	// The regulations module has no hard cards.
	_, err := svc.StartSession(context.Background(), services.StartSessionRequest{ModuleID: "regulations", Difficulty: "hard"})
	requireCode(t, err, errors.ErrCodeNoContent)
}

func TestStudyService_QuickSessionIsCapped(t *testing.T) {
	svc, repo := newStudy(t, services.WithQuickLimit(5))
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)

	view, err := svc.StartSession(context.Background(), services.StartSessionRequest{Quick: true})
	require.NoError(t, err)

	assert.Equal(t, 5, view.Total)
	assert.Equal(t, 0, view.Position)
	assert.Equal(t, "front", view.Phase)
	assert.Empty(t, view.Card.Back, "the answer stays hidden until flipped")
	assert.Nil(t, view.Progress)
	assert.Equal(t, now, view.Stats.StartedAt)
}

func TestStudyService_ReviewFlow(t *testing.T) {
	svc, repo := newStudy(t)
	ctx := context.Background()
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)

	view, err := svc.StartSession(ctx, services.StartSessionRequest{ModuleID: "weather"})
	require.NoError(t, err)
	first := view.Card.ID

	_, err = svc.Review(ctx, view.ID, 5)
	requireCode(t, err, errors.ErrCodeBadRequest)

	flipped, err := svc.Flip(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, "back", flipped.Phase)
	assert.NotEmpty(t, flipped.Card.Back)

	repo.On("SaveAll", mock.Anything, mock.MatchedBy(func(states map[string]models.CardScheduleState) bool {
		st, ok := states[first]
		return ok && len(states) == 1 && st.Repetitions == 1 && st.IntervalDays == 1
	})).Return(nil).Once()

	res, err := svc.Review(ctx, view.ID, 5)
	require.NoError(t, err)
	assert.True(t, res.Outcome.IsNew)
	assert.Equal(t, first, res.Outcome.Card.ID)
	assert.Equal(t, now.Add(24*time.Hour), res.Outcome.State.NextReviewAt)
	assert.Equal(t, 1, res.Session.Position)
	assert.Equal(t, "front", res.Session.Phase)
	assert.Equal(t, 1, res.Session.Stats.CardsReviewed)
	assert.Equal(t, 100, res.Session.Stats.Accuracy)

	repo.AssertExpectations(t)
}

func TestStudyService_ReviewInvalidQuality(t *testing.T) {
	svc, repo := newStudy(t)
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)

	view, err := svc.StartSession(context.Background(), services.StartSessionRequest{})
	require.NoError(t, err)

	for _, q := range []int{0, 6, -1} {
		_, err := svc.Review(context.Background(), view.ID, q)
		requireCode(t, err, errors.ErrCodeValidation)
	}
	repo.AssertNotCalled(t, "SaveAll", mock.Anything, mock.Anything)
}

func TestStudyService_ReviewSaveFailureKeepsPosition(t *testing.T) {
	svc, repo := newStudy(t)
	ctx := context.Background()
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(stderrors.New("disk full"))

	view, err := svc.StartSession(ctx, services.StartSessionRequest{})
	require.NoError(t, err)
	_, err = svc.Flip(ctx, view.ID)
	require.NoError(t, err)

	_, err = svc.Review(ctx, view.ID, 4)
	requireCode(t, err, errors.ErrCodeInternal)

	after, err := svc.GetSession(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, after.Position)
	assert.Equal(t, "back", after.Phase)
	assert.Equal(t, 0, after.Stats.CardsReviewed)
}

func TestStudyService_ShuffleResetAndEnd(t *testing.T) {
	svc, repo := newStudy(t)
	ctx := context.Background()
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	repo.On("SaveAll", mock.Anything, mock.Anything).Return(nil)

	view, err := svc.StartSession(ctx, services.StartSessionRequest{ModuleID: "operations"})
	require.NoError(t, err)

	_, err = svc.Flip(ctx, view.ID)
	require.NoError(t, err)
	_, err = svc.Review(ctx, view.ID, 1)
	require.NoError(t, err)

	shuffled, err := svc.Shuffle(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, shuffled.Position)
	assert.Equal(t, 1, shuffled.Stats.CardsReviewed, "shuffling keeps statistics")

	reset, err := svc.Reset(ctx, view.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, reset.Stats.CardsReviewed)
	assert.Equal(t, 6, reset.Total)

	require.NoError(t, svc.EndSession(ctx, view.ID))
	_, err = svc.GetSession(ctx, view.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
	requireCode(t, svc.EndSession(ctx, view.ID), errors.ErrCodeNotFound)
}

func TestStudyService_IdleSessionsExpire(t *testing.T) {
	c := &clock{t: now}
	repo := &mocks.MockProgressRepository{}
	repo.On("Load", mock.Anything, mock.Anything).Return(nil, nil)
	svc := services.NewStudyService(testCatalog(t), repo, services.WithClock(c.Now), services.WithSessionTTL(time.Hour))

	view, err := svc.StartSession(context.Background(), services.StartSessionRequest{})
	require.NoError(t, err)

	c.t = now.Add(30 * time.Minute)
	_, err = svc.GetSession(context.Background(), view.ID)
	require.NoError(t, err)

	c.t = now.Add(2 * time.Hour)
	_, err = svc.GetSession(context.Background(), view.ID)
	requireCode(t, err, errors.ErrCodeNotFound)
}

func TestStudyService_CardProgress(t *testing.T) {
	svc, repo := newStudy(t)
	ctx := context.Background()

	_, err := svc.CardProgress(ctx, "nope")
	requireCode(t, err, errors.ErrCodeNotFound)

	repo.On("Load", mock.Anything, "reg-001").Return(nil, nil).Once()
	fresh, err := svc.CardProgress(ctx, "reg-001")
	require.NoError(t, err)
	assert.True(t, fresh.IsNew)
	assert.True(t, fresh.IsDue)

	later := &models.CardScheduleState{CardID: "reg-001", IntervalDays: 6, Repetitions: 2, EaseFactor: 2.6, NextReviewAt: now.Add(48 * time.Hour)}
	repo.On("Load", mock.Anything, "reg-001").Return(later, nil).Once()
	known, err := svc.CardProgress(ctx, "reg-001")
	require.NoError(t, err)
	assert.False(t, known.IsNew)
	assert.False(t, known.IsDue)
	assert.Equal(t, later, known.State)

	repo.On("Load", mock.Anything, "reg-002").Return(nil, stderrors.New("locked")).Once()
	_, err = svc.CardProgress(ctx, "reg-002")
	requireCode(t, err, errors.ErrCodeInternal)
}

func TestStudyService_ListCards(t *testing.T) {
	svc, _ := newStudy(t)

	cards, err := svc.ListCards(context.Background(), "regulations", "")
	require.NoError(t, err)
	assert.Len(t, cards, 5)

	_, err = svc.ListCards(context.Background(), "", "extreme")
	requireCode(t, err, errors.ErrCodeValidation)

	assert.Len(t, svc.ListModules(context.Background()), 5)
}
