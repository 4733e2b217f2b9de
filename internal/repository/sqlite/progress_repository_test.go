package sqlite_test

import (
	"bytes"
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/vytor/part107/internal/flashcard"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/repository/sqlite"
	"github.com/vytor/part107/internal/testutil"
)

type ProgressRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.ProgressRepository
}

func (s *ProgressRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewProgressRepository(s.db)
}

func (s *ProgressRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

var due = time.Date(2025, 5, 6, 7, 8, 9, 123000000, time.UTC)

func state(id string, reps int) models.CardScheduleState {
	return models.CardScheduleState{
		CardID:       id,
		IntervalDays: reps * 3,
		Repetitions:  reps,
		EaseFactor:   2.5,
		NextReviewAt: due,
		Difficulty:   1,
	}
}

func (s *ProgressRepositorySuite) TestLoadUnknownCardIsNew() {
	got, err := s.repo.Load(context.Background(), "reg-001")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *ProgressRepositorySuite) TestSaveAllAndLoad() {
	ctx := context.Background()

	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{
		"reg-001": state("reg-001", 1),
		"wx-002":  state("wx-002", 2),
	}))

	got, err := s.repo.Load(ctx, "wx-002")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(2, got.Repetitions)
	s.Equal(6, got.IntervalDays)
	s.True(due.Equal(got.NextReviewAt))

	var stored string
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT next_review FROM card_progress WHERE card_id = 'wx-002'`).Scan(&stored))
	s.Equal("2025-05-06T07:08:09.123000000Z", stored)
}

func (s *ProgressRepositorySuite) TestSaveAllKeepsNanoseconds() {
	ctx := context.Background()
	reviewedAt := time.Date(2025, 5, 6, 7, 8, 9, 123456789, time.UTC)

	next, err := flashcard.ApplyReview("reg-001", nil, flashcard.Easy, reviewedAt)
	s.Require().NoError(err)
	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{next.CardID: next}))

	got, err := s.repo.Load(ctx, "reg-001")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(next, *got)
	s.Equal(123456789, got.NextReviewAt.Nanosecond())
}

func (s *ProgressRepositorySuite) TestSaveAllUpserts() {
	ctx := context.Background()

	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{"ops-001": state("ops-001", 1)}))
	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{"ops-001": state("ops-001", 4), "ops-002": state("ops-002", 1)}))

	all, err := s.repo.LoadAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
	s.Equal(4, all["ops-001"].Repetitions)
}

func (s *ProgressRepositorySuite) TestSaveAllRejectsMismatchedKey() {
	err := s.repo.SaveAll(context.Background(), map[string]models.CardScheduleState{"a": state("b", 1)})
	s.Error(err)
}

func (s *ProgressRepositorySuite) TestSaveAllEmptyIsNoop() {
	s.NoError(s.repo.SaveAll(context.Background(), nil))
}

func (s *ProgressRepositorySuite) TestMalformedRowsAreSkipped() {
	var logs bytes.Buffer
	ctx := logger.NewContext(context.Background(), logger.New(logger.WithOutput(&logs), logger.WithCaller(false)))

	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{"good": state("good", 1)}))
	_, err := s.db.ExecContext(ctx, `INSERT INTO card_progress (card_id, interval_days, repetitions, ease_factor, next_review, difficulty)
VALUES ('bad-date', 1, 1, 2.5, 'someday', 0), ('bad-ease', 1, 1, 0.4, '2025-01-01T00:00:00.000Z', 0)`)
	s.Require().NoError(err)

	all, err := s.repo.LoadAll(ctx)
	s.Require().NoError(err)
	s.Len(all, 1)
	s.Contains(all, "good")

	got, err := s.repo.Load(ctx, "bad-date")
	s.Require().NoError(err)
	s.Nil(got, "malformed state is treated as absent")
	s.Contains(logs.String(), "ignoring malformed progress row")
}

func (s *ProgressRepositorySuite) TestClear() {
	ctx := context.Background()
	s.Require().NoError(s.repo.SaveAll(ctx, map[string]models.CardScheduleState{"a": state("a", 1)}))
	s.Require().NoError(s.repo.Clear(ctx))

	all, err := s.repo.LoadAll(ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func TestProgressRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProgressRepositorySuite))
}
