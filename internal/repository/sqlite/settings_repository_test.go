package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/repository/sqlite"
	"github.com/vytor/part107/internal/testutil"
)

type SettingsRepositorySuite struct {
	suite.Suite
	db   *sql.DB
	repo repository.SettingsRepository
}

func (s *SettingsRepositorySuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.repo = sqlite.NewSettingsRepository(s.db)
}

func (s *SettingsRepositorySuite) TearDownTest() {
	testutil.MustClose(s.T(), s.db)
}

func (s *SettingsRepositorySuite) TestDefaultsWhenEmpty() {
	got, err := s.repo.Get(context.Background())
	s.Require().NoError(err)
	s.Equal(models.DefaultSettings(), got)
}

func (s *SettingsRepositorySuite) TestSaveAndGet() {
	ctx := context.Background()
	want := models.DefaultSettings()
	want.Name = "Alex"
	want.ExamDate = "2025-09-01"
	want.Preferences.DarkMode = true

	s.Require().NoError(s.repo.Save(ctx, want))
	want.StudyGoal = 90
	s.Require().NoError(s.repo.Save(ctx, want))

	got, err := s.repo.Get(ctx)
	s.Require().NoError(err)
	s.Equal(want, got)

	var rows int
	s.Require().NoError(s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settings`).Scan(&rows))
	s.Equal(1, rows)
}

func (s *SettingsRepositorySuite) TestPartialRowMergesDefaults() {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `INSERT INTO settings (id, data) VALUES (1, '{"name":"Kim","privacy":{"shareStats":true}}')`)
	s.Require().NoError(err)

	got, err := s.repo.Get(ctx)
	s.Require().NoError(err)
	s.Equal("Kim", got.Name)
	s.True(got.Privacy.ShareStats)
	s.True(got.Privacy.TrackProgress)
	s.Equal(30, got.StudyGoal)
}

func (s *SettingsRepositorySuite) TestClear() {
	ctx := context.Background()
	custom := models.DefaultSettings()
	custom.Name = "x"
	s.Require().NoError(s.repo.Save(ctx, custom))
	s.Require().NoError(s.repo.Clear(ctx))

	got, err := s.repo.Get(ctx)
	s.Require().NoError(err)
	s.Equal(models.DefaultSettings(), got)
}

func TestSettingsRepositorySuite(t *testing.T) {
	suite.Run(t, new(SettingsRepositorySuite))
}
