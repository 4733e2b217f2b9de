package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/repository/sqlite"
)

var errDriver = errors.New("database is locked")

type mockRepos struct {
	progress repository.ProgressRepository
	history  repository.TestHistoryRepository
	settings repository.SettingsRepository
}

func setupMockRepos(t *testing.T) (*mockRepos, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &mockRepos{
		progress: sqlite.NewProgressRepository(db),
		history:  sqlite.NewHistoryRepository(db),
		settings: sqlite.NewSettingsRepository(db),
	}, mock
}

func TestRepositories_DriverErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(sqlmock.Sqlmock)
		call      func(context.Context, *mockRepos) error
	}{
		{
			name: "progress load",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT card_id, interval_days")).
					WithArgs("reg-001").
					WillReturnError(errDriver)
			},
			call: func(ctx context.Context, r *mockRepos) error {
				_, err := r.progress.Load(ctx, "reg-001")
				return err
			},
		},
		{
			name: "progress save",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO card_progress")).
					WillReturnError(errDriver)
			},
			call: func(ctx context.Context, r *mockRepos) error {
				return r.progress.SaveAll(ctx, map[string]models.CardScheduleState{"reg-001": state("reg-001", 1)})
			},
		},
		{
			name: "history list",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT id, taken_at")).
					WillReturnError(errDriver)
			},
			call: func(ctx context.Context, r *mockRepos) error {
				_, err := r.history.List(ctx, models.HistoryFilter{})
				return err
			},
		},
		{
			name: "history replace rolls back",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec(regexp.QuoteMeta("DELETE FROM test_attempts")).
					WillReturnResult(sqlmock.NewResult(0, 3))
				mock.ExpectExec(regexp.QuoteMeta("INSERT INTO test_attempts")).
					WillReturnError(errDriver)
				mock.ExpectRollback()
			},
			call: func(ctx context.Context, r *mockRepos) error {
				return r.history.ReplaceAll(ctx, []models.TestAttempt{attempt("t1", "", 0, 50)})
			},
		},
		{
			name: "settings get",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("SELECT data FROM settings")).
					WithArgs(1).
					WillReturnError(errDriver)
			},
			call: func(ctx context.Context, r *mockRepos) error {
				_, err := r.settings.Get(ctx)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos, mock := setupMockRepos(t)
			tt.setupMock(mock)

			err := tt.call(context.Background(), repos)
			assert.ErrorIs(t, err, errDriver)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
