package sqlite

import (
	"context"

	"github.com/vytor/part107/internal/db"
	"github.com/vytor/part107/internal/repository"
)

// Store is the sqlite storage backend.
type Store struct {
	db       *db.DB
	progress repository.ProgressRepository
	history  repository.TestHistoryRepository
	settings repository.SettingsRepository
}

// Open opens (and migrates) the database at path.
func Open(path string) (*Store, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	return NewStore(database), nil
}

func NewStore(database *db.DB) *Store {
	return &Store{
		db:       database,
		progress: NewProgressRepository(database.DB),
		history:  NewHistoryRepository(database.DB),
		settings: NewSettingsRepository(database.DB),
	}
}

func (s *Store) Progress() repository.ProgressRepository   { return s.progress }
func (s *Store) History() repository.TestHistoryRepository { return s.history }
func (s *Store) Settings() repository.SettingsRepository   { return s.settings }

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
