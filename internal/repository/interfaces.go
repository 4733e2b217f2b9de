package repository

import (
	"context"
	"errors"

	"github.com/vytor/part107/internal/models"
)

// ErrDuplicate is returned when a record with the same id already exists.
var ErrDuplicate = errors.New("record already exists")

// ProgressRepository stores the schedule state of reviewed cards. A card with
// no stored state is new.
type ProgressRepository interface {
	// Load returns nil, nil for a card that has never been reviewed.
	Load(ctx context.Context, cardID string) (*models.CardScheduleState, error)
	LoadAll(ctx context.Context) (map[string]models.CardScheduleState, error)
	// SaveAll upserts every given state. Other cards are left untouched.
	SaveAll(ctx context.Context, states map[string]models.CardScheduleState) error
	Clear(ctx context.Context) error
}

// TestHistoryRepository is the append-only log of submitted practice tests.
type TestHistoryRepository interface {
	Append(ctx context.Context, attempt models.TestAttempt) error
	// Get returns nil, nil for an unknown id.
	Get(ctx context.Context, id string) (*models.TestAttempt, error)
	// List returns matching attempts, newest first.
	List(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error)
	ReplaceAll(ctx context.Context, attempts []models.TestAttempt) error
	Clear(ctx context.Context) error
}

// SettingsRepository holds the single settings document.
type SettingsRepository interface {
	// Get returns stored settings merged over defaults.
	Get(ctx context.Context) (models.Settings, error)
	Save(ctx context.Context, settings models.Settings) error
	Clear(ctx context.Context) error
}

// Store bundles the repositories of one storage backend.
type Store interface {
	Progress() ProgressRepository
	History() TestHistoryRepository
	Settings() SettingsRepository
	Ping(ctx context.Context) error
	Close() error
}
