package api

import (
	"context"

	"github.com/vytor/part107/internal/services"
)

// DefaultMaxImportBytes bounds the size of an uploaded backup.
const DefaultMaxImportBytes = 5 << 20

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	StudyService    services.StudyService
	PracticeService services.PracticeService
	ProgressService services.ProgressService
	SettingsService services.SettingsService
	Store           Pinger
	MaxImportBytes  int64
}
