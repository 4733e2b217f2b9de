package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

// settingsRowID is the id of the only settings row.
const settingsRowID = 1

type settingsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db, now: time.Now}
}

func (r *settingsRepository) Get(ctx context.Context) (models.Settings, error) {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")

	query, args, err := sqlBuilder.Select("data").
		From("settings").
		Where(squirrel.Eq{"id": settingsRowID}).
		ToSql()
	if err != nil {
		return models.Settings{}, err
	}

	var data string
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultSettings(), nil
	}
	if err != nil {
		log.Error("failed to load settings: %v", err)
		return models.Settings{}, err
	}
	return snapshot.DecodeSettings(ctx, []byte(data)), nil
}

func (r *settingsRepository) Save(ctx context.Context, s models.Settings) error {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")

	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	insert := sqlBuilder.Insert("settings").
		Columns("id", "data", "updated_at").
		Values(settingsRowID, string(data), formatTime(r.now())).
		Suffix("ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at")
	if err := exec(ctx, r.db, insert); err != nil {
		log.Error("failed to save settings: %v", err)
		return err
	}
	log.Debug("settings saved")
	return nil
}

func (r *settingsRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")
	if err := exec(ctx, r.db, sqlBuilder.Delete("settings")); err != nil {
		log.Error("failed to clear settings: %v", err)
		return err
	}
	return nil
}
