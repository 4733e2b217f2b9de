package services

import (
	"context"
	stderrors "errors"

	"github.com/go-playground/validator/v10"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

// SettingsService reads and updates learner settings.
type SettingsService interface {
	GetSettings(ctx context.Context) (models.Settings, error)
	UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
}

type settingsService struct {
	repo repository.SettingsRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

func (s *settingsService) GetSettings(ctx context.Context) (models.Settings, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting settings")

	settings, err := s.repo.Get(ctx)
	if err != nil {
		log.Error("failed to get settings: %v", err)
		return models.Settings{}, errors.NewInternalError(err)
	}
	return settings, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, settings models.Settings) (models.Settings, error) {
	log := logger.FromContext(ctx)
	log.Debug("updating settings")

	if err := snapshot.Validate(settings); err != nil {
		return models.Settings{}, validationError(err)
	}

	if err := s.repo.Save(ctx, settings); err != nil {
		log.Error("failed to save settings: %v", err)
		return models.Settings{}, errors.NewInternalError(err)
	}

	log.Info("settings updated")
	return settings, nil
}

// validationError reports the first failing field of a validator error.
func validationError(err error) *errors.AppError {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidationError(fe.Field(), "failed '"+fe.Tag()+"' check")
	}
	return errors.NewValidationError("settings", err.Error())
}
