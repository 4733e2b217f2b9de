package jsonfile

import (
	"context"
	"fmt"
	"sort"

	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

type progressRepository struct {
	store *Store
}

func (r *progressRepository) Load(ctx context.Context, cardID string) (*models.CardScheduleState, error) {
	var out *models.CardScheduleState
	err := r.store.view(ctx, func(doc snapshot.Document) error {
		if s, ok := doc.FlashcardProgress[cardID]; ok {
			out = &s
		}
		return nil
	})
	return out, err
}

func (r *progressRepository) LoadAll(ctx context.Context) (map[string]models.CardScheduleState, error) {
	var out map[string]models.CardScheduleState
	err := r.store.view(ctx, func(doc snapshot.Document) error {
		out = doc.FlashcardProgress
		return nil
	})
	return out, err
}

func (r *progressRepository) SaveAll(ctx context.Context, states map[string]models.CardScheduleState) error {
	if len(states) == 0 {
		return nil
	}
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		for id, s := range states {
			if s.CardID == "" {
				s.CardID = id
			}
			if s.CardID != id {
				return fmt.Errorf("progress for %q keyed as %q", s.CardID, id)
			}
			doc.FlashcardProgress[id] = s
		}
		return nil
	})
}

func (r *progressRepository) Clear(ctx context.Context) error {
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		doc.FlashcardProgress = map[string]models.CardScheduleState{}
		return nil
	})
}

type historyRepository struct {
	store *Store
}

func (r *historyRepository) Append(ctx context.Context, a models.TestAttempt) error {
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		for _, existing := range doc.TestHistory {
			if existing.ID == a.ID {
				return fmt.Errorf("%w: test attempt %s", repository.ErrDuplicate, a.ID)
			}
		}
		doc.TestHistory = append(doc.TestHistory, a)
		return nil
	})
}

func (r *historyRepository) Get(ctx context.Context, id string) (*models.TestAttempt, error) {
	var out *models.TestAttempt
	err := r.store.view(ctx, func(doc snapshot.Document) error {
		for i := range doc.TestHistory {
			if doc.TestHistory[i].ID == id {
				a := doc.TestHistory[i]
				out = &a
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *historyRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error) {
	out := []models.TestAttempt{}
	err := r.store.view(ctx, func(doc snapshot.Document) error {
		for _, a := range doc.TestHistory {
			if filter.ModuleID != "" && a.ModuleID != filter.ModuleID {
				continue
			}
			if filter.Since != nil && a.Date.Before(*filter.Since) {
				continue
			}
			out = append(out, a)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *historyRepository) ReplaceAll(ctx context.Context, attempts []models.TestAttempt) error {
	seen := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		if seen[a.ID] {
			return fmt.Errorf("%w: test attempt %s", repository.ErrDuplicate, a.ID)
		}
		seen[a.ID] = true
	}
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		doc.TestHistory = append([]models.TestAttempt{}, attempts...)
		return nil
	})
}

func (r *historyRepository) Clear(ctx context.Context) error {
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		doc.TestHistory = []models.TestAttempt{}
		return nil
	})
}

type settingsRepository struct {
	store *Store
}

func (r *settingsRepository) Get(ctx context.Context) (models.Settings, error) {
	var out models.Settings
	err := r.store.view(ctx, func(doc snapshot.Document) error {
		out = doc.Settings
		return nil
	})
	return out, err
}

func (r *settingsRepository) Save(ctx context.Context, s models.Settings) error {
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		doc.Settings = s
		return nil
	})
}

func (r *settingsRepository) Clear(ctx context.Context) error {
	return r.store.update(ctx, func(doc *snapshot.Document) error {
		doc.Settings = models.DefaultSettings()
		return nil
	})
}
