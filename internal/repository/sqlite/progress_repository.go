package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

var progressColumns = []string{"card_id", "interval_days", "repetitions", "ease_factor", "next_review", "difficulty"}

const progressUpsert = `ON CONFLICT(card_id) DO UPDATE SET
    interval_days = excluded.interval_days,
    repetitions = excluded.repetitions,
    ease_factor = excluded.ease_factor,
    next_review = excluded.next_review,
    difficulty = excluded.difficulty,
    updated_at = excluded.updated_at`

type progressRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProgressRepository creates a ProgressRepository backed by card_progress.
func NewProgressRepository(db *sql.DB) repository.ProgressRepository {
	return &progressRepository{db: db, now: time.Now}
}

type progressRow struct {
	cardID     string
	interval   int
	reps       int
	ease       float64
	nextReview string
	difficulty int
}

func (row progressRow) state() (models.CardScheduleState, error) {
	next, err := parseTime(row.nextReview)
	if err != nil {
		return models.CardScheduleState{}, fmt.Errorf("next_review %q: %w", row.nextReview, err)
	}
	s := models.CardScheduleState{
		CardID:       row.cardID,
		IntervalDays: row.interval,
		Repetitions:  row.reps,
		EaseFactor:   row.ease,
		NextReviewAt: next,
		Difficulty:   row.difficulty,
	}
	if err := snapshot.Validate(s); err != nil {
		return models.CardScheduleState{}, err
	}
	return s, nil
}

func (r *progressRepository) Load(ctx context.Context, cardID string) (*models.CardScheduleState, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query, args, err := sqlBuilder.Select(progressColumns...).
		From("card_progress").
		Where(squirrel.Eq{"card_id": cardID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var row progressRow
	err = r.db.QueryRowContext(ctx, query, args...).
		Scan(&row.cardID, &row.interval, &row.reps, &row.ease, &row.nextReview, &row.difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no progress for card: card_id=%s", cardID)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, err
	}

	state, err := row.state()
	if err != nil {
		log.WithField("card_id", cardID).WithError(err).Warn("ignoring malformed progress row")
		return nil, nil
	}
	return &state, nil
}

func (r *progressRepository) LoadAll(ctx context.Context) (map[string]models.CardScheduleState, error) {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	query, args, err := sqlBuilder.Select(progressColumns...).From("card_progress").ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress: %v", err)
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]models.CardScheduleState)
	for rows.Next() {
		var row progressRow
		if err := rows.Scan(&row.cardID, &row.interval, &row.reps, &row.ease, &row.nextReview, &row.difficulty); err != nil {
			log.Error("failed to scan progress row: %v", err)
			return nil, err
		}
		state, err := row.state()
		if err != nil {
			log.WithField("card_id", row.cardID).WithError(err).Warn("ignoring malformed progress row")
			continue
		}
		out[state.CardID] = state
	}
	log.Debug("loaded progress for %d cards", len(out))
	return out, rows.Err()
}

func (r *progressRepository) SaveAll(ctx context.Context, states map[string]models.CardScheduleState) error {
	if len(states) == 0 {
		return nil
	}
	log := logger.FromContext(ctx).WithPrefix("progress_repo")

	ids := make([]string, 0, len(states))
	for id := range states {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	updatedAt := formatTime(r.now())
	insert := sqlBuilder.Insert("card_progress").Columns(append(progressColumns, "updated_at")...)
	for _, id := range ids {
		s := states[id]
		if s.CardID == "" {
			s.CardID = id
		}
		if s.CardID != id {
			return fmt.Errorf("progress for %q keyed as %q", s.CardID, id)
		}
		insert = insert.Values(s.CardID, s.IntervalDays, s.Repetitions, s.EaseFactor, formatTime(s.NextReviewAt), s.Difficulty, updatedAt)
	}
	insert = insert.Suffix(progressUpsert)

	if err := exec(ctx, r.db, insert); err != nil {
		log.Error("failed to save progress: %v", err)
		return err
	}
	log.Debug("saved progress for %d cards", len(ids))
	return nil
}

func (r *progressRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("progress_repo")
	if err := exec(ctx, r.db, sqlBuilder.Delete("card_progress")); err != nil {
		log.Error("failed to clear progress: %v", err)
		return err
	}
	log.Info("cleared flashcard progress")
	return nil
}
