package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

var attemptColumns = []string{"id", "taken_at", "module_id", "total_questions", "time_spent", "score", "answers"}

type historyRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a TestHistoryRepository backed by test_attempts.
func NewHistoryRepository(db *sql.DB) repository.TestHistoryRepository {
	return &historyRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc rowScanner) (models.TestAttempt, error) {
	var (
		a        models.TestAttempt
		takenAt  string
		moduleID sql.NullString
		answers  string
	)
	if err := sc.Scan(&a.ID, &takenAt, &moduleID, &a.TotalQuestions, &a.TimeSpentSeconds, &a.ScorePercent, &answers); err != nil {
		return a, err
	}
	return a, decodeAttempt(&a, takenAt, moduleID, answers)
}

// malformedError marks a row that was read but could not be decoded.
type malformedError struct{ err error }

func (e malformedError) Error() string { return e.err.Error() }
func (e malformedError) Unwrap() error { return e.err }

func decodeAttempt(a *models.TestAttempt, takenAt string, moduleID sql.NullString, answers string) error {
	date, err := parseTime(takenAt)
	if err != nil {
		return malformedError{fmt.Errorf("taken_at %q: %w", takenAt, err)}
	}
	a.Date = date
	a.ModuleID = moduleID.String
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return malformedError{fmt.Errorf("answers: %w", err)}
	}
	if err := snapshot.Validate(*a); err != nil {
		return malformedError{err}
	}
	return nil
}

func attemptValues(a models.TestAttempt) ([]any, error) {
	answers := a.Answers
	if answers == nil {
		answers = []models.AnswerRecord{}
	}
	encoded, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}
	var moduleID any
	if a.ModuleID != "" {
		moduleID = a.ModuleID
	}
	return []any{a.ID, formatTime(a.Date), moduleID, a.TotalQuestions, a.TimeSpentSeconds, a.ScorePercent, string(encoded)}, nil
}

func (r *historyRepository) Append(ctx context.Context, a models.TestAttempt) error {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("appending test attempt: id=%s, score=%d", a.ID, a.ScorePercent)

	values, err := attemptValues(a)
	if err != nil {
		return err
	}
	err = exec(ctx, r.db, sqlBuilder.Insert("test_attempts").Columns(attemptColumns...).Values(values...))
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%w: test attempt %s", repository.ErrDuplicate, a.ID)
	}
	if err != nil {
		log.Error("failed to append test attempt: %v", err)
	}
	return err
}

func (r *historyRepository) Get(ctx context.Context, id string) (*models.TestAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("history_repo")

	query, args, err := sqlBuilder.Select(attemptColumns...).
		From("test_attempts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	a, err := scanAttempt(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	var malformed malformedError
	if errors.As(err, &malformed) {
		log.WithField("attempt_id", id).WithError(err).Warn("ignoring malformed test attempt")
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get test attempt: %v", err)
		return nil, err
	}
	return &a, nil
}

func (r *historyRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error) {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("listing test attempts: module_id=%s, limit=%d", filter.ModuleID, filter.Limit)

	query := sqlBuilder.Select(attemptColumns...).From("test_attempts")
	if filter.ModuleID != "" {
		query = query.Where(squirrel.Eq{"module_id": filter.ModuleID})
	}
	if filter.Since != nil {
		query = query.Where(squirrel.GtOrEq{"taken_at": formatTime(*filter.Since)})
	}
	query = query.OrderBy("taken_at DESC", "id DESC")
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list test attempts: %v", err)
		return nil, err
	}
	defer rows.Close()

	attempts := []models.TestAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		var malformed malformedError
		if errors.As(err, &malformed) {
			log.WithField("attempt_id", a.ID).WithError(err).Warn("ignoring malformed test attempt")
			continue
		}
		if err != nil {
			log.Error("failed to scan test attempt: %v", err)
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func (r *historyRepository) ReplaceAll(ctx context.Context, attempts []models.TestAttempt) error {
	log := logger.FromContext(ctx).WithPrefix("history_repo")

	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := exec(ctx, tx, sqlBuilder.Delete("test_attempts")); err != nil {
			return err
		}
		if len(attempts) == 0 {
			return nil
		}
		insert := sqlBuilder.Insert("test_attempts").Columns(attemptColumns...)
		for _, a := range attempts {
			values, err := attemptValues(a)
			if err != nil {
				return err
			}
			insert = insert.Values(values...)
		}
		return exec(ctx, tx, insert)
	})
	if isPrimaryKeyViolation(err) {
		return fmt.Errorf("%w: duplicate test attempt id in history", repository.ErrDuplicate)
	}
	if err != nil {
		log.Error("failed to replace test history: %v", err)
		return err
	}
	log.Info("replaced test history with %d attempts", len(attempts))
	return nil
}

func (r *historyRepository) Clear(ctx context.Context) error {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	if err := exec(ctx, r.db, sqlBuilder.Delete("test_attempts")); err != nil {
		log.Error("failed to clear test history: %v", err)
		return err
	}
	log.Info("cleared test history")
	return nil
}
