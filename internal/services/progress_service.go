package services

import (
	"context"
	stderrors "errors"
	"math"
	"sort"
	"time"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/snapshot"
)

const (
	// A card counts as mastered once its interval reaches three weeks.
	masteredIntervalDays = 21
	// Cards below this ease, or reset to zero repetitions, are struggling.
	strugglingEase = 2.0
	weakAreaCount  = 3
)

// ProgressService summarizes stored progress and moves it in and out of
// backups.
type ProgressService interface {
	Summary(ctx context.Context) (*models.ProgressSummary, error)
	Export(ctx context.Context) (*snapshot.Export, error)
	Import(ctx context.Context, data []byte) (*ImportResult, error)
	ClearAll(ctx context.Context) error
}

// ImportResult reports which sections of a backup were applied.
type ImportResult struct {
	Settings   bool       `json:"settings"`
	Cards      int        `json:"cards"`
	Attempts   int        `json:"attempts"`
	ExportDate *time.Time `json:"export_date,omitempty"`
}

type progressService struct {
	store   repository.Store
	catalog Catalog
	now     func() time.Time
}

// NewProgressService creates a new ProgressService
func NewProgressService(store repository.Store, catalog Catalog, opts ...Option) ProgressService {
	o := applyOptions(opts)
	return &progressService{store: store, catalog: catalog, now: o.now}
}

func (s *progressService) Summary(ctx context.Context) (*models.ProgressSummary, error) {
	log := logger.FromContext(ctx)
	log.Debug("building progress summary")

	states, err := s.store.Progress().LoadAll(ctx)
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	attempts, err := s.store.History().List(ctx, models.HistoryFilter{})
	if err != nil {
		log.Error("failed to load test history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	settings, err := s.store.Settings().Get(ctx)
	if err != nil {
		log.Error("failed to load settings: %v", err)
		return nil, errors.NewInternalError(err)
	}

	now := s.now()
	summary := &models.ProgressSummary{}
	summarizeCards(summary, states, now)
	summarizeTests(summary, attempts, now)
	summary.WeakAreas = s.weakAreas(attempts)
	summary.DaysUntilExam = daysUntil(settings.ExamDate, now)

	return summary, nil
}

func summarizeCards(sum *models.ProgressSummary, states map[string]models.CardScheduleState, now time.Time) {
	if len(states) == 0 {
		return
	}

	var ease, interval float64
	for _, st := range states {
		sum.CardsStudied++
		if st.IntervalDays >= masteredIntervalDays {
			sum.CardsMastered++
		}
		if st.Repetitions == 0 || st.EaseFactor < strugglingEase {
			sum.CardsStruggling++
		}
		if st.IsDue(now) {
			sum.CardsDue++
		}
		ease += st.EaseFactor
		interval += float64(st.IntervalDays)
	}

	n := float64(len(states))
	sum.AvgEaseFactor = round2(ease / n)
	sum.AvgIntervalDays = round2(interval / n)
}

func summarizeTests(sum *models.ProgressSummary, attempts []models.TestAttempt, now time.Time) {
	if len(attempts) == 0 {
		return
	}

	total := 0
	var last time.Time
	for _, a := range attempts {
		total += a.ScorePercent
		sum.TotalStudySeconds += a.TimeSpentSeconds
		if a.Date.After(last) {
			last = a.Date
		}
	}

	sum.TestsTaken = len(attempts)
	sum.AverageScore = int(math.Round(float64(total) / float64(len(attempts))))
	sum.LastTestAt = &last
	sum.StudyStreakDays = studyStreak(attempts, now)
}

// studyStreak counts consecutive calendar days, ending today, with at least
// one submitted test. Days are taken in now's location.
func studyStreak(attempts []models.TestAttempt, now time.Time) int {
	days := make(map[time.Time]bool, len(attempts))
	for _, a := range attempts {
		days[midnight(a.Date.In(now.Location()))] = true
	}

	streak := 0
	for d := midnight(now); days[d]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak
}

// weakAreas scores answers per module and returns the lowest scoring ones.
func (s *progressService) weakAreas(attempts []models.TestAttempt) []models.ModuleScore {
	scores := make(map[string]*models.ModuleScore)
	for _, a := range attempts {
		for _, ans := range a.Answers {
			moduleID, ok := s.catalog.ModuleForQuestion(ans.QuestionID)
			if !ok {
				moduleID = a.ModuleID
			}
			if moduleID == "" {
				continue
			}
			ms, ok := scores[moduleID]
			if !ok {
				ms = &models.ModuleScore{ModuleID: moduleID}
				if m, found := s.catalog.Module(moduleID); found {
					ms.Title = m.Title
				}
				scores[moduleID] = ms
			}
			ms.Total++
			if ans.IsCorrect {
				ms.Correct++
			}
		}
	}

	out := make([]models.ModuleScore, 0, len(scores))
	for _, ms := range scores {
		ms.Percentage = int(math.Round(float64(ms.Correct) / float64(ms.Total) * 100))
		out = append(out, *ms)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percentage != out[j].Percentage {
			return out[i].Percentage < out[j].Percentage
		}
		return out[i].ModuleID < out[j].ModuleID
	})
	if len(out) > weakAreaCount {
		out = out[:weakAreaCount]
	}
	return out
}

// daysUntil returns the whole days left before examDate, rounding up, or nil
// when no exam date is set.
func daysUntil(examDate string, now time.Time) *int {
	if examDate == "" {
		return nil
	}
	exam, err := time.ParseInLocation("2006-01-02", examDate, now.Location())
	if err != nil {
		return nil
	}
	days := int(math.Ceil(exam.Sub(now).Hours() / 24))
	return &days
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (s *progressService) Export(ctx context.Context) (*snapshot.Export, error) {
	log := logger.FromContext(ctx)
	log.Debug("exporting progress")

	settings, err := s.store.Settings().Get(ctx)
	if err != nil {
		log.Error("failed to load settings: %v", err)
		return nil, errors.NewInternalError(err)
	}
	states, err := s.store.Progress().LoadAll(ctx)
	if err != nil {
		log.Error("failed to load progress: %v", err)
		return nil, errors.NewInternalError(err)
	}
	attempts, err := s.store.History().List(ctx, models.HistoryFilter{})
	if err != nil {
		log.Error("failed to load test history: %v", err)
		return nil, errors.NewInternalError(err)
	}

	exp := snapshot.NewExport(settings, states, attempts, s.now())
	log.Info("progress exported: cards=%d, attempts=%d", len(exp.FlashcardProgress), len(exp.TestHistory))
	return &exp, nil
}

// Import replaces every section present in the backup. Absent sections are
// left as they are.
func (s *progressService) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	log := logger.FromContext(ctx)
	log.Debug("importing progress: bytes=%d", len(data))

	imp, err := snapshot.ParseImport(ctx, data)
	if err != nil {
		if stderrors.Is(err, snapshot.ErrInvalidDocument) {
			return nil, errors.NewBadRequestError(err.Error())
		}
		return nil, errors.NewInternalError(err)
	}

	result := &ImportResult{ExportDate: imp.ExportDate}

	if imp.Settings != nil {
		if err := s.store.Settings().Save(ctx, *imp.Settings); err != nil {
			log.Error("failed to import settings: %v", err)
			return nil, errors.NewInternalError(err)
		}
		result.Settings = true
	}

	if imp.FlashcardProgress != nil {
		if err := s.store.Progress().Clear(ctx); err != nil {
			log.Error("failed to clear progress before import: %v", err)
			return nil, errors.NewInternalError(err)
		}
		if len(imp.FlashcardProgress) > 0 {
			if err := s.store.Progress().SaveAll(ctx, imp.FlashcardProgress); err != nil {
				log.Error("failed to import progress: %v", err)
				return nil, errors.NewInternalError(err)
			}
		}
		result.Cards = len(imp.FlashcardProgress)
	}

	if imp.TestHistory != nil {
		if err := s.store.History().ReplaceAll(ctx, imp.TestHistory); err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return nil, errors.NewValidationError("testHistory", "duplicate test id")
			}
			log.Error("failed to import test history: %v", err)
			return nil, errors.NewInternalError(err)
		}
		result.Attempts = len(imp.TestHistory)
	}

	log.Info("progress imported: settings=%t, cards=%d, attempts=%d", result.Settings, result.Cards, result.Attempts)
	return result, nil
}

func (s *progressService) ClearAll(ctx context.Context) error {
	log := logger.FromContext(ctx)
	log.Debug("clearing all progress")

	if err := s.store.Progress().Clear(ctx); err != nil {
		log.Error("failed to clear progress: %v", err)
		return errors.NewInternalError(err)
	}
	if err := s.store.History().Clear(ctx); err != nil {
		log.Error("failed to clear test history: %v", err)
		return errors.NewInternalError(err)
	}
	if err := s.store.Settings().Clear(ctx); err != nil {
		log.Error("failed to clear settings: %v", err)
		return errors.NewInternalError(err)
	}

	log.Warn("all progress cleared")
	return nil
}
