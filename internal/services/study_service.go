package services

import (
	"context"
	stderrors "errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/flashcard"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/repository"
	"github.com/vytor/part107/internal/session"
)

// StudyService runs flashcard review sessions.
type StudyService interface {
	ListModules(ctx context.Context) []models.ModuleSummary
	ListCards(ctx context.Context, moduleID, difficulty string) ([]models.Card, error)
	StartSession(ctx context.Context, req StartSessionRequest) (*SessionView, error)
	GetSession(ctx context.Context, id string) (*SessionView, error)
	Flip(ctx context.Context, id string) (*SessionView, error)
	Review(ctx context.Context, id string, quality int) (*ReviewView, error)
	Shuffle(ctx context.Context, id string) (*SessionView, error)
	Reset(ctx context.Context, id string) (*SessionView, error)
	EndSession(ctx context.Context, id string) error
	CardProgress(ctx context.Context, cardID string) (*CardProgressView, error)
}

type StartSessionRequest struct {
	ModuleID   string `json:"module_id"`
	Difficulty string `json:"difficulty"`
	Quick      bool   `json:"quick"`
}

// CardView is a card as shown to the learner. Back is empty while the front
// is showing.
type CardView struct {
	ID         string            `json:"id"`
	Front      string            `json:"front"`
	Back       string            `json:"back,omitempty"`
	Difficulty models.Difficulty `json:"difficulty"`
	Tags       []string          `json:"tags,omitempty"`
}

type SessionStatsView struct {
	CardsReviewed  int       `json:"cards_reviewed"`
	Correct        int       `json:"correct"`
	Streak         int       `json:"streak"`
	Accuracy       int       `json:"accuracy"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	StartedAt      time.Time `json:"started_at"`
}

type SessionView struct {
	ID         string                    `json:"id"`
	ModuleID   string                    `json:"module_id,omitempty"`
	Difficulty models.Difficulty         `json:"difficulty,omitempty"`
	Quick      bool                      `json:"quick"`
	Position   int                       `json:"position"`
	Total      int                       `json:"total"`
	Phase      string                    `json:"phase"`
	Laps       int                       `json:"laps"`
	Card       CardView                  `json:"card"`
	Progress   *models.CardScheduleState `json:"progress,omitempty"`
	Stats      SessionStatsView          `json:"stats"`
}

type ReviewView struct {
	Outcome session.Outcome `json:"outcome"`
	Session *SessionView    `json:"session"`
}

type CardProgressView struct {
	Card  models.Card               `json:"card"`
	State *models.CardScheduleState `json:"state"`
	IsNew bool                      `json:"is_new"`
	IsDue bool                      `json:"is_due"`
}

type studySession struct {
	id     string
	filter session.Filter
	quick  bool
	seq    *session.Sequencer
}

type studyService struct {
	catalog    Catalog
	progress   repository.ProgressRepository
	sessions   *registry[*studySession]
	now        func() time.Time
	quickLimit int
}

// NewStudyService creates a new StudyService
func NewStudyService(catalog Catalog, progress repository.ProgressRepository, opts ...Option) StudyService {
	o := applyOptions(opts)
	if o.quickLimit <= 0 {
		o.quickLimit = session.QuickLimit
	}
	return &studyService{
		catalog:    catalog,
		progress:   progress,
		sessions:   newRegistry[*studySession](o.ttl),
		now:        o.now,
		quickLimit: o.quickLimit,
	}
}

func (s *studyService) ListModules(ctx context.Context) []models.ModuleSummary {
	logger.FromContext(ctx).Debug("listing modules")
	return s.catalog.Modules()
}

func (s *studyService) filter(moduleID, difficulty string) (session.Filter, error) {
	f := session.Filter{ModuleID: moduleID, Difficulty: models.Difficulty(difficulty)}
	if f.ModuleID != "" {
		if _, ok := s.catalog.Module(f.ModuleID); !ok {
			return f, errors.NewNotFoundError("module", f.ModuleID)
		}
	}
	if f.Difficulty != "" && !f.Difficulty.Valid() {
		return f, errors.NewValidationError("difficulty", "must be 'easy', 'medium', or 'hard'")
	}
	return f, nil
}

func (s *studyService) ListCards(ctx context.Context, moduleID, difficulty string) ([]models.Card, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing cards: module=%s, difficulty=%s", moduleID, difficulty)

	f, err := s.filter(moduleID, difficulty)
	if err != nil {
		return nil, err
	}
	return session.Select(s.catalog, f), nil
}

func (s *studyService) StartSession(ctx context.Context, req StartSessionRequest) (*SessionView, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting study session: module=%s, difficulty=%s, quick=%t", req.ModuleID, req.Difficulty, req.Quick)

	f, err := s.filter(req.ModuleID, req.Difficulty)
	if err != nil {
		return nil, err
	}

	opts := session.Options{Clock: s.now}
	if req.Quick {
		opts.Limit = s.quickLimit
	}

	seq, err := session.New(session.Select(s.catalog, f), opts)
	if err != nil {
		if stderrors.Is(err, session.ErrNoContent) {
			return nil, errors.NewNoContentError(err)
		}
		return nil, errors.NewInternalError(err)
	}

	sess := &studySession{id: uuid.NewString(), filter: f, quick: req.Quick, seq: seq}
	s.sessions.put(sess.id, sess, s.now())

	log.Info("study session started: id=%s, cards=%d", sess.id, seq.Len())
	return s.view(ctx, sess)
}

// with runs fn on the session while holding its lock.
func (s *studyService) with(id string, fn func(*studySession) error) error {
	e, ok := s.sessions.get(id, s.now())
	if !ok {
		return errors.NewNotFoundError("study session", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

func (s *studyService) GetSession(ctx context.Context, id string) (*SessionView, error) {
	logger.FromContext(ctx).Debug("getting study session: id=%s", id)

	var view *SessionView
	err := s.with(id, func(sess *studySession) error {
		var err error
		view, err = s.view(ctx, sess)
		return err
	})
	return view, err
}

func (s *studyService) Flip(ctx context.Context, id string) (*SessionView, error) {
	logger.FromContext(ctx).Debug("flipping card: session_id=%s", id)

	var view *SessionView
	err := s.with(id, func(sess *studySession) error {
		sess.seq.Flip()
		var err error
		view, err = s.view(ctx, sess)
		return err
	})
	return view, err
}

func (s *studyService) Review(ctx context.Context, id string, quality int) (*ReviewView, error) {
	log := logger.FromContext(ctx)
	log.Debug("reviewing card: session_id=%s, quality=%d", id, quality)

	q := flashcard.Quality(quality)
	if !q.Valid() {
		return nil, errors.NewValidationError("quality", "must be between 1 and 5")
	}

	var result *ReviewView
	err := s.with(id, func(sess *studySession) error {
		out, err := sess.seq.Rate(ctx, s.progress, q)
		if err != nil {
			switch {
			case stderrors.Is(err, session.ErrCardHidden):
				return errors.NewBadRequestError(err.Error())
			case stderrors.Is(err, flashcard.ErrInvalidQuality):
				return errors.NewValidationError("quality", err.Error())
			}
			log.Error("failed to record review: %v", err)
			return errors.NewInternalError(err)
		}

		view, err := s.view(ctx, sess)
		if err != nil {
			return err
		}
		result = &ReviewView{Outcome: out, Session: view}

		log.Info("card reviewed: card_id=%s, quality=%s, interval=%d, wrapped=%t",
			out.Card.ID, q, out.State.IntervalDays, out.Wrapped)
		return nil
	})
	return result, err
}

func (s *studyService) Shuffle(ctx context.Context, id string) (*SessionView, error) {
	logger.FromContext(ctx).Debug("shuffling session: id=%s", id)

	var view *SessionView
	err := s.with(id, func(sess *studySession) error {
		sess.seq.Reshuffle()
		var err error
		view, err = s.view(ctx, sess)
		return err
	})
	return view, err
}

func (s *studyService) Reset(ctx context.Context, id string) (*SessionView, error) {
	logger.FromContext(ctx).Debug("resetting session: id=%s", id)

	var view *SessionView
	err := s.with(id, func(sess *studySession) error {
		sess.seq.Reset()
		var err error
		view, err = s.view(ctx, sess)
		return err
	})
	return view, err
}

func (s *studyService) EndSession(ctx context.Context, id string) error {
	log := logger.FromContext(ctx)
	log.Debug("ending study session: id=%s", id)

	if !s.sessions.remove(id) {
		return errors.NewNotFoundError("study session", id)
	}
	log.Info("study session ended: id=%s", id)
	return nil
}

func (s *studyService) CardProgress(ctx context.Context, cardID string) (*CardProgressView, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting card progress: card_id=%s", cardID)

	card, ok := s.catalog.Card(cardID)
	if !ok {
		return nil, errors.NewNotFoundError("card", cardID)
	}

	state, err := s.progress.Load(ctx, cardID)
	if err != nil {
		log.Error("failed to load card progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	view := &CardProgressView{Card: card, State: state, IsNew: state == nil}
	view.IsDue = state == nil || state.IsDue(s.now())
	return view, nil
}

// view renders sess. The caller holds the session lock.
func (s *studyService) view(ctx context.Context, sess *studySession) (*SessionView, error) {
	seq := sess.seq
	card := seq.Current()

	state, err := s.progress.Load(ctx, card.ID)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load card progress: %v", err)
		return nil, errors.NewInternalError(err)
	}

	cv := CardView{ID: card.ID, Front: card.Front, Difficulty: card.Difficulty, Tags: card.Tags}
	if seq.Phase() == session.PhaseBack {
		cv.Back = card.Back
	}

	stats := seq.Stats()
	return &SessionView{
		ID:         sess.id,
		ModuleID:   sess.filter.ModuleID,
		Difficulty: sess.filter.Difficulty,
		Quick:      sess.quick,
		Position:   seq.Index(),
		Total:      seq.Len(),
		Phase:      seq.Phase().String(),
		Laps:       seq.Laps(),
		Card:       cv,
		Progress:   state,
		Stats: SessionStatsView{
			CardsReviewed:  stats.CardsReviewed,
			Correct:        stats.Correct,
			Streak:         stats.Streak,
			Accuracy:       int(math.Round(stats.Accuracy())),
			ElapsedSeconds: int(stats.Elapsed(s.now()) / time.Second),
			StartedAt:      stats.StartedAt,
		},
	}, nil
}
