package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/vytor/part107/internal/errors"
	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
	"github.com/vytor/part107/internal/practice"
	"github.com/vytor/part107/internal/repository"
)

// PracticeService runs multiple-choice practice tests and keeps their history.
type PracticeService interface {
	StartTest(ctx context.Context, req StartTestRequest) (*TestView, error)
	GetTest(ctx context.Context, id string) (*TestView, error)
	Answer(ctx context.Context, id string, index, option int) (*TestView, error)
	Submit(ctx context.Context, id string) (*TestView, error)
	DiscardTest(ctx context.Context, id string) error
	History(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error)
	GetAttempt(ctx context.Context, id string) (*models.TestAttempt, error)
}

type StartTestRequest struct {
	Mode     string `json:"mode"`
	ModuleID string `json:"module_id"`
}

// QuestionView is a question as shown during a test. The answer key is only
// filled in once the test is submitted.
type QuestionView struct {
	ID            string            `json:"id"`
	Question      string            `json:"question"`
	Options       []string          `json:"options"`
	Difficulty    models.Difficulty `json:"difficulty"`
	Selected      *int              `json:"selected,omitempty"`
	CorrectAnswer *int              `json:"correct_answer,omitempty"`
	Explanation   string            `json:"explanation,omitempty"`
}

type TestView struct {
	ID        string              `json:"id"`
	Mode      practice.Mode       `json:"mode"`
	ModuleID  string              `json:"module_id,omitempty"`
	StartedAt time.Time           `json:"started_at"`
	Total     int                 `json:"total"`
	Answered  int                 `json:"answered"`
	Submitted bool                `json:"submitted"`
	Questions []QuestionView      `json:"questions"`
	Attempt   *models.TestAttempt `json:"attempt,omitempty"`
}

type practiceService struct {
	catalog Catalog
	history repository.TestHistoryRepository
	tests   *registry[*practice.Test]
	now     func() time.Time
}

// NewPracticeService creates a new PracticeService
func NewPracticeService(catalog Catalog, history repository.TestHistoryRepository, opts ...Option) PracticeService {
	o := applyOptions(opts)
	return &practiceService{
		catalog: catalog,
		history: history,
		tests:   newRegistry[*practice.Test](o.ttl),
		now:     o.now,
	}
}

func (s *practiceService) StartTest(ctx context.Context, req StartTestRequest) (*TestView, error) {
	log := logger.FromContext(ctx)
	log.Debug("starting practice test: mode=%s, module=%s", req.Mode, req.ModuleID)

	mode, err := practice.ParseMode(req.Mode)
	if err != nil {
		return nil, errors.NewValidationError("mode", "must be 'mini', 'quick', 'practice', 'full', or 'module'")
	}
	if mode == practice.ModeModule && req.ModuleID == "" {
		return nil, errors.NewValidationError("module_id", "required for module tests")
	}

	questions := s.catalog.AllQuestions()
	if req.ModuleID != "" {
		if _, ok := s.catalog.Module(req.ModuleID); !ok {
			return nil, errors.NewNotFoundError("module", req.ModuleID)
		}
		questions = s.catalog.QuestionsByModule(req.ModuleID)
	}

	test, err := practice.New(questions, practice.Config{Mode: mode, ModuleID: req.ModuleID, Now: s.now()})
	if err != nil {
		if stderrors.Is(err, practice.ErrNoQuestions) {
			return nil, errors.NewNoContentError(err)
		}
		return nil, errors.NewInternalError(err)
	}

	s.tests.put(test.ID(), test, s.now())
	log.Info("practice test started: id=%s, mode=%s, questions=%d", test.ID(), mode, test.Len())
	return testView(test), nil
}

func (s *practiceService) with(id string, fn func(*practice.Test) error) error {
	e, ok := s.tests.get(id, s.now())
	if !ok {
		return errors.NewNotFoundError("practice test", id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.value)
}

func (s *practiceService) GetTest(ctx context.Context, id string) (*TestView, error) {
	logger.FromContext(ctx).Debug("getting practice test: id=%s", id)

	var view *TestView
	err := s.with(id, func(t *practice.Test) error {
		view = testView(t)
		return nil
	})
	return view, err
}

func (s *practiceService) Answer(ctx context.Context, id string, index, option int) (*TestView, error) {
	logger.FromContext(ctx).Debug("answering question: test_id=%s, index=%d, option=%d", id, index, option)

	var view *TestView
	err := s.with(id, func(t *practice.Test) error {
		if err := t.Select(index, option); err != nil {
			switch {
			case stderrors.Is(err, practice.ErrSubmitted):
				return errors.NewConflictError(err.Error())
			case stderrors.Is(err, practice.ErrQuestionRange):
				return errors.NewValidationError("index", err.Error())
			case stderrors.Is(err, practice.ErrOptionRange):
				return errors.NewValidationError("option", err.Error())
			}
			return errors.NewInternalError(err)
		}
		view = testView(t)
		return nil
	})
	return view, err
}

func (s *practiceService) Submit(ctx context.Context, id string) (*TestView, error) {
	log := logger.FromContext(ctx)
	log.Debug("submitting practice test: id=%s", id)

	var view *TestView
	err := s.with(id, func(t *practice.Test) error {
		if t.Submitted() {
			log.Debug("practice test already submitted: id=%s", id)
			view = testView(t)
			return nil
		}

		attempt, err := t.Submit(s.now(), func(a models.TestAttempt) error {
			return s.history.Append(ctx, a)
		})
		if err != nil {
			if stderrors.Is(err, repository.ErrDuplicate) {
				return errors.NewConflictError("practice test already recorded")
			}
			log.Error("failed to record practice test: %v", err)
			return errors.NewInternalError(err)
		}

		log.Info("practice test submitted: id=%s, score=%d, correct=%d/%d",
			attempt.ID, attempt.ScorePercent, attempt.CorrectCount(), attempt.TotalQuestions)
		view = testView(t)
		return nil
	})
	return view, err
}

func (s *practiceService) DiscardTest(ctx context.Context, id string) error {
	logger.FromContext(ctx).Debug("discarding practice test: id=%s", id)

	if !s.tests.remove(id) {
		return errors.NewNotFoundError("practice test", id)
	}
	return nil
}

func (s *practiceService) History(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("listing test history: module=%s, limit=%d", filter.ModuleID, filter.Limit)

	if filter.Limit < 0 {
		return nil, errors.NewValidationError("limit", "must not be negative")
	}

	attempts, err := s.history.List(ctx, filter)
	if err != nil {
		log.Error("failed to list test history: %v", err)
		return nil, errors.NewInternalError(err)
	}
	return attempts, nil
}

func (s *practiceService) GetAttempt(ctx context.Context, id string) (*models.TestAttempt, error) {
	log := logger.FromContext(ctx)
	log.Debug("getting test attempt: id=%s", id)

	attempt, err := s.history.Get(ctx, id)
	if err != nil {
		log.Error("failed to get test attempt: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if attempt == nil {
		return nil, errors.NewNotFoundError("test attempt", id)
	}
	return attempt, nil
}

func testView(t *practice.Test) *TestView {
	selections := t.Selections()
	attempt, submitted := t.Attempt()

	view := &TestView{
		ID:        t.ID(),
		Mode:      t.Mode(),
		ModuleID:  t.ModuleID(),
		StartedAt: t.StartedAt(),
		Total:     t.Len(),
		Answered:  t.Answered(),
		Submitted: submitted,
	}

	for i, q := range t.Questions() {
		qv := QuestionView{
			ID:         q.ID,
			Question:   q.Question,
			Options:    q.Options,
			Difficulty: q.Difficulty,
		}
		if sel, ok := selections[i]; ok {
			qv.Selected = &sel
		}
		if submitted {
			correct := q.CorrectAnswer
			qv.CorrectAnswer = &correct
			qv.Explanation = q.Explanation
		}
		view.Questions = append(view.Questions, qv)
	}

	if submitted {
		view.Attempt = &attempt
	}
	return view
}
