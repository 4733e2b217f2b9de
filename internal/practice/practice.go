package practice

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/vytor/part107/internal/models"
)

// Unanswered is the recorded selection for a question left blank.
const Unanswered = -1

var (
	ErrNoQuestions   = errors.New("no practice questions available for this selection")
	ErrInvalidMode   = errors.New("unknown test mode")
	ErrQuestionRange = errors.New("question index out of range")
	ErrOptionRange   = errors.New("answer option out of range")
	ErrSubmitted     = errors.New("test already submitted")
)

// Mode decides how many questions a test draws.
type Mode string

const (
	ModeMini     Mode = "mini"
	ModeQuick    Mode = "quick"
	ModePractice Mode = "practice"
	ModeFull     Mode = "full"
	ModeModule   Mode = "module"
)

var modeLimits = map[Mode]int{
	ModeMini:     10,
	ModeQuick:    20,
	ModePractice: 50,
	ModeFull:     100,
	ModeModule:   0,
}

// ParseMode accepts a mode name. An empty name selects ModeQuick.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeQuick, nil
	}
	m := Mode(s)
	if _, ok := modeLimits[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
	return m, nil
}

// Limit is the question cap for m; 0 means all questions.
func (m Mode) Limit() int {
	return modeLimits[m]
}

// Result is the outcome of scoring a set of selections.
type Result struct {
	Answers      []models.AnswerRecord
	Correct      int
	ScorePercent int
}

// Score grades selections (question index to option index) against questions.
// Missing selections are recorded as Unanswered. Time is split evenly across
// questions, rounding down.
func Score(questions []models.Question, selections map[int]int, elapsedSeconds int) Result {
	res := Result{Answers: make([]models.AnswerRecord, 0, len(questions))}
	if len(questions) == 0 {
		return res
	}

	perQuestion := elapsedSeconds / len(questions)
	for i, q := range questions {
		selected, ok := selections[i]
		if !ok {
			selected = Unanswered
		}
		correct := selected == q.CorrectAnswer
		if correct {
			res.Correct++
		}
		res.Answers = append(res.Answers, models.AnswerRecord{
			QuestionID:       q.ID,
			SelectedAnswer:   selected,
			IsCorrect:        correct,
			TimeSpentSeconds: perQuestion,
		})
	}

	res.ScorePercent = int(math.Round(float64(res.Correct) / float64(len(questions)) * 100))
	return res
}

type Config struct {
	Mode Mode
	// ModuleID is recorded on the attempt. Empty means all modules.
	ModuleID string
	Rand     *rand.Rand
	Now      time.Time
}

// Test is one in-progress practice test. It is not safe for concurrent use.
type Test struct {
	id         string
	mode       Mode
	moduleID   string
	questions  []models.Question
	selections map[int]int
	startedAt  time.Time
	attempt    *models.TestAttempt
}

// New shuffles questions and caps them for cfg.Mode.
func New(questions []models.Question, cfg Config) (*Test, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeQuick
	}
	if _, ok := modeLimits[cfg.Mode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, cfg.Mode)
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	qs := append([]models.Question(nil), questions...)
	rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
	if limit := cfg.Mode.Limit(); limit > 0 && len(qs) > limit {
		qs = qs[:limit]
	}

	return &Test{
		id:         "test-" + uuid.NewString(),
		mode:       cfg.Mode,
		moduleID:   cfg.ModuleID,
		questions:  qs,
		selections: make(map[int]int),
		startedAt:  cfg.Now,
	}, nil
}

func (t *Test) ID() string           { return t.id }
func (t *Test) Mode() Mode           { return t.mode }
func (t *Test) ModuleID() string     { return t.moduleID }
func (t *Test) StartedAt() time.Time { return t.startedAt }
func (t *Test) Len() int             { return len(t.questions) }

func (t *Test) Questions() []models.Question {
	return append([]models.Question(nil), t.questions...)
}

// Selections returns a copy of the current answers by question index.
func (t *Test) Selections() map[int]int {
	out := make(map[int]int, len(t.selections))
	for k, v := range t.selections {
		out[k] = v
	}
	return out
}

// Select records option as the answer to the question at index, replacing any
// earlier answer.
func (t *Test) Select(index, option int) error {
	if t.attempt != nil {
		return ErrSubmitted
	}
	if index < 0 || index >= len(t.questions) {
		return fmt.Errorf("%w: %d", ErrQuestionRange, index)
	}
	if option < 0 || option >= len(t.questions[index].Options) {
		return fmt.Errorf("%w: %d", ErrOptionRange, option)
	}
	t.selections[index] = option
	return nil
}

// Answered is the number of questions with a selection.
func (t *Test) Answered() int {
	return len(t.selections)
}

// Submitted reports whether the test has been scored and recorded.
func (t *Test) Submitted() bool {
	return t.attempt != nil
}

// Attempt returns the recorded attempt, if any.
func (t *Test) Attempt() (models.TestAttempt, bool) {
	if t.attempt == nil {
		return models.TestAttempt{}, false
	}
	return *t.attempt, true
}

// Submit scores the test and hands the attempt to record exactly once. Later
// calls return the first attempt without calling record. If record fails the
// test stays open.
func (t *Test) Submit(now time.Time, record func(models.TestAttempt) error) (models.TestAttempt, error) {
	if t.attempt != nil {
		return *t.attempt, nil
	}

	elapsed := int(now.Sub(t.startedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	res := Score(t.questions, t.selections, elapsed)

	attempt := models.TestAttempt{
		ID:               t.id,
		Date:             now,
		ModuleID:         t.moduleID,
		TotalQuestions:   len(t.questions),
		TimeSpentSeconds: elapsed,
		ScorePercent:     res.ScorePercent,
		Answers:          res.Answers,
	}

	if record != nil {
		if err := record(attempt); err != nil {
			return models.TestAttempt{}, fmt.Errorf("record attempt: %w", err)
		}
	}
	t.attempt = &attempt
	return attempt, nil
}
