package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/vytor/part107/internal/flashcard"
	"github.com/vytor/part107/internal/models"
)

// QuickLimit is the deck size used by quick study mode.
const QuickLimit = 20

var (
	// ErrNoContent is returned when a selection yields no cards.
	ErrNoContent = errors.New("no flashcards available for this selection")
	// ErrCardHidden is returned when a card is rated before its answer is shown.
	ErrCardHidden = errors.New("flip the card before rating it")
)

// Phase is the visible side of the current card.
type Phase int

const (
	PhaseFront Phase = iota
	PhaseBack
)

func (p Phase) String() string {
	if p == PhaseBack {
		return "back"
	}
	return "front"
}

// CardSource supplies the catalog cards a session draws from.
type CardSource interface {
	AllCards() []models.Card
	CardsByModule(moduleID string) []models.Card
}

// ProgressStore is the subset of the progress repository a session needs.
type ProgressStore interface {
	Load(ctx context.Context, cardID string) (*models.CardScheduleState, error)
	SaveAll(ctx context.Context, states map[string]models.CardScheduleState) error
}

// Filter narrows the catalog. Empty fields match everything.
type Filter struct {
	ModuleID   string
	Difficulty models.Difficulty
}

// Select returns the cards matching f. Due dates are not consulted.
func Select(src CardSource, f Filter) []models.Card {
	var cards []models.Card
	if f.ModuleID == "" {
		cards = src.AllCards()
	} else {
		cards = src.CardsByModule(f.ModuleID)
	}

	if f.Difficulty == "" {
		return cards
	}

	out := cards[:0:0]
	for _, c := range cards {
		if c.Difficulty == f.Difficulty {
			out = append(out, c)
		}
	}
	return out
}

type Options struct {
	// Limit caps the deck after shuffling. Zero means no cap.
	Limit int
	Rand  *rand.Rand
	Clock func() time.Time
}

// Stats are session-local counters. They are never persisted.
type Stats struct {
	CardsReviewed int       `json:"cardsReviewed"`
	Correct       int       `json:"correct"`
	Streak        int       `json:"streak"`
	StartedAt     time.Time `json:"startedAt"`
}

// Elapsed is the wall time since the session (or its last reset) started.
func (s Stats) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Accuracy is the percentage of correct ratings, or 0 before any rating.
func (s Stats) Accuracy() float64 {
	if s.CardsReviewed == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.CardsReviewed) * 100
}

// Outcome describes one rating.
type Outcome struct {
	Card    models.Card              `json:"card"`
	State   models.CardScheduleState `json:"state"`
	IsNew   bool                     `json:"isNew"`
	Wrapped bool                     `json:"wrapped"`
}

// Sequencer walks a shuffled deck: show front, flip, rate, advance.
// Advancing past the last card wraps to the first. A Sequencer is not safe
// for concurrent use.
type Sequencer struct {
	pool  []models.Card
	deck  []models.Card
	index int
	phase Phase
	laps  int
	stats Stats

	limit int
	rng   *rand.Rand
	clock func() time.Time
}

// New builds a session over pool. It returns ErrNoContent if pool is empty.
func New(pool []models.Card, opts Options) (*Sequencer, error) {
	if len(pool) == 0 {
		return nil, ErrNoContent
	}

	s := &Sequencer{
		pool:  append([]models.Card(nil), pool...),
		limit: opts.Limit,
		rng:   opts.Rand,
		clock: opts.Clock,
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	s.draw()
	s.stats = Stats{StartedAt: s.clock()}
	return s, nil
}

func (s *Sequencer) draw() {
	deck := append([]models.Card(nil), s.pool...)
	s.shuffle(deck)
	if s.limit > 0 && len(deck) > s.limit {
		deck = deck[:s.limit]
	}
	s.deck = deck
	s.index = 0
	s.phase = PhaseFront
}

func (s *Sequencer) shuffle(cards []models.Card) {
	s.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
}

func (s *Sequencer) Current() models.Card { return s.deck[s.index] }
func (s *Sequencer) Index() int            { return s.index }
func (s *Sequencer) Len() int              { return len(s.deck) }
func (s *Sequencer) Phase() Phase          { return s.phase }
func (s *Sequencer) Laps() int             { return s.laps }
func (s *Sequencer) Stats() Stats          { return s.stats }

// Deck returns a copy of the cards in presentation order.
func (s *Sequencer) Deck() []models.Card {
	return append([]models.Card(nil), s.deck...)
}

// Flip toggles between the front and back of the current card.
func (s *Sequencer) Flip() Phase {
	if s.phase == PhaseFront {
		s.phase = PhaseBack
	} else {
		s.phase = PhaseFront
	}
	return s.phase
}

// Rate grades the current card, persists its new schedule and advances.
// Nothing changes if the grade is invalid or the save fails.
func (s *Sequencer) Rate(ctx context.Context, store ProgressStore, q flashcard.Quality) (Outcome, error) {
	if s.phase != PhaseBack {
		return Outcome{}, ErrCardHidden
	}

	card := s.Current()
	prior, err := store.Load(ctx, card.ID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load progress for %s: %w", card.ID, err)
	}

	next, err := flashcard.ApplyReview(card.ID, prior, q, s.clock())
	if err != nil {
		return Outcome{}, err
	}

	if err := store.SaveAll(ctx, map[string]models.CardScheduleState{card.ID: next}); err != nil {
		return Outcome{}, fmt.Errorf("save progress for %s: %w", card.ID, err)
	}

	s.stats.CardsReviewed++
	if q.Passed() {
		s.stats.Correct++
		s.stats.Streak++
	} else {
		s.stats.Streak = 0
	}

	out := Outcome{Card: card, State: next, IsNew: prior == nil}
	s.phase = PhaseFront
	s.index++
	if s.index >= len(s.deck) {
		s.index = 0
		s.laps++
		out.Wrapped = true
	}
	return out, nil
}

// Reshuffle reorders the current deck and returns to its first card.
// Statistics are kept.
func (s *Sequencer) Reshuffle() {
	s.shuffle(s.deck)
	s.index = 0
	s.phase = PhaseFront
}

// Reset draws a fresh deck from the pool and clears statistics.
func (s *Sequencer) Reset() {
	s.draw()
	s.laps = 0
	s.stats = Stats{StartedAt: s.clock()}
}
