package flashcard

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/vytor/part107/internal/models"
)

// Quality is the 1-5 recall grade given after a card is revealed.
type Quality int

const (
	Again Quality = 1
	Hard  Quality = 2
	Fair  Quality = 3
	Good  Quality = 4
	Easy  Quality = 5
)

const (
	DefaultEase    = 2.5
	MinEase        = 1.3
	PassingQuality = Fair

	// RelearnDelay is used instead of a full day when a new card is failed.
	RelearnDelay = 10 * time.Minute

	lapseEasePenalty = 0.2
	day              = 24 * time.Hour
)

var ErrInvalidQuality = errors.New("quality must be between 1 and 5")

var qualityNames = [...]string{Again: "again", Hard: "hard", Fair: "fair", Good: "good", Easy: "easy"}

func (q Quality) Valid() bool {
	return q >= Again && q <= Easy
}

// Passed reports whether q counts as a successful recall.
func (q Quality) Passed() bool {
	return q >= PassingQuality
}

func (q Quality) String() string {
	if q.Valid() {
		return qualityNames[q]
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ApplyReview computes the next schedule for cardID. prior is nil when the card
// has never been reviewed. The result is not persisted.
func ApplyReview(cardID string, prior *models.CardScheduleState, quality Quality, now time.Time) (models.CardScheduleState, error) {
	if !quality.Valid() {
		return models.CardScheduleState{}, fmt.Errorf("%w: got %d", ErrInvalidQuality, int(quality))
	}

	next := models.CardScheduleState{
		CardID:     cardID,
		Difficulty: int(Easy - quality),
	}

	if prior == nil {
		next.EaseFactor = DefaultEase
		if quality.Passed() {
			next.Repetitions = 1
			next.IntervalDays = 1
			next.NextReviewAt = now.Add(day)
		} else {
			next.NextReviewAt = now.Add(RelearnDelay)
		}
		return next, nil
	}

	if !quality.Passed() {
		next.Repetitions = 0
		next.IntervalDays = 1
		next.EaseFactor = math.Max(MinEase, prior.EaseFactor-lapseEasePenalty)
		next.NextReviewAt = now.Add(day)
		return next, nil
	}

	next.Repetitions = prior.Repetitions + 1
	switch next.Repetitions {
	case 1:
		next.IntervalDays = 1
	case 2:
		next.IntervalDays = 6
	default:
		next.IntervalDays = int(math.Ceil(float64(prior.IntervalDays) * prior.EaseFactor))
	}

	next.EaseFactor = easeAfter(prior.EaseFactor, quality)
	next.NextReviewAt = now.Add(time.Duration(next.IntervalDays) * day)
	return next, nil
}

// easeAfter applies the SM-2 ease adjustment for a passing grade.
func easeAfter(ease float64, quality Quality) float64 {
	miss := float64(Easy - quality)
	ease += 0.1 - miss*(0.08+miss*0.02)
	if ease < MinEase {
		ease = MinEase
	}
	return ease
}
