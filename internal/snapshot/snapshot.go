// Package snapshot converts progress, test history and settings to and from
// their persisted JSON layout. Decoding is schema-checked and fails soft:
// bad entries are dropped with a warning instead of failing the whole load.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vytor/part107/internal/logger"
	"github.com/vytor/part107/internal/models"
)

var validate = validator.New()

// ErrInvalidDocument is returned when an import is not a JSON object.
var ErrInvalidDocument = errors.New("import is not a valid backup document")

// Validate checks a value against its struct tags.
func Validate(v any) error {
	return validate.Struct(v)
}

// Document is the complete persisted progress object.
type Document struct {
	FlashcardProgress map[string]models.CardScheduleState `json:"flashcardProgress"`
	TestHistory       []models.TestAttempt                `json:"testHistory"`
	Settings          models.Settings                     `json:"settings"`
}

// NewDocument returns an empty document with default settings.
func NewDocument() Document {
	return Document{
		FlashcardProgress: map[string]models.CardScheduleState{},
		TestHistory:       []models.TestAttempt{},
		Settings:          models.DefaultSettings(),
	}
}

func normalizeState(s models.CardScheduleState) models.CardScheduleState {
	s.NextReviewAt = s.NextReviewAt.UTC()
	return s
}

func normalizeAttempt(a models.TestAttempt) models.TestAttempt {
	a.Date = a.Date.UTC()
	return a
}

// EncodeProgress renders states keyed by card id with UTC ISO-8601 timestamps.
func EncodeProgress(states map[string]models.CardScheduleState) ([]byte, error) {
	out := make(map[string]models.CardScheduleState, len(states))
	for id, s := range states {
		out[id] = normalizeState(s)
	}
	return json.Marshal(out)
}

// DecodeProgress parses a progress object. Entries that do not decode or
// validate are skipped; a document that is not an object yields an empty map.
func DecodeProgress(ctx context.Context, data []byte) map[string]models.CardScheduleState {
	out := make(map[string]models.CardScheduleState)
	if len(bytes.TrimSpace(data)) == 0 {
		return out
	}

	log := logger.FromContext(ctx).WithPrefix("snapshot")

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).Warn("discarding unreadable flashcard progress")
		return out
	}

	for id, msg := range raw {
		state, err := decodeState(id, msg)
		if err != nil {
			log.WithField("card_id", id).WithError(err).Warn("skipping malformed progress entry")
			continue
		}
		out[id] = state
	}
	return out
}

func decodeState(id string, msg json.RawMessage) (models.CardScheduleState, error) {
	var s models.CardScheduleState
	if err := json.Unmarshal(msg, &s); err != nil {
		return s, err
	}
	if s.CardID == "" {
		s.CardID = id
	}
	if s.CardID != id {
		return s, fmt.Errorf("entry is for card %q", s.CardID)
	}
	if err := validate.Struct(s); err != nil {
		return s, err
	}
	return s, nil
}

// EncodeHistory renders attempts oldest first.
func EncodeHistory(attempts []models.TestAttempt) ([]byte, error) {
	out := make([]models.TestAttempt, len(attempts))
	for i, a := range attempts {
		out[i] = normalizeAttempt(a)
	}
	return json.Marshal(out)
}

// DecodeHistory parses a test history array, skipping invalid attempts.
func DecodeHistory(ctx context.Context, data []byte) []models.TestAttempt {
	out := []models.TestAttempt{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out
	}

	log := logger.FromContext(ctx).WithPrefix("snapshot")

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		log.WithError(err).Warn("discarding unreadable test history")
		return out
	}

	for i, msg := range raw {
		var a models.TestAttempt
		err := json.Unmarshal(msg, &a)
		if err == nil {
			err = validate.Struct(a)
		}
		if err != nil {
			log.WithField("index", i).WithError(err).Warn("skipping malformed test attempt")
			continue
		}
		out = append(out, a)
	}
	return out
}

// DecodeSettings merges stored settings over the defaults. Missing keys keep
// their default; an invalid object falls back to defaults entirely.
func DecodeSettings(ctx context.Context, data []byte) models.Settings {
	s := models.DefaultSettings()
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return s
	}

	log := logger.FromContext(ctx).WithPrefix("snapshot")

	if err := json.Unmarshal(data, &s); err != nil {
		log.WithError(err).Warn("discarding unreadable settings")
		return models.DefaultSettings()
	}
	if err := validate.Struct(s); err != nil {
		log.WithError(err).Warn("discarding invalid settings")
		return models.DefaultSettings()
	}
	return s
}

// DecodeDocument parses a whole persisted document, failing soft per section.
func DecodeDocument(ctx context.Context, data []byte) Document {
	doc := NewDocument()
	if len(bytes.TrimSpace(data)) == 0 {
		return doc
	}

	var raw struct {
		FlashcardProgress json.RawMessage `json:"flashcardProgress"`
		TestHistory       json.RawMessage `json:"testHistory"`
		Settings          json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.FromContext(ctx).WithPrefix("snapshot").WithError(err).Warn("discarding unreadable progress document")
		return doc
	}

	doc.FlashcardProgress = DecodeProgress(ctx, raw.FlashcardProgress)
	doc.TestHistory = DecodeHistory(ctx, raw.TestHistory)
	doc.Settings = DecodeSettings(ctx, raw.Settings)
	return doc
}

// EncodeDocument renders doc with stable key order.
func EncodeDocument(doc Document) ([]byte, error) {
	out := Document{
		FlashcardProgress: make(map[string]models.CardScheduleState, len(doc.FlashcardProgress)),
		TestHistory:       make([]models.TestAttempt, 0, len(doc.TestHistory)),
		Settings:          doc.Settings,
	}
	for id, s := range doc.FlashcardProgress {
		out.FlashcardProgress[id] = normalizeState(s)
	}
	for _, a := range doc.TestHistory {
		out.TestHistory = append(out.TestHistory, normalizeAttempt(a))
	}
	return json.MarshalIndent(out, "", "  ")
}

// Export is the backup file offered for download.
type Export struct {
	Settings          models.Settings                     `json:"settings"`
	FlashcardProgress map[string]models.CardScheduleState `json:"flashcardProgress"`
	TestHistory       []models.TestAttempt                `json:"testHistory"`
	ExportDate        time.Time                           `json:"exportDate"`
}

// NewExport builds a backup from the stored sections.
func NewExport(settings models.Settings, progress map[string]models.CardScheduleState, history []models.TestAttempt, now time.Time) Export {
	e := Export{
		Settings:          settings,
		FlashcardProgress: make(map[string]models.CardScheduleState, len(progress)),
		TestHistory:       make([]models.TestAttempt, 0, len(history)),
		ExportDate:        now.UTC(),
	}
	for id, s := range progress {
		e.FlashcardProgress[id] = normalizeState(s)
	}
	for _, a := range history {
		e.TestHistory = append(e.TestHistory, normalizeAttempt(a))
	}
	sort.SliceStable(e.TestHistory, func(i, j int) bool {
		return e.TestHistory[i].Date.Before(e.TestHistory[j].Date)
	})
	return e
}

// Import is a decoded backup. Nil fields were absent from the document and
// must be left untouched by the caller.
type Import struct {
	Settings          *models.Settings
	FlashcardProgress map[string]models.CardScheduleState
	TestHistory       []models.TestAttempt
	ExportDate        *time.Time
}

// ParseImport decodes a backup document. The progress and history sections
// may be embedded JSON objects or JSON strings holding the serialized
// section, as produced by older exports.
func ParseImport(ctx context.Context, data []byte) (Import, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		if err == nil {
			err = errors.New("document is null")
		}
		return Import{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	var imp Import

	if msg, ok := present(raw, "settings"); ok {
		s := DecodeSettings(ctx, msg)
		imp.Settings = &s
	}

	if msg, ok := present(raw, "flashcardProgress"); ok {
		section, err := unwrapSection(msg)
		if err != nil {
			return Import{}, fmt.Errorf("%w: flashcardProgress: %v", ErrInvalidDocument, err)
		}
		imp.FlashcardProgress = DecodeProgress(ctx, section)
	}

	if msg, ok := present(raw, "testHistory"); ok {
		section, err := unwrapSection(msg)
		if err != nil {
			return Import{}, fmt.Errorf("%w: testHistory: %v", ErrInvalidDocument, err)
		}
		imp.TestHistory = DecodeHistory(ctx, section)
	}

	if msg, ok := present(raw, "exportDate"); ok {
		var when time.Time
		if err := json.Unmarshal(msg, &when); err == nil {
			imp.ExportDate = &when
		}
	}

	return imp, nil
}

func present(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	msg, ok := raw[key]
	if !ok {
		return nil, false
	}
	trimmed := bytes.TrimSpace(msg)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		return nil, false
	}
	return trimmed, true
}

func unwrapSection(msg json.RawMessage) ([]byte, error) {
	if msg[0] != '"' {
		return msg, nil
	}
	var embedded string
	if err := json.Unmarshal(msg, &embedded); err != nil {
		return nil, err
	}
	return []byte(embedded), nil
}
