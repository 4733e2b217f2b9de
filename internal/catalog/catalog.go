package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/vytor/part107/internal/models"
)

//go:embed data/part107.yaml
var defaultContent []byte

// Catalog is the read-only study content. It is safe for concurrent use.
type Catalog struct {
	modules   []models.Module
	cards     []models.Card
	questions []models.Question

	cardModule     map[string]string
	questionModule map[string]string
	moduleIndex    map[string]int
}

type document struct {
	Modules []models.Module `yaml:"modules" validate:"required,min=1,dive"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded Part 107 catalog, parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(defaultContent)
	})
	return defaultCatalog, defaultErr
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for mi := range doc.Modules {
		for ti := range doc.Modules[mi].Topics {
			qs := doc.Modules[mi].Topics[ti].PracticeQuestions
			for qi := range qs {
				qs[qi].OptionCount = len(qs[qi].Options)
			}
		}
	}

	if err := validator.New().Struct(doc); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	return build(doc.Modules)
}

func build(modules []models.Module) (*Catalog, error) {
	c := &Catalog{
		modules:        modules,
		cardModule:     make(map[string]string),
		questionModule: make(map[string]string),
		moduleIndex:    make(map[string]int, len(modules)),
	}

	for i, m := range modules {
		if _, dup := c.moduleIndex[m.ID]; dup {
			return nil, fmt.Errorf("duplicate module id %q", m.ID)
		}
		c.moduleIndex[m.ID] = i

		for _, t := range m.Topics {
			for _, card := range t.Flashcards {
				if _, dup := c.cardModule[card.ID]; dup {
					return nil, fmt.Errorf("duplicate card id %q", card.ID)
				}
				c.cardModule[card.ID] = m.ID
				c.cards = append(c.cards, card)
			}
			for _, q := range t.PracticeQuestions {
				if _, dup := c.questionModule[q.ID]; dup {
					return nil, fmt.Errorf("duplicate question id %q", q.ID)
				}
				c.questionModule[q.ID] = m.ID
				c.questions = append(c.questions, q)
			}
		}
	}

	return c, nil
}

// Modules lists every module with its content counts, in catalog order.
func (c *Catalog) Modules() []models.ModuleSummary {
	out := make([]models.ModuleSummary, 0, len(c.modules))
	for _, m := range c.modules {
		s := models.ModuleSummary{
			ID:             m.ID,
			Title:          m.Title,
			Description:    m.Description,
			ExamPercentage: m.ExamPercentage,
			Topics:         len(m.Topics),
		}
		for _, t := range m.Topics {
			s.Flashcards += len(t.Flashcards)
			s.Questions += len(t.PracticeQuestions)
		}
		out = append(out, s)
	}
	return out
}

// Module returns the full module, or false if id is unknown.
func (c *Catalog) Module(id string) (models.Module, bool) {
	i, ok := c.moduleIndex[id]
	if !ok {
		return models.Module{}, false
	}
	return c.modules[i], true
}

// AllCards returns every flashcard in catalog order. The slice is a copy.
func (c *Catalog) AllCards() []models.Card {
	return append([]models.Card(nil), c.cards...)
}

// CardsByModule returns the cards of one module, or nil for an unknown id.
func (c *Catalog) CardsByModule(moduleID string) []models.Card {
	var out []models.Card
	for _, card := range c.cards {
		if c.cardModule[card.ID] == moduleID {
			out = append(out, card)
		}
	}
	return out
}

// Card looks up a flashcard by id.
func (c *Catalog) Card(id string) (models.Card, bool) {
	if _, ok := c.cardModule[id]; !ok {
		return models.Card{}, false
	}
	for _, card := range c.cards {
		if card.ID == id {
			return card, true
		}
	}
	return models.Card{}, false
}

func (c *Catalog) AllQuestions() []models.Question {
	return append([]models.Question(nil), c.questions...)
}

func (c *Catalog) QuestionsByModule(moduleID string) []models.Question {
	var out []models.Question
	for _, q := range c.questions {
		if c.questionModule[q.ID] == moduleID {
			out = append(out, q)
		}
	}
	return out
}

// ModuleForCard returns the id of the module that owns a card.
func (c *Catalog) ModuleForCard(cardID string) (string, bool) {
	id, ok := c.cardModule[cardID]
	return id, ok
}

// ModuleForQuestion returns the id of the module that owns a question.
func (c *Catalog) ModuleForQuestion(questionID string) (string, bool) {
	id, ok := c.questionModule[questionID]
	return id, ok
}
