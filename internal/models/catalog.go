package models

// Difficulty is the authored difficulty label of a card or question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known labels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Card struct {
	ID         string     `json:"id" yaml:"id" validate:"required"`
	Front      string     `json:"front" yaml:"front" validate:"required"`
	Back       string     `json:"back" yaml:"back" validate:"required"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty" validate:"oneof=easy medium hard"`
	Tags       []string   `json:"tags" yaml:"tags"`
}

type Question struct {
	ID            string     `json:"id" yaml:"id" validate:"required"`
	Question      string     `json:"question" yaml:"question" validate:"required"`
	Options       []string   `json:"options" yaml:"options" validate:"min=2,dive,required"`
	CorrectAnswer int        `json:"correct_answer" yaml:"correct_answer" validate:"gte=0,ltfield=OptionCount"`
	Explanation   string     `json:"explanation" yaml:"explanation"`
	Difficulty    Difficulty `json:"difficulty" yaml:"difficulty" validate:"oneof=easy medium hard"`
	Tags          []string   `json:"tags" yaml:"tags"`

	// OptionCount mirrors len(Options) so validation can bound CorrectAnswer.
	OptionCount int `json:"-" yaml:"-"`
}

type Topic struct {
	ID                string     `json:"id" yaml:"id" validate:"required"`
	Title             string     `json:"title" yaml:"title" validate:"required"`
	Content           string     `json:"content" yaml:"content"`
	KeyPoints         []string   `json:"key_points" yaml:"key_points"`
	Flashcards        []Card     `json:"flashcards" yaml:"flashcards" validate:"dive"`
	PracticeQuestions []Question `json:"practice_questions" yaml:"practice_questions" validate:"dive"`
}

type Module struct {
	ID             string  `json:"id" yaml:"id" validate:"required"`
	Title          string  `json:"title" yaml:"title" validate:"required"`
	Description    string  `json:"description" yaml:"description"`
	ExamPercentage int     `json:"exam_percentage" yaml:"exam_percentage" validate:"gte=0,lte=100"`
	Topics         []Topic `json:"topics" yaml:"topics" validate:"dive"`
}

// ModuleSummary is the catalog listing view of a module.
type ModuleSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ExamPercentage int    `json:"exam_percentage"`
	Topics         int    `json:"topics"`
	Flashcards     int    `json:"flashcards"`
	Questions      int    `json:"questions"`
}
