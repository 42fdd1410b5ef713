package content

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand"

	"classy-quiz-bot/internal/domain"
)

//go:embed math_qa.json
var mathBankJSON []byte

// MathQuestion mirrors one entry of the bundled question bank. Options pair
// a letter with the option text; Correct names the right letter.
type MathQuestion struct {
	Problem   string      `json:"problem"`
	Category  string      `json:"category"`
	Options   [][2]string `json:"options"`
	Correct   string      `json:"correct"`
	Rationale string      `json:"rationale"`
}

// MathBank is the static math quiz source.
type MathBank struct {
	questions []MathQuestion
}

// NewMathBank parses the embedded question bank.
func NewMathBank() (*MathBank, error) {
	return MathBankFromJSON(mathBankJSON)
}

// MathBankFromJSON builds a bank from raw JSON (tests, alternate banks).
func MathBankFromJSON(data []byte) (*MathBank, error) {
	var questions []MathQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse math bank: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("math bank is empty")
	}
	return &MathBank{questions: questions}, nil
}

// Random picks one question and shapes it into quiz content.
func (b *MathBank) Random(rng *rand.Rand) (domain.MultiChoiceQuiz, error) {
	return b.questions[rng.Intn(len(b.questions))].toQuiz()
}

func (q MathQuestion) toQuiz() (domain.MultiChoiceQuiz, error) {
	options := make([]string, len(q.Options))
	answer := ""
	for i, pair := range q.Options {
		options[i] = pair[1]
		if pair[0] == q.Correct {
			answer = pair[1]
		}
	}
	if answer == "" {
		return domain.MultiChoiceQuiz{}, fmt.Errorf("%w: correct letter %q not among options", domain.ErrInvalidQuiz, q.Correct)
	}
	quiz := domain.MultiChoiceQuiz{
		Quiz: domain.Quiz{
			Title:        "Math Quiz",
			PromptHeader: "Problem",
			PromptBody:   q.Problem,
		},
		AnswerHeader: "Rationale",
		AnswerBody:   q.Rationale,
		Options:      options,
		Answer:       answer,
	}
	if err := quiz.Validate(); err != nil {
		return domain.MultiChoiceQuiz{}, err
	}
	return quiz, nil
}
