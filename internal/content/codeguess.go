package content

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"

	"classy-quiz-bot/internal/domain"
)

// SolutionStore supplies code-guessing source material.
type SolutionStore interface {
	// RandomSolution returns one uniformly random tagged snippet.
	RandomSolution(ctx context.Context) (domain.Solution, error)
	// Languages lists the distinct languages present in the store.
	Languages(ctx context.Context) ([]string, error)
}

// QuizFromSolution turns a snippet into a multiple-choice quiz with nChoices
// language options. The distractors are drawn at random from langs; when the
// draw misses the correct language it is force-inserted at a random slot so
// its position carries no signal.
func QuizFromSolution(sol domain.Solution, langs []string, nChoices int, rng *rand.Rand) (domain.MultiChoiceQuiz, error) {
	if nChoices < 2 {
		return domain.MultiChoiceQuiz{}, fmt.Errorf("%w: need at least 2 choices, got %d", domain.ErrInvalidQuiz, nChoices)
	}
	if len(langs) < nChoices {
		return domain.MultiChoiceQuiz{}, fmt.Errorf("%w: %d languages cannot fill %d choices", domain.ErrInvalidQuiz, len(langs), nChoices)
	}

	options := make([]string, nChoices)
	haveAnswer := false
	for i, j := range rng.Perm(len(langs))[:nChoices] {
		options[i] = langs[j]
		if langs[j] == sol.Language {
			haveAnswer = true
		}
	}
	if !haveAnswer {
		options[rng.Intn(nChoices)] = sol.Language
	}

	quiz := domain.MultiChoiceQuiz{
		Quiz: domain.Quiz{
			Title:        "CodeGuessr",
			PromptHeader: "What's this programming language?!",
			PromptBody:   fmt.Sprintf("```\n%s\n```", sol.Code),
		},
		AnswerHeader: "Answer",
		AnswerBody: fmt.Sprintf(
			"It was of course %s! This code is a solution to a Rosetta Code problem called %s (%s#%s).",
			sol.Language, sol.TaskName, sol.TaskURL, url.PathEscape(sol.Language),
		),
		Options: options,
		Answer:  sol.Language,
	}
	if err := quiz.Validate(); err != nil {
		return domain.MultiChoiceQuiz{}, err
	}
	return quiz, nil
}

// RandomCodeGuessQuiz fetches a random solution plus the language set and
// builds the quiz from them.
func RandomCodeGuessQuiz(ctx context.Context, store SolutionStore, nChoices int, rng *rand.Rand) (domain.MultiChoiceQuiz, error) {
	sol, err := store.RandomSolution(ctx)
	if err != nil {
		return domain.MultiChoiceQuiz{}, fmt.Errorf("random solution: %w", err)
	}
	langs, err := store.Languages(ctx)
	if err != nil {
		return domain.MultiChoiceQuiz{}, fmt.Errorf("list languages: %w", err)
	}
	return QuizFromSolution(sol, langs, nChoices, rng)
}
