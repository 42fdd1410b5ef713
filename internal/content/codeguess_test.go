package content

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"classy-quiz-bot/internal/domain"
)

func sampleSolution() domain.Solution {
	return domain.Solution{
		ID:       1,
		TaskName: "FizzBuzz",
		TaskURL:  "https://rosettacode.org/wiki/FizzBuzz",
		Language: "Rust",
		Code:     "fn main() {}",
	}
}

func TestQuizFromSolutionKeepsAnswerWhenDrawn(t *testing.T) {
	langs := []string{"Python", "Go", "Rust", "C", "Java"}
	rng := rand.New(rand.NewSource(1))

	quiz, err := QuizFromSolution(sampleSolution(), langs, 5, rng)
	if err != nil {
		t.Fatalf("build quiz: %v", err)
	}
	if len(quiz.Options) != 5 {
		t.Fatalf("expected 5 options, got %d", len(quiz.Options))
	}
	count := 0
	for _, opt := range quiz.Options {
		if opt == "Rust" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected Rust exactly once, got %d in %v", count, quiz.Options)
	}
	if quiz.Answer != "Rust" {
		t.Fatalf("expected answer Rust, got %q", quiz.Answer)
	}
}

func TestQuizFromSolutionForceInsertsMissingAnswer(t *testing.T) {
	// The answer language is absent from the distractor pool, so every draw
	// must force-insert it. Its slot must be random: over many draws each
	// index should be hit.
	langs := []string{"Python", "Go", "C", "Java", "Haskell", "Perl", "Lua", "Ruby"}
	rng := rand.New(rand.NewSource(7))

	const nChoices = 5
	seen := make(map[int]int)
	for i := 0; i < 500; i++ {
		quiz, err := QuizFromSolution(sampleSolution(), langs, nChoices, rng)
		if err != nil {
			t.Fatalf("build quiz: %v", err)
		}
		if len(quiz.Options) != nChoices {
			t.Fatalf("expected %d options, got %v", nChoices, quiz.Options)
		}
		idx := -1
		for j, opt := range quiz.Options {
			if opt == "Rust" {
				if idx != -1 {
					t.Fatalf("Rust appears twice in %v", quiz.Options)
				}
				idx = j
			}
		}
		if idx == -1 {
			t.Fatalf("Rust missing from %v", quiz.Options)
		}
		seen[idx]++
	}
	for i := 0; i < nChoices; i++ {
		if seen[i] == 0 {
			t.Fatalf("forced insert never landed on index %d: %v", i, seen)
		}
	}
}

func TestQuizFromSolutionRejectsSmallPools(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if _, err := QuizFromSolution(sampleSolution(), []string{"Go", "C"}, 5, rng); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz for short pool, got %v", err)
	}
	if _, err := QuizFromSolution(sampleSolution(), []string{"Go", "C"}, 1, rng); !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz for 1 choice, got %v", err)
	}
}

func TestQuizFromSolutionPromptAndAnswerBodies(t *testing.T) {
	langs := []string{"Python", "Go", "Rust", "C", "Java"}
	rng := rand.New(rand.NewSource(3))

	quiz, err := QuizFromSolution(sampleSolution(), langs, 5, rng)
	if err != nil {
		t.Fatalf("build quiz: %v", err)
	}
	if !strings.Contains(quiz.PromptBody, "fn main() {}") {
		t.Fatalf("prompt body should carry the code, got %q", quiz.PromptBody)
	}
	if !strings.Contains(quiz.AnswerBody, "Rust") || !strings.Contains(quiz.AnswerBody, "FizzBuzz") {
		t.Fatalf("answer body should name the language and task, got %q", quiz.AnswerBody)
	}
}

type staticStore struct {
	sol   domain.Solution
	langs []string
}

func (s staticStore) RandomSolution(context.Context) (domain.Solution, error) { return s.sol, nil }
func (s staticStore) Languages(context.Context) ([]string, error)             { return s.langs, nil }

func TestRandomCodeGuessQuiz(t *testing.T) {
	store := staticStore{
		sol:   sampleSolution(),
		langs: []string{"Python", "Go", "Rust", "C", "Java", "Perl"},
	}
	quiz, err := RandomCodeGuessQuiz(context.Background(), store, 5, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatalf("random quiz: %v", err)
	}
	if err := quiz.Validate(); err != nil {
		t.Fatalf("built quiz invalid: %v", err)
	}
}
