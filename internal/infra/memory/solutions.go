package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"classy-quiz-bot/internal/domain"
)

// SolutionStore is a static in-memory content.SolutionStore (tests/demos).
type SolutionStore struct {
	mu        sync.Mutex
	solutions []domain.Solution
	rnd       *rand.Rand
}

func NewSolutionStore(solutions []domain.Solution) *SolutionStore {
	return &SolutionStore{
		solutions: solutions,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *SolutionStore) RandomSolution(_ context.Context) (domain.Solution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.solutions) == 0 {
		return domain.Solution{}, domain.ErrSolutionNotFound
	}
	return s.solutions[s.rnd.Intn(len(s.solutions))], nil
}

func (s *SolutionStore) Languages(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	langs := make([]string, 0, len(s.solutions))
	for _, sol := range s.solutions {
		if _, ok := seen[sol.Language]; ok {
			continue
		}
		seen[sol.Language] = struct{}{}
		langs = append(langs, sol.Language)
	}
	return langs, nil
}
