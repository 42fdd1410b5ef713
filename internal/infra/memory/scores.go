package memory

import (
	"context"
	"sort"
	"sync"

	"classy-quiz-bot/internal/domain"
)

// ScoreStore is an in-memory quiz.ScoreStore.
type ScoreStore struct {
	mu     sync.Mutex
	points map[int64]int
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{points: make(map[int64]int)}
}

func (s *ScoreStore) AddPoints(_ context.Context, userID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[userID] += delta
	return nil
}

func (s *ScoreStore) TopN(_ context.Context, n int) ([]domain.ScoreRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := make([]domain.ScoreRecord, 0, len(s.points))
	for userID, points := range s.points {
		records = append(records, domain.ScoreRecord{UserID: userID, Points: points})
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Points > records[j].Points
	})
	if n < len(records) {
		records = records[:n]
	}
	return records, nil
}
