package quiz

import (
	"context"
	"testing"
	"time"

	"classy-quiz-bot/internal/domain"
)

func TestCodeGuessPoints(t *testing.T) {
	cases := []struct {
		name string
		sub  domain.Submission
		want int
	}{
		{"fast success", domain.Submission{Success: true, TimeTaken: 3 * time.Second}, 17},
		{"slow success floors at one", domain.Submission{Success: true, TimeTaken: 25 * time.Second}, 1},
		{"failure", domain.Submission{Success: false, TimeTaken: 2 * time.Second}, -20},
		{"instant success", domain.Submission{Success: true, TimeTaken: 0}, 20},
	}
	for _, tc := range cases {
		if got := CodeGuessPoints(tc.sub); got != tc.want {
			t.Fatalf("%s: expected %d points, got %d", tc.name, tc.want, got)
		}
	}
}

type recordingScoreStore struct {
	userID int64
	delta  int
	calls  int
}

func (s *recordingScoreStore) AddPoints(_ context.Context, userID int64, delta int) error {
	s.userID = userID
	s.delta = delta
	s.calls++
	return nil
}

func (s *recordingScoreStore) TopN(_ context.Context, _ int) ([]domain.ScoreRecord, error) {
	return nil, nil
}

func TestPersistentScoringAddsDelta(t *testing.T) {
	store := &recordingScoreStore{}
	hook := PersistentScoring(store)

	err := hook(context.Background(), domain.Submission{
		User:      domain.User{ID: 99},
		Success:   true,
		TimeTaken: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("hook failed: %v", err)
	}
	if store.calls != 1 || store.userID != 99 || store.delta != 17 {
		t.Fatalf("expected one AddPoints(99, 17), got calls=%d user=%d delta=%d", store.calls, store.userID, store.delta)
	}
}
