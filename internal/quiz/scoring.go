package quiz

import (
	"context"
	"math"

	"classy-quiz-bot/internal/domain"
)

// ScoreStore persists cross-session points. AddPoints has upsert-add
// semantics: the row is created with delta as its initial value if absent,
// otherwise delta is added to the existing total.
type ScoreStore interface {
	AddPoints(ctx context.Context, userID int64, delta int) error
	TopN(ctx context.Context, n int) ([]domain.ScoreRecord, error)
}

// ScoringHook runs once per accepted submission. Sessions without a hook
// keep no persistent score.
type ScoringHook func(ctx context.Context, sub domain.Submission) error

// CodeGuessPoints converts a submission into a point delta: a correct guess
// is worth max(round(20 - seconds taken), 1), a wrong one costs 20.
func CodeGuessPoints(sub domain.Submission) int {
	if !sub.Success {
		return -20
	}
	points := int(math.Round(20 - sub.TimeTaken.Seconds()))
	if points < 1 {
		points = 1
	}
	return points
}

// PersistentScoring builds the hook used by the code-guessing quiz: it adds
// CodeGuessPoints to the user's stored total.
func PersistentScoring(store ScoreStore) ScoringHook {
	return func(ctx context.Context, sub domain.Submission) error {
		return store.AddPoints(ctx, sub.User.ID, CodeGuessPoints(sub))
	}
}
