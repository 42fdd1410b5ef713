package quiz

import (
	"sort"

	"classy-quiz-bot/internal/domain"
)

// scoreboard keeps submissions sorted best-first: successes before failures,
// faster before slower. Exact ties keep insertion order.
type scoreboard struct {
	subs []domain.Submission
}

func (b *scoreboard) insert(sub domain.Submission) {
	idx := sort.Search(len(b.subs), func(i int) bool {
		return sub.Less(b.subs[i])
	})
	b.subs = append(b.subs, domain.Submission{})
	copy(b.subs[idx+1:], b.subs[idx:])
	b.subs[idx] = sub
}

func (b *scoreboard) has(userID int64) bool {
	for _, sub := range b.subs {
		if sub.User.ID == userID {
			return true
		}
	}
	return false
}

func (b *scoreboard) snapshot() []domain.Submission {
	out := make([]domain.Submission, len(b.subs))
	copy(out, b.subs)
	return out
}
