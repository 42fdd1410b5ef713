package quiz

import (
	"fmt"
	"strings"

	"classy-quiz-bot/internal/domain"
)

// Field is one labeled block of a rendered message.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Payload is the full display state of a quiz message. It is what a platform
// adapter turns into an embed, card, or plain message.
type Payload struct {
	Title       string   `json:"title"`
	Color       string   `json:"color,omitempty"`
	Leaderboard string   `json:"leaderboard,omitempty"`
	Fields      []Field  `json:"fields"`
	Options     []string `json:"options,omitempty"`
	Finished    bool     `json:"finished"`
}

// MessageSink delivers render payloads to the outside world. Post publishes
// the session's message; Update edits it in place.
type MessageSink interface {
	Post(payload Payload) error
	Update(payload Payload) error
}

// RenderLeaderboard formats a best-first submission list, one line each.
// Successful submissions get a 1-based rank counting successes only; failed
// ones all share the `_` mark no matter how fast they were.
func RenderLeaderboard(subs []domain.Submission) string {
	if len(subs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(subs))
	rank := 0
	for _, sub := range subs {
		total := int(sub.TimeTaken.Seconds())
		elapsed := fmt.Sprintf("%02d:%02d", total/60, total%60)
		if sub.Success {
			rank++
			lines = append(lines, fmt.Sprintf("%d) %s %s ✅", rank, sub.User.Mention(), elapsed))
		} else {
			lines = append(lines, fmt.Sprintf("_) %s %s ❌", sub.User.Mention(), elapsed))
		}
	}
	return strings.Join(lines, "\n")
}
