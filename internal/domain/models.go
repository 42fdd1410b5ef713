package domain

import (
	"fmt"
	"time"
)

// User identifies a chat-platform participant.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Mention renders the display reference used in leaderboards and captions.
func (u User) Mention() string {
	if u.Name != "" {
		return u.Name
	}
	return fmt.Sprintf("<@%d>", u.ID)
}

// Quiz is the minimal content every quiz variant shares.
type Quiz struct {
	Title        string `json:"title"`
	PromptHeader string `json:"promptHeader"`
	PromptBody   string `json:"promptBody"`
}

// MultiChoiceQuiz adds answer options and the reveal shown on finalize.
type MultiChoiceQuiz struct {
	Quiz
	AnswerHeader string   `json:"answerHeader"`
	AnswerBody   string   `json:"answerBody"`
	Options      []string `json:"options"`
	Answer       string   `json:"answer"`
}

// Validate checks the invariants a session relies on: at least two options
// and the correct answer appearing among them exactly once.
func (q MultiChoiceQuiz) Validate() error {
	if len(q.Options) < 2 {
		return fmt.Errorf("%w: need at least 2 options, got %d", ErrInvalidQuiz, len(q.Options))
	}
	seen := 0
	for _, opt := range q.Options {
		if opt == q.Answer {
			seen++
		}
	}
	if seen != 1 {
		return fmt.Errorf("%w: answer %q appears %d times in options", ErrInvalidQuiz, q.Answer, seen)
	}
	return nil
}

// Submission records one user's answer attempt. Immutable once built.
type Submission struct {
	User      User
	Answer    string
	Success   bool
	TimeTaken time.Duration
}

// Less orders submissions best-first: successes before failures, faster
// before slower within the same group.
func (s Submission) Less(other Submission) bool {
	if s.Success != other.Success {
		return s.Success
	}
	return s.TimeTaken < other.TimeTaken
}

// ScoreRecord is one row of the persistent cross-session leaderboard.
type ScoreRecord struct {
	UserID int64
	Points int
}

// Solution is one language-tagged source snippet from the solutions store.
type Solution struct {
	ID       int64
	TaskName string
	TaskURL  string
	Language string
	Code     string
}
