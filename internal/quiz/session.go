package quiz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"classy-quiz-bot/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Session drives one live quiz: it posts the question, accepts at most one
// timed submission per user, keeps the leaderboard ordered, and finalizes on
// timeout (or on an explicit Finalize call), revealing the answer and
// disabling further input.
type Session struct {
	mu      sync.Mutex
	content domain.MultiChoiceQuiz
	sink    MessageSink
	color   string
	timeout time.Duration
	hook    ScoringHook
	now     func() time.Time
	done    func()

	sent      bool
	finalized bool
	postedAt  time.Time
	timer     *time.Timer
	board     scoreboard
}

// Option configures a Session.
type Option func(*Session)

// WithColor sets the render color carried in every payload.
func WithColor(color string) Option {
	return func(s *Session) { s.color = color }
}

// WithTimeout sets the open window measured from Send.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithScoringHook attaches a per-submission scoring policy.
func WithScoringHook(hook ScoringHook) Option {
	return func(s *Session) { s.hook = hook }
}

// WithClock overrides the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithFinalizeFunc registers a callback run once when the session finalizes.
func WithFinalizeFunc(fn func()) Option {
	return func(s *Session) { s.done = fn }
}

// NewSession validates content and builds an open session with an empty
// scoreboard. Invalid content fails with domain.ErrInvalidQuiz.
func NewSession(content domain.MultiChoiceQuiz, sink MessageSink, opts ...Option) (*Session, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		content: content,
		sink:    sink,
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send posts the initial message and starts the timeout timer. It must be
// called exactly once; a second call fails with domain.ErrAlreadySent.
func (s *Session) Send(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sent {
		return domain.ErrAlreadySent
	}
	if err := s.sink.Post(s.payloadLocked()); err != nil {
		return fmt.Errorf("post quiz: %w", err)
	}
	s.sent = true
	s.postedAt = s.now()
	s.timer = time.AfterFunc(s.timeout, func() {
		_ = s.Finalize(context.Background())
	})
	return nil
}

// Submit records a user's answer choice made at the given instant.
//
// A submission after finalize is dropped without error (expected UI race).
// A duplicate user gets domain.ErrAlreadySubmitted with no state change.
// A label outside the option set is domain.ErrUnknownOption: it can only
// come from a forged or stale interaction.
func (s *Session) Submit(ctx context.Context, user domain.User, label string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.sent {
		return domain.ErrNotSent
	}
	if s.finalized {
		return nil
	}
	if s.board.has(user.ID) {
		return domain.ErrAlreadySubmitted
	}
	if !s.validOption(label) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownOption, label)
	}

	taken := at.Sub(s.postedAt)
	if taken < 0 {
		// Post and interaction timestamps come from different services;
		// clock skew must not leak a negative duration downstream.
		taken = 0
	}
	sub := domain.Submission{
		User:      user,
		Answer:    label,
		Success:   label == s.content.Answer,
		TimeTaken: taken,
	}

	var hookErr error
	if s.hook != nil {
		hookErr = s.hook(ctx, sub)
	}
	s.board.insert(sub)
	if err := s.sink.Update(s.payloadLocked()); err != nil {
		return fmt.Errorf("update leaderboard: %w", err)
	}
	if hookErr != nil {
		return fmt.Errorf("scoring hook: %w", hookErr)
	}
	return nil
}

// Finalize moves the session to its terminal state: the answer is revealed,
// options are disabled, and a last render goes out. Idempotent.
func (s *Session) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return nil
	}
	s.finalized = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.done != nil {
		defer s.done()
	}
	if !s.sent {
		return nil
	}
	if err := s.sink.Update(s.payloadLocked()); err != nil {
		return fmt.Errorf("final render: %w", err)
	}
	return nil
}

// Finalized reports whether the session reached its terminal state.
func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// Submissions returns the current best-first scoreboard.
func (s *Session) Submissions() []domain.Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board.snapshot()
}

func (s *Session) validOption(label string) bool {
	for _, opt := range s.content.Options {
		if opt == label {
			return true
		}
	}
	return false
}

func (s *Session) payloadLocked() Payload {
	p := Payload{
		Title:       s.content.Title,
		Color:       s.color,
		Leaderboard: RenderLeaderboard(s.board.subs),
		Fields: []Field{
			{Name: s.content.PromptHeader, Value: s.content.PromptBody},
		},
		Finished: s.finalized,
	}
	if s.finalized {
		p.Title += " *ENDED*"
		p.Fields = append(p.Fields, Field{Name: s.content.AnswerHeader, Value: s.content.AnswerBody})
	} else {
		p.Options = append([]string(nil), s.content.Options...)
	}
	return p
}
