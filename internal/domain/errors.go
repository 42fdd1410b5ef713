package domain

import "errors"

var (
	// ErrInvalidQuiz is returned when quiz content violates its invariants
	// (bad option count, answer missing or duplicated).
	ErrInvalidQuiz = errors.New("invalid quiz content")
	// ErrAlreadySent indicates Send was called twice on the same session.
	ErrAlreadySent = errors.New("quiz already sent")
	// ErrNotSent indicates a submission arrived before the quiz was posted.
	ErrNotSent = errors.New("quiz not sent yet")
	// ErrUnknownOption indicates a forged or stale interaction label.
	ErrUnknownOption = errors.New("unknown answer option")
	// ErrAlreadySubmitted is the non-fatal duplicate-submission outcome; the
	// caller shows an ephemeral notice and the session state is unchanged.
	ErrAlreadySubmitted = errors.New("user has already submitted")
	// ErrSessionNotFound is returned when an interaction references a quiz
	// session that has finished or never existed.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSolutionNotFound indicates the solutions store is empty.
	ErrSolutionNotFound = errors.New("no solutions available")
)
