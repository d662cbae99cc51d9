package quiz

import "errors"

// Sentinel errors grouped by the HTTP class the API layer maps them to.
// Anything not listed here is a persistence fault and propagates unchanged.
var (
	// not found
	ErrQuizNotFound     = errors.New("quiz not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrQuestionNotFound = errors.New("question not found")

	// forbidden
	ErrForbidden   = errors.New("forbidden")
	ErrNotEnrolled = errors.New("active enrollment required")

	// bad request
	ErrQuizNotPublished   = errors.New("quiz not published")
	ErrQuizImmutable      = errors.New("published quiz is immutable")
	ErrInvalidQuiz        = errors.New("invalid quiz")
	ErrAttemptFinalized   = errors.New("attempt already finalized")
	ErrAttemptExpired     = errors.New("time limit exceeded; attempt was finalized")
	ErrPrevAttemptExpired = errors.New("previous attempt expired and was finalized")

	// raised by stores when the in_progress uniqueness guard fires
	ErrActiveAttemptExists = errors.New("an in-progress attempt already exists")
)
