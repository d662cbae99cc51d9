package quiz

import "context"

type AttemptListOpts struct {
	QuizID string
	UserID string
	Status string // optional: in_progress|submitted|graded
	Limit  int
	Offset int
}

// Store is the persistence contract for quizzes, attempts and answers.
//
// CreateAttempt must enforce the one-in-progress-attempt-per-(user,quiz)
// invariant at the storage layer (partial unique index or equivalent) and
// return ErrActiveAttemptExists when it is violated; callers treat that as
// "lost the race" and re-read the surviving row.
type Store interface {
	PutQuiz(ctx context.Context, q Quiz) error
	// GetQuiz returns the quiz with its full question set, answer keys
	// included. Callers that serve students strip the keys themselves.
	GetQuiz(ctx context.Context, id string) (Quiz, error)
	SetPublished(ctx context.Context, id string, published bool) error
	ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error)

	CreateAttempt(ctx context.Context, a Attempt) error
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	GetActiveAttempt(ctx context.Context, userID, quizID string) (Attempt, error)
	UpdateAttempt(ctx context.Context, a Attempt) error
	ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error)

	// UpsertAnswer is keyed by (attempt_id, question_id): concurrent
	// submissions for different questions never collide, and a re-answer
	// of the same question overwrites rather than appends.
	UpsertAnswer(ctx context.Context, ans Answer) error
	ListAnswers(ctx context.Context, attemptID string) ([]Answer, error)
	// ListAnswersByQuiz returns every answer of every attempt of a quiz,
	// used by the statistics collector.
	ListAnswersByQuiz(ctx context.Context, quizID string) ([]Answer, error)
}
