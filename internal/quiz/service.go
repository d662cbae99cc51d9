package quiz

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/metrics"
)

// EnrollmentChecker is the enrollment collaborator: attempts may only be
// started or read by users holding an ACTIVE enrollment in the quiz's course.
type EnrollmentChecker interface {
	IsActive(ctx context.Context, userID, courseID string) (bool, error)
}

// CourseAccess answers whether a caller may manage a course: its instructor
// or an administrator. Gates regrading, manual grading and statistics.
type CourseAccess interface {
	CanManage(ctx context.Context, userID, courseID string) (bool, error)
}

// EventSink receives lifecycle events (attempt.started, attempt.submitted,
// attempt.regraded). Emission is best-effort and never fails the operation.
type EventSink interface {
	Emit(ctx context.Context, typ, key string, payload interface{})
}

type Service struct {
	store   Store
	grader  grading.Grader
	enroll  EnrollmentChecker
	courses CourseAccess
	events  EventSink
	now     func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the service clock; tests use it to drive expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, grader grading.Grader, enroll EnrollmentChecker, courses CourseAccess, events EventSink, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		grader:  grader,
		enroll:  enroll,
		courses: courses,
		events:  events,
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartAttempt opens (or resumes) the caller's attempt on a published quiz.
// If an in-progress attempt exists and is still within its window it is
// returned with the remaining time; if it has run out it is finalized through
// the submission path and ErrPrevAttemptExpired is returned instead of stale
// state. The duplicate-start race is closed by the store's uniqueness guard:
// a losing insert re-reads the surviving row.
func (s *Service) StartAttempt(ctx context.Context, userID, quizID string) (AttemptView, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return AttemptView{}, err
	}
	if !q.Published {
		return AttemptView{}, ErrQuizNotPublished
	}
	ok, err := s.enroll.IsActive(ctx, userID, q.CourseID)
	if err != nil {
		return AttemptView{}, err
	}
	if !ok {
		return AttemptView{}, ErrNotEnrolled
	}

	if existing, err := s.store.GetActiveAttempt(ctx, userID, quizID); err == nil {
		return s.resumeOrExpire(ctx, q, existing)
	} else if !errors.Is(err, ErrAttemptNotFound) {
		return AttemptView{}, err
	}

	a := Attempt{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		UserID:    userID,
		Status:    StatusInProgress,
		StartedAt: s.now().Unix(),
		MaxScore:  q.MaxScore(),
	}
	if err := s.store.CreateAttempt(ctx, a); err != nil {
		if errors.Is(err, ErrActiveAttemptExists) {
			// lost the race to a concurrent start; the surviving row wins
			existing, gerr := s.store.GetActiveAttempt(ctx, userID, quizID)
			if gerr != nil {
				return AttemptView{}, gerr
			}
			return s.resumeOrExpire(ctx, q, existing)
		}
		return AttemptView{}, err
	}
	metrics.AttemptsStarted.Inc()
	s.emit(ctx, "attempt.started", a.ID, a)
	return s.view(q, a), nil
}

func (s *Service) resumeOrExpire(ctx context.Context, q Quiz, a Attempt) (AttemptView, error) {
	if s.expired(q, a) {
		if _, err := s.finalize(ctx, q, a, "expiry"); err != nil {
			return AttemptView{}, err
		}
		return AttemptView{}, ErrPrevAttemptExpired
	}
	return s.view(q, a), nil
}

// GetAttempt returns the attempt to its owner. An in-progress attempt past
// its window is finalized first, so callers never observe a stale
// in_progress row.
func (s *Service) GetAttempt(ctx context.Context, attemptID, callerID string) (AttemptView, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return AttemptView{}, err
	}
	if a.UserID != callerID {
		return AttemptView{}, ErrForbidden
	}
	q, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return AttemptView{}, err
	}
	if a.Status == StatusInProgress && s.expired(q, a) {
		a, err = s.finalize(ctx, q, a, "expiry")
		if err != nil {
			return AttemptView{}, err
		}
	}
	return s.view(q, a), nil
}

// SubmitAnswer grades one answer and upserts it under (attempt, question).
// If the attempt's window has run out the attempt is finalized and the
// answer is rejected, not recorded.
func (s *Service) SubmitAnswer(ctx context.Context, attemptID, callerID, questionID string, value grading.Value) (Answer, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Answer{}, err
	}
	if a.UserID != callerID {
		return Answer{}, ErrForbidden
	}
	if a.Terminal() {
		return Answer{}, ErrAttemptFinalized
	}
	q, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Answer{}, err
	}
	if s.expired(q, a) {
		if _, err := s.finalize(ctx, q, a, "expiry"); err != nil {
			return Answer{}, err
		}
		return Answer{}, ErrAttemptExpired
	}
	question, ok := q.QuestionByID(questionID)
	if !ok {
		return Answer{}, ErrQuestionNotFound
	}

	res := s.grader.Grade(gradingQ(question), value)
	ans := Answer{
		AttemptID:    attemptID,
		QuestionID:   questionID,
		Value:        value,
		Correct:      res.Correct,
		PointsEarned: res.Points,
	}
	if err := s.store.UpsertAnswer(ctx, ans); err != nil {
		return Answer{}, err
	}
	metrics.AnswersGraded.WithLabelValues(question.Type).Inc()
	return ans, nil
}

// SubmitQuiz finalizes the caller's attempt and returns the scoring summary.
func (s *Service) SubmitQuiz(ctx context.Context, attemptID, callerID string) (SubmissionSummary, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return SubmissionSummary{}, err
	}
	if a.UserID != callerID {
		return SubmissionSummary{}, ErrForbidden
	}
	if a.Terminal() {
		return SubmissionSummary{}, ErrAttemptFinalized
	}
	q, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return SubmissionSummary{}, err
	}
	a, err = s.finalize(ctx, q, a, "manual")
	if err != nil {
		return SubmissionSummary{}, err
	}
	return SubmissionSummary{
		AttemptID:         a.ID,
		Score:             *a.Score,
		MaxScore:          a.MaxScore,
		Passed:            *a.Passed,
		CompletionTimeSec: *a.SubmittedAt - a.StartedAt,
		SubmittedAt:       *a.SubmittedAt,
	}, nil
}

// finalize is the single path that moves an attempt out of in_progress,
// shared by manual submission and lazy expiry.
func (s *Service) finalize(ctx context.Context, q Quiz, a Attempt, reason string) (Attempt, error) {
	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return Attempt{}, err
	}
	total := 0
	for _, ans := range answers {
		total += ans.PointsEarned
	}
	score := percentage(total, a.MaxScore)
	passed := score >= q.PassingScore
	now := s.now().Unix()

	a.Status = StatusSubmitted
	a.SubmittedAt = &now
	a.Score = &score
	a.Passed = &passed
	if err := s.store.UpdateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	metrics.AttemptsSubmitted.WithLabelValues(reason).Inc()
	s.emit(ctx, "attempt.submitted", a.ID, a)
	return a, nil
}

// RegradeAttempt re-runs the grader over every stored answer of a finalized
// attempt, overwrites correctness and points, recomputes the score and moves
// the attempt to graded. Manual essay grades survive a regrade; rerunning
// the automatic grader would discard human judgment.
func (s *Service) RegradeAttempt(ctx context.Context, attemptID, callerID string) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	q, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	if err := s.requireManage(ctx, callerID, q.CourseID); err != nil {
		return Attempt{}, err
	}
	if !a.Terminal() {
		return Attempt{}, fmt.Errorf("%w: cannot regrade an in-progress attempt", ErrAttemptFinalized)
	}

	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return Attempt{}, err
	}
	total := 0
	for _, ans := range answers {
		question, ok := q.QuestionByID(ans.QuestionID)
		if !ok {
			continue
		}
		if question.Type == TypeEssay && ans.GradedBy != "" {
			total += ans.PointsEarned
			continue
		}
		res := s.grader.Grade(gradingQ(question), ans.Value)
		ans.Correct = res.Correct
		ans.PointsEarned = res.Points
		if err := s.store.UpsertAnswer(ctx, ans); err != nil {
			return Attempt{}, err
		}
		total += res.Points
	}

	score := percentage(total, a.MaxScore)
	passed := score >= q.PassingScore
	a.Status = StatusGraded
	a.Score = &score
	a.Passed = &passed
	if err := s.store.UpdateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	metrics.AttemptsRegraded.Inc()
	s.emit(ctx, "attempt.regraded", a.ID, a)
	return a, nil
}

// ApplyManualGrades records instructor points for individual answers
// (essays, typically), clamped to each question's points, then recomputes
// the score and marks the attempt graded.
func (s *Service) ApplyManualGrades(ctx context.Context, attemptID, callerID string, updates map[string]ManualGradeInput) (Attempt, error) {
	a, err := s.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	q, err := s.store.GetQuiz(ctx, a.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	if err := s.requireManage(ctx, callerID, q.CourseID); err != nil {
		return Attempt{}, err
	}
	if !a.Terminal() {
		return Attempt{}, fmt.Errorf("%w: cannot grade an in-progress attempt", ErrAttemptFinalized)
	}

	answers, err := s.store.ListAnswers(ctx, a.ID)
	if err != nil {
		return Attempt{}, err
	}
	byQuestion := make(map[string]Answer, len(answers))
	for _, ans := range answers {
		byQuestion[ans.QuestionID] = ans
	}

	for questionID, in := range updates {
		question, ok := q.QuestionByID(questionID)
		if !ok {
			return Attempt{}, ErrQuestionNotFound
		}
		points := in.Points
		if points < 0 {
			points = 0
		}
		if points > question.Points {
			points = question.Points
		}
		ans, ok := byQuestion[questionID]
		if !ok {
			ans = Answer{AttemptID: attemptID, QuestionID: questionID}
		}
		correct := points > 0
		ans.Correct = &correct
		ans.PointsEarned = points
		ans.GradedBy = callerID
		ans.Comment = in.Comment
		if err := s.store.UpsertAnswer(ctx, ans); err != nil {
			return Attempt{}, err
		}
		byQuestion[questionID] = ans
	}

	total := 0
	for _, ans := range byQuestion {
		total += ans.PointsEarned
	}
	score := percentage(total, a.MaxScore)
	passed := score >= q.PassingScore
	a.Status = StatusGraded
	a.Score = &score
	a.Passed = &passed
	if err := s.store.UpdateAttempt(ctx, a); err != nil {
		return Attempt{}, err
	}
	s.emit(ctx, "attempt.regraded", a.ID, a)
	return a, nil
}

// ListAttempts is a thin passthrough for dashboard listings; callers scope
// the filters to their own permissions.
func (s *Service) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	return s.store.ListAttempts(ctx, opts)
}

func (s *Service) requireManage(ctx context.Context, userID, courseID string) error {
	ok, err := s.courses.CanManage(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) view(q Quiz, a Attempt) AttemptView {
	v := AttemptView{Attempt: a}
	if a.Status == StatusInProgress && q.TimeLimitMin > 0 {
		rem := int64(q.TimeLimitMin)*60 - (s.now().Unix() - a.StartedAt)
		if rem < 0 {
			rem = 0
		}
		v.TimeRemainingSec = &rem
	}
	return v
}

func (s *Service) expired(q Quiz, a Attempt) bool {
	if a.Status != StatusInProgress || q.TimeLimitMin <= 0 {
		return false
	}
	return s.now().Unix()-a.StartedAt > int64(q.TimeLimitMin)*60
}

func (s *Service) emit(ctx context.Context, typ, key string, payload interface{}) {
	if s.events != nil {
		s.events.Emit(ctx, typ, key, payload)
	}
}

func gradingQ(q Question) grading.Q {
	return grading.Q{Type: q.Type, Points: q.Points, AnswerKey: q.AnswerKey}
}

// percentage rounds total/max to a whole percent, defining 0/0 as 0.
func percentage(total, max int) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(max) * 100))
}
