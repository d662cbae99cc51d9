package quiz

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// CreateQuiz stores a new quiz for a course the caller manages. Quizzes are
// created unpublished; once published they are immutable except for
// unpublishing, so re-creating under an existing published ID is rejected.
func (s *Service) CreateQuiz(ctx context.Context, callerID string, q Quiz) (Quiz, error) {
	if err := s.requireManage(ctx, callerID, q.CourseID); err != nil {
		return Quiz{}, err
	}
	if q.ID != "" {
		existing, err := s.store.GetQuiz(ctx, q.ID)
		switch {
		case err == nil && existing.Published:
			return Quiz{}, ErrQuizImmutable
		case err != nil && !errors.Is(err, ErrQuizNotFound):
			return Quiz{}, err
		}
	} else {
		q.ID = uuid.NewString()
	}
	if err := validateQuiz(q); err != nil {
		return Quiz{}, err
	}
	for i := range q.Questions {
		if q.Questions[i].ID == "" {
			q.Questions[i].ID = uuid.NewString()
		}
		q.Questions[i].OrderIndex = i
	}
	q.Published = false
	q.CreatedAt = s.now().Unix()
	if err := s.store.PutQuiz(ctx, q); err != nil {
		return Quiz{}, err
	}
	return q, nil
}

// SetQuizPublished publishes or unpublishes a quiz.
func (s *Service) SetQuizPublished(ctx context.Context, quizID, callerID string, published bool) error {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireManage(ctx, callerID, q.CourseID); err != nil {
		return err
	}
	return s.store.SetPublished(ctx, quizID, published)
}

// GetQuizForUser returns the quiz as the caller may see it: managers get the
// full definition, enrolled students get the published quiz with answer keys
// stripped.
func (s *Service) GetQuizForUser(ctx context.Context, quizID, callerID string) (Quiz, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Quiz{}, err
	}
	manage, err := s.courses.CanManage(ctx, callerID, q.CourseID)
	if err != nil {
		return Quiz{}, err
	}
	if manage {
		return q, nil
	}
	if !q.Published {
		return Quiz{}, ErrQuizNotPublished
	}
	enrolled, err := s.enroll.IsActive(ctx, callerID, q.CourseID)
	if err != nil {
		return Quiz{}, err
	}
	if !enrolled {
		return Quiz{}, ErrNotEnrolled
	}
	for i := range q.Questions {
		q.Questions[i].AnswerKey = nil
	}
	return q, nil
}

func validateQuiz(q Quiz) error {
	if q.Title == "" {
		return fmt.Errorf("%w: title required", ErrInvalidQuiz)
	}
	if q.CourseID == "" {
		return fmt.Errorf("%w: course_id required", ErrInvalidQuiz)
	}
	if q.PassingScore < 0 || q.PassingScore > 100 {
		return fmt.Errorf("%w: passing_score must be 0..100", ErrInvalidQuiz)
	}
	if q.TimeLimitMin < 0 {
		return fmt.Errorf("%w: time_limit_min must be >= 0", ErrInvalidQuiz)
	}
	for _, qu := range q.Questions {
		if qu.Points <= 0 {
			return fmt.Errorf("%w: question %q needs positive points", ErrInvalidQuiz, qu.Prompt)
		}
		switch qu.Type {
		case TypeMultipleChoice:
			if len(qu.Options) == 0 || len(qu.AnswerKey) == 0 {
				return fmt.Errorf("%w: choice question %q needs options and an answer key", ErrInvalidQuiz, qu.Prompt)
			}
		case TypeTrueFalse, TypeShortAnswer:
			if len(qu.AnswerKey) == 0 {
				return fmt.Errorf("%w: question %q needs an answer key", ErrInvalidQuiz, qu.Prompt)
			}
		case TypeEssay:
			// manually graded, no key required
		default:
			return fmt.Errorf("%w: unknown question type %q", ErrInvalidQuiz, qu.Type)
		}
	}
	return nil
}
