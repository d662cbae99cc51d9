package quiz_test

import (
	"context"
	"errors"
	"testing"

	"github.com/studyhall/studyhall-lms/internal/quiz"
)

func validDraft() quiz.Quiz {
	return quiz.Quiz{
		CourseID:     "c1",
		Title:        "Draft quiz",
		PassingScore: 60,
		Questions: []quiz.Question{
			{
				Type:      quiz.TypeMultipleChoice,
				Prompt:    "Pick one",
				Options:   []quiz.Option{{ID: "A"}, {ID: "B"}},
				AnswerKey: []string{"A"},
				Points:    5,
			},
			{Type: quiz.TypeEssay, Prompt: "Discuss", Points: 10},
		},
	}
}

func TestCreateQuizAssignsIDsAndStartsUnpublished(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateQuiz(context.Background(), "prof", validDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Error("quiz ID not assigned")
	}
	if created.Published {
		t.Error("new quiz must start unpublished")
	}
	for i, qu := range created.Questions {
		if qu.ID == "" {
			t.Errorf("question %d has no ID", i)
		}
		if qu.OrderIndex != i {
			t.Errorf("question %d order = %d", i, qu.OrderIndex)
		}
	}
}

func TestCreateQuizRequiresManageRights(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.CreateQuiz(context.Background(), "alice", validDraft()); !errors.Is(err, quiz.ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestCreateQuizRejectsPublishedOverwrite(t *testing.T) {
	f := newFixture(t)
	f.seedQuiz(t) // published q1

	draft := validDraft()
	draft.ID = "q1"
	if _, err := f.svc.CreateQuiz(context.Background(), "prof", draft); !errors.Is(err, quiz.ErrQuizImmutable) {
		t.Errorf("err = %v, want ErrQuizImmutable", err)
	}
}

func TestCreateQuizValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		mod  func(*quiz.Quiz)
	}{
		{"empty title", func(q *quiz.Quiz) { q.Title = "" }},
		{"passing score over 100", func(q *quiz.Quiz) { q.PassingScore = 101 }},
		{"negative time limit", func(q *quiz.Quiz) { q.TimeLimitMin = -1 }},
		{"zero points", func(q *quiz.Quiz) { q.Questions[0].Points = 0 }},
		{"choice without key", func(q *quiz.Quiz) { q.Questions[0].AnswerKey = nil }},
		{"unknown type", func(q *quiz.Quiz) { q.Questions[0].Type = "matching" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mod(&draft)
			if _, err := f.svc.CreateQuiz(context.Background(), "prof", draft); !errors.Is(err, quiz.ErrInvalidQuiz) {
				t.Errorf("err = %v, want ErrInvalidQuiz", err)
			}
		})
	}
}

func TestPublishThenAttemptableFlow(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.CreateQuiz(context.Background(), "prof", validDraft())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartAttempt(context.Background(), "alice", created.ID); !errors.Is(err, quiz.ErrQuizNotPublished) {
		t.Fatalf("start before publish err = %v", err)
	}

	if err := f.svc.SetQuizPublished(context.Background(), created.ID, "prof", true); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := f.svc.StartAttempt(context.Background(), "alice", created.ID); err != nil {
		t.Fatalf("start after publish: %v", err)
	}
}

func TestGetQuizForUserStripsAnswerKeys(t *testing.T) {
	f := newFixture(t)
	f.seedQuiz(t)

	// enrolled student: keys removed
	got, err := f.svc.GetQuizForUser(context.Background(), "q1", "alice")
	if err != nil {
		t.Fatalf("student view: %v", err)
	}
	for _, qu := range got.Questions {
		if qu.AnswerKey != nil {
			t.Errorf("answer key leaked to student on %s", qu.ID)
		}
	}

	// manager: full definition
	got, err = f.svc.GetQuizForUser(context.Background(), "q1", "prof")
	if err != nil {
		t.Fatalf("manager view: %v", err)
	}
	if len(got.Questions[0].AnswerKey) == 0 {
		t.Error("manager view lost the answer key")
	}

	// outsider: rejected
	if _, err := f.svc.GetQuizForUser(context.Background(), "q1", "mallory"); !errors.Is(err, quiz.ErrNotEnrolled) {
		t.Errorf("outsider err = %v, want ErrNotEnrolled", err)
	}
}

func TestGetQuizForUserUnpublishedHiddenFromStudents(t *testing.T) {
	f := newFixture(t)
	f.seedQuiz(t, func(q *quiz.Quiz) { q.Published = false })

	if _, err := f.svc.GetQuizForUser(context.Background(), "q1", "alice"); !errors.Is(err, quiz.ErrQuizNotPublished) {
		t.Errorf("err = %v, want ErrQuizNotPublished", err)
	}
	if _, err := f.svc.GetQuizForUser(context.Background(), "q1", "prof"); err != nil {
		t.Errorf("manager blocked from own draft: %v", err)
	}
}
