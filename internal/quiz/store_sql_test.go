package quiz_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/studyhall/studyhall-lms/internal/db"
	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/quiz"
)

// newTestStore opens a fresh shared-cache in-memory sqlite DB with the full
// schema applied. Each test gets its own database name so state never leaks
// between tests.
func newTestStore(t *testing.T) (*quiz.SQLStore, *sql.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(strings.ToLower(t.Name()), "/", "_"))
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return quiz.NewSQLStore(conn), conn
}

func seedCourse(t *testing.T, conn *sql.DB, id string) {
	t.Helper()
	if _, err := conn.Exec(`INSERT INTO courses (id,title,instructor_id) VALUES ($1,$2,$3)`,
		id, "Course "+id, "prof"); err != nil {
		t.Fatalf("seed course: %v", err)
	}
}

func seedSQLQuiz(t *testing.T, st *quiz.SQLStore, conn *sql.DB) quiz.Quiz {
	t.Helper()
	seedCourse(t, conn, "c1")
	q := quiz.Quiz{
		ID: "q1", CourseID: "c1", Title: "Final", TimeLimitMin: 30,
		PassingScore: 60, Published: true, CreatedAt: 1700000000,
		Questions: []quiz.Question{
			{
				ID: "qa", Type: quiz.TypeMultipleChoice, Prompt: "Pick",
				Options:   []quiz.Option{{ID: "A", Label: "first"}, {ID: "B", Label: "second"}},
				AnswerKey: []string{"B"}, Points: 5, OrderIndex: 0,
			},
			{ID: "qb", Type: quiz.TypeEssay, Prompt: "Discuss", Points: 10, OrderIndex: 1},
		},
	}
	if err := st.PutQuiz(context.Background(), q); err != nil {
		t.Fatalf("put quiz: %v", err)
	}
	return q
}

func TestSQLQuizRoundTrip(t *testing.T) {
	st, conn := newTestStore(t)
	want := seedSQLQuiz(t, st, conn)

	got, err := st.GetQuiz(context.Background(), "q1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if got.Title != want.Title || got.TimeLimitMin != 30 || !got.Published {
		t.Errorf("quiz = %+v", got)
	}
	if len(got.Questions) != 2 || got.Questions[0].Options[1].Label != "second" {
		t.Errorf("questions did not survive the JSON column: %+v", got.Questions)
	}
	if got.Questions[0].AnswerKey[0] != "B" {
		t.Errorf("answer key = %v", got.Questions[0].AnswerKey)
	}

	if _, err := st.GetQuiz(context.Background(), "nope"); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Errorf("missing quiz err = %v", err)
	}

	if err := st.SetPublished(context.Background(), "q1", false); err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	got, _ = st.GetQuiz(context.Background(), "q1")
	if got.Published {
		t.Error("quiz still published after SetPublished(false)")
	}
	if err := st.SetPublished(context.Background(), "nope", true); !errors.Is(err, quiz.ErrQuizNotFound) {
		t.Errorf("publish missing quiz err = %v", err)
	}
}

func TestSQLActiveAttemptUniqueness(t *testing.T) {
	st, conn := newTestStore(t)
	seedSQLQuiz(t, st, conn)
	ctx := context.Background()

	first := quiz.Attempt{
		ID: "a1", QuizID: "q1", UserID: "alice",
		Status: quiz.StatusInProgress, StartedAt: 1700000100, MaxScore: 15,
	}
	if err := st.CreateAttempt(ctx, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := first
	dup.ID = "a2"
	if err := st.CreateAttempt(ctx, dup); !errors.Is(err, quiz.ErrActiveAttemptExists) {
		t.Fatalf("duplicate in-progress insert err = %v, want ErrActiveAttemptExists", err)
	}

	// a different user is not affected by the partial index
	other := first
	other.ID = "a3"
	other.UserID = "bob"
	if err := st.CreateAttempt(ctx, other); err != nil {
		t.Fatalf("other user's attempt: %v", err)
	}

	// once the first attempt leaves in_progress, a new one may start
	submittedAt := int64(1700000200)
	score, passed := 40, false
	first.Status = quiz.StatusSubmitted
	first.SubmittedAt = &submittedAt
	first.Score = &score
	first.Passed = &passed
	if err := st.UpdateAttempt(ctx, first); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	dup.ID = "a4"
	if err := st.CreateAttempt(ctx, dup); err != nil {
		t.Fatalf("restart after finalize: %v", err)
	}

	active, err := st.GetActiveAttempt(ctx, "alice", "q1")
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active.ID != "a4" {
		t.Errorf("active = %s, want a4", active.ID)
	}

	got, err := st.GetAttempt(ctx, "a1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Score == nil || *got.Score != 40 || got.SubmittedAt == nil || *got.SubmittedAt != submittedAt {
		t.Errorf("nullable columns did not round-trip: %+v", got)
	}
}

func TestSQLAnswerUpsert(t *testing.T) {
	st, conn := newTestStore(t)
	seedSQLQuiz(t, st, conn)
	ctx := context.Background()

	a := quiz.Attempt{
		ID: "a1", QuizID: "q1", UserID: "alice",
		Status: quiz.StatusInProgress, StartedAt: 1700000100, MaxScore: 15,
	}
	if err := st.CreateAttempt(ctx, a); err != nil {
		t.Fatal(err)
	}

	correct := true
	if err := st.UpsertAnswer(ctx, quiz.Answer{
		AttemptID: "a1", QuestionID: "qa",
		Value: grading.SingleValue("B"), Correct: &correct, PointsEarned: 5,
	}); err != nil {
		t.Fatalf("insert answer: %v", err)
	}

	// essay answer: correctness stays NULL until an instructor grades it
	if err := st.UpsertAnswer(ctx, quiz.Answer{
		AttemptID: "a1", QuestionID: "qb",
		Value: grading.SingleValue("a considered response"),
	}); err != nil {
		t.Fatalf("insert essay: %v", err)
	}

	// re-answer overwrites in place
	incorrect := false
	if err := st.UpsertAnswer(ctx, quiz.Answer{
		AttemptID: "a1", QuestionID: "qa",
		Value: grading.SingleValue("A"), Correct: &incorrect, PointsEarned: 0,
	}); err != nil {
		t.Fatalf("upsert answer: %v", err)
	}

	answers, err := st.ListAnswers(ctx, "a1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(answers))
	}
	if answers[0].QuestionID != "qa" || answers[0].Value.Single != "A" || *answers[0].Correct {
		t.Errorf("overwritten answer = %+v", answers[0])
	}
	if answers[1].Correct != nil {
		t.Errorf("ungraded essay correct = %v, want NULL", *answers[1].Correct)
	}

	byQuiz, err := st.ListAnswersByQuiz(ctx, "q1")
	if err != nil {
		t.Fatalf("list by quiz: %v", err)
	}
	if len(byQuiz) != 2 {
		t.Errorf("join returned %d answers, want 2", len(byQuiz))
	}
}

func TestSQLListAttemptsFilters(t *testing.T) {
	st, conn := newTestStore(t)
	seedSQLQuiz(t, st, conn)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol"}
	for i, u := range users {
		a := quiz.Attempt{
			ID: fmt.Sprintf("a%d", i), QuizID: "q1", UserID: u,
			Status: quiz.StatusInProgress, StartedAt: int64(1700000000 + i*100), MaxScore: 15,
		}
		if err := st.CreateAttempt(ctx, a); err != nil {
			t.Fatal(err)
		}
	}
	// finalize bob's
	sub := int64(1700000500)
	score, passed := 80, true
	b := quiz.Attempt{
		ID: "a1", QuizID: "q1", UserID: "bob", Status: quiz.StatusSubmitted,
		StartedAt: 1700000100, SubmittedAt: &sub, MaxScore: 15, Score: &score, Passed: &passed,
	}
	if err := st.UpdateAttempt(ctx, b); err != nil {
		t.Fatal(err)
	}

	all, err := st.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("attempts = %d, want 3", len(all))
	}
	if all[0].ID != "a2" {
		t.Errorf("ordering = %s first, want newest start a2", all[0].ID)
	}

	submitted, err := st.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1", Status: quiz.StatusSubmitted})
	if err != nil {
		t.Fatal(err)
	}
	if len(submitted) != 1 || submitted[0].UserID != "bob" {
		t.Errorf("status filter = %+v", submitted)
	}

	paged, err := st.ListAttempts(ctx, quiz.AttemptListOpts{QuizID: "q1", Limit: 1, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(paged) != 1 || paged[0].ID != "a1" {
		t.Errorf("page = %+v, want just a1", paged)
	}
}
