package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLStore persists quizzes, attempts and answers via database/sql. It works
// against both the sqlite and postgres schemas; placeholders use the $n form
// supported by pgx and modernc sqlite alike.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) PutQuiz(ctx context.Context, q Quiz) error {
	qj, err := json.Marshal(q.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO quizzes (id,course_id,title,time_limit_min,passing_score,published,questions_json,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET course_id=EXCLUDED.course_id, title=EXCLUDED.title,
			time_limit_min=EXCLUDED.time_limit_min, passing_score=EXCLUDED.passing_score,
			published=EXCLUDED.published, questions_json=EXCLUDED.questions_json`,
		q.ID, q.CourseID, q.Title, q.TimeLimitMin, q.PassingScore, q.Published, string(qj), q.CreatedAt)
	return err
}

func (s *SQLStore) GetQuiz(ctx context.Context, id string) (Quiz, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,course_id,title,time_limit_min,passing_score,published,questions_json,created_at
		FROM quizzes WHERE id=$1`, id)
	var q Quiz
	var qjson string
	if err := row.Scan(&q.ID, &q.CourseID, &q.Title, &q.TimeLimitMin, &q.PassingScore, &q.Published, &qjson, &q.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Quiz{}, ErrQuizNotFound
		}
		return Quiz{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
		return Quiz{}, fmt.Errorf("quiz %s: decode questions: %w", id, err)
	}
	return q, nil
}

func (s *SQLStore) SetPublished(ctx context.Context, id string, published bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE quizzes SET published=$1 WHERE id=$2`, published, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrQuizNotFound
	}
	return nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, courseID string) ([]Quiz, error) {
	query := `SELECT id,course_id,title,time_limit_min,passing_score,published,questions_json,created_at FROM quizzes`
	args := []interface{}{}
	if courseID != "" {
		query += ` WHERE course_id=$1`
		args = append(args, courseID)
	}
	query += ` ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Quiz
	for rows.Next() {
		var q Quiz
		var qjson string
		if err := rows.Scan(&q.ID, &q.CourseID, &q.Title, &q.TimeLimitMin, &q.PassingScore, &q.Published, &qjson, &q.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(qjson), &q.Questions); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// CreateAttempt relies on the partial unique index attempts_active_uq: a
// second in-progress insert for the same (user, quiz) fails, and that
// failure maps to ErrActiveAttemptExists when a surviving row is confirmed.
func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,quiz_id,user_id,status,started_at,submitted_at,max_score,score,passed)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.QuizID, a.UserID, a.Status, a.StartedAt, a.SubmittedAt, a.MaxScore, a.Score, a.Passed)
	if err != nil {
		if _, gerr := s.GetActiveAttempt(ctx, a.UserID, a.QuizID); gerr == nil {
			return ErrActiveAttemptExists
		}
		return err
	}
	return nil
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.scanAttempt(s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,status,started_at,submitted_at,max_score,score,passed
		FROM attempts WHERE id=$1`, id))
}

func (s *SQLStore) GetActiveAttempt(ctx context.Context, userID, quizID string) (Attempt, error) {
	return s.scanAttempt(s.db.QueryRowContext(ctx, `SELECT id,quiz_id,user_id,status,started_at,submitted_at,max_score,score,passed
		FROM attempts WHERE user_id=$1 AND quiz_id=$2 AND status=$3`, userID, quizID, StatusInProgress))
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLStore) scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var submittedAt sql.NullInt64
	var score sql.NullInt64
	var passed sql.NullBool
	err := row.Scan(&a.ID, &a.QuizID, &a.UserID, &a.Status, &a.StartedAt, &submittedAt, &a.MaxScore, &score, &passed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrAttemptNotFound
		}
		return Attempt{}, err
	}
	if submittedAt.Valid {
		v := submittedAt.Int64
		a.SubmittedAt = &v
	}
	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	if passed.Valid {
		v := passed.Bool
		a.Passed = &v
	}
	return a, nil
}

func (s *SQLStore) UpdateAttempt(ctx context.Context, a Attempt) error {
	res, err := s.db.ExecContext(ctx, `UPDATE attempts SET status=$1, submitted_at=$2, score=$3, passed=$4 WHERE id=$5`,
		a.Status, a.SubmittedAt, a.Score, a.Passed, a.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts AttemptListOpts) ([]Attempt, error) {
	query := `SELECT id,quiz_id,user_id,status,started_at,submitted_at,max_score,score,passed FROM attempts`
	var (
		where []string
		args  []interface{}
	)
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if opts.QuizID != "" {
		add("quiz_id=$%d", opts.QuizID)
	}
	if opts.UserID != "" {
		add("user_id=$%d", opts.UserID)
	}
	if opts.Status != "" {
		add("status=$%d", opts.Status)
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	query += " ORDER BY started_at DESC"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Attempt
	for rows.Next() {
		a, err := s.scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) UpsertAnswer(ctx context.Context, ans Answer) error {
	vj, err := json.Marshal(ans.Value)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO answers (attempt_id,question_id,value_json,correct,points_earned,graded_by,comment)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (attempt_id,question_id) DO UPDATE SET value_json=EXCLUDED.value_json,
			correct=EXCLUDED.correct, points_earned=EXCLUDED.points_earned,
			graded_by=EXCLUDED.graded_by, comment=EXCLUDED.comment`,
		ans.AttemptID, ans.QuestionID, string(vj), ans.Correct, ans.PointsEarned, ans.GradedBy, ans.Comment)
	return err
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT attempt_id,question_id,value_json,correct,points_earned,graded_by,comment
		FROM answers WHERE attempt_id=$1 ORDER BY question_id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func (s *SQLStore) ListAnswersByQuiz(ctx context.Context, quizID string) ([]Answer, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ans.attempt_id,ans.question_id,ans.value_json,ans.correct,ans.points_earned,ans.graded_by,ans.comment
		FROM answers ans JOIN attempts a ON a.id = ans.attempt_id
		WHERE a.quiz_id=$1 ORDER BY ans.attempt_id, ans.question_id`, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAnswers(rows)
}

func scanAnswers(rows *sql.Rows) ([]Answer, error) {
	var out []Answer
	for rows.Next() {
		var ans Answer
		var vjson string
		var correct sql.NullBool
		if err := rows.Scan(&ans.AttemptID, &ans.QuestionID, &vjson, &correct, &ans.PointsEarned, &ans.GradedBy, &ans.Comment); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(vjson), &ans.Value); err != nil {
			return nil, err
		}
		if correct.Valid {
			v := correct.Bool
			ans.Correct = &v
		}
		out = append(out, ans)
	}
	return out, rows.Err()
}
