package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

var ErrCourseNotFound = errors.New("course not found")

type Course struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	InstructorID string `json:"instructor_id"`
}

type Enrollment struct {
	UserID     string `json:"user_id"`
	CourseID   string `json:"course_id"`
	Status     string `json:"status"`
	EnrolledAt int64  `json:"enrolled_at"`
}

// Repo is the SQL-backed enrollment collaborator. It satisfies the quiz
// engine's EnrollmentChecker and CourseAccess contracts.
type Repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// IsActive reports whether the user holds an active enrollment in the course.
func (r *Repo) IsActive(ctx context.Context, userID, courseID string) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT status FROM enrollments WHERE user_id=$1 AND course_id=$2`,
		userID, courseID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status == StatusActive, nil
}

// CanManage reports whether the user is the course's instructor or an admin.
func (r *Repo) CanManage(ctx context.Context, userID, courseID string) (bool, error) {
	var instructorID string
	err := r.db.QueryRowContext(ctx,
		`SELECT instructor_id FROM courses WHERE id=$1`, courseID).Scan(&instructorID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrCourseNotFound
	}
	if err != nil {
		return false, err
	}
	if instructorID == userID {
		return true, nil
	}
	var role string
	err = r.db.QueryRowContext(ctx,
		`SELECT role FROM users WHERE id=$1 OR username=$1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return role == "admin", nil
}

func (r *Repo) PutCourse(ctx context.Context, c Course) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO courses (id,title,instructor_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, instructor_id=EXCLUDED.instructor_id`,
		c.ID, c.Title, c.InstructorID)
	return err
}

// Enroll upserts an enrollment row; re-enrolling a dropped student flips the
// status back to active.
func (r *Repo) Enroll(ctx context.Context, userID, courseID, status string) error {
	if status == "" {
		status = StatusActive
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO enrollments (user_id,course_id,status,enrolled_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id,course_id) DO UPDATE SET status=EXCLUDED.status`,
		userID, courseID, status, time.Now().Unix())
	return err
}

func (r *Repo) ListByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id,course_id,status,enrolled_at FROM enrollments WHERE course_id=$1 ORDER BY enrolled_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.Status, &e.EnrolledAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
