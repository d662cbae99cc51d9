package quiz

import "github.com/studyhall/studyhall-lms/internal/grading"

const (
	TypeMultipleChoice = "multiple_choice"
	TypeTrueFalse      = "true_false"
	TypeShortAnswer    = "short_answer"
	TypeEssay          = "essay"
)

const (
	StatusInProgress = "in_progress"
	StatusSubmitted  = "submitted"
	StatusGraded     = "graded"
)

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

type Question struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"` // multiple_choice, true_false, short_answer, essay
	Prompt     string   `json:"prompt"`
	Options    []Option `json:"options,omitempty"`
	AnswerKey  []string `json:"answer_key,omitempty"`
	Points     int      `json:"points"`
	OrderIndex int      `json:"order_index"`
}

type Quiz struct {
	ID           string     `json:"id"`
	CourseID     string     `json:"course_id"`
	Title        string     `json:"title"`
	TimeLimitMin int        `json:"time_limit_min"` // 0 = untimed
	PassingScore int        `json:"passing_score"`  // percent, 0..100
	Published    bool       `json:"published"`
	Questions    []Question `json:"questions,omitempty"`
	CreatedAt    int64      `json:"created_at,omitempty"`
}

// MaxScore is the sum of question points. Attempts snapshot it at start so
// later quiz edits never change the scoring denominator of a running attempt.
func (q Quiz) MaxScore() int {
	total := 0
	for _, qu := range q.Questions {
		total += qu.Points
	}
	return total
}

func (q Quiz) QuestionByID(id string) (Question, bool) {
	for _, qu := range q.Questions {
		if qu.ID == id {
			return qu, true
		}
	}
	return Question{}, false
}

type Attempt struct {
	ID          string `json:"id"`
	QuizID      string `json:"quiz_id"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"` // in_progress|submitted|graded
	StartedAt   int64  `json:"started_at"`
	SubmittedAt *int64 `json:"submitted_at,omitempty"`
	MaxScore    int    `json:"max_score"`
	Score       *int   `json:"score,omitempty"`  // percent, set on finalization
	Passed      *bool  `json:"passed,omitempty"` // set on finalization
}

func (a Attempt) Terminal() bool {
	return a.Status == StatusSubmitted || a.Status == StatusGraded
}

type Answer struct {
	AttemptID    string        `json:"attempt_id"`
	QuestionID   string        `json:"question_id"`
	Value        grading.Value `json:"value"`
	Correct      *bool         `json:"correct,omitempty"` // nil until graded (essay: until reviewed)
	PointsEarned int           `json:"points_earned"`
	GradedBy     string        `json:"graded_by,omitempty"` // instructor id for manual grades
	Comment      string        `json:"comment,omitempty"`
}

// AttemptView is an Attempt plus the derived countdown returned to callers.
// TimeRemainingSec is nil for untimed quizzes and for terminal attempts.
type AttemptView struct {
	Attempt
	TimeRemainingSec *int64 `json:"time_remaining_sec,omitempty"`
}

// SubmissionSummary is returned by SubmitQuiz.
type SubmissionSummary struct {
	AttemptID         string `json:"attempt_id"`
	Score             int    `json:"score"` // percent
	MaxScore          int    `json:"max_score"`
	Passed            bool   `json:"passed"`
	CompletionTimeSec int64  `json:"completion_time_sec"`
	SubmittedAt       int64  `json:"submitted_at"`
}

type ManualGradeInput struct {
	Points  int    `json:"points"`
	Comment string `json:"comment,omitempty"`
}
