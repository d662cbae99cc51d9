package quiz

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/studyhall/studyhall-lms/internal/cache"
)

const (
	statsCacheTTL    = time.Minute
	statsRecentLimit = 10
	statsHistoryDays = 30
)

type QuestionStat struct {
	QuestionID  string  `json:"question_id"`
	Answered    int     `json:"answered"`
	Correct     int     `json:"correct"`
	CorrectRate float64 `json:"correct_rate"` // 0..1, 0 when nothing answered
}

type DayCount struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type RecentAttempt struct {
	AttemptID         string `json:"attempt_id"`
	UserID            string `json:"user_id"`
	Score             int    `json:"score"`
	Passed            bool   `json:"passed"`
	CompletionTimeSec int64  `json:"completion_time_sec"`
	SubmittedAt       int64  `json:"submitted_at"`
}

// Statistics aggregates the finalized attempts of one quiz. In-progress
// attempts contribute only to the counts and the start histogram.
type Statistics struct {
	QuizID             string          `json:"quiz_id"`
	TotalAttempts      int             `json:"total_attempts"`
	CompletedAttempts  int             `json:"completed_attempts"`
	InProgressAttempts int             `json:"in_progress_attempts"`
	AverageScore       float64         `json:"average_score"`
	HighestScore       int             `json:"highest_score"`
	LowestScore        int             `json:"lowest_score"`
	PassRate           float64         `json:"pass_rate"` // percent of completed
	AvgCompletionSec   float64         `json:"avg_completion_sec"`
	Questions          []QuestionStat  `json:"questions"`
	AttemptsPerDay     []DayCount      `json:"attempts_per_day"`
	Recent             []RecentAttempt `json:"recent"`
}

// StatsService is the read-only reporting side of the engine. Results are
// served through a short-TTL cache so instructor dashboards do not rescan
// attempt history on every refresh.
type StatsService struct {
	store   Store
	courses CourseAccess
	cache   cache.Cache
	now     func() time.Time
}

func NewStatsService(store Store, courses CourseAccess, c cache.Cache) *StatsService {
	if c == nil {
		c = cache.NewNoop()
	}
	return &StatsService{store: store, courses: courses, cache: c, now: time.Now}
}

// WithStatsClock overrides the clock used for the day histogram window.
func (s *StatsService) WithStatsClock(now func() time.Time) *StatsService {
	s.now = now
	return s
}

// QuizStatistics computes (or serves cached) statistics for a quiz the
// caller manages.
func (s *StatsService) QuizStatistics(ctx context.Context, quizID, callerID string) (Statistics, error) {
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return Statistics{}, err
	}
	ok, err := s.courses.CanManage(ctx, callerID, q.CourseID)
	if err != nil {
		return Statistics{}, err
	}
	if !ok {
		return Statistics{}, ErrForbidden
	}

	cacheKey := "quizstats:" + quizID
	if b, hit := s.cache.Get(ctx, cacheKey); hit {
		var st Statistics
		if json.Unmarshal(b, &st) == nil {
			return st, nil
		}
	}

	st, err := s.compute(ctx, q)
	if err != nil {
		return Statistics{}, err
	}
	if b, err := json.Marshal(st); err == nil {
		s.cache.Set(ctx, cacheKey, b, statsCacheTTL)
	}
	return st, nil
}

func (s *StatsService) compute(ctx context.Context, q Quiz) (Statistics, error) {
	attempts, err := s.store.ListAttempts(ctx, AttemptListOpts{QuizID: q.ID})
	if err != nil {
		return Statistics{}, err
	}

	st := Statistics{QuizID: q.ID, TotalAttempts: len(attempts)}
	terminal := map[string]bool{}
	var (
		scoreSum  int
		passCount int
		complSum  int64
		completed []Attempt
	)
	for _, a := range attempts {
		if !a.Terminal() {
			st.InProgressAttempts++
			continue
		}
		terminal[a.ID] = true
		completed = append(completed, a)
		if a.Score != nil {
			scoreSum += *a.Score
			if *a.Score > st.HighestScore {
				st.HighestScore = *a.Score
			}
		}
		if a.Passed != nil && *a.Passed {
			passCount++
		}
		if a.SubmittedAt != nil {
			complSum += *a.SubmittedAt - a.StartedAt
		}
	}
	st.CompletedAttempts = len(completed)
	if n := st.CompletedAttempts; n > 0 {
		st.AverageScore = round2(float64(scoreSum) / float64(n))
		st.PassRate = round2(float64(passCount) / float64(n) * 100)
		st.AvgCompletionSec = round2(float64(complSum) / float64(n))
		lowest := math.MaxInt
		for _, a := range completed {
			if a.Score != nil && *a.Score < lowest {
				lowest = *a.Score
			}
		}
		if lowest != math.MaxInt {
			st.LowestScore = lowest
		}
	}

	answers, err := s.store.ListAnswersByQuiz(ctx, q.ID)
	if err != nil {
		return Statistics{}, err
	}
	answered := map[string]int{}
	correct := map[string]int{}
	for _, ans := range answers {
		if !terminal[ans.AttemptID] || ans.Correct == nil {
			continue
		}
		answered[ans.QuestionID]++
		if *ans.Correct {
			correct[ans.QuestionID]++
		}
	}
	for _, qu := range q.Questions {
		qs := QuestionStat{QuestionID: qu.ID, Answered: answered[qu.ID], Correct: correct[qu.ID]}
		if qs.Answered > 0 {
			qs.CorrectRate = round2(float64(qs.Correct) / float64(qs.Answered))
		}
		st.Questions = append(st.Questions, qs)
	}

	st.AttemptsPerDay = dayHistogram(attempts, s.now())
	st.Recent = recentAttempts(completed, statsRecentLimit)
	return st, nil
}

// dayHistogram buckets attempt starts by calendar day (UTC) over the last
// statsHistoryDays days, oldest first, zero days included.
func dayHistogram(attempts []Attempt, now time.Time) []DayCount {
	today := now.UTC().Truncate(24 * time.Hour)
	first := today.AddDate(0, 0, -(statsHistoryDays - 1))

	counts := map[string]int{}
	for _, a := range attempts {
		day := time.Unix(a.StartedAt, 0).UTC().Truncate(24 * time.Hour)
		if day.Before(first) || day.After(today) {
			continue
		}
		counts[day.Format("2006-01-02")]++
	}

	out := make([]DayCount, 0, statsHistoryDays)
	for d := first; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, DayCount{Date: key, Count: counts[key]})
	}
	return out
}

func recentAttempts(completed []Attempt, limit int) []RecentAttempt {
	sort.Slice(completed, func(i, j int) bool {
		si, sj := int64(0), int64(0)
		if completed[i].SubmittedAt != nil {
			si = *completed[i].SubmittedAt
		}
		if completed[j].SubmittedAt != nil {
			sj = *completed[j].SubmittedAt
		}
		return si > sj
	})
	if len(completed) > limit {
		completed = completed[:limit]
	}
	out := make([]RecentAttempt, 0, len(completed))
	for _, a := range completed {
		ra := RecentAttempt{AttemptID: a.ID, UserID: a.UserID}
		if a.Score != nil {
			ra.Score = *a.Score
		}
		if a.Passed != nil {
			ra.Passed = *a.Passed
		}
		if a.SubmittedAt != nil {
			ra.SubmittedAt = *a.SubmittedAt
			ra.CompletionTimeSec = *a.SubmittedAt - a.StartedAt
		}
		out = append(out, ra)
	}
	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
