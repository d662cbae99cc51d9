package grading

// Q is the minimal view of a question needed for grading.
// Keep this in sync with whatever fields your store uses.
type Q struct {
	Type      string
	Points    int
	AnswerKey []string
}

// Result is the outcome of grading a single answer.
type Result struct {
	Correct     *bool // nil while the answer awaits manual review
	Points      int   // points awarded, 0..Q.Points
	NeedsReview bool  // true if instructor review is required
}

// Strategy grades one answer against one question. Implementations must be
// pure: the same (q, v) pair always yields the same Result, which is what
// makes regrading safe.
type Strategy interface {
	Grade(q Q, v Value) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q Q, v Value) Result
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(q Q, v Value) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{NeedsReview: true}
	}
	res := s.Grade(q, v)
	if res.Points < 0 {
		res.Points = 0
	}
	if res.Points > q.Points {
		res.Points = q.Points
	}
	return res
}

type Option func(*config)

type config struct {
	CaseFoldShortAnswer bool
}

func WithCaseFoldShortAnswer(b bool) Option {
	return func(c *config) { c.CaseFoldShortAnswer = b }
}

// NewGrader installs the built-in strategies: exact match for single-valued
// choice types and short answers, set match for multi-select, manual review
// for essays.
func NewGrader(opts ...Option) Grader {
	cfg := &config{CaseFoldShortAnswer: true}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{
		strategies: map[string]Strategy{
			"multiple_choice": choiceStrategy{},
			"true_false":      exactMatchStrategy{casefold: true},
			"short_answer":    exactMatchStrategy{casefold: cfg.CaseFoldShortAnswer},
			"essay":           manualReviewStrategy{},
		},
	}
}

// --- Strategies ---

// choiceStrategy handles multiple_choice in both shapes: a single selected
// option graded by membership in the key, a multi-select graded by exact
// set equality (order- and duplicate-insensitive). No partial credit.
type choiceStrategy struct{}

func (choiceStrategy) Grade(q Q, v Value) Result {
	if v.IsMul {
		ok := len(q.AnswerKey) > 0 && setEqual(toSet(v.Multi), toSet(q.AnswerKey))
		return graded(ok, q.Points)
	}
	return graded(contains(q.AnswerKey, v.Single, false), q.Points)
}

type exactMatchStrategy struct{ casefold bool }

func (s exactMatchStrategy) Grade(q Q, v Value) Result {
	return graded(contains(q.AnswerKey, v.Single, s.casefold), q.Points)
}

type manualReviewStrategy struct{}

func (manualReviewStrategy) Grade(Q, Value) Result {
	return Result{NeedsReview: true}
}

func graded(correct bool, points int) Result {
	res := Result{Correct: &correct}
	if correct {
		res.Points = points
	}
	return res
}
