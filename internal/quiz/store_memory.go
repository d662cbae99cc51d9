package quiz

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu       sync.RWMutex
	quizzes  map[string]Quiz
	attempts map[string]Attempt
	answers  map[string]map[string]Answer // attemptID -> questionID -> answer
}

// NewMemoryStore returns an in-memory Store used in tests and offline demos.
func NewMemoryStore() Store {
	return &memoryStore{
		quizzes:  map[string]Quiz{},
		attempts: map[string]Attempt{},
		answers:  map[string]map[string]Answer{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrQuizNotFound
	}
	return q, nil
}

func (m *memoryStore) SetPublished(_ context.Context, id string, published bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return ErrQuizNotFound
	}
	q.Published = published
	m.quizzes[id] = q
	return nil
}

func (m *memoryStore) ListQuizzes(_ context.Context, courseID string) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Quiz
	for _, q := range m.quizzes {
		if courseID == "" || q.CourseID == courseID {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ex := range m.attempts {
		if ex.UserID == a.UserID && ex.QuizID == a.QuizID && ex.Status == StatusInProgress {
			return ErrActiveAttemptExists
		}
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrAttemptNotFound
	}
	return a, nil
}

func (m *memoryStore) GetActiveAttempt(_ context.Context, userID, quizID string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.attempts {
		if a.UserID == userID && a.QuizID == quizID && a.Status == StatusInProgress {
			return a, nil
		}
	}
	return Attempt{}, ErrAttemptNotFound
}

func (m *memoryStore) UpdateAttempt(_ context.Context, a Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[a.ID]; !ok {
		return ErrAttemptNotFound
	}
	m.attempts[a.ID] = a
	return nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts AttemptListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Attempt
	for _, a := range m.attempts {
		if opts.QuizID != "" && a.QuizID != opts.QuizID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) UpsertAnswer(_ context.Context, ans Answer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.attempts[ans.AttemptID]; !ok {
		return ErrAttemptNotFound
	}
	byQ, ok := m.answers[ans.AttemptID]
	if !ok {
		byQ = map[string]Answer{}
		m.answers[ans.AttemptID] = byQ
	}
	byQ[ans.QuestionID] = ans
	return nil
}

func (m *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byQ := m.answers[attemptID]
	out := make([]Answer, 0, len(byQ))
	for _, ans := range byQ {
		out = append(out, ans)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out, nil
}

func (m *memoryStore) ListAnswersByQuiz(_ context.Context, quizID string) ([]Answer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Answer
	for attemptID, byQ := range m.answers {
		a, ok := m.attempts[attemptID]
		if !ok || a.QuizID != quizID {
			continue
		}
		for _, ans := range byQ {
			out = append(out, ans)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AttemptID != out[j].AttemptID {
			return out[i].AttemptID < out[j].AttemptID
		}
		return out[i].QuestionID < out[j].QuestionID
	})
	return out, nil
}
