package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/rbac"
)

// POST /attempts  { "quiz_id": "..." }
func StartAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuizID string `json:"quiz_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuizID == "" {
			http.Error(w, "quiz_id required", http.StatusBadRequest)
			return
		}
		a, err := svc.StartAttempt(r.Context(), rbac.SubjectFromContext(r.Context()), req.QuizID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

// POST /attempts/{attemptID}/answers  { "question_id": "...", "value": ... }
// The value may be a single string or an array of strings.
func SubmitAnswerHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionID string        `json:"question_id"`
			Value      grading.Value `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.QuestionID == "" {
			http.Error(w, "question_id required", http.StatusBadRequest)
			return
		}
		ans, err := svc.SubmitAnswer(r.Context(),
			chi.URLParam(r, "attemptID"), rbac.SubjectFromContext(r.Context()),
			req.QuestionID, req.Value)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ans)
	}
}

// POST /attempts/{attemptID}/submit
func SubmitQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.SubmitQuiz(r.Context(), chi.URLParam(r, "attemptID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sum)
	}
}

// GET /attempts?quiz_id=...&user_id=...&status=...&limit=50&offset=0
// Callers without attempt:view-all are forced to their own attempts.
func ListAttemptsHandler(svc *quiz.Service) http.HandlerFunc {
	checker := rbac.NewChecker(nil)
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
		if !checker.Has(role, "attempt:view-all") {
			userID = sub
		}
		list, err := svc.ListAttempts(r.Context(), quiz.AttemptListOpts{
			QuizID: strings.TrimSpace(r.URL.Query().Get("quiz_id")),
			UserID: userID,
			Status: strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:  parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset: parseIntDefault(r.URL.Query().Get("offset"), 0),
		})
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
