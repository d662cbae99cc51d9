package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/rbac"
)

// POST /quizzes
func CreateQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q quiz.Quiz
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		created, err := svc.CreateQuiz(r.Context(), rbac.SubjectFromContext(r.Context()), q)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// GET /quizzes/{quizID}
func GetQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := svc.GetQuizForUser(r.Context(), chi.URLParam(r, "quizID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// POST /quizzes/{quizID}/publish  { "published": true }
func PublishQuizHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Published bool `json:"published"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		quizID := chi.URLParam(r, "quizID")
		if err := svc.SetQuizPublished(r.Context(), quizID, rbac.SubjectFromContext(r.Context()), req.Published); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": quizID, "published": req.Published})
	}
}
