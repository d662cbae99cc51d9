package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/rbac"
)

// POST /attempts/{attemptID}/regrade
func RegradeAttemptHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := svc.RegradeAttempt(r.Context(), chi.URLParam(r, "attemptID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}

type applyGradesReq struct {
	Items map[string]quiz.ManualGradeInput `json:"items"` // question_id -> grade
}

// POST /attempts/{attemptID}/grading
func ApplyManualGradesHandler(svc *quiz.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req applyGradesReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if len(req.Items) == 0 {
			http.Error(w, "items required", http.StatusBadRequest)
			return
		}
		a, err := svc.ApplyManualGrades(r.Context(), chi.URLParam(r, "attemptID"), rbac.SubjectFromContext(r.Context()), req.Items)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	}
}
