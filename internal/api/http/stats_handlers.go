package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/rbac"
)

// GET /quizzes/{quizID}/stats
func QuizStatsHandler(stats *quiz.StatsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := stats.QuizStatistics(r.Context(), chi.URLParam(r, "quizID"), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}
