package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/studyhall/studyhall-lms/internal/enrollment"
	"github.com/studyhall/studyhall-lms/internal/quiz"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the engine's sentinel errors onto the NotFound / Forbidden /
// BadRequest taxonomy; anything else is a persistence fault.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quiz.ErrQuizNotFound),
		errors.Is(err, quiz.ErrAttemptNotFound),
		errors.Is(err, quiz.ErrQuestionNotFound),
		errors.Is(err, enrollment.ErrCourseNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, quiz.ErrForbidden),
		errors.Is(err, quiz.ErrNotEnrolled):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, quiz.ErrQuizNotPublished),
		errors.Is(err, quiz.ErrQuizImmutable),
		errors.Is(err, quiz.ErrInvalidQuiz),
		errors.Is(err, quiz.ErrAttemptFinalized),
		errors.Is(err, quiz.ErrAttemptExpired),
		errors.Is(err, quiz.ErrPrevAttemptExpired),
		errors.Is(err, quiz.ErrActiveAttemptExists):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
