package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/studyhall/studyhall-lms/internal/enrollment"
)

// POST /courses
func CreateCourseHandler(repo *enrollment.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c enrollment.Course
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if c.Title == "" || c.InstructorID == "" {
			http.Error(w, "title and instructor_id required", http.StatusBadRequest)
			return
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if err := repo.PutCourse(r.Context(), c); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	}
}

// POST /courses/{courseID}/enrollments  { "user_id": "...", "status": "active" }
func EnrollHandler(repo *enrollment.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.UserID == "" {
			http.Error(w, "user_id required", http.StatusBadRequest)
			return
		}
		courseID := chi.URLParam(r, "courseID")
		if err := repo.Enroll(r.Context(), req.UserID, courseID, req.Status); err != nil {
			writeErr(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// GET /courses/{courseID}/enrollments
func ListEnrollmentsHandler(repo *enrollment.Repo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := repo.ListByCourse(r.Context(), chi.URLParam(r, "courseID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
