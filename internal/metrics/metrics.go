package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AttemptsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_attempts_started_total",
		Help: "Quiz attempts created.",
	})
	AttemptsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_attempts_submitted_total",
		Help: "Quiz attempts finalized, by reason (manual|expiry).",
	}, []string{"reason"})
	AttemptsRegraded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studyhall_attempts_regraded_total",
		Help: "Instructor-triggered regrades.",
	})
	AnswersGraded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_answers_graded_total",
		Help: "Answers graded on submission, by question type.",
	}, []string{"type"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studyhall_http_requests_total",
		Help: "HTTP requests by method and status.",
	}, []string{"method", "status"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler { return promhttp.Handler() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware counts requests by method and response status.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		httpRequests.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
	})
}
