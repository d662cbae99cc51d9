package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	api "github.com/studyhall/studyhall-lms/internal/api/http"
	auth "github.com/studyhall/studyhall-lms/internal/auth/middleware"
	"github.com/studyhall/studyhall-lms/internal/cache"
	"github.com/studyhall/studyhall-lms/internal/config"
	"github.com/studyhall/studyhall-lms/internal/db"
	"github.com/studyhall/studyhall-lms/internal/enrollment"
	"github.com/studyhall/studyhall-lms/internal/event"
	"github.com/studyhall/studyhall-lms/internal/grading"
	"github.com/studyhall/studyhall-lms/internal/metrics"
	"github.com/studyhall/studyhall-lms/internal/quiz"
	"github.com/studyhall/studyhall-lms/internal/rbac"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Events: SQL audit log always, broker when configured ---
	sinks := event.FanOut{event.NewLogSink(dbh)}
	if cfg.AMQPURL != "" {
		pub, err := event.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("amqp connect: %v", err)
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	// --- Stats cache ---
	statsCache := cache.NewNoop()
	if cfg.RedisAddr != "" {
		statsCache = cache.NewRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	// --- Engine ---
	store := quiz.NewSQLStore(dbh)
	enrollments := enrollment.NewRepo(dbh)
	svc := quiz.NewService(store, grading.NewGrader(), enrollments, enrollments, sinks)
	stats := quiz.NewStatsService(store, enrollments, statsCache)

	authSvc := auth.NewAuthService(cfg.AuthSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → subject/role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Instructor: quiz authoring
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(svc))
		pr.With(rbac.Require("quiz:publish")).
			Post("/quizzes/{quizID}/publish", api.PublishQuizHandler(svc))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(svc))

		// Student flow
		pr.With(rbac.Require("attempt:start")).
			Post("/attempts", api.StartAttemptHandler(svc))
		pr.With(rbac.Require("attempt:answer")).
			Post("/attempts/{attemptID}/answers", api.SubmitAnswerHandler(svc))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/submit", api.SubmitQuizHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc))

		// Instructor: grading and reporting
		pr.With(rbac.Require("attempt:regrade")).
			Post("/attempts/{attemptID}/regrade", api.RegradeAttemptHandler(svc))
		pr.With(rbac.Require("attempt:grade")).
			Post("/attempts/{attemptID}/grading", api.ApplyManualGradesHandler(svc))
		pr.With(rbac.Require("stats:view")).
			Get("/quizzes/{quizID}/stats", api.QuizStatsHandler(stats))

		// Courses and enrollments
		pr.With(rbac.Require("enrollment:manage")).
			Post("/courses", api.CreateCourseHandler(enrollments))
		pr.With(rbac.Require("enrollment:manage")).
			Post("/courses/{courseID}/enrollments", api.EnrollHandler(enrollments))
		pr.With(rbac.Require("enrollment:manage")).
			Get("/courses/{courseID}/enrollments", api.ListEnrollmentsHandler(enrollments))
	})

	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
