package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"quizboard/internal/metrics"
	"quizboard/internal/quiz"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	// Gatherer backs GET /metrics. Nil leaves the route unmounted.
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
	// RateLimit is requests per second per client IP; zero disables it.
	RateLimit float64
	RateBurst int
}

type API struct {
	service *quiz.Service
	health  Pinger
	logger  *slog.Logger
}

func NewRouter(service *quiz.Service, health Pinger, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	api := &API{service: service, health: health, logger: logger}

	r := chi.NewRouter()
	r.Use(
		requestIDMiddleware,
		accessLogMiddleware(logger),
		metricsMiddleware(opts.Metrics),
		middleware.Recoverer,
		corsMiddleware(opts.AllowedOrigins),
	)
	if opts.RateLimit > 0 {
		r.Use(rateLimitMiddleware(newIPRateLimiter(rate.Limit(opts.RateLimit), opts.RateBurst)))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/healthz", api.HandleHealth)
	if opts.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/user/{account_name}", func(r chi.Router) {
		r.Get("/", api.HandleGetUser)
		r.Post("/", api.HandleRegisterUser)
		r.Patch("/", api.HandleUpdateUser)
		r.Delete("/", api.HandleDeleteUser)
		r.Get("/join_quiz/{quiz_id}", api.HandleJoinQuiz)
		r.Get("/quiz_questions/{quiz_id}", api.HandleQuizQuestions)
		r.Put("/quiz_score/{quiz_id}", api.HandleSubmitScore)
		r.Get("/quizzes", api.HandleQuizzes)
	})
	r.Get("/quiz/{quiz_id}/leaderboard", api.HandleLeaderboard)

	return r
}
