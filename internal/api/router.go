package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/codeshot-be/internal/api/handlers"
	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/isdelr/codeshot-be/internal/config"
	"github.com/isdelr/codeshot-be/internal/metrics"
	"github.com/isdelr/codeshot-be/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

// Dependencies are the services the HTTP surface is built on.
type Dependencies struct {
	DB     handlers.Pinger
	Tokens *auth.TokenService
	Users  services.UserServiceProvider
	Events services.EventServiceProvider
	Images services.ImageServiceProvider
}

// NewRouter creates and configures a new Chi router.
func NewRouter(cfg *config.Config, deps Dependencies) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Image-Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	userHandler := handlers.NewUserHandler(deps.Users, deps.Tokens)
	imageHandler := handlers.NewImageHandler(deps.Images)
	eventHandler := handlers.NewEventHandler(deps.Events)
	healthHandler := handlers.NewHealthHandler(deps.DB)
	renderLimiter := NewRateLimiter(cfg.RenderRatePerMinute, cfg.RenderBurst, metrics.Renders.WithLabelValues("rate_limited"))
	loginLimiter := NewRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst, metrics.Logins.WithLabelValues("rate_limited"))

	r.Post("/users", userHandler.Signup)
	r.With(loginLimiter.PerIP).Post("/token", userHandler.Token)
	r.Get("/healthz", healthHandler.Get)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(deps.Tokens, deps.Users))

		r.With(renderLimiter.PerUser).Post("/images", imageHandler.Create)
		r.Get("/events", eventHandler.GetRecent)
	})

	return r
}

func accessLog(r *http.Request, status, size int, duration time.Duration) {
	level := zerolog.InfoLevel
	if status >= http.StatusInternalServerError {
		level = zerolog.ErrorLevel
	}
	hlog.FromRequest(r).WithLevel(level).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Stringer("url", r.URL).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("HTTP request")
}
