package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"liveclass-backend/internal/handlers"
	"liveclass-backend/internal/middleware"
	"liveclass-backend/internal/websocket"
)

func New(
	jwtAuth *middleware.JWTAuth,
	authHandler *handlers.AuthHandler,
	progressHandler *handlers.ProgressHandler,
	chatHandler *handlers.ChatHandler,
	wsHandler *websocket.Handler,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Auth rate limiter (10 req/min per IP)
	authLimiter := middleware.NewRateLimiter(10, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Auth Routes (public) ────
		r.Route("/auth", func(r chi.Router) {
			r.Use(authLimiter.Middleware)
			r.Post("/login", authHandler.Login)
		})

		// ──── Progress Timer Routes ────
		r.Route("/progress", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Route("/{checkpointID}", func(r chi.Router) {
				r.Post("/start", progressHandler.Start)
				r.Post("/pause", progressHandler.Pause)
				r.Post("/resume", progressHandler.Resume)
				r.Post("/complete", progressHandler.Complete)
				r.Post("/uncomplete", progressHandler.Uncomplete)
				r.Post("/stop", progressHandler.Stop)
				r.Post("/reset", progressHandler.Reset)
			})
			r.Get("/student/{userID}", progressHandler.GetStudentProgress)
			r.Get("/course/{courseID}", progressHandler.GetCourseProgress)
		})

		// ──── Chat History ────
		r.Route("/courses", func(r chi.Router) {
			r.Use(jwtAuth.Middleware)
			r.Get("/{courseID}/chat", chatHandler.History)
		})

		// ──── WebSocket ────
		r.Get("/ws", wsHandler.HandleWS)
	})

	return r
}
