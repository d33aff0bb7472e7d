package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liveclass-backend/internal/config"
	"liveclass-backend/internal/database"
	"liveclass-backend/internal/handlers"
	"liveclass-backend/internal/live"
	"liveclass-backend/internal/middleware"
	"liveclass-backend/internal/repository"
	"liveclass-backend/internal/router"
	"liveclass-backend/internal/websocket"
	"liveclass-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting LiveClass Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	courseRepo := repository.NewCourseRepo(pool)
	progressRepo := repository.NewProgressRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	slideRepo := repository.NewSlideRepo(pool)
	chatRepo := repository.NewChatRepo(pool)

	// ──── Initialize Live Engine ────
	guard := live.NewGuard(courseRepo)
	rooms := live.NewRooms()
	timer := live.NewTimer(progressRepo)
	stats := live.NewStats(courseRepo, progressRepo, sessionRepo, sessionRepo)
	slides := live.NewSlides(slideRepo, cfg.FlagThresholdCount, cfg.FlagThresholdRate)
	share := live.NewShareRegistry()
	chat := live.NewChat(chatRepo)
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)

	// ──── Step 5: Start Attendance Worker Pool ────
	queue := worker.NewQueue(redisClients.Queue)
	workerPool := worker.NewPool(redisClients.Queue, sessionRepo, cfg.AttendanceWorkers)
	workerPool.Start()
	log.Printf("✓ Attendance worker pool started (%d goroutines)", cfg.AttendanceWorkers)

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub)
	wsHandler := websocket.NewHandler(
		wsHub,
		rooms,
		guard,
		timer,
		stats,
		slides,
		share,
		chat,
		courseRepo,
		slideRepo,
		sessionRepo,
		queue,
		cfg.JWTSecret,
	)
	log.Println("✓ WebSocket hub started")

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(userRepo, jwtAuth)
	progressHandler := handlers.NewProgressHandler(timer, stats, guard, courseRepo, progressRepo, wsHub)
	chatHandler := handlers.NewChatHandler(chatRepo, courseRepo, guard)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		progressHandler,
		chatHandler,
		wsHandler,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ LiveClass Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
