// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer — the composition root where the
// database, services, handlers, middleware, and the reminder scheduler are
// assembled. main.go stays minimal: load config, build a Server, Start it.
//
// DEPENDENCY INJECTION FLOW:
//
//	sqlite.DB → services (business rules) → handlers (HTTP translation)
//	sqlite.DB → reminder.Scheduler (background sweeps, own read path)
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// knows about HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/enockm/productivity-tracker/internal/auth"
	"github.com/enockm/productivity-tracker/internal/config"
	"github.com/enockm/productivity-tracker/internal/handler"
	"github.com/enockm/productivity-tracker/internal/middleware"
	"github.com/enockm/productivity-tracker/internal/reminder"
	sqliteRepo "github.com/enockm/productivity-tracker/internal/repository/sqlite"
	"github.com/enockm/productivity-tracker/internal/service"
)

// Server owns the router, the database connection, and the reminder
// scheduler. Both resources are released during graceful shutdown.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	db        *sqliteRepo.DB
	scheduler *reminder.Scheduler
}

// New assembles the full dependency graph.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	// The reminder scheduler only runs when mail can actually be sent;
	// without SMTP configuration it is left nil and never started.
	if cfg.MailConfigured() {
		mailer := reminder.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
		s.scheduler = reminder.NewScheduler(db, mailer, logger)
	} else {
		logger.Warn("SMTP not configured; reminder emails disabled")
	}

	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes configures global middleware and mounts every route group.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
//  1. RequestID  — unique ID per request, for tracing
//  2. RealIP     — real client IP from proxy headers (rate limiter needs it)
//  3. Logger     — structured request log
//  4. Recoverer  — catches panics, returns 500 instead of crashing
//  5. CORS       — the SPA origin plus localhost dev servers
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			s.config.ClientURL,
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === Services ===
	passwords := auth.NewPasswordService()
	google := auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, s.config.GoogleCallbackURL)

	authService := service.NewAuthService(s.db, tokens, passwords, google, s.logger)
	goalService := service.NewGoalService(s.db, s.logger)
	taskService := service.NewTaskService(s.db, s.logger)
	habitService := service.NewHabitService(s.db, s.logger)
	noteService := service.NewNoteService(s.db, s.logger)
	notificationService := service.NewNotificationService(s.db, s.db, s.db, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.config.UploadDir, s.logger)
	goalHandler := handler.NewGoalHandler(goalService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	habitHandler := handler.NewHabitHandler(habitService, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)
	notificationHandler := handler.NewNotificationHandler(notificationService, s.logger)

	// === Non-API routes ===
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","env":%q}`, s.config.Env)
	})

	// Uploaded avatars. StripPrefix removes "/uploads/" so the file server
	// resolves names inside UploadDir only.
	fileServer := http.FileServer(http.Dir(s.config.UploadDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		// 100 requests per 10 minutes per client IP, across the whole API.
		r.Use(httprate.LimitByIP(100, 10*time.Minute))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/verify-token", authHandler.HandleVerifyToken)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth(tokens))
				r.Get("/me", authHandler.HandleMe)
				r.Patch("/settings", authHandler.HandleUpdateSettings)
				r.Post("/upload-photo", authHandler.HandleUploadPhoto)
			})
		})

		// Everything below requires a valid bearer token.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Route("/goals", func(r chi.Router) {
				r.Post("/", goalHandler.HandleCreate)
				r.Get("/", goalHandler.HandleList)
				r.Get("/notifications", goalHandler.HandleAlerts)
				r.Get("/stats", goalHandler.HandleStats)
				r.Get("/{id}", goalHandler.HandleGet)
				r.Patch("/{id}", goalHandler.HandleUpdate)
				r.Delete("/{id}", goalHandler.HandleDelete)
				r.Patch("/{id}/progress", goalHandler.HandleUpdateProgress)
				r.Post("/{id}/milestones", goalHandler.HandleAddMilestone)
				r.Patch("/{id}/milestones/{milestoneID}", goalHandler.HandleUpdateMilestone)
				r.Delete("/{id}/milestones/{milestoneID}", goalHandler.HandleDeleteMilestone)
				r.Get("/{id}/achievements", goalHandler.HandleAchievements)
			})

			r.Route("/tasks", func(r chi.Router) {
				r.Post("/", taskHandler.HandleCreate)
				r.Get("/", taskHandler.HandleList)
				r.Get("/{id}", taskHandler.HandleGet)
				r.Patch("/{id}", taskHandler.HandleUpdate)
				r.Post("/{id}/toggle", taskHandler.HandleToggle)
				r.Delete("/{id}", taskHandler.HandleDelete)
			})

			r.Route("/habits", func(r chi.Router) {
				r.Post("/", habitHandler.HandleCreate)
				r.Get("/", habitHandler.HandleList)
				r.Get("/{id}", habitHandler.HandleGet)
				r.Patch("/{id}", habitHandler.HandleUpdate)
				r.Delete("/{id}", habitHandler.HandleDelete)
				r.Post("/{id}/logs", habitHandler.HandleAddLog)
				r.Delete("/{id}/logs/{logID}", habitHandler.HandleDeleteLog)
			})

			r.Route("/notes", func(r chi.Router) {
				r.Post("/", noteHandler.HandleCreate)
				r.Get("/", noteHandler.HandleList)
				r.Get("/{id}", noteHandler.HandleGet)
				r.Patch("/{id}", noteHandler.HandleUpdate)
				r.Delete("/{id}", noteHandler.HandleDelete)
			})

			r.Get("/notifications", notificationHandler.HandleDigest)
		})
	})
}

// Start runs the HTTP server and the reminder scheduler, then blocks until
// a shutdown signal or server error.
//
// GRACEFUL SHUTDOWN ORDER:
//  1. Stop accepting new HTTP connections; drain in-flight requests (30s)
//  2. Stop the reminder scheduler, waiting for any in-flight sweep
//  3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("starting reminder scheduler: %w", err)
		}
		defer s.scheduler.Stop()
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Router exposes the configured mux so tests can drive it with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}
