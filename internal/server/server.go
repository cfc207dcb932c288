// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the "wiring" layer: it opens the database once, builds the
// services and handlers on top of it, mounts them on a chi router and runs
// the http.Server until a shutdown signal arrives.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → Server.New():
//	  sqlite.DB → EventService / UserService / AdminService / RegistrationService
//	            → Auth / Event / User / Admin handlers
//
// Services receive repository interfaces; handlers receive services. Nothing
// below this package knows about routes.
package server

import (
	"context"
	"errors"
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

	"github.com/sakif/eventhub/internal/auth"
	"github.com/sakif/eventhub/internal/config"
	"github.com/sakif/eventhub/internal/handler"
	"github.com/sakif/eventhub/internal/i18n"
	"github.com/sakif/eventhub/internal/middleware"
	sqliteRepo "github.com/sakif/eventhub/internal/repository/sqlite"
	"github.com/sakif/eventhub/internal/service"
	"github.com/sakif/eventhub/internal/validate"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. It is opened once in New and
// closed by Start during graceful shutdown (or by Close when Start is never
// called, as in tests).
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, applies migrations and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	msgs, err := i18n.New(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("loading messages: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path, sqliteRepo.Options{
		BusyTimeout: cfg.Database.BusyTimeout,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(msgs, tokens)

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start does this itself on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER:
// 1. RequestID: assigns an id used by the request logger
// 2. RealIP: client IP from proxy headers
// 3. Logger: one line per request
// 4. Recoverer: a panic becomes a 500 instead of killing the process
// 5. CORS: credentialed requests from the configured frontends
func (s *Server) setupRoutes(msgs *i18n.Catalog, tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{handler.LoggedInHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// === Services ===
	// s.db implements every repository interface.
	v := validate.New(msgs)
	passwords := auth.NewPasswordService(s.config.Auth.BcryptCost)

	eventService := service.NewEventService(s.db, s.db, v, msgs, s.logger)
	userService := service.NewUserService(s.db, s.db, passwords, tokens, v, msgs, s.logger)
	adminService := service.NewAdminService(s.db, passwords, tokens, v, msgs, s.logger)
	registrationService := service.NewRegistrationService(s.db, msgs, s.logger)

	// === Handlers ===
	secure := s.config.Auth.CookieSecure
	authHandler := handler.NewAuthHandler(userService, tokens, msgs, s.logger, secure)
	eventHandler := handler.NewEventHandler(eventService, registrationService, msgs, s.logger)
	userHandler := handler.NewUserHandler(userService, msgs, s.logger, secure)
	adminHandler := handler.NewAdminHandler(adminService, userService, msgs, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	requireUser := auth.RequireUser(tokens, msgs)
	requireAdmin := auth.RequireAdmin(tokens, msgs)
	optionalUser := auth.OptionalUser(tokens)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/validate-token", authHandler.HandleValidateToken)
			r.With(requireUser).Get("/profile", authHandler.HandleProfile)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.HandleList)
			r.Get("/latest", eventHandler.HandleLatest)
			r.With(optionalUser).Get("/{id}", eventHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)
				r.Get("/user/registered", eventHandler.HandleRegistered)
				r.Post("/{id}/register", eventHandler.HandleRegister)
				r.Delete("/{id}/register", eventHandler.HandleCancel)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", eventHandler.HandleCreate)
				r.Put("/{id}", eventHandler.HandleUpdate)
				r.Delete("/{id}", eventHandler.HandleDelete)
			})
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireUser)
			r.Put("/update-profile", userHandler.HandleUpdateProfile)
			r.Delete("/delete-account", userHandler.HandleDeleteAccount)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/register", adminHandler.HandleRegister)
			r.Post("/login", adminHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/logout", adminHandler.HandleLogout)
				r.Get("/me", adminHandler.HandleMe)

				r.Get("/events", eventHandler.HandleList)
				r.Post("/events", eventHandler.HandleCreate)
				r.Get("/events/{id}", eventHandler.HandleAdminGet)
				r.Put("/events/{id}", eventHandler.HandleUpdate)
				r.Delete("/events/{id}", eventHandler.HandleDelete)
				r.Get("/events/{id}/users", eventHandler.HandleAttendees)
				r.Get("/events-with-users", eventHandler.HandleWithRegistrations)

				r.Get("/users", adminHandler.HandleListUsers)
				r.Get("/users/{id}", adminHandler.HandleGetUser)
				r.Put("/users/{id}/ban", adminHandler.HandleBan)
			})
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
// 1. Stop accepting new connections
// 2. Wait up to ShutdownTimeout for in-flight requests
// 3. Close the database
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
			slog.String("locale", s.config.Locale.String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
