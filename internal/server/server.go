// Package server wires Warbler together: it opens the stores, builds the
// services and handlers, mounts the routes and runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config.Config → sqlstore.DB (+ redisstore.SessionStore when REDIS_URL is set)
//	             → services → handlers → chi routes
//
// Everything is assembled in New so tests can build a complete server
// without a network listener.
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/warbler/internal/auth"
	"github.com/sakif/warbler/internal/config"
	"github.com/sakif/warbler/internal/handler"
	"github.com/sakif/warbler/internal/middleware"
	"github.com/sakif/warbler/internal/repository"
	"github.com/sakif/warbler/internal/repository/redisstore"
	"github.com/sakif/warbler/internal/repository/sqlstore"
	"github.com/sakif/warbler/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the store connections. Close releases them.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry

	db       *sqlstore.DB
	redis    *redisstore.SessionStore
	sessions repository.SessionStore
}

// New opens the stores named in cfg and builds the full route tree.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlstore.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		db:       db,
		sessions: db,
	}

	if cfg.RedisURL != "" {
		rs, err := redisstore.Open(ctx, cfg.RedisURL)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		s.redis = rs
		s.sessions = rs
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database and, if used, the Redis connection.
func (s *Server) Close() error {
	var firstErr error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// ping checks every store the server depends on.
type ping []handler.Pinger

func (p ping) Ping(ctx context.Context) error {
	for _, pinger := range p {
		if err := pinger.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET  /                           timeline or landing page
//	GET  /healthz, /metrics          operations
//	GET  /signup, /login             forms; POST to submit
//	POST /logout
//	GET  /users?q=                   directory
//	GET  /users/profile              edit form; POST to save
//	POST /users/delete
//	GET  /users/{id}[/following|/followers|/likes]
//	POST /users/follow/{id}, /users/stop-following/{id}
//	GET  /messages/new               compose form; POST to create
//	GET  /messages/{id}
//	POST /messages/{id}/delete, /messages/{id}/like
//	GET  /direct_message/new         compose form; POST to send
//
// MIDDLEWARE ORDER: request id and real ip first so the logger sees them,
// then recovery, logging and metrics, then CSRF and identity which can
// short-circuit the request.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SecretKey)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	cookies := auth.CookieConfig{Secure: s.config.CookieSecure}

	s.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(s.registry)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.NoStore)
	s.router.Use(middleware.CSRF(s.config.CookieSecure, "/logout"))
	s.router.Use(auth.LoadIdentity(tokens, s.sessions, cookies, s.logger))

	authService := service.NewAuthService(s.db, s.sessions, tokens, auth.NewPasswordService(), s.config.SessionTTL, s.logger)
	userService := service.NewUserService(s.db, s.db, s.db, s.db, s.logger)
	messageService := service.NewMessageService(s.db, s.db, s.logger)
	dmService := service.NewDirectMessageService(s.db, s.db, s.logger)

	pingers := ping{s.db}
	if s.redis != nil {
		pingers = append(pingers, s.redis)
	}

	home := handler.NewHomeHandler(messageService, pingers, cookies, s.logger)
	accounts := handler.NewAuthHandler(authService, cookies, s.logger)
	users := handler.NewUserHandler(userService, cookies, s.logger)
	messages := handler.NewMessageHandler(messageService, cookies, s.logger)
	dms := handler.NewDirectMessageHandler(dmService, cookies, s.logger)

	s.router.Get("/", home.HandleHome)
	s.router.Get("/healthz", home.HandleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry}))

	s.router.Get("/signup", accounts.HandleSignupForm)
	s.router.Post("/signup", accounts.HandleSignup)
	s.router.Get("/login", accounts.HandleLoginForm)
	s.router.Post("/login", accounts.HandleLogin)
	s.router.Post("/logout", accounts.HandleLogout)

	s.router.Route("/users", func(r chi.Router) {
		r.Get("/", users.HandleList)
		r.Get("/profile", accounts.HandleProfileForm)
		r.Post("/profile", accounts.HandleProfileUpdate)
		r.Post("/delete", accounts.HandleDeleteAccount)
		r.Post("/follow/{id}", users.HandleFollow)
		r.Post("/stop-following/{id}", users.HandleStopFollowing)
		r.Get("/{id}", users.HandleShow)
		r.Get("/{id}/following", users.HandleFollowing)
		r.Get("/{id}/followers", users.HandleFollowers)
		r.Get("/{id}/likes", users.HandleLikes)
	})

	s.router.Route("/messages", func(r chi.Router) {
		r.Get("/new", messages.HandleNewForm)
		r.Post("/new", messages.HandleCreate)
		r.Get("/{id}", messages.HandleShow)
		r.Post("/{id}/delete", messages.HandleDelete)
		r.Post("/{id}/like", messages.HandleLike)
	})

	s.router.Get("/direct_message/new", dms.HandleForm)
	s.router.Post("/direct_message/new", dms.HandleSend)

	return nil
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight
// requests and closes the stores.
func (s *Server) Start() error {
	defer s.Close()

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
			slog.String("database", string(s.db.Dialect())),
			slog.Bool("redis_sessions", s.redis != nil),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}
