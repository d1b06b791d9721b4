// Package server wires the application together: repositories, services,
// handlers, middleware, and routes all meet here (the composition root),
// and nowhere else. main.go stays minimal; handlers never touch the
// database; services never touch HTTP.
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

	"github.com/arhamch/codecast/internal/auth"
	"github.com/arhamch/codecast/internal/config"
	"github.com/arhamch/codecast/internal/github"
	"github.com/arhamch/codecast/internal/handler"
	"github.com/arhamch/codecast/internal/media"
	"github.com/arhamch/codecast/internal/middleware"
	sqliteRepo "github.com/arhamch/codecast/internal/repository/sqlite"
	"github.com/arhamch/codecast/internal/service"
)

// Server owns the router and the database handle. The handle is closed on
// graceful shutdown; it connects itself on first use, so New does no I/O
// against the database.
type Server struct {
	router  *chi.Mux
	cfg     *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *prometheus.Registry
}

// New assembles the full dependency graph. GitHub OAuth and media uploads
// are optional: without their credentials the server still starts and the
// corresponding routes are absent (OAuth) or report 500 (media auth).
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret is required (set CODECAST_JWT_SECRET)")
	}

	tokens, err := auth.NewTokenServiceWithTTL(cfg.JWTSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	// Each server instance carries its own metrics registry so tests can
	// build several servers in one process.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     cfg,
		logger:  logger,
		db:      sqliteRepo.Open(cfg.DatabasePath),
		metrics: registry,
	}

	s.setupRoutes(tokens)
	return s, nil
}

func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.NewMetrics(s.metrics).Handler)

	// Both stores share the lazily-connected handle.
	users := sqliteRepo.NewUserStore(s.db)
	showcases := sqliteRepo.NewShowcaseStore(s.db)

	passwords := auth.NewPasswordService()
	authSvc := service.NewAuthService(users, tokens, passwords, s.logger)
	repoClient := github.NewClient(s.cfg.GitHub.APIToken, s.logger)
	showcaseSvc := service.NewShowcaseService(showcases, users, repoClient, s.logger)
	profileSvc := service.NewProfileService(users, showcases, s.logger)

	var githubProvider *auth.GitHubProvider
	if s.cfg.GitHub.ClientID != "" && s.cfg.GitHub.ClientSecret != "" {
		githubProvider = auth.NewGitHubProvider(
			s.cfg.GitHub.ClientID,
			s.cfg.GitHub.ClientSecret,
			s.cfg.GitHub.CallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — /auth/github routes disabled")
	}

	var signer *media.Signer
	if s.cfg.Media.PublicKey != "" && s.cfg.Media.PrivateKey != "" {
		var err error
		if signer, err = media.NewSigner(s.cfg.Media.PublicKey, s.cfg.Media.PrivateKey); err != nil {
			signer = nil
		}
	} else {
		s.logger.Warn("media CDN keys not configured — uploads disabled")
	}

	sessionAge := int(s.cfg.SessionTTL.Seconds())
	authHandler := handler.NewAuthHandler(authSvc, githubProvider, sessionAge, s.logger)
	showcaseHandler := handler.NewShowcaseHandler(showcaseSvc, s.logger)
	profileHandler := handler.NewProfileHandler(profileSvc, s.logger)
	repoHandler := handler.NewRepoHandler(repoClient, s.logger)
	mediaHandler := handler.NewMediaHandler(signer, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Method(http.MethodGet, "/metrics",
		promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))

	if githubProvider != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Get("/videos", showcaseHandler.HandleList)
		r.Get("/videos/{id}", showcaseHandler.HandleGet)
		r.Get("/profile/{username}", profileHandler.HandleGet)
		r.Post("/github/repo", repoHandler.HandleFetch)
		r.Get("/media/auth", mediaHandler.HandleAuth)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
			r.Post("/videos", showcaseHandler.HandleCreate)
			r.Post("/videos/{id}/like", showcaseHandler.HandleLike)
			r.Delete("/videos/{id}", showcaseHandler.HandleDelete)
		})
	})
}

// handleHealthz reports liveness and, by pinging the lazy handle, forces a
// database connection attempt so orchestration notices a broken DB path.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(r.Context()); err != nil {
		s.logger.Error("healthz: database unreachable", slog.String("error", err.Error()))
		http.Error(w, "database unreachable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Handler exposes the router for httptest-based integration tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting, drain in-flight requests (30s), close the DB.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.cfg.Addr,
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
			slog.String("addr", s.cfg.Addr),
			slog.String("database", s.cfg.DatabasePath),
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
