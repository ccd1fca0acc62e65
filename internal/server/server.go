// Package server is the composition root: it builds the store, services and
// handlers from a config.Config, mounts them on a chi router and runs the
// HTTP server until SIGINT or SIGTERM.
//
// DEPENDENCY CHAIN:
//
//	sqlite.DB ─┬─ AuthService ─────────┐
//	           ├─ RegistrationService ─┤
//	           ├─ ProfileService ──────┼─ handlers ─ chi router
//	           ├─ UserService ─────────┤
//	           ├─ FriendshipService ───┘
//	           └─ Sweeper (background)
//
// Handlers only see small interfaces over the services; services only see
// repository interfaces. The single *sqlite.DB satisfies all of them.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/socialgraph/internal/auth"
	"github.com/sakif/socialgraph/internal/config"
	"github.com/sakif/socialgraph/internal/handler"
	"github.com/sakif/socialgraph/internal/mail"
	"github.com/sakif/socialgraph/internal/middleware"
	sqliteRepo "github.com/sakif/socialgraph/internal/repository/sqlite"
	"github.com/sakif/socialgraph/internal/service"
	"github.com/sakif/socialgraph/internal/validation"
)

const shutdownTimeout = 30 * time.Second

// Server owns the database, the background sweeper and the OTP rate limiter.
// All three are released by Close, which Start calls on the way out.
type Server struct {
	router  *chi.Mux
	config  config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	sweeper *service.Sweeper
	limiter *middleware.RateLimiter
	mailer  mail.Mailer
}

// Option customizes New. Tests use WithMailer to capture OTP codes.
type Option func(*Server)

func WithMailer(m mail.Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

// New opens the database, runs migrations and wires every route.
//
// The mailer is SMTP when SMTP_ADDR is set and the log mailer otherwise,
// unless WithMailer overrides it.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mailer == nil {
		s.mailer = newMailer(cfg, logger)
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func newMailer(cfg config.Config, logger *slog.Logger) mail.Mailer {
	if cfg.SMTPAddr == "" {
		logger.Warn("SMTP_ADDR not set, OTP codes will be written to the log")
		return mail.NewLogMailer(logger)
	}
	return mail.NewSMTPMailer(mail.SMTPConfig{
		Addr:     cfg.SMTPAddr,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

// setupRoutes builds the service graph and mounts it.
//
// ROUTES:
//
//	GET    /healthz
//	POST   /auth/otp/request              (rate limited per IP)
//	POST   /auth/otp/verify
//	POST   /auth/login
//	POST   /auth/refresh
//	POST   /auth/logout
//	GET    /auth/me                       (auth)
//	GET    /profiles/me                   (auth)
//	PATCH  /profiles/me                   (auth)
//	GET    /users                         (auth)
//	POST   /friendships/request           (auth)
//	GET    /friendships                   (auth)
//	POST   /friendships/respond/{edgeID}  (auth)
//	DELETE /friendships/{edgeID}          (auth)
func (s *Server) setupRoutes() error {
	cfg := s.config

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(cfg.BcryptCost)
	validate := validation.New()

	// === Services ===
	authService := service.NewAuthService(s.db, s.db, tokens, passwords, cfg.RefreshTokenTTL, s.logger)
	registration := service.NewRegistrationService(s.db, s.db, passwords, authService, s.mailer,
		service.RegistrationConfig{OTPTTL: cfg.OTPTTL}, s.logger)
	profiles := service.NewProfileService(s.db, s.logger)
	users := service.NewUserService(s.db, s.logger)
	friendships := service.NewFriendshipService(s.db, s.db, s.logger)

	s.sweeper = service.NewSweeper(s.db, s.db, cfg.SweepInterval, cfg.SweepRetention, s.logger)
	s.limiter = middleware.NewRateLimiter(cfg.OTPRatePerMinute, cfg.OTPRateBurst)

	// === Handlers ===
	healthHandler := handler.NewHealthHandler(s.db, s.logger)
	authHandler := handler.NewAuthHandler(registration, authService, s.db, tokens.TTL(), validate, s.logger)
	profileHandler := handler.NewProfileHandler(profiles, validate, s.logger)
	userHandler := handler.NewUserHandler(users, s.logger)
	friendshipHandler := handler.NewFriendshipHandler(friendships, validate, s.logger)

	// === Global middleware, outermost first ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.With(s.limiter.Middleware).Post("/otp/request", authHandler.HandleRequestOTP)
		r.Post("/otp/verify", authHandler.HandleVerifyOTP)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/refresh", authHandler.HandleRefresh)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/profiles/me", profileHandler.HandleGet)
		r.Patch("/profiles/me", profileHandler.HandleUpdate)

		r.Get("/users", userHandler.HandleList)

		r.Route("/friendships", func(r chi.Router) {
			r.Get("/", friendshipHandler.HandleList)
			r.Post("/request", friendshipHandler.HandleRequest)
			r.Post("/respond/{edgeID}", friendshipHandler.HandleRespond)
			r.Delete("/{edgeID}", friendshipHandler.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the router, for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and closes the database. Safe to call twice.
func (s *Server) Close() error {
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.sweeper != nil {
		s.sweeper.Stop()
	}
	return s.db.Close()
}

// Start serves HTTP until a signal arrives, then drains in-flight requests
// for up to shutdownTimeout before closing the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         net.JoinHostPort("", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	s.sweeper.Start()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("database", s.config.DBPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
