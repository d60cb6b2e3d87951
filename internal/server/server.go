package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/sriharshamadamanchi/fundrisk/internal/modules/analysis"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/auth"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/institute"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/manager"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/portfolio"
	"github.com/sriharshamadamanchi/fundrisk/internal/modules/stocks"
)

// Config carries everything the HTTP server needs.
type Config struct {
	Port    int
	DevMode bool
	Log     zerolog.Logger

	AuthMiddleware *auth.Middleware
	Auth           *auth.Handler
	Institutes     *institute.Handler
	Managers       *manager.Handler
	Portfolios     *portfolio.Handler
	Stocks         *stocks.Handler
	Analysis       *analysis.Handler
}

// Server is the HTTP front of the API.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    Config
}

func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)

	// the documented URLs carry trailing slashes
	s.router.Use(middleware.StripSlashes)

	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.handleSystemStatus)
		})

		r.Post("/login", s.cfg.Auth.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.cfg.AuthMiddleware.RequireAuth)

			r.Post("/logout", s.cfg.Auth.HandleLogout)

			r.Route("/institute", func(r chi.Router) {
				r.Use(s.cfg.AuthMiddleware.RequireAdmin)
				r.Get("/", s.cfg.Institutes.HandleList)
				r.Post("/", s.cfg.Institutes.HandleCreate)
				r.Get("/{id}", s.cfg.Institutes.HandleGet)
				r.Put("/{id}", s.cfg.Institutes.HandleUpdate)
				r.Delete("/{id}", s.cfg.Institutes.HandleDelete)
			})

			r.Route("/fund-manager", func(r chi.Router) {
				r.Get("/", s.cfg.Managers.HandleList)
				r.Post("/", s.cfg.Managers.HandleCreate)
				r.Get("/{id}", s.cfg.Managers.HandleGet)
				r.Delete("/{id}", s.cfg.Managers.HandleDelete)
			})

			r.Route("/portfolio", func(r chi.Router) {
				r.Get("/", s.cfg.Portfolios.HandleList)
				r.Post("/", s.cfg.Portfolios.HandleCreate)
				r.Get("/{id}", s.cfg.Portfolios.HandleGet)
				r.Put("/{id}", s.cfg.Portfolios.HandleUpdate)
				r.Delete("/{id}", s.cfg.Portfolios.HandleDelete)

				r.Get("/{id}/analyze", s.cfg.Analysis.HandleAnalyze)
				r.Get("/{id}/risk", s.cfg.Analysis.HandleRisk)
			})

			r.Route("/stock", func(r chi.Router) {
				r.Get("/", s.cfg.Stocks.HandleList)
				r.Post("/", s.cfg.Stocks.HandleCreate)
				r.Get("/{id}", s.cfg.Stocks.HandleGet)
				r.Put("/{id}", s.cfg.Stocks.HandleUpdate)
				r.Delete("/{id}", s.cfg.Stocks.HandleDelete)
			})
		})
	})
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
