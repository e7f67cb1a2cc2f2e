// Package api exposes the prospect workspace and pipeline over HTTP for the
// browser front end.
package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/prospect"
)

// MailTokenHeader carries the per-request mail credential for sends.
const MailTokenHeader = "X-Mail-Token"

// Server routes HTTP requests to a prospect Service.
type Server struct {
	svc      *prospect.Service
	cfg      config.ServerConfig
	language string
	metrics  *metrics
	registry *prometheus.Registry
}

// Option configures a Server.
type Option func(*Server)

// WithLanguage sets the output language used when a request names none.
func WithLanguage(lang string) Option {
	return func(s *Server) { s.language = lang }
}

// NewServer creates a Server.
func NewServer(svc *prospect.Service, cfg config.ServerConfig, opts ...Option) *Server {
	reg := prometheus.NewRegistry()
	s := &Server{
		svc:      svc,
		cfg:      cfg,
		metrics:  newMetrics(reg),
		registry: reg,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.middleware)

	origins := s.cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", MailTokenHeader},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/context", s.handleSetContext)
			r.Post("/context/files", s.handleAppendContextFile)
			r.Put("/step", s.handleSetStep)
		})

		r.Post("/discover", s.handleDiscover)
		r.Post("/audit", s.handleAudit)
		r.Post("/assistant", s.handleAssist)

		r.Route("/leads", func(r chi.Router) {
			r.Get("/", s.handleListLeads)
			r.Post("/analyze", s.handleAnalyzeAll)
			r.Route("/{leadID}", func(r chi.Router) {
				r.Get("/", s.handleGetLead)
				r.Put("/status", s.handleSetStatus)
				r.Post("/analyze", s.handleAnalyze)
				r.Post("/reaudit", s.handleReAudit)
				r.Get("/email", s.handleGetEmail)
				r.Put("/email", s.handleEditEmail)
				r.Post("/refine", s.handleRefine)
				r.Post("/send", s.handleSend)
			})
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", s.handleListProjects)
			r.Post("/", s.handleCreateProject)
			r.Post("/close", s.handleCloseProject)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", s.handleGetProject)
				r.Delete("/", s.handleDiscardProject)
				r.Post("/load", s.handleLoadProject)
				r.Get("/export", s.handleExportProject)
			})
		})
	})

	return r
}

// ListenAndServe serves on the configured port until ctx is done, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

// requireToken enforces the bearer api token when one is configured.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.APIToken == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.APIToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) lang(requested string) string {
	if requested != "" {
		return requested
	}
	return s.language
}
