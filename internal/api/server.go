// Package api serves the quiz wizard over HTTP for a single local
// participant. The server owns exactly one session; every mutating request
// computes the next session value and swaps it in under a mutex.
package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ahrav/go-compass/infrastructure/report"
	"github.com/ahrav/go-compass/internal/application"
	"github.com/ahrav/go-compass/internal/domain"
	"github.com/ahrav/go-compass/internal/ports"
)

// Server is the HTTP surface of one wizard session.
type Server struct {
	mu        sync.Mutex
	session   application.Session
	evaluator application.Evaluator
	renderers map[string]ports.ReportRenderer
	policy    domain.DuplicatePolicy
	origins   []string
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGatherer exposes the registry on GET /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithDuplicatePolicy sets how repeated academic subjects are handled.
func WithDuplicatePolicy(p domain.DuplicatePolicy) Option {
	return func(s *Server) { s.policy = p }
}

// WithAllowedOrigins enables CORS for a browser front end served elsewhere.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer returns a server with a fresh session on catalog.
func NewServer(catalog *domain.Catalog, evaluator application.Evaluator, opts ...Option) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("api: catalog is required")
	}
	if evaluator == nil {
		return nil, errors.New("api: evaluator is required")
	}
	renderers, err := report.Renderers([]string{report.FormatText, report.FormatPDF})
	if err != nil {
		return nil, err
	}

	s := &Server{
		session:   application.NewSession(catalog),
		evaluator: evaluator,
		renderers: make(map[string]ports.ReportRenderer, len(renderers)),
		policy:    domain.DuplicateMerge,
		logger:    zap.NewNop(),
	}
	for _, r := range renderers {
		s.renderers[r.Format()] = r
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("component", "api"))
	return s, nil
}

// Session returns the current session value.
func (s *Server) Session() application.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Routes returns the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			ExposedHeaders: []string{"Content-Disposition", "Content-Length"},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", s.health)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.getCatalog)
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Post("/start", s.start)
			r.Post("/details", s.details)
			r.Put("/answers", s.answers)
			r.Post("/next", s.step(application.Session.NextSection))
			r.Post("/prev", s.step(application.Session.PrevSection))
			r.Post("/proceed", s.step(application.Session.ProceedToAcademics))
			r.Post("/back", s.step(application.Session.Back))
			r.Post("/academics", s.academics)
			r.Post("/report", s.generateReport)
			r.Get("/report.txt", s.download(report.FormatText))
			r.Get("/report.pdf", s.download(report.FormatPDF))
			r.Post("/reset", s.reset)
		})
	})
	return r
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// transition applies fn to the current session and stores the result when
// fn succeeds. The failed attempt leaves the session untouched.
func (s *Server) transition(fn func(application.Session) (application.Session, error)) (application.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := fn(s.session)
	if err != nil {
		return s.session, err
	}
	s.session = next
	return next, nil
}
