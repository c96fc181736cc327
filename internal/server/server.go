package server

import (
	"context"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/clock"
	"github.com/educheia/educheia/internal/comment"
	"github.com/educheia/educheia/internal/feed"
	"github.com/educheia/educheia/internal/position"
	"github.com/educheia/educheia/internal/ratelimit"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// FeedService serves the cached episode feed and channel statistics.
type FeedService interface {
	Episodes(ctx context.Context) (*feed.Episodes, error)
	Channel(ctx context.Context) (*feed.Channel, error)
}

type Config struct {
	Pinger      Pinger
	Feed        FeedService
	Comments    comment.Store
	Positions   *position.Store
	WebFS       fs.FS
	JWTSecret   string
	BaseURL     string
	CORSOrigins []string

	// ConnectSources are extra origins allowed in connect-src.
	ConnectSources []string
	Clock          clock.Clock
}

type Server struct {
	router    chi.Router
	pinger    Pinger
	feed      FeedService
	verifier  *auth.Verifier
	comments  *comment.Handler
	positions *position.Store
	limiter   *ratelimit.Limiter
	webFS     fs.FS
}

func New(cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL, ConnectSources: cfg.ConnectSources}))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}).Handler)
	}

	s := &Server{
		router:    r,
		pinger:    cfg.Pinger,
		feed:      cfg.Feed,
		verifier:  auth.NewVerifier(cfg.JWTSecret),
		positions: cfg.Positions,
		limiter:   ratelimit.NewLimiter(cfg.Clock, 5, 20),
		webFS:     cfg.WebFS,
	}
	if cfg.Comments != nil {
		s.comments = comment.NewHandler(cfg.Comments)
	}

	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.limiter.Stop()
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(s.verifier.Optional)
		r.Use(s.limiter.Middleware)

		r.Get("/limits", s.handleLimits)

		if s.feed != nil {
			r.Get("/episodes", s.handleEpisodes)
			r.Get("/channel", s.handleChannel)
			r.Get("/guests", s.handleGuests)
		}

		if s.comments != nil {
			s.comments.Routes(r, s.verifier.Middleware)
		}

		if s.positions != nil {
			r.Group(func(r chi.Router) {
				r.Use(s.verifier.Middleware)
				r.Get("/positions/{episodeId}", s.handleGetPosition)
				r.Put("/positions/{episodeId}", s.handlePutPosition)
			})
		}
	})

	if s.webFS != nil {
		spa := newSPAFileServer(s.webFS)
		s.router.NotFound(spa.ServeHTTP)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
