// Package http serves the portfolio API, the now-playing proxy and the
// Spotify login flow.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"portfolio/internal/core"
	"portfolio/internal/i18n"
	"portfolio/internal/store"
	"portfolio/pkg/text"
)

const (
	// ServiceName is reported by the probe endpoints
	ServiceName = "portfolio"
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout = 10 * time.Second
	// MaxContactBodyBytes caps the contact request body
	MaxContactBodyBytes = 64 << 10
)

// PlaybackResolver resolves the account owner's playback state.
type PlaybackResolver interface {
	Resolve(ctx context.Context) core.PlaybackState
}

// LoginFlow drives the OAuth authorization code flow.
type LoginFlow interface {
	LoginURL() (string, error)
	CompleteLogin(ctx context.Context, state, code string) (string, error)
	HasCredential(ctx context.Context) bool
}

// Services are the collaborators the handlers need.
type Services struct {
	Resolver  PlaybackResolver
	Login     LoginFlow
	Contacts  *store.DedupStore
	Localizer *i18n.Localizer
	Metrics   *Metrics
}

type Server struct {
	config    *core.Config
	logger    *zap.Logger
	server    *http.Server
	metrics   *Metrics
	resolver  PlaybackResolver
	login     LoginFlow
	contacts  *store.DedupStore
	parser    *text.ContactParser
	localizer *i18n.Localizer
	now       func() time.Time
}

func NewServer(config *core.Config, services *Services, logger *zap.Logger) *Server {
	metrics := services.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}
	localizer := services.Localizer
	if localizer == nil {
		localizer = i18n.NewLocalizer(config.App.Language)
	}

	s := &Server{
		config:    config,
		logger:    logger,
		metrics:   metrics,
		resolver:  services.Resolver,
		login:     services.Login,
		contacts:  services.Contacts,
		parser:    text.NewContactParser(),
		localizer: localizer,
		now:       time.Now,
	}

	handler := newCORS(config.Server.AllowedOrigins).Handler(s.setupRoutes())
	s.server = createHTTPServer(&config.Server, handler)
	return s
}

func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	s.handle(mux, "GET /now-playing", "now_playing", s.nowPlayingHandler)
	s.handle(mux, "GET /api/now-playing", "now_playing", s.nowPlayingHandler)
	s.handle(mux, "GET /login", "login", s.loginHandler)
	s.handle(mux, "GET /callback", "callback", s.callbackHandler)
	s.handle(mux, "GET /api/health", "health", s.healthHandler)
	s.handle(mux, "POST /api/contact", "contact", s.contactHandler)
	s.handle(mux, "GET /{$}", "index", s.pageHandler("index.html", i18n.KeyIndexMissing))
	s.handle(mux, "GET /about", "about", s.pageHandler("about.html", i18n.KeyAboutMissing))

	mux.HandleFunc("GET /healthz", s.healthzHandler)
	mux.HandleFunc("GET /readyz", s.readyzHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{}))

	return mux
}

// handle registers h and records its latency under route.
func (s *Server) handle(mux *http.ServeMux, pattern, route string, h http.HandlerFunc) {
	observer := s.metrics.RequestDuration.MustCurryWith(prometheus.Labels{"route": route})
	mux.Handle(pattern, promhttp.InstrumentHandlerDuration(observer, h))
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions, http.MethodHead},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

// Handler returns the fully wrapped handler, as served by Start.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}
