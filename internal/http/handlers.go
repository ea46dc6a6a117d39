package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"portfolio/internal/core"
	"portfolio/internal/i18n"
)

const (
	// DefaultContactSource tags submissions that do not name their form
	DefaultContactSource = "portfolio_v2"

	healthStatus   = "ONLINE"
	healthLocation = "LATENT_SPACE"
	healthLatency  = "12ms"
)

type contactRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
	Source  string `json:"source"`
}

func (s *Server) nowPlayingHandler(w http.ResponseWriter, r *http.Request) {
	state := s.resolver.Resolve(r.Context())
	s.metrics.RecordNowPlaying(state.Mode)

	status, body := nowPlayingResponse(state, s.localizer)
	writeJSON(w, s.logger, status, body)
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	target, err := s.login.LoginURL()
	if err != nil {
		s.logger.Error("Failed to start login", zap.Error(err))
		writeJSON(w, s.logger, http.StatusInternalServerError, errorResponse{Error: ErrInternal})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (s *Server) callbackHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		s.logger.Warn("Authorization denied by provider", zap.String("error", providerErr))
	}

	name, err := s.login.CompleteLogin(r.Context(), query.Get("state"), query.Get("code"))
	if err != nil {
		status, label := http.StatusBadGateway, StatusExchangeFailed
		switch {
		case errors.Is(err, core.ErrMissingCode):
			status, label = http.StatusBadRequest, StatusMissingCode
		case errors.Is(err, core.ErrInvalidState):
			status, label = http.StatusBadRequest, StatusInvalidState
		}
		s.logger.Warn("OAuth callback rejected", zap.String("reason", label), zap.Error(err))
		s.metrics.RecordOAuthCallback(label)
		writeText(w, s.logger, status, s.localizer.T(i18n.KeyOAuthFailed))
		return
	}

	s.metrics.RecordOAuthCallback(StatusSuccess)
	message := s.localizer.T(i18n.KeyOAuthAuthorized)
	if name != "" {
		message = s.localizer.T(i18n.KeyOAuthAuthorizedAs, name)
	}
	writeText(w, s.logger, http.StatusOK, message)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, healthResponse{
		Status:    healthStatus,
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Location:  healthLocation,
		Latency:   healthLatency,
	})
}

func (s *Server) contactHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxContactBodyBytes)

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Debug("Rejected contact submission", zap.Error(err))
		s.metrics.RecordContact(StatusInvalid)
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Error: ErrInvalidJSON})
		return
	}

	email := s.parser.NormalizeEmail(req.Email)
	message := s.parser.NormalizeMessage(req.Message)
	source := s.parser.NormalizeSource(req.Source, DefaultContactSource)

	if message == "" || !s.parser.IsEmail(email) {
		s.logger.Debug("Rejected contact submission", zap.Error(core.ErrInvalidContact))
		s.metrics.RecordContact(StatusInvalid)
		writeJSON(w, s.logger, http.StatusBadRequest, errorResponse{Error: ErrInvalidContact})
		return
	}

	status := StatusAccepted
	if s.contacts != nil && s.contacts.Seen(s.parser.Key(email, message)) {
		status = StatusDuplicate
		s.logger.Info("Duplicate contact submission",
			zap.String("email", email),
			zap.String("source", source))
	} else {
		s.logger.Info("Incoming transmission",
			zap.String("email", email),
			zap.String("source", source),
			zap.String("message", message))
	}

	s.metrics.RecordContact(status)
	writeJSON(w, s.logger, http.StatusOK, messageResponse{Message: s.localizer.T(i18n.KeyContactReceived)})
}

// pageHandler serves a static page from the public directory.
func (s *Server) pageHandler(name, missingKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(s.config.Site.PublicDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			s.logger.Warn("Page not found", zap.String("path", path))
			writeJSON(w, s.logger, http.StatusNotFound, errorResponse{Error: s.localizer.T(missingKey)})
			return
		}
		http.ServeFile(w, r, path)
	}
}

func (s *Server) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, probeResponse{Status: "ok", Service: ServiceName})
}

// readyzHandler always answers 200; authorized tells whether /now-playing
// can reach Spotify.
func (s *Server) readyzHandler(w http.ResponseWriter, r *http.Request) {
	authorized := s.login.HasCredential(r.Context())
	writeJSON(w, s.logger, http.StatusOK, probeResponse{
		Status:     "ready",
		Service:    ServiceName,
		Authorized: &authorized,
	})
}
