package http

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"portfolio/internal/core"
	"portfolio/internal/i18n"
)

// ErrNotAuthorized is the error body sent when no credential is cached
const ErrNotAuthorized = "not_authorized"

// JSON error codes for rejected requests
const (
	ErrInvalidJSON    = "invalid_json"
	ErrInvalidContact = "invalid_contact"
	ErrInternal       = "internal_error"
)

type trackResponse struct {
	Mode      core.PlaybackMode `json:"mode"`
	IsPlaying bool              `json:"is_playing"`
	Title     string            `json:"title"`
	Artist    string            `json:"artist"`
	AlbumArt  string            `json:"album_art"`
	URL       string            `json:"url"`
}

type emptyResponse struct {
	Mode      core.PlaybackMode `json:"mode"`
	IsPlaying bool              `json:"is_playing"`
	Status    string            `json:"status"`
}

type unauthorizedResponse struct {
	Error     string `json:"error"`
	IsPlaying bool   `json:"is_playing"`
}

type failedResponse struct {
	Mode      core.PlaybackMode `json:"mode"`
	IsPlaying bool              `json:"is_playing"`
	Error     core.ErrorCode    `json:"error"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
	Latency   string `json:"latency"`
}

type probeResponse struct {
	Status     string `json:"status"`
	Service    string `json:"service"`
	Authorized *bool  `json:"authorized,omitempty"`
}

// nowPlayingResponse maps a resolved state onto its HTTP status and body.
func nowPlayingResponse(state core.PlaybackState, localizer *i18n.Localizer) (int, any) {
	switch state.Mode {
	case core.ModeLive, core.ModeHistory:
		return http.StatusOK, trackResponse{
			Mode:      state.Mode,
			IsPlaying: state.IsPlaying(),
			Title:     state.Track.Title,
			Artist:    state.Track.Artist,
			AlbumArt:  state.Track.AlbumArtURL,
			URL:       state.Track.URL,
		}
	case core.ModeEmpty:
		return http.StatusOK, emptyResponse{
			Mode:   core.ModeEmpty,
			Status: localizer.T(i18n.KeyPlaybackEmpty),
		}
	case core.ModeUnauthorized:
		return http.StatusUnauthorized, unauthorizedResponse{Error: ErrNotAuthorized}
	default:
		code := state.Code
		if code == "" {
			code = core.CodeUpstreamFailure
		}
		return http.StatusBadGateway, failedResponse{Mode: core.ModeFailed, Error: code}
	}
}

func writeJSON(w http.ResponseWriter, logger *zap.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}

func writeText(w http.ResponseWriter, logger *zap.Logger, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}
