package core

import (
	"context"

	"go.uber.org/zap"
)

// RecentlyPlayedLimit is the number of history items requested when nothing is live.
const RecentlyPlayedLimit = 1

// Upstream call names used for logging and metrics
const (
	CallCurrentlyPlaying = "currently_playing"
	CallRecentlyPlayed   = "recently_played"
)

// Resolver determines what the account owner is listening to.
type Resolver struct {
	credentials CredentialStore
	clients     MusicClientFactory
	logger      *zap.Logger
	recorder    UpstreamRecorder
}

type ResolverOption func(*Resolver)

// WithUpstreamRecorder reports failed upstream calls to r.
func WithUpstreamRecorder(r UpstreamRecorder) ResolverOption {
	return func(res *Resolver) {
		res.recorder = r
	}
}

func NewResolver(credentials CredentialStore, clients MusicClientFactory, logger *zap.Logger,
	opts ...ResolverOption) *Resolver {
	r := &Resolver{
		credentials: credentials,
		clients:     clients,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the live -> history -> empty fallback once. It never returns
// an error: upstream failures come back as a ModeFailed state.
func (r *Resolver) Resolve(ctx context.Context) (state PlaybackState) {
	token, err := r.credentials.CachedCredential(ctx)
	if err != nil {
		r.logger.Warn("Failed to read cached credential", zap.Error(err))
		return Unauthorized()
	}
	if !r.credentials.IsValid(token) {
		r.logger.Debug("No valid credential cached")
		return Unauthorized()
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Recovered from panic while resolving playback",
				zap.Any("panic", p))
			state = Failed(CodeUpstreamFailure)
		}
	}()

	client := r.clients.ClientFor(ctx, token)

	current, err := client.CurrentlyPlaying(ctx)
	if err != nil {
		return r.fail(CallCurrentlyPlaying, err)
	}
	if current != nil && current.IsPlaying && current.Track != nil {
		return Live(*current.Track)
	}

	recent, err := client.RecentlyPlayed(ctx, RecentlyPlayedLimit)
	if err != nil {
		return r.fail(CallRecentlyPlayed, err)
	}
	if len(recent) > 0 {
		return History(recent[0])
	}

	return Empty()
}

func (r *Resolver) fail(call string, err error) PlaybackState {
	code := ClassifyError(err)
	r.logger.Error("Upstream call failed",
		zap.String("call", call),
		zap.String("code", string(code)),
		zap.Error(err))
	if r.recorder != nil {
		r.recorder.RecordUpstreamError(call)
	}
	return Failed(code)
}
