package core

import (
	"context"

	"golang.org/x/oauth2"
)

// Track is the normalised view of a track reported by the music service.
type Track struct {
	Title       string
	Artist      string
	AlbumArtURL string
	URL         string
}

// CurrentlyPlaying mirrors the upstream "currently playing" answer.
// Track is nil when the service reports no item.
type CurrentlyPlaying struct {
	IsPlaying bool
	Track     *Track
}

type PlaybackMode string

const (
	// ModeLive means a track is playing right now
	ModeLive PlaybackMode = "live"
	// ModeHistory means nothing is playing and the last played track is reported
	ModeHistory PlaybackMode = "history"
	// ModeEmpty means neither a live nor a past track exists
	ModeEmpty PlaybackMode = "empty"
	// ModeUnauthorized means no valid credential is cached
	ModeUnauthorized PlaybackMode = "unauthorized"
	// ModeFailed means an upstream call failed
	ModeFailed PlaybackMode = "error"
)

// PlaybackState is the outcome of a single resolution. Track is set for
// ModeLive and ModeHistory, Code for ModeFailed.
type PlaybackState struct {
	Mode  PlaybackMode
	Track *Track
	Code  ErrorCode
}

func Live(t Track) PlaybackState {
	return PlaybackState{Mode: ModeLive, Track: &t}
}

func History(t Track) PlaybackState {
	return PlaybackState{Mode: ModeHistory, Track: &t}
}

func Empty() PlaybackState {
	return PlaybackState{Mode: ModeEmpty}
}

func Unauthorized() PlaybackState {
	return PlaybackState{Mode: ModeUnauthorized}
}

func Failed(code ErrorCode) PlaybackState {
	return PlaybackState{Mode: ModeFailed, Code: code}
}

// IsPlaying reports whether the state describes live playback.
func (s PlaybackState) IsPlaying() bool {
	return s.Mode == ModeLive
}

// CredentialStore gives read access to the cached OAuth credential.
type CredentialStore interface {
	// CachedCredential returns the cached token, or nil when none is cached.
	CachedCredential(ctx context.Context) (*oauth2.Token, error)
	IsValid(token *oauth2.Token) bool
}

// MusicClient is the read-only slice of the music service API the resolver needs.
type MusicClient interface {
	CurrentlyPlaying(ctx context.Context) (*CurrentlyPlaying, error)
	RecentlyPlayed(ctx context.Context, limit int) ([]Track, error)
}

// MusicClientFactory binds a MusicClient to a validated credential.
type MusicClientFactory interface {
	ClientFor(ctx context.Context, token *oauth2.Token) MusicClient
}

// UpstreamRecorder is notified about failed upstream calls.
type UpstreamRecorder interface {
	RecordUpstreamError(call string)
}
