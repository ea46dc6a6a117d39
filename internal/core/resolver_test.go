package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Mock implementations for testing

type mockCredentialStore struct {
	token   *oauth2.Token
	loadErr error
	valid   bool
}

func (m *mockCredentialStore) CachedCredential(_ context.Context) (*oauth2.Token, error) {
	return m.token, m.loadErr
}

func (m *mockCredentialStore) IsValid(token *oauth2.Token) bool {
	return token != nil && m.valid
}

type mockMusicClient struct {
	current       *CurrentlyPlaying
	currentErr    error
	recent        []Track
	recentErr     error
	panicOnRecent bool

	currentCalls int
	recentCalls  int
	recentLimits []int
}

func (m *mockMusicClient) CurrentlyPlaying(_ context.Context) (*CurrentlyPlaying, error) {
	m.currentCalls++
	return m.current, m.currentErr
}

func (m *mockMusicClient) RecentlyPlayed(_ context.Context, limit int) ([]Track, error) {
	m.recentCalls++
	m.recentLimits = append(m.recentLimits, limit)
	if m.panicOnRecent {
		panic("index out of range")
	}
	return m.recent, m.recentErr
}

type mockClientFactory struct {
	client   *mockMusicClient
	requests int
}

func (f *mockClientFactory) ClientFor(_ context.Context, _ *oauth2.Token) MusicClient {
	f.requests++
	return f.client
}

type mockRecorder struct {
	calls []string
}

func (m *mockRecorder) RecordUpstreamError(call string) {
	m.calls = append(m.calls, call)
}

func validToken() *oauth2.Token {
	return &oauth2.Token{AccessToken: "access", Expiry: time.Now().Add(time.Hour)}
}

func newTestResolver(store CredentialStore, client *mockMusicClient) (*Resolver, *mockClientFactory) {
	factory := &mockClientFactory{client: client}
	return NewResolver(store, factory, zap.NewNop()), factory
}

func TestResolve_UnauthorizedWithoutUpstreamCalls(t *testing.T) {
	tests := []struct {
		name  string
		store *mockCredentialStore
	}{
		{name: "no cached token", store: &mockCredentialStore{valid: true}},
		{name: "invalid token", store: &mockCredentialStore{token: validToken(), valid: false}},
		{name: "cache read error", store: &mockCredentialStore{loadErr: errors.New("corrupt cache"), valid: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockMusicClient{current: &CurrentlyPlaying{IsPlaying: true, Track: &Track{Title: "x"}}}
			resolver, factory := newTestResolver(tt.store, client)

			state := resolver.Resolve(context.Background())

			if state.Mode != ModeUnauthorized {
				t.Errorf("Expected mode %q, got %q", ModeUnauthorized, state.Mode)
			}
			if factory.requests != 0 {
				t.Errorf("Expected no client to be built, got %d", factory.requests)
			}
			if client.currentCalls != 0 || client.recentCalls != 0 {
				t.Errorf("Expected no upstream calls, got current=%d recent=%d",
					client.currentCalls, client.recentCalls)
			}
		})
	}
}

func TestResolve_Live(t *testing.T) {
	client := &mockMusicClient{
		current: &CurrentlyPlaying{
			IsPlaying: true,
			Track:     &Track{Title: "Song A", Artist: "Artist X", AlbumArtURL: "u1", URL: "link1"},
		},
	}
	resolver, _ := newTestResolver(&mockCredentialStore{token: validToken(), valid: true}, client)

	state := resolver.Resolve(context.Background())

	if state.Mode != ModeLive {
		t.Fatalf("Expected mode %q, got %q", ModeLive, state.Mode)
	}
	want := Track{Title: "Song A", Artist: "Artist X", AlbumArtURL: "u1", URL: "link1"}
	if *state.Track != want {
		t.Errorf("Expected track %+v, got %+v", want, *state.Track)
	}
	if !state.IsPlaying() {
		t.Error("Live state should report playing")
	}
	if client.recentCalls != 0 {
		t.Errorf("Recently played should not be queried when live, got %d calls", client.recentCalls)
	}
}

func TestResolve_HistoryWhenPaused(t *testing.T) {
	tests := []struct {
		name    string
		current *CurrentlyPlaying
	}{
		{name: "paused with item", current: &CurrentlyPlaying{IsPlaying: false, Track: &Track{Title: "Paused"}}},
		{name: "playing without item", current: &CurrentlyPlaying{IsPlaying: true}},
		{name: "nothing reported", current: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockMusicClient{
				current: tt.current,
				recent: []Track{
					{Title: "Song B", Artist: "Artist Y", AlbumArtURL: "u2", URL: "link2"},
				},
			}
			resolver, _ := newTestResolver(&mockCredentialStore{token: validToken(), valid: true}, client)

			state := resolver.Resolve(context.Background())

			if state.Mode != ModeHistory {
				t.Fatalf("Expected mode %q, got %q", ModeHistory, state.Mode)
			}
			if state.Track.Title != "Song B" || state.Track.Artist != "Artist Y" {
				t.Errorf("Unexpected history track %+v", *state.Track)
			}
			if state.IsPlaying() {
				t.Error("History state should not report playing")
			}
			if len(client.recentLimits) != 1 || client.recentLimits[0] != 1 {
				t.Errorf("Expected exactly one recently played call with limit 1, got %v", client.recentLimits)
			}
		})
	}
}

func TestResolve_Empty(t *testing.T) {
	client := &mockMusicClient{current: &CurrentlyPlaying{IsPlaying: false}}
	resolver, _ := newTestResolver(&mockCredentialStore{token: validToken(), valid: true}, client)

	state := resolver.Resolve(context.Background())

	if state.Mode != ModeEmpty {
		t.Errorf("Expected mode %q, got %q", ModeEmpty, state.Mode)
	}
	if state.Track != nil {
		t.Errorf("Empty state should carry no track, got %+v", state.Track)
	}
	if client.currentCalls != 1 || client.recentCalls != 1 {
		t.Errorf("Each tier should be attempted once, got current=%d recent=%d",
			client.currentCalls, client.recentCalls)
	}
}

func TestResolve_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name         string
		client       *mockMusicClient
		expectedCode ErrorCode
		expectedCall string
	}{
		{
			name:         "currently playing transport error",
			client:       &mockMusicClient{currentErr: errors.New("connection reset")},
			expectedCode: CodeUpstreamFailure,
			expectedCall: CallCurrentlyPlaying,
		},
		{
			name:         "currently playing malformed track",
			client:       &mockMusicClient{currentErr: fmt.Errorf("%w: no artists", ErrMalformedTrack)},
			expectedCode: CodeMalformedTrack,
			expectedCall: CallCurrentlyPlaying,
		},
		{
			name: "recently played error",
			client: &mockMusicClient{
				current:   &CurrentlyPlaying{IsPlaying: false},
				recentErr: errors.New("502 bad gateway"),
			},
			expectedCode: CodeUpstreamFailure,
			expectedCall: CallRecentlyPlayed,
		},
		{
			name: "request canceled",
			client: &mockMusicClient{
				currentErr: fmt.Errorf("get currently playing: %w", context.Canceled),
			},
			expectedCode: CodeCanceled,
			expectedCall: CallCurrentlyPlaying,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := &mockRecorder{}
			factory := &mockClientFactory{client: tt.client}
			resolver := NewResolver(&mockCredentialStore{token: validToken(), valid: true}, factory,
				zap.NewNop(), WithUpstreamRecorder(recorder))

			state := resolver.Resolve(context.Background())

			if state.Mode != ModeFailed {
				t.Fatalf("Expected mode %q, got %q", ModeFailed, state.Mode)
			}
			if state.Code != tt.expectedCode {
				t.Errorf("Expected code %q, got %q", tt.expectedCode, state.Code)
			}
			if len(recorder.calls) != 1 || recorder.calls[0] != tt.expectedCall {
				t.Errorf("Expected recorder call %q, got %v", tt.expectedCall, recorder.calls)
			}
		})
	}
}

func TestResolve_RecoversFromPanic(t *testing.T) {
	client := &mockMusicClient{current: &CurrentlyPlaying{IsPlaying: false}, panicOnRecent: true}
	resolver, _ := newTestResolver(&mockCredentialStore{token: validToken(), valid: true}, client)

	state := resolver.Resolve(context.Background())

	if state.Mode != ModeFailed || state.Code != CodeUpstreamFailure {
		t.Errorf("Expected failed/upstream_failure, got %q/%q", state.Mode, state.Code)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err      error
		expected ErrorCode
	}{
		{errors.New("boom"), CodeUpstreamFailure},
		{fmt.Errorf("wrap: %w", ErrMalformedTrack), CodeMalformedTrack},
		{context.DeadlineExceeded, CodeCanceled},
	}

	for _, tt := range tests {
		if got := ClassifyError(tt.err); got != tt.expected {
			t.Errorf("ClassifyError(%v) = %q, expected %q", tt.err, got, tt.expected)
		}
	}
}
