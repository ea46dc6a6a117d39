package spotify

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"portfolio/internal/core"
)

const (
	// PendingLoginTTL is how long a /login state stays redeemable
	PendingLoginTTL = 10 * time.Minute
	// MaxPendingLogins bounds the number of outstanding /login states
	MaxPendingLogins = 128
	// stateBytes is the entropy of a generated OAuth state
	stateBytes = 16
)

// Scopes requested at login
var Scopes = []string{
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserReadRecentlyPlayed,
}

// TokenStore persists the single cached credential.
type TokenStore interface {
	Load(ctx context.Context) (*oauth2.Token, error)
	Save(ctx context.Context, token *oauth2.Token) error
}

// Session owns the OAuth configuration and the credential cache. It is
// created once at startup and shared by all requests.
type Session struct {
	config     *core.SpotifyConfig
	oauth      *oauth2.Config
	store      TokenStore
	logger     *zap.Logger
	pending    *expirable.LRU[string, struct{}]
	apiOptions []spotify.ClientOption
	mutex      sync.Mutex

	// refreshMutex serialises refreshes across the clients built for each request
	refreshMutex sync.Mutex
}

type SessionOption func(*Session)

// WithEndpoint overrides the accounts service endpoint.
func WithEndpoint(endpoint oauth2.Endpoint) SessionOption {
	return func(s *Session) {
		s.oauth.Endpoint = endpoint
	}
}

// WithAPIOptions passes options to every Web API client the session builds.
func WithAPIOptions(opts ...spotify.ClientOption) SessionOption {
	return func(s *Session) {
		s.apiOptions = append(s.apiOptions, opts...)
	}
}

// NewSession builds the OAuth config from the spotifyauth endpoints and scopes.
func NewSession(config *core.SpotifyConfig, store TokenStore, logger *zap.Logger, opts ...SessionOption) *Session {
	s := &Session{
		config: config,
		oauth: &oauth2.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			RedirectURL:  config.RedirectURL,
			Scopes:       Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  spotifyauth.AuthURL,
				TokenURL: spotifyauth.TokenURL,
			},
		},
		store:   store,
		logger:  logger,
		pending: expirable.NewLRU[string, struct{}](MaxPendingLogins, nil, PendingLoginTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CachedCredential returns the stored token, or nil when nobody has logged in.
func (s *Session) CachedCredential(ctx context.Context) (*oauth2.Token, error) {
	return s.store.Load(ctx)
}

// IsValid accepts a token that is unexpired or can be refreshed.
func (s *Session) IsValid(token *oauth2.Token) bool {
	if token == nil || token.AccessToken == "" {
		return false
	}
	return token.Valid() || token.RefreshToken != ""
}

// HasCredential reports whether a valid credential is cached.
func (s *Session) HasCredential(ctx context.Context) bool {
	token, err := s.CachedCredential(ctx)
	if err != nil {
		s.logger.Warn("Failed to read cached credential", zap.Error(err))
		return false
	}
	return s.IsValid(token)
}

// ClientFor builds a Web API client for token. Tokens refreshed while the
// client is in use are written back to the store.
func (s *Session) ClientFor(ctx context.Context, token *oauth2.Token) core.MusicClient {
	return s.client(ctx, token)
}

func (s *Session) client(ctx context.Context, token *oauth2.Token) *Client {
	source := oauth2.ReuseTokenSource(token, &persistingTokenSource{
		ctx:      ctx,
		base:     s.oauth.TokenSource(ctx, token),
		previous: token.AccessToken,
		store:    s.store,
		logger:   s.logger,
		mutex:    &s.refreshMutex,
	})
	return NewClient(oauth2.NewClient(ctx, source), s.logger, s.apiOptions...)
}

// LoginURL starts a login and returns the provider URL to redirect to.
func (s *Session) LoginURL() (string, error) {
	state, err := newState()
	if err != nil {
		return "", err
	}
	s.pending.Add(state, struct{}{})

	var opts []oauth2.AuthCodeOption
	if s.config.ShowDialog {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}
	return s.oauth.AuthCodeURL(state, opts...), nil
}

// CompleteLogin redeems a callback and caches the resulting token. It
// returns the account's display name when it can be fetched.
func (s *Session) CompleteLogin(ctx context.Context, state, code string) (string, error) {
	if code == "" {
		return "", core.ErrMissingCode
	}
	if !s.pending.Remove(state) {
		return "", core.ErrInvalidState
	}

	// Serialise exchanges so two quick callbacks cannot interleave saves.
	s.mutex.Lock()
	defer s.mutex.Unlock()

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("failed to exchange code for token: %w", err)
	}

	if err := s.store.Save(ctx, token); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}

	name, err := s.client(ctx, token).DisplayName(ctx)
	if err != nil {
		s.logger.Warn("Authorized but failed to fetch user", zap.Error(err))
		return "", nil
	}

	s.logger.Info("OAuth flow completed successfully", zap.String("user", name))
	return name, nil
}

func newState() (string, error) {
	buf := make([]byte, stateBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate oauth state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// persistingTokenSource saves tokens that differ from the one it started with.
// Sources built by one Session share a mutex, and a source adopts a valid token
// another request already stored instead of spending the refresh token again.
type persistingTokenSource struct {
	ctx      context.Context
	base     oauth2.TokenSource
	previous string
	store    TokenStore
	logger   *zap.Logger
	mutex    *sync.Mutex
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	stored, err := p.store.Load(p.ctx)
	if err != nil {
		p.logger.Warn("Failed to reload cached credential before refresh", zap.Error(err))
	} else if stored != nil && stored.AccessToken != p.previous && stored.Valid() {
		p.previous = stored.AccessToken
		p.logger.Debug("Using token refreshed by another request")
		return stored, nil
	}

	token, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if token.AccessToken != p.previous {
		p.previous = token.AccessToken
		if saveErr := p.store.Save(p.ctx, token); saveErr != nil {
			p.logger.Warn("Failed to save refreshed token", zap.Error(saveErr))
		} else {
			p.logger.Debug("Saved refreshed token")
		}
	}
	return token, nil
}
