// Package spotify provides Spotify Web API integration for reading playback state and the OAuth session behind it.
package spotify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"

	"portfolio/internal/core"
)

const (
	// ExternalURLKey is the external_urls entry holding the open.spotify.com link
	ExternalURLKey = "spotify"
	// MaxRecentlyPlayed is the largest limit the recently-played endpoint accepts
	MaxRecentlyPlayed = 50
)

// Client is a read-only playback client bound to one credential.
type Client struct {
	client *spotify.Client
	logger *zap.Logger
}

// NewClient wraps an authorised HTTP client. opts are passed to spotify.New,
// which is how tests point the client at a fake API.
func NewClient(httpClient *http.Client, logger *zap.Logger, opts ...spotify.ClientOption) *Client {
	return &Client{
		client: spotify.New(httpClient, opts...),
		logger: logger,
	}
}

// CurrentlyPlaying returns the live playback item. A nil Track means nothing
// is playing: a 204 No Content answer, no item, or a paused item. Paused items
// are not converted, so their missing fields never mask the history fallback.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*core.CurrentlyPlaying, error) {
	currently, err := c.client.PlayerCurrentlyPlaying(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get currently playing: %w", err)
	}

	if currently == nil || currently.Item == nil || !currently.Playing {
		c.logger.Debug("Nothing currently playing")
		return &core.CurrentlyPlaying{}, nil
	}

	item := currently.Item
	track, err := convertTrack(item.Name, item.Artists, item.Album, item.ExternalURLs)
	if err != nil {
		return nil, fmt.Errorf("currently playing %q: %w", item.ID, err)
	}

	return &core.CurrentlyPlaying{
		IsPlaying: currently.Playing,
		Track:     &track,
	}, nil
}

// RecentlyPlayed returns up to limit tracks, most recent first.
func (c *Client) RecentlyPlayed(ctx context.Context, limit int) ([]core.Track, error) {
	if limit <= 0 || limit > MaxRecentlyPlayed {
		return nil, fmt.Errorf("recently played limit %d out of range (1-%d)", limit, MaxRecentlyPlayed)
	}

	items, err := c.client.PlayerRecentlyPlayedOpt(ctx, &spotify.RecentlyPlayedOptions{Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get recently played: %w", err)
	}

	tracks := make([]core.Track, 0, len(items))
	for i := range items {
		item := &items[i].Track
		track, err := convertTrack(item.Name, item.Artists, item.Album, item.ExternalURLs)
		if err != nil {
			return nil, fmt.Errorf("recently played %q: %w", item.ID, err)
		}
		tracks = append(tracks, track)
	}

	return tracks, nil
}

// DisplayName returns the account owner's display name, falling back to the user ID.
func (c *Client) DisplayName(ctx context.Context) (string, error) {
	user, err := c.client.CurrentUser(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	if user.DisplayName != "" {
		return user.DisplayName, nil
	}
	return user.ID, nil
}

// convertTrack keeps the first artist and the first album image, in the
// order the API returned them.
func convertTrack(name string, artists []spotify.SimpleArtist, album spotify.SimpleAlbum,
	externalURLs map[string]string) (core.Track, error) {
	if len(artists) == 0 {
		return core.Track{}, fmt.Errorf("%w: no artists", core.ErrMalformedTrack)
	}
	if len(album.Images) == 0 {
		return core.Track{}, fmt.Errorf("%w: no album images", core.ErrMalformedTrack)
	}
	url, ok := externalURLs[ExternalURLKey]
	if !ok {
		return core.Track{}, fmt.Errorf("%w: no external url", core.ErrMalformedTrack)
	}

	return core.Track{
		Title:       name,
		Artist:      artists[0].Name,
		AlbumArtURL: album.Images[0].URL,
		URL:         url,
	}, nil
}
