package core

import (
	"testing"

	"portfolio/internal/i18n"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.App.Language != i18n.DefaultLanguage {
		t.Errorf("Expected default language to be %s, got %s", i18n.DefaultLanguage, config.App.Language)
	}

	if config.Spotify.TokenStore != TokenStoreFile {
		t.Errorf("Expected default token store %q, got %q", TokenStoreFile, config.Spotify.TokenStore)
	}

	if config.Spotify.TokenPath != DefaultTokenPath {
		t.Errorf("Expected default token path %q, got %q", DefaultTokenPath, config.Spotify.TokenPath)
	}

	if config.Server.Port != DefaultServerPort {
		t.Errorf("Expected default port %d, got %d", DefaultServerPort, config.Server.Port)
	}

	if len(config.Server.AllowedOrigins) != 1 || config.Server.AllowedOrigins[0] != "*" {
		t.Errorf("Expected all origins to be allowed by default, got %v", config.Server.AllowedOrigins)
	}

	if config.App.ContactDedupCapacity != DefaultContactDedupEntries {
		t.Errorf("Expected contact dedup capacity %d, got %d",
			DefaultContactDedupEntries, config.App.ContactDedupCapacity)
	}
}

func TestConfigConstants(t *testing.T) {
	if DefaultServerPort <= 0 || DefaultServerPort > 65535 {
		t.Error("DefaultServerPort should be a valid port number")
	}

	if DefaultReadTimeoutSecs <= 0 || DefaultWriteTimeoutSecs <= 0 {
		t.Error("Server timeouts should be positive")
	}

	if DefaultContactDedupEntries <= 0 {
		t.Error("DefaultContactDedupEntries should be positive")
	}
}
