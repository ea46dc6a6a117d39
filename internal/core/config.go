package core

import (
	"time"

	"portfolio/internal/i18n"
)

// Configuration defaults
const (
	DefaultServerHost          = "0.0.0.0"
	DefaultServerPort          = 8000
	DefaultReadTimeoutSecs     = 10
	DefaultWriteTimeoutSecs    = 10
	DefaultTokenPath           = "./.spotify_cache"
	DefaultPublicDir           = "./public"
	DefaultContactDedupEntries = 1000
)

// Credential cache backends
const (
	TokenStoreFile   = "file"
	TokenStoreSQLite = "sqlite"
)

type Config struct {
	Spotify SpotifyConfig
	Server  ServerConfig
	Site    SiteConfig
	Log     LogConfig
	App     AppConfig
}

type SpotifyConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	TokenStore   string
	TokenPath    string
	ShowDialog   bool
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type SiteConfig struct {
	PublicDir string
}

type LogConfig struct {
	Level  string
	Format string
}

type AppConfig struct {
	Language             string
	ContactDedupCapacity int
}

func DefaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			TokenStore: TokenStoreFile,
			TokenPath:  DefaultTokenPath,
		},
		Server: ServerConfig{
			Host:           DefaultServerHost,
			Port:           DefaultServerPort,
			ReadTimeout:    DefaultReadTimeoutSecs * time.Second,
			WriteTimeout:   DefaultWriteTimeoutSecs * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Site: SiteConfig{
			PublicDir: DefaultPublicDir,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		App: AppConfig{
			Language:             i18n.DefaultLanguage,
			ContactDedupCapacity: DefaultContactDedupEntries,
		},
	}
}
