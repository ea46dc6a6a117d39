// Package main provides the portfolio backend entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"portfolio/internal/core"
	httpserver "portfolio/internal/http"
	"portfolio/internal/i18n"
	"portfolio/internal/spotify"
	"portfolio/internal/store"
)

const (
	envPrefix = "PORTFOLIO"

	logFormatJSON = "json"
	logFormatText = "text"

	contactDedupFalsePositiveRate = 0.001
)

var version = "dev"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

// envAliases lets deployments keep the variable names of the spotipy-based backend.
var envAliases = map[string][]string{
	"server-port":           {"PORT"},
	"spotify-client-id":     {"SPOTIPY_CLIENT_ID"},
	"spotify-client-secret": {"SPOTIPY_CLIENT_SECRET"},
	"spotify-redirect-url":  {"SPOTIPY_REDIRECT_URI"},
}

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Portfolio backend with Spotify now playing",
	Long: `portfolio serves the personal site API: health and contact endpoints, the static
pages, and a "now playing" proxy that reports what the owner is listening to on Spotify.`,
	RunE: runPortfolio,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", logFormatJSON, "log format (json, text)")
	rootCmd.PersistentFlags().String("server-host", core.DefaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", core.DefaultServerPort, "HTTP server port")
	rootCmd.PersistentFlags().Int("server-read-timeout-secs", core.DefaultReadTimeoutSecs, "HTTP read timeout in seconds")
	rootCmd.PersistentFlags().Int("server-write-timeout-secs", core.DefaultWriteTimeoutSecs, "HTTP write timeout in seconds")
	rootCmd.PersistentFlags().StringSlice("cors-allowed-origins", []string{"*"}, "Origins allowed to call the API")
	rootCmd.PersistentFlags().String("spotify-client-id", "", "Spotify client ID")
	rootCmd.PersistentFlags().String("spotify-client-secret", "", "Spotify client secret")
	rootCmd.PersistentFlags().String("spotify-redirect-url", "", "Spotify OAuth redirect URL (default derived from host and port)")
	rootCmd.PersistentFlags().String("spotify-token-store", core.TokenStoreFile, "Credential cache backend (file, sqlite)")
	rootCmd.PersistentFlags().String("spotify-token-path", core.DefaultTokenPath, "Credential cache path")
	rootCmd.PersistentFlags().Bool("spotify-show-dialog", true, "Always show the Spotify consent dialog on login")
	rootCmd.PersistentFlags().String("public-dir", core.DefaultPublicDir, "Directory holding index.html and about.html")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("Response language (%s)", supportedLangs))
	rootCmd.PersistentFlags().Int("contact-dedup-capacity", core.DefaultContactDedupEntries, "Number of recent contact submissions remembered for duplicate detection")
	rootCmd.PersistentFlags().Bool("generate-env-example", false, "Generate .env.example file from current configuration and exit")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if err := bindEnvAliases(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind environment aliases: %v\n", err)
		os.Exit(1)
	}

	config = buildConfig()
	logger = buildLogger(config.Log.Level, config.Log.Format)
}

// bindEnvAliases binds each aliased key to its prefixed name first, so the
// prefixed variable wins when both are set.
func bindEnvAliases() error {
	for key, aliases := range envAliases {
		names := append([]string{flagToEnvVar(key)}, aliases...)
		if err := viper.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureServer(cfg)
	configureSpotify(cfg)
	configureSite(cfg)
	configureLog(cfg)
	configureApp(cfg)

	return cfg
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = core.DefaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = core.DefaultServerPort
	}

	readSecs := viper.GetInt("server-read-timeout-secs")
	if readSecs <= 0 {
		readSecs = core.DefaultReadTimeoutSecs
	}
	writeSecs := viper.GetInt("server-write-timeout-secs")
	if writeSecs <= 0 {
		writeSecs = core.DefaultWriteTimeoutSecs
	}
	cfg.Server.ReadTimeout = time.Duration(readSecs) * time.Second
	cfg.Server.WriteTimeout = time.Duration(writeSecs) * time.Second

	if origins := splitList(viper.GetStringSlice("cors-allowed-origins")); len(origins) > 0 {
		cfg.Server.AllowedOrigins = origins
	}
}

func configureSpotify(cfg *core.Config) {
	cfg.Spotify.ClientID = viper.GetString("spotify-client-id")
	cfg.Spotify.ClientSecret = viper.GetString("spotify-client-secret")
	cfg.Spotify.RedirectURL = viper.GetString("spotify-redirect-url")
	cfg.Spotify.TokenStore = strings.ToLower(viper.GetString("spotify-token-store"))
	if cfg.Spotify.TokenStore == "" {
		cfg.Spotify.TokenStore = core.TokenStoreFile
	}
	cfg.Spotify.TokenPath = viper.GetString("spotify-token-path")
	if cfg.Spotify.TokenPath == "" {
		cfg.Spotify.TokenPath = core.DefaultTokenPath
	}
	cfg.Spotify.ShowDialog = viper.GetBool("spotify-show-dialog")

	// Build default redirect URL based on server configuration if not explicitly set
	if cfg.Spotify.RedirectURL == "" {
		serverHost := cfg.Server.Host
		if serverHost == core.DefaultServerHost {
			serverHost = "127.0.0.1" // Use localhost for OAuth callback
		}
		cfg.Spotify.RedirectURL = fmt.Sprintf("http://%s:%d/callback", serverHost, cfg.Server.Port)
	}
}

func configureSite(cfg *core.Config) {
	cfg.Site.PublicDir = viper.GetString("public-dir")
	if cfg.Site.PublicDir == "" {
		cfg.Site.PublicDir = core.DefaultPublicDir
	}
}

func configureLog(cfg *core.Config) {
	cfg.Log.Level = viper.GetString("log-level")
	cfg.Log.Format = strings.ToLower(viper.GetString("log-format"))
	if cfg.Log.Format != logFormatText {
		cfg.Log.Format = logFormatJSON
	}
}

func configureApp(cfg *core.Config) {
	cfg.App.ContactDedupCapacity = viper.GetInt("contact-dedup-capacity")
	if cfg.App.ContactDedupCapacity <= 0 {
		cfg.App.ContactDedupCapacity = core.DefaultContactDedupEntries
	}

	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}
	if !i18n.IsSupported(cfg.App.Language) {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'. Supported languages: %s\n",
			cfg.App.Language, i18n.DefaultLanguage, strings.Join(i18n.GetSupportedLanguages(), ", "))
		cfg.App.Language = i18n.DefaultLanguage
	}
}

// splitList accepts both repeated flags and comma separated env values.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func buildLogger(level, format string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if format == logFormatText {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runPortfolio(cmd *cobra.Command, _ []string) error {
	if viper.GetBool("generate-env-example") {
		return generateEnvExample(cmd)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting portfolio",
		zap.String("version", version),
		zap.String("token_store", config.Spotify.TokenStore),
		zap.String("redirect_url", config.Spotify.RedirectURL),
		zap.String("language", config.App.Language))

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs, err := initializeServices(ctx)
	if err != nil {
		return err
	}
	defer svcs.close()

	return runServices(ctx, svcs)
}

// tokenStore is a credential cache that holds resources until closed.
type tokenStore interface {
	spotify.TokenStore
	Close() error
}

type services struct {
	tokens     tokenStore
	session    *spotify.Session
	httpServer *httpserver.Server
}

func (s *services) close() {
	if err := s.tokens.Close(); err != nil {
		logger.Warn("Failed to close credential cache", zap.Error(err))
	}
}

func initializeServices(ctx context.Context) (*services, error) {
	tokens, err := openTokenStore(ctx, &config.Spotify)
	if err != nil {
		return nil, err
	}

	session := spotify.NewSession(&config.Spotify, tokens, logger.Named("spotify"))
	metrics := httpserver.NewMetrics()
	resolver := core.NewResolver(session, session, logger.Named("resolver"),
		core.WithUpstreamRecorder(metrics))

	httpServer := httpserver.NewServer(config, &httpserver.Services{
		Resolver:  resolver,
		Login:     session,
		Contacts:  store.NewDedupStore(config.App.ContactDedupCapacity, contactDedupFalsePositiveRate),
		Localizer: i18n.NewLocalizer(config.App.Language),
		Metrics:   metrics,
	}, logger.Named("http"))

	if !session.HasCredential(ctx) {
		logger.Info("No Spotify credential cached yet, visit /login to authorize",
			zap.String("redirect_url", config.Spotify.RedirectURL))
	}

	return &services{
		tokens:     tokens,
		session:    session,
		httpServer: httpServer,
	}, nil
}

func openTokenStore(ctx context.Context, cfg *core.SpotifyConfig) (tokenStore, error) {
	switch cfg.TokenStore {
	case core.TokenStoreFile:
		return store.NewFileTokenStore(cfg.TokenPath), nil
	case core.TokenStoreSQLite:
		sqliteStore, err := store.OpenSQLiteTokenStore(ctx, cfg.TokenPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open credential cache: %w", err)
		}
		return sqliteStore, nil
	default:
		return nil, fmt.Errorf("unknown token store %q (expected %s or %s)",
			cfg.TokenStore, core.TokenStoreFile, core.TokenStoreSQLite)
	}
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	logger.Info("Portfolio started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("Portfolio stopped with error", zap.Error(err))
		return err
	}

	logger.Info("Portfolio stopped gracefully")
	return nil
}

func validateConfig(cfg *core.Config) error {
	if err := validateSpotifyConfig(&cfg.Spotify); err != nil {
		return err
	}
	if err := validateServerConfig(&cfg.Server); err != nil {
		return err
	}
	return nil
}

func validateSpotifyConfig(cfg *core.SpotifyConfig) error {
	if cfg.ClientID == "" {
		return fmt.Errorf("spotify client ID is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("spotify client secret is required")
	}
	if cfg.TokenStore != core.TokenStoreFile && cfg.TokenStore != core.TokenStoreSQLite {
		return fmt.Errorf("unknown token store %q (expected %s or %s)",
			cfg.TokenStore, core.TokenStoreFile, core.TokenStoreSQLite)
	}
	return nil
}

func validateServerConfig(cfg *core.ServerConfig) error {
	if cfg.Port > 65535 {
		return fmt.Errorf("server port %d out of range", cfg.Port)
	}
	return nil
}

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)
	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("✅ Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# Portfolio Backend Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	content.WriteString("# Format: PORTFOLIO_<SECTION>_<SETTING>=value\n")
	content.WriteString("# CLI equivalent: --<section>-<setting>\n")
	content.WriteString("#\n\n")

	generateSpotifySection(&content, cmd)
	generateServerSection(&content, cmd)
	generateSiteSection(&content, cmd)
	generateLoggingSection(&content, cmd)
	generateQuickSetupGuide(&content)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func generateSpotifySection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# =============================================================================\n")
	content.WriteString("# SPOTIFY CONFIGURATION - Required\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("# Get these from https://developer.spotify.com/dashboard\n")
	content.WriteString("# CLI: --spotify-client-id, --spotify-client-secret, --spotify-redirect-url\n")
	content.WriteString("# SPOTIPY_CLIENT_ID, SPOTIPY_CLIENT_SECRET and SPOTIPY_REDIRECT_URI are accepted too\n")
	content.WriteString("\n")

	storeDefault := getDefaultValueString(cmd, "spotify-token-store")
	pathDefault := getDefaultValueString(cmd, "spotify-token-path")
	dialogDefault := getDefaultValueString(cmd, "spotify-show-dialog")

	fmt.Fprintf(content, "%s=your_spotify_client_id_here          # Spotify app client ID\n",
		flagToEnvVar("spotify-client-id"))
	fmt.Fprintf(content, "%s=your_spotify_client_secret_here  # Spotify app client secret\n",
		flagToEnvVar("spotify-client-secret"))
	fmt.Fprintf(content, "%s=http://127.0.0.1:8000/callback    # OAuth callback URL (default: auto-generated)\n",
		flagToEnvVar("spotify-redirect-url"))
	fmt.Fprintf(content, "%s=%s                        # Credential cache: file, sqlite (default: %s)\n",
		flagToEnvVar("spotify-token-store"), storeDefault, storeDefault)
	fmt.Fprintf(content, "%s=%s             # Credential cache path (default: %q)\n",
		flagToEnvVar("spotify-token-path"), pathDefault, pathDefault)
	fmt.Fprintf(content, "%s=%s                        # Always show the consent dialog (default: %s)\n",
		flagToEnvVar("spotify-show-dialog"), dialogDefault, dialogDefault)
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# HTTP Server Configuration\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --server-host, --server-port, --server-read-timeout-secs, --server-write-timeout-secs\n")
	content.WriteString("# PORT is honoured when PORTFOLIO_SERVER_PORT is unset\n")

	hostDefault := getDefaultValueString(cmd, "server-host")
	portDefault := getDefaultValueString(cmd, "server-port")
	readDefault := getDefaultValueString(cmd, "server-read-timeout-secs")
	writeDefault := getDefaultValueString(cmd, "server-write-timeout-secs")

	fmt.Fprintf(content, "%s=%s                         # Server bind address (default: %s)\n",
		flagToEnvVar("server-host"), "127.0.0.1", hostDefault)
	fmt.Fprintf(content, "%s=%s                              # Server port (default: %s)\n",
		flagToEnvVar("server-port"), portDefault, portDefault)
	fmt.Fprintf(content, "%s=%s                   # Read timeout (default: %s)\n",
		flagToEnvVar("server-read-timeout-secs"), readDefault, readDefault)
	fmt.Fprintf(content, "%s=%s                  # Write timeout (default: %s)\n",
		flagToEnvVar("server-write-timeout-secs"), writeDefault, writeDefault)
	fmt.Fprintf(content, "%s=*                      # Comma separated CORS origins (default: *)\n",
		flagToEnvVar("cors-allowed-origins"))
	content.WriteString("\n")
}

func generateSiteSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Site and Contact Form\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --public-dir, --language, --contact-dedup-capacity\n")

	publicDefault := getDefaultValueString(cmd, "public-dir")
	langDefault := getDefaultValueString(cmd, "language")
	dedupDefault := getDefaultValueString(cmd, "contact-dedup-capacity")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")

	fmt.Fprintf(content, "%s=%s                          # Static pages directory (default: %q)\n",
		flagToEnvVar("public-dir"), publicDefault, publicDefault)
	fmt.Fprintf(content, "%s=%s                                    # Response language: %s (default: %s)\n",
		flagToEnvVar("language"), langDefault, supportedLangs, langDefault)
	fmt.Fprintf(content, "%s=%s                 # Recent submissions kept for duplicate detection (default: %s)\n",
		flagToEnvVar("contact-dedup-capacity"), dedupDefault, dedupDefault)
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# Logging Configuration\n")
	content.WriteString("# -----------------------------------------------------------------------------\n")
	content.WriteString("# CLI: --log-level, --log-format\n")

	logDefault := getDefaultValueString(cmd, "log-level")
	formatDefault := getDefaultValueString(cmd, "log-format")

	fmt.Fprintf(content, "%s=%s                                # Log level: debug, info, warn, error (default: %s)\n",
		flagToEnvVar("log-level"), logDefault, logDefault)
	fmt.Fprintf(content, "%s=%s                               # Log format: json, text (default: %s)\n",
		flagToEnvVar("log-format"), formatDefault, formatDefault)
	content.WriteString("\n")
}

func generateQuickSetupGuide(content *strings.Builder) {
	content.WriteString("# =============================================================================\n")
	content.WriteString("# QUICK SETUP GUIDE\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("\n")
	content.WriteString("# 1. SPOTIFY SETUP:\n")
	content.WriteString("#    - Go to https://developer.spotify.com/dashboard\n")
	content.WriteString("#    - Create a new app and add the redirect URI: http://127.0.0.1:8000/callback\n")
	content.WriteString("#    - Copy Client ID and Secret to config above\n")
	content.WriteString("\n")
	content.WriteString("# 2. AUTHORIZE:\n")
	content.WriteString("#    - Start the server and open http://127.0.0.1:8000/login once\n")
	content.WriteString("#    - The credential is cached and refreshed automatically afterwards\n")
	content.WriteString("\n")
	content.WriteString("# 3. VERIFY:\n")
	content.WriteString("#    - curl http://127.0.0.1:8000/now-playing\n")
	content.WriteString("#    - curl http://127.0.0.1:8000/readyz reports whether a credential is cached\n")
	content.WriteString("\n")
}
