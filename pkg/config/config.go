package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath    = "config.yaml"
	defaultDownloadsDir  = "./downloads"
	defaultTokenPath     = "./youtube_token.json"
	defaultSecretsFile   = "client_secrets.json"
	defaultYtDlpPath     = "yt-dlp"
	defaultFFmpegPath    = "ffmpeg"
	defaultPrivacyStatus = "private"
	defaultCategoryID    = "22"
	defaultTitleTemplate = "Short {number}"
	defaultFormat        = "best"
	defaultUserAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	defaultTikTokHost    = "api16-normal-c-useast1a.tiktokv.com"
	defaultTikTokVersion = "1.0.0"

	youtubeSecretName  = "youtube-client-secret"
	telegramSecretName = "telegram-bot-token"
)

type Config struct {
	YouTubeClientID          string
	YouTubeClientSecret      string
	YouTubeTokenPath         string
	YouTubeClientSecretsFile string
	GCPProject               string
	GCSBucket                string
	TelegramBotToken         string
	TelegramChatID           int64

	Paths     PathsConfig                `yaml:"paths"`
	Tools     ToolsConfig                `yaml:"tools"`
	YouTube   YouTubeConfig              `yaml:"youtube"`
	Telegram  TelegramConfig             `yaml:"telegram"`
	Platforms map[string]PlatformProfile `yaml:"platforms"`
}

type PathsConfig struct {
	DownloadsDir string `yaml:"downloads_dir"`
}

type ToolsConfig struct {
	YtDlpPath  string `yaml:"ytdlp_path"`
	FFmpegPath string `yaml:"ffmpeg_path"`
}

type YouTubeConfig struct {
	DefaultTags   []string `yaml:"default_tags"`
	CategoryID    string   `yaml:"category_id"`
	PrivacyStatus string   `yaml:"privacy_status"`
	TitleTemplate string   `yaml:"title_template"`
}

type TelegramConfig struct {
	Enabled bool `yaml:"enabled"`
	// NotifyLevels are activity levels to forward: info, warning, error, success.
	NotifyLevels []string `yaml:"notify_levels"`
}

// PlatformProfile controls how yt-dlp fetches from one platform.
type PlatformProfile struct {
	Format        string            `yaml:"format"`
	Headers       map[string]string `yaml:"headers"`
	Extractor     string            `yaml:"extractor"`
	ExtractorArgs map[string]string `yaml:"extractor_args"`
	FlatExtract   bool              `yaml:"flat_extract"`
}

func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		YouTubeClientID:          os.Getenv("YOUTUBE_CLIENT_ID"),
		YouTubeClientSecret:      os.Getenv("YOUTUBE_CLIENT_SECRET"),
		YouTubeTokenPath:         getEnvOrDefault("YOUTUBE_TOKEN_PATH", defaultTokenPath),
		YouTubeClientSecretsFile: getEnvOrDefault("YOUTUBE_CLIENT_SECRETS_FILE", defaultSecretsFile),
		GCPProject:               os.Getenv("GOOGLE_CLOUD_PROJECT"),
		GCSBucket:                os.Getenv("GCS_BUCKET"),
		TelegramBotToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
	}

	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if err := loadYAMLConfig(cfg, defaultConfigPath); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if cfg.GCPProject != "" {
		resolveSecrets(ctx, cfg)
	}

	return cfg, nil
}

func loadYAMLConfig(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("No config.yaml found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	applyPathsDefaults(cfg)
	applyToolsDefaults(cfg)
	applyYouTubeDefaults(cfg)
	applyTelegramDefaults(cfg)
	applyPlatformDefaults(cfg)
}

func applyPathsDefaults(cfg *Config) {
	if cfg.Paths.DownloadsDir == "" {
		cfg.Paths.DownloadsDir = defaultDownloadsDir
	}
}

func applyToolsDefaults(cfg *Config) {
	if cfg.Tools.YtDlpPath == "" {
		cfg.Tools.YtDlpPath = defaultYtDlpPath
	}
	if cfg.Tools.FFmpegPath == "" {
		cfg.Tools.FFmpegPath = defaultFFmpegPath
	}
}

func applyYouTubeDefaults(cfg *Config) {
	if len(cfg.YouTube.DefaultTags) == 0 {
		cfg.YouTube.DefaultTags = []string{"Short"}
	}
	if cfg.YouTube.CategoryID == "" {
		cfg.YouTube.CategoryID = defaultCategoryID
	}
	if cfg.YouTube.PrivacyStatus == "" {
		cfg.YouTube.PrivacyStatus = defaultPrivacyStatus
	}
	if cfg.YouTube.TitleTemplate == "" {
		cfg.YouTube.TitleTemplate = defaultTitleTemplate
	}
}

func applyTelegramDefaults(cfg *Config) {
	if len(cfg.Telegram.NotifyLevels) == 0 {
		cfg.Telegram.NotifyLevels = []string{"error", "success"}
	}
}

// applyPlatformDefaults fills in any platform the YAML did not mention and
// any field a mentioned platform left empty.
func applyPlatformDefaults(cfg *Config) {
	if cfg.Platforms == nil {
		cfg.Platforms = make(map[string]PlatformProfile)
	}

	for name, def := range DefaultPlatforms() {
		profile, ok := cfg.Platforms[name]
		if !ok {
			cfg.Platforms[name] = def
			continue
		}
		if profile.Format == "" {
			profile.Format = def.Format
		}
		if profile.Headers == nil {
			profile.Headers = def.Headers
		}
		if profile.Extractor == "" && profile.ExtractorArgs == nil {
			profile.Extractor = def.Extractor
			profile.ExtractorArgs = def.ExtractorArgs
		}
		cfg.Platforms[name] = profile
	}
}

// DefaultPlatforms returns the built-in yt-dlp profiles: a desktop browser
// header bundle everywhere, TikTok's mobile API host, and flat extraction for
// Instagram and Facebook.
func DefaultPlatforms() map[string]PlatformProfile {
	return map[string]PlatformProfile{
		"instagram": {
			Format:      defaultFormat,
			Headers:     browserHeaders(),
			FlatExtract: true,
		},
		"facebook": {
			Format:      defaultFormat,
			Headers:     browserHeaders(),
			FlatExtract: true,
		},
		"tiktok": {
			Format:    defaultFormat,
			Headers:   browserHeaders(),
			Extractor: "tiktok",
			ExtractorArgs: map[string]string{
				"api_hostname":         defaultTikTokHost,
				"app_version":          defaultTikTokVersion,
				"manifest_app_version": defaultTikTokVersion,
			},
		},
	}
}

func browserHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
		"Accept-Encoding": "gzip, deflate",
		"DNT":             "1",
		"Connection":      "keep-alive",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
