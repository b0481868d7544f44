package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"reposter/internal/activity"
	"reposter/internal/app/model"
	"reposter/internal/distribution/youtube"
	"reposter/internal/fetch"
	"reposter/internal/queue"
	"reposter/internal/scrub"
	"reposter/internal/storage"
	"reposter/internal/telegram"
	"reposter/pkg/config"
)

var ErrNoCredentials = errors.New("YouTube credentials missing: set YOUTUBE_CLIENT_ID and YOUTUBE_CLIENT_SECRET or provide client_secrets.json")

type BuildOptions struct {
	Sinks         []activity.Sink
	WorkerOptions []WorkerOption
	// EnableObjects forces a Cloud Storage client even without GCS_BUCKET.
	EnableObjects bool
}

type BuildResult struct {
	Log        *activity.Log
	Controller *Controller
	Worker     *Worker
	Storage    *storage.LocalStorage
	Auth       *youtube.Auth

	closers []func()
}

// Close releases clients and flushes notifications. Call it after the worker
// has stopped.
func (r *BuildResult) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// BuildAuth prefers explicit client credentials and falls back to the client
// secrets file.
func BuildAuth(cfg *config.Config) (*youtube.Auth, error) {
	if cfg.YouTubeClientID != "" && cfg.YouTubeClientSecret != "" {
		return youtube.NewAuth(cfg.YouTubeClientID, cfg.YouTubeClientSecret, cfg.YouTubeTokenPath), nil
	}

	if cfg.YouTubeClientSecretsFile != "" {
		if _, err := os.Stat(cfg.YouTubeClientSecretsFile); err == nil {
			return youtube.NewAuthFromSecretsFile(cfg.YouTubeClientSecretsFile, cfg.YouTubeTokenPath)
		}
	}

	return nil, ErrNoCredentials
}

func BuildService(ctx context.Context, cfg *config.Config, opts BuildOptions) (*BuildResult, error) {
	log := activity.NewLog(opts.Sinks...)
	result := &BuildResult{Log: log}

	localStorage := storage.NewLocalStorage(cfg.Paths.DownloadsDir)
	if err := localStorage.EnsureDirectories(); err != nil {
		return nil, err
	}
	result.Storage = localStorage

	var (
		authenticator Authenticator
		publisher     Publisher
	)
	auth, err := BuildAuth(cfg)
	if err != nil {
		slog.Warn("YouTube uploads disabled", "error", err)
	} else {
		result.Auth = auth
		authenticator = auth
		publisher = youtube.NewClient(auth, cfg.YouTube.DefaultTags, cfg.YouTube.CategoryID)
	}

	var objects fetch.Fetcher
	if cfg.GCSBucket != "" || opts.EnableObjects {
		gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Paths.DownloadsDir)
		if err != nil {
			slog.Warn("Cloud Storage sources disabled", "error", err)
		} else {
			objects = gcs
			result.closers = append(result.closers, func() { _ = gcs.Close() })
		}
	}

	notifier, err := buildNotifier(cfg)
	if err != nil {
		return nil, err
	}
	if notifier != nil {
		log.AddSink(notifier)
		notifier.Start(ctx)
		result.closers = append(result.closers, notifier.Close)
	}

	service := NewService(ServiceOptions{
		Fetcher:   fetch.NewYtDlp(cfg.Tools.YtDlpPath, cfg.Paths.DownloadsDir),
		Objects:   objects,
		Scrubber:  scrub.NewFFmpeg(cfg.Tools.FFmpegPath),
		Publisher: publisher,
		Files:     localStorage,
		Profiles:  Profiles(cfg),
		Log:       log,
	})

	result.Worker = NewWorker(service, queue.New(), log, opts.WorkerOptions...)
	result.Controller = NewController(authenticator, result.Worker, log)

	return result, nil
}

func buildNotifier(cfg *config.Config) (*telegram.Notifier, error) {
	if !cfg.Telegram.Enabled {
		return nil, nil
	}
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		slog.Warn("Telegram notifications enabled but TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID is missing")
		return nil, nil
	}

	levels := make([]activity.Level, 0, len(cfg.Telegram.NotifyLevels))
	for _, name := range cfg.Telegram.NotifyLevels {
		level, err := activity.ParseLevel(name)
		if err != nil {
			return nil, fmt.Errorf("telegram.notify_levels: %w", err)
		}
		levels = append(levels, level)
	}

	return telegram.NewNotifier(telegram.NewClient(cfg.TelegramBotToken), cfg.TelegramChatID, levels...), nil
}

// Profiles converts the configured yt-dlp profiles for the remote platforms.
func Profiles(cfg *config.Config) map[model.Platform]fetch.Profile {
	profiles := make(map[model.Platform]fetch.Profile, len(cfg.Platforms))
	for name, p := range cfg.Platforms {
		platform, err := model.ParsePlatform(name)
		if err != nil || !platform.IsRemote() {
			slog.Debug("Ignoring profile for unsupported platform", "platform", name)
			continue
		}
		profiles[platform] = fetch.Profile{
			Format:        p.Format,
			Headers:       p.Headers,
			Extractor:     p.Extractor,
			ExtractorArgs: p.ExtractorArgs,
			FlatExtract:   p.FlatExtract,
		}
	}
	return profiles
}
