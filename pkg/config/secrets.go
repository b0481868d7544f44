package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

type secretSource interface {
	Access(ctx context.Context, name string) (string, error)
	Close() error
}

var newSecretSource = func(ctx context.Context, project string) (secretSource, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}
	return &gcpSecrets{client: client, project: project}, nil
}

type gcpSecrets struct {
	client  *secretmanager.Client
	project string
}

func (s *gcpSecrets) Access(ctx context.Context, name string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name),
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret %s: %w", name, err)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func (s *gcpSecrets) Close() error {
	return s.client.Close()
}

// resolveSecrets fills credentials the environment left empty from Secret
// Manager. Lookup failures are logged; the caller reports what is missing.
func resolveSecrets(ctx context.Context, cfg *Config) {
	targets := map[string]*string{}
	if cfg.YouTubeClientSecret == "" {
		targets[youtubeSecretName] = &cfg.YouTubeClientSecret
	}
	if cfg.TelegramBotToken == "" {
		targets[telegramSecretName] = &cfg.TelegramBotToken
	}
	if len(targets) == 0 {
		return
	}

	source, err := newSecretSource(ctx, cfg.GCPProject)
	if err != nil {
		slog.Warn("Secret Manager unavailable", "error", err)
		return
	}
	defer func() { _ = source.Close() }()

	for name, dst := range targets {
		value, err := source.Access(ctx, name)
		if err != nil {
			slog.Debug("Secret not resolved", "secret", name, "error", err)
			continue
		}
		*dst = value
	}
}
