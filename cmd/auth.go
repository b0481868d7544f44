package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"reposter/internal/app"
	"reposter/internal/distribution/youtube"
	"reposter/pkg/cmdutil"
	"reposter/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	authInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	authSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	authErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authenticate with external services",
	Long:  `Authenticate with YouTube using credentials from .env or client_secrets.json`,
}

var authYouTubeCmd = &cobra.Command{
	Use:   "youtube",
	Short: "Authenticate with YouTube (OAuth)",
	Long:  `Complete the YouTube OAuth consent flow in the browser and save the token.`,
	RunE:  runAuthYouTube,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check authentication and tool status",
	Long:  `Verify which services are configured and which external tools are installed.`,
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authYouTubeCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Println(authInfoStyle.Render("\nService Authentication Status:\n"))

	auth, err := app.BuildAuth(cfg)
	switch {
	case err != nil:
		fmt.Println(authErrorStyle.Render("✗ YouTube: missing YOUTUBE_CLIENT_ID/YOUTUBE_CLIENT_SECRET and " + cfg.YouTubeClientSecretsFile))
	case auth.IsAuthenticated():
		fmt.Println(authSuccessStyle.Render("✓ YouTube: authenticated (token at " + auth.TokenPath() + ")"))
	default:
		fmt.Println(authErrorStyle.Render("✗ YouTube: credentials set, but not authenticated"))
		fmt.Println(authInfoStyle.Render("  Run: reposter auth youtube"))
	}

	if cfg.GCPProject != "" {
		fmt.Println(authSuccessStyle.Render("✓ Google Cloud: project " + cfg.GCPProject + " (Secret Manager enabled)"))
	} else {
		fmt.Println(authInfoStyle.Render("○ Google Cloud: not configured (optional)"))
	}

	if cfg.GCSBucket != "" {
		fmt.Println(authSuccessStyle.Render("✓ Cloud Storage: default bucket " + cfg.GCSBucket))
	} else {
		fmt.Println(authInfoStyle.Render("○ Cloud Storage: no default bucket (optional)"))
	}

	switch {
	case cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0:
		fmt.Println(authSuccessStyle.Render(fmt.Sprintf("✓ Telegram: notifying chat %d", cfg.TelegramChatID)))
	case cfg.TelegramBotToken != "":
		fmt.Println(authErrorStyle.Render("✗ Telegram: bot token set, missing TELEGRAM_CHAT_ID"))
	default:
		fmt.Println(authInfoStyle.Render("○ Telegram: not configured (optional)"))
	}

	for _, tool := range []struct{ name, path string }{
		{"yt-dlp", cfg.Tools.YtDlpPath},
		{"ffmpeg", cfg.Tools.FFmpegPath},
	} {
		if cmdutil.Exists(tool.path) {
			fmt.Println(authSuccessStyle.Render("✓ " + tool.name + ": " + tool.path))
		} else {
			fmt.Println(authErrorStyle.Render("✗ " + tool.name + ": not found at " + tool.path))
		}
	}

	fmt.Println()
	return nil
}

func runAuthYouTube(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	auth, err := app.BuildAuth(cfg)
	if err != nil {
		return err
	}

	return runYouTubeAuth(ctx, auth)
}

func runYouTubeAuth(ctx context.Context, auth *youtube.Auth) error {
	consent := youtube.NewConsent(auth, func(authURL string) {
		fmt.Println(authInfoStyle.Render("\nOpening browser for YouTube authentication..."))
		fmt.Println(authInfoStyle.Render("If browser doesn't open, visit:\n" + authURL))
		fmt.Println(authInfoStyle.Render("\nWaiting for authentication..."))
	})

	if err := consent.Run(ctx); err != nil {
		if errors.Is(err, youtube.ErrConsentTimeout) {
			return fmt.Errorf("authentication timed out")
		}
		return err
	}

	fmt.Println(authSuccessStyle.Render("✓ YouTube authentication complete"))
	fmt.Println(authSuccessStyle.Render("  Token saved to: " + auth.TokenPath()))
	return nil
}

// runYouTubeOAuthFlow authenticates with freshly entered client credentials.
func runYouTubeOAuthFlow(ctx context.Context, clientID, clientSecret string) error {
	tokenPath := os.Getenv("YOUTUBE_TOKEN_PATH")
	if tokenPath == "" {
		tokenPath = youtubeTokenPath
	}
	return runYouTubeAuth(ctx, youtube.NewAuth(clientID, clientSecret, tokenPath))
}
