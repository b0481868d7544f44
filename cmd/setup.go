package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"reposter/internal/storage"
	"reposter/internal/telegram"
	"reposter/pkg/cmdutil"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

const (
	youtubeTokenPath    = "./youtube_token.json"
	defaultDownloadsDir = "./downloads"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")).MarginBottom(1)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for Reposter",
	Long:  `Check yt-dlp and ffmpeg, create the downloads directory and write the .env file.`,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	fmt.Println(titleStyle.Render("🎬 Reposter Setup"))

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Checking tools", checkTools},
		{"Creating directories", createDirectories},
		{"Configuring environment", configureEnv},
	}

	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return nil
}

func checkTools(ctx context.Context) error {
	for _, tool := range []string{"yt-dlp", "ffmpeg"} {
		if cmdutil.Exists(tool) {
			fmt.Println(successStyle.Render("✓ Found " + tool))
			continue
		}

		if runtime.GOOS != "darwin" || !cmdutil.Exists("brew") {
			fmt.Println(warnStyle.Render(fmt.Sprintf("%s not found - install it and make sure it is on PATH", tool)))
			continue
		}

		var install bool
		if err := huh.NewConfirm().
			Title(tool + " not found").
			Description("Install it with Homebrew?").
			Affirmative("Yes").
			Negative("No").
			Value(&install).
			Run(); err != nil {
			return err
		}
		if !install {
			fmt.Println(warnStyle.Render(tool + " is required for uploads"))
			continue
		}

		if err := runWithSpinner("Installing "+tool, func() error {
			return runSetupCmd(ctx, "brew", "install", tool)
		}); err != nil {
			return err
		}
	}
	return nil
}

func createDirectories(context.Context) error {
	if err := storage.NewLocalStorage(defaultDownloadsDir).EnsureDirectories(); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ Created directories"))
	return nil
}

func configureEnv(ctx context.Context) error {
	if _, err := os.Stat(".env"); err == nil {
		var overwrite bool
		if err := huh.NewConfirm().
			Title("Found existing .env file").
			Description("Overwrite?").
			Value(&overwrite).
			Run(); err != nil {
			return err
		}
		if !overwrite {
			fmt.Println(infoStyle.Render("Kept existing .env"))
			return nil
		}
	}

	env := make(map[string]string)

	if err := configureGCP(ctx, env); err != nil {
		return err
	}

	if err := setupYouTubeOAuth(ctx, env); err != nil {
		return err
	}

	if err := configureTelegram(ctx, env); err != nil {
		return err
	}

	return writeEnvFile(env)
}

func configureGCP(ctx context.Context, env map[string]string) error {
	var setupGCP bool
	if err := huh.NewConfirm().
		Title("Setup Google Cloud?").
		Description("Optional: Secret Manager for credentials, Cloud Storage as a video source").
		Value(&setupGCP).
		Run(); err != nil {
		return err
	}

	if !setupGCP {
		return nil
	}

	if !cmdutil.Exists("gcloud") {
		fmt.Println(warnStyle.Render("gcloud CLI not found - install from https://cloud.google.com/sdk/docs/install"))
		return nil
	}

	project, err := getOrCreateGCPProject(ctx)
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("GCP setup skipped: %v", err)))
		return nil
	}

	env["GOOGLE_CLOUD_PROJECT"] = project

	if err := enableGCPAPIs(ctx, project); err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("API enablement failed: %v", err)))
	}

	var bucket string
	if err := huh.NewInput().
		Title("Default Cloud Storage bucket").
		Description("Used for gs:// sources given without a bucket (optional)").
		Value(&bucket).
		Run(); err != nil {
		return err
	}
	if bucket = strings.TrimSpace(strings.TrimPrefix(bucket, "gs://")); bucket != "" {
		env["GCS_BUCKET"] = bucket
	}

	return nil
}

func getOrCreateGCPProject(ctx context.Context) (string, error) {
	existing := getActiveProject(ctx)

	var choice string
	options := []huh.Option[string]{
		huh.NewOption("Create new project", "new"),
	}

	if existing != "" {
		options = append([]huh.Option[string]{
			huh.NewOption(fmt.Sprintf("Use current: %s", existing), existing),
		}, options...)
	}

	options = append(options, huh.NewOption("Enter project ID manually", "manual"))

	if err := huh.NewSelect[string]().
		Title("Google Cloud Project").
		Options(options...).
		Value(&choice).
		Run(); err != nil {
		return "", err
	}

	switch choice {
	case "new":
		return createGCPProject(ctx)
	case "manual":
		var projectID string
		if err := huh.NewInput().
			Title("Project ID").
			Value(&projectID).
			Run(); err != nil {
			return "", err
		}
		return projectID, nil
	default:
		return choice, nil
	}
}

func getActiveProject(ctx context.Context) string {
	out, err := cmdutil.Run(ctx, "gcloud", "config", "get-value", "project")
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func createGCPProject(ctx context.Context) (string, error) {
	var projectID string
	if err := huh.NewInput().
		Title("New Project ID").
		Description("Must be globally unique, 6-30 chars, lowercase letters, digits, hyphens").
		Placeholder("reposter-12345").
		Value(&projectID).
		Validate(func(s string) error {
			if len(s) < 6 || len(s) > 30 {
				return fmt.Errorf("must be 6-30 characters")
			}
			return nil
		}).
		Run(); err != nil {
		return "", err
	}

	err := runWithSpinner("Creating project", func() error {
		return runSetupCmd(ctx, "gcloud", "projects", "create", projectID)
	})
	if err != nil {
		return "", err
	}

	_ = runSetupCmd(ctx, "gcloud", "config", "set", "project", projectID)

	return projectID, nil
}

func enableGCPAPIs(ctx context.Context, project string) error {
	apis := []string{
		"youtube.googleapis.com",
		"secretmanager.googleapis.com",
		"storage.googleapis.com",
	}

	return runWithSpinner("Enabling APIs", func() error {
		args := append([]string{"services", "enable"}, apis...)
		args = append(args, "--project", project)
		return runSetupCmd(ctx, "gcloud", args...)
	})
}

func setupYouTubeOAuth(ctx context.Context, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup YouTube OAuth?").
		Description("Required for uploading videos to YouTube").
		Value(&setup).
		Run(); err != nil || !setup {
		return err
	}

	fmt.Println(infoStyle.Render(`
To create OAuth credentials:
1. Go to https://console.cloud.google.com/apis/credentials
2. Click "Create Credentials" → "OAuth client ID"
3. Choose "Desktop app" as application type
4. Copy the Client ID and Client Secret, or download client_secrets.json
   into this directory and leave both fields empty
`))

	var clientID, clientSecret string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("YouTube Client ID").
				Value(&clientID),
			huh.NewInput().
				Title("YouTube Client Secret").
				EchoMode(huh.EchoModePassword).
				Value(&clientSecret),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	clientID = strings.TrimSpace(clientID)
	clientSecret = strings.TrimSpace(clientSecret)

	if clientID != "" {
		env["YOUTUBE_CLIENT_ID"] = clientID
	}
	if clientSecret != "" {
		env["YOUTUBE_CLIENT_SECRET"] = clientSecret
	}

	if clientID != "" && clientSecret != "" {
		var authenticate bool
		if err := huh.NewConfirm().
			Title("Authenticate with YouTube now?").
			Description("Opens browser to complete OAuth flow").
			Value(&authenticate).
			Run(); err != nil {
			return err
		}

		if authenticate {
			if err := runYouTubeOAuthFlow(ctx, clientID, clientSecret); err != nil {
				fmt.Println(warnStyle.Render(fmt.Sprintf("OAuth flow failed: %v", err)))
				fmt.Println(infoStyle.Render("You can retry later with: reposter auth youtube"))
			}
		}
	}

	return nil
}

func configureTelegram(ctx context.Context, env map[string]string) error {
	var setup bool
	if err := huh.NewConfirm().
		Title("Setup Telegram notifications?").
		Description("Sends failed and finished uploads to a chat (optional)").
		Value(&setup).
		Run(); err != nil {
		return err
	}

	if !setup {
		return nil
	}

	var token string
	if err := huh.NewInput().
		Title("Telegram Bot Token").
		Description("Get from @BotFather → https://t.me/BotFather").
		Value(&token).
		Run(); err != nil {
		return err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	env["TELEGRAM_BOT_TOKEN"] = token

	fmt.Println(infoStyle.Render("Send any message to your bot, then continue."))
	var ready bool
	if err := huh.NewConfirm().
		Title("Message sent?").
		Value(&ready).
		Run(); err != nil || !ready {
		return err
	}

	var (
		chatID   int64
		chatName string
	)
	err := runWithSpinner("Detecting chat", func() error {
		var err error
		chatID, chatName, err = telegram.NewClient(token).GetChatID(ctx)
		return err
	})
	if err != nil {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Chat detection failed: %v", err)))
		fmt.Println(infoStyle.Render("Set TELEGRAM_CHAT_ID in .env manually"))
		return nil
	}

	env["TELEGRAM_CHAT_ID"] = strconv.FormatInt(chatID, 10)
	fmt.Println(successStyle.Render(fmt.Sprintf("✓ Notifications go to %s", chatName)))
	return nil
}

func writeEnvFile(env map[string]string) error {
	f, err := os.Create(".env")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	order := []string{
		"GOOGLE_CLOUD_PROJECT",
		"GCS_BUCKET",
		"YOUTUBE_CLIENT_ID",
		"YOUTUBE_CLIENT_SECRET",
		"TELEGRAM_BOT_TOKEN",
		"TELEGRAM_CHAT_ID",
	}

	for _, key := range order {
		if val, ok := env[key]; ok && val != "" {
			_, _ = fmt.Fprintf(f, "%s=%s\n", key, val)
		}
	}

	fmt.Println(successStyle.Render("✓ Created .env file"))
	printNextSteps()
	return nil
}

func printNextSteps() {
	fmt.Println()
	fmt.Println(titleStyle.Render("Next steps:"))
	fmt.Println("  1. Check everything: reposter auth status")
	fmt.Println("  2. Log in if needed: reposter auth youtube")
	fmt.Println("  3. Run: reposter upload --platform tiktok <url>")
}

func runSetupCmd(ctx context.Context, name string, args ...string) error {
	_, err := cmdutil.Run(ctx, name, args...)
	return err
}

func runWithSpinner(title string, fn func() error) error {
	var err error
	_ = spinner.New().
		Title(title).
		Action(func() { err = fn() }).
		Run()
	if err != nil {
		return err
	}
	fmt.Println(successStyle.Render("✓ " + title))
	return nil
}
