package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"reposter/internal/activity"
	"reposter/internal/app"
	"reposter/internal/app/model"
	"reposter/internal/storage"
	"reposter/pkg/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	uploadPlatform    string
	uploadPrivacy     string
	uploadTitle       string
	uploadDescription string
	uploadFromFile    string
	uploadInteractive bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [url-or-path...]",
	Short: "Upload a batch of videos to YouTube Shorts",
	Long: `Queue one upload job per source and process them in order. Sources are
post URLs for instagram, facebook and tiktok, file paths for local, and
gs://bucket/object URIs for gcs. A gs:// URI ending in "/" expands to every
video below that prefix.

Without sources, or with --interactive, a form asks for the batch.`,
	Example: `  reposter upload --platform tiktok https://www.tiktok.com/@user/video/123
  reposter upload --platform local --privacy public clip1.mp4 clip2.mov
  reposter upload --platform instagram --from-file urls.txt --title "Reel {number}"
  reposter upload -i`,
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadPlatform, "platform", "p", "", "Source platform: instagram, facebook, tiktok, local, gcs")
	uploadCmd.Flags().StringVar(&uploadPrivacy, "privacy", "", "YouTube visibility: private or public (default from config)")
	uploadCmd.Flags().StringVarP(&uploadTitle, "title", "t", "", `Title template, "{number}" is the 1-based position and "{title}" the source title`)
	uploadCmd.Flags().StringVarP(&uploadDescription, "description", "d", "", "Description shared by every upload")
	uploadCmd.Flags().StringVarP(&uploadFromFile, "from-file", "f", "", "Read sources from a file, one per line")
	uploadCmd.Flags().BoolVarP(&uploadInteractive, "interactive", "i", false, "Fill in the batch with a form")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	sources := append([]string(nil), args...)
	if uploadFromFile != "" {
		fromFile, err := readSources(uploadFromFile)
		if err != nil {
			return err
		}
		sources = append(sources, fromFile...)
	}

	batch := model.Batch{
		Sources:       sources,
		TitleTemplate: firstNonEmpty(uploadTitle, cfg.YouTube.TitleTemplate),
		Description:   uploadDescription,
		Visibility:    model.Visibility(firstNonEmpty(uploadPrivacy, cfg.YouTube.PrivacyStatus)),
	}
	if uploadPlatform != "" {
		platform, err := model.ParsePlatform(uploadPlatform)
		if err != nil {
			return err
		}
		batch.Platform = platform
	}

	if uploadInteractive || len(batch.Sources) == 0 {
		if err := runUploadForm(&batch); err != nil {
			return err
		}
	}

	if batch.Platform == model.PlatformGCS {
		expanded, err := expandObjectPrefixes(ctx, cfg, batch.Sources)
		if err != nil {
			return err
		}
		batch.Sources = expanded
	}

	return runBatch(ctx, cfg, batch)
}

// runBatch submits the batch and blocks until the worker reports completion.
func runBatch(ctx context.Context, cfg *config.Config, batch model.Batch) error {
	done := make(chan struct{}, 1)
	result, err := app.BuildService(ctx, cfg, app.BuildOptions{
		Sinks: []activity.Sink{activity.NewTerminal(os.Stdout)},
		WorkerOptions: []app.WorkerOption{
			app.WithCompletionHook(func() {
				select {
				case done <- struct{}{}:
				default:
				}
			}),
		},
		EnableObjects: batch.Platform == model.PlatformGCS,
	})
	if err != nil {
		return err
	}
	defer result.Close()

	workerCtx, stopWorker := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		result.Worker.Run(workerCtx)
	}()
	defer func() {
		stopWorker()
		wg.Wait()
	}()

	queued, err := result.Controller.Submit(batch)
	if err != nil {
		if errors.Is(err, app.ErrNotAuthenticated) {
			fmt.Println(authInfoStyle.Render("  Run: reposter auth youtube"))
		}
		return err
	}

	if err := waitForCompletion(ctx, done); err != nil {
		return err
	}

	if failed := result.Log.Count(activity.LevelError); failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, queued)
	}
	return nil
}

// waitForCompletion returns when the worker signals done or ctx ends, since a
// cancelled worker may stop before it ever starts the drain.
func waitForCompletion(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func runUploadForm(batch *model.Batch) error {
	platform := string(batch.Platform)
	if platform == "" {
		platform = string(model.PlatformTikTok)
	}
	visibility := string(batch.Visibility)
	rawSources := strings.Join(batch.Sources, "\n")

	platformOptions := make([]huh.Option[string], 0, len(model.Platforms))
	for _, p := range model.Platforms {
		platformOptions = append(platformOptions, huh.NewOption(p.Label(), string(p)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Source platform").
				Options(platformOptions...).
				Value(&platform),
			huh.NewText().
				Title("Sources").
				Description("One URL, file path or gs:// URI per line").
				Value(&rawSources).
				Validate(func(s string) error {
					if len(splitSources(s)) == 0 {
						return fmt.Errorf("at least one source is required")
					}
					return nil
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Title template").
				Description(`"{number}" is replaced with 1, 2, 3... and "{title}" with the source title`).
				Value(&batch.TitleTemplate),
			huh.NewText().
				Title("Description").
				Value(&batch.Description),
			huh.NewSelect[string]().
				Title("Visibility").
				Options(
					huh.NewOption("Private", string(model.VisibilityPrivate)),
					huh.NewOption("Public", string(model.VisibilityPublic)),
				).
				Value(&visibility),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	batch.Platform = model.Platform(platform)
	batch.Sources = splitSources(rawSources)
	batch.Visibility = model.Visibility(visibility)
	return nil
}

// expandObjectPrefixes replaces every gs:// URI ending in "/" with the videos
// stored under it.
func expandObjectPrefixes(ctx context.Context, cfg *config.Config, sources []string) ([]string, error) {
	var prefixes int
	for _, s := range sources {
		if strings.HasSuffix(s, "/") {
			prefixes++
		}
	}
	if prefixes == 0 {
		return sources, nil
	}

	gcs, err := storage.NewGCSStorage(ctx, cfg.GCSBucket, cfg.Paths.DownloadsDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = gcs.Close() }()

	var expanded []string
	for _, s := range sources {
		if !strings.HasSuffix(s, "/") {
			expanded = append(expanded, s)
			continue
		}
		objects, err := gcs.List(ctx, s)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %s: %w", s, err)
		}
		if len(objects) == 0 {
			fmt.Println(warnStyle.Render("No videos under " + s))
		}
		expanded = append(expanded, objects...)
	}
	return expanded, nil
}

func readSources(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source list: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sources []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sources = append(sources, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source list: %w", err)
	}
	return sources, nil
}

func splitSources(raw string) []string {
	var sources []string
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sources = append(sources, line)
		}
	}
	return sources
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
