package cmd

import (
	"fmt"

	"reposter/internal/storage"
	"reposter/pkg/config"

	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove leftover working files",
	Long:  `Delete videos left in the downloads directory by interrupted uploads.`,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	local := storage.NewLocalStorage(cfg.Paths.DownloadsDir)
	count, err := local.Clean()
	if err != nil {
		return err
	}

	fmt.Printf("Removed %d file(s) from %s\n", count, local.Dir())
	return nil
}
