// Package cli provides the homeradar command line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/homeradar/internal/core/ports/driving"
	"github.com/custodia-labs/homeradar/internal/logger"
)

// version is set at build time with -ldflags.
var version = "dev"

var verbose bool

// Services wired by main.
var (
	ingestor        driving.Ingestor
	detailExtractor driving.DetailExtractor
	postService     driving.PostService
	settingsService driving.SettingsService

	// watchConfig follows config and prompt edits until ctx is done.
	// Nil when hot reload is unavailable.
	watchConfig func(ctx context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "homeradar",
	Short: "Classify and extract real-estate listings from social posts",
	Long: `homeradar turns captured social-feed posts into structured listing records.

Posts are deduplicated by url, screened with broker and blacklist keywords,
classified by an LLM, and mined for price, city, location, rooms and phone.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

// Services bundles what the commands need.
type Services struct {
	Ingestor    driving.Ingestor
	Extractor   driving.DetailExtractor
	Posts       driving.PostService
	Settings    driving.SettingsService
	WatchConfig func(ctx context.Context) error
}

// Execute runs the root command with the given services.
func Execute(ctx context.Context, svc Services) error {
	ingestor = svc.Ingestor
	detailExtractor = svc.Extractor
	postService = svc.Posts
	settingsService = svc.Settings
	watchConfig = svc.WatchConfig
	return rootCmd.ExecuteContext(ctx)
}
