// Package cmd is the realtor-extractor command line.
package cmd

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"realtor-extractor/config"
	"realtor-extractor/utils"
)

var (
	cfg    *config.Config
	logger utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "realtor-extractor",
	Short: "Extract agent profiles from rendered realtor pages",
	Long: "Renders agent profile pages in headless Chrome, extracts identity, contact, office, bio, " +
		"listings, photos and reviews, and stores the canonical record.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, found := config.Load()
		cfg = c

		l, err := utils.NewLogger(cfg.LogLevel)
		if err != nil {
			return eris.Wrap(err, "init logger")
		}
		logger = l
		if !found {
			logger.Debug("no .env file found, using environment")
		}
		logger.Debug("config loaded",
			zap.String("store_driver", cfg.StoreDriver),
			zap.Bool("headless", cfg.Headless),
		)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
