package cmd

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"realtor-extractor/browser"
	"realtor-extractor/config"
	"realtor-extractor/models"
	"realtor-extractor/scraper/realtor"
	"realtor-extractor/services"
	"realtor-extractor/storage"
)

// Duplicate policies for --on-duplicate.
const (
	OnDuplicateSkip   = "skip"
	OnDuplicateSubmit = "submit"
)

var (
	submitFlag      bool
	onDuplicateFlag string
	csvPathFlag     string
	jsonFlag        bool
)

var extractCmd = &cobra.Command{
	Use:   "extract URL...",
	Short: "Extract one or more agent profiles",
	Args:  cobra.MinimumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if onDuplicateFlag != OnDuplicateSkip && onDuplicateFlag != OnDuplicateSubmit {
			return eris.Errorf("--on-duplicate must be %q or %q", OnDuplicateSkip, OnDuplicateSubmit)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(ctx, cfg, logger)
		if err != nil {
			return eris.Wrap(err, "open store")
		}
		if store != nil {
			defer store.Close()
		}

		csvPath := csvPathFlag
		if csvPath == "" {
			csvPath = cfg.CSVOutputPath
		}
		csvWriter, err := storage.NewCSVWriter(csvPath)
		if err != nil {
			return err
		}
		defer csvWriter.Close()

		b, err := browser.Launch(browser.Options{
			ChromeBin:         cfg.ChromeBin,
			Headless:          cfg.Headless,
			NavigationTimeout: cfg.NavigationTimeout,
		}, logger)
		if err != nil {
			return err
		}
		defer b.Close()

		var checker storage.DuplicateChecker
		if store != nil {
			checker = store
		}
		pipeline := realtor.New(config.DefaultBudgets(), checker, logger)
		summary := services.NewSummaryService(logger)

		var failed int
		for _, url := range args {
			if ctx.Err() != nil {
				break
			}
			res, err := extractOne(ctx, b, pipeline, url)
			if err != nil {
				logger.Error("[extract] page failed", zap.String("url", url), zap.Error(err))
				failed++
				continue
			}

			summary.Print(cmd.OutOrStdout(), summary.Generate(res))
			if jsonFlag {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Profile); err != nil {
					return eris.Wrap(err, "encode profile")
				}
			}
			if err := csvWriter.Write([]*models.AgentProfile{res.Profile}); err != nil {
				logger.Error("[extract] csv write failed", zap.Error(err))
			}

			if ok, reason := shouldSubmit(res, store != nil && submitFlag, onDuplicateFlag); !ok {
				logger.Info("[extract] not submitted", zap.String("url", url), zap.String("reason", reason))
				continue
			}
			if _, err := store.Submit(ctx, res.Profile); err != nil {
				logger.Error("[extract] submit failed", zap.String("url", url), zap.Error(err))
				failed++
			}
		}

		logger.Info("[extract] done",
			zap.Int("urls", len(args)),
			zap.Int("failed", failed),
			zap.String("csv", csvPath),
		)
		if failed == len(args) {
			return eris.New("every page failed")
		}
		return nil
	},
}

func init() {
	extractCmd.Flags().BoolVar(&submitFlag, "submit", false, "persist each profile through the configured store")
	extractCmd.Flags().StringVar(&onDuplicateFlag, "on-duplicate", OnDuplicateSkip, "what to do with a profile already stored: skip|submit")
	extractCmd.Flags().StringVar(&csvPathFlag, "csv", "", "CRM CSV output path (default CSV_OUTPUT_PATH)")
	extractCmd.Flags().BoolVar(&jsonFlag, "json", false, "print each canonical profile as JSON")
	rootCmd.AddCommand(extractCmd)
}

func extractOne(ctx context.Context, b *browser.Browser, pipeline *realtor.Pipeline, url string) (*models.ExtractionResult, error) {
	tab, err := b.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer tab.Close()

	return pipeline.Run(ctx, models.ExtractionTarget{Page: tab, SourceURL: url}), nil
}

// shouldSubmit applies the duplicate policy to a finished run.
func shouldSubmit(res *models.ExtractionResult, submit bool, onDuplicate string) (bool, string) {
	switch {
	case !submit:
		return false, "submission disabled"
	case res.Profile == nil:
		return false, "no profile"
	case res.Profile.Name == nil:
		return false, "no agent name"
	case res.Duplicate.IsDuplicate && onDuplicate != OnDuplicateSubmit:
		return false, "duplicate"
	}
	return true, ""
}
