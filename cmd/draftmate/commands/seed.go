package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/draftmate/draftmate/internal/logging"
	"github.com/draftmate/draftmate/internal/store"
)

var seedTemplatesPath string

var errNoDBPath = errors.New("db_path is required for seeding (set DRAFTMATE_DB_PATH)")

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed email templates into the configured database",
	Long: `Load templates into the database at db_path. With --templates a
YAML file is loaded; otherwise the built-in template set is seeded.
Existing templates with the same template_id are replaced.`,
	Run: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedTemplatesPath, "templates", "",
		"Path to a templates YAML file (defaults to the built-in set)")
}

func runSeed(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := logging.GetLogger("seed")

	if cfg.DBPath == "" {
		HandleError(errNoDBPath, "Configuration error")
	}

	ctx := context.Background()
	b, err := openBackends(ctx, cfg)
	HandleError(err, "Store initialization error")
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("Failed to close stores: %v", err)
		}
	}()

	var n int
	if seedTemplatesPath != "" {
		n, err = store.LoadTemplatesYAML(ctx, b.Templates, seedTemplatesPath)
		HandleError(err, "Template load error")
		logger.Info("Loaded %d templates from %s into %s", n, seedTemplatesPath, cfg.DBPath)
	} else {
		n, err = store.SeedDefaults(ctx, b.Templates)
		HandleError(err, "Template seeding error")
		logger.Info("Seeded %d built-in templates into %s", n, cfg.DBPath)
	}
}
