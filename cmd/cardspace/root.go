package main

import (
	"fmt"

	"github.com/spf13/cobra"

	apihttp "github.com/GriffinCanCode/cardspace/internal/api/http"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/config"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/logging"
)

var (
	version = apihttp.Version
	commit  = "unknown"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "cardspace",
		Short: "Card workspace layout service",
		Long: `cardspace keeps a desktop-like workspace of cards per user device:
geometry, layout modes, focus, drag reordering, the mobile carousel,
and cross-device sync of the resulting layout.

Quick Start:
  cardspace serve                          # Run the HTTP/WebSocket service
  cardspace catalog --file catalog.yaml    # Print the effective card catalog
  cardspace record get --user alice        # Show a stored layout record`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(newServeCmd(), newCatalogCmd(), newRecordCmd())
	return root
}

// loadConfig reads the environment and builds a logger for CLI commands
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
