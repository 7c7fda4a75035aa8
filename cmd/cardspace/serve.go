package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/cardspace/internal/infrastructure/config"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/logging"
	"github.com/GriffinCanCode/cardspace/internal/infrastructure/server"
)

func newServeCmd() *cobra.Command {
	var (
		port    string
		host    string
		storage string
		dev     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket service",
		Long: `Run the cardspace service. Configuration comes from the environment
(PORT, STORAGE_DRIVER, SAVE_DEBOUNCE, ...); flags override it.

SIGINT and SIGTERM shut down gracefully, flushing every open workspace.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("host") {
				cfg.Server.Host = host
			}
			if cmd.Flags().Changed("storage") {
				cfg.Storage.Driver = storage
			}
			if dev {
				cfg.Logging.Development = true
				cfg.Logging.Level = "debug"
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger, err := logging.New(logging.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.NewServer(ctx, cfg, logger)
			if err != nil {
				logger.Error("Failed to create server", zap.Error(err))
				return err
			}
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8000", "Server port (overrides PORT)")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Bind host (overrides HOST)")
	cmd.Flags().StringVar(&storage, "storage", "memory", "Storage driver: memory, sqlite, redis or remote (overrides STORAGE_DRIVER)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode (colored logs, debug level)")
	return cmd
}
