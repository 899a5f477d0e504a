package cmd

import (
	"context"
	"log/slog"

	"github.com/gaze-network/collectible-ledger/internal/config"
	"github.com/gaze-network/collectible-ledger/pkg/logger"
	"github.com/gaze-network/collectible-ledger/pkg/logger/slogx"
	"github.com/spf13/cobra"
)

var cmd = &cobra.Command{
	Use:  "collectible",
	Long: `Collectible ledger: a fixed-supply collectible registry with escalating claim prices and a peer-to-peer offer book.`,
}

func init() {
	var configFile string

	// Add global flags
	flags := cmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file, E.g.  `./config.yaml`")
	flags.String("datastore", "memory", "datastore to keep the ledger in, E.g. `memory` or `postgres`")

	// Bind flags to configuration
	config.BindPFlag("collectible.datastore", flags.Lookup("datastore"))

	// Initialize configuration and logger on start command
	cobra.OnInitialize(func() {
		// Initialize configuration
		config := config.Parse(configFile)

		// Initialize logger
		if err := logger.Init(config.Logger); err != nil {
			logger.Panic("Failed to initialize logger", slogx.Error(err), slog.Any("config", config.Logger))
		}
	})
}

func Execute(ctx context.Context) {
	// Register sub-commands
	cmd.AddCommand(
		NewRunCommand(),
		NewMigrateCommand(),
		NewVersionCommand(),
		NewPriceCommand(),
	)

	// Execute command
	if err := cmd.ExecuteContext(ctx); err != nil {
		logger.Panic("Failed to execute root command", slogx.Error(err))
	}
}
