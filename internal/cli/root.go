package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Storefront cart, checkout and tracking services",
	Long: `Storefront runs the shop's server-side components:

The serve command starts the cart/checkout REST API backed by MongoDB
and Redis, with discount validation and order submission against the
shop backend and an embedded analytics batcher.

The collect command starts the tracking collector that receives event
batches, stores them in Postgres and fans them out over Kafka.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.SugaredLogger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}
