package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alrouf-labs/marjaa-cli/internal/adapters/driving/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the quotation HTTP API",
	Long: `Starts the quotation HTTP service.

Endpoints:
  POST /quote   - price a quotation request
  GET  /health  - health check
  GET  /        - service info

Configuration is read from the environment (MARJAA_API_* variables,
optionally via a .env file).`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides MARJAA_API_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if quoteService == nil {
		return errors.New("quote service not configured")
	}

	cfg, err := api.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load API config: %w", err)
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}

	srv := api.New(cfg, quoteService)
	cmd.Printf("Quotation API listening on %s\n", cfg.Addr)
	return srv.Listen(cfg.Addr)
}
