package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/pricecmp/internal/api"
	"github.com/ppiankov/pricecmp/internal/logging"
)

var (
	servePort    int
	serveAddress string
)

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and web frontend",
	Long: `Serve the JSON API and the static web frontend.

Endpoints:
  GET  /api/db-files             list catalogs
  GET  /api/db?name=             show a catalog
  POST /api/db/create            create a catalog
  POST /api/db/add|update|delete edit catalog entries
  GET  /api/list                 show the shopping list
  GET  /api/list/download        download the shopping list file
  POST /api/list/add|update|delete
                                 edit the shopping list
  POST /api/compare/single       compare two entries
  POST /api/compare/list         best offers for the shopping list

Example:
  pricecmp serve
  pricecmp serve --port 9000 --data-dir ./data`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (overrides server.port)")
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (overrides server.address)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	logging.Default().WithComponent("cli").WithFields(logging.Fields{
		"port":    cfg.Server.Port,
		"data":    cfg.Data.Dir,
		"backend": cfg.Data.Backend,
	}).Info("starting server")

	server := api.New(cfg, store, openList(cfg), logging.Default())
	return server.ListenAndServe(ctx)
}
