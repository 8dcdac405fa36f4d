package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"evalgo.org/graphapi/internal/api"
	"evalgo.org/graphapi/internal/storage"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the JSON:API server.

Storage is selected by storage.driver. When storage.seed_file (or --seed)
names a fixture, it is loaded into the store before the server starts.`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().String("seed", "", "fixture file to load into the store on startup")
	serverCmd.Flags().Int("port", 0, "listen port (overrides server.port)")
}

func runServer(cmd *cobra.Command, args []string) error {
	if seed, _ := cmd.Flags().GetString("seed"); seed != "" {
		cfg.Storage.SeedFile = seed
	}
	if port, _ := cmd.Flags().GetInt("port"); port > 0 {
		cfg.Server.Port = port
	}

	store, err := storage.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	server := api.New(cfg, store, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(),
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
