package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/vgm-archiver/internal/app"
	"github.com/yourusername/vgm-archiver/internal/infrastructure"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Fetch and extract every pending catalog target",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		targets, err := app.LoadCatalog(config.Download.CatalogPath)
		if err != nil {
			return err
		}

		store, err := infrastructure.NewSQLiteStore(config.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()

		fetcher := infrastructure.NewFetcher(nil, log)
		materializer := infrastructure.NewMaterializer(
			fetcher, config.Download.RetryCount, config.Download.RetryDelay, log)
		notifier := infrastructure.NewNotificationService(&config.Notification, log)

		orch := app.NewOrchestrator(store, store, fetcher, materializer, notifier, &config.Download, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stats, err := orch.Run(ctx, targets)
		if err != nil {
			log.Error("Run aborted", zap.Error(err))
			return err
		}

		fmt.Printf("Run %s finished\n", stats.RunID)
		fmt.Printf("  Succeeded:      %d\n", stats.Succeeded)
		fmt.Printf("  Failed:         %d\n", stats.Failed)
		fmt.Printf("  Skipped (done): %d\n", stats.SkippedDone)
		fmt.Printf("  Skipped (fail): %d\n", stats.SkippedFailed)
		return nil
	},
}
