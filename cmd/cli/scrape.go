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

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Crawl the catalog site and write the downloads list",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		scraper := infrastructure.NewScraper(nil, &config.Scraper, log)

		log.Info("Starting crawl", zap.String("base_url", config.Scraper.BaseURL))
		catalog, err := scraper.Crawl(ctx)
		if err != nil {
			return err
		}

		if err := app.SaveCatalog(config.Download.CatalogPath, catalog); err != nil {
			return err
		}

		fmt.Printf("Wrote %d targets to %s\n", len(catalog), config.Download.CatalogPath)
		return nil
	},
}
