package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourusername/vgm-archiver/internal/app"
	"github.com/yourusername/vgm-archiver/internal/domain"
	"github.com/yourusername/vgm-archiver/pkg/logger"
)

var (
	configPath string
	rootCmd    = &cobra.Command{
		Use:   "vgm-archiver",
		Short: "VGM Archiver - resumable game soundtrack downloader",
		Long: `Crawls a game music catalog and materializes soundtrack archives on
local storage, skipping items already fetched and recording failures for
later retry.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads configuration and builds the logger shared by all commands.
func setup() (*domain.Config, *zap.Logger, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:      config.Logging.Level,
		Format:     config.Logging.Format,
		OutputPath: config.Logging.OutputPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return config, log, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
