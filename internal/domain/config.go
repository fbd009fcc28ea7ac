package domain

import "time"

// Config represents the application configuration
type Config struct {
	Download     DownloadConfig     `mapstructure:"download"`
	Store        StoreConfig        `mapstructure:"store"`
	Scraper      ScraperConfig      `mapstructure:"scraper"`
	Server       ServerConfig       `mapstructure:"server"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// DownloadConfig contains the orchestrator run options
type DownloadConfig struct {
	BaseDir        string        `mapstructure:"base_dir"`        // root of downloads/<category>/<target>/
	CatalogPath    string        `mapstructure:"catalog_path"`    // flat catalog JSON produced by the scraper
	Categories     []string      `mapstructure:"categories"`      // categories to process this run
	FormatPriority []string      `mapstructure:"format_priority"` // ordered, e.g. [original, flac, mp3]
	Extract        bool          `mapstructure:"extract"`         // unzip archives (gates cover retrieval)
	RetryFailed    bool          `mapstructure:"retry_failed"`    // re-attempt targets recorded as failed
	RetryCount     int           `mapstructure:"retry_count"`     // total fetch attempts per download
	RetryDelay     time.Duration `mapstructure:"retry_delay"`     // wait between attempts
}

// StoreConfig contains progress persistence configuration
type StoreConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// ScraperConfig contains catalog crawler configuration
type ScraperConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	PageDelay   time.Duration `mapstructure:"page_delay"`  // pause between category list pages
	Concurrency int           `mapstructure:"concurrency"` // parallel game-page fetches
}

// ServerConfig contains the report API configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// NotificationConfig contains run-completion notification configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Download: DownloadConfig{
			BaseDir:        "downloads",
			CatalogPath:    "downloads_list.json",
			Categories:     nil,
			FormatPriority: []string{"original", "flac", "mp3"},
			Extract:        true,
			RetryFailed:    false,
			RetryCount:     3,
			RetryDelay:     5 * time.Second,
		},
		Store: StoreConfig{
			DatabasePath: "progress.db",
		},
		Scraper: ScraperConfig{
			BaseURL:     "https://www.zophar.net",
			PageDelay:   2 * time.Second,
			Concurrency: 4,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Notification: NotificationConfig{
			Enabled: false,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
