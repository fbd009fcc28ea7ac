package infrastructure

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/yourusername/vgm-archiver/internal/domain"
	"go.uber.org/zap"
)

// Fetcher streams remote resources to disk with bounded retries. Writes go
// to a ".part" sibling and are renamed into place on success, so a
// half-written file is never visible at the destination path.
type Fetcher struct {
	client *http.Client
	logger *zap.Logger
}

// NewFetcher creates a fetcher using the given HTTP client. A nil client
// falls back to one with a generous timeout suited to large archives.
func NewFetcher(client *http.Client, logger *zap.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Minute}
	}
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads url into destPath. On any transport or HTTP-status error
// it waits delay and retries, up to retries total attempts; the final
// attempt's error is surfaced verbatim inside a FetchError. The archive
// can be arbitrarily large, so the body is streamed rather than buffered.
func (f *Fetcher) Fetch(ctx context.Context, url, destPath string, retries int, delay time.Duration) error {
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		if attempt > 1 {
			f.logger.Info("Retrying fetch",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", retries))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := f.fetchOnce(ctx, url, destPath); err != nil {
			lastErr = err
			f.logger.Warn("Fetch attempt failed",
				zap.String("url", url),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}
		return nil
	}

	return &domain.FetchError{URL: url, Attempts: retries, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	partPath := destPath + ".part"
	// A stale .part from an interrupted run is simply truncated here.
	out, err := os.Create(partPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", partPath, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(partPath)
		return fmt.Errorf("write %s: %w", partPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("close %s: %w", partPath, err)
	}

	if err := os.Rename(partPath, destPath); err != nil {
		os.Remove(partPath)
		return fmt.Errorf("finalize %s: %w", destPath, err)
	}
	return nil
}
