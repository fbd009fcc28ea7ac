package infrastructure

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/yourusername/vgm-archiver/internal/domain"
	"go.uber.org/zap"
)

// Materializer turns a fetched archive into its final on-disk form:
// extracted content plus an optional cover image, or the raw archive when
// extraction is disabled.
type Materializer struct {
	fetcher    *Fetcher
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewMaterializer creates a materializer. Cover images are fetched through
// the given fetcher with the same retry policy as archives.
func NewMaterializer(fetcher *Fetcher, retryCount int, retryDelay time.Duration, logger *zap.Logger) *Materializer {
	return &Materializer{
		fetcher:    fetcher,
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Materialize finalizes archivePath inside destDir. With extract enabled
// the archive is unzipped into destDir and removed, then the cover (when
// present) is fetched as cover.<ext>. With extract disabled the archive is
// left in place and the cover is skipped entirely: extraction gates cover
// retrieval.
func (m *Materializer) Materialize(ctx context.Context, archivePath, destDir, coverURL string, extract bool) error {
	if !extract {
		return nil
	}

	if err := extractZip(archivePath, destDir); err != nil {
		return &domain.ExtractionError{Archive: archivePath, Err: err}
	}
	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("remove archive %s: %w", archivePath, err)
	}

	if coverURL == "" {
		return nil
	}

	coverPath := filepath.Join(destDir, "cover"+coverExt(coverURL))
	if err := m.fetcher.Fetch(ctx, coverURL, coverPath, m.retryCount, m.retryDelay); err != nil {
		// The soundtrack itself is in place; a missing cover is not worth
		// failing the whole target over.
		m.logger.Warn("Cover fetch failed",
			zap.String("url", coverURL),
			zap.Error(err))
	}

	return nil
}

// coverExt returns the file extension of the cover locator, ignoring any
// query string or fragment it carries.
func coverExt(coverURL string) string {
	u, err := url.Parse(coverURL)
	if err != nil {
		return path.Ext(coverURL)
	}
	return path.Ext(u.Path)
}

// extractZip unpacks the archive fully into destDir, refusing entries that
// would escape it.
func extractZip(archivePath, destDir string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, file := range r.File {
		if err := extractZipEntry(file, destDir); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, destDir string) error {
	target := filepath.Join(destDir, file.Name)
	if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
		return fmt.Errorf("illegal entry path %q", file.Name)
	}

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, 0755)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return err
	}
	return nil
}
