package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/vgm-archiver/internal/domain"
	"github.com/yourusername/vgm-archiver/internal/infrastructure"
	"go.uber.org/zap"
)

// archiveName is the fixed filename a target's archive is fetched as
// inside its folder before extraction.
const archiveName = "music.zip"

// Orchestrator drives the resumable download loop: it consults the
// progress store to decide what still needs fetching, runs the selector,
// the fetcher and the materializer per target, and persists the outcome
// after every single target so an interrupted run can resume where it
// left off.
type Orchestrator struct {
	store        domain.ProgressStore
	ledger       domain.FailureLedger
	fetcher      *infrastructure.Fetcher
	materializer *infrastructure.Materializer
	notifier     *infrastructure.NotificationService
	config       *domain.DownloadConfig
	logger       *zap.Logger
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	store domain.ProgressStore,
	ledger domain.FailureLedger,
	fetcher *infrastructure.Fetcher,
	materializer *infrastructure.Materializer,
	notifier *infrastructure.NotificationService,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:        store,
		ledger:       ledger,
		fetcher:      fetcher,
		materializer: materializer,
		notifier:     notifier,
		config:       config,
		logger:       logger,
	}
}

// Run processes the catalog strictly sequentially, one target end-to-end
// at a time. It returns an error only for startup-level problems (the
// progress store failing to load) or context cancellation; per-target
// failures are recorded and the run moves on.
func (o *Orchestrator) Run(ctx context.Context, targets []domain.Target) (*domain.RunStats, error) {
	stats := &domain.RunStats{RunID: uuid.New().String()}
	log := o.logger.With(zap.String("run_id", stats.RunID))

	records, err := o.store.Load()
	if err != nil {
		return nil, err
	}

	groups := GroupByCategory(targets)
	for _, category := range o.categories(groups) {
		catTargets := groups[category]
		if len(catTargets) == 0 {
			log.Warn("No catalog entries for category", zap.String("category", category))
			continue
		}

		catDir := filepath.Join(o.config.BaseDir, infrastructure.SanitizeCategory(category))
		if err := os.MkdirAll(catDir, 0755); err != nil {
			log.Error("Failed to create category directory",
				zap.String("dir", catDir),
				zap.Error(err))
			continue
		}

		o.cleanStaleDirs(catDir, log)

		log.Info("Processing category",
			zap.String("category", category),
			zap.Int("targets", len(catTargets)))

		for i := range catTargets {
			if err := o.processTarget(ctx, &catTargets[i], catDir, records, stats, log); err != nil {
				return nil, err
			}
		}
	}

	log.Info("Run finished",
		zap.Int("processed", stats.Processed),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.Int("skipped_done", stats.SkippedDone),
		zap.Int("skipped_failed", stats.SkippedFailed))

	if o.notifier != nil {
		o.notifier.NotifyRunCompleted(stats)
	}

	return stats, nil
}

// categories returns the categories to process this run, in configured
// order. An empty configuration means every category present in the
// catalog, sorted for a stable walk.
func (o *Orchestrator) categories(groups map[string][]domain.Target) []string {
	if len(o.config.Categories) > 0 {
		out := make([]string, 0, len(o.config.Categories))
		for _, c := range o.config.Categories {
			out = append(out, strings.ToLower(c))
		}
		return out
	}

	out := make([]string, 0, len(groups))
	for c := range groups {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// processTarget walks one target through its state machine. A non-nil
// return means the whole run must stop (context cancellation); everything
// else is recorded as the target's outcome.
func (o *Orchestrator) processTarget(
	ctx context.Context,
	target *domain.Target,
	catDir string,
	records map[string]domain.ProgressRecord,
	stats *domain.RunStats,
	log *zap.Logger,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	id := target.ID()
	tlog := log.With(zap.String("target", target.Name), zap.String("id", id))

	retrying := false
	if rec, ok := records[id]; ok {
		switch {
		case rec.Outcome == domain.OutcomeDone:
			tlog.Debug("Skipping: already downloaded")
			stats.SkippedDone++
			return nil
		case rec.Outcome == domain.OutcomeFail && !o.config.RetryFailed:
			tlog.Debug("Skipping: previously failed", zap.String("comment", rec.Comment))
			stats.SkippedFailed++
			return nil
		default:
			retrying = true
		}
	}

	destDir := filepath.Join(catDir, infrastructure.SanitizeName(target.Name))

	// Content already on disk is evidence of a completed download even
	// when the store has no record of it (an interrupted run may have
	// finished the files but died before the record was written). A
	// recorded failure overrides the shortcut: whatever that folder
	// holds belongs to a failed attempt.
	if !retrying && dirHasContent(destDir) {
		tlog.Debug("Skipping: content already on disk")
		records[id] = domain.Done(id)
		o.persist(records, tlog)
		stats.SkippedDone++
		return nil
	}

	stats.Processed++

	variant, ok := domain.SelectVariant(target.Variants, o.config.FormatPriority)
	if !ok {
		tlog.Warn("No suitable link for target")
		o.recordFailure(records, id, domain.ErrNoSuitableFormat, stats, tlog)
		return nil
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		o.recordFailure(records, id, err, stats, tlog)
		return nil
	}

	tlog.Info("Fetching",
		zap.String("format", variant.Label),
		zap.String("url", variant.URL))

	archivePath := filepath.Join(destDir, archiveName)
	err := o.fetcher.Fetch(ctx, variant.URL, archivePath, o.config.RetryCount, o.config.RetryDelay)
	if err == nil {
		err = o.materializer.Materialize(ctx, archivePath, destDir, target.CoverURL, o.config.Extract)
	}

	if err != nil {
		// An interrupted target's outcome stays unrecorded; the disk
		// check and the store reconcile on the next run.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		tlog.Error("Target failed", zap.Error(err))
		o.recordFailure(records, id, err, stats, tlog)
		return nil
	}

	records[id] = domain.Done(id)
	o.persist(records, tlog)
	stats.Succeeded++
	tlog.Info("Target completed", zap.String("dir", destDir))
	return nil
}

// recordFailure writes the failure into the progress store and, for the
// first failure of this identifier, the append-only ledger.
func (o *Orchestrator) recordFailure(
	records map[string]domain.ProgressRecord,
	id string,
	cause error,
	stats *domain.RunStats,
	log *zap.Logger,
) {
	records[id] = domain.Failed(id, cause)
	if err := o.ledger.Record(id, cause.Error()); err != nil {
		log.Error("Failed to write failure ledger", zap.Error(err))
	}
	o.persist(records, log)
	stats.Failed++
}

// persist flushes the full progress mapping. A failed flush does not stop
// the run, but it does void the crash-safety guarantee, so it is logged
// loudly.
func (o *Orchestrator) persist(records map[string]domain.ProgressRecord, log *zap.Logger) {
	if err := o.store.Save(records); err != nil {
		log.Error("Failed to persist progress state", zap.Error(err))
	}
}

// cleanStaleDirs removes leftovers of interrupted runs from target
// folders: partial downloads first, then folders that are empty or hold
// only a cover image. None of these must be mistaken for a completed
// download.
func (o *Orchestrator) cleanStaleDirs(catDir string, log *zap.Logger) {
	entries, err := os.ReadDir(catDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(catDir, entry.Name())
		files, err := os.ReadDir(dir)
		if err != nil {
			continue
		}

		kept := files[:0]
		for _, f := range files {
			if !f.IsDir() && strings.HasSuffix(f.Name(), ".part") {
				part := filepath.Join(dir, f.Name())
				if err := os.Remove(part); err == nil {
					log.Info("Removed partial download", zap.String("file", part))
					continue
				}
			}
			kept = append(kept, f)
		}

		switch {
		case len(kept) == 0:
			if err := os.Remove(dir); err == nil {
				log.Info("Removed empty target folder", zap.String("dir", dir))
			}
		case len(kept) == 1 && strings.HasPrefix(kept[0].Name(), "cover"):
			if err := os.RemoveAll(dir); err == nil {
				log.Info("Removed cover-only target folder", zap.String("dir", dir))
			}
		}
	}
}

// dirHasContent reports whether the directory holds real downloaded
// content. Cover files, partial downloads and a bare archive do not
// count: any of them can be left behind by an interrupted or failed
// attempt.
func dirHasContent(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "cover") ||
			strings.HasSuffix(name, ".part") ||
			name == archiveName {
			continue
		}
		return true
	}
	return false
}
