package app

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vgm-archiver/internal/domain"
	"github.com/yourusername/vgm-archiver/internal/infrastructure"
	"go.uber.org/zap"
)

// memStore implements domain.ProgressStore in memory for testing
type memStore struct {
	records map[string]domain.ProgressRecord
	saves   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]domain.ProgressRecord)}
}

func (m *memStore) Load() (map[string]domain.ProgressRecord, error) {
	out := make(map[string]domain.ProgressRecord, len(m.records))
	for k, v := range m.records {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) Save(records map[string]domain.ProgressRecord) error {
	m.saves++
	m.records = make(map[string]domain.ProgressRecord, len(records))
	for k, v := range records {
		m.records[k] = v
	}
	return nil
}

func (m *memStore) Stats() (*domain.ProgressStats, error) {
	stats := &domain.ProgressStats{Total: int64(len(m.records))}
	for _, r := range m.records {
		switch r.Outcome {
		case domain.OutcomeDone:
			stats.Done++
		case domain.OutcomeFail:
			stats.Fail++
		}
	}
	return stats, nil
}

// memLedger implements domain.FailureLedger in memory for testing
type memLedger struct {
	entries map[string]domain.FailureEntry
}

func newMemLedger() *memLedger {
	return &memLedger{entries: make(map[string]domain.FailureEntry)}
}

func (m *memLedger) Record(pageURL, comment string) error {
	if _, ok := m.entries[pageURL]; ok {
		return nil
	}
	m.entries[pageURL] = domain.FailureEntry{PageURL: pageURL, Comment: comment, CreatedAt: time.Now()}
	return nil
}

func (m *memLedger) All() (map[string]domain.FailureEntry, error) {
	out := make(map[string]domain.FailureEntry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// testFixture wires an orchestrator against an httptest server that
// counts every request it serves.
type testFixture struct {
	srv      *httptest.Server
	requests *int32
	store    *memStore
	ledger   *memLedger
	baseDir  string
}

func newFixture(t *testing.T, cfg *domain.DownloadConfig) (*testFixture, *Orchestrator) {
	t.Helper()

	var requests int32
	archive := zipBytes(t, map[string]string{"01 - Theme.mp3": "notes"})

	mux := http.NewServeMux()
	mux.HandleFunc("/dl/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write(archive)
	})
	mux.HandleFunc("/covers/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.Write([]byte("png-bytes"))
	})
	mux.HandleFunc("/broken/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	baseDir := t.TempDir()
	cfg.BaseDir = baseDir
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}

	f := &testFixture{
		srv:      srv,
		requests: &requests,
		store:    newMemStore(),
		ledger:   newMemLedger(),
		baseDir:  baseDir,
	}

	fetcher := infrastructure.NewFetcher(srv.Client(), zap.NewNop())
	materializer := infrastructure.NewMaterializer(fetcher, cfg.RetryCount, cfg.RetryDelay, zap.NewNop())
	orch := NewOrchestrator(f.store, f.ledger, fetcher, materializer, nil, cfg, zap.NewNop())
	return f, orch
}

func (f *testFixture) requestCount() int32 {
	return atomic.LoadInt32(f.requests)
}

func gameTarget(f *testFixture, withCover bool) domain.Target {
	t := domain.Target{
		Name:     "Game A",
		Category: "console1",
		PageURL:  f.srv.URL + "/music/console1/game-a",
		Variants: []domain.AssetVariant{
			{Label: "Original Music Files", URL: f.srv.URL + "/dl/game-a.zip"},
		},
	}
	if withCover {
		t.CoverURL = f.srv.URL + "/covers/game-a.png"
	}
	return t
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original", "mp3"},
		Extract:        true,
		RetryCount:     2,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, true)

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.NotEmpty(t, stats.RunID)

	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	data, err := os.ReadFile(filepath.Join(gameDir, "01 - Theme.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))

	_, err = os.Stat(filepath.Join(gameDir, "music.zip"))
	assert.True(t, os.IsNotExist(err), "archive removed after extraction")

	_, err = os.Stat(filepath.Join(gameDir, "cover.png"))
	assert.NoError(t, err, "cover fetched with extension from its locator")

	rec, ok := f.store.records[target.ID()]
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeDone, rec.Outcome)
	assert.Empty(t, rec.Comment)
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     2,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	_, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	fetched := f.requestCount()

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedDone)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, fetched, f.requestCount(), "second run performs zero fetches")
}

func TestRun_NoSuitableFormat(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"mp3"},
		Extract:        true,
		RetryCount:     3,
	}
	f, orch := newFixture(t, cfg)

	target := domain.Target{
		Name:     "Game B",
		Category: "console1",
		PageURL:  f.srv.URL + "/music/console1/game-b",
		Variants: []domain.AssetVariant{
			{Label: "ogg", URL: f.srv.URL + "/dl/game-b.zip"},
		},
	}

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, int32(0), f.requestCount(), "no network call without an acceptable format")

	rec := f.store.records[target.ID()]
	assert.Equal(t, domain.OutcomeFail, rec.Outcome)
	assert.Equal(t, "No suitable link", rec.Comment)

	entries, _ := f.ledger.All()
	assert.Contains(t, entries, target.ID())
}

func TestRun_FetchFailureRecordedAndSkippedNextRun(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     2,
	}
	f, orch := newFixture(t, cfg)

	target := gameTarget(f, false)
	target.Variants[0].URL = f.srv.URL + "/broken/game-a.zip"

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, int32(2), f.requestCount(), "bounded retry")

	rec := f.store.records[target.ID()]
	assert.Equal(t, domain.OutcomeFail, rec.Outcome)
	assert.NotEmpty(t, rec.Comment)

	// Default policy: failed targets are not re-attempted.
	stats, err = orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedFailed)
	assert.Equal(t, int32(2), f.requestCount())
}

func TestRun_RetryFailedReattempts(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryFailed:    true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	f.store.records[target.ID()] = domain.Failed(target.ID(), assert.AnError)
	f.ledger.Record(target.ID(), assert.AnError.Error())

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)

	// The retry flipped the record to done but the ledger keeps its entry.
	assert.Equal(t, domain.OutcomeDone, f.store.records[target.ID()].Outcome)
	entries, _ := f.ledger.All()
	assert.Contains(t, entries, target.ID())
}

func TestRun_TrustsContentOnDisk(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	require.NoError(t, os.MkdirAll(gameDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "01 - Theme.mp3"), []byte("x"), 0644))

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.SkippedDone)
	assert.Equal(t, int32(0), f.requestCount())
	assert.Equal(t, domain.OutcomeDone, f.store.records[target.ID()].Outcome,
		"on-disk presence is reconciled into the store")
}

func TestRun_CoverOnlyFolderIsCleanedAndRefetched(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	// Leftover from an interrupted run: only a cover file.
	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	require.NoError(t, os.MkdirAll(gameDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "cover.jpg"), []byte("x"), 0644))

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded, "cover-only folder is not treated as downloaded")

	_, err = os.Stat(filepath.Join(gameDir, "01 - Theme.mp3"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(gameDir, "cover.jpg"))
	assert.True(t, os.IsNotExist(err), "stale cover removed by hygiene pass")
}

func TestRun_EmptyFolderIsCleaned(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	require.NoError(t, os.MkdirAll(filepath.Join(f.baseDir, "console1", "Game A"), 0755))

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
}

func TestRun_ExtractDisabledKeepsArchive(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        false,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, true)

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)

	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	_, err = os.Stat(filepath.Join(gameDir, "music.zip"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(gameDir, "cover.png"))
	assert.True(t, os.IsNotExist(err), "extraction off gates cover retrieval")
}

func TestRun_CategoryFilter(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
		Categories:     []string{"Console2"},
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false) // category console1

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Processed)
	assert.Equal(t, int32(0), f.requestCount())
}

func TestRun_SavesAfterEveryTarget(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)

	second := gameTarget(f, false)
	second.Name = "Game B"
	second.PageURL = f.srv.URL + "/music/console1/game-b"
	second.Variants[0].URL = f.srv.URL + "/dl/game-b.zip"

	_, err := orch.Run(context.Background(), []domain.Target{gameTarget(f, false), second})
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.saves, "one flush per target outcome")
}

func TestRun_LeftoverPartialFileIsRefetched(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	// A process killed mid-fetch leaves a partial file behind. It must
	// not pass for downloaded content on the next run.
	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	require.NoError(t, os.MkdirAll(gameDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "music.zip.part"), []byte("truncated"), 0644))

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0, stats.SkippedDone)
	assert.Equal(t, int32(1), f.requestCount())

	_, err = os.Stat(filepath.Join(gameDir, "01 - Theme.mp3"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(gameDir, "music.zip.part"))
	assert.True(t, os.IsNotExist(err), "partial file cleaned up")
	assert.Equal(t, domain.OutcomeDone, f.store.records[target.ID()].Outcome)
}

func TestRun_RetryFailedReattemptsExtractionFailure(t *testing.T) {
	cfg := &domain.DownloadConfig{
		FormatPriority: []string{"original"},
		Extract:        true,
		RetryFailed:    true,
		RetryCount:     1,
	}
	f, orch := newFixture(t, cfg)
	target := gameTarget(f, false)

	// A failed extraction leaves its archive next to the fail record.
	// The retry must fetch again instead of trusting the leftover.
	gameDir := filepath.Join(f.baseDir, "console1", "Game A")
	require.NoError(t, os.MkdirAll(gameDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(gameDir, "music.zip"), []byte("not a zip"), 0644))
	f.store.records[target.ID()] = domain.Failed(target.ID(), assert.AnError)

	stats, err := orch.Run(context.Background(), []domain.Target{target})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Processed)
	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, int32(1), f.requestCount(), "the archive is fetched again")

	data, err := os.ReadFile(filepath.Join(gameDir, "01 - Theme.mp3"))
	require.NoError(t, err)
	assert.Equal(t, "notes", string(data))
	assert.Equal(t, domain.OutcomeDone, f.store.records[target.ID()].Outcome)
}

func TestDirHasContent(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, dirHasContent(filepath.Join(dir, "missing")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.png"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "music.zip.part"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "music.zip"), []byte("x"), 0644))
	assert.False(t, dirHasContent(dir), "covers, partials and a bare archive are not content")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "01 - Theme.mp3"), []byte("x"), 0644))
	assert.True(t, dirHasContent(dir))
}
