package infrastructure

import (
	"context"
	"errors"
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
	"go.uber.org/zap"
)

func TestFetch_WritesDestination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("archive-bytes"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "music.zip")
	f := NewFetcher(srv.Client(), zap.NewNop())

	err := f.Fetch(context.Background(), srv.URL, dest, 3, time.Millisecond)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(data))

	_, err = os.Stat(dest + ".part")
	assert.True(t, os.IsNotExist(err), "no .part file should remain")
}

func TestFetch_RetryBound(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "music.zip")
	f := NewFetcher(srv.Client(), zap.NewNop())

	err := f.Fetch(context.Background(), srv.URL, dest, 3, time.Millisecond)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "exactly retry_count attempts")

	var fetchErr *domain.FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, 3, fetchErr.Attempts)
	assert.Contains(t, fetchErr.Err.Error(), "500")
}

func TestFetch_NoDestinationOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "music.zip")
	f := NewFetcher(srv.Client(), zap.NewNop())

	err := f.Fetch(context.Background(), srv.URL, dest, 2, time.Millisecond)
	require.Error(t, err)

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "failed fetch must not leave a destination file")
}

func TestFetch_RecoversAfterTransientFailure(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) < 3 {
			http.Error(w, "try again", http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "music.zip")
	f := NewFetcher(srv.Client(), zap.NewNop())

	err := f.Fetch(context.Background(), srv.URL, dest, 3, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestFetch_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	dest := filepath.Join(t.TempDir(), "music.zip")
	f := NewFetcher(srv.Client(), zap.NewNop())

	err := f.Fetch(ctx, srv.URL, dest, 5, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
