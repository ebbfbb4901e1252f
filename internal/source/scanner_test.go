package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Delay: 5 * time.Millisecond}
}

func TestLocateExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rur.1042")
	require.NoError(t, os.WriteFile(path, []byte("line\n"), 0o600))

	f, err := Locate(context.Background(), path, fastRetry(1), nil)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "line\n", string(data))
}

func TestLocateWaitsForFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rur.1042")
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = os.WriteFile(path, []byte("line\n"), 0o600)
	}()

	f, err := Locate(context.Background(), path, RetryPolicy{Attempts: 200, Delay: 5 * time.Millisecond}, nil)
	require.NoError(t, err)
	_ = f.Close()
}

func TestLocateUnavailable(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	path := filepath.Join(t.TempDir(), "missing")

	_, err := Locate(context.Background(), path, fastRetry(3), zap.New(core))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
	assert.ErrorIs(t, err, os.ErrNotExist)

	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 3, ue.Attempts)
	assert.Equal(t, path, ue.Path)
	assert.Equal(t, 2, logs.FilterMessage("report not ready, retrying").Len())
}

func TestLocateEmptyFileRetried(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rur.1042")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	_, err := Locate(context.Background(), path, fastRetry(2), nil)
	require.ErrorIs(t, err, ErrSourceUnavailable)
	assert.True(t, errors.Is(err, errReportEmpty))
}

func TestLocateNonRetryable(t *testing.T) {
	// Opening a path below a regular file fails with ENOTDIR, which isn't retried.
	dir := t.TempDir()
	file := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := Locate(context.Background(), filepath.Join(file, "child"), fastRetry(5), nil)
	var ue *UnavailableError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 1, ue.Attempts)
}

func TestLocateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Locate(ctx, filepath.Join(t.TempDir(), "missing"), RetryPolicy{Attempts: 100, Delay: time.Second}, nil)
	require.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"rur.1043", "rur.1042", ".rur.tmp", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "rur.sub"), 0o750))

	files, err := ScanDir(dir, "rur.{jobid}")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "rur.1042", files[0].Name)
	assert.Equal(t, "rur.1043", files[1].Name)
	assert.Equal(t, filepath.Join(dir, "rur.1042"), files[0].Path)
	assert.Equal(t, int64(1), files[0].SizeBytes)

	all, err := ScanDir(dir, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestScanDirMissing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "nope"), "rur.{jobid}")
	require.NoError(t, err)
	assert.Empty(t, files)
}
