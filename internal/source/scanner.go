package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy bounds how long Locate waits for a report file to appear.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// errReportEmpty means the file exists but nothing has been flushed to it yet.
var errReportEmpty = errors.New("report is empty")

// Locate opens the report at path, retrying with a fixed delay while the file
// is missing or still empty. Any other open error is not retried. When the
// budget is spent the error is an *UnavailableError.
func Locate(ctx context.Context, path string, policy RetryPolicy, logger *zap.Logger) (*os.File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}

	var (
		f        *os.File
		attempts int
	)
	op := func() error {
		attempts++
		fh, err := os.Open(path) //nolint:gosec // report path is built from operator config
		if err != nil {
			if os.IsNotExist(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		info, err := fh.Stat()
		if err != nil {
			_ = fh.Close()
			return backoff.Permanent(err)
		}
		if info.Size() == 0 {
			_ = fh.Close()
			return errReportEmpty
		}
		f = fh
		return nil
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(policy.Delay), uint64(policy.Attempts-1)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		logger.Debug("report not ready, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return nil, &UnavailableError{Path: path, Attempts: attempts, Err: err}
	}
	return f, nil
}

// DiscoveredFile is a report file found in a spool directory.
type DiscoveredFile struct {
	Path      string
	Name      string
	MtimeNs   int64
	SizeBytes int64
}

// ScanDir lists the report files in dir whose names match pattern, where
// "{jobid}" in the pattern matches any job id. An empty pattern matches every
// file. A missing directory yields no files and no error.
func ScanDir(dir, pattern string) ([]DiscoveredFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	glob := strings.NewReplacer("{jobid}", "*", "{fulljobid}", "*").Replace(pattern)

	var files []DiscoveredFile
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if glob != "" {
			if ok, _ := filepath.Match(glob, name); !ok {
				continue
			}
		}
		info, err := e.Info()
		if err != nil {
			continue // removed between ReadDir and Info
		}
		files = append(files, DiscoveredFile{
			Path:      filepath.Join(dir, name),
			Name:      name,
			MtimeNs:   info.ModTime().UnixNano(),
			SizeBytes: info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}
