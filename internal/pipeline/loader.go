package pipeline

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/theirongolddev/rurhook/internal/source"
)

// LoadReport waits for the report at path to become available and processes
// it. A report that never shows up yields an error matching
// source.ErrSourceUnavailable; one that shows up malformed yields the
// processing error instead.
func LoadReport(ctx context.Context, path string, retry source.RetryPolicy, opts Options) (*Result, error) {
	f, err := source.Locate(ctx, path, retry, opts.Logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := Process(f, opts)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", path, err)
	}
	return res, nil
}

// FileResult is the outcome of one report in a directory load.
type FileResult struct {
	File   source.DiscoveredFile
	Result *Result
	Err    error
}

// LoadResult holds the output of loading a spool directory.
type LoadResult struct {
	Files       []FileResult
	TotalFiles  int
	ParsedFiles int
	FileErrors  int
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadDir processes every report in dir matching pattern. Reports are spread
// over a bounded worker pool; each report is still read by a single worker.
func LoadDir(dir, pattern string, opts Options, progressFn ProgressFunc) (*LoadResult, error) {
	files, err := source.ScanDir(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &LoadResult{TotalFiles: len(files)}
	if len(files) == 0 {
		return result, nil
	}

	result.Files = processFiles(files, opts, progressFn, 0, len(files))
	for _, fr := range result.Files {
		if fr.Err != nil {
			result.FileErrors++
			continue
		}
		result.ParsedFiles++
	}
	return result, nil
}

// processFiles runs Process over files with a bounded worker pool. Progress
// is reported as offset+n out of total.
func processFiles(files []source.DiscoveredFile, opts Options, progressFn ProgressFunc, offset, total int) []FileResult {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers < 1 {
		numWorkers = 4
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make([]FileResult, len(files))
	var wg sync.WaitGroup
	var processed atomic.Int64

	for i := range files {
		work <- i
	}
	close(work)

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				res, err := processFile(files[idx].Path, opts)
				results[idx] = FileResult{File: files[idx], Result: res, Err: err}
				n := processed.Add(1)
				if progressFn != nil {
					progressFn(int(n)+offset, total)
				}
			}
		}()
	}

	wg.Wait()
	return results
}

func processFile(path string, opts Options) (*Result, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from a spool directory listing
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := Process(f, opts)
	if err != nil {
		return nil, fmt.Errorf("processing %s: %w", path, err)
	}
	return res, nil
}
