package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/theirongolddev/rurhook/internal/source"
	"github.com/theirongolddev/rurhook/internal/store"
)

// CachedLoadResult extends LoadResult with archive metadata.
type CachedLoadResult struct {
	LoadResult
	Unchanged int
	Reparsed  int
	Recorded  int
}

// LoadDirWithStore processes only the reports in dir that are new or changed
// since the store last saw them, and archives their mappings. Files that
// fail to process are still tracked so they aren't retried until they change.
func LoadDirWithStore(ctx context.Context, dir, pattern string, st *store.Store, opts Options, progressFn ProgressFunc) (*CachedLoadResult, error) {
	files, err := source.ScanDir(dir, pattern)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &CachedLoadResult{
		LoadResult: LoadResult{TotalFiles: len(files)},
	}
	if len(files) == 0 {
		return result, nil
	}

	tracked, err := st.GetTrackedFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading store: %w", err)
	}

	var toReparse []source.DiscoveredFile
	for _, f := range files {
		cached, ok := tracked[f.Path]
		if ok && cached.MtimeNs == f.MtimeNs && cached.SizeBytes == f.SizeBytes {
			result.Unchanged++
			continue
		}
		toReparse = append(toReparse, f)
	}
	result.Reparsed = len(toReparse)

	if len(toReparse) == 0 {
		return result, nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	result.Files = processFiles(toReparse, opts, progressFn, result.Unchanged, result.TotalFiles)
	for _, fr := range result.Files {
		if fr.Err != nil {
			result.FileErrors++
			logger.Warn("report failed", zap.String("path", fr.File.Path), zap.Error(fr.Err))
			if err := st.TrackFile(ctx, fr.File.Path, fr.File.MtimeNs, fr.File.SizeBytes); err != nil {
				return nil, fmt.Errorf("tracking %s: %w", fr.File.Path, err)
			}
			continue
		}
		result.ParsedFiles++

		if fr.Result.JobID == "" {
			if err := st.TrackFile(ctx, fr.File.Path, fr.File.MtimeNs, fr.File.SizeBytes); err != nil {
				return nil, fmt.Errorf("tracking %s: %w", fr.File.Path, err)
			}
			continue
		}

		err := st.SaveReport(ctx, store.Report{
			JobID:     fr.Result.JobID,
			FilePath:  fr.File.Path,
			Lines:     fr.Result.Lines,
			Records:   fr.Result.Records,
			Mapping:   fr.Result.Mapping,
			MtimeNs:   fr.File.MtimeNs,
			SizeBytes: fr.File.SizeBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("saving %s: %w", fr.File.Path, err)
		}
		result.Recorded++
	}

	return result, nil
}
