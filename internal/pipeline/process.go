package pipeline

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/theirongolddev/rurhook/internal/config"
	"github.com/theirongolddev/rurhook/internal/model"
	"github.com/theirongolddev/rurhook/internal/source"
)

// Options configures report processing.
type Options struct {
	// Schema supplies allowlists and prefixes; nil means the built-in schema.
	Schema *config.Schema
	// Logger receives skip and warning messages; nil discards them.
	Logger *zap.Logger
}

// Result is the outcome of processing one report.
type Result struct {
	// JobID is the job id of the first recognized record.
	JobID   string
	Mapping model.ResultMapping

	Lines          int
	Records        int
	Skipped        int
	UnknownPlugins int

	// Warnings combines the per-line problems that dropped data without
	// failing the report, such as unterminated memory sub-structures.
	Warnings error
}

// reportContext is the state of one Process call. Nothing in it outlives the
// call.
type reportContext struct {
	schema *config.Schema
	logger *zap.Logger
	agg    *Aggregator
	result Result
}

func newReportContext(opts Options) (*reportContext, error) {
	schema := opts.Schema
	if schema == nil {
		var err error
		if schema, err = config.DefaultSchema(); err != nil {
			return nil, err
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &reportContext{
		schema: schema,
		logger: logger,
		agg:    NewAggregator(),
	}, nil
}

// Process reads a RUR report line by line and returns the flattened resource
// mapping. Lines that match no record shape and lines naming unknown plugins
// are skipped. A numeric field with non-numeric text aborts the report with
// an error wrapping *source.CoercionError and no mapping is returned.
func Process(r io.Reader, opts Options) (*Result, error) {
	rc, err := newReportContext(opts)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		rc.result.Lines++
		if err := rc.line(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}

	rc.result.Mapping = MapResult(rc.agg, rc.schema)
	return &rc.result, nil
}

func (rc *reportContext) line(text string) error {
	lineNo := rc.result.Lines

	rec, err := source.Classify(text)
	switch {
	case errors.Is(err, source.ErrUnknownPlugin):
		rc.result.UnknownPlugins++
		rc.logger.Info("skipping unknown plugin",
			zap.String("plugin", rec.PluginName),
			zap.String("job_id", rec.JobID),
			zap.Int("line", lineNo),
		)
		return nil
	case err != nil:
		rc.result.Skipped++
		return nil
	}

	rc.result.Records++
	if rc.result.JobID == "" {
		rc.result.JobID = rec.JobID
	}

	raw, err := source.Extract(rec)
	if err != nil {
		var nested *source.NestedStructureError
		if errors.As(err, &nested) {
			nested.Line = lineNo
			rc.result.Warnings = multierr.Append(rc.result.Warnings, nested)
			rc.logger.Warn("dropping memory data from malformed line",
				zap.String("job_id", rec.JobID),
				zap.Int("line", lineNo),
				zap.Error(nested),
			)
			return nil
		}
		return fmt.Errorf("line %d: %w", lineNo, err)
	}

	fields, err := source.Filter(rec.Plugin, raw, rc.schema)
	if err != nil {
		return fmt.Errorf("line %d: %w", lineNo, err)
	}

	rc.agg.Add(rec.Plugin, fields)
	return nil
}
