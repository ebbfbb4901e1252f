package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/theirongolddev/rurhook/internal/account"
	"github.com/theirongolddev/rurhook/internal/config"
	"github.com/theirongolddev/rurhook/internal/pipeline"
	"github.com/theirongolddev/rurhook/internal/source"

	"github.com/spf13/cobra"
)

// Hook exit codes, read by the scheduler's hook wrapper.
const (
	exitUnavailable = 2
	exitMalformed   = 3
)

var (
	flagHookJob    string
	flagHookReport string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Process the current job's RUR report for its accounting record",
	Long: "Run at job end. Waits for the job's RUR report, prints one\n" +
		"resources_used.<name>=<value> line per resource and archives the result.\n\n" +
		"Exit status: 0 ok, 2 report not available, 3 malformed report, 1 other errors.",
	Args: cobra.NoArgs,
	RunE: runHook,
}

func init() {
	hookCmd.Flags().StringVar(&flagHookJob, "job", "", "Job id (default $PBS_JOBID)")
	hookCmd.Flags().StringVar(&flagHookReport, "report", "", "Report file (default from config and job id)")
	rootCmd.AddCommand(hookCmd)
}

func runHook(cmd *cobra.Command, _ []string) error {
	cfg, opts, err := setup()
	if err != nil {
		return err
	}
	logger := opts.Logger
	defer func() { _ = logger.Sync() }()

	sched, err := config.ReadScheduler(cfg.Scheduler.ConfFile, os.Getenv)
	if err != nil {
		return err
	}
	if flagHookJob != "" {
		sched.JobID = flagHookJob
	}

	path := flagHookReport
	if path == "" {
		if sched.JobID == "" {
			return errors.New("no job id: set PBS_JOBID or pass --job")
		}
		path = cfg.ReportPath(sched)
	}
	logger = logger.With(zap.String("job_id", sched.JobID), zap.String("path", path))
	opts.Logger = logger

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	retry := source.RetryPolicy{Attempts: cfg.Report.Attempts, Delay: cfg.Report.Delay.Duration}
	res, err := pipeline.LoadReport(ctx, path, retry, opts)
	if err != nil {
		logger.Error("report failed", zap.Error(err))
		return hookExit(err)
	}
	if res.Warnings != nil {
		logger.Warn("report processed with warnings", zap.Error(res.Warnings))
	}

	jobID := sched.JobID
	if jobID == "" {
		jobID = res.JobID
	}
	logger.Info("report processed",
		zap.Int("lines", res.Lines),
		zap.Int("records", res.Records),
		zap.Int("resources", len(res.Mapping)),
	)

	return record(ctx, cfg, jobID, res, logger)
}

// hookExit maps a report error to the hook's exit status.
func hookExit(err error) error {
	var coerce *source.CoercionError
	switch {
	case errors.Is(err, source.ErrSourceUnavailable):
		return &exitError{code: exitUnavailable, err: err}
	case errors.As(err, &coerce):
		return &exitError{code: exitMalformed, err: err}
	}
	return err
}

func record(ctx context.Context, cfg config.Config, jobID string, res *pipeline.Result, logger *zap.Logger) error {
	recorders := []account.Recorder{account.NewTextRecorder(os.Stdout)}

	st, err := openStore(cfg)
	if err != nil {
		// The resource list still reaches the scheduler without the archive.
		logger.Warn("archive unavailable", zap.Error(err))
	} else if st != nil {
		defer func() { _ = st.Close() }()
		recorders = append(recorders, st)
	}

	if err := account.Multi(recorders...).Record(ctx, jobID, res.Mapping); err != nil {
		return fmt.Errorf("recording job %s: %w", jobID, err)
	}
	return nil
}
