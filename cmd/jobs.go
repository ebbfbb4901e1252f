package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/theirongolddev/rurhook/internal/cli"
	"github.com/theirongolddev/rurhook/internal/store"

	"github.com/spf13/cobra"
)

var flagJobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs [JOBID]",
	Short: "List archived jobs or show one job's resources",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJobs,
}

func init() {
	jobsCmd.Flags().IntVarP(&flagJobsLimit, "limit", "l", 20, "Jobs to list (0 for all)")
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	if flagNoStore {
		return errors.New("jobs reads the archive; drop --no-store")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.StorePath())
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	if len(args) == 1 {
		job, err := st.LoadJob(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(cli.RenderTitle(fmt.Sprintf("JOB %s", job.JobID)))
		fmt.Println()
		fmt.Printf("  %s\n", cli.RenderMuted(fmt.Sprintf("%s, processed %s, %d lines, %d records",
			orDash(job.FilePath), cli.FormatTime(job.ProcessedAt), job.Lines, job.Records)))
		fmt.Println()
		fmt.Print(cli.RenderTable(resourceTable("Resources", job.Resources)))
		fmt.Println()
		return nil
	}

	jobs, err := st.ListJobs(ctx, flagJobsLimit)
	if err != nil {
		return err
	}
	total, err := st.JobCount(ctx)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		fmt.Printf("\n  No archived jobs in %s\n\n", cfg.StorePath())
		return nil
	}

	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{j.JobID, strconv.Itoa(j.Resources), cli.FormatTime(j.ProcessedAt)})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("ARCHIVED JOBS  %d of %s", len(jobs), cli.FormatNumber(int64(total)))))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Job", "Resources", "Processed"},
		Rows:    rows,
	}))
	fmt.Println()
	return nil
}
