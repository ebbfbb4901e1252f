package cmd

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/multierr"

	"github.com/theirongolddev/rurhook/internal/cli"
	"github.com/theirongolddev/rurhook/internal/model"
	"github.com/theirongolddev/rurhook/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagParsePlain bool

var parseCmd = &cobra.Command{
	Use:   "parse FILE...",
	Short: "Process RUR report files and show their resources",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().BoolVar(&flagParsePlain, "plain", false, "Print name=value lines instead of a table")
	rootCmd.AddCommand(parseCmd)
}

func runParse(_ *cobra.Command, args []string) error {
	_, opts, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = opts.Logger.Sync() }()

	var failed error
	for _, path := range args {
		res, err := parseFile(path, opts)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
			failed = multierr.Append(failed, err)
			continue
		}
		for _, w := range multierr.Errors(res.Warnings) {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(fmt.Sprintf("%s: %v", path, w)))
		}

		if flagParsePlain {
			printPlain(res.Mapping)
			continue
		}
		printReport(path, res)
	}

	if n := len(multierr.Errors(failed)); n > 0 {
		return fmt.Errorf("%d of %d reports failed", n, len(args))
	}
	return nil
}

func parseFile(path string, opts pipeline.Options) (*pipeline.Result, error) {
	f, err := os.Open(path) //nolint:gosec // path is a command argument
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	res, err := pipeline.Process(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

func printPlain(m model.ResultMapping) {
	for _, name := range m.Names() {
		fmt.Printf("%s=%s\n", name, m[name])
	}
}

func printReport(path string, res *pipeline.Result) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("JOB %s", orDash(res.JobID))))
	fmt.Println()
	fmt.Printf("  %s\n", cli.RenderMuted(fmt.Sprintf("%s: %d lines, %d records, %d skipped, %d unknown plugin",
		path, res.Lines, res.Records, res.Skipped, res.UnknownPlugins)))
	fmt.Println()

	if len(res.Mapping) == 0 {
		fmt.Println("  No resources.")
		fmt.Println()
		return
	}
	fmt.Print(cli.RenderTable(resourceTable("Resources", res.Mapping)))
	fmt.Println()
}

// resourceTable groups a mapping's names by plugin prefix, separating groups.
func resourceTable(title string, m model.ResultMapping) cli.Table {
	rows := make([][]string, 0, len(m)+3)
	prev := ""
	for _, name := range m.Names() {
		group := groupOf(name)
		if prev != "" && group != prev {
			rows = append(rows, []string{"---"})
		}
		prev = group
		rows = append(rows, []string{name, cli.FormatValue(m[name], 48)})
	}
	return cli.Table{
		Title:   title,
		Headers: []string{"Resource", "Value"},
		Rows:    rows,
	}
}

func groupOf(name string) string {
	group, _, _ := strings.Cut(name, "_")
	return group
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

