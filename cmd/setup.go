package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/rurhook/internal/cli"
	"github.com/theirongolddev/rurhook/internal/config"
	"github.com/theirongolddev/rurhook/internal/source"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Load existing config or defaults
	cfg, _ := loadConfig()

	attempts := strconv.Itoa(cfg.Report.Attempts)
	delay := cfg.Report.Delay.String()
	interval := cfg.Daemon.Interval.String()
	storePath := cfg.StorePath()

	fmt.Println()
	fmt.Println("  Welcome to rurhook!")
	fmt.Println()
	if files, _ := source.ScanDir(cfg.Report.Dir, cfg.Report.Pattern); len(files) > 0 {
		fmt.Printf("  Found %s reports in %s\n\n", formatNumber(int64(len(files))), cfg.Report.Dir)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Report directory").
				Description("Where RUR writes per-job output. Relative paths resolve against PBS_HOME.").
				Value(&cfg.Report.Dir).
				Validate(notEmpty),
			huh.NewInput().
				Title("Report file pattern").
				Description("{jobid} is the numeric job id, {fulljobid} includes the server.").
				Value(&cfg.Report.Pattern).
				Validate(notEmpty),
			huh.NewInput().
				Title("Attempts").
				Description("How many times to look for a report before giving up.").
				Value(&attempts).
				Validate(positiveInt),
			huh.NewInput().
				Title("Delay between attempts").
				Value(&delay).
				Validate(validDuration),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Archive processed jobs?").
				Value(&cfg.Store.Enabled),
			huh.NewInput().
				Title("Archive path").
				Value(&storePath).
				Validate(notEmpty),
			huh.NewInput().
				Title("Daemon listen address").
				Value(&cfg.Daemon.Addr).
				Validate(notEmpty),
			huh.NewInput().
				Title("Daemon poll interval").
				Value(&interval).
				Validate(validDuration),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup canceled, nothing saved.")
			return nil
		}
		return err
	}

	// Inputs were validated above.
	cfg.Report.Attempts, _ = strconv.Atoi(attempts)
	cfg.Report.Delay.Duration, _ = time.ParseDuration(delay)
	cfg.Daemon.Interval.Duration, _ = time.ParseDuration(interval)
	if storePath != cfg.StorePath() {
		cfg.Store.Path = storePath
	}

	path := configPath()
	if err := config.SaveFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `rurhook setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func notEmpty(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return errors.New("enter a whole number of at least 1")
	}
	return nil
}

func validDuration(s string) error {
	if _, err := time.ParseDuration(s); err != nil {
		return errors.New("enter a duration such as 2s or 1m")
	}
	return nil
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}
