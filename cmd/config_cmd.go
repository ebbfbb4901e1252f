// Package cmd implements the rurhook CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/rurhook/internal/config"
	"github.com/theirongolddev/rurhook/internal/model"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists(path) {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Report]")
	fmt.Printf("    Directory: %s\n", cfg.Report.Dir)
	fmt.Printf("    Pattern:   %s\n", cfg.Report.Pattern)
	fmt.Printf("    Attempts:  %d, %s apart\n", cfg.Report.Attempts, cfg.Report.Delay)
	fmt.Println()

	fmt.Println("  [Scheduler]")
	fmt.Printf("    Config file: %s\n", cfg.Scheduler.ConfFile)
	sched, err := config.ReadScheduler(cfg.Scheduler.ConfFile, os.Getenv)
	if err != nil {
		fmt.Printf("    Error:       %v\n", err)
	} else {
		if sched.Home != "" {
			fmt.Printf("    PBS_HOME:    %s\n", sched.Home)
		}
		if sched.Server != "" {
			fmt.Printf("    PBS_SERVER:  %s\n", sched.Server)
		}
		if sched.JobID != "" {
			fmt.Printf("    Report path: %s\n", cfg.ReportPath(sched))
		}
	}
	fmt.Println()

	fmt.Println("  [Store]")
	if cfg.Store.Enabled {
		fmt.Printf("    Archive: %s\n", cfg.StorePath())
	} else {
		fmt.Println("    Archive: disabled")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  http://%s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %s\n", cfg.Daemon.Interval)
	fmt.Println()

	schema, err := loadSchema(cfg)
	if err != nil {
		return err
	}
	fmt.Println("  [Schema]")
	if cfg.Schema.File != "" {
		fmt.Printf("    File: %s\n", cfg.Schema.File)
	} else {
		fmt.Println("    File: built-in")
	}
	for _, kind := range model.Plugins {
		prefix := schema.Prefix(kind)
		if prefix == "" {
			prefix = "-"
		}
		fmt.Printf("    %-10s prefix %-5s %d fields\n", kind, prefix, len(schema.Fields(kind)))
	}
	fmt.Println()

	fmt.Println("  Run `rurhook setup` to reconfigure.")
	return nil
}
