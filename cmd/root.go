package cmd

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/theirongolddev/rurhook/internal/config"
	"github.com/theirongolddev/rurhook/internal/logging"
	"github.com/theirongolddev/rurhook/internal/pipeline"
	"github.com/theirongolddev/rurhook/internal/store"

	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
	flagLogFile string
	flagNoStore bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "rurhook",
	Short: "Resource utilization reporting for batch jobs",
	Long: "Turn RUR plugin output into per-job resource lists for the batch\n" +
		"scheduler's accounting records, and keep an archive of processed jobs.",
	SilenceUsage: true,
}

// exitError carries a process exit status out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging in console format")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Don't read or write the accounting archive")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path()
}

func loadConfig() (config.Config, error) {
	return config.LoadFile(configPath())
}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(logging.Options{Verbose: flagVerbose, File: flagLogFile})
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

func loadSchema(cfg config.Config) (*config.Schema, error) {
	if cfg.Schema.File != "" {
		return config.LoadSchema(cfg.Schema.File)
	}
	return config.DefaultSchema()
}

// setup is the shared start of every command that processes reports.
func setup() (config.Config, pipeline.Options, error) {
	cfg, err := loadConfig()
	if err != nil {
		return cfg, pipeline.Options{}, err
	}
	logger, err := newLogger()
	if err != nil {
		return cfg, pipeline.Options{}, err
	}
	schema, err := loadSchema(cfg)
	if err != nil {
		return cfg, pipeline.Options{}, err
	}
	return cfg, pipeline.Options{Schema: schema, Logger: logger}, nil
}

// openStore opens the archive, or returns nil when it's disabled.
func openStore(cfg config.Config) (*store.Store, error) {
	if flagNoStore || !cfg.Store.Enabled {
		return nil, nil
	}
	return store.Open(cfg.StorePath())
}
