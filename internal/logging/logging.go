// Package logging builds the zap loggers used by the commands.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls logger construction.
type Options struct {
	// Verbose switches to a human-readable console encoder at debug level.
	Verbose bool
	// File, when set, receives log output instead of stderr. Scheduler hooks
	// have their stderr discarded, so the hook logs to a file.
	File string
}

// New builds a logger from opts.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return cfg.Build()
}
