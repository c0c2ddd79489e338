// Package logging builds the structured logger and human-facing phase
// banners SPEC_FULL.md's ambient stack calls for: go.uber.org/zap for
// structured fields (subformula counts, timing, solver statistics) and
// github.com/fatih/color for the console phase notices the Python
// original prints via common.colourinfo/colouroutput/colourerror
// (e.g. "Encoding scheduler...", "Encoding stutter-scheduler...").
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a console-encoded zap.Logger. verbose selects debug level
// (every encoder phase and the solver round trip logs at Debug);
// non-verbose runs log at Info and above only.
func New(verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	cfg.EncoderConfig.TimeKey = "" // timestamps add noise to a CLI's stderr stream

	return cfg.Build()
}
