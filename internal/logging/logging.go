// Package logging builds the zap loggers used across robosim.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// New builds a logger at the given level ("debug", "info", ...) writing in
// the given format to paths, stderr when none is given.
func New(level, format string, paths ...string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		paths = []string{"stderr"}
	}

	var enc zapcore.EncoderConfig
	switch format {
	case FormatJSON, "":
		format = FormatJSON
		enc = zap.NewProductionEncoderConfig()
	case FormatConsole:
		enc = zap.NewDevelopmentEncoderConfig()
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown format %q", format)
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(lvl),
		Development: false,
		Sampling: &zap.SamplingConfig{
			Initial:    100,
			Thereafter: 100,
		},
		Encoding:         format,
		EncoderConfig:    enc,
		OutputPaths:      paths,
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}
	return config.Build()
}
