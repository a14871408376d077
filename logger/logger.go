// Package logger - builds the zap logger shared by the command line tools.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the logger.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `koanf:"level" json:"level"`
	// Format is json or console.
	Format string `koanf:"format" json:"format"`
}

// New builds a logger writing debug and info entries to stdout and warnings
// and errors to stderr.
//
// Arguments:
//   - cfg: The logger configuration.
//
// Returns:
//   - *zap.Logger: The logger.
//   - error: An error if the level or the format is unknown.
func New(cfg Config) (*zap.Logger, error) {
	return NewWithWriters(cfg, os.Stdout, os.Stderr)
}

// NewWithWriters is New with explicit destinations.
func NewWithWriters(cfg Config, stdout, stderr io.Writer) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		l, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
		}
		level = l
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "", "json":
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	case "console":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	default:
		return nil, errors.Errorf("invalid log format %q", cfg.Format)
	}

	// debug and info level enabler
	lowLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.WarnLevel
	})
	// warn, error and fatal level enabler
	highLevel := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l >= zapcore.WarnLevel
	})

	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(stdout)), lowLevel),
		zapcore.NewCore(encoder.Clone(), zapcore.Lock(zapcore.AddSync(stderr)), highLevel),
	)
	return zap.New(core), nil
}
