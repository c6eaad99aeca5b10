// Package logging builds the application's zap logger from configuration.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/fredcamaral/carousel/internal/domain/entities"
)

// Logger is a configured zap logger plus the resources it owns
type Logger struct {
	*zap.Logger
	file *os.File
}

// Close flushes buffered entries and releases the log file
func (l *Logger) Close() error {
	// Sync fails on terminals; only the file result matters
	_ = l.Sync()
	if l.file == nil {
		return nil
	}
	return multierr.Combine(l.file.Sync(), l.file.Close())
}

// New creates the logger described by cfg. Entries below error go to stdout,
// errors go to stderr, and everything at the configured level is also
// written to cfg.File when set.
func New(cfg entities.LoggingConfig) (*Logger, error) {
	return build(cfg, os.Stdout, os.Stderr)
}

func build(cfg entities.LoggingConfig, stdout, stderr io.Writer) (*Logger, error) {
	level, err := zapcore.ParseLevel(string(cfg.GetLevel()))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	low := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return level <= l && l < zapcore.ErrorLevel
	})
	high := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= zapcore.ErrorLevel && l >= level
	})

	cores := []zapcore.Core{
		zapcore.NewCore(encoder(cfg, stdout), zapcore.Lock(zapcore.AddSync(stdout)), low),
		zapcore.NewCore(encoder(cfg, stderr), zapcore.Lock(zapcore.AddSync(stderr)), high),
	}

	out := &Logger{}
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 - path comes from validated config
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", cfg.File, err)
		}
		out.file = f
		fileEnc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		cores = append(cores, zapcore.NewCore(fileEnc, zapcore.Lock(f), zap.NewAtomicLevelAt(level)))
	}

	opts := []zap.Option{zap.AddCaller()}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	out.Logger = zap.New(zapcore.NewTee(cores...), opts...).Named("carousel")
	return out, nil
}

func encoder(cfg entities.LoggingConfig, w io.Writer) zapcore.Encoder {
	if cfg.JSONFormat {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	if isTerminal(w) {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		ec.TimeKey = zapcore.OmitKey
	} else {
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	return zapcore.NewConsoleEncoder(ec)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
