// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kusari-oss/fixit/internal/core/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05"

// New builds a logger for the configured sink. Console lines go to console
// (normally stderr) as "timestamp  LEVEL  message  {fields}"; the file sink
// writes JSON lines through a rotating file; none discards everything.
func New(cfg config.LogConfig, console io.Writer) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var core zapcore.Core
	switch cfg.Sink {
	case "none":
		return zap.NewNop(), nil
	case "file":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, fmt.Errorf("error creating log directory: %w", err)
		}
		writer := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		core = zapcore.NewCore(encoder("json"), writer, level)
	case "console", "":
		if console == nil {
			console = os.Stderr
		}
		core = zapcore.NewCore(encoder(cfg.Format), zapcore.Lock(zapcore.AddSync(console)), level)
	default:
		return nil, fmt.Errorf("unknown log sink %q", cfg.Sink)
	}

	return zap.New(core, zap.AddStacktrace(zap.DPanicLevel)), nil
}

func encoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	if format == "json" {
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoderConfig.ConsoleSeparator = " - "
	encoderConfig.CallerKey = zapcore.OmitKey
	encoderConfig.NameKey = zapcore.OmitKey
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// Sync flushes the logger, ignoring the harmless errors returned when the
// console is a terminal or pipe
func Sync(logger *zap.Logger) {
	_ = logger.Sync()
}
