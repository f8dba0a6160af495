package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"bookshelf/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encoderConfig(production bool) zapcore.EncoderConfig {
	zapConfig := zap.NewDevelopmentEncoderConfig()
	if production {
		zapConfig = zap.NewProductionEncoderConfig()
	}
	zapConfig.TimeKey = "timestamp"
	zapConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.LevelKey = "level"
	zapConfig.NameKey = "name"
	zapConfig.MessageKey = "msg"
	zapConfig.CallerKey = "caller"
	zapConfig.StacktraceKey = "stacktrace"
	return zapConfig
}

// Setup initializes the logging module. In production logs are JSON encoded to
// standard output. In development they are printed with the console encoder.
// When a log file is configured the same entries are also appended to it as JSON.
// Stacktraces are only attached from error level. All logs come with commit &
// tag value. The returned function flushes buffered entries and closes the file.
func Setup(cfg *config.Config) (*zap.Logger, func(), error) {
	zapConfig := encoderConfig(cfg.IsProduction)

	var cores []zapcore.Core
	if cfg.IsProduction {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zapConfig), zapcore.AddSync(os.Stdout), cfg.LogLevel))
	} else {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(zapConfig), zapcore.AddSync(os.Stdout), cfg.LogLevel))
	}

	var logFile *os.File
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create logging folder: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create logging file: %w", err)
		}
		logFile = f
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(zapConfig), zapcore.AddSync(logFile), cfg.LogLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	logger = logger.With(zap.String("app.commit", cfg.GitCommit), zap.String("app.tag", cfg.GitTag))

	flusher := func() {
		// Sync on a terminal stdout returns EINVAL on linux so errors are only reported for the file.
		_ = logger.Sync()
		if logFile == nil {
			return
		}
		if err := logFile.Sync(); err != nil {
			log.Println("error during flushing of log file:", err)
		}
		if err := logFile.Close(); err != nil {
			log.Println("error during closing of log file:", err)
		}
	}

	return logger, flusher, nil
}
