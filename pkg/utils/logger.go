package utils

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// InitLogger writes JSON (console in debug) to stdout and to a rotated
// <LogPath>/<Name>.log. Every entry carries the app name.
func InitLogger(cfg AppConfig) (*zap.Logger, error) {
	level, err := logLevel(cfg)
	if err != nil {
		return nil, err
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if cfg.LogPath != "" {
		file, err := rotatingFile(cfg.LogPath, cfg.Name)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, file)
	}

	encoder := logEncoder(cfg.Debug)
	cores := make([]zapcore.Core, 0, len(sinks))
	for _, sink := range sinks {
		cores = append(cores, zapcore.NewCore(encoder, sink, level))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if cfg.Name != "" {
		logger = logger.With(zap.String("app", cfg.Name))
	}
	return logger, nil
}

func logLevel(cfg AppConfig) (zapcore.Level, error) {
	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		return level, nil
	}
	if cfg.Debug {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

func logEncoder(debug bool) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	if debug {
		ec = zap.NewDevelopmentEncoderConfig()
	}
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if debug {
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func rotatingFile(dir, name string) (zapcore.WriteSyncer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if name == "" {
		name = "booking-engine"
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, name+".log"),
		MaxSize:    10, // MB
		MaxBackups: 7,
		MaxAge:     28, // days
		Compress:   true,
	}), nil
}
