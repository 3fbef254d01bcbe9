package main

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/bamsammich/pdd/internal/ui"
)

// setupLogging installs the default slog logger: text on stderr at the
// requested level, fanned out to a rotating JSON log when logFile is set.
// The returned func closes the log file.
func setupLogging(stderr io.Writer, level slog.Level, logFile string) func() {
	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})
	if logFile == "" {
		slog.SetDefault(slog.New(textHandler))
		return func() {}
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		Compress:   false,
	}
	jsonHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: slog.LevelDebug})
	slog.SetDefault(slog.New(ui.NewMultiHandler(textHandler, jsonHandler)))
	return func() { _ = rotator.Close() }
}

func logLevel(verbose, debug, quiet bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
