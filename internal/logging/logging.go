package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a JSON slog logger writing to stderr and, when file is set, to
// a size-rotated log file as well.
func New(level, file string) *slog.Logger {
	var out io.Writer = os.Stderr
	if file != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
