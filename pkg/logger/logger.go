package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	once sync.Once
)

// Init selects the log level once at start-up (debug, info, warn, error).
func Init(level string) {
	once.Do(func() {
		base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(level)}))
		slog.SetDefault(base)
	})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Infof(format string, v ...any) {
	base.Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	base.Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	base.Error(fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) {
	base.Debug(fmt.Sprintf(format, v...))
}

func Fatalf(format string, v ...any) {
	base.Error(fmt.Sprintf(format, v...))
	os.Exit(1)
}
