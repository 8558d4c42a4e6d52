package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"

	FormatJSON = "json"
	FormatText = "text"
)

var levels = map[string]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

func parseLevel(l string) slog.Level {
	if level, ok := levels[strings.ToLower(l)]; ok {
		return level
	}
	return slog.LevelInfo
}

func validLevel(value interface{}) error {
	l, _ := value.(string)
	if _, ok := levels[strings.ToLower(l)]; !ok {
		return fmt.Errorf("invalid log level: %s", l)
	}
	return nil
}

func validFormat(value interface{}) error {
	f, _ := value.(string)
	switch strings.ToLower(f) {
	case FormatJSON, FormatText:
		return nil
	default:
		return errors.New("invalid logger format")
	}
}
