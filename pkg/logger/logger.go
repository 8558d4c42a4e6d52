package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Logger struct {
	*slog.Logger
}

// Option adjusts construction; tests use WithOutput to capture log lines.
type Option func(*options)

type options struct {
	out io.Writer
}

func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

func New(ctx context.Context, cfg *Config, opts ...Option) (*Logger, error) {
	if err := cfg.ValidateWithContext(ctx); err != nil {
		return nil, err
	}

	o := options{out: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}

	hopts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: cfg.WithSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case FormatText:
		handler = slog.NewTextHandler(o.out, hopts)
	default:
		handler = slog.NewJSONHandler(o.out, hopts)
	}

	base := slog.New(handler).With("service", cfg.ServiceName)
	return &Logger{base}, nil
}
