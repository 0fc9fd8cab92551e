package extractor

import (
	"context"
	"log/slog"
)

type Option func(*Options)

type Options struct {
	Logger  *slog.Logger
	Context context.Context
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Logger:  slog.Default(),
		Context: context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
