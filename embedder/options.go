package embedder

import (
	"context"
	"log/slog"
	"time"

	"github.com/tenderhq/tender/cache"
)

type Option func(*Options)

type Options struct {
	ApiKey     string
	Model      string
	BaseUrl    string
	Dimension  int
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
	Cache      cache.Cache
	CacheTTL   time.Duration
	Logger     *slog.Logger
	Context    context.Context
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithBaseUrl(baseUrl string) Option {
	return func(o *Options) {
		o.BaseUrl = baseUrl
	}
}

func WithDimension(dimension int) Option {
	return func(o *Options) {
		o.Dimension = dimension
	}
}

func WithAttempts(attempts int) Option {
	return func(o *Options) {
		o.Attempts = attempts
	}
}

func WithRetryDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = delay
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

func WithCache(c cache.Cache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.CacheTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Model:      "all-minilm",
		BaseUrl:    "http://localhost:11434",
		Dimension:  384,
		Attempts:   3,
		RetryDelay: time.Second,
		Timeout:    60 * time.Second,
		CacheTTL:   time.Hour,
		Logger:     slog.Default(),
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
