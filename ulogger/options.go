package ulogger

import (
	"io"
	"os"
)

type Options struct {
	logLevel   string
	loggerType string
	writer     io.Writer
	filename   string
	skip       int
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		logLevel:   "INFO",
		loggerType: "zerolog",
		writer:     os.Stdout,
	}
}

func newOptions(options ...Option) *Options {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	return opts
}

// asOptions turns resolved options back into a list, so children inherit their parent's settings.
func (o *Options) asOptions() []Option {
	return []Option{
		WithLevel(o.logLevel),
		WithLoggerType(o.loggerType),
		WithWriter(o.writer),
		WithFilename(o.filename),
		WithSkipFrame(o.skip),
	}
}

func WithLevel(level string) Option {
	return func(o *Options) {
		o.logLevel = level
	}
}

func WithLoggerType(loggerType string) Option {
	return func(o *Options) {
		o.loggerType = loggerType
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

// WithFilename sets the file the "file" logger appends to, defaults to <service>.log.
func WithFilename(filename string) Option {
	return func(o *Options) {
		o.filename = filename
	}
}

func WithSkipFrame(skip int) Option {
	return func(o *Options) {
		o.skip = skip
	}
}
