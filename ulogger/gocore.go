package ulogger

import (
	"github.com/ordishs/gocore"
)

// GoCoreLogger logs through gocore. Its level is fixed when it is created.
type GoCoreLogger struct {
	*gocore.Logger
	skipFrame int
}

func NewGoCoreLogger(service string, options ...Option) *GoCoreLogger {
	if service == "" {
		service = defaultService
	}

	opts := newOptions(options...)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, gocore.NewLogLevelFromString(opts.logLevel)),
		skipFrame: opts.skip,
	}
}

func (g *GoCoreLogger) New(service string, options ...Option) Logger {
	opts := newOptions(append([]Option{WithSkipFrame(g.skipFrame)}, options...)...)

	return &GoCoreLogger{
		Logger:    gocore.Log(service, g.Logger.GetLogLevel()),
		skipFrame: opts.skip,
	}
}

func (g *GoCoreLogger) Duplicate(options ...Option) Logger {
	opts := newOptions(append([]Option{WithSkipFrame(g.skipFrame)}, options...)...)

	return &GoCoreLogger{Logger: g.Logger, skipFrame: opts.skip}
}

func (g *GoCoreLogger) SetLogLevel(string) {}
