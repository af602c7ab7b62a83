// Package ulogger wraps the logging backends used by blocksync behind a single interface.
package ulogger

import (
	"strings"

	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
)

type Logger interface {
	LogLevel() int
	SetLogLevel(level string)
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	New(service string, options ...Option) Logger
	Duplicate(options ...Option) Logger
}

const defaultService = "blocksync"

// level pairs a zerolog level with the gocore level number LogLevel reports.
type level struct {
	zerolog zerolog.Level
	code    int
}

var levels = map[string]level{
	"DEBUG": {zerolog.DebugLevel, int(gocore.DEBUG)},
	"INFO":  {zerolog.InfoLevel, int(gocore.INFO)},
	"WARN":  {zerolog.WarnLevel, int(gocore.WARN)},
	"ERROR": {zerolog.ErrorLevel, int(gocore.ERROR)},
	"FATAL": {zerolog.FatalLevel, int(gocore.FATAL)},
	"PANIC": {zerolog.PanicLevel, int(gocore.FATAL)},
}

// parseLevel falls back to INFO for names it does not know.
func parseLevel(name string) level {
	if l, ok := levels[strings.ToUpper(name)]; ok {
		return l
	}

	return levels["INFO"]
}

func levelCode(zl zerolog.Level) int {
	for _, l := range levels {
		if l.zerolog == zl {
			return l.code
		}
	}

	return levels["INFO"].code
}

// New returns a logger for service using the backend selected by WithLoggerType.
func New(service string, options ...Option) Logger {
	if service == "" {
		service = defaultService
	}

	opts := newOptions(options...)

	switch opts.loggerType {
	case "gocore":
		return NewGoCoreLogger(service, options...)
	case "file":
		return NewFileLogger(service, options...)
	default:
		return NewZeroLogger(service, options...)
	}
}
