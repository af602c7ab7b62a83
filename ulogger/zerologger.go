package ulogger

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/ordishs/gocore"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	colorRed    = 31
	colorGreen  = 32
	colorYellow = 33
	colorBlue   = 34
	colorWhite  = 37
	colorBold   = 1

	callerWidth = 32
)

var levelColors = map[string]int{
	"debug": colorBlue,
	"info":  colorGreen,
	"warn":  colorYellow,
	"error": colorRed,
	"fatal": colorRed,
	"panic": colorRed,
}

var sentryOnce sync.Once

// ZLoggerWrapper logs through zerolog. Output to stdout is pretty printed unless PRETTY_LOGS is false,
// any other writer gets JSON lines.
type ZLoggerWrapper struct {
	zerolog.Logger
	service string
	opts    *Options
}

func NewZeroLogger(service string, options ...Option) *ZLoggerWrapper {
	if service == "" {
		service = defaultService
	}

	opts := newOptions(options...)

	initSentry()

	var zl zerolog.Logger

	if opts.writer == os.Stdout && gocore.Config().GetBool("PRETTY_LOGS", true) {
		zl = zerolog.New(newConsoleWriter(service)).With().
			CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1 + opts.skip).
			Timestamp().
			Logger()
	} else {
		zl = zerolog.New(opts.writer).With().
			Str("service", service).
			CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1 + opts.skip).
			Timestamp().
			Logger()
	}

	z := &ZLoggerWrapper{Logger: zl, service: service, opts: opts}
	z.SetLogLevel(opts.logLevel)

	return z
}

// initSentry hooks sentry in once per process when sentry_dsn is configured.
func initSentry() {
	sentryOnce.Do(func() {
		dsn, ok := gocore.Config().Get("sentry_dsn")
		if !ok || dsn == "" {
			return
		}

		rateStr, _ := gocore.Config().Get("sentry_traces_sample_rate", "1.0")

		rate, err := strconv.ParseFloat(rateStr, 64)
		if err != nil {
			log.Fatalf("failed to parse sentry_traces_sample_rate %q: %v", rateStr, err)
		}

		serverName, _ := gocore.Config().Get("SERVICE_NAME", defaultService)

		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			ServerName:       serverName,
			TracesSampleRate: rate,
		}); err != nil {
			log.Fatalf("sentry.Init: %v", err)
		}
	})
}

func newConsoleWriter(service string) zerolog.ConsoleWriter {
	noColor := !term.IsTerminal(int(os.Stdout.Fd())) || os.Getenv("NO_COLOR") != ""

	return zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    noColor,
		TimeFormat: time.RFC3339,
		FormatTimestamp: func(i interface{}) string {
			ts, _ := i.(string)
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return ts
			}

			return parsed.Format("15:04:05")
		},
		FormatLevel: func(i interface{}) string {
			name, _ := i.(string)
			return "| " + colorize(strings.ToUpper(fmt.Sprintf("%-6s", name)), levelColor(name), noColor) + "|"
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("| %-9s| %s", service, i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
		FormatCaller: func(i interface{}) string {
			caller, _ := i.(string)
			if caller == "" {
				return ""
			}

			return colorize(fmt.Sprintf("%-*s", callerWidth, shortCaller(caller)), colorBold, noColor)
		},
	}
}

func levelColor(name string) int {
	if c, ok := levelColors[name]; ok {
		return c
	}

	return colorWhite
}

// shortCaller trims a caller path to its trailing elements, keeping at most callerWidth characters.
func shortCaller(caller string) string {
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, caller); err == nil {
			caller = rel
		}
	}

	parts := strings.Split(caller, "/")
	short := parts[len(parts)-1]

	for i := len(parts) - 2; i >= 0; i-- {
		if len(short)+len(parts[i])+1 > callerWidth {
			break
		}

		short = parts[i] + "/" + short
	}

	return short
}

func colorize(s string, c int, disabled bool) string {
	if disabled || c == 0 {
		return s
	}

	return fmt.Sprintf("\x1b[%dm%s\x1b[0m", c, s)
}

// New creates a logger for another service that shares this logger's writer and level.
func (z *ZLoggerWrapper) New(service string, options ...Option) Logger {
	inherited := *z.opts
	inherited.logLevel = z.Logger.GetLevel().String()

	return NewZeroLogger(service, append(inherited.asOptions(), options...)...)
}

func (z *ZLoggerWrapper) Duplicate(options ...Option) Logger {
	opts := newOptions(append([]Option{WithLevel(z.Logger.GetLevel().String())}, options...)...)

	dup := &ZLoggerWrapper{Logger: z.Logger, service: z.service, opts: z.opts}
	dup.SetLogLevel(opts.logLevel)

	return dup
}

func (z *ZLoggerWrapper) SetLogLevel(logLevel string) {
	z.Logger = z.Logger.Level(parseLevel(logLevel).zerolog)
}

func (z *ZLoggerWrapper) LogLevel() int {
	return levelCode(z.Logger.GetLevel())
}

func (z *ZLoggerWrapper) Debugf(format string, args ...interface{}) {
	z.Logger.Debug().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Infof(format string, args ...interface{}) {
	z.Logger.Info().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Warnf(format string, args ...interface{}) {
	z.Logger.Warn().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Errorf(format string, args ...interface{}) {
	z.Logger.Error().Msgf(format, args...)
}

func (z *ZLoggerWrapper) Fatalf(format string, args ...interface{}) {
	z.Logger.Fatal().Msgf(format, args...)
}
