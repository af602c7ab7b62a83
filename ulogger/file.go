package ulogger

import (
	"log"
	"os"
)

// NewFileLogger returns a zerolog logger writing JSON lines to a file.
// It falls back to the configured writer when the file cannot be opened.
func NewFileLogger(service string, options ...Option) Logger {
	opts := DefaultOptions()
	for _, o := range options {
		o(opts)
	}

	filename := opts.filename
	if filename == "" {
		if service == "" {
			service = "blocksync"
		}

		filename = service + ".log"
	}

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("failed to open log file %s, logging to writer instead: %v", filename, err)
		return NewZeroLogger(service, options...)
	}

	return NewZeroLogger(service, append(options, WithWriter(f))...)
}
