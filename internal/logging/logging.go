// Package logging configures the global zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go.
type Options struct {
	Dir     string    // rotating log file directory, empty disables the file
	File    string    // file name inside Dir
	Debug   bool      // debug level instead of info
	Console io.Writer // human-readable copy, usually os.Stderr; nil disables
}

// Init replaces the global logger. Library code logs through
// github.com/rs/zerolog/log and never writes to stdout.
func Init(opts Options) error {
	var writers []io.Writer

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o750); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, opts.File),
			MaxSize:    1,
			MaxBackups: 2,
		})
	}
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        opts.Console,
			TimeFormat: time.TimeOnly,
		})
	}

	SetDebug(opts.Debug)

	out := io.Discard
	if len(writers) > 0 {
		out = io.MultiWriter(writers...)
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return nil
}

// SetDebug switches the global level between debug and info without
// touching the writers.
func SetDebug(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}
