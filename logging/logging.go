// Package logging configures the global zerolog logger used by cmpimg.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls where log output goes and how verbose it is
type Options struct {
	Debug   bool
	Quiet   bool
	LogFile string
	Console io.Writer
}

var (
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
	out     *console
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	useConsole(os.Stderr)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// console serializes log records and status lines written to one terminal.
// A status line is redrawn in place with '\r'; the next log record first
// ends it so the two never share a line.
type console struct {
	mu      sync.Mutex
	w       io.Writer
	partial bool
}

type recordWriter struct{ c *console }

func (r recordWriter) Write(p []byte) (int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if r.c.partial {
		if _, err := io.WriteString(r.c.w, "\n"); err != nil {
			return 0, err
		}
		r.c.partial = false
	}
	return r.c.w.Write(p)
}

type statusWriter struct{ c *console }

func (s statusWriter) Write(p []byte) (int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	n, err := s.c.w.Write(p)
	if n > 0 {
		s.c.partial = p[n-1] != '\n'
	}
	return n, err
}

// useConsole points the console logger at w
func useConsole(w io.Writer) {
	out = &console{w: w}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: recordWriter{out}, TimeFormat: time.Kitchen})
}

// StatusWriter returns a writer for progress lines on the log console
func StatusWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return statusWriter{out}
}

// SetupLogger initializes the global logger. The console always receives
// human-readable output; when LogFile is set, JSON records are appended to it.
func SetupLogger(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	if isSetup {
		return nil
	}

	w := opts.Console
	if w == nil {
		w = os.Stderr
	}
	c := &console{w: w}
	writers := []io.Writer{zerolog.ConsoleWriter{Out: recordWriter{c}, TimeFormat: time.Kitchen}}

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}

	level := zerolog.InfoLevel
	switch {
	case opts.Debug:
		level = zerolog.DebugLevel
	case opts.Quiet:
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	out = c
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if logFile != nil {
		log.Debug().Str("logfile", opts.LogFile).Msg("cmpimg debug log started")
	}

	isSetup = true
	return nil
}

// CloseLogger closes the log file, if any, and restores the console logger
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		log.Debug().Msg("cmpimg debug log closed")
		logFile.Close()
		logFile = nil
	}
	useConsole(os.Stderr)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	isSetup = false
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	log.Info().Msgf(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	log.Debug().Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	log.Error().Msgf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	log.Warn().Msgf(format, args...)
}

// LogImageLoaded logs the outcome of decoding one input image
func LogImageLoaded(path string, err error) {
	if err != nil {
		log.Debug().Str("path", path).Err(err).Msg("FAILED")
		return
	}
	log.Debug().Str("path", path).Msg("LOADED")
}
