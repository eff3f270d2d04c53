// Package rtlog is this repo's logging helper: it reaches for the
// standard `log` package at call sites that need visibility rather
// than a structured logging framework.
//
// Logger wraps *log.Logger with the two verbosity tiers a component
// here actually needs: Debugf for optional tracing a caller can
// silence, and Fatalf for the unrecoverable-invariant-violation report
// shape spec.md §7 and `original_source/go-panic.c`'s runtime_throw
// describe (header line, then exit).
package rtlog

import (
	"fmt"
	"log"
	"os"
)

// Logger is this package's log sink. The zero value is not usable;
// construct one with New, or use Default for the package-wide default.
type Logger struct {
	out     *log.Logger
	debug   bool
	onFatal func(code int) // overridden in tests; os.Exit otherwise
}

// New builds a Logger writing through out (a stderr logger with the
// standard flags when out is nil). debug controls whether Debugf calls
// actually print.
func New(out *log.Logger, debug bool) *Logger {
	if out == nil {
		out = log.New(os.Stderr, "", log.LstdFlags)
	}
	return &Logger{out: out, debug: debug, onFatal: os.Exit}
}

// defaultLogger is what every component falls back to when handed a
// nil *Logger, the usual nil-options-means-defaults convention for a
// pointer-to-struct argument.
var defaultLogger = New(nil, false)

// Default returns l if non-nil, else the package default. panicrec's
// fatal reporter reaches the package default this way, with
// `rtlog.Default(nil)`.
func Default(l *Logger) *Logger {
	if l != nil {
		return l
	}
	return defaultLogger
}

// Debugf logs a tracing message when debug logging is enabled; a
// no-op otherwise, so callers need not guard every call site.
func (l *Logger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.out.Output(2, "DEBUG: "+fmt.Sprintf(format, args...))
}

// Printf logs unconditionally, for the handful of always-visible
// notices a component wants seen regardless of debug mode.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.out.Output(2, fmt.Sprintf(format, args...))
}

// Fatalf reports an unrecoverable runtime error and exits with status
// 2. It writes one "FATAL: " line holding the formatted message and
// then exits; it adds no stack trace or memory statistics of its own.
// panicrec.Throw does not go through Fatalf: panicrec's default fatal
// reporter logs with Printf and exits through its own hook.
func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.out.Output(2, "FATAL: "+fmt.Sprintf(format, args...))
	l.onFatal(2)
}
