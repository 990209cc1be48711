// Copyright 2017 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log implements leveled logging on top of Go's standard log
// package. The compiler traces emitted instructions at DebugLevel;
// the dectree command configures the level from its configuration
// or its -log flag, and prefixes messages with the definition they
// concern.
package log

import (
	"fmt"
	"strings"
)

// Level defines the level of logging. Higher levels are more
// verbose.
type Level int

const (
	// OffLevel turns logging off.
	OffLevel Level = iota
	// ErrorLevel outputs only error messages.
	ErrorLevel
	// InfoLevel is the standard error level.
	InfoLevel
	// DebugLevel outputs detailed debugging output.
	DebugLevel
)

var levelNames = [...]string{
	OffLevel:   "off",
	ErrorLevel: "error",
	InfoLevel:  "info",
	DebugLevel: "debug",
}

// String returns the flag spelling of level l.
func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// ParseLevel returns the level named by s: one of off, error, info,
// or debug.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil
		}
	}
	return OffLevel, fmt.Errorf("unrecognized log level %q", s)
}

// An Outputter receives published log messages. Go's
// *log.Logger implements Outputter.
type Outputter interface {
	Output(calldepth int, s string) error
}

// A Logger publishes messages at or below its level to its
// outputter. Nil Loggers ignore all log messages, so that a nil
// logger may be passed where logging is off.
type Logger struct {
	Outputter
	Level Level

	prefix string
}

// New creates a new Logger that publishes messsages at or below the
// provided level to the provided outputter. New returns nil for
// OffLevel.
func New(out Outputter, level Level) *Logger {
	if level == OffLevel {
		return nil
	}
	return &Logger{Outputter: out, Level: level}
}

// Prefix returns a logger that publishes to the same outputter, at
// the same level, with messages prefixed by prefix.
func (l *Logger) Prefix(prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{Outputter: l.Outputter, Level: l.Level, prefix: l.prefix + prefix}
}

// Print logs its arguments, formatted by fmt.Sprint, at InfoLevel.
func (l *Logger) Print(v ...interface{}) { l.publish(InfoLevel, fmt.Sprint(v...)) }

// Printf logs at InfoLevel.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.publish(InfoLevel, fmt.Sprintf(format, args...))
}

// Error logs its arguments, formatted by fmt.Sprint, at ErrorLevel.
func (l *Logger) Error(v ...interface{}) { l.publish(ErrorLevel, fmt.Sprint(v...)) }

// Errorf logs at ErrorLevel.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.publish(ErrorLevel, fmt.Sprintf(format, args...))
}

// Debug logs its arguments, formatted by fmt.Sprint, at DebugLevel.
func (l *Logger) Debug(v ...interface{}) { l.publish(DebugLevel, fmt.Sprint(v...)) }

// Debugf logs at DebugLevel. The compiler uses it to trace the
// instructions it emits.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.publish(DebugLevel, fmt.Sprintf(format, args...))
}

// At tells whether messages at level are published. It is false
// for a nil logger.
func (l *Logger) At(level Level) bool {
	return l != nil && level <= l.Level
}

func (l *Logger) publish(level Level, s string) {
	if !l.At(level) || l.Outputter == nil {
		return
	}
	// Skip publish and the exported method.
	l.Output(3, l.prefix+s)
}
