// Copyright (c) 2025 Tulir Asokan
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package waLog contains a simple logger interface used by the other msgbackup packages.
package waLog

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const (
	// Timestamp format
	timeFormat = "15:04:05.000"

	DebugLevel = "DEBUG" // Loggers initialized with DebugLevel will output Debugf(), Infof(), Warnf() and Errorf().
	InfoLevel  = "INFO"  // Loggers initialized with InfoLevel will output Infof(), Warnf() and Errorf().
	WarnLevel  = "WARN"  // Loggers initialized with WarnLevel will output Warnf() and Errorf().
	ErrorLevel = "ERROR" // Loggers initialized with ErrorLevel will output Errorf().
)

// Logger is a simple logger interface that can have subloggers for specific areas.
type Logger interface {
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
	Sub(module string) Logger
}

type noopLogger struct{}

func (n *noopLogger) Errorf(_ string, _ ...interface{}) {}
func (n *noopLogger) Warnf(_ string, _ ...interface{})  {}
func (n *noopLogger) Infof(_ string, _ ...interface{})  {}
func (n *noopLogger) Debugf(_ string, _ ...interface{}) {}
func (n *noopLogger) Sub(_ string) Logger               { return n }

// Noop is a no-op Logger implementation that silently drops everything.
var Noop Logger = &noopLogger{}

type stdoutLogger struct {
	mod   string
	color bool
	min   int
	out   io.Writer
	lock  *sync.Mutex
}

var colors = map[string]string{
	InfoLevel:  "\033[36m",
	WarnLevel:  "\033[33m",
	ErrorLevel: "\033[31m",
}

var levelToInt = map[string]int{
	"":         -1,
	DebugLevel: 0,
	InfoLevel:  1,
	WarnLevel:  2,
	ErrorLevel: 3,
}

func (s *stdoutLogger) outputf(level, msg string, args ...interface{}) {
	if !shouldOutput(s.min, level) {
		return
	}
	var colorStart, colorReset string
	if s.color {
		colorStart = colors[level]
		colorReset = "\033[0m"
	}
	s.lock.Lock()
	_, _ = fmt.Fprintf(s.out, "%s%s [%s %s] %s%s\n", time.Now().Format(timeFormat), colorStart, s.mod, level, fmt.Sprintf(msg, args...), colorReset)
	s.lock.Unlock()
}

func (s *stdoutLogger) Errorf(msg string, args ...interface{}) { s.outputf(ErrorLevel, msg, args...) }
func (s *stdoutLogger) Warnf(msg string, args ...interface{})  { s.outputf(WarnLevel, msg, args...) }
func (s *stdoutLogger) Infof(msg string, args ...interface{})  { s.outputf(InfoLevel, msg, args...) }
func (s *stdoutLogger) Debugf(msg string, args ...interface{}) { s.outputf(DebugLevel, msg, args...) }

// Sub returns a sub-logger which uses the passed-in module name as a tag.
func (s *stdoutLogger) Sub(mod string) Logger {
	return &stdoutLogger{mod: sub(s.mod, mod), color: s.color, min: s.min, out: s.out, lock: s.lock}
}

// Stdout is a simple Logger implementation that outputs to stdout. The module name given is
// included in log lines.
//
// minLevel specifies the minimum log level to output. color can be used to enable coloring
// of the different log levels with ANSI escape codes.
func Stdout(module string, minLevel string, color bool) Logger {
	return Writer(os.Stdout, module, minLevel, color)
}

// Writer is like Stdout, but outputs to the given writer.
func Writer(out io.Writer, module string, minLevel string, color bool) Logger {
	return &stdoutLogger{mod: module, color: color, min: levelToInt[strings.ToUpper(minLevel)], out: out, lock: &sync.Mutex{}}
}

// sub is a helper to consistently propagate the name of a submodule for all loggers.
func sub(existing, new string) string {
	out := existing
	if out != "" && new != "" {
		out += "/"
	}
	out += new
	return out
}

// shouldOutput returns true when the the logger's level vs. the message's level indicates
// that the log should be sent.
func shouldOutput(loggerLevel int, messageLevel string) bool {
	return levelToInt[messageLevel] >= loggerLevel
}
