// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package logging provides the pluggable debug/guiding log sinks, mirroring
// PHD2's split between debug.log (phdlog.cpp) and guide.log (guidinglog.cpp).
package logging

import (
	"fmt"
	"io"
	"time"
)

// Logger is implemented by every log sink the engine writes to. Debugf
// carries verbose, per-tick detail; Guidef carries the one-line-per-frame
// guiding summary that an operator would want to scroll through later.
type Logger interface {
	Debugf(format string, args ...any)
	Guidef(format string, args ...any)
}

// Nop discards everything. Useful as a default in tests.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Guidef(string, ...any) {}

// WriterLogger writes timestamped lines to an underlying io.Writer,
// following the same fmt.Fprintf(logWriter, ...) idiom the teacher uses to
// drive its job log (internal/rest/serve.go's printOp, cmd's -log file).
type WriterLogger struct {
	Debug io.Writer
	Guide io.Writer
	Now   func() time.Time // overridable for deterministic tests
}

// NewWriterLogger returns a logger writing debug lines to debug and guide
// lines to guide. Either may be io.Discard.
func NewWriterLogger(debug, guide io.Writer) *WriterLogger {
	return &WriterLogger{Debug: debug, Guide: guide, Now: time.Now}
}

func (l *WriterLogger) writeLine(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	fmt.Fprintf(w, "%s %s\n", now().Format("2006-01-02 15:04:05.000"), fmt.Sprintf(format, args...))
}

func (l *WriterLogger) Debugf(format string, args ...any) { l.writeLine(l.Debug, format, args...) }
func (l *WriterLogger) Guidef(format string, args ...any) { l.writeLine(l.Guide, format, args...) }

// Multi fans out every call to all of its members, the way a caller might
// want both a file sink and an in-memory ring buffer for a status panel.
type Multi []Logger

func NewMultiLogger(loggers ...Logger) Multi { return Multi(loggers) }

func (m Multi) Debugf(format string, args ...any) {
	for _, l := range m {
		l.Debugf(format, args...)
	}
}

func (m Multi) Guidef(format string, args ...any) {
	for _, l := range m {
		l.Guidef(format, args...)
	}
}
