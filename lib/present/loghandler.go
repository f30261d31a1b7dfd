// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package present

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
)

// LogHandler is a slog.Handler that prints log records above the
// inline program's progress line instead of writing to stderr, where
// they would tear the inline view. Records below the configured level
// are silently dropped.
//
// The handler must be created before the program starts. Call
// SetProgram once the Program is created to enable delivery. Records
// arriving before SetProgram is called are dropped.
//
// All handlers derived via WithAttrs/WithGroup share the same program
// pointer, so a single SetProgram call propagates to every derived
// handler.
type LogHandler struct {
	level   slog.Leveler
	program *atomic.Pointer[Program]
	attrs   []slog.Attr
	groups  []string
}

// NewLogHandler creates a handler that delivers records at or above
// level to the program.
func NewLogHandler(level slog.Leveler) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[Program]{},
	}
}

// SetProgram sets the program that receives log records. Safe to call
// from any goroutine.
func (handler *LogHandler) SetProgram(program *Program) {
	handler.program.Store(program)
}

// Enabled reports whether the handler is interested in records at the
// given level.
func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level.Level()
}

// Handle formats the record as "message (key=value, ...)" and prints
// it. If the program has not been set yet, the record is dropped.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}
	program.showLog(record.Level, handler.summary(record))
	return nil
}

// summary builds the one-line form of a record.
func (handler *LogHandler) summary(record slog.Record) string {
	prefix := strings.Join(handler.groups, ".")
	if prefix != "" {
		prefix += "."
	}

	var attrParts []string
	// Handler-level attrs first (from WithAttrs), then record attrs.
	for _, attr := range handler.attrs {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	if len(attrParts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(attrParts, ", ") + ")"
}

// WithAttrs returns a new handler with the given attributes appended.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := strings.Join(handler.groups, ".")
	if prefix != "" {
		qualified := make([]slog.Attr, len(attrs))
		for index, attr := range attrs {
			qualified[index] = slog.Attr{Key: prefix + "." + attr.Key, Value: attr.Value}
		}
		attrs = qualified
	}
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append(sliceClone(handler.attrs), attrs...),
		groups:  sliceClone(handler.groups),
	}
}

// WithGroup returns a new handler with the given group name appended.
func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	return &LogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   sliceClone(handler.attrs),
		groups:  append(sliceClone(handler.groups), name),
	}
}

// sliceClone returns a shallow copy of a slice. Avoids aliasing when
// building derived handlers with WithAttrs/WithGroup.
func sliceClone[T any](source []T) []T {
	if source == nil {
		return nil
	}
	result := make([]T, len(source))
	copy(result, source)
	return result
}
