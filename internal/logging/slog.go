// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

package logging

import (
	"context"
	"log/slog"

	"github.com/rs/zerolog"
)

// slogHandler implements slog.Handler on top of the global zerolog logger.
// It exists so libraries that require an *slog.Logger (sutureslog) share the
// application's log output and level.
type slogHandler struct {
	logger zerolog.Logger
	attrs  []slog.Attr
}

// NewSlogLogger returns an *slog.Logger backed by the global zerolog logger.
func NewSlogLogger() *slog.Logger {
	return slog.New(&slogHandler{logger: Logger()})
}

// Enabled reports whether the handler handles records at the given level.
func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.logger.GetLevel() <= slogToZerologLevel(level)
}

// Handle writes the record through zerolog.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *slogHandler) Handle(_ context.Context, record slog.Record) error {
	var event *zerolog.Event
	switch {
	case record.Level >= slog.LevelError:
		event = h.logger.Error()
	case record.Level >= slog.LevelWarn:
		event = h.logger.Warn()
	case record.Level >= slog.LevelInfo:
		event = h.logger.Info()
	default:
		event = h.logger.Debug()
	}

	for _, attr := range h.attrs {
		event = event.Interface(attr.Key, attr.Value.Any())
	}
	record.Attrs(func(attr slog.Attr) bool {
		event = event.Interface(attr.Key, attr.Value.Any())
		return true
	})

	event.Msg(record.Message)
	return nil
}

// WithAttrs returns a new handler with the given attributes pre-applied.
func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &slogHandler{logger: h.logger, attrs: merged}
}

// WithGroup returns the handler unchanged; group nesting is flattened since
// zerolog output is a single-level JSON object here.
func (h *slogHandler) WithGroup(string) slog.Handler {
	return h
}

// slogToZerologLevel maps slog levels onto zerolog levels.
func slogToZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
