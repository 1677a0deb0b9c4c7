// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// SlogHandler is a slog.Handler writing to zerolog. sutureslog needs a
// *slog.Logger; this keeps supervisor events in the same stream.
type SlogHandler struct {
	logger zerolog.Logger
	attrs  []boundAttr
	prefix string
}

// boundAttr remembers the group prefix in effect when the attr was added.
type boundAttr struct {
	prefix string
	attr   slog.Attr
}

// NewSlogHandlerWithLogger wraps logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewSlogHandlerWithLogger(logger zerolog.Logger) *SlogHandler {
	return &SlogHandler{logger: logger}
}

// NewSlogLogger returns a *slog.Logger backed by logger.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewSlogLogger(logger zerolog.Logger) *slog.Logger {
	return slog.New(NewSlogHandlerWithLogger(logger))
}

// Enabled implements slog.Handler.
func (h *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	zl := zerologLevel(level)
	return zl >= h.logger.GetLevel() && zl >= zerolog.GlobalLevel()
}

// Handle implements slog.Handler.
//
//nolint:gocritic // slog.Record is passed by value per slog.Handler interface
func (h *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	event := h.logger.WithLevel(zerologLevel(record.Level))
	if event == nil {
		return nil
	}
	for _, b := range h.attrs {
		appendAttr(event, b.prefix, b.attr)
	}
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(event, h.prefix, a)
		return true
	})
	event.Msg(record.Message)
	return nil
}

// WithAttrs implements slog.Handler.
func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]boundAttr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, boundAttr{prefix: h.prefix, attr: a})
	}
	return &next
}

// WithGroup implements slog.Handler. Grouped keys are flattened with dots.
func (h *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func appendAttr(event *zerolog.Event, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := prefix + a.Key

	switch a.Value.Kind() {
	case slog.KindString:
		event.Str(key, a.Value.String())
	case slog.KindInt64:
		event.Int64(key, a.Value.Int64())
	case slog.KindUint64:
		event.Uint64(key, a.Value.Uint64())
	case slog.KindFloat64:
		event.Float64(key, a.Value.Float64())
	case slog.KindBool:
		event.Bool(key, a.Value.Bool())
	case slog.KindDuration:
		event.Dur(key, a.Value.Duration())
	case slog.KindTime:
		event.Time(key, a.Value.Time())
	case slog.KindGroup:
		group := key + "."
		if a.Key == "" {
			group = prefix
		}
		for _, ga := range a.Value.Group() {
			appendAttr(event, group, ga)
		}
	case slog.KindAny, slog.KindLogValuer:
		if err, ok := a.Value.Any().(error); ok {
			event.AnErr(key, err)
			return
		}
		event.Interface(key, a.Value.Any())
	default:
		event.Str(key, strings.TrimSpace(a.Value.String()))
	}
}

func zerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level < slog.LevelDebug:
		return zerolog.TraceLevel
	case level < slog.LevelInfo:
		return zerolog.DebugLevel
	case level < slog.LevelWarn:
		return zerolog.InfoLevel
	case level < slog.LevelError:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}
