// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	viewerIDKey  contextKey = "viewer_id"
)

// ContextWithRequestID returns ctx carrying id. An empty id is replaced with
// a new UUID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithViewerID returns ctx carrying the viewer being served.
func ContextWithViewerID(ctx context.Context, viewerID string) context.Context {
	return context.WithValue(ctx, viewerIDKey, viewerID)
}

// ViewerIDFromContext returns the viewer ID carried by ctx, or "".
func ViewerIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(viewerIDKey).(string)
	return id
}

// Ctx derives a child of base carrying the request and viewer IDs in ctx.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func Ctx(ctx context.Context, base zerolog.Logger) zerolog.Logger {
	lc := base.With()
	if id := RequestIDFromContext(ctx); id != "" {
		lc = lc.Str("request_id", id)
	}
	if id := ViewerIDFromContext(ctx); id != "" {
		lc = lc.Str("viewer_id", id)
	}
	return lc.Logger()
}
