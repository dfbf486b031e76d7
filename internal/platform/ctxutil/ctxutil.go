// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/yomira-id/internal/platform/ctxkey"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity

// WithIdentity returns a new context carrying the caller's verified ID-token claims.
func WithIdentity(ctx context.Context, claims *sec.IDClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyIdentity, claims)
}

// GetIdentity retrieves the [*sec.IDClaims] placed by the authentication middleware.
func GetIdentity(ctx context.Context) *sec.IDClaims {
	claims, ok := ctx.Value(ctxkey.KeyIdentity).(*sec.IDClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithAuthError records why a presented bearer credential was not accepted.
// The request itself continues as anonymous.
func WithAuthError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAuthError, err)
}

// GetAuthError returns the error stored by [WithAuthError], or nil.
func GetAuthError(ctx context.Context) error {
	err, _ := ctx.Value(ctxkey.KeyAuthError).(error)
	return err
}
