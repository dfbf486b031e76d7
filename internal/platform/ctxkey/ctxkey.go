// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxkey defines typed context keys used by middleware and handlers.
//
// Keys use an unexported type so that no other package can construct a
// colliding key, even with the same string value.
package ctxkey

type key string

const (
	// KeyRequestID is the context key for the X-Request-ID correlation value.
	KeyRequestID key = "request_id"

	// KeyIdentity is the context key for the verified ID-token claims ([sec.IDClaims]).
	KeyIdentity key = "identity"

	// KeyAuthError is the context key for a rejected bearer credential.
	KeyAuthError key = "auth_error"

	// KeyLogger is the context key for the per-request [*log/slog.Logger].
	KeyLogger key = "logger"
)
