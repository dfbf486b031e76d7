// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Identity: reserved principals, routes and token sizes.

Values that operators tune per deployment live in [config.Config] instead.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-id"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 20.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 40

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Identity

const (
	// APIVersionPrefix is the versioned root every identity route is mounted under.
	APIVersionPrefix = "/v1.0"

	// AdminUsername is the reserved principal created at bootstrap. It can never be renamed.
	AdminUsername = "admin"

	// GeneratedAdminPasswordLength is the length of the random bootstrap password.
	GeneratedAdminPasswordLength = 32

	// RefreshTokenBytes is the entropy of an opaque refresh token.
	RefreshTokenBytes = 32

	// UsersPerPage bounds the rows returned by one list_users call.
	UsersPerPage = 20

	// MaxRequestBodyBytes bounds every JSON request body.
	MaxRequestBodyBytes = 64 << 10

	// RefreshPruneInterval is how often expired refresh-token rows are purged.
	RefreshPruneInterval = 1 * time.Hour

	// BlindRotationRetryDelay is how long the key manager waits after a failed rotation.
	BlindRotationRetryDelay = 1 * time.Minute
)

// # HTTP Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixBlindQuota keys per-subscriber blind-signature counters: prefix + key_id + ":" + subject.
	RedisPrefixBlindQuota = "blind:quota:"
)
