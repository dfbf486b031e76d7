// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/ctxutil"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// TokenVerifier verifies a bearer ID token.
//
// Defined here so the middleware does not depend on a concrete signer and
// tests can inject a stub.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*sec.IDClaims, error)
}

// Authenticate extracts and verifies the ID token from the Authorization header.
//
// # Flow
//  1. Without an Authorization header the request proceeds as anonymous.
//  2. A malformed header or a token failing verification does not stop the
//     request either: the failure is stored with [ctxutil.WithAuthError] and the
//     request proceeds as anonymous. Public routes such as /refresh stay usable
//     with a stale header, and [RequireAuth] reports the stored failure.
//  3. Verified [*sec.IDClaims] are injected into the context, and the request
//     logger is tagged with the subject.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				anonymous(next, writer, request, apperr.Unauthorized("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyToken(strings.TrimSpace(token))
			if err != nil {
				if apperr.As(err) == nil {
					err = apperr.TokenInvalid(err)
				}
				anonymous(next, writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), claims)
			ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("subject", claims.Subject)))
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

func anonymous(next http.Handler, writer http.ResponseWriter, request *http.Request, err error) {
	ctx := request.Context()
	ctxutil.GetLogger(ctx).DebugContext(ctx, "bearer_token_ignored", slog.Any("error", err))
	next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthError(ctx, err)))
}

// unauthenticated is the 401 for a request without identity, preferring the
// failure recorded by [Authenticate].
func unauthenticated(request *http.Request) error {
	if err := ctxutil.GetAuthError(request.Context()); err != nil {
		return err
	}
	return apperr.Unauthorized("Authentication required")
}

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetIdentity(request.Context()) == nil {
			respond.Error(writer, request, unauthenticated(request))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks requests whose token does not carry the admin flag.
//
// It implies [RequireAuth]. Handlers still re-check the flag against the user
// store, since a token outlives a demotion or deletion.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetIdentity(request.Context())

		if claims == nil {
			respond.Error(writer, request, unauthenticated(request))
			return
		}
		if !claims.IsAdmin {
			respond.Error(writer, request, apperr.Forbidden("Administrator privileges required"))
			return
		}

		next.ServeHTTP(writer, request)
	})
}
