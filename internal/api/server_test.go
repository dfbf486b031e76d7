// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/api"
	"github.com/taibuivan/yomira-id/internal/blind"
	"github.com/taibuivan/yomira-id/internal/discovery"
	"github.com/taibuivan/yomira-id/internal/platform/config"
	"github.com/taibuivan/yomira-id/internal/platform/middleware"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/platform/sec/sectest"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/internal/users/auth"
)

func newServer(t *testing.T, deps api.HealthDependencies) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	liveness, readiness := api.NewHealthHandlers(deps, logger)

	cfg := &config.Config{ListenAddress: "127.0.0.1", ServerPort: "0", Environment: "test"}
	verifier := sec.BearerVerifier{Signer: sectest.NewSigner(t, sec.AlgorithmES256), Issuer: sectest.Issuer}

	server := api.NewServer(cfg, logger, verifier, middleware.NewRateLimiter(1000, 1000), api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      auth.NewHandler(nil),
		Account:   account.NewHandler(nil),
		Blind:     blind.NewHandler(nil),
		Discovery: discovery.NewHandler(nil),
	})
	return server.Handler()
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))
	return recorder
}

/*
TestLiveness answers on the root and under the versioned prefix.
*/
func TestLiveness(t *testing.T) {
	handler := newServer(t, api.HealthDependencies{})

	for _, path := range []string{"/health", "/v1.0/health"} {
		t.Run(path, func(t *testing.T) {
			recorder := get(handler, path)
			require.Equal(t, http.StatusOK, recorder.Code)
			assert.Contains(t, recorder.Body.String(), `"status":"ok"`)
			assert.NotEmpty(t, recorder.Header().Get("X-Request-ID"))
		})
	}
}

/*
TestReadiness reports each configured dependency and degrades on failure.
*/
func TestReadiness(t *testing.T) {
	healthy := func(context.Context) error { return nil }
	broken := func(context.Context) error { return errors.New("dial tcp 10.0.0.5:5432: connection refused") }

	tests := []struct {
		name       string
		deps       api.HealthDependencies
		wantStatus int
		wantChecks int
	}{
		{name: "postgres_only", deps: api.HealthDependencies{CheckDatabase: healthy}, wantStatus: http.StatusOK, wantChecks: 1},
		{name: "with_redis", deps: api.HealthDependencies{CheckDatabase: healthy, CheckCache: healthy}, wantStatus: http.StatusOK, wantChecks: 2},
		{name: "postgres_down", deps: api.HealthDependencies{CheckDatabase: broken, CheckCache: healthy}, wantStatus: http.StatusServiceUnavailable, wantChecks: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := get(newServer(t, tt.deps), "/ready")
			require.Equal(t, tt.wantStatus, recorder.Code)

			var body struct {
				Data struct {
					Status string `json:"status"`
					Checks []struct {
						Name string `json:"name"`
						OK   bool   `json:"ok"`
					} `json:"checks"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Len(t, body.Data.Checks, tt.wantChecks)
			assert.NotContains(t, recorder.Body.String(), "10.0.0.5")
		})
	}
}

/*
TestMetrics exposes request counters labelled by route pattern.
*/
func TestMetrics(t *testing.T) {
	handler := newServer(t, api.HealthDependencies{})
	get(handler, "/health")

	recorder := get(handler, "/metrics")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "yomira_id_http_requests_total")
	assert.Contains(t, recorder.Body.String(), `route="/health"`)
}

/*
TestProtectedRoutes rejects anonymous calls before reaching any service.
*/
func TestProtectedRoutes(t *testing.T) {
	handler := newServer(t, api.HealthDependencies{})

	for _, path := range []string{"/v1.0/blindsign", "/v1.0/update_user", "/v1.0/create_user"} {
		t.Run(path, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, path, nil))
			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
		})
	}
}

/*
TestStaleBearer keeps public routes usable with an unverifiable Authorization
header while protected routes still report the token failure.
*/
func TestStaleBearer(t *testing.T) {
	handler := newServer(t, api.HealthDependencies{})

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		header     string
		wantStatus int
		wantCode   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", header: "Bearer expired.or.foreign", wantStatus: http.StatusOK},
		{name: "versioned_health", method: http.MethodGet, path: "/v1.0/health", header: "Bearer expired.or.foreign", wantStatus: http.StatusOK},
		{name: "refresh_reaches_handler", method: http.MethodPost, path: "/v1.0/refresh", body: `{}`, header: "Bearer expired.or.foreign", wantStatus: http.StatusBadRequest},
		{name: "malformed_header_on_refresh", method: http.MethodPost, path: "/v1.0/refresh", body: `{}`, header: "Basic abc", wantStatus: http.StatusBadRequest},
		{name: "blindsign_rejects", method: http.MethodPost, path: "/v1.0/blindsign", body: `{}`, header: "Bearer expired.or.foreign", wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_INVALID"},
		{name: "admin_route_rejects", method: http.MethodPost, path: "/v1.0/create_user", body: `{}`, header: "Bearer expired.or.foreign", wantStatus: http.StatusUnauthorized, wantCode: "TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", tt.header)

			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			require.Equal(t, tt.wantStatus, recorder.Code, recorder.Body.String())
			if tt.wantCode != "" {
				assert.Contains(t, recorder.Body.String(), `"code":"`+tt.wantCode+`"`)
			}
		})
	}
}
