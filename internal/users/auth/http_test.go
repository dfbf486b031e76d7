// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/users/auth"
)

func postJSON(router http.Handler, path, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_TokensAndRefresh drives both grants over HTTP.
*/
func TestHandler_TokensAndRefresh(t *testing.T) {
	fixture := newServiceFixture(t, "reader-app")
	router := chi.NewRouter()
	auth.NewHandler(fixture.service).Register(router)

	recorder := postJSON(router, "/tokens", `{"auth":{"username":"reader","password":"reader-pw"},"client_id":"reader-app"}`)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var login struct {
		Data auth.TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &login))
	assert.NotEmpty(t, login.Data.Token.ID)
	assert.Equal(t, "reader", login.Data.Metadata.Username)

	refreshBody := `{"refresh_token":"` + login.Data.Token.Refresh + `","client_id":"reader-app"}`

	recorder = postJSON(router, "/refresh", refreshBody)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = postJSON(router, "/refresh", refreshBody)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestHandler_Tokens_BadRequests covers body-level failures.
*/
func TestHandler_Tokens_BadRequests(t *testing.T) {
	fixture := newServiceFixture(t, "reader-app")
	router := chi.NewRouter()
	auth.NewHandler(fixture.service).Register(router)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed_json", "/tokens", `{"auth":`, http.StatusBadRequest},
		{"missing_password", "/tokens", `{"auth":{"username":"reader"},"client_id":"reader-app"}`, http.StatusBadRequest},
		{"missing_client", "/tokens", `{"auth":{"username":"reader","password":"reader-pw"}}`, http.StatusBadRequest},
		{"unlisted_client", "/tokens", `{"auth":{"username":"reader","password":"reader-pw"},"client_id":"x"}`, http.StatusUnauthorized},
		{"wrong_password", "/tokens", `{"auth":{"username":"reader","password":"nope"},"client_id":"reader-app"}`, http.StatusUnauthorized},
		{"missing_refresh_token", "/refresh", `{"client_id":"reader-app"}`, http.StatusBadRequest},
		{"unknown_refresh_token", "/refresh", `{"refresh_token":"abc","client_id":"reader-app"}`, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := postJSON(router, tt.path, tt.body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
		})
	}
}
