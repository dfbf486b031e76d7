// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/middleware"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/platform/sec/sectest"
	"github.com/taibuivan/yomira-id/internal/users/account"
)

type httpFixture struct {
	router http.Handler
	signer *sec.IdentitySigner
	users  *memoryUsers
}

func newHTTPFixture(t *testing.T) *httpFixture {
	t.Helper()

	users := newMemoryUsers()
	users.seed("admin", "sub-admin", true)
	users.seed("reader", "sub-reader", false)

	signer := sectest.NewSigner(t, sec.AlgorithmES256)
	service := account.NewService(users, slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(sec.BearerVerifier{Signer: signer, Issuer: sectest.Issuer}))
	account.NewHandler(service).Register(router)

	return &httpFixture{router: router, signer: signer, users: users}
}

func (f *httpFixture) token(t *testing.T, subject string, isAdmin bool) string {
	t.Helper()
	signed, err := f.signer.Issue(sec.TokenRequest{
		Subject: subject,
		Issuer:  sectest.Issuer,
		TTL:     time.Minute,
		IsAdmin: isAdmin,
	})
	require.NoError(t, err)
	return signed.Token
}

func (f *httpFixture) post(path, token, body string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_AdminEndpoints_Authorization covers who may call the admin endpoints.
*/
func TestHandler_AdminEndpoints_Authorization(t *testing.T) {
	fixture := newHTTPFixture(t)
	fixture.users.seed("demoted", "sub-demoted", false)

	body := `{"auth":{"username":"newcomer","password":"pw"}}`

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage_token", "not.a.token", http.StatusUnauthorized},
		{"non_admin", fixture.token(t, "sub-reader", false), http.StatusForbidden},
		{"stale_admin_claim", fixture.token(t, "sub-demoted", true), http.StatusForbidden},
		{"deleted_principal", fixture.token(t, "sub-gone", true), http.StatusUnauthorized},
		{"admin", fixture.token(t, "sub-admin", true), http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := fixture.post("/create_user", tt.token, body)
			assert.Equal(t, tt.status, recorder.Code, recorder.Body.String())
		})
	}
}

/*
TestHandler_CreateAndList exercises create_user and list_users payloads.
*/
func TestHandler_CreateAndList(t *testing.T) {
	fixture := newHTTPFixture(t)
	adminToken := fixture.token(t, "sub-admin", true)

	recorder := fixture.post("/create_user", adminToken, `{"auth":{"username":"writer","password":"pw"}}`)
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created struct {
		Data struct {
			Username     string `json:"username"`
			SubscriberID string `json:"subscriber_id"`
			IsAdmin      bool   `json:"is_admin"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	assert.Equal(t, "writer", created.Data.Username)
	assert.NotEmpty(t, created.Data.SubscriberID)
	assert.False(t, created.Data.IsAdmin)

	recorder = fixture.post("/create_user", adminToken, `{"auth":{"username":"writer","password":"pw"}}`)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = fixture.post("/list_users", adminToken, ``)
	require.Equal(t, http.StatusOK, recorder.Code)

	var listed struct {
		Data account.UserPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listed))
	assert.Equal(t, 1, listed.Data.Page)
	assert.Equal(t, 1, listed.Data.TotalPages)
	assert.Equal(t, 3, listed.Data.TotalUsers)
	assert.Equal(t, []string{"admin", "reader", "writer"}, []string{
		listed.Data.Users[0].Username, listed.Data.Users[1].Username, listed.Data.Users[2].Username,
	})
	assert.NotContains(t, recorder.Body.String(), "password")
}

/*
TestHandler_DeleteUser maps the delete outcomes onto status codes.
*/
func TestHandler_DeleteUser(t *testing.T) {
	fixture := newHTTPFixture(t)
	adminToken := fixture.token(t, "sub-admin", true)

	assert.Equal(t, http.StatusNotFound, fixture.post("/delete_user", adminToken, `{"username":"ghost"}`).Code)
	assert.Equal(t, http.StatusForbidden, fixture.post("/delete_user", adminToken, `{"username":"admin"}`).Code)
	assert.Equal(t, http.StatusOK, fixture.post("/delete_user", adminToken, `{"username":"reader"}`).Code)
	assert.Equal(t, http.StatusNotFound, fixture.post("/delete_user", adminToken, `{"username":"reader"}`).Code)
}

/*
TestHandler_UpdateUser applies the admin rename rule over HTTP.
*/
func TestHandler_UpdateUser(t *testing.T) {
	fixture := newHTTPFixture(t)

	recorder := fixture.post("/update_user", fixture.token(t, "sub-admin", true), `{"auth":{"username":"root"}}`)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = fixture.post("/update_user", fixture.token(t, "sub-reader", false), `{"auth":{"username":"bookworm"}}`)
	assert.Equal(t, http.StatusOK, recorder.Code)

	user, err := fixture.users.FindBySubscriberID(t.Context(), "sub-reader")
	require.NoError(t, err)
	assert.Equal(t, "bookworm", user.Username)

	recorder = fixture.post("/update_user", "", `{"auth":{"password":"x"}}`)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = fixture.post("/update_user", fixture.token(t, "sub-reader", false), `{not json`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
