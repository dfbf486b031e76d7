// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/users/auth"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

/*
TestClientPolicy_Check covers open and configured allow-lists.
*/
func TestClientPolicy_Check(t *testing.T) {
	open := auth.NewClientPolicy([]string{"", "  "})
	closed := auth.NewClientPolicy([]string{" reader-app ", "sync-app", "reader-app"})

	tests := []struct {
		name     string
		policy   *auth.ClientPolicy
		clientID *string
		status   int
	}{
		{"open_without_client", open, nil, 0},
		{"open_with_any_client", open, pointer.To("whatever"), 0},
		{"listed", closed, pointer.To("reader-app"), 0},
		{"missing", closed, nil, http.StatusBadRequest},
		{"empty", closed, pointer.To(""), http.StatusBadRequest},
		{"unlisted", closed, pointer.To("rogue-app"), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Check(tt.clientID)
			if tt.status == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.status, apperr.As(err).HTTPStatus)
		})
	}

	assert.True(t, open.Open())
	assert.Equal(t, []string{"reader-app", "sync-app"}, closed.IDs())
}

/*
TestClientPolicy_PersistAndLoad round-trips the allow-list through a repository.
*/
func TestClientPolicy_PersistAndLoad(t *testing.T) {
	ctx := context.Background()
	clients := &memoryClients{ids: []string{"stale-app"}}

	require.NoError(t, auth.NewClientPolicy([]string{"b-app", "a-app"}).Persist(ctx, clients))

	loaded, err := auth.LoadClientPolicy(ctx, clients)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-app", "b-app"}, loaded.IDs())
	assert.Error(t, loaded.Check(pointer.To("stale-app")))
}
