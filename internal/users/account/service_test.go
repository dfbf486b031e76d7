// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

func newService(t *testing.T) (*account.Service, *memoryUsers) {
	t.Helper()
	repository := newMemoryUsers()
	return account.NewService(repository, slog.New(slog.NewTextHandler(io.Discard, nil))), repository
}

/*
TestService_Verify checks that stored credentials verify and near misses do not.
*/
func TestService_Verify(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	created, err := service.Create(ctx, "reader", "hunter22")
	require.NoError(t, err)

	user, err := service.Verify(ctx, "reader", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, created.SubscriberID, user.SubscriberID)
	assert.False(t, user.IsAdmin)

	for _, attempt := range []string{"hunter2", "hunter222", "Hunter22", "hunter23"} {
		t.Run(attempt, func(t *testing.T) {
			_, err := service.Verify(ctx, "reader", attempt)
			assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))
		})
	}

	t.Run("unknown_user_is_indistinguishable", func(t *testing.T) {
		_, wrongPassword := service.Verify(ctx, "reader", "nope")
		_, unknownUser := service.Verify(ctx, "ghost", "nope")

		require.NotNil(t, apperr.As(wrongPassword))
		require.NotNil(t, apperr.As(unknownUser))
		assert.Equal(t, apperr.As(wrongPassword).Message, apperr.As(unknownUser).Message)
		assert.Equal(t, apperr.As(wrongPassword).HTTPStatus, apperr.As(unknownUser).HTTPStatus)
	})

	t.Run("normalised_username", func(t *testing.T) {
		_, err := service.Verify(ctx, "  reader ", "hunter22")
		assert.NoError(t, err)
	})
}

/*
TestService_Create covers duplicates, the reserved admin name and validation.
*/
func TestService_Create(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	_, err := service.Create(ctx, "reader", "pw")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		code     string
	}{
		{"duplicate", "reader", "pw", apperr.CodeConflict},
		{"reserved_admin", "admin", "pw", apperr.CodeConflict},
		{"fullwidth_admin", "\uff41\uff44\uff4d\uff49\uff4e", "pw", apperr.CodeConflict},
		{"zero_width_admin", "ad\u200bmin", "pw", apperr.CodeConflict},
		{"empty_username", "  ", "pw", apperr.CodeValidation},
		{"empty_password", "writer", "", apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Create(ctx, tt.username, tt.password)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}
}

/*
TestService_List_Pagination pages 45 users 20 at a time.
*/
func TestService_List_Pagination(t *testing.T) {
	ctx := context.Background()
	service, repository := newService(t)

	for i := 0; i < 45; i++ {
		repository.seed(fmt.Sprintf("user%02d", i), fmt.Sprintf("sub-%02d", i), false)
	}

	tests := []struct {
		name     string
		page     int
		wantPage int
		wantRows int
		first    string
	}{
		{"first_page", 1, 1, 20, "user00"},
		{"last_page", 3, 3, 5, "user40"},
		{"past_the_end", 4, 4, 0, ""},
		{"zero_clamped", 0, 1, 20, "user00"},
		{"negative_clamped", -3, 1, 20, "user00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := service.List(ctx, tt.page)
			require.NoError(t, err)

			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, 3, page.TotalPages)
			assert.Equal(t, 45, page.TotalUsers)
			assert.Len(t, page.Users, tt.wantRows)
			assert.NotNil(t, page.Users)
			if tt.first != "" {
				assert.Equal(t, tt.first, page.Users[0].Username)
			}
		})
	}
}

/*
TestService_AdminInvariant checks that admin can change its password but never its name.
*/
func TestService_AdminInvariant(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	created, err := service.Bootstrap(ctx, "initial")
	require.NoError(t, err)
	require.True(t, created)

	admin, err := service.Verify(ctx, constants.AdminUsername, "initial")
	require.NoError(t, err)
	require.True(t, admin.IsAdmin)

	err = service.Update(ctx, admin.SubscriberID, account.UpdateInput{Username: pointer.To("root")})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	err = service.Update(ctx, admin.SubscriberID, account.UpdateInput{Password: pointer.To("rotated")})
	require.NoError(t, err)

	_, err = service.Verify(ctx, constants.AdminUsername, "rotated")
	assert.NoError(t, err)
	_, err = service.Verify(ctx, constants.AdminUsername, "initial")
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials))

	// Sending its own name unchanged is not a rename.
	err = service.Update(ctx, admin.SubscriberID, account.UpdateInput{Username: pointer.To("admin")})
	assert.NoError(t, err)
}

/*
TestService_Update_Rename covers renames of ordinary users.
*/
func TestService_Update_Rename(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	reader, err := service.Create(ctx, "reader", "pw")
	require.NoError(t, err)
	_, err = service.Create(ctx, "writer", "pw")
	require.NoError(t, err)
	_, err = service.Bootstrap(ctx, "adminpw")
	require.NoError(t, err)

	err = service.Update(ctx, reader.SubscriberID, account.UpdateInput{Username: pointer.To("writer")})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	err = service.Update(ctx, reader.SubscriberID, account.UpdateInput{Username: pointer.To("admin")})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	err = service.Update(ctx, reader.SubscriberID, account.UpdateInput{})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	err = service.Update(ctx, "unknown-subscriber", account.UpdateInput{Password: pointer.To("x")})
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	require.NoError(t, service.Update(ctx, reader.SubscriberID, account.UpdateInput{Username: pointer.To("librarian")}))

	renamed, err := service.Verify(ctx, "librarian", "pw")
	require.NoError(t, err)
	assert.Equal(t, reader.SubscriberID, renamed.SubscriberID, "subscriber id survives a rename")
}

/*
TestService_Delete covers the protected principals and missing users.
*/
func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	service, repository := newService(t)

	repository.seed("admin", "sub-admin", true)
	repository.seed("operator", "sub-operator", true)
	repository.seed("reader", "sub-reader", false)

	assert.True(t, apperr.HasCode(service.Delete(ctx, "sub-operator", "admin"), apperr.CodeForbidden))
	assert.True(t, apperr.HasCode(service.Delete(ctx, "sub-operator", "operator"), apperr.CodeForbidden))
	assert.True(t, apperr.HasCode(service.Delete(ctx, "sub-operator", "ghost"), apperr.CodeNotFound))

	require.NoError(t, service.Delete(ctx, "sub-admin", "reader"))
	_, err := service.Principal(ctx, "sub-reader")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

/*
TestService_RequireAdmin re-checks the flag against the store.
*/
func TestService_RequireAdmin(t *testing.T) {
	ctx := context.Background()
	service, repository := newService(t)

	repository.seed("admin", "sub-admin", true)
	repository.seed("reader", "sub-reader", false)

	_, err := service.RequireAdmin(ctx, "sub-admin")
	assert.NoError(t, err)

	_, err = service.RequireAdmin(ctx, "sub-reader")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = service.RequireAdmin(ctx, "sub-deleted")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}

/*
TestService_Bootstrap_GeneratedPassword logs a generated password once and is idempotent.
*/
func TestService_Bootstrap_GeneratedPassword(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	repository := newMemoryUsers()
	service := account.NewService(repository, slog.New(slog.NewJSONHandler(&logs, nil)))

	created, err := service.Bootstrap(ctx, "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("admin_password_generated")))

	created, err = service.Bootstrap(ctx, "")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, 1, bytes.Count(logs.Bytes(), []byte("admin_password_generated")))

	require.NoError(t, service.SetAdminPassword(ctx, "operator-chosen"))
	_, err = service.Verify(ctx, "admin", "operator-chosen")
	assert.NoError(t, err)
}
