// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/postgres/pgtest"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

/*
TestPostgresUserRepository covers the user directory against a real database.
*/
func TestPostgresUserRepository(t *testing.T) {
	pool := pgtest.NewPool(t)
	ctx := context.Background()
	users := account.NewUserRepository(pool)

	for i := range 5 {
		require.NoError(t, users.Create(ctx, &account.User{
			Username:     fmt.Sprintf("user%02d", 4-i),
			SubscriberID: fmt.Sprintf("sub-%d", i),
			PasswordHash: "hash",
		}))
	}

	t.Run("duplicate_username_conflicts", func(t *testing.T) {
		err := users.Create(ctx, &account.User{Username: "user00", SubscriberID: "sub-new", PasswordHash: "hash"})
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("list_orders_by_username", func(t *testing.T) {
		page, err := users.List(ctx, 2, 2)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "user02", page[0].Username)
		assert.Equal(t, "user03", page[1].Username)

		total, err := users.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, total)
	})

	t.Run("partial_update", func(t *testing.T) {
		require.NoError(t, users.Update(ctx, "sub-0", nil, pointer.To("new-hash")))
		user, err := users.FindBySubscriberID(ctx, "sub-0")
		require.NoError(t, err)
		assert.Equal(t, "user04", user.Username)
		assert.Equal(t, "new-hash", user.PasswordHash)

		require.NoError(t, users.Update(ctx, "sub-0", pointer.To("renamed"), nil))
		user, err = users.FindByUsername(ctx, "renamed")
		require.NoError(t, err)
		assert.Equal(t, "new-hash", user.PasswordHash)

		err = users.Update(ctx, "sub-0", pointer.To("user01"), nil)
		assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, users.DeleteByUsername(ctx, "renamed"))
		err := users.DeleteByUsername(ctx, "renamed")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

		_, err = users.FindBySubscriberID(ctx, "sub-0")
		assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	})
}
