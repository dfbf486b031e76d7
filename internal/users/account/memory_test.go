// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/users/account"
)

// memoryUsers is an in-memory [account.UserRepository] with the same
// uniqueness and not-found behaviour as the Postgres implementation.
type memoryUsers struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*account.User // keyed by subscriber id
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{rows: make(map[string]*account.User)}
}

func (m *memoryUsers) FindByUsername(_ context.Context, username string) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, user := range m.rows {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (m *memoryUsers) FindBySubscriberID(_ context.Context, subscriberID string) (*account.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.rows[subscriberID]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	clone := *user
	return &clone, nil
}

func (m *memoryUsers) Create(_ context.Context, user *account.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.rows[user.SubscriberID]; taken {
		return apperr.Conflict("User already exists")
	}
	for _, existing := range m.rows {
		if existing.Username == user.Username {
			return apperr.Conflict("User already exists")
		}
	}

	m.nextID++
	user.ID = m.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt

	clone := *user
	m.rows[user.SubscriberID] = &clone
	return nil
}

func (m *memoryUsers) DeleteByUsername(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for subscriberID, user := range m.rows {
		if user.Username == username {
			delete(m.rows, subscriberID)
			return nil
		}
	}
	return apperr.NotFound("User")
}

func (m *memoryUsers) Update(_ context.Context, subscriberID string, username, passwordHash *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.rows[subscriberID]
	if !ok {
		return apperr.NotFound("User")
	}
	if username != nil {
		for _, other := range m.rows {
			if other.SubscriberID != subscriberID && other.Username == *username {
				return apperr.Conflict("User already exists")
			}
		}
		user.Username = *username
	}
	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (m *memoryUsers) List(_ context.Context, limit, offset int) ([]account.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]account.UserSummary, 0, len(m.rows))
	for _, user := range m.rows {
		all = append(all, user.Summary())
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memoryUsers) Count(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

// seed inserts a user without hashing, for tests that never verify passwords.
func (m *memoryUsers) seed(username, subscriberID string, isAdmin bool) {
	_ = m.Create(context.Background(), &account.User{
		Username:     username,
		SubscriberID: subscriberID,
		PasswordHash: "unused",
		IsAdmin:      isAdmin,
	})
}
