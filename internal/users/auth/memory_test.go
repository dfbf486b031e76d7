// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/internal/users/auth"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

// memoryTokens is an in-memory [auth.RefreshTokenRepository]; one mutex
// stands in for the row lock Postgres takes on DELETE.
type memoryTokens struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*auth.RefreshToken // keyed by token hash
}

func newMemoryTokens() *memoryTokens {
	return &memoryTokens{rows: make(map[string]*auth.RefreshToken)}
}

func (m *memoryTokens) Create(_ context.Context, token *auth.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(token)
	return nil
}

func (m *memoryTokens) Rotate(
	_ context.Context,
	tokenHash string,
	clientID *string,
	now time.Time,
	next func(consumed *auth.RefreshToken) (*auth.RefreshToken, error),
) (*auth.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.rows[tokenHash]
	if !ok || pointer.Val(record.ClientID) != pointer.Val(clientID) || (record.ClientID == nil) != (clientID == nil) {
		return nil, apperr.NotFound("Refresh token")
	}
	delete(m.rows, tokenHash)

	if record.Expired(now) {
		return nil, apperr.Expired("Refresh token")
	}

	replacement, err := next(record)
	if err != nil {
		m.rows[tokenHash] = record
		return nil, err
	}
	m.insert(replacement)
	return record, nil
}

func (m *memoryTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for hash, record := range m.rows {
		if record.Expired(now) {
			delete(m.rows, hash)
			removed++
		}
	}
	return removed, nil
}

func (m *memoryTokens) insert(token *auth.RefreshToken) {
	m.nextID++
	token.ID = m.nextID
	stored := *token
	m.rows[token.TokenHash] = &stored
}

func (m *memoryTokens) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memoryClients is an in-memory [auth.ClientRepository].
type memoryClients struct {
	ids []string
}

func (m *memoryClients) Replace(_ context.Context, clientIDs []string) error {
	m.ids = append([]string(nil), clientIDs...)
	return nil
}

func (m *memoryClients) List(_ context.Context) ([]string, error) {
	return append([]string(nil), m.ids...), nil
}

// fakeAccounts is an [auth.Accounts] keyed by username with plaintext passwords.
type fakeAccounts struct {
	mu        sync.Mutex
	users     map[string]*account.User
	passwords map[string]string
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{users: make(map[string]*account.User), passwords: make(map[string]string)}
}

func (f *fakeAccounts) add(username, password, subscriberID string, isAdmin bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = &account.User{Username: username, SubscriberID: subscriberID, IsAdmin: isAdmin}
	f.passwords[username] = password
}

func (f *fakeAccounts) remove(username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, username)
}

func (f *fakeAccounts) Verify(_ context.Context, username, password string) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[username]
	if !ok || f.passwords[username] != password {
		return nil, apperr.InvalidCredentials()
	}
	return user, nil
}

func (f *fakeAccounts) Principal(_ context.Context, subscriberID string) (*account.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, user := range f.users {
		if user.SubscriberID == subscriberID {
			return user, nil
		}
	}
	return nil, apperr.Unauthorized("Unknown principal")
}

// hashOf mirrors how refresh tokens are addressed in storage.
func hashOf(value string) string { return sec.HashToken(value) }
