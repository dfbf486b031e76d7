// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account is the user directory of the identity service.

It owns the User entity, password verification, administrative user
management (create, delete, list) and self-service updates.

# Architecture

  - Entities: User, UserSummary (list projection), UserPage.
  - Repository: UserRepository, implemented on PostgreSQL.
  - Security: Usernames are NFKC-normalised before every lookup. The
    principal named "admin" is reserved: it is created at bootstrap, can
    never be renamed or deleted, and no other user can take its name.
*/
package account

import (
	"context"
	"time"
)

// # Domain Entities

// User is an authenticatable principal.
//
// SubscriberID is the opaque, immutable token subject. It is never derived
// from, or replaced by, the mutable username.
type User struct {
	ID           int64     `json:"-"`
	Username     string    `json:"username"`
	SubscriberID string    `json:"subscriber_id"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Summary projects the user onto the fields an administrator may list.
func (user *User) Summary() UserSummary {
	return UserSummary{
		Username:     user.Username,
		SubscriberID: user.SubscriberID,
		IsAdmin:      user.IsAdmin,
	}
}

// UserSummary is one row of a user listing. It never carries the password hash.
type UserSummary struct {
	Username     string `json:"username"`
	SubscriberID string `json:"subscriber_id"`
	IsAdmin      bool   `json:"is_admin"`
}

// UserPage is one page of the user directory.
type UserPage struct {
	Users      []UserSummary `json:"users"`
	Page       int           `json:"page"`
	TotalPages int           `json:"total_pages"`
	TotalUsers int           `json:"total_users"`
}

// UpdateInput carries the optional changes of a self-service update.
type UpdateInput struct {
	Username *string
	Password *string
}

// # Repository Contracts

// UserRepository defines the persistence contract for users.
type UserRepository interface {
	/*
		FindByUsername retrieves a user by exact (already normalised) username.

		Returns:
		  - *User: Loaded user
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(ctx context.Context, username string) (*User, error)

	/*
		FindBySubscriberID retrieves a user by subscriber id.

		Returns:
		  - *User: Loaded user
		  - error: apperr.NotFound or storage failures
	*/
	FindBySubscriberID(ctx context.Context, subscriberID string) (*User, error)

	/*
		Create inserts a new user. ID and timestamps are filled in on success.

		Returns:
		  - error: apperr.Conflict when the username (or subscriber id) is taken
	*/
	Create(ctx context.Context, user *User) error

	/*
		DeleteByUsername removes a user. Their refresh tokens cascade.

		Returns:
		  - error: apperr.NotFound when no row matched
	*/
	DeleteByUsername(ctx context.Context, username string) error

	/*
		Update changes the username and/or password hash of the user with the
		given subscriber id. Nil fields are left untouched.

		Returns:
		  - error: apperr.NotFound, apperr.Conflict on a taken username
	*/
	Update(ctx context.Context, subscriberID string, username, passwordHash *string) error

	/*
		List returns user summaries ordered by username.

		Parameters:
		  - limit: maximum rows
		  - offset: rows to skip
	*/
	List(ctx context.Context, limit, offset int) ([]UserSummary, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int, error)
}
