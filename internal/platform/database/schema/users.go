// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables and columns of the credential store so that
// queries are assembled from one definition instead of repeated literals.
package schema

import "strings"

// UsersTable represents the 'users' table.
type UsersTable struct {
	Table        string
	ID           string
	Username     string
	SubscriberID string
	PasswordHash string
	IsAdmin      string
	CreatedAt    string
	UpdatedAt    string
}

// Users is the schema definition for users.
var Users = UsersTable{
	Table:        "users",
	ID:           "id",
	Username:     "username",
	SubscriberID: "subscriber_id",
	PasswordHash: "password_hash",
	IsAdmin:      "is_admin",
	CreatedAt:    "created_at",
	UpdatedAt:    "updated_at",
}

// Columns returns the columns hydrated into an account.User, in scan order.
func (t UsersTable) Columns() []string {
	return []string{t.ID, t.Username, t.SubscriberID, t.PasswordHash, t.IsAdmin, t.CreatedAt, t.UpdatedAt}
}

// Select returns the column list for a SELECT clause.
func (t UsersTable) Select() string {
	return strings.Join(t.Columns(), ", ")
}
