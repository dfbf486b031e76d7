// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

import "strings"

// TokensTable represents the 'tokens' refresh-token table.
type TokensTable struct {
	Table        string
	ID           string
	SubscriberID string
	ClientID     string
	RefreshToken string
	Expires      string
}

// Tokens is the schema definition for tokens.
var Tokens = TokensTable{
	Table:        "tokens",
	ID:           "id",
	SubscriberID: "subscriber_id",
	ClientID:     "client_id",
	RefreshToken: "refresh_token",
	Expires:      "expires",
}

// Columns returns the columns hydrated into an auth.RefreshToken, in scan order.
func (t TokensTable) Columns() []string {
	return []string{t.ID, t.SubscriberID, t.ClientID, t.RefreshToken, t.Expires}
}

// Select returns the column list for a SELECT or RETURNING clause.
func (t TokensTable) Select() string {
	return strings.Join(t.Columns(), ", ")
}
