// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "time"

// # Entities

// RefreshToken is one stored refresh-token record.
//
// A record is single-use: redeeming it deletes it and stores its successor.
type RefreshToken struct {
	ID           int64
	SubscriberID string
	ClientID     *string
	TokenHash    string
	ExpiresAt    time.Time
}

// Expired reports whether the record is no longer redeemable at now.
func (token *RefreshToken) Expired(now time.Time) bool {
	return !now.Before(token.ExpiresAt)
}

// IssuedRefreshToken is a freshly minted refresh token, the only place its
// plaintext value ever exists server-side.
type IssuedRefreshToken struct {
	Value     string
	ExpiresAt time.Time
}

// # Transport Shapes

// TokenBody is the "token" object returned by /tokens and /refresh.
type TokenBody struct {
	ID           string   `json:"id"`
	Refresh      string   `json:"refresh,omitempty"`
	IssuedAt     int64    `json:"issued_at"`
	Expires      int64    `json:"expires"`
	AllowedApps  []string `json:"allowed_apps"`
	Issuer       string   `json:"issuer"`
	SubscriberID string   `json:"subscriber_id"`
}

// TokenMetadata describes the account the token was issued for.
type TokenMetadata struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
}

// TokenResponse is the full issuance payload.
type TokenResponse struct {
	Token    TokenBody     `json:"token"`
	Metadata TokenMetadata `json:"metadata"`
	Message  string        `json:"message"`
}
