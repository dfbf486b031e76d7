// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Client Allow-list Data Access

// ClientRepository defines the data access contract for the client-id allow-list.
type ClientRepository interface {

	/*
		Replace swaps the whole allow-list for clientIDs.

		Parameters:
		  - ctx: context.Context
		  - clientIDs: []string (already deduplicated)

		Returns:
		  - error: Persistence failures
	*/
	Replace(ctx context.Context, clientIDs []string) error

	/*
		List returns every allow-listed client id.

		Returns:
		  - []string: Client ids in insertion order
		  - error: Database retrieval failures
	*/
	List(ctx context.Context) ([]string, error)
}

// # Refresh Token Data Access

// RefreshTokenRepository defines the data access contract for refresh-token records.
//
// Tokens are addressed by their SHA-256 digest; plaintext values never reach storage.
type RefreshTokenRepository interface {

	/*
		Create persists a new refresh-token record.

		Description: Expired records of the same subscriber are pruned in the
		same statement.

		Parameters:
		  - ctx: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Create(ctx context.Context, token *RefreshToken) error

	/*
		Rotate consumes the record matching (tokenHash, clientID) and persists the
		record built by next in one indivisible step.

		Description: The consumed record is removed whether or not it has expired.
		Of several concurrent calls for the same token, at most one observes it.

		Parameters:
		  - ctx: context.Context
		  - tokenHash: string
		  - clientID: *string (nil matches records issued without a client)
		  - now: time.Time
		  - next: builds the replacement from the consumed record

		Returns:
		  - *RefreshToken: The consumed record
		  - error: apperr.NotFound, apperr.Expired or persistence failures
	*/
	Rotate(ctx context.Context, tokenHash string, clientID *string, now time.Time, next func(consumed *RefreshToken) (*RefreshToken, error)) (*RefreshToken, error)

	/*
		DeleteExpired physically removes records whose expiry is not after now.

		Returns:
		  - int64: Number of removed records
		  - error: Cleanup failures
	*/
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
