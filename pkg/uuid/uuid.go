// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides the identifier generators used across the identity service.

Two flavours are exposed:

  - New: time-ordered UUIDv7, used for request correlation ids.
  - NewOpaque: random UUIDv4, used for subscriber identifiers.

Subscriber identifiers end up as the public "sub" claim of every ID token, so
they must not leak the account creation time the way a v7 value would.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {

	// Create a new version 7 UUID (time-sortable)
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

// NewOpaque generates a random UUIDv4 string.
func NewOpaque() string {
	return uuid.NewString()
}
