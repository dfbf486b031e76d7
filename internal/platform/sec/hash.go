// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// # Argon2id Parameters

// These values are persisted inside every encoded hash, so changing them only
// affects newly written hashes. Existing hashes keep verifying with their own.
const (
	argonMemoryKiB  = 4096
	argonIterations = 3
	argonLanes      = 4
	argonKeyLength  = 32
	argonSaltLength = 32
)

// ErrMalformedHash is returned when a stored hash is not a valid argon2id PHC string.
var ErrMalformedHash = errors.New("sec: malformed argon2id hash")

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// HashPassword hashes a plain-text password with argon2id and returns the
// PHC-encoded string: $argon2id$v=19$m=4096,t=3,p=4$<salt>$<hash>.
func HashPassword(plainTextPassword string) (string, error) {
	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to read salt: %w", err)
	}

	key := argon2.IDKey([]byte(plainTextPassword), salt, argonIterations, argonMemoryKiB, argonLanes, argonKeyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argonMemoryKiB, argonIterations, argonLanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// CheckPasswordHash recomputes the hash of plainTextPassword with the parameters
// embedded in encodedHash and compares both in constant time.
//
// A malformed encodedHash yields [ErrMalformedHash]; a mismatch yields (false, nil).
func CheckPasswordHash(plainTextPassword, encodedHash string) (bool, error) {
	params, salt, expected, err := decodeHash(encodedHash)
	if err != nil {
		return false, err
	}

	actual := argon2.IDKey([]byte(plainTextPassword), salt, params.iterations, params.memory, params.lanes, uint32(len(expected)))

	return subtle.ConstantTimeCompare(actual, expected) == 1, nil
}

// BurnPasswordCheck performs a full hash verification against a throwaway hash.
//
// Login paths call it when the username does not exist so that both failure
// branches cost the same and response timing cannot reveal registered usernames.
func BurnPasswordCheck(plainTextPassword string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = HashPassword("yomira-id-timing-equalizer")
	})
	_, _ = CheckPasswordHash(plainTextPassword, dummyHash)
}

type argonParams struct {
	memory     uint32
	iterations uint32
	lanes      uint8
}

// decodeHash splits a PHC string into its parameters, salt and key.
func decodeHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var params argonParams

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return params, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return params, nil, nil, ErrMalformedHash
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.iterations, &params.lanes); err != nil {
		return params, nil, nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return params, nil, nil, ErrMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return params, nil, nil, ErrMalformedHash
	}

	return params, salt, key, nil
}
