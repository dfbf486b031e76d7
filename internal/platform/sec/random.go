// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
)

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// GenerateSecureToken returns byteLength random bytes encoded as unpadded base64url.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken returns the hex SHA-256 digest of an opaque token.
//
// Refresh tokens are persisted only in this form; the plaintext leaves the
// server exactly once, in the response that issued it.
func HashToken(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// RandomPassword returns an alphanumeric password of the given length.
func RandomPassword(length int) (string, error) {
	limit := big.NewInt(int64(len(passwordAlphabet)))
	result := make([]byte, length)

	for i := range result {
		index, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("sec: failed to generate password: %w", err)
		}
		result[i] = passwordAlphabet[index.Int64()]
	}

	return string(result), nil
}
