// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind

import (
	"crypto"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
)

// # Signing Options

// Options are the caller-chosen RSABSSA parameters of one blinded message.
type Options struct {
	Hash          string `json:"hash"`
	Deterministic bool   `json:"deterministic"`
	SaltLength    *int   `json:"salt_len,omitempty"`
}

// DefaultOptions is RSABSSA-SHA384-PSS-Randomized.
func DefaultOptions() Options {
	saltLength := crypto.SHA384.Size()
	return Options{Hash: "Sha384", SaltLength: &saltLength}
}

var hashNames = map[string]crypto.Hash{
	"sha256": crypto.SHA256,
	"sha384": crypto.SHA384,
	"sha512": crypto.SHA512,
}

// ParseHash resolves a hash name such as "Sha384", "SHA-384" or "sha384".
func ParseHash(name string) (crypto.Hash, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	hash, ok := hashNames[normalized]
	return hash, ok
}

/*
Validate checks the options against the modulus of publicKey.

Description: A deterministic (PSSZERO) request must omit salt_len or set it
to 0; a randomized one needs salt_len > 0. The encoded message length
emLen = ceil((modBits-1)/8) must fit hLen + sLen + 2.

Returns:
  - int: The effective salt length
  - error: apperr.ProtocolError
*/
func (options Options) Validate(publicKey *rsa.PublicKey) (int, error) {
	hash, ok := ParseHash(options.Hash)
	if !ok {
		return 0, apperr.ProtocolError("Unsupported hash algorithm",
			apperr.FieldError{Field: "blinded_token_options.hash", Message: fmt.Sprintf("%q is not one of Sha256, Sha384, Sha512", options.Hash)},
		)
	}

	saltLength := 0
	if options.SaltLength != nil {
		saltLength = *options.SaltLength
	}

	switch {
	case options.Deterministic && saltLength != 0:
		return 0, saltError("must be absent or 0 for deterministic signing")
	case !options.Deterministic && saltLength <= 0:
		return 0, saltError("must be greater than 0 for randomized signing")
	}

	encodedLength := (publicKey.N.BitLen() - 1 + 7) / 8
	if encodedLength < hash.Size()+saltLength+2 {
		return 0, saltError(fmt.Sprintf("too large for a %d-bit key with %s", publicKey.N.BitLen(), options.Hash))
	}

	return saltLength, nil
}

// DecodeMessage decodes a base64url (unpadded) blinded message and checks it
// is a representative of publicKey's modulus.
func DecodeMessage(encoded string, publicKey *rsa.PublicKey) ([]byte, error) {
	message, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, messageError("is not base64url without padding")
	}

	if len(message) != publicKey.Size() {
		return nil, messageError(fmt.Sprintf("must be %d bytes, got %d", publicKey.Size(), len(message)))
	}

	if new(big.Int).SetBytes(message).Cmp(publicKey.N) >= 0 {
		return nil, messageError("is not smaller than the modulus")
	}

	return message, nil
}

func saltError(message string) error {
	return apperr.ProtocolError("Unsupported salt length",
		apperr.FieldError{Field: "blinded_token_options.salt_len", Message: message},
	)
}

func messageError(message string) error {
	return apperr.ProtocolError("Malformed blinded message",
		apperr.FieldError{Field: "blinded_token_message", Message: message},
	)
}
