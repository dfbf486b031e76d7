// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tokenclient

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/cloudflare/circl/blindsign/blindrsa"
)

// variant is RSABSSA-SHA384-PSS-Randomized, the server's default parameter set.
const variant = blindrsa.SHA384PSSRandomized

// saltLength matches SHA-384's digest size.
const saltLength = 48

// ErrKeyRotated means the server signed with a different key than the one
// the message was blinded for; the signature cannot be finalized.
var ErrKeyRotated = errors.New("tokenclient: blind key rotated during signing")

// BlindKey is one published blind-signature key.
type BlindKey struct {
	ID  string
	Key *rsa.PublicKey
}

// AnonymousToken is an unblinded signature over a prepared message.
//
// Message already carries the random prefix added during preparation, so it
// is what verifiers must check, not the caller's original input.
type AnonymousToken struct {
	KeyID     string
	Message   []byte
	Signature []byte
	ExpiresAt time.Time
}

// String encodes the token as key_id.message.signature, each part base64url.
func (token *AnonymousToken) String() string {
	return strings.Join([]string{
		token.KeyID,
		base64.RawURLEncoding.EncodeToString(token.Message),
		base64.RawURLEncoding.EncodeToString(token.Signature),
	}, ".")
}

// ParseAnonymousToken reverses [AnonymousToken.String]. ExpiresAt is not
// carried and stays zero.
func ParseAnonymousToken(encoded string) (*AnonymousToken, error) {
	parts := strings.Split(encoded, ".")
	if len(parts) != 3 || parts[0] == "" {
		return nil, errors.New("tokenclient: anonymous token must have three parts")
	}

	message, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("tokenclient: anonymous token message: %w", err)
	}
	signature, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("tokenclient: anonymous token signature: %w", err)
	}

	return &AnonymousToken{KeyID: parts[0], Message: message, Signature: signature}, nil
}

// BlindKeys fetches /blindjwks. The active key comes first.
func (client *Client) BlindKeys(ctx context.Context) ([]BlindKey, error) {
	raw, err := client.get(ctx, "/blindjwks")
	if err != nil {
		return nil, err
	}
	return parseBlindKeys(raw)
}

func parseBlindKeys(raw []byte) ([]BlindKey, error) {
	var document struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("tokenclient: decode blind key set: %w", err)
	}

	keys := make([]BlindKey, 0, len(document.Keys))
	for _, entry := range document.Keys {
		jwk, err := jwkset.NewJWKFromRawJSON(entry, jwkset.JWKMarshalOptions{}, jwkset.JWKValidateOptions{})
		if err != nil {
			return nil, fmt.Errorf("tokenclient: parse blind key: %w", err)
		}
		publicKey, ok := jwk.Key().(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("tokenclient: blind key %s is not RSA", jwk.Marshal().KID)
		}
		keys = append(keys, BlindKey{ID: jwk.Marshal().KID, Key: publicKey})
	}

	if len(keys) == 0 {
		return nil, errors.New("tokenclient: blind key set is empty")
	}
	return keys, nil
}

type blindSignRequest struct {
	Message string           `json:"blinded_token_message"`
	Options blindSignOptions `json:"blinded_token_options"`
}

type blindSignOptions struct {
	Hash          string `json:"hash"`
	Deterministic bool   `json:"deterministic"`
	SaltLength    int    `json:"salt_len"`
}

type blindSignResponse struct {
	BlindSignature string `json:"blind_signature"`
	KeyID          string `json:"key_id"`
	ExpiresAt      int64  `json:"expires_at"`
}

/*
AnonymousToken obtains a signature over message that the server cannot link
to idToken.

Description: The message is prepared and blinded for the active blind key,
signed by /blindsign, then unblinded and checked locally. When a rotation
lands between fetching the key set and signing, the attempt is repeated once
against the new key.

Returns:
  - *AnonymousToken: The unblinded credential
  - error: *APIError from the server, [ErrKeyRotated], or local failures
*/
func (client *Client) AnonymousToken(ctx context.Context, idToken string, message []byte) (*AnonymousToken, error) {
	var err error
	for range 2 {
		var token *AnonymousToken
		token, err = client.anonymousToken(ctx, idToken, message)
		if !errors.Is(err, ErrKeyRotated) {
			return token, err
		}
	}
	return nil, err
}

func (client *Client) anonymousToken(ctx context.Context, idToken string, message []byte) (*AnonymousToken, error) {
	keys, err := client.BlindKeys(ctx)
	if err != nil {
		return nil, err
	}
	active := keys[0]

	blinder, err := blindrsa.NewClient(variant, active.Key)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: blind client: %w", err)
	}
	prepared, err := blinder.Prepare(rand.Reader, message)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: prepare message: %w", err)
	}
	blinded, state, err := blinder.Blind(rand.Reader, prepared)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: blind message: %w", err)
	}

	var response blindSignResponse
	err = client.post(ctx, "/blindsign", idToken, blindSignRequest{
		Message: base64.RawURLEncoding.EncodeToString(blinded),
		Options: blindSignOptions{Hash: "Sha384", SaltLength: saltLength},
	}, &response)
	if err != nil {
		var apiError *APIError
		// A blinded value sized for the old key can be rejected by the new one.
		if errors.As(err, &apiError) && apiError.Status == http.StatusBadRequest {
			if current, keyErr := client.BlindKeys(ctx); keyErr == nil && current[0].ID != active.ID {
				return nil, ErrKeyRotated
			}
		}
		return nil, err
	}

	if response.KeyID != active.ID {
		return nil, ErrKeyRotated
	}

	blindSignature, err := base64.RawURLEncoding.DecodeString(response.BlindSignature)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: decode blind signature: %w", err)
	}
	signature, err := blinder.Finalize(state, blindSignature)
	if err != nil {
		return nil, fmt.Errorf("tokenclient: finalize signature: %w", err)
	}

	return &AnonymousToken{
		KeyID:     active.ID,
		Message:   prepared,
		Signature: signature,
		ExpiresAt: time.Unix(response.ExpiresAt, 0),
	}, nil
}
