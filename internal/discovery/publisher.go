// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package discovery publishes the public halves of the identity key and the
// blind-signature keys as JWK sets.
//
// # Documents
//
// Two independent sets are served:
//
//   - /jwks: the single identity-signer key, fixed for the process lifetime.
//   - /blindjwks: every active and retired blind-signature key, read from the
//     key manager on each call so a rotation is visible on the next request.
//     The active key comes first, and each entry carries a "status" member
//     ("active" or "retired"). No "alg" is set: the RSA-PSS hash is chosen by
//     the client per signature, so one key serves PS256, PS384 and PS512.
package discovery

import (
	"context"
	"crypto"
	"encoding/json"
	"fmt"

	"github.com/MicahParks/jwkset"

	"github.com/taibuivan/yomira-id/internal/blind"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// IdentityKey is the read side of the identity signer.
type IdentityKey interface {
	Algorithm() sec.Algorithm
	KeyID() string
	PublicKey() crypto.PublicKey
}

// BlindKeys lists the blind-signature keys still accepted by verifiers.
type BlindKeys interface {
	PublicKeys() []blind.PublicKey
}

// Publisher renders the two key documents.
type Publisher struct {
	identityDocument json.RawMessage
	blindKeys        BlindKeys
}

// NewPublisher renders the identity document once; the blind document is
// rendered per call.
func NewPublisher(ctx context.Context, identity IdentityKey, blindKeys BlindKeys) (*Publisher, error) {
	document, err := renderIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &Publisher{identityDocument: document, blindKeys: blindKeys}, nil
}

// IdentityJWKS returns the identity key set.
func (publisher *Publisher) IdentityJWKS() json.RawMessage {
	return publisher.identityDocument
}

// BlindJWKS returns the current blind key set, active key first.
func (publisher *Publisher) BlindJWKS(ctx context.Context) (json.RawMessage, error) {
	storage := jwkset.NewMemoryStorage()
	keys := publisher.blindKeys.PublicKeys()
	statuses := make(map[string]blind.Status, len(keys))

	for _, key := range keys {
		statuses[key.ID] = key.Status
		jwk, err := jwkset.NewJWKFromKey(key.Key, jwkset.JWKOptions{
			Metadata: jwkset.JWKMetadataOptions{
				KID: key.ID,
				USE: jwkset.UseSig,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("discovery: blind key %s: %w", key.ID, err)
		}
		if err := storage.KeyWrite(ctx, jwk); err != nil {
			return nil, fmt.Errorf("discovery: blind key %s: %w", key.ID, err)
		}
	}

	document, err := storage.JSONPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery: blind key set: %w", err)
	}
	return withStatus(document, statuses)
}

// withStatus adds the lifecycle "status" member to every key of a rendered set.
func withStatus(document json.RawMessage, statuses map[string]blind.Status) (json.RawMessage, error) {
	var set struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(document, &set); err != nil {
		return nil, fmt.Errorf("discovery: blind key set: %w", err)
	}

	for _, key := range set.Keys {
		kid, _ := key["kid"].(string)
		if status, ok := statuses[kid]; ok {
			key["status"] = status
		}
	}

	return json.Marshal(set)
}

func renderIdentity(ctx context.Context, identity IdentityKey) (json.RawMessage, error) {
	jwk, err := jwkset.NewJWKFromKey(identity.PublicKey(), jwkset.JWKOptions{
		Metadata: jwkset.JWKMetadataOptions{
			ALG: jwkAlgorithm(identity.Algorithm()),
			KID: identity.KeyID(),
			USE: jwkset.UseSig,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("discovery: identity key: %w", err)
	}

	storage := jwkset.NewMemoryStorage()
	if err := storage.KeyWrite(ctx, jwk); err != nil {
		return nil, fmt.Errorf("discovery: identity key: %w", err)
	}
	return storage.JSONPublic(ctx)
}

func jwkAlgorithm(algorithm sec.Algorithm) jwkset.ALG {
	if algorithm == sec.AlgorithmEdDSA {
		return jwkset.AlgEdDSA
	}
	return jwkset.AlgES256
}
