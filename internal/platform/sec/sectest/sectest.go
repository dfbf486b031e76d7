// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sectest provides key material and signers for tests.
package sectest

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// Issuer is the issuer used by test signers.
const Issuer = "https://id.test.yomira.app/v1.0"

// PrivateKeyPEM generates a fresh PEM-encoded private key for the algorithm.
func PrivateKeyPEM(t testing.TB, algorithm sec.Algorithm) []byte {
	t.Helper()

	switch algorithm {
	case sec.AlgorithmEdDSA:
		_, privateKey, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		require.NoError(t, err)
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})

	default:
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalECPrivateKey(privateKey)
		require.NoError(t, err)
		return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der})
	}
}

// NewSigner builds an [sec.IdentitySigner] over a freshly generated key.
func NewSigner(t testing.TB, algorithm sec.Algorithm, options ...sec.SignerOption) *sec.IdentitySigner {
	t.Helper()

	signer, err := sec.NewIdentitySigner(algorithm, PrivateKeyPEM(t, algorithm), options...)
	require.NoError(t, err)
	return signer
}
