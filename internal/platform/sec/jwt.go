// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and ID-token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, ID-token
// signing) from the domain logic. Domain services receive an [IdentitySigner]
// through narrow interfaces and never touch key material directly.
//
// # Algorithms
//
// The identity key is one long-lived asymmetric key loaded from PEM at startup.
// The supported [Algorithm] set is closed: ES256 (P-256 ECDSA) and EdDSA (Ed25519).
package sec

import (
	"crypto"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/pkg/uuid"
)

// # Algorithms

// Algorithm tags the signature scheme of the identity key.
type Algorithm string

const (
	// AlgorithmES256 is ECDSA over P-256 with SHA-256.
	AlgorithmES256 Algorithm = "ES256"

	// AlgorithmEdDSA is Ed25519.
	AlgorithmEdDSA Algorithm = "EdDSA"
)

// ParseAlgorithm resolves a configuration value (case-insensitive) to an [Algorithm].
func ParseAlgorithm(value string) (Algorithm, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "ES256":
		return AlgorithmES256, nil
	case "EDDSA", "ED25519":
		return AlgorithmEdDSA, nil
	default:
		return "", fmt.Errorf("sec: unsupported signing algorithm %q (want ES256 or EdDSA)", value)
	}
}

// signingMethod maps the tag to its jwt implementation.
func (a Algorithm) signingMethod() jwt.SigningMethod {
	if a == AlgorithmEdDSA {
		return jwt.SigningMethodEdDSA
	}
	return jwt.SigningMethodES256
}

// # Claims

// IDClaims is the payload of an ID token.
//
// The subject is always the opaque subscriber id, never the username.
type IDClaims struct {
	jwt.RegisteredClaims

	// IsAdmin mirrors the account's admin flag at issuance time.
	IsAdmin bool `json:"iad,omitempty"`
}

// TokenRequest describes one ID token to mint.
type TokenRequest struct {
	Subject  string
	Audience string // Client id; omitted from the token when empty.
	Issuer   string
	TTL      time.Duration
	IsAdmin  bool
}

// SignedToken is a compact JWS plus the timestamps it carries.
type SignedToken struct {
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// # Identity Signer

// IdentitySigner issues and verifies ID tokens with a single asymmetric key.
//
// It is immutable after construction and safe for concurrent use.
type IdentitySigner struct {
	algorithm  Algorithm
	method     jwt.SigningMethod
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	keyID      string
	embedKeyID bool
	now        func() time.Time
}

// SignerOption customizes an [IdentitySigner].
type SignerOption func(*IdentitySigner)

// WithKeyIDHeader embeds the key identifier as "kid" in every token header.
func WithKeyIDHeader() SignerOption {
	return func(signer *IdentitySigner) { signer.embedKeyID = true }
}

// WithClock overrides the time source used for issuance and verification.
func WithClock(now func() time.Time) SignerOption {
	return func(signer *IdentitySigner) { signer.now = now }
}

// LoadIdentitySigner reads a PEM private key from disk.
//
// Any failure is a [apperr.CodeConfiguration] error: the process must not start
// without a usable identity key.
func LoadIdentitySigner(algorithm Algorithm, keyPath string, options ...SignerOption) (*IdentitySigner, error) {
	pemBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, apperr.Configuration(fmt.Errorf("sec: failed to read signing key from %s: %w", keyPath, err))
	}
	return NewIdentitySigner(algorithm, pemBytes, options...)
}

// NewIdentitySigner parses a PEM private key for the given algorithm.
func NewIdentitySigner(algorithm Algorithm, pemBytes []byte, options ...SignerOption) (*IdentitySigner, error) {
	var (
		privateKey crypto.Signer
		publicKey  crypto.PublicKey
	)

	switch algorithm {
	case AlgorithmES256:
		key, err := jwt.ParseECPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, apperr.Configuration(fmt.Errorf("sec: failed to parse EC private key: %w", err))
		}
		if key.Curve != elliptic.P256() {
			return nil, apperr.Configuration(errors.New("sec: ES256 requires a P-256 key"))
		}
		privateKey, publicKey = key, &key.PublicKey

	case AlgorithmEdDSA:
		key, err := jwt.ParseEdPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return nil, apperr.Configuration(fmt.Errorf("sec: failed to parse Ed25519 private key: %w", err))
		}
		edKey, ok := key.(ed25519.PrivateKey)
		if !ok {
			return nil, apperr.Configuration(errors.New("sec: EdDSA requires an Ed25519 key"))
		}
		privateKey, publicKey = edKey, edKey.Public()

	default:
		return nil, apperr.Configuration(fmt.Errorf("sec: unsupported signing algorithm %q", algorithm))
	}

	keyID, err := PublicKeyID(publicKey)
	if err != nil {
		return nil, apperr.Configuration(err)
	}

	signer := &IdentitySigner{
		algorithm:  algorithm,
		method:     algorithm.signingMethod(),
		privateKey: privateKey,
		publicKey:  publicKey,
		keyID:      keyID,
		now:        time.Now,
	}
	for _, option := range options {
		option(signer)
	}

	return signer, nil
}

// PublicKeyID derives a key identifier: base64url(SHA-256(PKIX DER public key)).
func PublicKeyID(publicKey crypto.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return "", fmt.Errorf("sec: failed to marshal public key: %w", err)
	}
	digest := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(digest[:]), nil
}

// Algorithm returns the signature scheme of the loaded key.
func (signer *IdentitySigner) Algorithm() Algorithm { return signer.algorithm }

// KeyID returns the identifier of the loaded key.
func (signer *IdentitySigner) KeyID() string { return signer.keyID }

// PublicKey returns the verification key (*ecdsa.PublicKey or ed25519.PublicKey).
func (signer *IdentitySigner) PublicKey() crypto.PublicKey { return signer.publicKey }

// Issue signs a new ID token.
func (signer *IdentitySigner) Issue(request TokenRequest) (*SignedToken, error) {
	if request.Subject == "" {
		return nil, errors.New("sec: token subject is required")
	}

	issuedAt := signer.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(request.TTL)

	claims := IDClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New(),
			Subject:   request.Subject,
			Issuer:    request.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		IsAdmin: request.IsAdmin,
	}
	if request.Audience != "" {
		claims.Audience = jwt.ClaimStrings{request.Audience}
	}

	token := jwt.NewWithClaims(signer.method, claims)
	if signer.embedKeyID {
		token.Header["kid"] = signer.keyID
	}

	signedToken, err := token.SignedString(signer.privateKey)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return &SignedToken{Token: signedToken, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify checks signature, algorithm, expiry, issuer and (when expectedAudience
// is non-empty) audience.
//
// Every failure is reported as a [apperr.CodeTokenInvalid] error; no claims are
// returned alongside an error. A token is still valid during the second named
// by its exp claim and rejected once that second has passed.
func (signer *IdentitySigner) Verify(tokenString, expectedIssuer, expectedAudience string) (*IDClaims, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{signer.method.Alg()}),
		jwt.WithIssuer(expectedIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(signer.now),
		jwt.WithLeeway(time.Second),
	}
	if expectedAudience != "" {
		parserOptions = append(parserOptions, jwt.WithAudience(expectedAudience))
	}

	claims := &IDClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if kid, ok := token.Header["kid"].(string); ok && kid != signer.keyID {
			return nil, fmt.Errorf("sec: unknown key id %q", kid)
		}
		return signer.publicKey, nil
	}, parserOptions...)
	if err != nil {
		return nil, apperr.TokenInvalid(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, apperr.TokenInvalid(errors.New("sec: token has no subject"))
	}

	return claims, nil
}

// # Bearer Verification

// BearerVerifier adapts an [IdentitySigner] to the HTTP middleware, pinning the
// deployment's issuer.
type BearerVerifier struct {
	Signer *IdentitySigner
	Issuer string
}

// VerifyToken verifies a bearer ID token issued by this deployment for any client.
func (verifier BearerVerifier) VerifyToken(tokenString string) (*IDClaims, error) {
	return verifier.Signer.Verify(tokenString, verifier.Issuer, "")
}
