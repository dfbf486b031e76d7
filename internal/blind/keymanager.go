// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blind implements RSA blind signatures (RFC 9474) over a rotating set
of ephemeral keys.

Architecture:

  - KeyManager: owns the active and retired key pairs and rotates them on a
    fixed period. It is the only mutable state shared between the rotation
    goroutine and request handlers.
  - Service: validates signing options and signs blinded messages with the
    active key.
  - Quota: optional per-subscriber issuance limit per key.

The server never sees the unblinded message; blinding and finalisation happen
on the client.
*/
package blind

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/metrics"
)

// # Key Material

// Status is the lifecycle state of a published key pair.
type Status string

const (
	StatusActive  Status = "active"
	StatusRetired Status = "retired"
)

// KeyPair is one ephemeral blind-signing key.
type KeyPair struct {
	ID        string
	Private   *rsa.PrivateKey
	CreatedAt time.Time
}

// Public returns the verification half of the pair.
func (pair *KeyPair) Public() *rsa.PublicKey { return &pair.Private.PublicKey }

// PublicKey is the published view of a key pair.
type PublicKey struct {
	ID        string
	Key       *rsa.PublicKey
	Status    Status
	CreatedAt time.Time
}

// ActiveKey is a consistent snapshot of the signing key.
type ActiveKey struct {
	*KeyPair

	// ExpiresAt is when the next scheduled rotation retires this key. While a
	// failed rotation is being retried it is never earlier than the next retry.
	ExpiresAt time.Time

	// Remaining is ExpiresAt measured from the manager's clock.
	Remaining time.Duration
}

// KeyID derives the identifier of an RSA public key: base64url (no padding)
// of the SHA-256 digest of its PKCS #1 DER encoding.
func KeyID(publicKey *rsa.PublicKey) string {
	digest := sha256.Sum256(x509.MarshalPKCS1PublicKey(publicKey))
	return base64.RawURLEncoding.EncodeToString(digest[:])
}

// KeyGenerator produces a fresh RSA private key of the given size.
type KeyGenerator func(bits int) (*rsa.PrivateKey, error)

// GenerateRSA is the default [KeyGenerator].
func GenerateRSA(bits int) (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, bits)
}

// # Key Manager

// KeyManagerConfig bounds rotation.
type KeyManagerConfig struct {
	// Period between rotations.
	Period time.Duration
	// RetiredKeys is how many previous keys stay published after rotation.
	RetiredKeys int
	// Bits is the RSA modulus size.
	Bits int
}

// KeyManagerOption customizes a [KeyManager].
type KeyManagerOption func(*KeyManager)

// WithGenerator replaces the RSA key generator.
func WithGenerator(generate KeyGenerator) KeyManagerOption {
	return func(manager *KeyManager) { manager.generate = generate }
}

// WithKeyClock overrides the time source.
func WithKeyClock(now func() time.Time) KeyManagerOption {
	return func(manager *KeyManager) { manager.now = now }
}

// WithRetryDelay overrides the wait before retrying a failed rotation.
func WithRetryDelay(delay time.Duration) KeyManagerOption {
	return func(manager *KeyManager) { manager.retryDelay = delay }
}

/*
KeyManager holds at most one active key and a bounded list of retired keys.

Readers take the read lock only long enough to copy pointers; rotation
generates the new key outside the lock and holds the write lock only for
the swap. A failed rotation leaves the current active key serving.
*/
type KeyManager struct {
	mu        sync.RWMutex
	active    *KeyPair
	retired   []*KeyPair // newest first
	rotatedAt time.Time

	config     KeyManagerConfig
	generate   KeyGenerator
	now        func() time.Time
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewKeyManager generates the first active key.
func NewKeyManager(config KeyManagerConfig, logger *slog.Logger, options ...KeyManagerOption) (*KeyManager, error) {
	if config.Period <= 0 {
		return nil, errors.New("blind: rotation period must be positive")
	}
	if config.RetiredKeys < 0 {
		return nil, errors.New("blind: retired key count must not be negative")
	}

	manager := &KeyManager{
		config:     config,
		generate:   GenerateRSA,
		now:        time.Now,
		retryDelay: constants.BlindRotationRetryDelay,
		logger:     logger,
	}
	for _, option := range options {
		option(manager)
	}

	first, err := manager.newPair()
	if err != nil {
		return nil, fmt.Errorf("blind: initial key generation failed: %w", err)
	}

	manager.active = first
	manager.rotatedAt = first.CreatedAt
	metrics.BlindKeysPublished.Set(1)

	logger.Info("blind_key_generated", slog.String("key_id", first.ID), slog.Int("bits", config.Bits))
	return manager, nil
}

// Current returns the active key and when it is due to retire.
func (manager *KeyManager) Current() ActiveKey {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	now := manager.now()
	expiresAt := manager.rotatedAt.Add(manager.config.Period)
	if floor := now.Add(manager.retryDelay); expiresAt.Before(floor) {
		expiresAt = floor
	}
	return ActiveKey{KeyPair: manager.active, ExpiresAt: expiresAt, Remaining: expiresAt.Sub(now)}
}

// PublicKeys returns the active key followed by the retired keys, newest first.
func (manager *KeyManager) PublicKeys() []PublicKey {
	manager.mu.RLock()
	defer manager.mu.RUnlock()

	keys := make([]PublicKey, 0, 1+len(manager.retired))
	keys = append(keys, publicView(manager.active, StatusActive))
	for _, pair := range manager.retired {
		keys = append(keys, publicView(pair, StatusRetired))
	}
	return keys
}

/*
Rotate makes a freshly generated key active and retires the previous one.

Description: The oldest retired key beyond the configured bound is purged.
On generation failure nothing changes and the error is returned.
*/
func (manager *KeyManager) Rotate(ctx context.Context) error {
	next, err := manager.newPair()
	if err != nil {
		metrics.BlindKeyRotations.WithLabelValues("failure").Inc()
		return fmt.Errorf("blind: key generation failed: %w", err)
	}

	manager.mu.Lock()
	previous := manager.active
	retired := make([]*KeyPair, 0, manager.config.RetiredKeys)
	if manager.config.RetiredKeys > 0 {
		retired = append(retired, previous)
		for _, pair := range manager.retired {
			if len(retired) == manager.config.RetiredKeys {
				break
			}
			retired = append(retired, pair)
		}
	}
	manager.active = next
	manager.retired = retired
	manager.rotatedAt = next.CreatedAt
	published := 1 + len(retired)
	manager.mu.Unlock()

	metrics.BlindKeyRotations.WithLabelValues("success").Inc()
	metrics.BlindKeysPublished.Set(float64(published))
	manager.logger.InfoContext(ctx, "blind_key_rotated",
		slog.String("key_id", next.ID),
		slog.String("retired_key_id", previous.ID),
		slog.Int("published", published),
	)
	return nil
}

// Run rotates every period until ctx is cancelled; a failed rotation is
// retried after the retry delay.
func (manager *KeyManager) Run(ctx context.Context) {
	timer := time.NewTimer(manager.config.Period)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			wait := manager.config.Period
			if err := manager.Rotate(ctx); err != nil {
				manager.logger.ErrorContext(ctx, "blind_key_rotation_failed",
					slog.Any("error", err),
					slog.Duration("retry_in", manager.retryDelay),
				)
				wait = manager.retryDelay
			}
			timer.Reset(wait)
		}
	}
}

func (manager *KeyManager) newPair() (*KeyPair, error) {
	privateKey, err := manager.generate(manager.config.Bits)
	if err != nil {
		return nil, err
	}
	return &KeyPair{
		ID:        KeyID(&privateKey.PublicKey),
		Private:   privateKey,
		CreatedAt: manager.now(),
	}, nil
}

func publicView(pair *KeyPair, status Status) PublicKey {
	return PublicKey{ID: pair.ID, Key: pair.Public(), Status: status, CreatedAt: pair.CreatedAt}
}
