// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/metrics"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
)

// # Refresh Token Manager

// RefreshManager issues and redeems single-use refresh tokens.
type RefreshManager struct {
	tokens RefreshTokenRepository
	ttl    time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// RefreshOption customizes a [RefreshManager].
type RefreshOption func(*RefreshManager)

// WithRefreshClock overrides the time source used for expiry decisions.
func WithRefreshClock(now func() time.Time) RefreshOption {
	return func(manager *RefreshManager) { manager.now = now }
}

// NewRefreshManager constructs a [RefreshManager] issuing tokens valid for ttl.
func NewRefreshManager(tokens RefreshTokenRepository, ttl time.Duration, logger *slog.Logger, options ...RefreshOption) *RefreshManager {
	manager := &RefreshManager{tokens: tokens, ttl: ttl, now: time.Now, logger: logger}
	for _, option := range options {
		option(manager)
	}
	return manager
}

// Issue mints and stores a refresh token bound to subscriberID and clientID.
func (manager *RefreshManager) Issue(ctx context.Context, subscriberID string, clientID *string) (*IssuedRefreshToken, error) {
	issued, record, err := manager.mint(subscriberID, clientID)
	if err != nil {
		return nil, err
	}

	if err := manager.tokens.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("auth_refresh_issue_failed: %w", err)
	}
	return issued, nil
}

/*
Redeem consumes value and issues its successor for the same subscriber and
client.

Description: A token is redeemable once. A replayed, unknown or client-mismatched
token yields apperr.NotFound; an expired one yields apperr.Expired and is
deleted.

Returns:
  - *RefreshToken: The consumed record (subscriber id, client id)
  - *IssuedRefreshToken: The successor
  - error: apperr.NotFound, apperr.Expired, or storage failures
*/
func (manager *RefreshManager) Redeem(ctx context.Context, value string, clientID *string) (*RefreshToken, *IssuedRefreshToken, error) {
	if value == "" {
		return nil, nil, apperr.NotFound(refreshTokenResource)
	}

	var successor *IssuedRefreshToken
	consumed, err := manager.tokens.Rotate(ctx, sec.HashToken(value), clientID, manager.now(),
		func(consumed *RefreshToken) (*RefreshToken, error) {
			issued, record, err := manager.mint(consumed.SubscriberID, consumed.ClientID)
			if err != nil {
				return nil, err
			}
			successor = issued
			return record, nil
		},
	)
	if err != nil {
		return nil, nil, err
	}

	manager.logger.DebugContext(ctx, "refresh_token_rotated",
		slog.String("subscriber_id", consumed.SubscriberID),
		slog.Int64("consumed_id", consumed.ID),
	)
	return consumed, successor, nil
}

// Prune deletes every expired record.
func (manager *RefreshManager) Prune(ctx context.Context) (int64, error) {
	removed, err := manager.tokens.DeleteExpired(ctx, manager.now())
	if err != nil {
		return 0, fmt.Errorf("auth_refresh_prune_failed: %w", err)
	}
	metrics.RefreshTokensPruned.Add(float64(removed))
	return removed, nil
}

// RunPruner prunes expired records every interval until ctx is cancelled.
func (manager *RefreshManager) RunPruner(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := manager.Prune(ctx)
			if err != nil {
				manager.logger.ErrorContext(ctx, "refresh_token_prune_failed", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				manager.logger.InfoContext(ctx, "refresh_tokens_pruned", slog.Int64("count", removed))
			}
		}
	}
}

func (manager *RefreshManager) mint(subscriberID string, clientID *string) (*IssuedRefreshToken, *RefreshToken, error) {
	value, err := sec.GenerateSecureToken(constants.RefreshTokenBytes)
	if err != nil {
		return nil, nil, apperr.Internal(fmt.Errorf("auth_refresh_random_failed: %w", err))
	}

	expiresAt := manager.now().Add(manager.ttl)
	record := &RefreshToken{
		SubscriberID: subscriberID,
		ClientID:     clientID,
		TokenHash:    sec.HashToken(value),
		ExpiresAt:    expiresAt,
	}
	return &IssuedRefreshToken{Value: value, ExpiresAt: expiresAt}, record, nil
}
