// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloudflare/circl/blindsign/blindrsa"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/metrics"
)

// # Service Layer

// SignRequest is one blind-signing call.
type SignRequest struct {
	// Subject is the authenticated subscriber id; used only for the quota.
	Subject string
	// Message is the base64url blinded message.
	Message string
	Options Options
}

// SignResult is the raw blind signature and the key that made it.
type SignResult struct {
	Signature []byte
	KeyID     string
	ExpiresAt time.Time
}

// Service signs blinded messages with the manager's active key.
type Service struct {
	keys   *KeyManager
	quota  Quota
	logger *slog.Logger
}

// NewService constructs a new [Service]. A nil quota means unlimited.
func NewService(keys *KeyManager, quota Quota, logger *slog.Logger) *Service {
	if quota == nil {
		quota = Unlimited{}
	}
	return &Service{keys: keys, quota: quota, logger: logger}
}

/*
Sign validates the options and message against the active key, charges the
quota, and returns the blind signature.

Description: The key is read once; a rotation racing this call does not
change which key signs, and the retired key stays published.

Returns:
  - *SignResult: Signature bytes (modulus length), key id and key expiry
  - error: apperr.ProtocolError, apperr.RateLimited, or internal failures
*/
func (service *Service) Sign(ctx context.Context, request SignRequest) (*SignResult, error) {
	active := service.keys.Current()

	if _, err := request.Options.Validate(active.Public()); err != nil {
		metrics.BlindSignRejected.WithLabelValues("options").Inc()
		return nil, err
	}

	message, err := DecodeMessage(request.Message, active.Public())
	if err != nil {
		metrics.BlindSignRejected.WithLabelValues("message").Inc()
		return nil, err
	}

	if err := service.quota.Consume(ctx, active.ID, request.Subject, active.Remaining); err != nil {
		if apperr.HasCode(err, apperr.CodeRateLimited) {
			metrics.BlindSignRejected.WithLabelValues("quota").Inc()
		}
		return nil, err
	}

	signature, err := blindrsa.NewSigner(active.Private).BlindSign(message)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("blind_sign_failed: %w", err))
	}

	metrics.BlindSignatures.Inc()
	service.logger.InfoContext(ctx, "blind_signature_issued",
		slog.String("key_id", active.ID),
		slog.String("hash", request.Options.Hash),
		slog.Bool("deterministic", request.Options.Deterministic),
	)

	return &SignResult{Signature: signature, KeyID: active.ID, ExpiresAt: active.ExpiresAt}, nil
}
