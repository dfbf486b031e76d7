// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth issues ID tokens and their paired refresh tokens.

It owns the client-id allow-list and the refresh-token lifecycle; the user
directory itself lives in package account and token signing in package sec.

Architecture:

  - Service: Login (password grant) and Refresh (refresh-token grant).
  - RefreshManager: single-use refresh tokens with atomic rotation.
  - ClientPolicy: the allow-list consulted by both grants.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/metrics"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/users/account"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

// Grant labels used in logs and metrics.
const (
	GrantPassword = "password"
	GrantRefresh  = "refresh_token"
)

// # Contracts

// Accounts is the slice of the user directory the token grants need.
type Accounts interface {
	Verify(ctx context.Context, username, password string) (*account.User, error)
	Principal(ctx context.Context, subscriberID string) (*account.User, error)
}

// TokenIssuer mints signed ID tokens.
type TokenIssuer interface {
	Issue(request sec.TokenRequest) (*sec.SignedToken, error)
}

// Settings carries the issuance parameters fixed at startup.
type Settings struct {
	Issuer     string
	IDTokenTTL time.Duration
}

// # Service Layer

// Service implements the /tokens and /refresh grants.
type Service struct {
	accounts Accounts
	signer   TokenIssuer
	refresh  *RefreshManager
	clients  *ClientPolicy
	settings Settings
	logger   *slog.Logger
}

// NewService constructs a new [Service].
func NewService(
	accounts Accounts,
	signer TokenIssuer,
	refresh *RefreshManager,
	clients *ClientPolicy,
	settings Settings,
	logger *slog.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		signer:   signer,
		refresh:  refresh,
		clients:  clients,
		settings: settings,
		logger:   logger,
	}
}

// LoginInput carries the password grant.
type LoginInput struct {
	Username string
	Password string
	ClientID *string
}

// RefreshInput carries the refresh-token grant.
type RefreshInput struct {
	RefreshToken string
	ClientID     *string
}

/*
Login verifies credentials and issues an ID token plus a refresh token.

Returns:
  - *TokenResponse: The issued pair and account metadata
  - error: apperr.InvalidCredentials, client policy errors, or internal failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*TokenResponse, error) {
	if err := service.clients.Check(input.ClientID); err != nil {
		return nil, err
	}

	user, err := service.accounts.Verify(ctx, input.Username, input.Password)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeInvalidCredentials) {
			metrics.LoginFailures.Inc()
		}
		return nil, err
	}

	refresh, err := service.refresh.Issue(ctx, user.SubscriberID, input.ClientID)
	if err != nil {
		return nil, err
	}

	return service.respond(ctx, user, input.ClientID, refresh, GrantPassword, "ok. login.")
}

/*
Refresh redeems a refresh token for a new ID token and refresh token.

Description: The presented token is consumed whatever happens next. Unknown,
replayed and client-mismatched tokens are all reported as 401.

Returns:
  - *TokenResponse: The new pair
  - error: apperr.NotFound (as 401), apperr.Expired, apperr.Unauthorized, or internal failures
*/
func (service *Service) Refresh(ctx context.Context, input RefreshInput) (*TokenResponse, error) {
	if err := service.clients.Check(input.ClientID); err != nil {
		return nil, err
	}

	consumed, successor, err := service.refresh.Redeem(ctx, input.RefreshToken, input.ClientID)
	if err != nil {
		return nil, service.rejectRefresh(err)
	}

	user, err := service.accounts.Principal(ctx, consumed.SubscriberID)
	if err != nil {
		return nil, err
	}

	return service.respond(ctx, user, consumed.ClientID, successor, GrantRefresh, "ok. token is refreshed.")
}

// # Helpers

func (service *Service) respond(
	ctx context.Context,
	user *account.User,
	clientID *string,
	refresh *IssuedRefreshToken,
	grant, message string,
) (*TokenResponse, error) {
	signed, err := service.signer.Issue(sec.TokenRequest{
		Subject:  user.SubscriberID,
		Audience: pointer.Val(clientID),
		Issuer:   service.settings.Issuer,
		TTL:      service.settings.IDTokenTTL,
		IsAdmin:  user.IsAdmin,
	})
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_sign_failed: %w", err))
	}

	allowedApps := []string{}
	if id := pointer.Val(clientID); id != "" {
		allowedApps = append(allowedApps, id)
	}

	metrics.TokensIssued.WithLabelValues(grant).Inc()
	service.logger.InfoContext(ctx, "token_issued",
		slog.String("grant", grant),
		slog.String("subscriber_id", user.SubscriberID),
		slog.String("client_id", pointer.Val(clientID)),
		slog.Time("expires", signed.ExpiresAt),
	)

	return &TokenResponse{
		Token: TokenBody{
			ID:           signed.Token,
			Refresh:      refresh.Value,
			IssuedAt:     signed.IssuedAt.Unix(),
			Expires:      signed.ExpiresAt.Unix(),
			AllowedApps:  allowedApps,
			Issuer:       service.settings.Issuer,
			SubscriberID: user.SubscriberID,
		},
		Metadata: TokenMetadata{Username: user.Username, IsAdmin: user.IsAdmin},
		Message:  message,
	}, nil
}

// rejectRefresh counts a failed redemption and maps NotFound onto 401.
func (service *Service) rejectRefresh(err error) error {
	var appErr *apperr.AppError
	if !errors.As(err, &appErr) {
		return err
	}

	switch appErr.Code {
	case apperr.CodeNotFound:
		metrics.RefreshRejected.WithLabelValues("not_found").Inc()
		return appErr.WithStatus(http.StatusUnauthorized)
	case apperr.CodeExpired:
		metrics.RefreshRejected.WithLabelValues("expired").Inc()
	}
	return err
}
