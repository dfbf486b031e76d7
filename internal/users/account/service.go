// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/constants"
	"github.com/taibuivan/yomira-id/internal/platform/sec"
	"github.com/taibuivan/yomira-id/internal/platform/validate"
	"github.com/taibuivan/yomira-id/pkg/normalize"
	"github.com/taibuivan/yomira-id/pkg/pagination"
	"github.com/taibuivan/yomira-id/pkg/uuid"
)

const (
	maxUsernameLength = 64
	maxPasswordLength = 1024
)

// # Service Layer

// Service implements the credential-store operations over a [UserRepository].
type Service struct {
	users  UserRepository
	logger *slog.Logger
}

// NewService constructs a new [Service].
func NewService(users UserRepository, logger *slog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// # Credential Verification

/*
Verify checks a username/password pair.

Description: An unknown username and a wrong password produce the same
error, and both paths run one full argon2id computation, so neither the
response nor its timing tells the caller which one happened.

Returns:
  - *User: The authenticated user
  - error: apperr.InvalidCredentials, or storage failures
*/
func (service *Service) Verify(ctx context.Context, username, password string) (*User, error) {
	user, err := service.users.FindByUsername(ctx, normalize.Username(username))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			sec.BurnPasswordCheck(password)
			return nil, apperr.InvalidCredentials()
		}
		return nil, fmt.Errorf("account_service_verify_lookup_failed: %w", err)
	}

	matched, err := sec.CheckPasswordHash(password, user.PasswordHash)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("account_service_verify_hash_unreadable: %w", err))
	}
	if !matched {
		return nil, apperr.InvalidCredentials()
	}

	return user, nil
}

// # Administration

/*
Create registers a new non-admin user with a fresh subscriber id.

Returns:
  - *User: The created user
  - error: apperr.ValidationError, apperr.Conflict (taken or reserved username)
*/
func (service *Service) Create(ctx context.Context, username, password string) (*User, error) {
	username = normalize.Username(username)

	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}
	if username == constants.AdminUsername {
		return nil, apperr.Conflict("Username is reserved")
	}

	user, err := service.insert(ctx, username, password, false)
	if err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "user_created",
		slog.String("username", user.Username),
		slog.String("subscriber_id", user.SubscriberID),
	)
	return user, nil
}

/*
Delete removes a user by username on behalf of an administrator.

Description: The reserved admin principal and the acting administrator
itself can never be deleted.

Returns:
  - error: apperr.NotFound, apperr.Forbidden
*/
func (service *Service) Delete(ctx context.Context, actorSubscriberID, username string) error {
	target, err := service.users.FindByUsername(ctx, normalize.Username(username))
	if err != nil {
		return fmt.Errorf("account_service_delete_lookup_failed: %w", err)
	}

	if target.Username == constants.AdminUsername || target.SubscriberID == actorSubscriberID {
		return apperr.Forbidden("This user cannot be deleted")
	}

	if err := service.users.DeleteByUsername(ctx, target.Username); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "user_deleted",
		slog.String("username", target.Username),
		slog.String("subscriber_id", target.SubscriberID),
	)
	return nil
}

/*
List returns one page of the user directory ordered by username.

Description: Pages are 1-indexed and values below 1 are clamped to 1. A page
past the end yields no rows but still reports the real totals.
*/
func (service *Service) List(ctx context.Context, page int) (*UserPage, error) {
	params := pagination.New(page, constants.UsersPerPage)

	total, err := service.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("account_service_count_failed: %w", err)
	}

	rows, err := service.users.List(ctx, params.Limit, params.Offset())
	if err != nil {
		return nil, fmt.Errorf("account_service_list_failed: %w", err)
	}
	if rows == nil {
		rows = []UserSummary{}
	}

	meta := pagination.NewMeta(params.Page, params.Limit, total)
	return &UserPage{
		Users:      rows,
		Page:       meta.Page,
		TotalPages: meta.TotalPages,
		TotalUsers: meta.Total,
	}, nil
}

/*
RequireAdmin re-reads the principal behind a token and confirms it is still
an administrator.

Returns:
  - *User: The administrator
  - error: apperr.Unauthorized for an unknown principal, apperr.Forbidden for a non-admin
*/
func (service *Service) RequireAdmin(ctx context.Context, subscriberID string) (*User, error) {
	user, err := service.Principal(ctx, subscriberID)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, apperr.Forbidden("Administrator privileges required")
	}
	return user, nil
}

// # Self-Service

/*
Update applies a self-service change of username and/or password.

Description: The admin principal may change its password but never its
username, and nobody else may take the admin username.

Returns:
  - error: apperr.ValidationError, apperr.Forbidden, apperr.Conflict
*/
func (service *Service) Update(ctx context.Context, subscriberID string, input UpdateInput) error {
	if input.Username == nil && input.Password == nil {
		return apperr.ValidationError("Nothing to update: provide a username and/or a password")
	}

	user, err := service.Principal(ctx, subscriberID)
	if err != nil {
		return err
	}

	var newUsername, newHash *string

	if input.Username != nil {
		username := normalize.Username(*input.Username)

		v := &validate.Validator{}
		v.Required("username", username).MaxLen("username", username, maxUsernameLength)
		if err := v.Err(); err != nil {
			return err
		}

		switch {
		case user.Username == constants.AdminUsername && username != constants.AdminUsername:
			return apperr.Forbidden("The admin username cannot be changed")
		case username == constants.AdminUsername && user.Username != constants.AdminUsername:
			return apperr.Conflict("Username is reserved")
		case username != user.Username:
			newUsername = &username
		}
	}

	if input.Password != nil {
		v := &validate.Validator{}
		v.MinLen("password", *input.Password, 1).MaxLen("password", *input.Password, maxPasswordLength)
		if err := v.Err(); err != nil {
			return err
		}

		hash, err := sec.HashPassword(*input.Password)
		if err != nil {
			return apperr.Internal(err)
		}
		newHash = &hash
	}

	if newUsername == nil && newHash == nil {
		return nil
	}

	if err := service.users.Update(ctx, subscriberID, newUsername, newHash); err != nil {
		return fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "user_updated",
		slog.String("subscriber_id", subscriberID),
		slog.Bool("username_changed", newUsername != nil),
		slog.Bool("password_changed", newHash != nil),
	)
	return nil
}

// # Bootstrap

/*
Bootstrap ensures the admin principal exists.

Description: When the admin is missing it is created with password, or with a
random 32-character password when password is empty. A generated password is
logged exactly once, since it cannot be recovered afterwards.

Returns:
  - bool: true if the admin was created by this call
  - error: storage failures
*/
func (service *Service) Bootstrap(ctx context.Context, password string) (bool, error) {
	_, err := service.users.FindByUsername(ctx, constants.AdminUsername)
	if err == nil {
		return false, nil
	}
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		return false, fmt.Errorf("account_service_bootstrap_lookup_failed: %w", err)
	}

	generated := password == ""
	if generated {
		password, err = sec.RandomPassword(constants.GeneratedAdminPasswordLength)
		if err != nil {
			return false, err
		}
	}

	admin, err := service.insert(ctx, constants.AdminUsername, password, true)
	if err != nil {
		// Another instance bootstrapped concurrently.
		if apperr.HasCode(err, apperr.CodeConflict) {
			return false, nil
		}
		return false, err
	}

	if generated {
		service.logger.WarnContext(ctx, "admin_password_generated",
			slog.String("username", admin.Username),
			slog.String("password", password),
		)
	}
	service.logger.InfoContext(ctx, "admin_bootstrapped", slog.String("subscriber_id", admin.SubscriberID))

	return true, nil
}

// SetAdminPassword replaces the admin principal's password.
func (service *Service) SetAdminPassword(ctx context.Context, password string) error {
	if err := validateCredentials(constants.AdminUsername, password); err != nil {
		return err
	}

	admin, err := service.users.FindByUsername(ctx, constants.AdminUsername)
	if err != nil {
		return fmt.Errorf("account_service_admin_lookup_failed: %w", err)
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return apperr.Internal(err)
	}

	if err := service.users.Update(ctx, admin.SubscriberID, nil, &hash); err != nil {
		return fmt.Errorf("account_service_admin_password_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "admin_password_updated")
	return nil
}

// # Helpers

func (service *Service) insert(ctx context.Context, username, password string, isAdmin bool) (*User, error) {
	hash, err := sec.HashPassword(password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	user := &User{
		Username:     username,
		SubscriberID: uuid.NewOpaque(),
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := service.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}
	return user, nil
}

// Principal loads the user behind a verified token; a token whose user is
// gone is no longer a valid credential.
func (service *Service) Principal(ctx context.Context, subscriberID string) (*User, error) {
	user, err := service.users.FindBySubscriberID(ctx, subscriberID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized("Unknown principal")
		}
		return nil, fmt.Errorf("account_service_principal_lookup_failed: %w", err)
	}
	return user, nil
}

func validateCredentials(username, password string) error {
	v := &validate.Validator{}
	v.Required("username", username).
		MaxLen("username", username, maxUsernameLength).
		MinLen("password", password, 1).
		MaxLen("password", password, maxPasswordLength)
	return v.Err()
}
