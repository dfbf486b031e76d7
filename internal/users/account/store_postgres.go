// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/database/schema"
	"github.com/taibuivan/yomira-id/internal/platform/dberr"
)

// PostgresUserRepository implements [UserRepository] using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new Postgres implementation of the user directory.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// FindByUsername retrieves a user from the users table by username.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.Users.Select(), schema.Users.Table, schema.Users.Username,
	)

	user, err := scanUser(repository.pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_username_failed")
	}
	return user, nil
}

// FindBySubscriberID retrieves a user from the users table by subscriber id.
func (repository *PostgresUserRepository) FindBySubscriberID(ctx context.Context, subscriberID string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.Users.Select(), schema.Users.Table, schema.Users.SubscriberID,
	)

	user, err := scanUser(repository.pool.QueryRow(ctx, query, subscriberID))
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_find_by_subscriber_failed")
	}
	return user, nil
}

// Create inserts a user; the unique constraints on username and subscriber_id
// make concurrent creation of the same name fail with a conflict.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		RETURNING %s, %s, %s`,
		schema.Users.Table,
		schema.Users.Username, schema.Users.SubscriberID, schema.Users.PasswordHash, schema.Users.IsAdmin,
		schema.Users.ID, schema.Users.CreatedAt, schema.Users.UpdatedAt,
	)

	err := repository.pool.QueryRow(ctx, query,
		user.Username, user.SubscriberID, user.PasswordHash, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_create_failed")
	}
	return nil
}

// DeleteByUsername removes a user; refresh tokens go with it through ON DELETE CASCADE.
func (repository *PostgresUserRepository) DeleteByUsername(ctx context.Context, username string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.Users.Table, schema.Users.Username)

	tag, err := repository.pool.Exec(ctx, query, username)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_delete_failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// Update rewrites username and/or password hash, keeping unchanged columns via COALESCE.
func (repository *PostgresUserRepository) Update(ctx context.Context, subscriberID string, username, passwordHash *string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = COALESCE($2, %s),
		    %s = COALESCE($3, %s),
		    %s = NOW()
		WHERE %s = $1`,
		schema.Users.Table,
		schema.Users.Username, schema.Users.Username,
		schema.Users.PasswordHash, schema.Users.PasswordHash,
		schema.Users.UpdatedAt,
		schema.Users.SubscriberID,
	)

	tag, err := repository.pool.Exec(ctx, query, subscriberID, username, passwordHash)
	if err != nil {
		return dberr.Wrap(err, "User", "postgres_user_repo_update_failed")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}
	return nil
}

// List returns one window of user summaries ordered by username.
func (repository *PostgresUserRepository) List(ctx context.Context, limit, offset int) ([]UserSummary, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s FROM %s
		ORDER BY %s ASC
		LIMIT $1 OFFSET $2`,
		schema.Users.Username, schema.Users.SubscriberID, schema.Users.IsAdmin,
		schema.Users.Table, schema.Users.Username,
	)

	rows, err := repository.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_list_failed")
	}

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (UserSummary, error) {
		var summary UserSummary
		err := row.Scan(&summary.Username, &summary.SubscriberID, &summary.IsAdmin)
		return summary, err
	})
	if err != nil {
		return nil, dberr.Wrap(err, "User", "postgres_user_repo_list_scan_failed")
	}
	return summaries, nil
}

// Count returns the number of rows in the users table.
func (repository *PostgresUserRepository) Count(ctx context.Context) (int, error) {
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, schema.Users.Table)

	var total int
	if err := repository.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, dberr.Wrap(err, "User", "postgres_user_repo_count_failed")
	}
	return total, nil
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.SubscriberID,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
