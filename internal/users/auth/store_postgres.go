// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/database/schema"
	"github.com/taibuivan/yomira-id/internal/platform/dberr"
	"github.com/taibuivan/yomira-id/internal/platform/postgres"
)

const refreshTokenResource = "Refresh token"

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Client Repository

// PostgresClientRepository implements [ClientRepository] using pgx.
type PostgresClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new Postgres implementation of the allow-list.
func NewClientRepository(pool *pgxpool.Pool) *PostgresClientRepository {
	return &PostgresClientRepository{pool: pool}
}

// Replace truncates the allow-list and bulk-loads clientIDs in one transaction.
func (repository *PostgresClientRepository) Replace(ctx context.Context, clientIDs []string) error {
	return postgres.InTx(ctx, repository.pool, func(tx pgx.Tx) (bool, error) {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, schema.ClientIDs.Table)); err != nil {
			return false, dberr.Wrap(err, "Client id", "postgres_client_repo_clear_failed")
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{schema.ClientIDs.Table},
			[]string{schema.ClientIDs.ClientID},
			pgx.CopyFromSlice(len(clientIDs), func(i int) ([]any, error) {
				return []any{clientIDs[i]}, nil
			}),
		)
		if err != nil {
			return false, dberr.Wrap(err, "Client id", "postgres_client_repo_copy_failed")
		}
		return true, nil
	})
}

// List returns the allow-list ordered by insertion.
func (repository *PostgresClientRepository) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		schema.ClientIDs.ClientID, schema.ClientIDs.Table, schema.ClientIDs.ID,
	)

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, "Client id", "postgres_client_repo_list_failed")
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, dberr.Wrap(err, "Client id", "postgres_client_repo_scan_failed")
	}
	return ids, nil
}

// # Refresh Token Repository

// PostgresRefreshTokenRepository implements [RefreshTokenRepository] using pgx.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new Postgres implementation of the refresh-token store.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

// Create inserts token, pruning the subscriber's expired records first.
func (repository *PostgresRefreshTokenRepository) Create(ctx context.Context, token *RefreshToken) error {
	if err := insertRefreshToken(ctx, repository.pool, token); err != nil {
		return dberr.Wrap(err, refreshTokenResource, "postgres_refresh_repo_create_failed")
	}
	return nil
}

/*
Rotate deletes the matching record with DELETE ... RETURNING and inserts its
successor in the same transaction.

Description: The row lock taken by DELETE serialises concurrent redemptions
of one token: the loser re-evaluates after the winner commits, finds no row,
and reports NotFound. An expired record is still deleted (the transaction
commits) before apperr.Expired is returned.
*/
func (repository *PostgresRefreshTokenRepository) Rotate(
	ctx context.Context,
	tokenHash string,
	clientID *string,
	now time.Time,
	next func(consumed *RefreshToken) (*RefreshToken, error),
) (*RefreshToken, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s = $1 AND %s IS NOT DISTINCT FROM $2
		RETURNING %s`,
		schema.Tokens.Table,
		schema.Tokens.RefreshToken, schema.Tokens.ClientID,
		schema.Tokens.Select(),
	)

	var consumed *RefreshToken
	err := postgres.InTx(ctx, repository.pool, func(tx pgx.Tx) (bool, error) {
		record, err := scanRefreshToken(tx.QueryRow(ctx, query, tokenHash, clientID))
		if err != nil {
			return false, dberr.Wrap(err, refreshTokenResource, "postgres_refresh_repo_consume_failed")
		}

		if record.Expired(now) {
			return true, apperr.Expired(refreshTokenResource)
		}

		replacement, err := next(record)
		if err != nil {
			return false, err
		}

		if err := insertRefreshToken(ctx, tx, replacement); err != nil {
			return false, dberr.Wrap(err, refreshTokenResource, "postgres_refresh_repo_reissue_failed")
		}

		consumed = record
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return consumed, nil
}

// DeleteExpired removes every record whose expiry is not after now.
func (repository *PostgresRefreshTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s <= $1`, schema.Tokens.Table, schema.Tokens.Expires)

	tag, err := repository.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, dberr.Wrap(err, refreshTokenResource, "postgres_refresh_repo_delete_expired_failed")
	}
	return tag.RowsAffected(), nil
}

// # Helpers

func insertRefreshToken(ctx context.Context, querier rowQuerier, token *RefreshToken) error {
	query := fmt.Sprintf(`
		WITH pruned AS (
			DELETE FROM %[1]s WHERE %[2]s = $1 AND %[3]s <= NOW()
		)
		INSERT INTO %[1]s (%[2]s, %[4]s, %[5]s, %[3]s)
		VALUES ($1, $2, $3, $4)
		RETURNING %[6]s`,
		schema.Tokens.Table,
		schema.Tokens.SubscriberID,
		schema.Tokens.Expires,
		schema.Tokens.ClientID,
		schema.Tokens.RefreshToken,
		schema.Tokens.ID,
	)

	return querier.QueryRow(ctx, query,
		token.SubscriberID,
		token.ClientID,
		token.TokenHash,
		token.ExpiresAt,
	).Scan(&token.ID)
}

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	token := &RefreshToken{}
	err := row.Scan(
		&token.ID,
		&token.SubscriberID,
		&token.ClientID,
		&token.TokenHash,
		&token.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return token, nil
}
