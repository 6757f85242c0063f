// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/platform/dberr"
)

// # User Repository (PostgreSQL)

// userColumns is the canonical projection shared by every principal query,
// kept in one place so Scan call sites cannot drift out of order.
const userColumns = `
	id, username, email, password_hash, avatar_url, role,
	confirmed, active, COALESCE(refresh_token, ''), created_at`

// PostgresUserRepository implements the [UserRepository] interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the [UserRepository].
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// activeClause translates the tri-state filter into a SQL predicate fragment.
func activeClause(filter ActiveFilter) string {
	switch filter {
	case ActiveOnly:
		return " AND active = TRUE"
	case InactiveOnly:
		return " AND active = FALSE"
	default:
		return ""
	}
}

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.Role,
		&user.Confirmed,
		&user.Active,
		&user.RefreshToken,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID retrieves a principal record by primary key, subject to the filter.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id int64, filter ActiveFilter) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1` + activeClause(filter)

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

// FindByEmail retrieves a principal record by their unique email address.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string, filter ActiveFilter) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1` + activeClause(filter)

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// FindByUsername retrieves a principal record by their unique username.
//
// # Returns
//
// Returns [*User] if found, or [apperr.NotFound] if no account exists.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string, filter ActiveFilter) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1` + activeClause(filter)

	user, err := scanUser(repository.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

// List returns one page of principals in creation order plus the total count.
func (repository *PostgresUserRepository) List(ctx context.Context, offset, limit int) ([]*User, int, error) {
	const countQuery = `SELECT COUNT(*) FROM users`

	var total int
	if err := repository.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_count_failed: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users ORDER BY id ASC OFFSET $1 LIMIT $2`

	rows, err := repository.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		user, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("postgres_user_repo_list_scan_failed: %w", scanErr)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_user_repo_list_rows_failed: %w", err)
	}

	return users, total, nil
}

// Count returns the total number of principals, regardless of state.
func (repository *PostgresUserRepository) Count(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM users`

	var total int64
	if err := repository.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("postgres_user_repo_count_failed: %w", err)
	}

	return total, nil
}

// Create persists a new principal record and assigns its generated ID.
//
// # Returns
//
// Returns [apperr.Conflict] if the email or username unique constraint fails.
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users (
			username, email, password_hash, avatar_url, role, confirmed, active, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	err := repository.pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.AvatarURL,
		user.Role,
		user.Confirmed,
		user.Active,
		user.CreatedAt,
	).Scan(&user.ID)

	if err != nil {
		if dberr.IsUniqueViolation(err, "users_email_key") {
			return apperr.Conflict(MsgEmailRegistered)
		}
		if dberr.IsUniqueViolation(err, "users_username_key") {
			return apperr.Conflict(MsgUsernameTaken)
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// UpdateProfile persists changes to the mutable profile fields.
func (repository *PostgresUserRepository) UpdateProfile(ctx context.Context, user *User) error {
	const query = `UPDATE users SET username = $2, avatar_url = $3 WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, user.ID, user.Username, user.AvatarURL)
	if err != nil {
		if dberr.IsUniqueViolation(err, "users_username_key") {
			return apperr.Conflict(MsgUsernameTaken)
		}
		return fmt.Errorf("postgres_user_repo_update_profile_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// SetRefreshToken unconditionally overwrites the refresh token of record.
func (repository *PostgresUserRepository) SetRefreshToken(ctx context.Context, userID int64, token string) error {
	const query = `UPDATE users SET refresh_token = $2 WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, userID, token)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_refresh_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// RotateRefreshToken swaps the stored refresh token in one compare-and-swap.
//
// The WHERE clause carries the expected current value, so under row-level
// locking exactly one of two concurrent rotations can match. The loser sees
// zero affected rows and receives [ErrStaleRefreshToken].
func (repository *PostgresUserRepository) RotateRefreshToken(ctx context.Context, userID int64, current, next string) error {
	const query = `UPDATE users SET refresh_token = $3 WHERE id = $1 AND refresh_token = $2`

	tag, err := repository.pool.Exec(ctx, query, userID, current, next)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_rotate_refresh_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleRefreshToken
	}

	return nil
}

// ClearRefreshToken removes the refresh token of record, forcing re-login.
func (repository *PostgresUserRepository) ClearRefreshToken(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET refresh_token = NULL WHERE id = $1`

	if _, err := repository.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("postgres_user_repo_clear_refresh_failed: %w", err)
	}

	return nil
}

// ConfirmEmail flips confirmed and active together in a single statement.
func (repository *PostgresUserRepository) ConfirmEmail(ctx context.Context, email string) error {
	const query = `UPDATE users SET confirmed = TRUE, active = TRUE WHERE email = $1`

	tag, err := repository.pool.Exec(ctx, query, email)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_confirm_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// SetActive toggles the active flag (admin ban/unban).
func (repository *PostgresUserRepository) SetActive(ctx context.Context, userID int64, active bool) error {
	const query = `UPDATE users SET active = $2 WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, userID, active)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_active_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// SetRole replaces the principal's role.
func (repository *PostgresUserRepository) SetRole(ctx context.Context, userID int64, role Role) error {
	const query = `UPDATE users SET role = $2 WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, userID, role)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_role_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// SetAvatar replaces the principal's avatar URL.
func (repository *PostgresUserRepository) SetAvatar(ctx context.Context, userID int64, avatarURL string) error {
	const query = `UPDATE users SET avatar_url = $2 WHERE id = $1`

	tag, err := repository.pool.Exec(ctx, query, userID, avatarURL)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_avatar_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// Delete removes the principal permanently. The predicate refuses to touch an
// active row, so deactivation is a hard precondition rather than convention.
func (repository *PostgresUserRepository) Delete(ctx context.Context, userID int64) error {
	const query = `DELETE FROM users WHERE id = $1 AND active = FALSE`

	tag, err := repository.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

// # Revocation Ledger (PostgreSQL)

// PostgresBanRepository implements the [BanRepository] revocation ledger using pgx.
type PostgresBanRepository struct {
	pool *pgxpool.Pool
}

// NewBanRepository creates a new PostgreSQL implementation of the [BanRepository].
func NewBanRepository(pool *pgxpool.Pool) *PostgresBanRepository {
	return &PostgresBanRepository{pool: pool}
}

// Add records a token as revoked and returns the entry ID.
//
// ON CONFLICT makes double revocation a no-op at the storage level; the
// existing row's ID is returned so the caller cannot distinguish the two.
func (repository *PostgresBanRepository) Add(ctx context.Context, token string) (int64, error) {
	const query = `
		INSERT INTO bannedlist (token, created_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO UPDATE SET token = EXCLUDED.token
		RETURNING id`

	var id int64
	if err := repository.pool.QueryRow(ctx, query, token, time.Now()).Scan(&id); err != nil {
		return 0, fmt.Errorf("postgres_ban_repo_add_failed: %w", err)
	}

	return id, nil
}

// Contains reports whether the exact token string has been revoked.
func (repository *PostgresBanRepository) Contains(ctx context.Context, token string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bannedlist WHERE token = $1)`

	var found bool
	if err := repository.pool.QueryRow(ctx, query, token).Scan(&found); err != nil {
		return false, fmt.Errorf("postgres_ban_repo_contains_failed: %w", err)
	}

	return found, nil
}

// PurgeOlderThan deletes ledger entries older than the retention window and
// returns the number removed.
func (repository *PostgresBanRepository) PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error) {
	const query = `DELETE FROM bannedlist WHERE created_at < $1`

	cutoff := time.Now().Add(-retention)
	tag, err := repository.pool.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("postgres_ban_repo_purge_failed: %w", err)
	}

	return tag.RowsAffected(), nil
}
