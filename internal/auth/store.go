// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/pixshare/pixshare/internal/platform/sec"
)

// ActiveFilter narrows principal lookups by account state.
//
// The tri-state exists because different call sites legitimately disagree:
// login must see inactive accounts (to report "not active" instead of
// "not found"), while ordinary content routes should treat banned accounts
// as absent.
type ActiveFilter int

const (
	// ActiveAny matches principals regardless of the active flag.
	ActiveAny ActiveFilter = iota

	// ActiveOnly matches only principals with Active=true.
	ActiveOnly

	// InactiveOnly matches only principals with Active=false.
	InactiveOnly
)

// ErrStaleRefreshToken is returned by [UserRepository.RotateRefreshToken]
// when the stored token no longer equals the expected current value —
// a concurrent rotation already won the compare-and-swap.
var ErrStaleRefreshToken = errors.New("auth: refresh token is no longer on file")

// UserRepository defines the data access contract for principal records.
//
// # Implementations
//
// The canonical implementation is PostgreSQL (store_postgres.go). Tests use
// a mutex-guarded in-memory fake.
type UserRepository interface {
	// FindByID returns the principal with the given ID, subject to the filter.
	//
	// Returns [apperr.NotFound] if no matching row exists.
	FindByID(ctx context.Context, id int64, filter ActiveFilter) (*User, error)

	// FindByEmail returns the principal with the given email, subject to the filter.
	//
	// Returns [apperr.NotFound] if no matching row exists.
	FindByEmail(ctx context.Context, email string, filter ActiveFilter) (*User, error)

	// FindByUsername returns the principal with the given username, subject to the filter.
	//
	// Returns [apperr.NotFound] if the username is available.
	FindByUsername(ctx context.Context, username string, filter ActiveFilter) (*User, error)

	// List returns a page of principals (any state) plus the total count.
	List(ctx context.Context, offset, limit int) ([]*User, int, error)

	// Count returns the total number of principals, regardless of state.
	Count(ctx context.Context) (int64, error)

	// Create persists a brand-new principal and assigns its ID.
	//
	// Returns [apperr.Conflict] if a unique constraint (email/username) fails.
	Create(ctx context.Context, user *User) error

	// UpdateProfile persists changes to mutable profile fields (username, avatar).
	UpdateProfile(ctx context.Context, user *User) error

	// SetRefreshToken unconditionally overwrites the refresh token of record.
	// Used at login, where at most one valid refresh token per principal is enforced.
	SetRefreshToken(ctx context.Context, userID int64, token string) error

	// RotateRefreshToken replaces the stored refresh token with next only if
	// it currently equals current, as a single compare-and-swap. Two
	// concurrent rotations presenting the same current token must not both
	// succeed; the loser receives [ErrStaleRefreshToken].
	RotateRefreshToken(ctx context.Context, userID int64, current, next string) error

	// ClearRefreshToken removes the refresh token of record, forcing re-login.
	ClearRefreshToken(ctx context.Context, userID int64) error

	// ConfirmEmail sets Confirmed=true AND Active=true in one atomic update.
	ConfirmEmail(ctx context.Context, email string) error

	// SetActive toggles the active flag (admin ban/unban).
	SetActive(ctx context.Context, userID int64, active bool) error

	// SetRole replaces the principal's role.
	SetRole(ctx context.Context, userID int64, role Role) error

	// SetAvatar replaces the principal's avatar URL.
	SetAvatar(ctx context.Context, userID int64, avatarURL string) error

	// Delete removes the principal permanently. The store refuses to delete
	// an active account: deactivation must happen first.
	//
	// Returns [apperr.NotFound] if no inactive row with this ID exists.
	Delete(ctx context.Context, userID int64) error
}

// BanRepository is the revocation ledger: an append-only record of revoked
// token strings with insertion timestamps.
type BanRepository interface {
	// Add records a token as revoked and returns the entry ID.
	// Revoking the same token twice does not duplicate observable state.
	//
	// A persistence failure must surface as an error — the caller treats the
	// token as NOT revoked in that case.
	Add(ctx context.Context, token string) (int64, error)

	// Contains reports whether the exact token string has been revoked.
	// Absence of a row means not revoked, never "unknown".
	Contains(ctx context.Context, token string) (bool, error)

	// PurgeOlderThan deletes entries whose CreatedAt is older than
	// now-retention and returns the number removed. Storage reclamation
	// only: expired tokens already fail verification on their own.
	PurgeOlderThan(ctx context.Context, retention time.Duration) (int64, error)
}

// UserCache is the cached projection of a principal, keyed by email.
//
// # Coherency
//
// The [Service] calls Invalidate after — never before — the underlying store
// commit, so a reader cannot observe stale cached data that outlives the
// invalidation.
type UserCache interface {
	// Get returns the cached principal, or [apperr.NotFound] on a miss.
	Get(ctx context.Context, email string) (*User, error)

	// Set stores the principal projection with a bounded lifetime.
	Set(ctx context.Context, user *User, ttl time.Duration) error

	// Invalidate drops the cached projection for the email, if any.
	Invalidate(ctx context.Context, email string) error
}

// EmailSender is the outbound-email collaborator. Delivery is fire-and-forget
// from the service's perspective; signup never blocks on it.
type EmailSender interface {
	// SendConfirmation delivers the account-confirmation link to the recipient.
	SendConfirmation(ctx context.Context, toEmail, username, confirmURL string) error
}

// TokenCodec is the signing collaborator for self-contained bearer tokens.
// Implemented by [sec.TokenCodec].
type TokenCodec interface {
	// Issue produces a signed token for the subject with the given purpose and lifetime.
	Issue(subject string, purpose sec.Purpose, timeToLive time.Duration) (string, error)

	// Verify checks signature, expiry, and purpose, returning the embedded subject.
	Verify(tokenString string, expectedPurpose sec.Purpose) (string, error)
}
