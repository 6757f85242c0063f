// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/platform/sec"
	"github.com/pixshare/pixshare/pkg/gravatar"
	"github.com/pixshare/pixshare/pkg/textnorm"
)

// # Contracts & Types

// Options carries the deployment parameters of the session lifecycle.
// All values are fixed at startup; the Service never reconfigures itself.
type Options struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	VerifyTokenTTL  time.Duration
	UserCacheTTL    time.Duration

	// PublicBaseURL is the root for links embedded in confirmation emails.
	PublicBaseURL string

	// BootstrapFirstAdmin promotes the first principal ever created to admin.
	BootstrapFirstAdmin bool
}

// Service implements the session state machine per principal:
//
//	Unregistered → PendingConfirmation → Active ⇄ Banned → Deleted
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// issuance, or rotation logic must be reviewed by the security team.
type Service struct {
	userRepository UserRepository
	banRepository  BanRepository
	userCache      UserCache
	emailSender    EmailSender
	tokenCodec     TokenCodec
	options        Options
	logger         *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	banRepo BanRepository,
	cache UserCache,
	mailer EmailSender,
	codec TokenCodec,
	options Options,
	logger *slog.Logger,
) *Service {
	return &Service{
		userRepository: userRepo,
		banRepository:  banRepo,
		userCache:      cache,
		emailSender:    mailer,
		tokenCodec:     codec,
		options:        options,
		logger:         logger,
	}
}

// # Registration Flow

// SignupInput holds the data required to enroll a new member.
type SignupInput struct {
	Username string
	Email    string
	Password string
}

/*
Signup validates, hashes, and persists a brand new principal.

Description: Enrolls a new member in PendingConfirmation state
(confirmed=false, active=false), handling password hashing and the
confirmation-email side effect.

Parameters:
  - ctx: context.Context
  - input: SignupInput

Returns:
  - *User: Created principal
  - error: Conflict (if email or username exists, regardless of active state)
    or storage errors
*/
func (service *Service) Signup(ctx context.Context, input SignupInput) (*User, error) {

	// Canonicalize the handle so visually equivalent Unicode spellings
	// cannot register as distinct usernames.
	input.Username = textnorm.Username(input.Username)

	// Verify email uniqueness among ALL principals — inactive accounts hold
	// their identity too, preventing squatting via banned accounts.
	_, err := service.userRepository.FindByEmail(ctx, input.Email, ActiveAny)
	if err == nil {
		return nil, apperr.Conflict(MsgEmailRegistered)
	}

	// Verify username uniqueness. Same squatting rule applies.
	_, err = service.userRepository.FindByUsername(ctx, input.Username, ActiveAny)
	if err == nil {
		return nil, apperr.Conflict(MsgUsernameTaken)
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Rule: every signup defaults to the member role. The very first
	// principal ever created is the bootstrap admin (when enabled).
	role := RoleUser
	if service.options.BootstrapFirstAdmin {
		total, err := service.userRepository.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("auth_service_count_failed: %w", err)
		}
		if total == 0 {
			role = RoleAdmin
		}
	}

	user := &User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		AvatarURL:    gravatar.URL(input.Email),
		Role:         role,
		Confirmed:    false,
		Active:       false,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth_service_signup_failed: %w", err)
	}

	// Commit is visible; drop any stale projection before readers arrive.
	service.invalidate(ctx, user.Email)

	// Side effect visible to the email collaborator; signup never blocks on delivery.
	service.sendConfirmationEmail(user)

	return user, nil
}

// # Authentication Flow

// TokenPair is the transport-ready result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

/*
Login validates credentials and issues an access + refresh token pair.

Description: Walks the account state machine in a fixed order — existence,
confirmation, activation, password — so each failure mode surfaces its own
message. Persists the refresh token of record, overwriting any prior value:
at most one valid refresh token per principal at a time.

Parameters:
  - ctx: context.Context
  - email: string
  - password: string

Returns:
  - *TokenPair: Bearer credentials
  - error: Unauthorized (invalid email / not confirmed / not active /
    invalid password) or internal failures
*/
func (service *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := service.userRepository.FindByEmail(ctx, email, ActiveAny)
	if err != nil {
		return nil, apperr.Unauthorized(MsgInvalidEmail)
	}

	if !user.Confirmed {
		return nil, apperr.Unauthorized(MsgEmailNotConfirmed)
	}

	if !user.Active {
		return nil, apperr.Unauthorized(MsgEmailNotActive)
	}

	// Constant-time comparison inside bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperr.Unauthorized(MsgInvalidPassword)
	}

	pair, err := service.issuePair(user.Email)
	if err != nil {
		return nil, err
	}

	// Overwrite the refresh token of record: a previous session's refresh
	// token is silently retired even though it is not explicitly revoked.
	if err := service.userRepository.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, fmt.Errorf("auth_service_store_refresh_failed: %w", err)
	}

	service.invalidate(ctx, user.Email)

	return pair, nil
}

/*
Refresh implements refresh-token rotation with theft detection.

Description: Checks the revocation ledger, verifies the token with
purpose=refresh, and compares it against the token of record. A mismatch is
treated as evidence of a stolen or stale token: the stored token is cleared,
forcing re-login. On match, a fresh pair is issued and the stored token is
swapped in a single compare-and-swap, so two concurrent refreshes with the
same token produce exactly one winner.

Parameters:
  - ctx: context.Context
  - presented: string (the refresh token)

Returns:
  - *TokenPair: Rotated credentials
  - error: Unauthorized (revoked / invalid / mismatched token) or storage failures
*/
func (service *Service) Refresh(ctx context.Context, presented string) (*TokenPair, error) {

	// Revocation check comes first: a banned string is dead even if its
	// signature and expiry are still valid.
	banned, err := service.banRepository.Contains(ctx, presented)
	if err != nil {
		return nil, fmt.Errorf("auth_service_ban_check_failed: %w", err)
	}
	if banned {
		return nil, apperr.Unauthorized(MsgInvalidAuthToken)
	}

	email, err := service.tokenCodec.Verify(presented, sec.PurposeRefresh)
	if err != nil {
		return nil, mapTokenError(err)
	}

	user, err := service.userRepository.FindByEmail(ctx, email, ActiveAny)
	if err != nil {
		return nil, apperr.Unauthorized(MsgInvalidRefreshToken)
	}

	if !user.Active {
		return nil, apperr.Unauthorized(MsgEmailNotActive)
	}

	// A verified refresh token that is not the token of record means the
	// record rotated without this caller — stolen or replayed. Clear the
	// stored token so the holder of the stale copy cannot try again either.
	if user.RefreshToken != presented {
		if clearErr := service.userRepository.ClearRefreshToken(ctx, user.ID); clearErr != nil {
			return nil, fmt.Errorf("auth_service_clear_refresh_failed: %w", clearErr)
		}
		service.invalidate(ctx, user.Email)
		return nil, apperr.Unauthorized(MsgInvalidRefreshToken)
	}

	pair, err := service.issuePair(user.Email)
	if err != nil {
		return nil, err
	}

	// Single read-modify-write under row-level consistency: the loser of a
	// concurrent rotation race observes a mismatch, not a second valid pair.
	err = service.userRepository.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrStaleRefreshToken) {
			return nil, apperr.Unauthorized(MsgInvalidRefreshToken)
		}
		return nil, fmt.Errorf("auth_service_rotate_refresh_failed: %w", err)
	}

	service.invalidate(ctx, user.Email)

	return pair, nil
}

/*
Logout revokes the presented bearer token via the revocation ledger.

Description: Logging out twice with the same token is rejected, not silently
accepted. A ledger write failure fails the call — reporting success while the
token remains valid would be a security regression.

Parameters:
  - ctx: context.Context
  - token: string (the bearer token presented on the request)

Returns:
  - error: Unauthorized if already revoked, or storage failures
*/
func (service *Service) Logout(ctx context.Context, token string) error {
	banned, err := service.banRepository.Contains(ctx, token)
	if err != nil {
		return fmt.Errorf("auth_service_ban_check_failed: %w", err)
	}
	if banned {
		return apperr.Unauthorized(MsgInvalidAuthToken)
	}

	if _, err := service.banRepository.Add(ctx, token); err != nil {
		// The token is still valid; the caller must see the failure.
		return fmt.Errorf("auth_service_revoke_failed: %w", err)
	}

	return nil
}

// # Email Confirmation

// ConfirmStatus reports the outcome of a confirmation-flow operation.
type ConfirmStatus string

const (
	// ConfirmStatusConfirmed means the account transitioned to Active just now.
	ConfirmStatusConfirmed ConfirmStatus = "confirmed"

	// ConfirmStatusAlready means the account was already confirmed; no state changed.
	ConfirmStatusAlready ConfirmStatus = "already_confirmed"

	// ConfirmStatusPending means a confirmation email has been (re)sent.
	ConfirmStatusPending ConfirmStatus = "pending"
)

/*
ConfirmEmail consumes an email-verification token and activates the account.

Description: Sets confirmed=true AND active=true atomically on first use.
Repeated confirmation is idempotent: the second call reports "already
confirmed" without mutating state.

Parameters:
  - ctx: context.Context
  - token: string (purpose=email-verify)

Returns:
  - ConfirmStatus: confirmed | already_confirmed
  - error: ValidationError if the token or its subject cannot be resolved
*/
func (service *Service) ConfirmEmail(ctx context.Context, token string) (ConfirmStatus, error) {
	email, err := service.tokenCodec.Verify(token, sec.PurposeEmailVerify)
	if err != nil {
		return "", apperr.ValidationError(MsgVerificationError)
	}

	user, err := service.userRepository.FindByEmail(ctx, email, ActiveAny)
	if err != nil {
		return "", apperr.ValidationError(MsgVerificationError)
	}

	if user.Confirmed {
		return ConfirmStatusAlready, nil
	}

	// Confirmed and active flip together — a confirmed-but-inactive fresh
	// account would be a logically inconsistent state.
	if err := service.userRepository.ConfirmEmail(ctx, email); err != nil {
		return "", fmt.Errorf("auth_service_confirm_failed: %w", err)
	}

	service.invalidate(ctx, email)

	return ConfirmStatusConfirmed, nil
}

/*
RequestConfirmationEmail re-sends the confirmation email for an unconfirmed account.

Description: Reports "already confirmed" without sending when confirmation
already happened. For unknown emails it reports pending without disclosure,
preventing account enumeration.

Parameters:
  - ctx: context.Context
  - email: string

Returns:
  - ConfirmStatus: pending | already_confirmed
  - error: internal failures only
*/
func (service *Service) RequestConfirmationEmail(ctx context.Context, email string) (ConfirmStatus, error) {
	user, err := service.userRepository.FindByEmail(ctx, email, ActiveAny)
	if err != nil {
		// Unknown email: answer as if sent. No enumeration oracle.
		return ConfirmStatusPending, nil
	}

	if user.Confirmed {
		return ConfirmStatusAlready, nil
	}

	service.sendConfirmationEmail(user)

	return ConfirmStatusPending, nil
}

// # Principal Resolution

/*
PrincipalFromToken resolves a bearer access token into a live principal.

Description: The authentication path for every protected request — ledger
check, signature/purpose/expiry verification, then a cache-assisted lookup of
the principal record. Inactive accounts are rejected even when their token is
otherwise valid.

Parameters:
  - ctx: context.Context
  - token: string (purpose=access)

Returns:
  - *User: The authenticated principal
  - error: Unauthorized for any verification or resolution failure
*/
func (service *Service) PrincipalFromToken(ctx context.Context, token string) (*User, error) {
	banned, err := service.banRepository.Contains(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_ban_check_failed: %w", err)
	}
	if banned {
		return nil, apperr.Unauthorized(MsgInvalidAuthToken)
	}

	email, err := service.tokenCodec.Verify(token, sec.PurposeAccess)
	if err != nil {
		return nil, mapTokenError(err)
	}

	// Fast path: the cached projection, refreshed on every mutation.
	if cached, cacheErr := service.userCache.Get(ctx, email); cacheErr == nil {
		if !cached.Active {
			return nil, apperr.Unauthorized(MsgEmailNotActive)
		}
		return cached, nil
	}

	user, err := service.userRepository.FindByEmail(ctx, email, ActiveAny)
	if err != nil {
		return nil, apperr.Unauthorized(MsgNotValidCredentials)
	}

	if !user.Active {
		return nil, apperr.Unauthorized(MsgEmailNotActive)
	}

	// Best effort: a cache write failure must not fail authentication.
	if cacheErr := service.userCache.Set(ctx, user, service.options.UserCacheTTL); cacheErr != nil {
		service.logger.Warn("principal_cache_set_failed",
			slog.String("email", email),
			slog.Any("error", cacheErr),
		)
	}

	return user, nil
}

// # Internal Helpers

// issuePair signs a fresh access + refresh token pair for the subject.
func (service *Service) issuePair(subject string) (*TokenPair, error) {
	accessToken, err := service.tokenCodec.Issue(subject, sec.PurposeAccess, service.options.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokenCodec.Issue(subject, sec.PurposeRefresh, service.options.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
	}, nil
}

// sendConfirmationEmail issues a verification token and delivers the link
// asynchronously. Delivery failures are logged, never surfaced to the caller.
func (service *Service) sendConfirmationEmail(user *User) {
	token, err := service.tokenCodec.Issue(user.Email, sec.PurposeEmailVerify, service.options.VerifyTokenTTL)
	if err != nil {
		service.logger.Error("confirmation_token_issue_failed",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
		return
	}

	confirmURL := fmt.Sprintf("%s/api/v1/auth/confirmed_email/%s", service.options.PublicBaseURL, token)

	// Detached from the request lifecycle: the HTTP caller may disconnect
	// while delivery is still in flight.
	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := service.emailSender.SendConfirmation(sendCtx, user.Email, user.Username, confirmURL); err != nil {
			service.logger.Error("confirmation_email_send_failed",
				slog.String("email", user.Email),
				slog.Any("error", err),
			)
		}
	}()
}

// invalidate drops the cached principal projection after a store commit.
// Ordering matters: invalidating before commit would let a reader re-cache
// the pre-commit state.
func (service *Service) invalidate(ctx context.Context, email string) {
	if err := service.userCache.Invalidate(ctx, email); err != nil {
		service.logger.Warn("principal_cache_invalidate_failed",
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}

// mapTokenError converts codec sentinel errors into client-safe 401s.
func mapTokenError(err error) error {
	switch {
	case errors.Is(err, sec.ErrExpired):
		return apperr.Unauthorized(MsgTokenExpired)
	case errors.Is(err, sec.ErrPurposeMismatch):
		return apperr.Unauthorized(MsgInvalidTokenScope)
	default:
		return apperr.Unauthorized(MsgNotValidCredentials)
	}
}
