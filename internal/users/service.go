// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package users implements profile access and administrative account management.
//
// # Architecture
//
// The package reuses the auth domain's repository contracts: it owns no
// storage of its own. What it adds is the policy layer for admin operations
// (ban, unban, role changes, deletion) and the self-service profile surface.
package users

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pixshare/pixshare/internal/auth"
	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/pkg/textnorm"
)

// Service orchestrates profile and account-administration use cases.
type Service struct {
	userRepository auth.UserRepository
	userCache      auth.UserCache
	logger         *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(userRepo auth.UserRepository, cache auth.UserCache, logger *slog.Logger) *Service {
	return &Service{
		userRepository: userRepo,
		userCache:      cache,
		logger:         logger,
	}
}

// # Self-Service Profile

/*
Me returns the caller's own account record.

Parameters:
  - ctx: context.Context
  - principal: *auth.User (resolved by the authentication middleware)

Returns:
  - *auth.User: The caller's account
*/
func (service *Service) Me(ctx context.Context, principal *auth.User) (*auth.User, error) {
	// The middleware already resolved a live record; a fresh read would only
	// race with concurrent admin actions without making the answer more true.
	return principal, nil
}

/*
UpdateAvatar replaces the caller's avatar URL.

Parameters:
  - ctx: context.Context
  - principal: *auth.User
  - avatarURL: string

Returns:
  - *auth.User: The updated account
  - error: storage failures
*/
func (service *Service) UpdateAvatar(ctx context.Context, principal *auth.User, avatarURL string) (*auth.User, error) {
	if err := service.userRepository.SetAvatar(ctx, principal.ID, avatarURL); err != nil {
		return nil, fmt.Errorf("users_service_set_avatar_failed: %w", err)
	}

	service.invalidate(ctx, principal.Email)

	updated := *principal
	updated.AvatarURL = avatarURL
	return &updated, nil
}

/*
UpdateUsername renames the caller's handle after canonicalization.

Returns:
  - *auth.User: The updated account
  - error: apperr.Conflict if the handle is taken, or storage failures
*/
func (service *Service) UpdateUsername(ctx context.Context, principal *auth.User, username string) (*auth.User, error) {
	canonical := textnorm.Username(username)

	// A hit on the caller's own row is not a collision: renaming "Alice" to
	// "alice" folds to the handle already on file.
	if holder, err := service.userRepository.FindByUsername(ctx, canonical, auth.ActiveAny); err == nil && holder.ID != principal.ID {
		return nil, apperr.Conflict(auth.MsgUsernameTaken)
	}

	updated := *principal
	updated.Username = canonical

	if err := service.userRepository.UpdateProfile(ctx, &updated); err != nil {
		return nil, fmt.Errorf("users_service_update_profile_failed: %w", err)
	}

	service.invalidate(ctx, principal.Email)

	return &updated, nil
}

// # Administration

/*
List returns one page of accounts plus the total count, newest last.

Parameters:
  - ctx: context.Context
  - offset: int
  - limit: int

Returns:
  - []*auth.User: The page of accounts
  - int: Total account count across all pages
*/
func (service *Service) List(ctx context.Context, offset, limit int) ([]*auth.User, int, error) {
	users, total, err := service.userRepository.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("users_service_list_failed: %w", err)
	}
	return users, total, nil
}

/*
Ban deactivates the target account.

Description: A banned account keeps its row and its identity (no squatting),
but every authenticated request fails at principal resolution. Admins cannot
ban themselves.

Returns:
  - error: apperr.Unprocessable for self-ban, apperr.NotFound, or storage failures
*/
func (service *Service) Ban(ctx context.Context, actor *auth.User, targetID int64) error {
	if err := service.guardSelf(actor, targetID); err != nil {
		return err
	}

	target, err := service.userRepository.FindByID(ctx, targetID, auth.ActiveAny)
	if err != nil {
		return err
	}

	if err := service.userRepository.SetActive(ctx, targetID, false); err != nil {
		return fmt.Errorf("users_service_ban_failed: %w", err)
	}

	// Drop the cached projection so in-flight tokens die on the next request
	// instead of surviving until the cache TTL expires.
	service.invalidate(ctx, target.Email)

	service.logger.Info("user_banned",
		slog.Int64("target_id", targetID),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}

/*
Unban reactivates a previously banned account.

Returns:
  - error: apperr.Unprocessable for self-unban, apperr.NotFound, or storage failures
*/
func (service *Service) Unban(ctx context.Context, actor *auth.User, targetID int64) error {
	if err := service.guardSelf(actor, targetID); err != nil {
		return err
	}

	target, err := service.userRepository.FindByID(ctx, targetID, auth.ActiveAny)
	if err != nil {
		return err
	}

	if err := service.userRepository.SetActive(ctx, targetID, true); err != nil {
		return fmt.Errorf("users_service_unban_failed: %w", err)
	}

	service.invalidate(ctx, target.Email)

	service.logger.Info("user_unbanned",
		slog.Int64("target_id", targetID),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}

/*
ChangeRole replaces the target account's role.

Description: The role must be one of the closed set. Admins cannot change
their own role, which also guards the deployment against demoting its last
administrator by accident.

Returns:
  - error: apperr.ValidationError for an unknown role, apperr.Unprocessable
    for self-change, apperr.NotFound, or storage failures
*/
func (service *Service) ChangeRole(ctx context.Context, actor *auth.User, targetID int64, role auth.Role) error {
	if !role.Valid() {
		return apperr.ValidationError("Unknown role", apperr.FieldError{
			Field:   auth.FieldRole,
			Message: "Must be one of: admin, moderator, user",
		})
	}

	if err := service.guardSelf(actor, targetID); err != nil {
		return err
	}

	target, err := service.userRepository.FindByID(ctx, targetID, auth.ActiveAny)
	if err != nil {
		return err
	}

	if err := service.userRepository.SetRole(ctx, targetID, role); err != nil {
		return fmt.Errorf("users_service_set_role_failed: %w", err)
	}

	service.invalidate(ctx, target.Email)

	service.logger.Info("user_role_changed",
		slog.Int64("target_id", targetID),
		slog.String("role", string(role)),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}

/*
Delete permanently removes an inactive account.

Description: Deletion requires prior deactivation. An attempt to delete an
active account fails with a message telling the admin to ban first, keeping
destructive actions a deliberate two-step.

Returns:
  - error: apperr.Unprocessable for self-delete or an active target,
    apperr.NotFound, or storage failures
*/
func (service *Service) Delete(ctx context.Context, actor *auth.User, targetID int64) error {
	if err := service.guardSelf(actor, targetID); err != nil {
		return err
	}

	target, err := service.userRepository.FindByID(ctx, targetID, auth.ActiveAny)
	if err != nil {
		return err
	}

	if target.Active {
		return apperr.Unprocessable(auth.MsgMustDeactivate)
	}

	if err := service.userRepository.Delete(ctx, targetID); err != nil {
		return err
	}

	service.invalidate(ctx, target.Email)

	service.logger.Info("user_deleted",
		slog.Int64("target_id", targetID),
		slog.Int64("actor_id", actor.ID),
	)

	return nil
}

// guardSelf rejects administrative operations aimed at the actor's own account.
func (service *Service) guardSelf(actor *auth.User, targetID int64) error {
	if actor.ID == targetID {
		return apperr.Unprocessable(auth.MsgCannotOperateSelf)
	}
	return nil
}

// invalidate drops the cached principal projection after a store commit.
func (service *Service) invalidate(ctx context.Context, email string) {
	if err := service.userCache.Invalidate(ctx, email); err != nil {
		service.logger.Warn("user_cache_invalidate_failed",
			slog.String("email", email),
			slog.Any("error", err),
		)
	}
}
