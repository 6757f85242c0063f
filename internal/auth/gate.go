// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"github.com/pixshare/pixshare/internal/platform/apperr"
)

// Gate is a per-route authorization check mapping a principal's role to an
// allow/deny decision against a declared allowed-role set.
//
// # Concurrency
//
// A Gate holds no mutable state after construction, so a single instance is
// safely shared across concurrent requests.
//
// # Why a set, not a hierarchy?
//
// Routes declare exactly which roles may call them. A numeric ladder would
// force "moderator implies user" orderings that the product does not want —
// some moderation endpoints exclude plain admins' day-to-day accounts, and
// an explicit set keeps each route's policy readable at the declaration site.
type Gate struct {
	allowed map[Role]struct{}
}

// NewGate constructs a Gate that permits exactly the given roles.
func NewGate(allowedRoles ...Role) *Gate {
	allowed := make(map[Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = struct{}{}
	}
	return &Gate{allowed: allowed}
}

// Allows reports whether the role is in the allowed set.
func (gate *Gate) Allows(role Role) bool {
	_, ok := gate.allowed[role]
	return ok
}

// Authorize checks the principal's role against the allowed set.
//
// It performs no I/O. Returns [apperr.Unauthorized] for a missing principal
// and [apperr.Forbidden] when the role is not permitted, so callers can
// distinguish "who are you" from "you can't do that".
func (gate *Gate) Authorize(user *User) error {
	if user == nil {
		return apperr.Unauthorized(MsgAuthenticationRequired)
	}
	if !gate.Allows(user.Role) {
		return apperr.Forbidden(MsgOperationForbidden)
	}
	return nil
}
