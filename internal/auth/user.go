// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package auth implements the identity and access-control core of PixShare.
//
// # Architecture
//
// Entities in this file represent the "Truth" of the system. They have no
// dependencies on outer layers (like databases, HTTP, or libraries). The
// [Service] orchestrates them through repository interfaces defined in store.go.
package auth

import (
	"time"
)

// Role represents the authorization level granted to a principal.
//
// It is a closed enumeration: the [Gate] and every role-changing operation
// accept only the three values below, so a typo'd role string can never
// silently grant or deny access.
type Role string

const (
	// RoleAdmin has unrestricted system access, including user management.
	RoleAdmin Role = "admin"

	// RoleModerator can manage community content (images, comments, tags).
	RoleModerator Role = "moderator"

	// RoleUser is the default role for registered members.
	RoleUser Role = "user"
)

// Valid reports whether the role is one of the closed set.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleUser:
		return true
	}
	return false
}

// User is the authenticated principal tracked by the system.
//
// # Lifecycle
//
// Created at signup with Confirmed=false, Active=false. The email-confirmation
// flow sets both true atomically. An admin may later toggle Active (ban/unban)
// independently. Deletion is permitted only while inactive.
//
// # Rules
//   - Username is unique, 5–16 characters.
//   - Email is unique, case-sensitive as stored.
//   - PasswordHash is generated via bcrypt exclusively by the [Service].
//   - RefreshToken holds the single refresh token of record, or "" if none.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	AvatarURL    string    `json:"avatar_url,omitempty"`
	Role         Role      `json:"role"`
	Confirmed    bool      `json:"confirmed"`
	Active       bool      `json:"active"`
	RefreshToken string    `json:"-"` // The refresh token of record. Omitted for security.
	CreatedAt    time.Time `json:"created_at"`
}

// BanEntry is one row of the revocation ledger: a token string that is
// permanently unusable for authorization, regardless of its embedded expiry.
type BanEntry struct {
	ID        int64     `json:"id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
