// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

// # Client-Facing Messages
//
// Centralized so the same condition never surfaces under two different
// wordings across handlers or revisions.

const (
	MsgAuthenticationRequired = "Authentication required"
	MsgOperationForbidden     = "Operation forbidden"

	MsgEmailRegistered = "Email is already registered"
	MsgUsernameTaken   = "Username is already taken"

	MsgInvalidEmail      = "Invalid email"
	MsgEmailNotConfirmed = "Email not confirmed"
	MsgEmailNotActive    = "Email not active"
	MsgInvalidPassword   = "Invalid password"

	MsgInvalidAuthToken    = "Invalid auth token"
	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgInvalidTokenScope   = "Invalid scope for token"
	MsgNotValidCredentials = "Could not validate credentials"
	MsgTokenExpired        = "Token expired"

	MsgVerificationError     = "Verification error"
	MsgEmailConfirmed        = "Email confirmed"
	MsgEmailAlreadyConfirmed = "Your email is already confirmed"
	MsgCheckEmail            = "Check your email for confirmation."
	MsgUserCreated           = "User successfully created. Check your email for confirmation."

	MsgCannotOperateSelf = "Cannot operate on own account"
	MsgMustDeactivate    = "Account must be deactivated before deletion"
)

// # Field Identifiers

const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldToken    = "token"
	FieldRole     = "role"
)

// # Username Constraints

const (
	// UsernameMinLen and UsernameMaxLen bound the unique handle length.
	UsernameMinLen = 5
	UsernameMaxLen = 16

	// PasswordMinLen is the minimum accepted password length.
	PasswordMinLen = 8
)
