// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [auth.TokenCodec] interface.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// # Token Purposes

// Purpose tags a token with the single operation class allowed to consume it.
//
// A refresh token presented where an access token is expected (or vice versa)
// is rejected with [ErrPurposeMismatch] — the tag is embedded in the signed
// payload, so it cannot be stripped or swapped without breaking the signature.
type Purpose string

const (
	// PurposeAccess authorizes protected API requests.
	PurposeAccess Purpose = "access_token"

	// PurposeRefresh authorizes exactly one session rotation.
	PurposeRefresh Purpose = "refresh_token"

	// PurposeEmailVerify authorizes the email-confirmation flow.
	PurposeEmailVerify Purpose = "email_token"
)

// # Verification Failures

var (
	// ErrMalformed indicates the token could not be parsed at all.
	ErrMalformed = errors.New("sec: malformed token")

	// ErrInvalidSignature indicates the signature does not match the signing key.
	ErrInvalidSignature = errors.New("sec: invalid token signature")

	// ErrExpired indicates the embedded expiry has passed.
	ErrExpired = errors.New("sec: token expired")

	// ErrPurposeMismatch indicates the embedded purpose differs from the expected one.
	ErrPurposeMismatch = errors.New("sec: token purpose mismatch")
)

// TokenClaims is the payload embedded inside every signed token.
//
// # Why a scope claim?
//
// The subject alone cannot distinguish an access token from a refresh or
// email-verification token. Embedding the purpose as a claim lets [Verify]
// enforce the match without any database lookup.
type TokenClaims struct {
	jwt.RegisteredClaims

	// Scope carries the [Purpose] marker.
	Scope string `json:"scope"`
}

// TokenCodec issues and verifies signed, expiring tokens using HS256.
//
// The signing key is process-wide configuration loaded once at startup.
// Rotating it invalidates all previously issued tokens.
type TokenCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option customizes a [TokenCodec].
type Option func(*TokenCodec)

// WithClock overrides the codec's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(codec *TokenCodec) { codec.now = now }
}

// NewTokenCodec creates a new TokenCodec with the given signing secret and issuer.
func NewTokenCodec(secret, issuer string, options ...Option) *TokenCodec {
	codec := &TokenCodec{
		secret: []byte(secret),
		issuer: issuer,
		now:    time.Now,
	}
	for _, option := range options {
		option(codec)
	}
	return codec
}

// Issue produces a signed token embedding the subject, the purpose marker,
// and issued-at/expires-at timestamps.
func (codec *TokenCodec) Issue(subject string, purpose Purpose, timeToLive time.Duration) (string, error) {
	currentTime := codec.now()
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
			// Timestamps carry second precision, so two tokens minted in the
			// same second would otherwise be identical strings. Rotation and
			// the revocation ledger both key on the exact string, so every
			// token gets a unique id.
			ID: uuid.NewString(),
		},
		Scope: string(purpose),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify checks the signature, expiry, and purpose marker of a token string.
//
// On success it returns the embedded subject unconditionally — resolving the
// subject to a live principal is the caller's job.
func (codec *TokenCodec) Verify(tokenString string, expectedPurpose Purpose) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return codec.secret, nil
	}, jwt.WithTimeFunc(codec.now), jwt.WithIssuer(codec.issuer))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return "", ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return "", ErrInvalidSignature
		default:
			return "", ErrMalformed
		}
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		return "", ErrMalformed
	}

	if Purpose(claims.Scope) != expectedPurpose {
		return "", ErrPurposeMismatch
	}

	return claims.Subject, nil
}
