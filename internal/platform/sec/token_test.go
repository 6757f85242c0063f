// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package sec_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/pixshare/internal/platform/sec"
)

const (
	testSecret = "unit-test-signing-secret"
	testIssuer = "pixshare.test"
)

/*
TestTokenCodec_RoundTrip verifies that an issued token verifies back to its
subject for the purpose it was issued with.
*/
func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := sec.NewTokenCodec(testSecret, testIssuer)

	token, err := codec.Issue("alice@example.com", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	subject, err := codec.Verify(token, sec.PurposeAccess)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

/*
TestTokenCodec_PurposeMismatch verifies that a refresh token cannot be spent
as an access token, and vice versa.
*/
func TestTokenCodec_PurposeMismatch(t *testing.T) {
	codec := sec.NewTokenCodec(testSecret, testIssuer)

	refreshToken, err := codec.Issue("alice@example.com", sec.PurposeRefresh, time.Minute)
	require.NoError(t, err)

	// 1. Refresh presented as access
	_, err = codec.Verify(refreshToken, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrPurposeMismatch)

	// 2. Access presented as email-verify
	accessToken, err := codec.Issue("alice@example.com", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(accessToken, sec.PurposeEmailVerify)
	assert.ErrorIs(t, err, sec.ErrPurposeMismatch)
}

/*
TestTokenCodec_Expired verifies that verification fails once the clock moves
past the embedded expiry.
*/
func TestTokenCodec_Expired(t *testing.T) {
	currentTime := time.Now()
	codec := sec.NewTokenCodec(testSecret, testIssuer, sec.WithClock(func() time.Time {
		return currentTime
	}))

	token, err := codec.Issue("alice@example.com", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)

	// 1. Still valid just before expiry
	currentTime = currentTime.Add(59 * time.Second)
	_, err = codec.Verify(token, sec.PurposeAccess)
	assert.NoError(t, err)

	// 2. Rejected after expiry
	currentTime = currentTime.Add(2 * time.Minute)
	_, err = codec.Verify(token, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrExpired)
}

/*
TestTokenCodec_TamperedSignature verifies that a token signed with a
different key is rejected.
*/
func TestTokenCodec_TamperedSignature(t *testing.T) {
	codec := sec.NewTokenCodec(testSecret, testIssuer)
	otherCodec := sec.NewTokenCodec("a-completely-different-secret", testIssuer)

	token, err := otherCodec.Issue("alice@example.com", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, sec.PurposeAccess)
	assert.ErrorIs(t, err, sec.ErrInvalidSignature)
}

/*
TestTokenCodec_Malformed verifies that garbage input and truncated tokens are
rejected without panicking.
*/
func TestTokenCodec_Malformed(t *testing.T) {
	codec := sec.NewTokenCodec(testSecret, testIssuer)

	cases := []string{
		"",
		"not-a-token",
		"aaaa.bbbb",
		strings.Repeat("x", 512),
	}

	for _, input := range cases {
		_, err := codec.Verify(input, sec.PurposeAccess)
		assert.ErrorIs(t, err, sec.ErrMalformed, "input %q", input)
	}
}

/*
TestTokenCodec_DistinctWithinSameSecond verifies that two tokens minted at the
same instant are still distinct strings. Refresh rotation and the revocation
ledger compare exact strings, so issuance must never repeat itself.
*/
func TestTokenCodec_DistinctWithinSameSecond(t *testing.T) {
	frozen := time.Now()
	codec := sec.NewTokenCodec(testSecret, testIssuer, sec.WithClock(func() time.Time {
		return frozen
	}))

	first, err := codec.Issue("alice@example.com", sec.PurposeRefresh, time.Hour)
	require.NoError(t, err)

	second, err := codec.Issue("alice@example.com", sec.PurposeRefresh, time.Hour)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both still verify back to the subject.
	for _, token := range []string{first, second} {
		subject, verifyErr := codec.Verify(token, sec.PurposeRefresh)
		require.NoError(t, verifyErr)
		assert.Equal(t, "alice@example.com", subject)
	}
}

/*
TestTokenCodec_WrongIssuer verifies that tokens minted for a different
deployment are rejected even when the signing key matches.
*/
func TestTokenCodec_WrongIssuer(t *testing.T) {
	codec := sec.NewTokenCodec(testSecret, testIssuer)
	foreignCodec := sec.NewTokenCodec(testSecret, "another.app")

	token, err := foreignCodec.Issue("alice@example.com", sec.PurposeAccess, time.Minute)
	require.NoError(t, err)

	_, err = codec.Verify(token, sec.PurposeAccess)
	assert.Error(t, err)
}
