// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/pixshare/internal/platform/sec"
)

/*
TestHashPassword verifies hashing round-trips and rejects wrong passwords.
*/
func TestHashPassword(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	// 1. The hash never equals the plain text
	assert.NotEqual(t, "correct horse battery staple", hash)

	// 2. The right password matches
	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))

	// 3. A wrong password does not
	assert.False(t, sec.CheckPasswordHash("wrong password", hash))
}

/*
TestHashPassword_UniqueSalts verifies two hashes of the same input differ.
*/
func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := sec.HashPassword("same-input")
	require.NoError(t, err)

	second, err := sec.HashPassword("same-input")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}
