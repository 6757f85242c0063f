// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixshare/pixshare/internal/auth"
	"github.com/pixshare/pixshare/internal/platform/apperr"
)

/*
TestGate_SetSemantics verifies the gate is a membership check, not a
hierarchy: a role outside the declared set is denied even if it is "higher".
*/
func TestGate_SetSemantics(t *testing.T) {
	moderationGate := auth.NewGate(auth.RoleModerator)

	// 1. Member of the set passes
	assert.NoError(t, moderationGate.Authorize(&auth.User{Role: auth.RoleModerator}))

	// 2. Admin is NOT implied by a moderator-only gate
	err := moderationGate.Authorize(&auth.User{Role: auth.RoleAdmin})
	assert.Error(t, err)

	// 3. Plain member denied
	err = moderationGate.Authorize(&auth.User{Role: auth.RoleUser})
	require.Error(t, err)

	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, http.StatusForbidden, appError.HTTPStatus)
}

/*
TestGate_AnonymousVersusForbidden verifies a missing principal yields 401
while a present-but-unauthorized principal yields 403.
*/
func TestGate_AnonymousVersusForbidden(t *testing.T) {
	adminGate := auth.NewGate(auth.RoleAdmin, auth.RoleModerator)

	// 1. No principal at all: authentication problem
	err := adminGate.Authorize(nil)
	require.Error(t, err)

	var appError *apperr.AppError
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, http.StatusUnauthorized, appError.HTTPStatus)

	// 2. Authenticated but outside the set: authorization problem
	err = adminGate.Authorize(&auth.User{Role: auth.RoleUser})
	require.Error(t, err)
	require.True(t, errors.As(err, &appError))
	assert.Equal(t, http.StatusForbidden, appError.HTTPStatus)

	// 3. Both declared roles pass
	assert.NoError(t, adminGate.Authorize(&auth.User{Role: auth.RoleAdmin}))
	assert.NoError(t, adminGate.Authorize(&auth.User{Role: auth.RoleModerator}))
}

/*
TestGate_Allows verifies the raw membership predicate.
*/
func TestGate_Allows(t *testing.T) {
	gate := auth.NewGate(auth.RoleAdmin)

	assert.True(t, gate.Allows(auth.RoleAdmin))
	assert.False(t, gate.Allows(auth.RoleModerator))
	assert.False(t, gate.Allows(auth.RoleUser))
	assert.False(t, gate.Allows(auth.Role("superuser")))
}
