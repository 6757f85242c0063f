// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/pixshare/pixshare/internal/auth"
	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/platform/constants"
	"github.com/pixshare/pixshare/internal/platform/ctxutil"
	requestutil "github.com/pixshare/pixshare/internal/platform/request"
	"github.com/pixshare/pixshare/internal/platform/respond"
)

// PrincipalResolver defines the interface needed to turn a bearer token into
// a live principal.
//
// # Why an interface?
//
// Defining PrincipalResolver here decouples the middleware from the auth
// service implementation, allowing us to easily inject mocks during unit testing.
type PrincipalResolver interface {
	PrincipalFromToken(ctx context.Context, token string) (*auth.User, error)
}

// Authenticate extracts and resolves the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, resolve the principal via [PrincipalResolver]. This checks
//     the revocation ledger and the account's active flag, not just the signature.
//  4. Inject [*auth.User] into the request context for downstream use.
//
// # Usage
//
// Mount only on route groups whose Authorization header carries an access
// token. Session lifecycle routes (refresh, logout) read other token kinds
// from that header and must resolve them in their own handlers.
//
// # Parameters
//   - resolver: The PrincipalResolver instance.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Token Extraction ───────────────────────────────────────────
			token, err := requestutil.BearerToken(request)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Principal Resolution ───────────────────────────────────────
			principal, err := resolver.PrincipalFromToken(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.Unauthorized(auth.MsgAuthenticationRequired))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRoles blocks requests whose principal's role is outside the allowed set.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically implies
// [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*auth.User] exists in context (implies AuthN).
//  2. Check the role against an [auth.Gate] built from the allowed set.
//  3. If denied, abort with HTTP 403 Forbidden.
func RequireRoles(allowedRoles ...auth.Role) func(http.Handler) http.Handler {
	gate := auth.NewGate(allowedRoles...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			if err := gate.Authorize(principal); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
