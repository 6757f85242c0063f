// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package users

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/pixshare/pixshare/internal/auth"
	"github.com/pixshare/pixshare/internal/platform/middleware"
	requestutil "github.com/pixshare/pixshare/internal/platform/request"
	"github.com/pixshare/pixshare/internal/platform/respond"
	"github.com/pixshare/pixshare/internal/platform/validate"
	"github.com/pixshare/pixshare/pkg/pagination"
)

// Handler implements the profile and account-administration HTTP endpoints.
type Handler struct {
	usersService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{usersService: service}
}

// Routes returns a [chi.Router] configured with user-management routes.
//
// # Endpoints
//   - GET    /me               : Caller's own account.
//   - PUT    /me/avatar        : Replace the caller's avatar.
//   - PUT    /me/username      : Rename the caller's handle.
//   - GET    /                 : Paginated account listing (admin).
//   - POST   /{id}/ban         : Deactivate an account (admin).
//   - POST   /{id}/unban       : Reactivate an account (admin).
//   - PATCH  /{id}/role        : Change an account's role (admin).
//   - DELETE /{id}             : Remove an inactive account (admin).
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Self-service surface: any authenticated role.
	router.Group(func(private chi.Router) {
		private.Use(middleware.RequireAuth)
		private.Get("/me", handler.me)
		private.Put("/me/avatar", handler.updateAvatar)
		private.Put("/me/username", handler.updateUsername)
	})

	// Administrative surface: admins only.
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireRoles(auth.RoleAdmin))
		admin.Get("/", handler.list)
		admin.Post("/{id}/ban", handler.ban)
		admin.Post("/{id}/unban", handler.unban)
		admin.Patch("/{id}/role", handler.changeRole)
		admin.Delete("/{id}", handler.remove)
	})

	return router
}

// me handles GET /api/v1/users/me requests.
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.usersService.Me(request.Context(), principal)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

// avatarRequest represents the JSON payload for avatar replacement.
type avatarRequest struct {
	AvatarURL string `json:"avatar_url"`
}

// updateAvatar handles PUT /api/v1/users/me/avatar requests.
func (handler *Handler) updateAvatar(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input avatarRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required("avatar_url", input.AvatarURL).
		Custom("avatar_url", !isHTTPURL(input.AvatarURL), "Must be an absolute http(s) URL")
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.usersService.UpdateAvatar(request.Context(), principal, input.AvatarURL)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// usernameRequest represents the JSON payload for handle renaming.
type usernameRequest struct {
	Username string `json:"username"`
}

// updateUsername handles PUT /api/v1/users/me/username requests.
func (handler *Handler) updateUsername(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input usernameRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required(auth.FieldUsername, input.Username).
		MinLen(auth.FieldUsername, input.Username, auth.UsernameMinLen).
		MaxLen(auth.FieldUsername, input.Username, auth.UsernameMaxLen).
		Username(auth.FieldUsername, input.Username)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	updated, err := handler.usersService.UpdateUsername(request.Context(), principal, input.Username)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, updated)
}

// list handles GET /api/v1/users requests.
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	users, total, err := handler.usersService.List(request.Context(), params.Offset(), params.Limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

// ban handles POST /api/v1/users/{id}/ban requests.
func (handler *Handler) ban(writer http.ResponseWriter, request *http.Request) {
	handler.adminAction(writer, request, handler.usersService.Ban)
}

// unban handles POST /api/v1/users/{id}/unban requests.
func (handler *Handler) unban(writer http.ResponseWriter, request *http.Request) {
	handler.adminAction(writer, request, handler.usersService.Unban)
}

// roleRequest represents the JSON payload for role changes.
type roleRequest struct {
	Role string `json:"role"`
}

// changeRole handles PATCH /api/v1/users/{id}/role requests.
func (handler *Handler) changeRole(writer http.ResponseWriter, request *http.Request) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.NumericID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input roleRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.usersService.ChangeRole(request.Context(), actor, targetID, auth.Role(input.Role)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// remove handles DELETE /api/v1/users/{id} requests.
func (handler *Handler) remove(writer http.ResponseWriter, request *http.Request) {
	handler.adminAction(writer, request, handler.usersService.Delete)
}

// adminAction factors the shared actor/target plumbing of ban, unban, and delete.
func (handler *Handler) adminAction(
	writer http.ResponseWriter,
	request *http.Request,
	action func(ctx context.Context, actor *auth.User, targetID int64) error,
) {
	actor, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	targetID, err := requestutil.NumericID(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := action(request.Context(), actor, targetID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// isHTTPURL reports whether the value parses as an absolute http(s) URL.
func isHTTPURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
