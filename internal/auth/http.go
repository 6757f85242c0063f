// Copyright (c) 2026 PixShare. All rights reserved.
// Author: pixshare.dev@gmail.com

package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pixshare/pixshare/internal/platform/apperr"
	"github.com/pixshare/pixshare/internal/platform/constants"
	"github.com/pixshare/pixshare/internal/platform/respond"
	"github.com/pixshare/pixshare/internal/platform/validate"
)

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points: registration,
// login, token refresh, email confirmation, and logout. It contains NO
// business logic or database queries.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /signup                   : Creates a new account.
//   - POST /login                    : Authenticates and returns a token pair.
//   - GET  /refresh_token            : Rotates the refresh token.
//   - GET  /confirmed_email/{token}  : Consumes an email-confirmation token.
//   - POST /request_email            : Re-sends the confirmation email.
//   - GET  /logout                   : Revokes the presented bearer token.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/signup", handler.signup)
	router.Post("/login", handler.login)
	router.Get("/refresh_token", handler.refresh)
	router.Get("/confirmed_email/{token}", handler.confirmEmail)
	router.Post("/request_email", handler.requestEmail)
	router.Get("/logout", handler.logout)

	return router
}

// signupRequest represents the JSON payload expected for account creation.
type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signup handles POST /api/v1/auth/signup requests.
//
// # Returns
//   - Writes HTTP 201 Created on success with a confirmation notice.
//   - Writes HTTP 400 Bad Request if validation rules fail.
//   - Writes HTTP 409 Conflict if email/username is taken.
func (handler *Handler) signup(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input signupRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	validator := &validate.Validator{}
	validator.
		Required(FieldUsername, input.Username).
		MinLen(FieldUsername, input.Username, UsernameMinLen).
		MaxLen(FieldUsername, input.Username, UsernameMaxLen).
		Username(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLen)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	_, err := handler.authService.Signup(request.Context(), SignupInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.CreatedMessage(writer, MsgUserCreated)
}

// loginRequest represents the JSON payload expected for authentication.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// login handles POST /api/v1/auth/login requests.
//
// # Returns
//   - Writes HTTP 200 OK on success with the token pair.
//   - Writes HTTP 401 Unauthorized for bad credentials or account state.
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	// ── 1. Payload Extraction ─────────────────────────────────────────────

	var input loginRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	// ── 2. Boundary Validation ────────────────────────────────────────────

	if input.Email == "" || input.Password == "" {
		respond.Error(writer, request, validate.RequiredError("email/password", "are required"))
		return
	}

	// ── 3. Application Execution ──────────────────────────────────────────

	pair, err := handler.authService.Login(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// ── 4. Presentation Output ────────────────────────────────────────────

	respond.OK(writer, pair)
}

// refresh handles GET /api/v1/auth/refresh_token requests.
//
// The refresh token travels in the Authorization header like any bearer
// credential; there is no request body.
//
// # Returns
//   - Writes HTTP 200 OK with a rotated token pair.
//   - Writes HTTP 401 Unauthorized for revoked, mismatched, or expired tokens.
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token, err := bearerToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.authService.Refresh(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair)
}

// confirmEmail handles GET /api/v1/auth/confirmed_email/{token} requests.
//
// # Returns
//   - Writes HTTP 200 OK with a confirmation notice (idempotent).
//   - Writes HTTP 400 Bad Request for an invalid or expired token.
func (handler *Handler) confirmEmail(writer http.ResponseWriter, request *http.Request) {
	token := chi.URLParam(request, FieldToken)

	status, err := handler.authService.ConfirmEmail(request.Context(), token)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if status == ConfirmStatusAlready {
		respond.Message(writer, MsgEmailAlreadyConfirmed)
		return
	}

	respond.Message(writer, MsgEmailConfirmed)
}

// requestEmailRequest represents the JSON payload for re-sending confirmation.
type requestEmailRequest struct {
	Email string `json:"email"`
}

// requestEmail handles POST /api/v1/auth/request_email requests.
//
// # Returns
//   - Writes HTTP 200 OK with a generic notice. The response does not reveal
//     whether the email belongs to a registered account.
func (handler *Handler) requestEmail(writer http.ResponseWriter, request *http.Request) {
	var input requestEmailRequest
	if err := json.NewDecoder(request.Body).Decode(&input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	status, err := handler.authService.RequestConfirmationEmail(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if status == ConfirmStatusAlready {
		respond.Message(writer, MsgEmailAlreadyConfirmed)
		return
	}

	respond.Message(writer, MsgCheckEmail)
}

// logout handles GET /api/v1/auth/logout requests.
//
// # Returns
//   - Writes HTTP 204 No Content once the token is in the revocation ledger.
//   - Writes HTTP 401 Unauthorized if the token was already revoked.
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	token, err := bearerToken(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.Logout(request.Context(), token); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// bearerToken extracts the raw bearer token from the Authorization header.
//
// Duplicated from the shared request helpers on purpose: importing them here
// would create an import cycle, since they resolve principals of this package.
func bearerToken(request *http.Request) (string, error) {
	authHeader := request.Header.Get(constants.HeaderAuthorization)
	if authHeader == "" {
		return "", apperr.Unauthorized(MsgAuthenticationRequired)
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], constants.BearerScheme) {
		return "", apperr.Unauthorized("Invalid authorization format")
	}

	return parts[1], nil
}
