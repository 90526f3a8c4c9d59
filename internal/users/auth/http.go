// Copyright (c) 2026 Miru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth provides the HTTP delivery layer for user identity management.

It implements the gateway for the authentication lifecycle — account creation,
login, session projection, and logout.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles opaque session cookie injection and removal.
  - Verification: Delegates all credential rules to the [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/miru/internal/platform/constants"
	requestutil "github.com/taibuivan/miru/internal/platform/request"
	"github.com/taibuivan/miru/internal/platform/respond"
	"github.com/taibuivan/miru/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages everything related to the user lifecycle entry points
// (Registration, Login, Session resolution, Logout).
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
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and establishes a session.
//   - GET  /me       : Resolves the caller's session to a user.
//   - POST /logout   : Releases the caller's session.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/me", handler.me)
	router.Post("/logout", handler.logout)

	return router
}

// # Request Payloads

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/v1/auth/register

Description: Validates input, persists a new user, and translates the
store-level username conflict into a field error.

Request:
  - Body: credentialsRequest (Username, Password)

Response:
  - 201: User: Created user profile
  - 400: VALIDATION_ERROR: Field-level failures
  - 409: CONFLICT: Username already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.authService.Register(request.Context(), Credentials{
		Username: input.Username,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, binds the session token to the user, and
injects the session cookie into the response. An existing session cookie is
re-bound (overwritten) rather than replaced.

Request:
  - Body: credentialsRequest (Username, Password)

Response:
  - 200: User: Authenticated user profile
  - 401: UNAUTHORIZED: Unknown username or wrong password (field details)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input credentialsRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, session, err := handler.authService.Login(request.Context(), LoginInput{
		Username:     input.Username,
		Password:     input.Password,
		SessionToken: requestutil.SessionToken(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    session.Token,
		Path:     constants.SessionCookiePath,
		Expires:  session.ExpiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.OK(writer, user)
}

/*
Me resolves the caller's session to their user profile.

GET /api/v1/auth/me

Description: Read-only projection of the session cookie onto the user store.
An anonymous or stale session is a successful empty response, not an error.

Response:
  - 200: User or null
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.authService.Me(request.Context(), requestutil.SessionToken(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if user == nil {
		respond.OK(writer, nil)
		return
	}

	respond.OK(writer, user)
}

/*
Logout terminates the current user session.

POST /api/v1/auth/logout

Description: Releases the session binding (if present) and clears the
session cookie from the client.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if err := handler.authService.Logout(request.Context(), requestutil.SessionToken(request)); err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.SessionCookieName,
		Value:    "",
		Path:     constants.SessionCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.NoContent(writer)
}
