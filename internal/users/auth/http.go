// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/yomira-id/internal/platform/request"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
	"github.com/taibuivan/yomira-id/internal/platform/validate"
	"github.com/taibuivan/yomira-id/pkg/pointer"
)

// # Definitions & Constructors

// Handler implements the token grant endpoints.
//
// Both endpoints are public; the credentials travel in the body.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Register mounts the grant endpoints on router.
//
// # Endpoints
//   - POST /tokens  : password grant
//   - POST /refresh : refresh-token grant
func (handler *Handler) Register(router chi.Router) {
	router.Post("/tokens", handler.tokens)
	router.Post("/refresh", handler.refresh)
}

// # Request Shapes

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokensRequest struct {
	Auth     credentials `json:"auth"`
	ClientID *string     `json:"client_id"`
}

type refreshRequest struct {
	RefreshToken string  `json:"refresh_token"`
	ClientID     *string `json:"client_id"`
}

// # Handlers

/*
POST /v1.0/tokens.

Request:
  - body: {"auth": {"username", "password"}, "client_id"?}

Response:
  - 200: {"token", "metadata", "message"}
  - 400: client_id missing while an allow-list is configured
  - 401: bad credentials or client_id not allow-listed
*/
func (handler *Handler) tokens(writer http.ResponseWriter, request *http.Request) {
	var input tokensRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("auth.username", input.Auth.Username).
		Required("auth.password", input.Auth.Password)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Login(request.Context(), LoginInput{
		Username: input.Auth.Username,
		Password: input.Auth.Password,
		ClientID: pointer.NonEmpty(input.ClientID),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, response)
}

/*
POST /v1.0/refresh.

Request:
  - body: {"refresh_token", "client_id"?}

Response:
  - 200: {"token", "metadata", "message"} with a new refresh token
  - 401: unknown, replayed, expired or client-mismatched refresh token
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Required("refresh_token", input.RefreshToken)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	response, err := handler.authService.Refresh(request.Context(), RefreshInput{
		RefreshToken: input.RefreshToken,
		ClientID:     pointer.NonEmpty(input.ClientID),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, response)
}
