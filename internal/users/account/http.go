// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-id/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-id/internal/platform/request"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
)

// Handler implements the HTTP layer for user management.
//
// # Security
//
// create_user, delete_user and list_users require an admin bearer token, and
// the admin flag is re-checked against the store on every call. update_user
// requires any valid bearer token and only ever touches the caller.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Register mounts the user-management endpoints on router.
//
// The router must already run [middleware.Authenticate].
func (handler *Handler) Register(router chi.Router) {
	router.Group(func(admin chi.Router) {
		admin.Use(middleware.RequireAdmin)
		admin.Post("/create_user", handler.createUser)
		admin.Post("/delete_user", handler.deleteUser)
		admin.Post("/list_users", handler.listUsers)
	})

	router.With(middleware.RequireAuth).Post("/update_user", handler.updateUser)
}

// credentials is the {"username","password"} object nested under "auth".
type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type optionalCredentials struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type createUserRequest struct {
	Auth credentials `json:"auth"`
}

type createUserResponse struct {
	UserSummary
	Message string `json:"message"`
}

/*
POST /v1.0/create_user.

Request:
  - body: {"auth": {"username", "password"}}

Response:
  - 201: the created user (username, subscriber_id, is_admin)
  - 401/403: caller is not an administrator
  - 409: username taken or reserved
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	if !handler.confirmAdmin(writer, request) {
		return
	}

	var input createUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Create(request.Context(), input.Auth.Username, input.Auth.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, createUserResponse{
		UserSummary: user.Summary(),
		Message:     "ok. created the user.",
	})
}

type deleteUserRequest struct {
	Username string `json:"username"`
}

/*
POST /v1.0/delete_user.

Request:
  - body: {"username"}

Response:
  - 200: deleted
  - 403: target is the admin principal or the caller itself
  - 404: no such user
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	if !handler.confirmAdmin(writer, request) {
		return
	}

	var input deleteUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims := requestutil.Identity(request)
	if err := handler.accountService.Delete(request.Context(), claims.Subject, input.Username); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "ok. deleted the user."})
}

type listUsersRequest struct {
	Page int `json:"page"`
}

/*
POST /v1.0/list_users.

Request:
  - body: {"page"} (optional, 1-indexed, defaults to 1)

Response:
  - 200: {"users", "page", "total_pages", "total_users"}
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	if !handler.confirmAdmin(writer, request) {
		return
	}

	var input listUsersRequest
	if err := requestutil.DecodeOptionalJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	page, err := handler.accountService.List(request.Context(), input.Page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, page)
}

type updateUserRequest struct {
	Auth optionalCredentials `json:"auth"`
}

/*
POST /v1.0/update_user.

Request:
  - body: {"auth": {"username"?, "password"?}}

Response:
  - 200: updated
  - 403: the admin principal tried to change its username
  - 409: username taken or reserved
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	subject, err := requestutil.RequiredSubject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.Update(request.Context(), subject, UpdateInput{
		Username: input.Auth.Username,
		Password: input.Auth.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, messageResponse{Message: "ok. updated the user."})
}

// confirmAdmin re-checks the caller's admin flag against the store and writes
// the error response when it no longer holds.
func (handler *Handler) confirmAdmin(writer http.ResponseWriter, request *http.Request) bool {
	subject, err := requestutil.RequiredSubject(request)
	if err == nil {
		_, err = handler.accountService.RequireAdmin(request.Context(), subject)
	}
	if err != nil {
		respond.Error(writer, request, err)
		return false
	}
	return true
}
