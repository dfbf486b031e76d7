// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blind

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-id/internal/platform/middleware"
	requestutil "github.com/taibuivan/yomira-id/internal/platform/request"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
)

// Handler exposes blind signing over HTTP.
type Handler struct {
	blindService *Service
}

// NewHandler constructs a new blind-signing [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{blindService: service}
}

// Register mounts POST /blindsign behind bearer authentication.
func (handler *Handler) Register(router chi.Router) {
	router.With(middleware.RequireAuth).Post("/blindsign", handler.blindSign)
}

type blindSignRequest struct {
	BlindedTokenMessage string  `json:"blinded_token_message"`
	BlindedTokenOptions Options `json:"blinded_token_options"`
}

type blindSignResponse struct {
	BlindSignature string `json:"blind_signature"`
	KeyID          string `json:"key_id"`
	ExpiresAt      int64  `json:"expires_at"`
	Message        string `json:"message"`
}

/*
POST /v1.0/blindsign.

Request:
  - header: Authorization: Bearer <id token>
  - body: {"blinded_token_message", "blinded_token_options": {"hash", "deterministic", "salt_len"?}}

Response:
  - 200: {"blind_signature", "key_id", "expires_at", "message"}
  - 400: unsupported options or malformed message
  - 401: missing or invalid ID token
  - 429: issuance quota exhausted for the current key
*/
func (handler *Handler) blindSign(writer http.ResponseWriter, request *http.Request) {
	subject, err := requestutil.RequiredSubject(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input blindSignRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.blindService.Sign(request.Context(), SignRequest{
		Subject: subject,
		Message: input.BlindedTokenMessage,
		Options: input.BlindedTokenOptions,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, blindSignResponse{
		BlindSignature: base64.RawURLEncoding.EncodeToString(result.Signature),
		KeyID:          result.KeyID,
		ExpiresAt:      result.ExpiresAt.Unix(),
		Message:        "ok",
	})
}
