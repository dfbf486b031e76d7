// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package discovery

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/internal/platform/respond"
)

// Handler serves the key documents.
type Handler struct {
	publisher *Publisher
}

// NewHandler constructs a new discovery [Handler].
func NewHandler(publisher *Publisher) *Handler {
	return &Handler{publisher: publisher}
}

// Register mounts the public, unauthenticated key endpoints.
func (handler *Handler) Register(router chi.Router) {
	router.Get("/jwks", handler.identity)
	router.Get("/blindjwks", handler.blind)
}

// GET /v1.0/jwks
func (handler *Handler) identity(writer http.ResponseWriter, _ *http.Request) {
	writer.Header().Set("Cache-Control", "public, max-age=300")
	respond.RawJSON(writer, http.StatusOK, handler.publisher.IdentityJWKS())
}

// GET /v1.0/blindjwks
func (handler *Handler) blind(writer http.ResponseWriter, request *http.Request) {
	document, err := handler.publisher.BlindJWKS(request.Context())
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	writer.Header().Set("Cache-Control", "no-cache")
	respond.RawJSON(writer, http.StatusOK, document)
}
