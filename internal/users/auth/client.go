// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/taibuivan/yomira-id/internal/platform/apperr"
	"github.com/taibuivan/yomira-id/pkg/slice"
)

// # Client Policy

// ClientPolicy is the immutable client-id allow-list consulted on every
// token request.
//
// An empty policy accepts any client id, including none.
type ClientPolicy struct {
	allowed map[string]struct{}
}

// NewClientPolicy builds a policy from raw client ids; blanks are dropped
// and surrounding whitespace is ignored.
func NewClientPolicy(clientIDs []string) *ClientPolicy {
	cleaned := slice.Filter(slice.Map(clientIDs, strings.TrimSpace), func(id string) bool { return id != "" })
	return &ClientPolicy{allowed: slice.Set(cleaned)}
}

// LoadClientPolicy builds the policy from the persisted allow-list.
func LoadClientPolicy(ctx context.Context, clients ClientRepository) (*ClientPolicy, error) {
	ids, err := clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth_client_policy_load_failed: %w", err)
	}
	return NewClientPolicy(ids), nil
}

// Open reports whether the policy accepts any client.
func (policy *ClientPolicy) Open() bool { return len(policy.allowed) == 0 }

// IDs returns the allow-listed client ids in lexical order.
func (policy *ClientPolicy) IDs() []string {
	return slices.Sorted(maps.Keys(policy.allowed))
}

/*
Check admits or rejects the client id of a token request.

Returns:
  - nil when the policy is open or clientID is allow-listed
  - apperr.ValidationError when a list is configured and clientID is missing
  - apperr.Unauthorized when clientID is not allow-listed
*/
func (policy *ClientPolicy) Check(clientID *string) error {
	if policy.Open() {
		return nil
	}
	if clientID == nil || *clientID == "" {
		return apperr.ValidationError("client_id is required",
			apperr.FieldError{Field: "client_id", Message: "is required"},
		)
	}
	if _, ok := policy.allowed[*clientID]; !ok {
		return apperr.Unauthorized("Unknown client_id")
	}
	return nil
}

// Persist replaces the stored allow-list with the policy's client ids.
func (policy *ClientPolicy) Persist(ctx context.Context, clients ClientRepository) error {
	if err := clients.Replace(ctx, policy.IDs()); err != nil {
		return fmt.Errorf("auth_client_policy_persist_failed: %w", err)
	}
	return nil
}
