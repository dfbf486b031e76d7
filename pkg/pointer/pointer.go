// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer handles the optional fields of request bodies and storage rows.

JSON fields such as "client_id" are optional, and the difference between
absent and present matters (a refresh token bound to no client is not the
same as one bound to ""), so they travel as pointers.
*/
package pointer

import "strings"

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Val dereferences p, yielding the zero value for nil.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonEmpty folds a blank optional string into absent.
func NonEmpty(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
