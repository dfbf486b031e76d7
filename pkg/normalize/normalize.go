// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes user-supplied identifiers before they reach
// storage or comparison.
//
// # Usage
//
// Usernames are compared byte-for-byte by the database. Without a canonical form
// "ａｄｍｉｎ" (fullwidth) and "admin" would be two different principals, which
// would let a look-alike account shadow the reserved administrator.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Username converts a raw username into its canonical form.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFKC (folds compatibility characters: ｆ → f, ﬁ → fi).
// 2. Drops control and format characters (zero-width joiners, BOMs).
// 3. Trims surrounding whitespace.
//
// Case is preserved.
func Username(s string) string {
	t := transform.Chain(norm.NFKC, transform.RemoveFunc(isInvisible))
	result, _, err := transform.String(t, s)
	if err != nil {
		result = s
	}

	return strings.TrimSpace(result)
}

// isInvisible reports whether r is a control or format character.
func isInvisible(r rune) bool {
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
}
