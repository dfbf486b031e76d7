// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package pagination provides shared types and helpers for API list endpoints.
//
// # Overview
//
// It standardizes how a 1-indexed page number is clamped and how the resulting
// metadata (total pages, total rows) is delivered in list responses.
package pagination

const (
	// DefaultLimit is the number of items per page.
	DefaultLimit = 20
	// DefaultPage is the starting page (1-indexed).
	DefaultPage = 1
)

// Params holds a clamped page number and its page size.
type Params struct {
	Page  int
	Limit int
}

// New builds [Params] for the requested page.
//
// # Clamping
//
// Page numbers below 1 are clamped to [DefaultPage]; a non-positive limit falls
// back to [DefaultLimit]. Pages past the end are kept as-is and simply yield no rows.
func New(page, limit int) Params {
	if page < 1 {
		page = DefaultPage
	}

	if limit < 1 {
		limit = DefaultLimit
	}

	return Params{Page: page, Limit: limit}
}

// Offset returns the SQL OFFSET value derived from [Page] and [Limit].
func (p Params) Offset() int {
	if p.Page <= 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta constructs pagination metadata for a response.
//
// It automatically calculates the TotalPages based on the total count and limit.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
