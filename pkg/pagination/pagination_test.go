// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-id/pkg/pagination"
)

/*
TestNew_Clamping verifies that out-of-range inputs are normalized.
*/
func TestNew_Clamping(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"first_page", 1, 20, 1, 20},
		{"zero_page", 0, 20, 1, 20},
		{"negative_page", -3, 20, 1, 20},
		{"past_the_end", 9, 20, 9, 20},
		{"zero_limit", 2, 0, 2, pagination.DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := pagination.New(tt.page, tt.limit)
			assert.Equal(t, tt.wantPage, params.Page)
			assert.Equal(t, tt.wantLimit, params.Limit)
		})
	}
}

/*
TestOffsetAndMeta checks offset math and total page rounding.
*/
func TestOffsetAndMeta(t *testing.T) {
	assert.Equal(t, 0, pagination.New(1, 20).Offset())
	assert.Equal(t, 40, pagination.New(3, 20).Offset())

	meta := pagination.NewMeta(4, 20, 45)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 45, meta.Total)

	assert.Equal(t, 0, pagination.NewMeta(1, 20, 0).TotalPages)
}
