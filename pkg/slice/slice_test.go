// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/yomira-id/pkg/slice"
)

func TestMapFilterSet(t *testing.T) {
	raw := []string{" web ", "", "mobile", "web", "  "}

	trimmed := slice.Map(raw, strings.TrimSpace)
	assert.Equal(t, []string{"web", "", "mobile", "web", ""}, trimmed)

	nonEmpty := slice.Filter(trimmed, func(s string) bool { return s != "" })
	assert.Equal(t, []string{"web", "mobile", "web"}, nonEmpty)

	assert.Equal(t, map[string]struct{}{"web": {}, "mobile": {}}, slice.Set(nonEmpty))
	assert.Nil(t, slice.Map[string, string](nil, strings.TrimSpace))
}
