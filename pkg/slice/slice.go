// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice adds the generic projections the standard [slices] package
// leaves out.
package slice

// Map applies transform to every element. A nil input yields nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}
	return result
}

// Filter keeps the elements for which keep returns true.
func Filter[T any](input []T, keep func(T) bool) []T {
	var result []T
	for _, v := range input {
		if keep(v) {
			result = append(result, v)
		}
	}
	return result
}

// Set collects the elements into a membership set; duplicates collapse.
func Set[T comparable](input []T) map[T]struct{} {
	set := make(map[T]struct{}, len(input))
	for _, v := range input {
		set[v] = struct{}{}
	}
	return set
}
