// Package utils provides minimal utility functions for common operations.
//
// Overview:
//   - Responsibility: Small slice and map helpers shared by eggdata packages
//   - Concurrency Model: All functions are safe for concurrent use
//   - Performance Notes: Helpers allocate only for their return values
//
// Usage:
//
//	if utils.Contains(omit, name) { ... }
//	names := utils.SortedKeys(models)
package utils

import (
	"maps"
	"slices"
)

// Contains checks if a slice contains a specific string.
func Contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// SortedKeys returns the keys of a string-keyed map in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
