package sliceutils

import (
	"strings"
)

// SplitTrim() splits s on sep and trims the spaces of each element, dropping the empty ones.
func SplitTrim(s, sep string) []string {
	elements := []string{}
	for _, element := range strings.Split(s, sep) {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		elements = append(elements, element)
	}
	return elements
}

// ContainsAny() returns whether s contains at least one of the substrings.
// Empty substrings are ignored.
func ContainsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

/*
returns the elements of slice that are not in exclude, preserving the order of slice;
in set notation:

- difference = slice - exclude

Duplicated elements of slice are kept.
*/
func Difference[T comparable](slice, exclude []T) []T {
	excluded := make(map[T]struct{}, len(exclude))
	for _, e := range exclude {
		excluded[e] = struct{}{}
	}

	difference := []T{}
	for _, e := range slice {
		if _, found := excluded[e]; !found {
			difference = append(difference, e)
		}
	}
	return difference
}
