package utils

import "strings"

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// InFoldSet reports whether str, trimmed, equals one of set ignoring case.
func (s *StringHelper) InFoldSet(str string, set ...string) bool {
	trimmed := strings.TrimSpace(str)
	for _, candidate := range set {
		if strings.EqualFold(trimmed, candidate) {
			return true
		}
	}

	return false
}
