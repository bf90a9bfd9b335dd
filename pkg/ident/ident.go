// Package ident provides case-insensitive identifier helpers shared by the
// lexer, parser and evaluator: the rating DSL matches variable and function
// names without regard to case.
package ident

import "strings"

// Normalize lower-cases name for use as a case-insensitive map key.
func Normalize(name string) string {
	return strings.ToLower(name)
}

// Equal reports whether a and b are the same identifier, ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}

// Compare orders a and b case-insensitively: negative if a<b, zero if equal,
// positive if a>b.
func Compare(a, b string) int {
	return strings.Compare(Normalize(a), Normalize(b))
}

// Contains reports whether name appears in list, ignoring case.
func Contains(list []string, name string) bool {
	return Index(list, name) >= 0
}

// Index returns the position of the first element of list equal to name
// (case-insensitively), or -1 if none matches.
func Index(list []string, name string) int {
	for i, item := range list {
		if Equal(item, name) {
			return i
		}
	}
	return -1
}

// IsKeyword reports whether s matches one of keywords, ignoring case.
func IsKeyword(s string, keywords ...string) bool {
	return Contains(keywords, s)
}
