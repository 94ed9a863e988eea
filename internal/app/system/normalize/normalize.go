// Package normalize canonicalizes user-supplied strings before they are
// compared or stored.
package normalize

import "strings"

// Email trims and lower-cases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Role lower-cases a role name and maps "-" and " " to "_", so
// "Super-Admin" and "super admin" both become "super_admin".
func Role(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Status trims and lower-cases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Identifier trims and upper-cases an organization or lab identifier.
func Identifier(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// QueryParam trims a query parameter value and preserves case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}
