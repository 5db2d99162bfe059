// Package normalize canonicalizes form and query values before they are
// validated or stored.
package normalize

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Email trims and lowercases an address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and collapses inner runs of spaces.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Status trims and lowercases a status value.
func Status(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Role trims and lowercases a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// QueryParam trims a query value, preserving case.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Phone keeps digits and a leading '+'.
func Phone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		if (r >= '0' && r <= '9') || (r == '+' && i == 0) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FilterID trims an id filter; "all" and "" mean no filter.
func FilterID(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "all") {
		return ""
	}
	return s
}

// ObjectID parses a hex id, returning the nil id and false for anything
// malformed or empty.
func ObjectID(s string) (primitive.ObjectID, bool) {
	s = FilterID(s)
	if s == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}
