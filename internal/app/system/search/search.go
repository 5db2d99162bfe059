// internal/app/system/search/search.go
package search

import "strings"

// EmailPivot reports whether a paged user search should match and sort on
// the email instead of the folded name.
//
// It pivots only when the query looks like an address (contains '@') and
// the status filter is fixed to active or disabled, so the (status, email)
// index path stays selective.
//
//	byEmail := search.EmailPivot(q, status)
func EmailPivot(search, status string) bool {
	return strings.Contains(search, "@") && equalsAnyFold(status, "active", "disabled")
}

func equalsAnyFold(s string, vals ...string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, v := range vals {
		if s == strings.ToLower(v) {
			return true
		}
	}
	return false
}
