// Package navigation provides helpers for safe URL navigation and redirects.
package navigation

import (
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/urlutil"
)

// BackURLOptions configures the behavior of SafeBackURL.
type BackURLOptions struct {
	// AllowedPrefix is the required URL prefix (e.g., "/workers", "/cities").
	// If empty, any safe URL is allowed.
	AllowedPrefix string

	// ExcludedSubpaths are subpath patterns to reject (e.g., "/edit", "/delete", "/new").
	// These prevent redirect loops back to action pages.
	ExcludedSubpaths []string

	// Fallback is the default URL if no valid return URL is found.
	Fallback string

	// PreserveQueryParam is an optional query parameter to preserve in the fallback URL.
	// For example, "city" would check for a city parameter and append it to the fallback.
	PreserveQueryParam string
}

// SafeBackURL extracts and validates a return URL from the request.
//
// It checks both the query parameter and form value for "return", validates
// the URL is safe (not an open redirect), optionally validates the prefix,
// and excludes specified subpaths to prevent redirect loops.
//
// Example usage:
//
//	url := navigation.SafeBackURL(r, navigation.WorkersBackURL)
func SafeBackURL(r *http.Request, opts BackURLOptions) string {
	// Try query parameter first, then form value
	ret := urlutil.SafeReturn(query.Get(r, "return"), "", "")
	if ret == "" {
		ret = urlutil.SafeReturn(strings.TrimSpace(r.FormValue("return")), "", "")
	}

	// Validate against allowed prefix if specified
	if ret != "" {
		valid := true

		if opts.AllowedPrefix != "" && !strings.HasPrefix(ret, opts.AllowedPrefix) {
			valid = false
		}

		// Check excluded subpaths
		for _, excluded := range opts.ExcludedSubpaths {
			if strings.Contains(ret, excluded) {
				valid = false
				break
			}
		}

		if valid {
			return ret
		}
	}

	// Build fallback URL, optionally preserving a query parameter
	fallback := opts.Fallback
	if opts.PreserveQueryParam != "" {
		param := query.Get(r, opts.PreserveQueryParam)
		if param == "" {
			param = strings.TrimSpace(r.FormValue(opts.PreserveQueryParam))
		}
		if param == "" {
			// Also check the id-suffixed form field, e.g. "cityID" for "city"
			param = strings.TrimSpace(r.FormValue(opts.PreserveQueryParam + "ID"))
		}
		if param != "" && param != "all" {
			if strings.Contains(fallback, "?") {
				fallback += "&" + opts.PreserveQueryParam + "=" + param
			} else {
				fallback += "?" + opts.PreserveQueryParam + "=" + param
			}
		}
	}

	return fallback
}

// IsActive reports whether a menu entry at href owns currentPath. "/" only
// matches itself; other entries match their own subtree.
func IsActive(currentPath, href string) bool {
	if href == "/" {
		return currentPath == "/"
	}
	if currentPath == href {
		return true
	}
	return strings.HasPrefix(currentPath, href+"/") && !hasMoreSpecific(currentPath, href)
}

// hasMoreSpecific keeps "/attendance" from lighting up on the history page,
// which has its own menu entry.
func hasMoreSpecific(currentPath, href string) bool {
	for _, p := range ownMenuEntries {
		if p != href && strings.HasPrefix(p, href+"/") && (currentPath == p || strings.HasPrefix(currentPath, p+"/")) {
			return true
		}
	}
	return false
}

var ownMenuEntries = []string{"/attendance/history"}

// Common back URL configurations for reuse across packages.
var (
	// WorkersBackURL returns options for worker pages.
	WorkersBackURL = BackURLOptions{
		AllowedPrefix:      "/workers",
		ExcludedSubpaths:   []string{"/edit", "/delete", "/new"},
		Fallback:           "/workers",
		PreserveQueryParam: "city",
	}

	// AreasBackURL returns options for area pages.
	AreasBackURL = BackURLOptions{
		AllowedPrefix:    "/areas",
		ExcludedSubpaths: []string{"/edit", "/delete", "/new"},
		Fallback:         "/areas",
	}

	// CitiesBackURL returns options for city pages.
	CitiesBackURL = BackURLOptions{
		AllowedPrefix:      "/cities",
		ExcludedSubpaths:   []string{"/edit", "/delete", "/new"},
		Fallback:           "/cities",
		PreserveQueryParam: "area",
	}

	// NeighborhoodsBackURL returns options for neighborhood pages.
	NeighborhoodsBackURL = BackURLOptions{
		AllowedPrefix:      "/neighborhoods",
		ExcludedSubpaths:   []string{"/edit", "/delete", "/new", "/supervisors"},
		Fallback:           "/neighborhoods",
		PreserveQueryParam: "city",
	}

	// UsersBackURL returns options for staff user pages.
	UsersBackURL = BackURLOptions{
		AllowedPrefix:      "/users",
		ExcludedSubpaths:   []string{"/edit", "/new", "/password"},
		Fallback:           "/users",
		PreserveQueryParam: "role",
	}

	// TasksBackURL returns options for task pages.
	TasksBackURL = BackURLOptions{
		AllowedPrefix:    "/tasks",
		ExcludedSubpaths: []string{"/new", "/complete"},
		Fallback:         "/tasks",
	}
)
