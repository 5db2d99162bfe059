package inputval

import (
	"strings"
	"time"
)

// IsValidEmail reports whether s is a bare address (no display name) with
// a dot-atom local part and a domain of one or more labels.
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.Count(s, "@") != 1 {
		return false
	}
	local, domain := s[:at], s[at+1:]
	if !dotAtom(local, isLocalChar) {
		return false
	}
	return dotAtom(domain, isDomainChar)
}

func dotAtom(s string, ok func(r rune) bool) bool {
	if s == "" || s[0] == '.' || s[len(s)-1] == '.' || strings.Contains(s, "..") {
		return false
	}
	for _, r := range s {
		if r != '.' && !ok(r) {
			return false
		}
	}
	return true
}

func isLocalChar(r rune) bool {
	return isAlnum(r) || strings.ContainsRune("!#$%&'*+/=?^_`{|}~-", r)
}

func isDomainChar(r rune) bool {
	return isAlnum(r) || r == '-'
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// IsValidPhone accepts 9 to 15 digits with optional leading '+' and
// separators (space, dash, parentheses).
func IsValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := 0
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 9 && digits <= 15
}

// IsValidDate reports whether s is a YYYY-MM-DD calendar date.
func IsValidDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}
