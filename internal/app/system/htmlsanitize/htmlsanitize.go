// Package htmlsanitize cleans user-authored HTML for wiki pages.
package htmlsanitize

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("u", "s", "mark", "sub", "sup")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tr", "th", "td", "p", "div", "span", "pre", "code")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("th", "td")
	p.AllowAttrs("dir").Matching(regexp.MustCompile(`^(rtl|ltr|auto)$`)).Globally()
	return p
}

// Sanitize strips scripts, event handlers and unsafe URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// SanitizeToHTML sanitizes s for direct use in templates.
func SanitizeToHTML(s string) template.HTML {
	return template.HTML(Sanitize(s))
}

var tagRe = regexp.MustCompile(`<[a-zA-Z/][^>]*>`)

// IsPlainText reports whether s contains no HTML tags.
func IsPlainText(s string) bool {
	return !tagRe.MatchString(s)
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into <br>.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return "<p>" + strings.ReplaceAll(html.EscapeString(s), "\n", "<br>") + "</p>"
}

// PrepareBody returns sanitized HTML for a stored body, treating plain text
// bodies as paragraphs.
func PrepareBody(s string) template.HTML {
	if IsPlainText(s) {
		return template.HTML(PlainTextToHTML(s))
	}
	return SanitizeToHTML(s)
}
