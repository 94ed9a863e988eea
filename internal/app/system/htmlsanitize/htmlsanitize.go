// Package htmlsanitize cleans the HTML bodies of report templates before
// they are stored. Report layouts need tables, headings and inline
// alignment; scripts, frames, forms, event handlers and non-http URLs are
// removed.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	p.AllowElements("u", "s", "sub", "sup", "mark", "span", "div")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")
	p.AllowAttrs("class").OnElements("table", "thead", "tbody", "tfoot", "tr", "td", "th", "p", "span", "div")

	p.AllowStyles(
		"text-align", "vertical-align", "width", "height",
		"font-weight", "font-style", "text-decoration",
		"border", "border-collapse", "padding", "margin",
	).OnElements("table", "thead", "tbody", "tr", "td", "th", "p", "span", "div",
		"h1", "h2", "h3", "h4", "h5", "h6")

	return p
}

// Sanitize returns s with everything outside the report policy removed.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return policy.Sanitize(s)
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.Contains(s, "<") || !strings.Contains(s, ">")
}

// PlainTextToHTML escapes s and wraps it in a paragraph, turning newlines
// into line breaks.
func PlainTextToHTML(s string) string {
	if s == "" {
		return ""
	}
	escaped := html.EscapeString(s)
	return "<p>" + strings.ReplaceAll(escaped, "\n", "<br>") + "</p>"
}

// Prepare converts plain text to HTML, or sanitizes existing HTML.
// Template bodies go through it before every save.
func Prepare(s string) string {
	if s == "" {
		return ""
	}
	if IsPlainText(s) {
		return PlainTextToHTML(s)
	}
	return Sanitize(s)
}
