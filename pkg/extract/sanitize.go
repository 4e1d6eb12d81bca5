package extract

import (
	"regexp"
	"strings"
)

var (
	fenceRX = regexp.MustCompile("```(?i:json)?")

	quoteReplacer = strings.NewReplacer(
		"“", `"`,
		"”", `"`,
		"‘", "'",
		"’", "'",
	)
)

// Sanitize cleans a raw model response so it has a chance of being decoded as JSON.
// It never fails; clean input passes through unchanged, and Sanitize(Sanitize(s)) == Sanitize(s).
func Sanitize(raw string) string {
	s := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(raw), "\ufeff"))
	s = stripReasoning(s)

	s = fenceRX.ReplaceAllString(s, "")
	s = quoteReplacer.Replace(s)

	if start := strings.IndexAny(s, "{["); start > 0 {
		s = s[start:]
	}

	return strings.TrimSpace(flattenStringNewlines(s))
}

// stripReasoning drops the chain of thought reasoning models prepend. The block
// is only recognized when it opens the response or closes before any JSON
// container starts, so a "</think>" inside a string value is left alone.
func stripReasoning(s string) string {
	end := strings.Index(s, "</think>")
	if end == -1 {
		return s
	}
	if !strings.HasPrefix(s, "<think>") {
		if start := strings.IndexAny(s, "{["); start != -1 && start < end {
			return s
		}
	}
	return strings.TrimSpace(s[end+len("</think>"):])
}

// flattenStringNewlines replaces literal line breaks found inside JSON string
// literals with a single space. A CRLF pair counts as one break.
func flattenStringNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}

		switch {
		case escaped:
			escaped = false
			switch c {
			case '\n':
				c = 'n'
			case '\r':
				c = 'r'
			}
			b.WriteByte(c)
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			inString = false
			b.WriteByte(c)
		case c == '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			b.WriteByte(' ')
		case c == '\n':
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
