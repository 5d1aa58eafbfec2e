package http

import (
	"regexp"
	"strings"
)

var (
	spaceAfterTag  = regexp.MustCompile(`>[\t\n\v\f\r]+`)
	spaceBeforeTag = regexp.MustCompile(`[\t\n\v\f\r]+<`)
	whitespaceRun  = regexp.MustCompile(`\s{2,}`)
	preformatted   = regexp.MustCompile(`(?is)<(?:pre|textarea)\b.*?</(?:pre|textarea)>`)
)

// CompactHTML strips line breaks around tags and collapses whitespace runs.
// Line breaks inside <pre> and <textarea> are preserved.
func CompactHTML(s string) string {
	s = spaceAfterTag.ReplaceAllString(s, ">")
	s = spaceBeforeTag.ReplaceAllString(s, "<")
	s = whitespaceRun.ReplaceAllStringFunc(s, func(run string) string {
		return run[len(run)-1:]
	})

	var sb strings.Builder
	last := 0
	for _, loc := range preformatted.FindAllStringIndex(s, -1) {
		sb.WriteString(flattenBreaks(s[last:loc[0]]))
		sb.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	sb.WriteString(flattenBreaks(s[last:]))
	return sb.String()
}

func flattenBreaks(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\v', '\f', '\r':
			return ' '
		}
		return r
	}, s)
}
