// Package between extracts substrings enclosed by a pair of delimiters.
//
// Matches are found left to right from a caller-owned offset, so repeated
// calls walk forward through the source. An empty span between the
// delimiters counts as no match.
package between

import "strings"

// GetBetween returns the first non-empty span enclosed by start and end at
// or after *offset. On a match *offset is advanced past the closing
// delimiter when includeDelimiters is true, and only past the leading
// delimiter when it is false, so a start marker nested inside the span is
// found by the next call. It returns false when any of start, end or
// source is empty, when either delimiter is missing, or when the span is
// empty.
func GetBetween(start, end, source string, includeDelimiters bool, offset *int) (string, bool) {
	if source == "" || start == "" || end == "" {
		return "", false
	}

	pos := 0
	if offset != nil {
		pos = *offset
	}
	if pos < 0 {
		pos = 0
	}
	if pos >= len(source) {
		return "", false
	}

	i := strings.Index(source[pos:], start)
	if i < 0 {
		return "", false
	}
	startAt := pos + i
	afterStart := startAt + len(start)

	j := strings.Index(source[afterStart:], end)
	if j < 0 {
		return "", false
	}
	endAt := afterStart + j

	var span string
	var next int
	if includeDelimiters {
		span = source[startAt : endAt+len(end)]
		next = endAt + len(end)
	} else {
		span = source[afterStart:endAt]
		next = afterStart
	}
	if endAt == afterStart {
		// Empty-but-present match. Step over it so scanning still moves on.
		if offset != nil {
			*offset = afterStart
		}
		return "", false
	}

	if offset != nil {
		*offset = next
	}
	return span, true
}

// GetBetweens returns every span enclosed by start and end, in order.
func GetBetweens(start, end, source string, includeDelimiters bool) []string {
	return NewScanner(start, end, source, includeDelimiters).All()
}

// Scanner walks a source string returning successive delimited spans.
// Reset rewinds it so the same sequence can be produced again.
type Scanner struct {
	start, end        string
	source            string
	includeDelimiters bool
	offset            int
}

// NewScanner creates a Scanner positioned at the start of source.
func NewScanner(start, end, source string, includeDelimiters bool) *Scanner {
	return &Scanner{
		start:             start,
		end:               end,
		source:            source,
		includeDelimiters: includeDelimiters,
	}
}

// Next returns the next span. Empty-but-present spans are skipped.
func (s *Scanner) Next() (string, bool) {
	for s.offset < len(s.source) {
		before := s.offset
		span, ok := GetBetween(s.start, s.end, s.source, s.includeDelimiters, &s.offset)
		if ok {
			return span, true
		}
		if s.offset == before {
			// nothing further in the source
			s.offset = len(s.source)
		}
	}
	return "", false
}

// All returns the remaining spans.
func (s *Scanner) All() []string {
	var spans []string
	for {
		span, ok := s.Next()
		if !ok {
			return spans
		}
		spans = append(spans, span)
	}
}

// Offset reports the current cursor position.
func (s *Scanner) Offset() int {
	return s.offset
}

// Reset rewinds the cursor to the beginning of the source.
func (s *Scanner) Reset() {
	s.offset = 0
}
