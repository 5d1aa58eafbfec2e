package http

import (
	"regexp"
	"strconv"
	"strings"
)

// HeaderBlock is the parsed header section of one hop.
type HeaderBlock struct {
	// ResponseCode is taken from the hop's status line, 0 if it had none.
	ResponseCode int
	// Fields maps trimmed, case-sensitive field names to trimmed values.
	// A later field with the same name in the same block wins.
	Fields map[string]string
	// Cookies maps cookie names to values from Set-Cookie lines.
	Cookies map[string]string
}

var statusLinePattern = regexp.MustCompile(`^HTTP/[\d.]+\s+(\d+)`)

// ParseHeaderBlocks splits a raw header section into one block per hop, in
// the order the hops were received. A new block starts at every line that
// begins with "HTTP/".
func ParseHeaderBlocks(raw string) []HeaderBlock {
	segments := splitHops(strings.TrimSpace(raw))
	blocks := make([]HeaderBlock, 0, len(segments))
	for _, segment := range segments {
		blocks = append(blocks, parseBlock(segment))
	}
	return blocks
}

func splitHops(raw string) []string {
	if raw == "" {
		return nil
	}

	var segments []string
	var current []string
	for _, line := range strings.Split(raw, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "HTTP/") && len(current) > 0 {
			segments = appendSegment(segments, current)
			current = nil
		}
		current = append(current, line)
	}
	return appendSegment(segments, current)
}

func appendSegment(segments []string, lines []string) []string {
	segment := strings.TrimSpace(strings.Join(lines, "\n"))
	if segment == "" {
		return segments
	}
	return append(segments, segment)
}

func parseBlock(segment string) HeaderBlock {
	block := HeaderBlock{
		Fields:  make(map[string]string),
		Cookies: make(map[string]string),
	}

	for _, line := range strings.Split(segment, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name, value, found := strings.Cut(line, ":")
		if !found {
			if m := statusLinePattern.FindStringSubmatch(line); m != nil {
				block.ResponseCode, _ = strconv.Atoi(m[1])
			}
			continue
		}

		name = strings.TrimSpace(name)
		if strings.ToLower(name) == "set-cookie" {
			if cookieName, cookieValue, ok := ParseSetCookie(value); ok {
				block.Cookies[cookieName] = cookieValue
			}
			continue
		}
		block.Fields[name] = strings.TrimSpace(value)
	}

	return block
}

// ParseSetCookie extracts the name and value from a Set-Cookie header
// value. Attributes after the first ';' are ignored and the ';' itself is
// optional. Lines with no '=' before the first ';' or with an empty name are
// rejected.
func ParseSetCookie(value string) (name, cookieValue string, ok bool) {
	pair := strings.TrimSpace(value)
	if i := strings.IndexByte(pair, ';'); i >= 0 {
		pair = pair[:i]
	}
	name, cookieValue, found := strings.Cut(pair, "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(cookieValue), true
}
