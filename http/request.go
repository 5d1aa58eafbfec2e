package http

import (
	"strings"
	"time"
)

// RequestSpec is the request handed to a Transport.
type RequestSpec struct {
	Method Method
	URL    string
	// Headers are raw "Name: value" lines in the order they were added.
	// Repeated names are kept as separate entries.
	Headers      []string
	Body         string
	HasBody      bool
	BodyEncoding Encoding
	Options      Options
}

// Options are passed through to the Transport untouched by the core.
type Options struct {
	Timeout            time.Duration
	ConnectTimeout     time.Duration
	FollowRedirects    bool
	MaxRedirects       int
	MaxConnections     int
	Referer            string
	AutoReferer        bool
	CookieFile         string
	CookieJar          string
	Proxy              *ProxyTarget
	InsecureSkipVerify bool
	Debug              bool
}

// HeaderLines returns each header line split into name and value. A bare
// token without a colon yields an empty value.
func (r *RequestSpec) HeaderLines() [][2]string {
	lines := make([][2]string, 0, len(r.Headers))
	for _, h := range r.Headers {
		name, value, _ := strings.Cut(h, ":")
		lines = append(lines, [2]string{strings.TrimSpace(name), strings.TrimSpace(value)})
	}
	return lines
}

// HasHeader reports whether a header with the given name was set, ignoring case.
func (r *RequestSpec) HasHeader(name string) bool {
	for _, line := range r.HeaderLines() {
		if strings.EqualFold(line[0], name) {
			return true
		}
	}
	return false
}
