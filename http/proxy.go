package http

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ProxyType identifies the protocol spoken to a proxy.
type ProxyType int

// Proxy types, matching cURL's naming.
const (
	ProxyHTTP ProxyType = iota
	ProxyHTTPS
	ProxySOCKS4A
	ProxySOCKS5Hostname
)

// String returns the proxy type name
func (t ProxyType) String() string {
	switch t {
	case ProxyHTTP:
		return "HTTP"
	case ProxyHTTPS:
		return "HTTPS"
	case ProxySOCKS4A:
		return "SOCKS4A"
	case ProxySOCKS5Hostname:
		return "SOCKS5_HOSTNAME"
	default:
		return fmt.Sprintf("ProxyType(%d)", int(t))
	}
}

// URLScheme returns the scheme net/http expects for the proxy type.
func (t ProxyType) URLScheme() string {
	switch t {
	case ProxyHTTP:
		return "http"
	case ProxySOCKS4A:
		return "socks4a"
	case ProxySOCKS5Hostname:
		return "socks5"
	default:
		return "https"
	}
}

// ProxyTypeFor maps a descriptor scheme to a proxy type. Unknown or empty
// schemes map to ProxyHTTPS.
func ProxyTypeFor(scheme string) ProxyType {
	switch strings.ToLower(scheme) {
	case "http":
		return ProxyHTTP
	case "https":
		return ProxyHTTPS
	case "socks4":
		return ProxySOCKS4A
	case "socks5":
		return ProxySOCKS5Hostname
	default:
		return ProxyHTTPS
	}
}

// ProxyTarget is a parsed proxy descriptor.
type ProxyTarget struct {
	Scheme   string
	Username string
	Password string
	Host     string
	Port     int

	// Address is host:port as handed to the transport. In manual mode it is
	// the caller's input verbatim.
	Address string
	Type    ProxyType
}

// HasAuth reports whether both credentials are present.
func (p *ProxyTarget) HasAuth() bool {
	return p.Username != "" && p.Password != ""
}

// String renders the target back into descriptor form without the password.
func (p *ProxyTarget) String() string {
	var sb strings.Builder
	if p.Scheme != "" {
		sb.WriteString(p.Scheme)
		sb.WriteString("://")
	}
	if p.Username != "" {
		sb.WriteString(p.Username)
		if p.Password != "" {
			sb.WriteString(":***")
		}
		sb.WriteString("@")
	}
	sb.WriteString(p.Address)
	return sb.String()
}

// Host validation happens in code since RE2 has no lookahead.
var proxyPattern = regexp.MustCompile(
	`^(?:((?i:https?|socks[45]))://)?(?:(\w+)(?::(\w*))?@)?([A-Za-z0-9.\-]+):(\d{1,5})$`,
)

var (
	ipv4Pattern     = regexp.MustCompile(`^\d{1,3}(?:\.\d{1,3}){3}$`)
	dnsLabelPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9\-]{0,61}[A-Za-z0-9])?$`)
	tldPattern      = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]{0,62}$`)
)

// ParseProxy parses a descriptor of the form
// [scheme://][user[:pass]@]host:port.
func ParseProxy(descriptor string) (*ProxyTarget, error) {
	if descriptor == "" {
		return nil, fmt.Errorf("%w: empty proxy descriptor", ErrParse)
	}

	m := proxyPattern.FindStringSubmatch(descriptor)
	if m == nil {
		return nil, fmt.Errorf("%w: proxy descriptor %q does not match [scheme://][user[:pass]@]host:port", ErrParse, descriptor)
	}

	scheme, user, pass, host, portStr := strings.ToLower(m[1]), m[2], m[3], m[4], m[5]
	if host == "" || portStr == "" {
		return nil, fmt.Errorf("%w: proxy descriptor %q is missing host or port", ErrParse, descriptor)
	}
	if !validProxyHost(host) {
		return nil, fmt.Errorf("%w: invalid proxy host %q", ErrParse, host)
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid proxy port %q", ErrParse, portStr)
	}

	return &ProxyTarget{
		Scheme:   scheme,
		Username: user,
		Password: pass,
		Host:     host,
		Port:     port,
		Address:  host + ":" + portStr,
		Type:     ProxyTypeFor(scheme),
	}, nil
}

// ManualProxy builds a target from a host and a literal port without any
// structural validation, for addresses the descriptor grammar rejects.
func ManualProxy(host, port string) *ProxyTarget {
	p, _ := strconv.Atoi(port)
	return &ProxyTarget{
		Host:    host,
		Port:    p,
		Address: host + ":" + port,
		Type:    ProxyHTTP,
	}
}

func validProxyHost(host string) bool {
	if ipv4Pattern.MatchString(host) {
		return true
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 || len(labels) > 127 {
		return false
	}
	last := len(labels) - 1
	for i, label := range labels {
		if i == last {
			if !tldPattern.MatchString(label) {
				return false
			}
			continue
		}
		if !dnsLabelPattern.MatchString(label) {
			return false
		}
	}
	return true
}
