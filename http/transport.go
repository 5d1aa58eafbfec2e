package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// defaultMaxRedirects matches net/http's own limit.
const defaultMaxRedirects = 10

// Transport performs the network exchange for a RequestSpec. It never
// fails outright: problems are reported through Metadata.Err alongside
// whatever was received.
type Transport interface {
	Execute(ctx context.Context, spec *RequestSpec) RawResponse
}

// TransportFunc adapts a function to the Transport interface
type TransportFunc func(ctx context.Context, spec *RequestSpec) RawResponse

// Execute calls f
func (f TransportFunc) Execute(ctx context.Context, spec *RequestSpec) RawResponse {
	return f(ctx, spec)
}

// RawResponse is what a Transport hands back.
type RawResponse struct {
	// Raw holds the header sections of every hop followed by the final body.
	Raw []byte
	// HeaderSize is the length of the header portion of Raw.
	HeaderSize int
	Metadata   Metadata
	// Handle is released by the Builder once parsing is done. May be nil.
	Handle io.Closer
}

// Metadata describes the exchange as seen by the transport.
type Metadata struct {
	StatusCode   int
	EffectiveURL string
	TotalTime    time.Duration
	Timing       TimingInfo
	// Err is the transport failure message, empty on success.
	Err string
}

// TimingInfo contains detailed timing information for an HTTP request
type TimingInfo struct {
	DNSLookupTime       time.Duration
	TCPConnectTime      time.Duration
	TLSHandshakeTime    time.Duration
	TimeToFirstByte     time.Duration
	ContentTransferTime time.Duration
	TotalTime           time.Duration
	StartTime           time.Time
}

// NetTransport executes requests with net/http. Every execution gets its
// own http.Transport so proxy and TLS settings never leak between builders.
type NetTransport struct {
	// Base is cloned for each execution. Nil means http.DefaultTransport.
	Base *http.Transport
}

// NewNetTransport creates a NetTransport using http.DefaultTransport as base
func NewNetTransport() *NetTransport {
	return &NetTransport{}
}

type idleCloser struct {
	t *http.Transport
}

func (c idleCloser) Close() error {
	c.t.CloseIdleConnections()
	return nil
}

// Execute runs the exchange described by spec.
func (t *NetTransport) Execute(ctx context.Context, spec *RequestSpec) RawResponse {
	var out RawResponse
	opts := spec.Options

	rt, err := t.roundTripper(opts)
	if err != nil {
		out.Metadata.Err = err.Error()
		out.Metadata.EffectiveURL = spec.URL
		return out
	}
	out.Handle = idleCloser{rt}

	recorder := &hopRecorder{next: rt}
	client := &http.Client{
		Transport:     recorder,
		Timeout:       opts.Timeout,
		CheckRedirect: redirectPolicy(opts),
	}

	var store *CookieFile
	if opts.CookieFile != "" || opts.CookieJar != "" {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			out.Metadata.Err = err.Error()
			return out
		}
		client.Jar = jar
		store = NewCookieFile()
		if opts.CookieFile != "" {
			if err := store.Load(opts.CookieFile); err != nil && !errors.Is(err, errCookieFileMissing) {
				out.Metadata.Err = err.Error()
				return out
			}
			store.Apply(jar)
		}
	}

	req, err := buildRequest(ctx, spec)
	if err != nil {
		out.Metadata.Err = err.Error()
		out.Metadata.EffectiveURL = spec.URL
		return out
	}

	timing, traceCtx := traceTiming(req.Context())
	req = req.WithContext(traceCtx)

	resp, err := client.Do(req)
	timing.TotalTime = time.Since(timing.StartTime)

	var headerBuf bytes.Buffer
	for _, hop := range recorder.hops {
		headerBuf.WriteString(hop)
	}
	out.HeaderSize = headerBuf.Len()
	jarErr := saveJar(store, opts.CookieJar, recorder)

	if err != nil {
		out.Raw = headerBuf.Bytes()
		out.Metadata.Err = err.Error()
		out.Metadata.EffectiveURL = spec.URL
		if recorder.last != nil {
			out.Metadata.StatusCode = recorder.last.StatusCode
			out.Metadata.EffectiveURL = recorder.last.Request.URL.String()
		}
		out.Metadata.TotalTime = timing.TotalTime
		out.Metadata.Timing = *timing
		return out
	}

	transferStart := time.Now()
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	timing.ContentTransferTime = time.Since(transferStart)
	timing.TotalTime = time.Since(timing.StartTime)

	headerBuf.Write(body)
	out.Raw = headerBuf.Bytes()
	out.Metadata.StatusCode = resp.StatusCode
	out.Metadata.EffectiveURL = resp.Request.URL.String()
	out.Metadata.TotalTime = timing.TotalTime
	out.Metadata.Timing = *timing
	switch {
	case readErr != nil:
		out.Metadata.Err = readErr.Error()
	case jarErr != nil:
		out.Metadata.Err = jarErr.Error()
	}

	return out
}

// saveJar writes the cookies of every recorded hop to the jar file, also
// when the exchange failed part way.
func saveJar(store *CookieFile, path string, recorder *hopRecorder) error {
	if store == nil || path == "" {
		return nil
	}
	for i, u := range recorder.urls {
		store.Add(u, recorder.cookies[i])
	}
	return store.Save(path)
}

func (t *NetTransport) roundTripper(opts Options) (*http.Transport, error) {
	var rt *http.Transport
	if t.Base != nil {
		rt = t.Base.Clone()
	} else {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	if opts.ConnectTimeout > 0 {
		dialer := &net.Dialer{Timeout: opts.ConnectTimeout, KeepAlive: 30 * time.Second}
		rt.DialContext = dialer.DialContext
		rt.TLSHandshakeTimeout = opts.ConnectTimeout
	}
	if opts.MaxConnections > 0 {
		rt.MaxConnsPerHost = opts.MaxConnections
	}
	if opts.InsecureSkipVerify {
		if rt.TLSClientConfig == nil {
			rt.TLSClientConfig = &tls.Config{}
		}
		rt.TLSClientConfig.InsecureSkipVerify = true
	}

	if p := opts.Proxy; p != nil {
		proxyURL, err := proxyURL(p)
		if err != nil {
			return nil, err
		}
		rt.Proxy = http.ProxyURL(proxyURL)
	}

	return rt, nil
}

func proxyURL(p *ProxyTarget) (*url.URL, error) {
	if p.Type == ProxySOCKS4A {
		return nil, fmt.Errorf("proxy type %s is not supported by the net/http transport", p.Type)
	}
	u := &url.URL{Scheme: p.Type.URLScheme(), Host: p.Address}
	if p.Username != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.Username, p.Password)
		} else {
			u.User = url.User(p.Username)
		}
	}
	return u, nil
}

func redirectPolicy(opts Options) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !opts.FollowRedirects {
			return http.ErrUseLastResponse
		}
		max := opts.MaxRedirects
		if max <= 0 {
			max = defaultMaxRedirects
		}
		if len(via) > max {
			return fmt.Errorf("maximum (%d) redirects followed", max)
		}
		if opts.AutoReferer && len(via) > 0 {
			req.Header.Set("Referer", via[len(via)-1].URL.String())
		}
		return nil
	}
}

func buildRequest(ctx context.Context, spec *RequestSpec) (*http.Request, error) {
	var body io.Reader
	if spec.HasBody {
		body = strings.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method.String(), spec.URL, body)
	if err != nil {
		return nil, err
	}

	for _, line := range spec.HeaderLines() {
		if line[0] == "" {
			continue
		}
		if strings.EqualFold(line[0], "Host") {
			req.Host = line[1]
			continue
		}
		req.Header.Add(line[0], line[1])
	}

	if spec.HasBody {
		if _, ok := headerValue(spec.Headers, "Content-Type"); !ok {
			ct := spec.BodyEncoding.ContentType()
			if ct == "" && spec.Method == MethodPost {
				ct = EncodingQuery.ContentType()
			}
			if ct != "" {
				req.Header.Set("Content-Type", ct)
			}
		}
	}
	if spec.Options.Referer != "" && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", spec.Options.Referer)
	}

	return req, nil
}

// hopRecorder records the status line and header of every response that
// passes through, which with redirects enabled is one per hop.
type hopRecorder struct {
	next http.RoundTripper
	hops []string
	urls    []*url.URL
	cookies [][]*http.Cookie
	last    *http.Response
}

func (h *hopRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := h.next.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	h.last = resp
	h.urls = append(h.urls, req.URL)
	h.cookies = append(h.cookies, resp.Cookies())
	h.hops = append(h.hops, formatHeaderSection(resp))
	return resp, nil
}

func formatHeaderSection(resp *http.Response) string {
	var sb strings.Builder
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	fmt.Fprintf(&sb, "%s %s\r\n", proto, status)
	resp.Header.Write(&sb)
	sb.WriteString("\r\n")
	return sb.String()
}

// traceTiming attaches an httptrace.ClientTrace that fills the returned
// TimingInfo while the request runs.
func traceTiming(ctx context.Context) (*TimingInfo, context.Context) {
	timing := &TimingInfo{
		StartTime: time.Now(),
	}

	var dnsStart, connectStart, tlsHandshakeStart time.Time
	var dnsDone, connectDone bool
	lastPhaseEnd := timing.StartTime

	trace := &httptrace.ClientTrace{
		DNSStart: func(info httptrace.DNSStartInfo) {
			dnsStart = time.Now()
		},
		DNSDone: func(info httptrace.DNSDoneInfo) {
			dnsEnd := time.Now()
			timing.DNSLookupTime = dnsEnd.Sub(dnsStart)
			dnsDone = true
			lastPhaseEnd = dnsEnd
		},
		ConnectStart: func(network, addr string) {
			connectStart = time.Now()
		},
		ConnectDone: func(network, addr string, err error) {
			if err == nil {
				connectEnd := time.Now()
				timing.TCPConnectTime = connectEnd.Sub(connectStart)
				connectDone = true
				lastPhaseEnd = connectEnd
			}
		},
		TLSHandshakeStart: func() {
			if connectDone || dnsDone {
				tlsHandshakeStart = time.Now()
			}
		},
		TLSHandshakeDone: func(state tls.ConnectionState, err error) {
			if err == nil && !tlsHandshakeStart.IsZero() {
				tlsHandshakeEnd := time.Now()
				timing.TLSHandshakeTime = tlsHandshakeEnd.Sub(tlsHandshakeStart)
				lastPhaseEnd = tlsHandshakeEnd
			}
		},
		GotFirstResponseByte: func() {
			timing.TimeToFirstByte = time.Since(lastPhaseEnd)
		},
	}

	return timing, httptrace.WithClientTrace(ctx, trace)
}
