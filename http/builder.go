package http

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is the position of a Builder in its request lifecycle.
type State int

// Builder states.
const (
	StateEmpty State = iota
	StateMethodSet
	StateConfigured
	StateExecuted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateMethodSet:
		return "method-set"
	case StateConfigured:
		return "configured"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Builder assembles a RequestSpec, executes it through a Transport and
// keeps the parsed Response.
//
// A Builder is owned by a single goroutine. Independent builders share no
// state and may run concurrently.
type Builder struct {
	transport      Transport
	logger         zerolog.Logger
	options        Options
	defaultHeaders []string

	spec      RequestSpec
	methodSet bool
	state     State
	response  *Response
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithTransport sets the transport used by Execute. The default is a
// NetTransport.
func WithTransport(t Transport) BuilderOption {
	return func(b *Builder) {
		b.transport = t
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(logger zerolog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = logger
	}
}

// WithOptions sets the initial transport options
func WithOptions(opts Options) BuilderOption {
	return func(b *Builder) {
		b.options = opts
	}
}

// WithDefaultHeaders adds header lines that every request starts with
func WithDefaultHeaders(headers ...string) BuilderOption {
	return func(b *Builder) {
		b.defaultHeaders = append(b.defaultHeaders, headers...)
	}
}

// NewBuilder creates a Builder in the empty state.
func NewBuilder(options ...BuilderOption) *Builder {
	b := &Builder{
		logger: zerolog.Nop(),
	}
	for _, option := range options {
		option(b)
	}
	if b.transport == nil {
		b.transport = NewNetTransport()
	}
	b.Reset()
	return b
}

// Reset discards the request and the last response. Transport options set
// through the option setters are kept.
func (b *Builder) Reset() *Builder {
	b.spec = RequestSpec{
		Headers: append([]string(nil), b.defaultHeaders...),
	}
	b.methodSet = false
	b.state = StateEmpty
	b.response = nil
	return b
}

// State returns the current lifecycle state
func (b *Builder) State() State {
	return b.state
}

// Spec returns a copy of the request assembled so far.
func (b *Builder) Spec() RequestSpec {
	spec := b.spec
	spec.Headers = append([]string(nil), b.spec.Headers...)
	spec.Options = b.options
	return spec
}

// Response returns the response of the last execution, or nil.
func (b *Builder) Response() *Response {
	return b.response
}

func (b *Builder) checkMutable() error {
	if b.state == StateExecuted {
		return fmt.Errorf("%w: request already executed, call Reset first", ErrConfiguration)
	}
	return nil
}

func (b *Builder) touch() {
	if b.methodSet {
		b.state = StateConfigured
	}
}

// SetMethod sets the request method. It may be set only once per request.
func (b *Builder) SetMethod(method string) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if b.methodSet {
		return fmt.Errorf("%w: request method is already set to %s", ErrConfiguration, b.spec.Method)
	}
	m, _, err := LookupMethod(method)
	if err != nil {
		return err
	}
	b.spec.Method = m
	b.methodSet = true
	b.state = StateMethodSet
	return nil
}

// SetURL sets the request URL
func (b *Builder) SetURL(url string) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	b.spec.URL = url
	b.touch()
	return nil
}

// SetHeader appends a header line. With no value the name is sent as a
// bare token; with several values one line is added per value.
func (b *Builder) SetHeader(name string, values ...string) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if len(values) == 0 {
		b.spec.Headers = append(b.spec.Headers, name)
	}
	for _, v := range values {
		b.spec.Headers = append(b.spec.Headers, name+": "+v)
	}
	b.touch()
	return nil
}

// SetHeaders appends headers given as a raw line, a slice of raw lines, a
// name to value mapping or an http.Header. Nothing is deduplicated.
func (b *Builder) SetHeaders(headers interface{}) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	lines, err := headerLines(headers)
	if err != nil {
		return err
	}
	b.spec.Headers = append(b.spec.Headers, lines...)
	b.touch()
	return nil
}

func headerLines(headers interface{}) ([]string, error) {
	switch h := headers.(type) {
	case string:
		return []string{h}, nil
	case []string:
		return append([]string(nil), h...), nil
	case map[string]string:
		lines := make([]string, 0, len(h))
		for _, k := range sortedKeys(h) {
			lines = append(lines, k+": "+h[k])
		}
		return lines, nil
	case http.Header:
		keys := make([]string, 0, len(h))
		for k := range h {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var lines []string
		for _, k := range keys {
			for _, v := range h[k] {
				lines = append(lines, k+": "+v)
			}
		}
		return lines, nil
	default:
		return nil, fmt.Errorf("%w: header argument of type %T is not valid", ErrConfiguration, headers)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SetBody encodes and sets the request body. It fails when no method is
// set, when the method does not accept a body, or when a body is already
// set.
func (b *Builder) SetBody(body interface{}, enc Encoding) error {
	if err := b.checkMutable(); err != nil {
		return err
	}
	if !b.methodSet {
		return fmt.Errorf("%w: request method must be set before the body", ErrConfiguration)
	}
	if !b.spec.Method.AcceptsBody() {
		return fmt.Errorf("%w: method %s does not support a request body", ErrConfiguration, b.spec.Method)
	}
	if b.spec.HasBody {
		return fmt.Errorf("%w: request body is already set", ErrConfiguration)
	}

	encoded, used, err := Encode(body, enc)
	if err != nil {
		return err
	}
	b.spec.Body = encoded
	b.spec.HasBody = true
	b.spec.BodyEncoding = used
	b.touch()
	return nil
}

// SetTimeout limits the whole exchange
func (b *Builder) SetTimeout(d time.Duration) *Builder {
	b.options.Timeout = d
	return b
}

// SetConnectTimeout limits connection establishment
func (b *Builder) SetConnectTimeout(d time.Duration) *Builder {
	b.options.ConnectTimeout = d
	return b
}

// SetFollow enables or disables following redirects
func (b *Builder) SetFollow(follow bool) *Builder {
	b.options.FollowRedirects = follow
	return b
}

// SetMaxRedirects caps the number of redirects followed. Zero means the
// transport default.
func (b *Builder) SetMaxRedirects(n int) *Builder {
	b.options.MaxRedirects = n
	return b
}

// SetMaxConnections caps connections per host
func (b *Builder) SetMaxConnections(n int) *Builder {
	b.options.MaxConnections = n
	return b
}

// SetReferer sets the Referer sent with the first hop
func (b *Builder) SetReferer(referer string) *Builder {
	b.options.Referer = referer
	return b
}

// SetAutoReferer sets Referer to the previous URL on each followed redirect
func (b *Builder) SetAutoReferer(auto bool) *Builder {
	b.options.AutoReferer = auto
	return b
}

// SetCookieFile loads cookies from a Netscape cookie file before sending
func (b *Builder) SetCookieFile(path string) *Builder {
	b.options.CookieFile = path
	return b
}

// SetCookieJar saves received cookies to a Netscape cookie file
func (b *Builder) SetCookieJar(path string) *Builder {
	b.options.CookieJar = path
	return b
}

// SetInsecure disables TLS certificate verification
func (b *Builder) SetInsecure(insecure bool) *Builder {
	b.options.InsecureSkipVerify = insecure
	return b
}

// SetDebug logs each execution at debug level
func (b *Builder) SetDebug(debug bool) *Builder {
	b.options.Debug = debug
	return b
}

// SetProxy parses a proxy descriptor and routes requests through it.
// Credentials in the descriptor are used only when both user and password
// are present.
func (b *Builder) SetProxy(descriptor string) error {
	target, err := ParseProxy(descriptor)
	if err != nil {
		return err
	}
	if !target.HasAuth() {
		target.Username, target.Password = "", ""
	}
	b.options.Proxy = target
	return nil
}

// SetProxyHostPort routes requests through host:port without validating
// either part.
func (b *Builder) SetProxyHostPort(host, port string) *Builder {
	b.options.Proxy = ManualProxy(host, port)
	return b
}

// SetProxyType overrides the protocol used with the configured proxy
func (b *Builder) SetProxyType(t ProxyType) error {
	if b.options.Proxy == nil {
		return fmt.Errorf("%w: no proxy configured", ErrConfiguration)
	}
	b.options.Proxy.Type = t
	return nil
}

// SetProxyAuth sets proxy credentials
func (b *Builder) SetProxyAuth(username, password string) error {
	if b.options.Proxy == nil {
		return fmt.Errorf("%w: no proxy configured", ErrConfiguration)
	}
	b.options.Proxy.Username = username
	b.options.Proxy.Password = password
	return nil
}

// TransportOptions returns the current transport options
func (b *Builder) TransportOptions() Options {
	return b.options
}

// Execute sends the assembled request and parses the result. Transport
// failures do not make Execute fail; they are recorded on the returned
// Response.
func (b *Builder) Execute(ctx context.Context) (*Response, error) {
	if err := b.checkMutable(); err != nil {
		return nil, err
	}
	if !b.methodSet {
		return nil, fmt.Errorf("%w: request method is not set", ErrConfiguration)
	}
	if b.spec.URL == "" {
		return nil, fmt.Errorf("%w: request URL is not set", ErrConfiguration)
	}

	spec := b.Spec()
	logger := b.logger.With().
		Str("request_id", uuid.NewString()).
		Str("method", spec.Method.String()).
		Str("url", spec.URL).
		Logger()

	if spec.Options.Debug {
		event := logger.Debug().Strs("headers", spec.Headers)
		if spec.HasBody {
			event = event.Str("encoding", spec.BodyEncoding.String()).Int("body_bytes", len(spec.Body))
		}
		if spec.Options.Proxy != nil {
			event = event.Str("proxy", spec.Options.Proxy.String())
		}
		event.Msg("executing request")
	}

	raw := b.transport.Execute(ctx, &spec)
	defer func() {
		if raw.Handle == nil {
			return
		}
		if err := raw.Handle.Close(); err != nil {
			logger.Warn().Err(err).Msg("releasing transport handle")
		}
	}()

	resp := newResponse(&spec, raw)
	b.response = resp
	b.state = StateExecuted

	if spec.Options.Debug {
		event := logger.Debug().
			Int("status", resp.HTTPCode()).
			Int("hops", len(resp.Blocks())).
			Str("effective_url", resp.EffectiveURL()).
			Dur("total", resp.TotalTime())
		if terr := resp.TransportError(); terr != nil {
			event = event.AnErr("transport_error", terr)
		}
		event.Msg("request complete")
	}

	return resp, nil
}

// Send resets the builder, configures method, URL and headers, sets the
// body when the method accepts one, and executes. A body supplied for a
// method that does not accept one is ignored.
func (b *Builder) Send(ctx context.Context, method, url string, headers interface{}, body interface{}, enc Encoding) (*Response, error) {
	b.Reset()
	if err := b.SetMethod(method); err != nil {
		return nil, err
	}
	if err := b.SetURL(url); err != nil {
		return nil, err
	}
	if headers != nil {
		if err := b.SetHeaders(headers); err != nil {
			return nil, err
		}
	}
	if body != nil && b.spec.Method.AcceptsBody() {
		if err := b.SetBody(body, enc); err != nil {
			return nil, err
		}
	}
	return b.Execute(ctx)
}

// Get sends a GET request
func (b *Builder) Get(ctx context.Context, url string, headers interface{}) (*Response, error) {
	return b.Send(ctx, string(MethodGet), url, headers, nil, EncodingRaw)
}

// Post sends a POST request
func (b *Builder) Post(ctx context.Context, url string, headers interface{}, body interface{}, enc Encoding) (*Response, error) {
	return b.Send(ctx, string(MethodPost), url, headers, body, enc)
}

// Put sends a PUT request
func (b *Builder) Put(ctx context.Context, url string, headers interface{}, body interface{}, enc Encoding) (*Response, error) {
	return b.Send(ctx, string(MethodPut), url, headers, body, enc)
}

// Delete sends a DELETE request
func (b *Builder) Delete(ctx context.Context, url string, headers interface{}, body interface{}, enc Encoding) (*Response, error) {
	return b.Send(ctx, string(MethodDelete), url, headers, body, enc)
}

// Patch sends a PATCH request
func (b *Builder) Patch(ctx context.Context, url string, headers interface{}, body interface{}, enc Encoding) (*Response, error) {
	return b.Send(ctx, string(MethodPatch), url, headers, body, enc)
}

// Head sends a HEAD request
func (b *Builder) Head(ctx context.Context, url string, headers interface{}) (*Response, error) {
	return b.Send(ctx, string(MethodHead), url, headers, nil, EncodingRaw)
}

// Connect sends a CONNECT request
func (b *Builder) Connect(ctx context.Context, url string, headers interface{}) (*Response, error) {
	return b.Send(ctx, string(MethodConnect), url, headers, nil, EncodingRaw)
}

// Options sends an OPTIONS request
func (b *Builder) Options(ctx context.Context, url string, headers interface{}) (*Response, error) {
	return b.Send(ctx, string(MethodOptions), url, headers, nil, EncodingRaw)
}

// Trace sends a TRACE request
func (b *Builder) Trace(ctx context.Context, url string, headers interface{}) (*Response, error) {
	return b.Send(ctx, string(MethodTrace), url, headers, nil, EncodingRaw)
}

// headerValue returns the first value of a header line named name.
func headerValue(lines []string, name string) (string, bool) {
	for _, h := range lines {
		n, v, found := strings.Cut(h, ":")
		if found && strings.EqualFold(strings.TrimSpace(n), name) {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}
