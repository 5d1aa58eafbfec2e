package http

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wesleyorama2/curlkit/pkg/between"
	"github.com/wesleyorama2/curlkit/pkg/jsonpath"
	"github.com/wesleyorama2/curlkit/pkg/jsonschema"
	"github.com/wesleyorama2/curlkit/pkg/selector"
)

// Response is the parsed result of one execution. It is not modified after
// Execute returns.
type Response struct {
	method     Method
	metadata   Metadata
	rawHeaders string
	blocks     []HeaderBlock
	body       string
	hasBody    bool
	err        *TransportError
}

func newResponse(spec *RequestSpec, raw RawResponse) *Response {
	size := raw.HeaderSize
	if size < 0 {
		size = 0
	}
	if size > len(raw.Raw) {
		size = len(raw.Raw)
	}

	headers := strings.TrimSpace(string(raw.Raw[:size]))
	resp := &Response{
		method:     spec.Method,
		metadata:   raw.Metadata,
		rawHeaders: headers,
		blocks:     ParseHeaderBlocks(headers),
	}
	if spec.Method.ReturnsBody() {
		resp.body = string(raw.Raw[size:])
		resp.hasBody = true
	}
	if raw.Metadata.Err != "" {
		resp.err = &TransportError{Message: raw.Metadata.Err}
	}
	return resp
}

// Method returns the method that produced the response
func (r *Response) Method() Method {
	return r.method
}

// Metadata returns what the transport reported about the exchange
func (r *Response) Metadata() Metadata {
	return r.metadata
}

// TransportError returns the transport failure, or nil. It is never
// returned from Execute, so callers check it explicitly.
func (r *Response) TransportError() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// HTTPCode returns the status code of the final hop
func (r *Response) HTTPCode() int {
	return r.metadata.StatusCode
}

// EffectiveURL returns the URL of the final hop
func (r *Response) EffectiveURL() string {
	return r.metadata.EffectiveURL
}

// TotalTime returns the duration of the whole exchange
func (r *Response) TotalTime() time.Duration {
	return r.metadata.TotalTime
}

// Timing returns the detailed phase timings
func (r *Response) Timing() TimingInfo {
	return r.metadata.Timing
}

// IsSuccess returns true if the status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.metadata.StatusCode >= 200 && r.metadata.StatusCode < 300
}

// IsRedirect returns true if the status code is in the 3xx range
func (r *Response) IsRedirect() bool {
	return r.metadata.StatusCode >= 300 && r.metadata.StatusCode < 400
}

// Body returns the response body. Methods whose responses carry no body
// yield ErrConfiguration.
func (r *Response) Body() (string, error) {
	if !r.hasBody {
		return "", fmt.Errorf("%w: method %s does not support a response body", ErrConfiguration, r.method)
	}
	return r.body, nil
}

// CompactBody returns the body with insignificant HTML whitespace removed.
func (r *Response) CompactBody() (string, error) {
	body, err := r.Body()
	if err != nil {
		return "", err
	}
	return CompactHTML(body), nil
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	body, err := r.Body()
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return fmt.Errorf("%w: response json: %v", ErrParse, err)
	}
	return nil
}

// JSONValue decodes the body into a generic value. The document must be a
// JSON object or array.
func (r *Response) JSONValue() (interface{}, error) {
	var v interface{}
	if err := r.JSON(&v); err != nil {
		return nil, err
	}
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: response json is not an object or array", ErrParse)
	}
}

// JSONPath extracts a value from a JSON body
func (r *Response) JSONPath(path string) (string, error) {
	body, err := r.Body()
	if err != nil {
		return "", err
	}
	value, err := jsonpath.Extract(body, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLookup, err)
	}
	return value, nil
}

// ValidateSchema checks a JSON body against a JSON Schema document.
func (r *Response) ValidateSchema(schema string) (bool, jsonschema.ValidationErrors) {
	body, err := r.Body()
	if err != nil {
		return false, jsonschema.ValidationErrors{err}
	}
	return jsonschema.ValidateWithErrors(body, schema)
}

// Select returns the text of the HTML elements matching a CSS selector.
func (r *Response) Select(css string) ([]string, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	texts, err := selector.Texts(body, css)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return texts, nil
}

// Between returns the first span of the body enclosed by start and end.
func (r *Response) Between(start, end string, includeDelimiters bool) (string, bool, error) {
	body, err := r.Body()
	if err != nil {
		return "", false, err
	}
	offset := 0
	s, ok := between.GetBetween(start, end, body, includeDelimiters, &offset)
	return s, ok, nil
}

// Betweens returns every span of the body enclosed by start and end.
func (r *Response) Betweens(start, end string, includeDelimiters bool) ([]string, error) {
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	return between.GetBetweens(start, end, body, includeDelimiters), nil
}

// FindResult reports the outcome of Find.
type FindResult struct {
	Found bool
	// Match is the last needle found in the body.
	Match string
}

// Find reports whether any needle occurs in the body, ignoring case.
func (r *Response) Find(needles ...string) (FindResult, error) {
	body, err := r.Body()
	if err != nil {
		return FindResult{}, err
	}
	return FindIn(body, needles...), nil
}

// FindIn reports whether any needle occurs in source, ignoring case.
func FindIn(source string, needles ...string) FindResult {
	var result FindResult
	lower := strings.ToLower(source)
	for _, needle := range needles {
		if needle == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(needle)) {
			result.Found = true
			result.Match = needle
		}
	}
	return result
}

// RawHeaders returns the header sections of all hops as received
func (r *Response) RawHeaders() string {
	return r.rawHeaders
}

// Blocks returns the parsed header blocks, earliest hop first.
func (r *Response) Blocks() []HeaderBlock {
	return r.blocks
}

func (r *Response) block(id int) (HeaderBlock, error) {
	if id < 0 || id >= len(r.blocks) {
		return HeaderBlock{}, fmt.Errorf("%w: header block %d not found (%d blocks)", ErrLookup, id, len(r.blocks))
	}
	return r.blocks[id], nil
}

func (r *Response) lastBlock() (HeaderBlock, error) {
	return r.block(len(r.blocks) - 1)
}

// Headers returns the header fields of the final hop
func (r *Response) Headers() (map[string]string, error) {
	b, err := r.lastBlock()
	if err != nil {
		return nil, err
	}
	return copyMap(b.Fields), nil
}

// HeadersAt returns the header fields of hop id
func (r *Response) HeadersAt(id int) (map[string]string, error) {
	b, err := r.block(id)
	if err != nil {
		return nil, err
	}
	return copyMap(b.Fields), nil
}

// Header returns a header field of the final hop
func (r *Response) Header(name string) (string, error) {
	b, err := r.lastBlock()
	if err != nil {
		return "", err
	}
	return lookup(b.Fields, name, "header")
}

// HeaderAt returns a header field of hop id
func (r *Response) HeaderAt(id int, name string) (string, error) {
	b, err := r.block(id)
	if err != nil {
		return "", err
	}
	return lookup(b.Fields, name, "header")
}

// Cookies returns the cookies set by the final hop
func (r *Response) Cookies() (map[string]string, error) {
	b, err := r.lastBlock()
	if err != nil {
		return nil, err
	}
	return copyMap(b.Cookies), nil
}

// CookiesAt returns the cookies set by hop id
func (r *Response) CookiesAt(id int) (map[string]string, error) {
	b, err := r.block(id)
	if err != nil {
		return nil, err
	}
	return copyMap(b.Cookies), nil
}

// Cookie returns a cookie set by the final hop
func (r *Response) Cookie(name string) (string, error) {
	b, err := r.lastBlock()
	if err != nil {
		return "", err
	}
	return lookup(b.Cookies, name, "cookie")
}

// CookieAt returns a cookie set by hop id
func (r *Response) CookieAt(id int, name string) (string, error) {
	b, err := r.block(id)
	if err != nil {
		return "", err
	}
	return lookup(b.Cookies, name, "cookie")
}

// CookiesRaw renders the final hop's cookies as a Cookie header value
func (r *Response) CookiesRaw() (string, error) {
	b, err := r.lastBlock()
	if err != nil {
		return "", err
	}
	return joinCookies(b.Cookies), nil
}

// CookiesRawAt renders hop id's cookies as a Cookie header value
func (r *Response) CookiesRawAt(id int) (string, error) {
	b, err := r.block(id)
	if err != nil {
		return "", err
	}
	return joinCookies(b.Cookies), nil
}

func joinCookies(cookies map[string]string) string {
	names := make([]string, 0, len(cookies))
	for name := range cookies {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+cookies[name])
	}
	return strings.Join(pairs, "; ")
}

func lookup(m map[string]string, key, kind string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", fmt.Errorf("%w: %s %q not found", ErrLookup, kind, key)
	}
	return v, nil
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
