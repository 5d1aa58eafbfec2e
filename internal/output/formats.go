package output

import (
	"encoding/json"
	"fmt"
	"time"

	http "github.com/wesleyorama2/curlkit/http"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name
func ParseFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case FormatText, FormatJSON, FormatYAML:
		return OutputFormat(name), nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text, json or yaml)", name)
	}
}

// FormatProvider is an interface for different output formatters
type FormatProvider interface {
	FormatRequest(spec http.RequestSpec) string
	FormatResponse(resp *http.Response) string
	FormatValues(label string, values []string) string
}

// RequestData represents the structured data of an outgoing request
type RequestData struct {
	Method    string   `json:"method" yaml:"method"`
	URL       string   `json:"url" yaml:"url"`
	Headers   []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body      string   `json:"body,omitempty" yaml:"body,omitempty"`
	Encoding  string   `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Proxy     string   `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Timestamp string   `json:"timestamp" yaml:"timestamp"`
}

// TimingData represents detailed timing information for an HTTP request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs,omitempty" yaml:"dnsLookupMs,omitempty"`
	TCPConnection   int64 `json:"tcpConnectionMs,omitempty" yaml:"tcpConnectionMs,omitempty"`
	TLSHandshake    int64 `json:"tlsHandshakeMs,omitempty" yaml:"tlsHandshakeMs,omitempty"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs,omitempty" yaml:"timeToFirstByteMs,omitempty"`
	ContentTransfer int64 `json:"contentTransferMs,omitempty" yaml:"contentTransferMs,omitempty"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// HopData is the header block of one hop
type HopData struct {
	ResponseCode int               `json:"responseCode" yaml:"responseCode"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Cookies      map[string]string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
}

// ResponseData represents the structured data of a response
type ResponseData struct {
	StatusCode   int         `json:"statusCode" yaml:"statusCode"`
	EffectiveURL string      `json:"effectiveUrl,omitempty" yaml:"effectiveUrl,omitempty"`
	Error        string      `json:"error,omitempty" yaml:"error,omitempty"`
	Hops         []HopData   `json:"hops,omitempty" yaml:"hops,omitempty"`
	Body         interface{} `json:"body,omitempty" yaml:"body,omitempty"`
	ResponseTime int64       `json:"responseTimeMs" yaml:"responseTimeMs"`
	Timing       *TimingData `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp    string      `json:"timestamp" yaml:"timestamp"`
}

func requestData(spec http.RequestSpec) RequestData {
	data := RequestData{
		Method:    spec.Method.String(),
		URL:       spec.URL,
		Headers:   spec.Headers,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if spec.HasBody {
		data.Body = spec.Body
		data.Encoding = spec.BodyEncoding.String()
	}
	if spec.Options.Proxy != nil {
		data.Proxy = spec.Options.Proxy.String()
	}
	return data
}

// responseData flattens a response. Hops and timing are included only in
// verbose mode; without it only the final hop's headers are kept.
func responseData(resp *http.Response, verbose bool) ResponseData {
	data := ResponseData{
		StatusCode:   resp.HTTPCode(),
		EffectiveURL: resp.EffectiveURL(),
		ResponseTime: resp.TotalTime().Milliseconds(),
		Timestamp:    time.Now().Format(time.RFC3339),
	}
	if err := resp.TransportError(); err != nil {
		data.Error = err.Error()
	}

	blocks := resp.Blocks()
	if !verbose && len(blocks) > 0 {
		blocks = blocks[len(blocks)-1:]
	}
	for _, b := range blocks {
		data.Hops = append(data.Hops, HopData{
			ResponseCode: b.ResponseCode,
			Headers:      b.Fields,
			Cookies:      b.Cookies,
		})
	}

	if verbose {
		timing := resp.Timing()
		data.Timing = &TimingData{
			DNSLookup:       timing.DNSLookupTime.Milliseconds(),
			TCPConnection:   timing.TCPConnectTime.Milliseconds(),
			TLSHandshake:    timing.TLSHandshakeTime.Milliseconds(),
			TimeToFirstByte: timing.TimeToFirstByte.Milliseconds(),
			ContentTransfer: timing.ContentTransferTime.Milliseconds(),
			Total:           timing.TotalTime.Milliseconds(),
		}
	}

	if v, err := resp.JSONValue(); err == nil {
		data.Body = v
	} else if body, err := resp.Body(); err == nil && body != "" {
		data.Body = body
	}
	return data
}

// JSONFormatter formats output as JSON
type JSONFormatter struct {
	Verbose bool
	Pretty  bool
}

func (f *JSONFormatter) marshal(v interface{}) string {
	var output []byte
	var err error
	if f.Pretty {
		output, err = json.MarshalIndent(v, "", "  ")
	} else {
		output, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Sprintf(`{"error":"Failed to marshal output: %s"}`, err)
	}
	return string(output) + "\n"
}

// FormatRequest formats a request as JSON
func (f *JSONFormatter) FormatRequest(spec http.RequestSpec) string {
	return f.marshal(requestData(spec))
}

// FormatResponse formats a response as JSON
func (f *JSONFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatValues formats extracted values as a JSON object keyed by label
func (f *JSONFormatter) FormatValues(label string, values []string) string {
	if values == nil {
		values = []string{}
	}
	return f.marshal(map[string][]string{label: values})
}

// YAMLFormatter formats output as YAML documents
type YAMLFormatter struct {
	Verbose bool
}

func (f *YAMLFormatter) marshal(v interface{}) string {
	output, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("---\nerror: Failed to marshal output: %s\n", err)
	}
	return "---\n" + string(output)
}

// FormatRequest formats a request as YAML
func (f *YAMLFormatter) FormatRequest(spec http.RequestSpec) string {
	return f.marshal(requestData(spec))
}

// FormatResponse formats a response as YAML
func (f *YAMLFormatter) FormatResponse(resp *http.Response) string {
	return f.marshal(responseData(resp, f.Verbose))
}

// FormatValues formats extracted values as a YAML mapping keyed by label
func (f *YAMLFormatter) FormatValues(label string, values []string) string {
	if values == nil {
		values = []string{}
	}
	return f.marshal(map[string][]string{label: values})
}

// GetFormatter returns the appropriate formatter for the given format
func GetFormatter(format OutputFormat, verbose bool, noColor bool) FormatProvider {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Verbose: verbose, Pretty: !noColor}
	case FormatYAML:
		return &YAMLFormatter{Verbose: verbose}
	default:
		return NewFormatter(verbose, noColor)
	}
}
