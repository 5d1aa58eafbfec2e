package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"sort"
	"strings"

	http "github.com/wesleyorama2/curlkit/http"
)

// Formatter renders requests and responses as human-readable text
type Formatter struct {
	Verbose bool
	NoColor bool
	scheme  *ColorScheme
}

// NewFormatter creates a new formatter with the given options
func NewFormatter(verbose, noColor bool) *Formatter {
	scheme := DefaultColorScheme()
	if noColor {
		scheme = NoColorScheme()
	}
	return &Formatter{
		Verbose: verbose,
		NoColor: noColor,
		scheme:  scheme,
	}
}

// FormatRequest formats an outgoing request for display
func (f *Formatter) FormatRequest(spec http.RequestSpec) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.scheme.Method.Sprint(spec.Method), f.scheme.URL.Sprint(spec.URL)))

	if f.Verbose && spec.Options.Proxy != nil {
		buf.WriteString(fmt.Sprintf("  Proxy: %s\n", spec.Options.Proxy))
	}

	if len(spec.Headers) > 0 {
		buf.WriteString("  Headers:\n")
		for _, line := range spec.HeaderLines() {
			buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(line[0]), line[1]))
		}
	}

	if spec.HasBody {
		buf.WriteString(fmt.Sprintf("  Body (%s): ", spec.BodyEncoding))
		buf.WriteString(formatJSONString(spec.Body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatResponse formats a response for display
func (f *Formatter) FormatResponse(resp *http.Response) string {
	var buf strings.Builder

	code := resp.HTTPCode()
	buf.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.scheme.Status(code).Sprint(statusText(code)),
		resp.TotalTime().Milliseconds()))

	if err := resp.TransportError(); err != nil {
		buf.WriteString(fmt.Sprintf("  %s %s\n", Mark(false, f.NoColor), f.scheme.Error.Sprint(err)))
	}

	if f.Verbose {
		timing := resp.Timing()
		buf.WriteString(fmt.Sprintf("  Effective URL: %s\n", resp.EffectiveURL()))
		buf.WriteString("  Timing:\n")
		buf.WriteString(fmt.Sprintf("    DNS Lookup:      %dms\n", timing.DNSLookupTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TCP Connection:  %dms\n", timing.TCPConnectTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    TLS Handshake:   %dms\n", timing.TLSHandshakeTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Time to First Byte: %dms\n", timing.TimeToFirstByte.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Content Transfer:  %dms\n", timing.ContentTransferTime.Milliseconds()))
		buf.WriteString(fmt.Sprintf("    Total:           %dms\n", timing.TotalTime.Milliseconds()))

		for i, block := range resp.Blocks() {
			buf.WriteString(fmt.Sprintf("  %s\n", f.scheme.Hop.Sprintf("Hop %d (%d):", i, block.ResponseCode)))
			for _, name := range sortedNames(block.Fields) {
				buf.WriteString(fmt.Sprintf("    %s: %s\n", f.scheme.HeaderKey.Sprint(name), block.Fields[name]))
			}
			for _, name := range sortedNames(block.Cookies) {
				buf.WriteString(fmt.Sprintf("    %s %s=%s\n", f.scheme.Cookie.Sprint("cookie"), name, block.Cookies[name]))
			}
		}
	}

	body, err := resp.Body()
	if err == nil && body != "" {
		buf.WriteString("  Body:\n")
		buf.WriteString(formatJSONString(body))
		buf.WriteString("\n")
	}

	return buf.String()
}

// FormatValues formats values extracted from a response, one per line
func (f *Formatter) FormatValues(label string, values []string) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("  %s:\n", f.scheme.Hop.Sprint(label)))
	for _, v := range values {
		buf.WriteString("    " + v + "\n")
	}
	return buf.String()
}

func statusText(code int) string {
	if code == 0 {
		return "no response"
	}
	if text := nethttp.StatusText(code); text != "" {
		return fmt.Sprintf("%d %s", code, text)
	}
	return fmt.Sprintf("%d", code)
}

func sortedNames(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// formatJSONString attempts to pretty-print a JSON string
func formatJSONString(s string) string {
	var prettyJSON bytes.Buffer
	err := json.Indent(&prettyJSON, []byte(s), "  ", "  ")
	if err != nil {
		return s
	}
	return prettyJSON.String()
}
