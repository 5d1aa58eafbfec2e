package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	http "github.com/wesleyorama2/curlkit/http"
	"gopkg.in/yaml.v3"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    OutputFormat
		wantErr bool
	}{
		{input: "", want: FormatText},
		{input: "text", want: FormatText},
		{input: "json", want: FormatJSON},
		{input: "yaml", want: FormatYAML},
		{input: "junit", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGetFormatter(t *testing.T) {
	if _, ok := GetFormatter(FormatJSON, false, false).(*JSONFormatter); !ok {
		t.Error("Expected *JSONFormatter for json")
	}
	if _, ok := GetFormatter(FormatYAML, false, false).(*YAMLFormatter); !ok {
		t.Error("Expected *YAMLFormatter for yaml")
	}
	if _, ok := GetFormatter(FormatText, false, false).(*Formatter); !ok {
		t.Error("Expected *Formatter for text")
	}
}

func TestJSONFormatter_FormatResponse(t *testing.T) {
	resp := cannedResponse(t, "GET", twoHops, `{"id":1,"tags":["a"]}`, http.Metadata{
		StatusCode:   200,
		EffectiveURL: "https://api.example.com/new",
		TotalTime:    10 * time.Millisecond,
	})

	var data ResponseData
	if err := json.Unmarshal([]byte((&JSONFormatter{}).FormatResponse(resp)), &data); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if data.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", data.StatusCode)
	}
	if len(data.Hops) != 1 || data.Hops[0].Cookies["sid"] != "xyz" {
		t.Errorf("Expected only the final hop, got %+v", data.Hops)
	}
	body, ok := data.Body.(map[string]interface{})
	if !ok || body["id"] != float64(1) {
		t.Errorf("Expected decoded JSON body, got %#v", data.Body)
	}
	if data.Timing != nil {
		t.Error("Timing should be omitted when not verbose")
	}

	if err := json.Unmarshal([]byte((&JSONFormatter{Verbose: true}).FormatResponse(resp)), &data); err != nil {
		t.Fatalf("verbose output is not valid JSON: %v", err)
	}
	if len(data.Hops) != 2 || data.Hops[0].ResponseCode != 301 {
		t.Errorf("Expected both hops in verbose mode, got %+v", data.Hops)
	}
	if data.Timing == nil {
		t.Error("Timing should be present in verbose mode")
	}
}

func TestJSONFormatter_TextBody(t *testing.T) {
	resp := cannedResponse(t, "GET", "HTTP/1.1 200 OK\r\n\r\n", "plain text", http.Metadata{StatusCode: 200})

	var data ResponseData
	if err := json.Unmarshal([]byte((&JSONFormatter{Pretty: true}).FormatResponse(resp)), &data); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if data.Body != "plain text" {
		t.Errorf("Body = %#v, want raw string", data.Body)
	}
}

func TestJSONFormatter_FormatValues(t *testing.T) {
	out := (&JSONFormatter{}).FormatValues("select", nil)
	if strings.TrimSpace(out) != `{"select":[]}` {
		t.Errorf("FormatValues() = %q", out)
	}
}

func TestYAMLFormatter(t *testing.T) {
	resp := cannedResponse(t, "GET", twoHops, `{"id":1}`, http.Metadata{StatusCode: 200, Err: "read: reset"})

	out := (&YAMLFormatter{}).FormatResponse(resp)
	if !strings.HasPrefix(out, "---\n") {
		t.Errorf("Expected YAML document marker, got: %s", out)
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if data["statusCode"] != 200 {
		t.Errorf("statusCode = %v, want 200", data["statusCode"])
	}
	if data["error"] != "transport error: read: reset" {
		t.Errorf("error = %v", data["error"])
	}

	b := http.NewBuilder()
	b.SetMethod("PUT")
	b.SetURL("https://api.example.com/items/1")
	b.SetBody("a=1", http.EncodingRaw)
	req := (&YAMLFormatter{}).FormatRequest(b.Spec())
	if !strings.Contains(req, "method: PUT") || !strings.Contains(req, "body: a=1") {
		t.Errorf("FormatRequest() = %s", req)
	}
}
