package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	http "github.com/wesleyorama2/curlkit/http"
)

// bodyFlags describe the request body. At most one of --data, --form and
// --json/--set may be used.
type bodyFlags struct {
	data string
	form []string
	json string
	set  []string
}

func (f *bodyFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.data, "data", "d", "", "Raw request body, or @file to read it from a file")
	flags.StringArrayVarP(&f.form, "form", "F", []string{}, "Form field name=value, sent url-encoded (can be used multiple times)")
	flags.StringVarP(&f.json, "json", "j", "", "JSON request body")
	flags.StringArrayVar(&f.set, "set", []string{}, "Set path=value in the JSON body (can be used multiple times)")
}

// build returns the body and its encoding, or a nil body when no body flag
// was given.
func (f *bodyFlags) build() (interface{}, http.Encoding, error) {
	kinds := 0
	if f.data != "" {
		kinds++
	}
	if len(f.form) > 0 {
		kinds++
	}
	if f.json != "" || len(f.set) > 0 {
		kinds++
	}
	if kinds > 1 {
		return nil, http.EncodingRaw, fmt.Errorf("%w: only one of --data, --form and --json/--set may be given", http.ErrConfiguration)
	}

	switch {
	case f.data != "":
		data, err := readData(f.data)
		return data, http.EncodingRaw, err
	case len(f.form) > 0:
		values, err := formValues(f.form)
		return values, http.EncodingQuery, err
	case f.json != "" || len(f.set) > 0:
		doc, err := jsonBody(f.json, f.set)
		return doc, http.EncodingJSON, err
	default:
		return nil, http.EncodingRaw, nil
	}
}

func readData(data string) (string, error) {
	if !strings.HasPrefix(data, "@") {
		return data, nil
	}
	content, err := os.ReadFile(strings.TrimPrefix(data, "@"))
	if err != nil {
		return "", fmt.Errorf("error reading body file: %w", err)
	}
	return string(content), nil
}

func formValues(fields []string) (url.Values, error) {
	values := url.Values{}
	for _, field := range fields {
		name, value, ok := strings.Cut(field, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: form field %q must be name=value", http.ErrConfiguration, field)
		}
		values.Add(name, value)
	}
	return values, nil
}

// jsonBody applies each path=value assignment to base, or to an empty
// object when base is empty. Values that parse as JSON are set as JSON,
// anything else as a string.
func jsonBody(base string, assignments []string) (json.RawMessage, error) {
	doc := strings.TrimSpace(base)
	if doc == "" {
		doc = "{}"
	}
	if !gjson.Valid(doc) {
		return nil, fmt.Errorf("%w: --json is not valid JSON", http.ErrConfiguration)
	}

	for _, assignment := range assignments {
		path, value, ok := strings.Cut(assignment, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: --set %q must be path=value", http.ErrConfiguration, assignment)
		}

		var err error
		if gjson.Valid(value) {
			doc, err = sjson.SetRaw(doc, path, value)
		} else {
			doc, err = sjson.Set(doc, path, value)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: --set %q: %v", http.ErrConfiguration, assignment, err)
		}
	}
	return json.RawMessage(doc), nil
}
