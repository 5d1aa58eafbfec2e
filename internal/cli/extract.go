package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	http "github.com/wesleyorama2/curlkit/http"
	"github.com/wesleyorama2/curlkit/internal/output"
)

var errNotFound = errors.New("no needle found in response body")

// extractFlags select values to print from the response
type extractFlags struct {
	hop         int
	showHeaders []string
	cookies     bool
	between     string
	all         bool
	jsonPaths   []string
	schema      string
	selectors   []string
	finds       []string
	compact     bool
}

func (f *extractFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&f.hop, "hop", -1, "Header block to read with --show-header and --cookies (0 is the first hop, default the last)")
	flags.StringArrayVar(&f.showHeaders, "show-header", []string{}, "Print a response header (can be used multiple times)")
	flags.BoolVar(&f.cookies, "cookies", false, "Print the cookies set by the response as a Cookie header value")
	flags.StringVar(&f.between, "between", "", "Print the text between two delimiters, given as start,end")
	flags.BoolVar(&f.all, "all", false, "With --between, print every match instead of the first")
	flags.StringArrayVar(&f.jsonPaths, "jsonpath", []string{}, "Print the value at a JSONPath (can be used multiple times)")
	flags.StringVar(&f.schema, "schema", "", "Validate the JSON body against a JSON Schema file")
	flags.StringArrayVar(&f.selectors, "select", []string{}, "Print the text of elements matching a CSS selector (can be used multiple times)")
	flags.StringArrayVar(&f.finds, "find", []string{}, "Check that the body contains a string, ignoring case (can be used multiple times)")
	flags.BoolVar(&f.compact, "compact", false, "Print the body with insignificant HTML whitespace removed")
}

// run prints the requested extractions in order. A failed lookup stops
// the run and is returned.
func (f *extractFlags) run(out io.Writer, formatter output.FormatProvider, resp *http.Response) error {
	if len(f.showHeaders) > 0 {
		values := make([]string, 0, len(f.showHeaders))
		for _, name := range f.showHeaders {
			value, err := f.header(resp, name)
			if err != nil {
				return err
			}
			values = append(values, name+": "+value)
		}
		fmt.Fprint(out, formatter.FormatValues("headers", values))
	}

	if f.cookies {
		raw, err := f.cookiesRaw(resp)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatValues("cookies", []string{raw}))
	}

	if f.between != "" {
		values, err := f.betweens(resp)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatValues("between", values))
	}

	for _, path := range f.jsonPaths {
		value, err := resp.JSONPath(path)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatValues(path, []string{value}))
	}

	if f.schema != "" {
		schema, err := os.ReadFile(f.schema)
		if err != nil {
			return fmt.Errorf("error reading schema file: %w", err)
		}
		if valid, errs := resp.ValidateSchema(string(schema)); !valid {
			return fmt.Errorf("schema validation failed: %v", errs)
		}
		fmt.Fprint(out, formatter.FormatValues("schema", []string{"valid"}))
	}

	for _, css := range f.selectors {
		texts, err := resp.Select(css)
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatValues(css, texts))
	}

	if len(f.finds) > 0 {
		result, err := resp.Find(f.finds...)
		if err != nil {
			return err
		}
		if !result.Found {
			return errNotFound
		}
		fmt.Fprint(out, formatter.FormatValues("found", []string{result.Match}))
	}

	if f.compact {
		body, err := resp.CompactBody()
		if err != nil {
			return err
		}
		fmt.Fprint(out, formatter.FormatValues("compact", []string{body}))
	}

	return nil
}

func (f *extractFlags) header(resp *http.Response, name string) (string, error) {
	if f.hop < 0 {
		return resp.Header(name)
	}
	return resp.HeaderAt(f.hop, name)
}

func (f *extractFlags) cookiesRaw(resp *http.Response) (string, error) {
	if f.hop < 0 {
		return resp.CookiesRaw()
	}
	return resp.CookiesRawAt(f.hop)
}

func (f *extractFlags) betweens(resp *http.Response) ([]string, error) {
	start, end, ok := strings.Cut(f.between, ",")
	if !ok || start == "" || end == "" {
		return nil, fmt.Errorf("%w: --between must be start,end", http.ErrConfiguration)
	}
	if f.all {
		return resp.Betweens(start, end, false)
	}
	value, found, err := resp.Between(start, end, false)
	if err != nil || !found {
		return nil, err
	}
	return []string{value}, nil
}
