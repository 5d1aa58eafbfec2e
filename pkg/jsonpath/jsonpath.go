// Package jsonpath evaluates a practical subset of JSONPath against JSON
// documents: dotted members, bracketed members, array indexes and the [*]
// wildcard.
package jsonpath

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Extract returns the value at path as a string. Objects and arrays are
// returned as raw JSON, null as "null".
func Extract(json string, path string) (string, error) {
	result, err := lookup(json, path)
	if err != nil {
		return "", err
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// Exists reports whether path resolves to a value in json
func Exists(json string, path string) bool {
	_, err := lookup(json, path)
	return err == nil
}

// ExtractMultiple evaluates several named paths. Values that resolve are
// returned even when others fail; the error lists every failure.
func ExtractMultiple(json string, paths map[string]string) (map[string]string, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no JSONPath expressions provided")
	}
	if json == "" {
		return nil, fmt.Errorf("empty JSON string")
	}

	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string)
	var failures []string
	for _, name := range names {
		value, err := Extract(json, paths[name])
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		results[name] = value
	}

	if len(failures) > 0 {
		return results, fmt.Errorf("extraction errors: %s", strings.Join(failures, "; "))
	}
	return results, nil
}

func lookup(json, path string) (gjson.Result, error) {
	if json == "" {
		return gjson.Result{}, fmt.Errorf("empty JSON string")
	}
	if path == "" {
		return gjson.Result{}, fmt.Errorf("empty JSONPath expression")
	}
	if !gjson.Valid(json) {
		return gjson.Result{}, fmt.Errorf("invalid JSON document")
	}

	gpath, err := toGjsonPath(path)
	if err != nil {
		return gjson.Result{}, err
	}
	result := gjson.Get(json, gpath)
	if !result.Exists() {
		return gjson.Result{}, fmt.Errorf("path not found: %s", path)
	}
	return result, nil
}

// toGjsonPath rewrites $.a['b'][0][*].c as a.b.0.#.c
func toGjsonPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this", nil
	}

	var parts []string
	for i := 0; i < len(path); {
		switch path[i] {
		case '.':
			i++
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			if j == i {
				return "", fmt.Errorf("empty member name at offset %d in %q", i, path)
			}
			parts = append(parts, escapeMember(path[i:j]))
			i = j
		case '[':
			end := strings.IndexByte(path[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("unterminated bracket in %q", path)
			}
			inner := strings.TrimSpace(path[i+1 : i+end])
			switch {
			case inner == "*":
				parts = append(parts, "#")
			case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0]:
				parts = append(parts, escapeMember(inner[1:len(inner)-1]))
			case inner != "":
				parts = append(parts, inner)
			default:
				return "", fmt.Errorf("empty brackets in %q", path)
			}
			i += end + 1
		default:
			// a bare leading member such as "name.first"
			j := i
			for j < len(path) && path[j] != '.' && path[j] != '[' {
				j++
			}
			parts = append(parts, escapeMember(path[i:j]))
			i = j
		}
	}
	return strings.Join(parts, "."), nil
}

var gjsonSpecial = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escapeMember(name string) string {
	return gjsonSpecial.Replace(name)
}
