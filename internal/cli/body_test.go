package cli

import (
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	http "github.com/wesleyorama2/curlkit/http"
)

func TestBodyFlagsBuild(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		body, enc, err := (&bodyFlags{}).build()
		if err != nil || body != nil || enc != http.EncodingRaw {
			t.Errorf("build() = %v, %v, %v", body, enc, err)
		}
	})

	t.Run("raw data", func(t *testing.T) {
		body, enc, err := (&bodyFlags{data: "a,b"}).build()
		if err != nil || body != "a,b" || enc != http.EncodingRaw {
			t.Errorf("build() = %v, %v, %v", body, enc, err)
		}
	})

	t.Run("data from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "body.txt")
		os.WriteFile(path, []byte("from file"), 0644)
		body, _, err := (&bodyFlags{data: "@" + path}).build()
		if err != nil || body != "from file" {
			t.Errorf("build() = %v, %v", body, err)
		}
	})

	t.Run("form", func(t *testing.T) {
		body, enc, err := (&bodyFlags{form: []string{"a=1", "a=2", "b="}}).build()
		if err != nil || enc != http.EncodingQuery {
			t.Fatalf("build() = %v, %v, %v", body, enc, err)
		}
		values := body.(url.Values)
		if len(values["a"]) != 2 || values.Get("b") != "" {
			t.Errorf("values = %v", values)
		}
	})

	t.Run("bad form field", func(t *testing.T) {
		_, _, err := (&bodyFlags{form: []string{"novalue"}}).build()
		if !errors.Is(err, http.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("json with set", func(t *testing.T) {
		body, enc, err := (&bodyFlags{set: []string{"user.name=ada", "user.age=36", "tags=[\"a\"]"}}).build()
		if err != nil || enc != http.EncodingJSON {
			t.Fatalf("build() = %v, %v, %v", body, enc, err)
		}
		var doc map[string]interface{}
		if err := json.Unmarshal(body.(json.RawMessage), &doc); err != nil {
			t.Fatal(err)
		}
		user := doc["user"].(map[string]interface{})
		if user["name"] != "ada" || user["age"] != float64(36) {
			t.Errorf("doc = %v", doc)
		}
		if tags := doc["tags"].([]interface{}); len(tags) != 1 {
			t.Errorf("tags = %v", tags)
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := (&bodyFlags{json: "{"}).build()
		if !errors.Is(err, http.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	})

	t.Run("conflicting", func(t *testing.T) {
		_, _, err := (&bodyFlags{data: "x", json: "{}"}).build()
		if !errors.Is(err, http.ErrConfiguration) {
			t.Errorf("Expected ErrConfiguration, got %v", err)
		}
	})
}
